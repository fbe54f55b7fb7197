/*
Copyright © 2018 the rivus authors.
This file is part of rivus.

rivus is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rivus is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rivus.  If not, see <http://www.gnu.org/licenses/>.
*/

package rivus

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func TestLineLength(t *testing.T) {
	tests := []struct {
		line   geom.LineString
		length float64
	}{
		{
			line: geom.LineString{
				{X: 11.6625881, Y: 48.2680606},
				{X: 11.6527176, Y: 48.2493919},
				{X: 11.6424179, Y: 48.2366107},
				{X: 11.6235352, Y: 48.1952043},
				{X: 11.608429, Y: 48.184218},
				{X: 11.5871429, Y: 48.1647573},
				{X: 11.5795898, Y: 48.1455182},
			},
			length: 15181,
		},
		{
			line: geom.LineString{
				{X: 11.5795898, Y: 48.1455182},
				{X: 11.6142654, Y: 48.1379581},
				{X: 11.6630173, Y: 48.1391036},
				{X: 11.6781235, Y: 48.1372707},
				{X: 11.6963196, Y: 48.142311},
				{X: 11.7581177, Y: 48.1432274},
			},
			length: 13553,
		},
		{
			line: geom.LineString{
				{X: 11.5710926, Y: 48.1596505},
				{X: 11.5704918, Y: 48.1586199},
				{X: 11.5718651, Y: 48.1582764},
			},
			length: 232,
		},
		{
			line: geom.LineString{
				{X: 11.571908, Y: 48.1490288},
				{X: 11.5755129, Y: 48.1544401},
			},
			length: 659,
		},
	}
	for i, test := range tests {
		if have := math.Round(LineLength(test.line, true)); have != test.length {
			t.Errorf("line %d: have %g m, want %g m", i, have, test.length)
		}
	}

	var ml geom.MultiLineString
	var total float64
	for _, test := range tests {
		ml = append(ml, test.line)
		total += LineLength(test.line, true)
	}
	if have := MultiLineLength(ml, true); different(have, total, testTolerance) {
		t.Errorf("multi-line: have %g, want %g", have, total)
	}
}

func TestLineLengthProjected(t *testing.T) {
	l := geom.LineString{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 10}}
	if have := LineLength(l, false); different(have, 11, testTolerance) {
		t.Errorf("have %g, want 11", have)
	}
}

func TestGeodesic(t *testing.T) {
	p := geom.Point{X: 11.57, Y: 48.14}
	if d := geodesic(p, p); d != 0 {
		t.Errorf("coincident points: have %g", d)
	}
	// One degree of longitude on the equator.
	d := geodesic(geom.Point{X: 0, Y: 0}, geom.Point{X: 1, Y: 0})
	if different(d, 2*math.Pi*wgs84A/360, 1e-9) {
		t.Errorf("equator: have %g", d)
	}
	// Nearly antipodal points fall back to the great-circle distance.
	a, b := geom.Point{X: 0, Y: 0}, geom.Point{X: 179.7, Y: 0.5}
	if d := geodesic(a, b); d < 1.9e7 || d > 2.01e7 {
		t.Errorf("antipodal: have %g", d)
	}
}
