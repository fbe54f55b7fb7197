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

package hash

import (
	"math"
	"testing"
)

type params struct {
	Name  string
	Scale map[string]float64
	Max   float64
}

func TestKey(t *testing.T) {
	a := params{Name: "base", Scale: map[string]float64{"Heat": 1, "Elec": 0.5}, Max: math.Inf(1)}
	b := params{Name: "base", Scale: map[string]float64{"Elec": 0.5, "Heat": 1}, Max: math.Inf(1)}
	c := params{Name: "base", Scale: map[string]float64{"Heat": 1, "Elec": 0.6}, Max: math.Inf(1)}

	if Key(a, "four") != Key(b, "four") {
		t.Error("equal contents should give equal keys")
	}
	if Key(a, "four") == Key(c, "four") {
		t.Error("different contents should give different keys")
	}
	if Key(a, "four") == Key(a, "three") {
		t.Error("every object should be part of the key")
	}
	if Key("x", "y") == Key("y", "x") {
		t.Error("the order of objects should matter")
	}
	if len(Key(a)) != 32 {
		t.Errorf("key %q should be 32 hexadecimal digits", Key(a))
	}
}

func TestKeyFunc(t *testing.T) {
	f := func() {}
	type withFunc struct {
		Name string
		F    func()
	}
	k1 := Key(withFunc{Name: "a", F: f})
	k2 := Key(withFunc{Name: "b", F: f})
	if k1 == k2 {
		t.Error("structs with function fields should still be keyed by content")
	}
}
