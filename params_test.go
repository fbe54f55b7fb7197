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
	"testing"
)

func TestParam(t *testing.T) {
	d := gasData()
	tests := []struct {
		table  string
		key    []string
		column string
		want   float64
	}{
		{"Commodity", []string{"Heat"}, "cost-inv-fix", 10},
		{"commodity", []string{"Gas"}, "CAP-MAX", 5000},
		{"Process", []string{"Boiler"}, "cost-inv-var", 50},
		{"Process-Commodity", []string{"Boiler", "Gas", "In"}, "ratio", 0.5},
		{"Time", []string{"t1"}, "weight", 8760},
		{"Time", []string{"t1"}, "scale", 1},
		{"Time", []string{"t1"}, "Heat", 0},
		{"Area-Demand", []string{"residential", "Heat"}, "peak", 0.01},
		{"Vertex", []string{"1"}, "Gas", 1000},
		{"Edge", []string{"1", "2"}, "residential", 50000},
		{"Edge", []string{"1", "2"}, "length", 100},
	}
	for _, test := range tests {
		t.Run(test.table+"/"+test.column, func(t *testing.T) {
			have, err := d.Param(test.table, test.key, test.column)
			if err != nil {
				t.Fatal(err)
			}
			if have != test.want {
				t.Errorf("have %g, want %g", have, test.want)
			}
			if err := d.SetParam(test.table, test.key, test.column, 2*test.want+1); err != nil {
				t.Fatal(err)
			}
			have, err = d.Param(test.table, test.key, test.column)
			if err != nil {
				t.Fatal(err)
			}
			if have != 2*test.want+1 {
				t.Errorf("after set: have %g, want %g", have, 2*test.want+1)
			}
		})
	}
	if v, _ := gasData().Param("Commodity", []string{"Heat"}, "cost-inv-fix"); v != 10 {
		t.Error("fixtures should not share state")
	}
	if err := d.SetParam("Vertex", []string{"2"}, "Gas", 10); err != nil {
		t.Fatal(err)
	}
	if d.Vertices[1].Source["Gas"] != 10 {
		t.Errorf("nil maps should be created: %v", d.Vertices[1].Source)
	}
}

func TestParamErrors(t *testing.T) {
	d := gasData()
	tests := []struct {
		table  string
		key    []string
		column string
		err    string
	}{
		{"Building", []string{"x"}, "peak", `rivus: unknown table "Building"`},
		{"Commodity", []string{"Steam"}, "cap-max", "rivus: Commodity table has no row [Steam]"},
		{"Commodity", []string{"Heat"}, "colour", "rivus: Commodity table has no column colour"},
		{"Process-Commodity", []string{"Boiler", "Gas"}, "ratio",
			"rivus: Process-Commodity key [Boiler Gas]: want 3 values (Process, Commodity, Direction)"},
		{"Edge", []string{"1", "2"}, "Vertex1", "rivus: Edge column Vertex1 is not a parameter"},
	}
	for _, test := range tests {
		_, err := d.Param(test.table, test.key, test.column)
		if err == nil {
			t.Errorf("%s %v %s: expected an error", test.table, test.key, test.column)
			continue
		}
		if err.Error() != test.err {
			t.Errorf("have %q, want %q", err.Error(), test.err)
		}
	}
}
