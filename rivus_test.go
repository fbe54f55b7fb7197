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
	"io/ioutil"
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rivus/milp"
)

const testTolerance = 1.e-8

func different(a, b, tolerance float64) bool {
	if a == b {
		return false
	}
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// quietConfig returns a build configuration that does not log.
func quietConfig() BuildConfig {
	log := logrus.New()
	log.Out = ioutil.Discard
	return BuildConfig{Log: log}
}

// heatData returns a network of two vertices connected by one edge of
// length 100 m. Vertex 1 can supply up to 1000 kW of Heat, and the edge
// has a peak Heat demand of 50000 m² × 0.01 kW/m² = 500 kW.
func heatData() *Data {
	return &Data{
		Commodities: []Commodity{
			{Name: "Heat", CapMax: 10000, CostInvFix: 10, CostInvVar: 1, CostFix: 0.1, CostVar: 0.05},
		},
		Time: []TimeStep{
			{Name: "t1", Weight: 8760, Scale: map[string]float64{"scale": 1}},
		},
		AreaDemand: []AreaDemand{
			{Area: "residential", Commodity: "Heat", Peak: 0.01, Demand: 20},
		},
		Vertices: []Vertex{
			{ID: "1", Source: map[string]float64{"Heat": 1000}},
			{ID: "2"},
		},
		Edges: []Edge{
			{V1: "1", V2: "2", Areas: map[string]float64{"residential": 50000}, Length: 100},
		},
	}
}

// heatAssignment is a feasible assignment for heatData: all of the
// demand is supplied from vertex 1 through arc (1,2).
var heatAssignment = map[string]float64{
	"Rho(1,Heat,t1)":     500,
	"Pin(1,2,Heat,t1)":   500,
	"Psi(1,2,Heat,t1)":   1,
	"Sigma(1,2,Heat,t1)": 500,
	"Pmax(1,2,Heat)":     500,
	"Xi(1,2,Heat)":       1,
}

// gasData returns a network where Heat is produced in vertex 1 by a
// boiler from Gas, which is only available at vertex 1. The boiler needs
// 0.5 units of Gas per unit of throughput, so it is not a hub under the
// four-condition rule.
func gasData() *Data {
	d := heatData()
	d.Commodities = append(d.Commodities,
		Commodity{Name: "Gas", CapMax: 5000, CostInvFix: 20, CostInvVar: 2, CostFix: 0.2, CostVar: 0.03},
	)
	d.Processes = []Process{
		{Name: "Boiler", CapMax: 1000, CostInvFix: 0, CostInvVar: 50, CostFix: 1, CostVar: 0.01},
	}
	d.ProcessCommodities = []ProcessCommodity{
		{Process: "Boiler", Commodity: "Gas", Direction: In, Ratio: 0.5},
		{Process: "Boiler", Commodity: "Heat", Direction: Out, Ratio: 1},
	}
	d.Vertices[0].Source = map[string]float64{"Gas": 1000}
	return d
}

// heatPumpData returns a network where Heat can be produced in the edge
// by a heat pump hub that turns one unit of Elec into three units of
// Heat. Elec is only available at vertex 1 and its net generation is
// limited.
func heatPumpData() *Data {
	d := heatData()
	d.Commodities = append(d.Commodities,
		Commodity{Name: "Elec", CapMax: 5000, CostInvFix: 5, CostInvVar: 1, CostFix: 0.1, CostVar: 0.02, AllowedMax: 1e7},
	)
	d.Processes = []Process{
		{Name: "HeatPump", CapMax: 2000, CostInvVar: 30, CostFix: 2, CostVar: 0.05},
	}
	d.ProcessCommodities = []ProcessCommodity{
		{Process: "HeatPump", Commodity: "Elec", Direction: In, Ratio: 1},
		{Process: "HeatPump", Commodity: "Heat", Direction: Out, Ratio: 3},
	}
	d.Vertices[0].Source = map[string]float64{"Elec": 1000}
	return d
}

// gasAssignment is a feasible assignment for gasData under the
// four-condition hub rule.
var gasAssignment = map[string]float64{
	"Rho(1,Gas,t1)":                 250,
	"Kappa_process(1,Boiler)":       500,
	"Phi(1,Boiler)":                 1,
	"Tau(1,Boiler,t1)":              500,
	"Epsilon_in(1,Boiler,Gas,t1)":   250,
	"Epsilon_out(1,Boiler,Heat,t1)": 500,
	"Pin(1,2,Heat,t1)":              500,
	"Psi(1,2,Heat,t1)":              1,
	"Sigma(1,2,Heat,t1)":            500,
	"Pmax(1,2,Heat)":                500,
	"Xi(1,2,Heat)":                  1,
}

// assign returns a vector of variable values for m where the variables
// named in vals, e.g. "Pin(1,2,Heat,t1)", take the given values, the
// costs variables equal their definitions, and all other variables are
// zero.
func assign(t *testing.T, m *Model, vals map[string]float64) []float64 {
	x := make([]float64, m.Problem.NumVars())
	for name, v := range vals {
		i := strings.Index(name, "(")
		vs := m.Problem.VarSet(name[:i])
		if vs == nil {
			t.Fatalf("no variable set %s", name[:i])
		}
		idx := strings.Split(strings.TrimSuffix(name[i+1:], ")"), ",")
		vr, ok := vs.Get(idx...)
		if !ok {
			t.Fatalf("no variable %s", name)
		}
		x[vr] = v
	}
	for _, ct := range m.Sets.CostType {
		def, err := m.CostDefinition(ct)
		if err != nil {
			t.Fatal(err)
		}
		x[m.Costs.At(string(ct))] = def.Eval(x)
	}
	return x
}

// solved returns a result for m with the given assignment.
func solved(t *testing.T, m *Model, vals map[string]float64) *Result {
	x := assign(t, m, vals)
	obj, _ := m.Problem.Objective()
	r, err := NewResult(m, &milp.Solution{Status: milp.Optimal, Values: x, Objective: obj.Eval(x)})
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func mustBuild(t *testing.T, d *Data, cfg BuildConfig) *Model {
	m, err := Build(d, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return m
}
