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
	"reflect"
	"testing"

	"github.com/spatialmodel/rivus/milp"
)

func TestHubScenario(t *testing.T) {
	m := mustBuild(t, heatPumpData(), quietConfig())
	if !reflect.DeepEqual(m.Sets.Hub, []string{"HeatPump"}) {
		t.Fatalf("hubs: %v", m.Sets.Hub)
	}
	kappa, ok := m.KappaHub.Get("1", "2", "HeatPump")
	if !ok {
		t.Fatal("missing Kappa_hub(1,2,HeatPump)")
	}
	eps, ok := m.EpsilonHub.Get("1", "2", "HeatPump", "t1")
	if !ok {
		t.Fatal("missing Epsilon_hub(1,2,HeatPump,t1)")
	}

	hb := m.HubBalance(EdgeKey{"1", "2"}, "Heat", "t1")
	if have := hb.Coef(eps); different(have, 3, testTolerance) {
		t.Errorf("Heat hub balance: have %g, want 3", have)
	}
	hb = m.HubBalance(EdgeKey{"1", "2"}, "Elec", "t1")
	if have := hb.Coef(eps); different(have, -1, testTolerance) {
		t.Errorf("Elec hub balance: have %g, want -1", have)
	}

	type coefTest struct {
		family string
		index  []string
		name   string
		v      milp.Var
		coef   float64
		sense  milp.Sense
		rhs    float64
	}
	sigma := func(co string) milp.Var { return m.Sigma.At("1", "2", co, "t1") }
	for _, test := range []coefTest{
		{PeakSatisfaction, []string{"1", "2", "Heat", "t1"}, "Epsilon_hub", eps, 3, milp.GreaterEqual, 500},
		{PeakSatisfaction, []string{"1", "2", "Heat", "t1"}, "Sigma", sigma("Heat"), 1, milp.GreaterEqual, 500},
		{HubSupply, []string{"1", "2", "Elec", "t1"}, "Elec Epsilon_hub", eps, 1, milp.LessEqual, 0},
		{HubSupply, []string{"1", "2", "Elec", "t1"}, "Elec Sigma", sigma("Elec"), -1, milp.LessEqual, 0},
		{HubSupply, []string{"1", "2", "Heat", "t1"}, "Heat Epsilon_hub", eps, -3, milp.LessEqual, 0},
		{HubOutputByCapacity, []string{"1", "2", "HeatPump", "t1"}, "Epsilon_hub", eps, 1, milp.LessEqual, 0},
		{HubOutputByCapacity, []string{"1", "2", "HeatPump", "t1"}, "Kappa_hub", kappa, -1, milp.LessEqual, 0},
		{HubCapacity, []string{"1", "2", "HeatPump"}, "Kappa_hub", kappa, 1, milp.LessEqual, 2000},
		{CommodityMaximum, []string{"Elec"}, "Epsilon_hub", eps, -8760, milp.LessEqual, 1e7},
		{CommodityMaximum, []string{"Elec"}, "Epsilon_in", m.EpsilonIn.At("1", "HeatPump", "Elec", "t1"), -8760, milp.LessEqual, 1e7},
	} {
		t.Run(test.family+" "+test.name, func(t *testing.T) {
			c, ok := m.Problem.Family(test.family).Get(test.index...)
			if !ok {
				t.Fatalf("missing %s%v", test.family, test.index)
			}
			if have := c.Expr.Coef(test.v); different(have, test.coef, testTolerance) {
				t.Errorf("coefficient: have %g, want %g", have, test.coef)
			}
			if c.Sense != test.sense {
				t.Errorf("sense: have %v, want %v", c.Sense, test.sense)
			}
			if different(c.RHS, test.rhs, testTolerance) {
				t.Errorf("rhs: have %g, want %g", c.RHS, test.rhs)
			}
		})
	}

	for _, test := range []struct {
		ct   CostType
		v    milp.Var
		coef float64
	}{
		{Investment, kappa, 30},
		{Fixed, kappa, 2},
		{Variable, eps, 0.05 * 8760},
	} {
		e, err := m.CostDefinition(test.ct)
		if err != nil {
			t.Fatal(err)
		}
		if have := e.Coef(test.v); different(have, test.coef, testTolerance) {
			t.Errorf("%s cost of hub: have %g, want %g", test.ct, have, test.coef)
		}
	}
}

func TestThroughput(t *testing.T) {
	m := mustBuild(t, gasData(), quietConfig())
	tp := m.Throughput("1", "Boiler", "t1")
	if len(tp.Terms) != 1 {
		t.Fatalf("Boiler has one input: %+v", tp)
	}
	if have := tp.Coef(m.EpsilonIn.At("1", "Boiler", "Gas", "t1")); different(have, 0.5, testTolerance) {
		t.Errorf("Gas coefficient: have %g, want 0.5", have)
	}
	if tp := m.Throughput("1", "Turbine", "t1"); len(tp.Terms) != 0 {
		t.Errorf("unknown process should have no throughput: %+v", tp)
	}

	hp := mustBuild(t, heatPumpData(), quietConfig())
	tp = hp.Throughput("2", "HeatPump", "t1")
	if have := tp.Coef(hp.EpsilonIn.At("2", "HeatPump", "Elec", "t1")); different(have, 1, testTolerance) {
		t.Errorf("Elec coefficient: have %g, want 1", have)
	}
}
