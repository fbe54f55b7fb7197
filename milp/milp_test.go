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

package milp

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func smallProblem(t *testing.T) (*Problem, *VarSet, *VarSet) {
	p := NewProblem("small")
	x, err := p.AddVarSet("x", "flow", []string{"arc"}, Continuous,
		[][]string{{"a"}, {"b"}})
	if err != nil {
		t.Fatal(err)
	}
	y, err := p.AddVarSet("y", "used", []string{"arc"}, Binary,
		[][]string{{"a"}, {"b"}})
	if err != nil {
		t.Fatal(err)
	}
	capacity, err := p.AddFamily("cap", "x <= 10 y", "arc")
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range x.Keys() {
		capacity.Add(k, Sum(x.At(k...)), LessEqual, Sum(y.At(k...)).Scale(10))
	}
	dem, err := p.AddFamily("demand", "x_a + x_b >= 5")
	if err != nil {
		t.Fatal(err)
	}
	dem.Add(nil, Sum(x.Vars()...), GreaterEqual, Constant(5))
	var obj Expr
	obj.AddExpr(Sum(x.Vars()...), 1)
	obj.AddExpr(Sum(y.Vars()...), 3)
	p.SetObjective(obj, true)
	return p, x, y
}

func TestExprSimplify(t *testing.T) {
	var e Expr
	e.Add(2, 1)
	e.Add(0, 3)
	e.Add(2, -1)
	e.Add(1, 0.5)
	e.AddConstant(4)
	want := Expr{Terms: []Term{{Var: 0, Coef: 3}, {Var: 1, Coef: 0.5}}, Constant: 4}
	if have := e.Simplify(); !reflect.DeepEqual(have, want) {
		t.Errorf("have %+v, want %+v", have, want)
	}
	if have := e.Eval([]float64{1, 2, 100}); have != 8 {
		t.Errorf("eval: have %g, want 8", have)
	}
}

func TestVarSet(t *testing.T) {
	p, x, y := smallProblem(t)
	if p.NumVars() != 4 {
		t.Errorf("have %d variables, want 4", p.NumVars())
	}
	v, ok := y.Get("b")
	if !ok || v != 3 {
		t.Errorf("y(b) = %d, %v", v, ok)
	}
	if _, ok := x.Get("c"); ok {
		t.Error("x(c) should not exist")
	}
	if info := p.Var(v); info.Name != "y(b)" || info.Kind != Binary || info.Upper != 1 {
		t.Errorf("wrong info %+v", info)
	}
	if !reflect.DeepEqual(x.Keys(), [][]string{{"a"}, {"b"}}) {
		t.Errorf("wrong keys %v", x.Keys())
	}
	if _, err := p.AddVarSet("x", "", []string{"arc"}, Continuous, nil); err == nil {
		t.Error("duplicate set should fail")
	}
	if _, err := p.AddVarSet("z", "", []string{"arc"}, Continuous, [][]string{{"a"}, {"a"}}); err == nil {
		t.Error("duplicate index should fail")
	}
	if _, err := p.AddVarSet("w", "", []string{"arc"}, Continuous, [][]string{{"a", "b"}}); err == nil {
		t.Error("wrong index length should fail")
	}
}

func TestFamilyNormalization(t *testing.T) {
	p, x, y := smallProblem(t)
	c, ok := p.Family("cap").Get("a")
	if !ok {
		t.Fatal("missing cap(a)")
	}
	want := Expr{Terms: []Term{{Var: x.At("a"), Coef: 1}, {Var: y.At("a"), Coef: -10}}}
	if !reflect.DeepEqual(c.Expr, want) || c.RHS != 0 || c.Sense != LessEqual {
		t.Errorf("wrong constraint %+v", c)
	}
	d, _ := p.Family("demand").Get()
	if d.RHS != 5 || d.Sense != GreaterEqual || d.Name() != "demand" {
		t.Errorf("wrong constraint %+v", d)
	}
	if p.NumConstraints() != 3 {
		t.Errorf("have %d constraints, want 3", p.NumConstraints())
	}
}

func TestViolations(t *testing.T) {
	p, _, _ := smallProblem(t)
	feasible := []float64{5, 0, 1, 0}
	if v := Violations(p, feasible, 1e-9); len(v) != 0 {
		t.Errorf("unexpected violations %v", v)
	}
	bad := []float64{5, 1, 1, 0.05}
	var names []string
	for _, v := range Violations(p, bad, 1e-9) {
		names = append(names, v.Family+":"+v.Name)
	}
	want := []string{"integrality:y(b)", "cap:cap(b)"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("have %v, want %v", names, want)
	}
}

func TestWriteLP(t *testing.T) {
	p, _, _ := smallProblem(t)
	b := new(bytes.Buffer)
	if err := WriteLP(b, p); err != nil {
		t.Fatal(err)
	}
	want := `\ Problem: small
Minimize
 obj: + 1 x(a) + 1 x(b) + 3 y(a) + 3 y(b)
Subject To
 cap(a): + 1 x(a) - 10 y(a) <= 0
 cap(b): + 1 x(b) - 10 y(b) <= 0
 demand: + 1 x(a) + 1 x(b) >= 5
Bounds
Binaries
 y(a) y(b)
End
`
	if b.String() != want {
		t.Errorf("have\n%s\nwant\n%s", b.String(), want)
	}
}

func TestLPNames(t *testing.T) {
	p := NewProblem("names")
	if _, err := p.AddVarSet("Rho", "", []string{"vertex", "commodity"}, Continuous,
		[][]string{{"1", "Natural gas"}, {"1", "Natural:gas"}, {"2", strings.Repeat("x", 120)}}); err != nil {
		t.Fatal(err)
	}
	have := LPNames(p)
	want := []string{"Rho(1,Natural_gas)", "x#1", "x#2"}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestStatus(t *testing.T) {
	for _, s := range []Status{Error, Optimal, Infeasible, Unbounded, TimeLimit} {
		have, err := ParseStatus(s.String())
		if err != nil || have != s {
			t.Errorf("%v: have %v, %v", s, have, err)
		}
	}
	if (&Solution{Status: Infeasible, Values: []float64{0}}).Feasible() {
		t.Error("infeasible solution should not be feasible")
	}
	if (&Solution{Status: TimeLimit}).Feasible() {
		t.Error("time-limited solution without values should not be feasible")
	}
}
