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

// Package milp holds a solver-independent description of a mixed-integer
// linear program: variables grouped into named collections indexed by
// domain tuples, linear constraints grouped into named families, and a
// linear objective.
package milp

import "sort"

// Var identifies a decision variable within a Problem.
type Var int

// Term is a variable multiplied by a coefficient.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression: the sum of its terms plus a constant.
// The zero value is the empty expression, which evaluates to zero.
type Expr struct {
	Terms    []Term
	Constant float64
}

// Add adds coef*v to e.
func (e *Expr) Add(v Var, coef float64) {
	e.Terms = append(e.Terms, Term{Var: v, Coef: coef})
}

// AddExpr adds scale*o to e.
func (e *Expr) AddExpr(o Expr, scale float64) {
	for _, t := range o.Terms {
		e.Terms = append(e.Terms, Term{Var: t.Var, Coef: t.Coef * scale})
	}
	e.Constant += o.Constant * scale
}

// AddConstant adds c to the constant part of e.
func (e *Expr) AddConstant(c float64) { e.Constant += c }

// Scale returns a copy of e multiplied by f.
func (e Expr) Scale(f float64) Expr {
	var o Expr
	o.AddExpr(e, f)
	return o
}

// Neg returns -e.
func (e Expr) Neg() Expr { return e.Scale(-1) }

// Eval returns the value of e given the values of all variables,
// indexed by Var.
func (e Expr) Eval(values []float64) float64 {
	v := e.Constant
	for _, t := range e.Terms {
		v += t.Coef * values[t.Var]
	}
	return v
}

// Simplify returns an equivalent expression where each variable appears
// at most once, terms are ordered by variable, and terms with a zero
// coefficient are removed.
func (e Expr) Simplify() Expr {
	if len(e.Terms) == 0 {
		return Expr{Constant: e.Constant}
	}
	sum := make(map[Var]float64, len(e.Terms))
	for _, t := range e.Terms {
		sum[t.Var] += t.Coef
	}
	o := Expr{Terms: make([]Term, 0, len(sum)), Constant: e.Constant}
	for v, c := range sum {
		if c != 0 {
			o.Terms = append(o.Terms, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(o.Terms, func(i, j int) bool { return o.Terms[i].Var < o.Terms[j].Var })
	return o
}

// Coef returns the total coefficient of v in e.
func (e Expr) Coef(v Var) float64 {
	var c float64
	for _, t := range e.Terms {
		if t.Var == v {
			c += t.Coef
		}
	}
	return c
}

// Sum returns the sum of the given variables, each with coefficient 1.
func Sum(vars ...Var) Expr {
	e := Expr{Terms: make([]Term, len(vars))}
	for i, v := range vars {
		e.Terms[i] = Term{Var: v, Coef: 1}
	}
	return e
}

// Constant returns an expression with no terms and constant value c.
func Constant(c float64) Expr { return Expr{Constant: c} }
