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
	"fmt"
	"math"
	"strings"
)

// Kind is the domain of a variable.
type Kind int

// Variable kinds.
const (
	Continuous Kind = iota
	Binary
)

func (k Kind) String() string {
	switch k {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// VarInfo describes a single variable.
type VarInfo struct {
	Name         string
	Set          string
	Index        []string
	Kind         Kind
	Lower, Upper float64
}

// Sense is the relation between the two sides of a constraint.
type Sense int

// Constraint senses.
const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Constraint is the linear constraint Expr Sense RHS. Constraints are
// stored with all variables on the left and all constants on the right.
type Constraint struct {
	Family string
	Index  []string
	Expr   Expr
	Sense  Sense
	RHS    float64
}

// Name returns a human-readable name of the form family(i,j,...).
func (c *Constraint) Name() string { return tupleName(c.Family, c.Index) }

func tupleName(set string, index []string) string {
	if len(index) == 0 {
		return set
	}
	return set + "(" + strings.Join(index, ",") + ")"
}

func key(index []string) string { return strings.Join(index, "\x00") }

// VarSet is a named collection of variables addressable by domain tuple.
type VarSet struct {
	Name string
	Doc  string
	// Dims holds the labels of the domain tuple elements.
	Dims []string
	Kind Kind

	keys  [][]string
	vars  []Var
	index map[string]Var
}

// Get returns the variable at the given domain tuple.
func (s *VarSet) Get(index ...string) (Var, bool) {
	v, ok := s.index[key(index)]
	return v, ok
}

// At is like Get but panics when the tuple is outside the domain of s.
// It is meant for code that builds constraints over domains it has
// itself declared.
func (s *VarSet) At(index ...string) Var {
	v, ok := s.index[key(index)]
	if !ok {
		panic(fmt.Errorf("milp: %s has no element %v", s.Name, index))
	}
	return v
}

// Len returns the number of variables in s.
func (s *VarSet) Len() int { return len(s.vars) }

// Keys returns the domain tuples of s in declaration order.
func (s *VarSet) Keys() [][]string {
	o := make([][]string, len(s.keys))
	for i, k := range s.keys {
		o[i] = append([]string(nil), k...)
	}
	return o
}

// Vars returns the variables of s in declaration order.
func (s *VarSet) Vars() []Var { return append([]Var(nil), s.vars...) }

// Family is a named group of constraints sharing an index domain.
type Family struct {
	Name string
	Doc  string
	Dims []string

	p     *Problem
	rows  []int
	index map[string]int
}

// Add appends the constraint lhs sense rhs at the given index to f.
// Terms are moved to the left-hand side and constants to the right.
func (f *Family) Add(index []string, lhs Expr, sense Sense, rhs Expr) {
	var e Expr
	e.AddExpr(lhs, 1)
	e.AddExpr(rhs, -1)
	e = e.Simplify()
	c := Constraint{
		Family: f.Name,
		Index:  append([]string(nil), index...),
		Expr:   Expr{Terms: e.Terms},
		Sense:  sense,
		RHS:    -e.Constant,
	}
	f.index[key(index)] = len(f.p.constraints)
	f.rows = append(f.rows, len(f.p.constraints))
	f.p.constraints = append(f.p.constraints, c)
}

// Len returns the number of constraints in f.
func (f *Family) Len() int { return len(f.rows) }

// Get returns the constraint at the given index.
func (f *Family) Get(index ...string) (*Constraint, bool) {
	i, ok := f.index[key(index)]
	if !ok {
		return nil, false
	}
	return &f.p.constraints[i], true
}

// Constraints returns the constraints of f in the order they were added.
func (f *Family) Constraints() []*Constraint {
	o := make([]*Constraint, len(f.rows))
	for i, r := range f.rows {
		o[i] = &f.p.constraints[r]
	}
	return o
}

// Problem is a mixed-integer linear program.
type Problem struct {
	Name string

	vars        []VarInfo
	sets        []*VarSet
	setIndex    map[string]*VarSet
	constraints []Constraint
	families    []*Family
	famIndex    map[string]*Family

	objective Expr
	minimize  bool
}

// NewProblem returns an empty problem with the given name.
func NewProblem(name string) *Problem {
	return &Problem{
		Name:     name,
		setIndex: make(map[string]*VarSet),
		famIndex: make(map[string]*Family),
		minimize: true,
	}
}

// AddVarSet declares one variable for each tuple in domain. Continuous
// variables are bounded below by zero; binary variables lie in [0, 1].
// It returns an error if the set name is already taken, a tuple has the
// wrong length, or a tuple appears twice.
func (p *Problem) AddVarSet(name, doc string, dims []string, kind Kind, domain [][]string) (*VarSet, error) {
	if _, ok := p.setIndex[name]; ok {
		return nil, fmt.Errorf("milp: variable set %s declared twice", name)
	}
	s := &VarSet{
		Name:  name,
		Doc:   doc,
		Dims:  append([]string(nil), dims...),
		Kind:  kind,
		index: make(map[string]Var, len(domain)),
	}
	upper := math.Inf(1)
	if kind == Binary {
		upper = 1
	}
	for _, idx := range domain {
		if len(idx) != len(dims) {
			return nil, fmt.Errorf("milp: variable set %s: index %v has %d elements but should have %d",
				name, idx, len(idx), len(dims))
		}
		k := key(idx)
		if _, ok := s.index[k]; ok {
			return nil, fmt.Errorf("milp: variable set %s: duplicate index %v", name, idx)
		}
		v := Var(len(p.vars))
		idxCopy := append([]string(nil), idx...)
		p.vars = append(p.vars, VarInfo{
			Name:  tupleName(name, idx),
			Set:   name,
			Index: idxCopy,
			Kind:  kind,
			Lower: 0,
			Upper: upper,
		})
		s.index[k] = v
		s.keys = append(s.keys, idxCopy)
		s.vars = append(s.vars, v)
	}
	p.sets = append(p.sets, s)
	p.setIndex[name] = s
	return s, nil
}

// SetBounds changes the bounds of v.
func (p *Problem) SetBounds(v Var, lower, upper float64) {
	p.vars[v].Lower = lower
	p.vars[v].Upper = upper
}

// VarSet returns the variable set with the given name, or nil.
func (p *Problem) VarSet(name string) *VarSet { return p.setIndex[name] }

// VarSets returns all variable sets in declaration order.
func (p *Problem) VarSets() []*VarSet { return append([]*VarSet(nil), p.sets...) }

// Var returns information about v.
func (p *Problem) Var(v Var) VarInfo { return p.vars[v] }

// NumVars returns the number of variables in p.
func (p *Problem) NumVars() int { return len(p.vars) }

// AddFamily declares a new constraint family.
func (p *Problem) AddFamily(name, doc string, dims ...string) (*Family, error) {
	if _, ok := p.famIndex[name]; ok {
		return nil, fmt.Errorf("milp: constraint family %s declared twice", name)
	}
	f := &Family{
		Name:  name,
		Doc:   doc,
		Dims:  dims,
		p:     p,
		index: make(map[string]int),
	}
	p.families = append(p.families, f)
	p.famIndex[name] = f
	return f, nil
}

// Family returns the constraint family with the given name, or nil.
func (p *Problem) Family(name string) *Family { return p.famIndex[name] }

// Families returns all constraint families in declaration order.
func (p *Problem) Families() []*Family { return append([]*Family(nil), p.families...) }

// NumConstraints returns the number of constraints in p.
func (p *Problem) NumConstraints() int { return len(p.constraints) }

// Constraint returns the i-th constraint of p.
func (p *Problem) Constraint(i int) *Constraint { return &p.constraints[i] }

// SetObjective sets the objective function.
func (p *Problem) SetObjective(e Expr, minimize bool) {
	p.objective = e.Simplify()
	p.minimize = minimize
}

// Objective returns the objective function and whether it is minimized.
func (p *Problem) Objective() (Expr, bool) { return p.objective, p.minimize }
