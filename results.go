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
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spatialmodel/rivus/milp"
	"gonum.org/v1/gonum/floats"
)

// ErrNoSolution is returned when results are requested from a solution
// that does not hold a feasible assignment.
var ErrNoSolution = errors.New("rivus: solution has no feasible assignment")

// Result gives read access to the variable values of a solved model.
type Result struct {
	Model    *Model
	Solution *milp.Solution
}

// NewResult checks that s holds a feasible assignment for every
// variable of m.
func NewResult(m *Model, s *milp.Solution) (*Result, error) {
	if s == nil || !s.Feasible() {
		status := "nil"
		if s != nil {
			status = s.Status.String()
		}
		return nil, fmt.Errorf("%w (status %s)", ErrNoSolution, status)
	}
	if len(s.Values) != m.Problem.NumVars() {
		return nil, fmt.Errorf("rivus: solution has %d values but model has %d variables",
			len(s.Values), m.Problem.NumVars())
	}
	return &Result{Model: m, Solution: s}, nil
}

// Value returns the value of the variable with the given set name and
// index. The second return value is false if there is no such variable.
func (r *Result) Value(set string, index ...string) (float64, bool) {
	vs := r.Model.Problem.VarSet(set)
	if vs == nil {
		return 0, false
	}
	v, ok := vs.Get(index...)
	if !ok {
		return 0, false
	}
	return r.Solution.Value(v), true
}

// value returns the value of a variable, or zero if it does not exist.
func (r *Result) value(vs *milp.VarSet, index ...string) float64 {
	v, ok := vs.Get(index...)
	if !ok {
		return 0
	}
	return r.Solution.Value(v)
}

// Cost returns the total of cost type ct.
func (r *Result) Cost(ct CostType) float64 {
	return r.value(r.Model.Costs, string(ct))
}

// Violations returns the constraints and variable bounds that are not
// satisfied by the solution to within tol.
func (r *Result) Violations(tol float64) []milp.Violation {
	return milp.Violations(r.Model.Problem, r.Solution.Values, tol)
}

// CheckPeak returns the peak_satisfaction constraints that the solution
// violates by more than tol.
func (r *Result) CheckPeak(tol float64) []milp.Violation {
	var o []milp.Violation
	for _, v := range r.Violations(tol) {
		if v.Family == PeakSatisfaction {
			o = append(o, v)
		}
	}
	return o
}

// Row is a row of a Table.
type Row struct {
	Index  []string
	Values []float64
}

// Table holds results with one or more index columns and one or more
// value columns.
type Table struct {
	Name    string
	Dims    []string // names of the index columns
	Columns []string // names of the value columns
	Rows    []Row
}

// Get returns the value in the given column of the row with the given
// index.
func (t *Table) Get(column string, index ...string) (float64, bool) {
	c := -1
	for i, name := range t.Columns {
		if name == column {
			c = i
			break
		}
	}
	if c < 0 {
		return 0, false
	}
	k := strings.Join(index, "\x00")
	for _, r := range t.Rows {
		if strings.Join(r.Index, "\x00") == k {
			return r.Values[c], true
		}
	}
	return 0, false
}

// Empty reports whether t has no rows.
func (t *Table) Empty() bool { return len(t.Rows) == 0 }

// pivot creates a table from vs with the last dimension of its domain
// spread over the columns. Only values for which keep returns true are
// included; rows and columns without any such value are dropped.
// Missing cells are zero.
func (r *Result) pivot(name string, vs *milp.VarSet, keep func(float64) bool, round bool) *Table {
	t := &Table{Name: name, Dims: vs.Dims[:len(vs.Dims)-1]}
	rowIndex := make(map[string]int)
	colIndex := make(map[string]int)
	type cell struct {
		row, col int
		v        float64
	}
	var cells []cell
	var rowKeys [][]string
	for _, k := range vs.Keys() {
		v := r.value(vs, k...)
		if !keep(v) {
			continue
		}
		rk := k[:len(k)-1]
		rkey := strings.Join(rk, "\x00")
		ri, ok := rowIndex[rkey]
		if !ok {
			ri = len(rowKeys)
			rowIndex[rkey] = ri
			rowKeys = append(rowKeys, rk)
		}
		col := k[len(k)-1]
		ci, ok := colIndex[col]
		if !ok {
			ci = len(t.Columns)
			colIndex[col] = ci
			t.Columns = append(t.Columns, col)
		}
		cells = append(cells, cell{ri, ci, v})
	}
	t.Rows = make([]Row, len(rowKeys))
	for i, k := range rowKeys {
		t.Rows[i] = Row{Index: k, Values: make([]float64, len(t.Columns))}
	}
	for _, c := range cells {
		if round {
			c.v = math.Round(c.v)
		}
		t.Rows[c.row].Values[c.col] = c.v
	}
	return t
}

// join creates a table with one column per variable set. All sets must
// share the same dimensions. Rows are the union of the keys of the sets
// in order of first appearance; rows whose values sum to zero are
// dropped.
func (r *Result) join(name string, dims []string, keys [][]string, sets ...*milp.VarSet) *Table {
	t := &Table{Name: name, Dims: dims}
	for _, vs := range sets {
		t.Columns = append(t.Columns, vs.Name)
	}
	for _, k := range keys {
		vals := make([]float64, len(sets))
		for i, vs := range sets {
			vals[i] = r.value(vs, k...)
		}
		if floats.Sum(vals) <= 0 {
			continue
		}
		for i, v := range vals {
			vals[i] = math.Round(v)
		}
		t.Rows = append(t.Rows, Row{Index: k, Values: vals})
	}
	return t
}

func positive(v float64) bool { return v > 0 }

// Constants holds the time-independent results.
type Constants struct {
	Costs        *Table // by cost type
	Pmax         *Table // edge × commodity
	KappaHub     *Table // edge × hub
	KappaProcess *Table // vertex × process
}

// Constants returns the costs and installed capacities. Capacities that
// are zero are dropped and values are rounded to integers.
func (r *Result) Constants() *Constants {
	m := r.Model
	c := &Constants{
		Costs: &Table{Name: "Costs", Dims: []string{"cost_type"}, Columns: []string{"costs"}},
	}
	for _, ct := range m.Sets.CostType {
		c.Costs.Rows = append(c.Costs.Rows, Row{
			Index:  []string{string(ct)},
			Values: []float64{math.Round(r.Cost(ct))},
		})
	}
	c.Pmax = r.pivot("Pmax", m.Pmax, positive, true)
	c.KappaHub = r.pivot("Kappa_hub", m.KappaHub, positive, true)
	c.KappaProcess = r.pivot("Kappa_process", m.KappaProcess, positive, true)
	return c
}

// Timeseries holds the time-dependent results.
type Timeseries struct {
	Source    *Table // (vertex, commodity) × time
	Flows     *Table // (vertex1, vertex2, commodity, time) × Pin, Pot, Psi, Sigma
	Hubs      *Table // (vertex1, vertex2, hub) × time
	ProcessIO *Table // (vertex, process, commodity, time) × Epsilon_in, Epsilon_out
	Tau       *Table // (vertex, process) × time
}

// Timeseries returns the time-dependent results. Rows that are all zero
// are dropped. Source values are not rounded; all other values are
// rounded to integers.
func (r *Result) Timeseries() *Timeseries {
	m := r.Model
	s := &m.Sets
	ts := &Timeseries{
		Source: r.pivot("Rho", m.Rho, positive, false),
		Hubs:   r.pivot("Hubs", m.EpsilonHub, positive, true),
		Tau: r.pivot("Tau", m.Tau, func(v float64) bool {
			return math.Round(v) > 0
		}, true),
	}

	// Flows are reported for every arc. Sigma is only defined for the
	// orientation of an edge given in the input.
	var flowKeys [][]string
	for _, a := range s.Arc {
		for _, co := range s.Commodity {
			for _, t := range s.Time {
				flowKeys = append(flowKeys, []string{a.From, a.To, co, t})
			}
		}
	}
	ts.Flows = r.join("Flows", []string{"Vertex1", "Vertex2", "commodity", "time"},
		flowKeys, m.Pin, m.Pot, m.Psi, m.Sigma)

	// A commodity may be both an input and an output of a process; it
	// gets one row holding both values.
	var ioKeys [][]string
	for _, v := range s.Vertex {
		for _, t := range m.Tech.All {
			seen := make(map[string]bool)
			for _, fs := range [][]Flow{t.Inputs, t.Outputs} {
				for _, f := range fs {
					if seen[f.Commodity] {
						continue
					}
					seen[f.Commodity] = true
					for _, ti := range s.Time {
						ioKeys = append(ioKeys, []string{v, t.Name, f.Commodity, ti})
					}
				}
			}
		}
	}
	ts.ProcessIO = r.join("Process-IO", []string{"Vertex", "process", "commodity", "time"},
		ioKeys, m.EpsilonIn, m.EpsilonOut)
	return ts
}

// CapacityWeights returns the transport capacity of commodity co in
// each edge relative to the largest capacity of co in any edge. If no
// capacity is installed, all weights are zero.
func (r *Result) CapacityWeights(co string) map[EdgeKey]float64 {
	m := r.Model
	vals := make([]float64, len(m.Sets.Edge))
	for i, e := range m.Sets.Edge {
		vals[i] = r.value(m.Pmax, e.V1, e.V2, co)
	}
	if len(vals) > 0 {
		if largest := floats.Max(vals); largest > 0 {
			floats.Scale(1/largest, vals)
		} else {
			for i := range vals {
				vals[i] = 0
			}
		}
	}
	o := make(map[EdgeKey]float64, len(vals))
	for i, e := range m.Sets.Edge {
		o[e] = vals[i]
	}
	return o
}
