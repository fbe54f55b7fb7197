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
	"context"
	"fmt"
)

// Status is the termination status reported by a solver.
type Status int

// Termination statuses.
const (
	Error Status = iota
	Optimal
	Infeasible
	Unbounded
	TimeLimit
)

func (s Status) String() string {
	switch s {
	case Error:
		return "error"
	case Optimal:
		return "optimal"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case TimeLimit:
		return "time-limit"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{Error, Optimal, Infeasible, Unbounded, TimeLimit} {
		if st.String() == s {
			return st, nil
		}
	}
	return Error, fmt.Errorf("milp: invalid status %q", s)
}

// Solution is the outcome of solving a Problem.
type Solution struct {
	Status Status

	// Objective is the objective value of the assignment in Values.
	Objective float64

	// Values holds the value of each variable, indexed by Var. It is nil
	// when the solver did not return an assignment.
	Values []float64

	// Message holds any additional information from the solver.
	Message string
}

// Feasible reports whether s holds a variable assignment that the solver
// considers feasible. A time-limited solve may or may not have found one.
func (s *Solution) Feasible() bool {
	if s == nil || s.Values == nil {
		return false
	}
	return s.Status == Optimal || s.Status == TimeLimit
}

// Value returns the value of v.
func (s *Solution) Value(v Var) float64 { return s.Values[v] }

// A Solver solves a Problem. Solve blocks until the solver terminates or
// ctx is done. An error is returned only when the solver could not be
// run at all; infeasibility and similar outcomes are reported through
// Solution.Status.
type Solver interface {
	Solve(ctx context.Context, p *Problem) (*Solution, error)
}
