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
)

// Violation describes a constraint, bound, or integrality requirement
// that an assignment does not satisfy.
type Violation struct {
	// Name is the name of the violated constraint or variable.
	Name string
	// Family is the constraint family, or "bounds" or "integrality".
	Family string
	// Amount is the size of the violation.
	Amount float64
}

func (v Violation) String() string {
	return fmt.Sprintf("%s violated by %g", v.Name, v.Amount)
}

// Violations returns all of the ways in which values, indexed by Var,
// fail to satisfy p by more than tol.
func Violations(p *Problem, values []float64, tol float64) []Violation {
	var o []Violation
	for i, info := range p.vars {
		x := values[i]
		if d := info.Lower - x; d > tol {
			o = append(o, Violation{Name: info.Name, Family: "bounds", Amount: d})
		}
		if d := x - info.Upper; d > tol {
			o = append(o, Violation{Name: info.Name, Family: "bounds", Amount: d})
		}
		if info.Kind == Binary {
			if d := math.Abs(x - math.Round(x)); d > tol {
				o = append(o, Violation{Name: info.Name, Family: "integrality", Amount: d})
			}
		}
	}
	for i := range p.constraints {
		c := &p.constraints[i]
		lhs := c.Expr.Eval(values)
		var d float64
		switch c.Sense {
		case LessEqual:
			d = lhs - c.RHS
		case GreaterEqual:
			d = c.RHS - lhs
		case Equal:
			d = math.Abs(lhs - c.RHS)
		}
		if d > tol {
			o = append(o, Violation{Name: c.Name(), Family: c.Family, Amount: d})
		}
	}
	return o
}
