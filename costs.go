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

	"github.com/spatialmodel/rivus/milp"
)

// CostType is a category of costs.
type CostType string

// Cost types.
const (
	Investment CostType = "Inv"
	Fixed      CostType = "Fix"
	Variable   CostType = "Var"
)

// ErrUnknownCostType is returned when costs are requested for a cost
// type other than Investment, Fixed or Variable.
var ErrUnknownCostType = errors.New("rivus: unknown cost type")

// FixedCostRule selects how fixed costs are defined.
type FixedCostRule int

const (
	// ExplicitFixedCosts sums the installed capacities of hubs,
	// processes and transport times their fixed cost parameters.
	// It is the default.
	ExplicitFixedCosts FixedCostRule = iota

	// LegacyFixedCosts sets fixed costs to a flat
	// LegacyFixedCostFraction of investment costs.
	LegacyFixedCosts
)

// LegacyFixedCostFraction is the fraction of investment costs used as
// fixed costs by LegacyFixedCosts.
const LegacyFixedCostFraction = 0.05

func (r FixedCostRule) String() string {
	switch r {
	case ExplicitFixedCosts:
		return "explicit"
	case LegacyFixedCosts:
		return "legacy"
	default:
		return fmt.Sprintf("FixedCostRule(%d)", int(r))
	}
}

// ParseFixedCostRule is the inverse of FixedCostRule.String.
func ParseFixedCostRule(s string) (FixedCostRule, error) {
	switch s {
	case "explicit", "":
		return ExplicitFixedCosts, nil
	case "legacy":
		return LegacyFixedCosts, nil
	default:
		return 0, fmt.Errorf("rivus: invalid fixed cost rule %q; valid options are \"explicit\" and \"legacy\"", s)
	}
}

// CostDefinition returns the expression that the costs variable of
// cost type ct is set equal to.
func (m *Model) CostDefinition(ct CostType) (milp.Expr, error) {
	var e milp.Expr
	s := &m.Sets
	switch ct {
	case Investment:
		for _, k := range s.Edge {
			for _, h := range m.Tech.Hubs {
				e.Add(m.KappaHub.At(k.V1, k.V2, h.Name), h.CostInvVar)
			}
		}
		for _, v := range s.Vertex {
			for _, p := range m.Tech.All {
				e.Add(m.KappaProcess.At(v, p.Name), p.CostInvVar)
				e.Add(m.Phi.At(v, p.Name), p.CostInvFix)
			}
		}
		for _, k := range s.Edge {
			length := m.edgeLength[k]
			for _, co := range s.Transportable {
				c := m.commodity[co]
				e.Add(m.Pmax.At(k.V1, k.V2, co), c.CostInvVar*length)
				e.Add(m.Xi.At(k.V1, k.V2, co), c.CostInvFix*length)
			}
		}
	case Fixed:
		if m.Config.FixedCosts == LegacyFixedCosts {
			e.Add(m.Costs.At(string(Investment)), LegacyFixedCostFraction)
			return e, nil
		}
		for _, k := range s.Edge {
			for _, h := range m.Tech.Hubs {
				e.Add(m.KappaHub.At(k.V1, k.V2, h.Name), h.CostFix)
			}
		}
		for _, v := range s.Vertex {
			for _, p := range m.Tech.All {
				e.Add(m.KappaProcess.At(v, p.Name), p.CostFix)
			}
		}
		for _, k := range s.Edge {
			length := m.edgeLength[k]
			for _, co := range s.Transportable {
				e.Add(m.Pmax.At(k.V1, k.V2, co), m.commodity[co].CostFix*length)
			}
		}
	case Variable:
		for _, t := range s.Time {
			w := m.timeStep[t].Weight
			for _, k := range s.Edge {
				for _, h := range m.Tech.Hubs {
					e.Add(m.EpsilonHub.At(k.V1, k.V2, h.Name, t), h.CostVar*w)
				}
			}
			for _, v := range s.Vertex {
				for _, p := range m.Tech.All {
					e.Add(m.Tau.At(v, p.Name, t), p.CostVar*w)
				}
				for _, co := range s.Source {
					e.Add(m.Rho.At(v, co, t), m.commodity[co].CostVar*w)
				}
			}
		}
	default:
		return e, fmt.Errorf("%w %q", ErrUnknownCostType, ct)
	}
	return e, nil
}

// DefineCosts adds the constraints that set each costs variable equal
// to its definition.
func DefineCosts() Phase {
	return func(m *Model) error {
		f, err := m.Problem.AddFamily(DefCosts, "Costs = sum of activities", "cost_type")
		if err != nil {
			return fmt.Errorf("rivus: declaring constraints: %v", err)
		}
		for _, ct := range m.Sets.CostType {
			def, err := m.CostDefinition(ct)
			if err != nil {
				return err
			}
			f.Add([]string{string(ct)}, milp.Sum(m.Costs.At(string(ct))), milp.Equal, def)
		}
		return nil
	}
}
