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
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
)

// Demand holds the peak power [kW] and annual energy demand [kWh] of
// each commodity in each edge.
type Demand struct {
	// Edges holds the edges in input order.
	Edges []EdgeKey

	Peak   map[EdgeKey]map[string]float64
	Energy map[EdgeKey]map[string]float64
}

// PeakOf returns the peak demand of commodity co in edge e, which is
// zero for commodities without demand.
func (d *Demand) PeakOf(e EdgeKey, co string) float64 { return d.Peak[e][co] }

// EnergyOf returns the energy demand of commodity co in edge e.
func (d *Demand) EnergyOf(e EdgeKey, co string) float64 { return d.Energy[e][co] }

// AggregateDemand calculates the demand in each edge as the sum, over
// the area types present in both the edge and the area-demand table, of
// the edge area times the area-type demand intensity. Every edge is
// present in the result, even if it has no demand; area types missing
// from areaDemand contribute nothing.
func AggregateDemand(edges []Edge, areaDemand []AreaDemand) *Demand {
	type intensity struct {
		commodity    string
		peak, demand float64
	}
	byArea := make(map[string][]intensity)
	var commodities []string
	seen := make(map[string]bool)
	for _, a := range areaDemand {
		byArea[a.Area] = append(byArea[a.Area], intensity{a.Commodity, a.Peak, a.Demand})
		if !seen[a.Commodity] {
			seen[a.Commodity] = true
			commodities = append(commodities, a.Commodity)
		}
	}

	d := &Demand{
		Edges:  make([]EdgeKey, len(edges)),
		Peak:   make(map[EdgeKey]map[string]float64, len(edges)),
		Energy: make(map[EdgeKey]map[string]float64, len(edges)),
	}
	for i, e := range edges {
		k := e.Key()
		d.Edges[i] = k
		peak := make(map[string]float64, len(commodities))
		energy := make(map[string]float64, len(commodities))
		for _, co := range commodities {
			peak[co] = 0
			energy[co] = 0
		}
		for area, a := range e.Areas {
			for _, in := range byArea[area] {
				peak[in.commodity] += a * in.peak
				energy[in.commodity] += a * in.demand
			}
		}
		d.Peak[k] = peak
		d.Energy[k] = energy
	}
	return d
}

// A PeakMultiplier adjusts the peak demand of a commodity in an edge,
// for example to account for simultaneity of demand.
type PeakMultiplier func(e EdgeKey, commodity string, peak float64) (float64, error)

// WithPeakMultiplier returns a copy of d where every peak value has been
// replaced by the output of m. Energy demand is unchanged.
func (d *Demand) WithPeakMultiplier(m PeakMultiplier) (*Demand, error) {
	o := &Demand{
		Edges:  append([]EdgeKey(nil), d.Edges...),
		Peak:   make(map[EdgeKey]map[string]float64, len(d.Peak)),
		Energy: make(map[EdgeKey]map[string]float64, len(d.Energy)),
	}
	for _, e := range d.Edges {
		o.Energy[e] = copyMap(d.Energy[e])
		peak := make(map[string]float64, len(d.Peak[e]))
		for co, v := range d.Peak[e] {
			mv, err := m(e, co, v)
			if err != nil {
				return nil, fmt.Errorf("rivus: peak multiplier for edge %s, commodity %s: %v", e, co, err)
			}
			peak[co] = mv
		}
		o.Peak[e] = peak
	}
	return o, nil
}

// ExpressionPeakMultiplier returns a PeakMultiplier that evaluates expr.
// The expression may use the variables 'peak', 'commodity', 'vertex1'
// and 'vertex2' and the functions 'exp(x)', 'min(x, y)' and 'max(x, y)'.
// For example:
//
//	commodity == 'Heat' ? peak * 0.8 : peak
func ExpressionPeakMultiplier(expr string) (PeakMultiplier, error) {
	funcs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			x, err := floatArgs("exp", 1, arg)
			if err != nil {
				return nil, err
			}
			return math.Exp(x[0]), nil
		},
		"min": func(arg ...interface{}) (interface{}, error) {
			x, err := floatArgs("min", 2, arg)
			if err != nil {
				return nil, err
			}
			return math.Min(x[0], x[1]), nil
		},
		"max": func(arg ...interface{}) (interface{}, error) {
			x, err := floatArgs("max", 2, arg)
			if err != nil {
				return nil, err
			}
			return math.Max(x[0], x[1]), nil
		},
	}
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, funcs)
	if err != nil {
		return nil, fmt.Errorf("rivus: parsing peak multiplier: %v", err)
	}
	return func(k EdgeKey, co string, peak float64) (float64, error) {
		r, err := e.Evaluate(map[string]interface{}{
			"peak":      peak,
			"commodity": co,
			"vertex1":   k.V1,
			"vertex2":   k.V2,
		})
		if err != nil {
			return 0, err
		}
		v, ok := r.(float64)
		if !ok {
			return 0, fmt.Errorf("expression %q returned %v, which is not a number", expr, r)
		}
		return v, nil
	}, nil
}

// floatArgs checks that the arguments of function name are n numbers.
func floatArgs(name string, n int, arg []interface{}) ([]float64, error) {
	if len(arg) != n {
		return nil, fmt.Errorf("rivus: got %d arguments for function '%s', but needs %d", len(arg), name, n)
	}
	x := make([]float64, n)
	for i, a := range arg {
		v, ok := a.(float64)
		if !ok {
			return nil, fmt.Errorf("rivus: argument %d of function '%s' is %v, which is not a number", i+1, name, a)
		}
		x[i] = v
	}
	return x, nil
}
