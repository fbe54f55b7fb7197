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

import "github.com/spatialmodel/rivus/milp"

// techFlow is a flow of a commodity into or out of a named technology.
type techFlow struct {
	tech  string
	ratio float64
}

// index holds the relationships that the balance functions need,
// so that they do not have to search all technologies or edges.
type index struct {
	hubIn, hubOut   map[string][]techFlow // by commodity
	procIn, procOut map[string][]techFlow // by commodity
	neighbors       map[string][]string
}

func newIndex(ts *Technologies, g *Graph) *index {
	ix := &index{
		hubIn:     make(map[string][]techFlow),
		hubOut:    make(map[string][]techFlow),
		procIn:    make(map[string][]techFlow),
		procOut:   make(map[string][]techFlow),
		neighbors: g.Neighbors,
	}
	for _, t := range ts.All {
		for _, f := range t.Inputs {
			ix.procIn[f.Commodity] = append(ix.procIn[f.Commodity], techFlow{t.Name, f.Ratio})
		}
		for _, f := range t.Outputs {
			ix.procOut[f.Commodity] = append(ix.procOut[f.Commodity], techFlow{t.Name, f.Ratio})
		}
	}
	for _, t := range ts.Hubs {
		for _, f := range t.Inputs {
			ix.hubIn[f.Commodity] = append(ix.hubIn[f.Commodity], techFlow{t.Name, f.Ratio})
		}
		for _, f := range t.Outputs {
			ix.hubOut[f.Commodity] = append(ix.hubOut[f.Commodity], techFlow{t.Name, f.Ratio})
		}
	}
	return ix
}

// HubBalance returns the net production of commodity co by the hubs in
// edge e at time t.
func (m *Model) HubBalance(e EdgeKey, co, t string) milp.Expr {
	var b milp.Expr
	for _, f := range m.ix.hubOut[co] {
		b.Add(m.EpsilonHub.At(e.V1, e.V2, f.tech, t), f.ratio)
	}
	for _, f := range m.ix.hubIn[co] {
		b.Add(m.EpsilonHub.At(e.V1, e.V2, f.tech, t), -f.ratio)
	}
	return b
}

// FlowBalance returns the net flow of transportable commodity co
// into vertex v from the adjacent arcs at time t.
func (m *Model) FlowBalance(v, co, t string) milp.Expr {
	var b milp.Expr
	for _, w := range m.ix.neighbors[v] {
		b.Add(m.Pot.At(w, v, co, t), 1)
		b.Add(m.Pin.At(v, w, co, t), -1)
	}
	return b
}

// ProcessBalance returns the net production of commodity co by the
// processes in vertex v at time t.
func (m *Model) ProcessBalance(v, co, t string) milp.Expr {
	var b milp.Expr
	for _, f := range m.ix.procOut[co] {
		b.Add(m.EpsilonOut.At(v, f.tech, co, t), 1)
	}
	for _, f := range m.ix.procIn[co] {
		b.Add(m.EpsilonIn.At(v, f.tech, co, t), -1)
	}
	return b
}

// Throughput returns the ratio-weighted sum of the inputs of process p
// in vertex v at time t.
func (m *Model) Throughput(v, p, t string) milp.Expr {
	var b milp.Expr
	tech, ok := m.Tech.Get(p)
	if !ok {
		return b
	}
	for _, f := range tech.Inputs {
		b.Add(m.EpsilonIn.At(v, p, f.Commodity, t), f.Ratio)
	}
	return b
}
