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

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// NetworkReport summarizes the network built for one commodity.
type NetworkReport struct {
	Commodity string

	// Edges is the number of edges with installed capacity.
	Edges int

	// Connected is true if every vertex can be reached from every other
	// vertex through edges with installed capacity.
	Connected bool

	// Components is the number of connected components, counting
	// vertices without any built edge as components of their own.
	Components int

	// Minimal is true if the network has no cycles, i.e. it is its own
	// minimum spanning forest.
	Minimal bool

	// SpanningWeight is the total weight of the minimum spanning forest,
	// where the weight of each edge is its CapacityWeights value.
	SpanningWeight float64
}

// CapacityGraph returns a weighted undirected graph with one node for
// each vertex of the model and an edge wherever commodity co has
// installed capacity. Node IDs are the positions of the vertices in
// Model.Sets.Vertex; edge weights are the CapacityWeights of co.
func (r *Result) CapacityGraph(co string) *simple.WeightedUndirectedGraph {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	id := make(map[string]int64, len(r.Model.Sets.Vertex))
	for i, v := range r.Model.Sets.Vertex {
		id[v] = int64(i)
		g.AddNode(simple.Node(i))
	}
	for e, w := range r.CapacityWeights(co) {
		if w <= 0 {
			continue
		}
		g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(id[e.V1]),
			T: simple.Node(id[e.V2]),
			W: w,
		})
	}
	return g
}

// AnalyzeNetworks reports on the connectivity of the network of each of
// the given commodities. If commodities is empty, all transportable
// commodities are analyzed.
func AnalyzeNetworks(r *Result, commodities []string) ([]NetworkReport, error) {
	if len(commodities) == 0 {
		commodities = r.Model.Sets.Transportable
	}
	o := make([]NetworkReport, 0, len(commodities))
	for _, co := range commodities {
		if !r.Model.transportable[co] {
			return nil, fmt.Errorf("rivus: analyzing networks: %q is not a transportable commodity", co)
		}
		g := r.CapacityGraph(co)
		rep := NetworkReport{
			Commodity:  co,
			Edges:      g.Edges().Len(),
			Components: len(topo.ConnectedComponents(g)),
		}
		rep.Connected = rep.Components <= 1
		rep.Minimal = rep.Edges == g.Nodes().Len()-rep.Components
		dst := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
		rep.SpanningWeight = path.Kruskal(dst, g)
		o = append(o, rep)
	}
	return o, nil
}
