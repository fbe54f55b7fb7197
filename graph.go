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

import "fmt"

// Arc is one directed orientation of an edge.
type Arc struct {
	From, To string
}

// Reverse returns the arc in the opposite direction.
func (a Arc) Reverse() Arc { return Arc{From: a.To, To: a.From} }

func (a Arc) String() string { return a.From + "->" + a.To }

// Graph is the directed representation of the street network.
type Graph struct {
	// Vertices holds the vertex IDs in input order.
	Vertices []string

	// Edges holds the undirected edges in input order.
	Edges []EdgeKey

	// Arcs holds both orientations of every edge: for each edge (u,v)
	// in Edges, (u,v) followed by (v,u).
	Arcs []Arc

	// Neighbors holds the vertices adjacent to each vertex, in arc order.
	// Vertices without edges have no entry.
	Neighbors map[string][]string

	edgeOf map[Arc]EdgeKey
}

// DeriveGraph creates the arcs and adjacency of the undirected network
// given by vertices and edges. Loops, duplicate edges in either
// orientation, duplicate vertices and edges to unknown vertices are
// errors.
func DeriveGraph(vertices []Vertex, edges []Edge) (*Graph, error) {
	g := &Graph{
		Vertices:  make([]string, 0, len(vertices)),
		Edges:     make([]EdgeKey, 0, len(edges)),
		Arcs:      make([]Arc, 0, 2*len(edges)),
		Neighbors: make(map[string][]string),
		edgeOf:    make(map[Arc]EdgeKey, 2*len(edges)),
	}
	known := make(map[string]bool, len(vertices))
	for i, v := range vertices {
		if known[v.ID] {
			return nil, fmt.Errorf("rivus: vertex row %d: duplicate vertex %q", i, v.ID)
		}
		known[v.ID] = true
		g.Vertices = append(g.Vertices, v.ID)
	}
	for i, e := range edges {
		k := e.Key()
		switch {
		case k.V1 == k.V2:
			return nil, fmt.Errorf("rivus: edge row %d (%s): edge connects vertex %q to itself", i, k, k.V1)
		case !known[k.V1]:
			return nil, fmt.Errorf("rivus: edge row %d (%s): unknown vertex %q", i, k, k.V1)
		case !known[k.V2]:
			return nil, fmt.Errorf("rivus: edge row %d (%s): unknown vertex %q", i, k, k.V2)
		}
		fwd := Arc{From: k.V1, To: k.V2}
		if other, ok := g.edgeOf[fwd]; ok {
			return nil, fmt.Errorf("rivus: edge row %d (%s): duplicate of edge %s", i, k, other)
		}
		g.Edges = append(g.Edges, k)
		for _, a := range []Arc{fwd, fwd.Reverse()} {
			g.Arcs = append(g.Arcs, a)
			g.edgeOf[a] = k
			g.Neighbors[a.From] = append(g.Neighbors[a.From], a.To)
		}
	}
	return g, nil
}

// EdgeOf returns the edge that arc a belongs to.
func (g *Graph) EdgeOf(a Arc) (EdgeKey, bool) {
	k, ok := g.edgeOf[a]
	return k, ok
}
