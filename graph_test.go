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
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestDeriveGraph(t *testing.T) {
	vertices := []Vertex{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	edges := []Edge{{V1: "a", V2: "b"}, {V1: "c", V2: "b"}}
	g, err := DeriveGraph(vertices, edges)
	if err != nil {
		t.Fatal(err)
	}
	wantArcs := []Arc{{"a", "b"}, {"b", "a"}, {"c", "b"}, {"b", "c"}}
	if !reflect.DeepEqual(g.Arcs, wantArcs) {
		t.Errorf("arcs: have %v, want %v", g.Arcs, wantArcs)
	}
	wantNeighbors := map[string][]string{
		"a": {"b"},
		"b": {"a", "c"},
		"c": {"b"},
	}
	if !reflect.DeepEqual(g.Neighbors, wantNeighbors) {
		t.Errorf("neighbors: have %v, want %v", g.Neighbors, wantNeighbors)
	}
	if k, ok := g.EdgeOf(Arc{"b", "c"}); !ok || k != (EdgeKey{"c", "b"}) {
		t.Errorf("edge of b->c: have %v %v", k, ok)
	}
	if _, ok := g.EdgeOf(Arc{"a", "c"}); ok {
		t.Errorf("a->c should not be an arc")
	}
}

func TestDeriveGraphErrors(t *testing.T) {
	vertices := []Vertex{{ID: "a"}, {ID: "b"}}
	tests := []struct {
		name     string
		vertices []Vertex
		edges    []Edge
		err      string
	}{
		{
			name:     "loop",
			vertices: vertices,
			edges:    []Edge{{V1: "a", V2: "a"}},
			err:      "rivus: edge row 0 (a-a): edge connects vertex \"a\" to itself",
		},
		{
			name:     "unknown vertex",
			vertices: vertices,
			edges:    []Edge{{V1: "a", V2: "z"}},
			err:      "rivus: edge row 0 (a-z): unknown vertex \"z\"",
		},
		{
			name:     "reverse duplicate",
			vertices: vertices,
			edges:    []Edge{{V1: "a", V2: "b"}, {V1: "b", V2: "a"}},
			err:      "rivus: edge row 1 (b-a): duplicate of edge a-b",
		},
		{
			name:     "duplicate vertex",
			vertices: []Vertex{{ID: "a"}, {ID: "a"}},
			err:      "rivus: vertex row 1: duplicate vertex \"a\"",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := DeriveGraph(test.vertices, test.edges)
			if err == nil {
				t.Fatal("expected an error")
			}
			if err.Error() != test.err {
				t.Errorf("have %q, want %q", err.Error(), test.err)
			}
		})
	}
}

// edgesFromCodes converts each code into an edge between two of six
// vertices, skipping loops and duplicates.
func edgesFromCodes(codes []int) ([]Vertex, []Edge) {
	const n = 6
	vertices := make([]Vertex, n)
	for i := range vertices {
		vertices[i] = Vertex{ID: strconv.Itoa(i)}
	}
	seen := make(map[[2]int]bool)
	var edges []Edge
	for _, c := range codes {
		i, j := c/n, c%n
		if i == j || seen[[2]int{i, j}] || seen[[2]int{j, i}] {
			continue
		}
		seen[[2]int{i, j}] = true
		edges = append(edges, Edge{V1: strconv.Itoa(i), V2: strconv.Itoa(j)})
	}
	return vertices, edges
}

func TestGraphProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every edge gives exactly its two arcs", prop.ForAll(
		func(codes []int) bool {
			g, err := DeriveGraph(edgesFromCodes(codes))
			if err != nil {
				return false
			}
			if len(g.Arcs) != 2*len(g.Edges) {
				return false
			}
			for i, e := range g.Edges {
				if g.Arcs[2*i] != (Arc{e.V1, e.V2}) || g.Arcs[2*i+1] != (Arc{e.V2, e.V1}) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 35)),
	))

	properties.Property("neighbors are the arc heads", prop.ForAll(
		func(codes []int) bool {
			g, err := DeriveGraph(edgesFromCodes(codes))
			if err != nil {
				return false
			}
			count := 0
			for v, ns := range g.Neighbors {
				for _, w := range ns {
					k, ok := g.EdgeOf(Arc{v, w})
					if !ok || !((k.V1 == v && k.V2 == w) || (k.V1 == w && k.V2 == v)) {
						return false
					}
					count++
				}
			}
			return count == len(g.Arcs)
		},
		gen.SliceOf(gen.IntRange(0, 35)),
	))

	properties.Property("every arc has its reverse", prop.ForAll(
		func(codes []int) bool {
			g, err := DeriveGraph(edgesFromCodes(codes))
			if err != nil {
				return false
			}
			arcs := make(map[string]bool)
			for _, a := range g.Arcs {
				arcs[a.String()] = true
			}
			for a := range arcs {
				p := strings.Split(a, "->")
				if !arcs[p[1]+"->"+p[0]] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 35)),
	))

	properties.TestingRun(t)
}
