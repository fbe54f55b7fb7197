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

// Location tells where a technology may be installed.
type Location int

const (
	// VertexProcess technologies are installed in vertices only.
	VertexProcess Location = iota
	// EdgeHub technologies may additionally be installed in edges,
	// where they convert the commodities supplied to that edge.
	EdgeHub
)

func (l Location) String() string {
	switch l {
	case VertexProcess:
		return "process"
	case EdgeHub:
		return "hub"
	default:
		return fmt.Sprintf("Location(%d)", int(l))
	}
}

// Flow is a commodity consumed or produced by a technology, per unit of
// throughput.
type Flow struct {
	Commodity string
	Ratio     float64
}

// Technology is a process together with its commodity flows.
type Technology struct {
	Process
	Location Location

	// Inputs and Outputs hold the flows in input order.
	Inputs, Outputs []Flow
}

// IsHub reports whether t may be installed in edges.
func (t *Technology) IsHub() bool { return t.Location == EdgeHub }

// HubRule decides which processes are hubs.
type HubRule int

const (
	// FourConditionHubRule classifies a process as a hub if it has zero
	// fixed investment cost, zero minimum capacity and exactly one
	// input, with a ratio of one. It is the default.
	FourConditionHubRule HubRule = iota

	// ThreeConditionHubRule omits the ratio check of
	// FourConditionHubRule. Throughput of hubs selected by this rule
	// is not normalized to their input, so it is only meant for
	// reproducing results of models built with it.
	ThreeConditionHubRule
)

func (r HubRule) String() string {
	switch r {
	case FourConditionHubRule:
		return "four"
	case ThreeConditionHubRule:
		return "three"
	default:
		return fmt.Sprintf("HubRule(%d)", int(r))
	}
}

// ParseHubRule is the inverse of HubRule.String.
func ParseHubRule(s string) (HubRule, error) {
	switch s {
	case "four", "":
		return FourConditionHubRule, nil
	case "three":
		return ThreeConditionHubRule, nil
	default:
		return 0, fmt.Errorf("rivus: invalid hub rule %q; valid options are \"four\" and \"three\"", s)
	}
}

// isHub applies the rule to a process and its inputs.
func (r HubRule) isHub(p Process, inputs []Flow) bool {
	ok := p.CostInvFix == 0 && p.CapMin == 0 && len(inputs) == 1
	if r == ThreeConditionHubRule {
		return ok
	}
	return ok && inputs[0].Ratio == 1
}

// Technologies holds all processes, classified by location.
type Technologies struct {
	// All holds every technology in process table order. Hubs are
	// included because they may also be installed in vertices.
	All []*Technology

	// Hubs holds the technologies that may be installed in edges.
	Hubs []*Technology

	byName map[string]*Technology
}

// Get returns the technology with the given name.
func (ts *Technologies) Get(name string) (*Technology, bool) {
	t, ok := ts.byName[name]
	return t, ok
}

// Classify attaches the process-commodity flows to each process and
// decides, according to rule, which of them are hubs. Rows naming
// unknown processes, invalid directions or duplicate flows, processes
// without any flows, and a table lacking either In or Out rows are errors.
func Classify(processes []Process, pc []ProcessCommodity, rule HubRule) (*Technologies, error) {
	ts := &Technologies{
		All:    make([]*Technology, len(processes)),
		byName: make(map[string]*Technology, len(processes)),
	}
	for i, p := range processes {
		if _, ok := ts.byName[p.Name]; ok {
			return nil, fmt.Errorf("rivus: process row %d: duplicate process %q", i, p.Name)
		}
		t := &Technology{Process: p}
		ts.All[i] = t
		ts.byName[p.Name] = t
	}

	type flowKey struct {
		process, commodity string
		dir                Direction
	}
	seen := make(map[flowKey]bool, len(pc))
	for i, f := range pc {
		id := fmt.Sprintf("%s, %s, %s", f.Process, f.Commodity, f.Direction)
		t, ok := ts.byName[f.Process]
		if !ok {
			return nil, fmt.Errorf("rivus: process-commodity row %d (%s): unknown process %q", i, id, f.Process)
		}
		k := flowKey{f.Process, f.Commodity, f.Direction}
		if seen[k] {
			return nil, fmt.Errorf("rivus: process-commodity row %d (%s): duplicate row", i, id)
		}
		seen[k] = true
		switch f.Direction {
		case In:
			t.Inputs = append(t.Inputs, Flow{Commodity: f.Commodity, Ratio: f.Ratio})
		case Out:
			t.Outputs = append(t.Outputs, Flow{Commodity: f.Commodity, Ratio: f.Ratio})
		default:
			return nil, fmt.Errorf("rivus: process-commodity row %d (%s): direction must be In or Out", i, id)
		}
	}

	if len(processes) > 0 {
		for _, dir := range []Direction{In, Out} {
			if !hasDirection(pc, dir) {
				return nil, fmt.Errorf("rivus: process-commodity table has no %s rows", dir)
			}
		}
	}

	for _, t := range ts.All {
		if len(t.Inputs) == 0 && len(t.Outputs) == 0 {
			return nil, fmt.Errorf("rivus: process %q has no process-commodity rows", t.Name)
		}
		if rule.isHub(t.Process, t.Inputs) {
			t.Location = EdgeHub
			ts.Hubs = append(ts.Hubs, t)
		}
	}
	return ts, nil
}

func hasDirection(pc []ProcessCommodity, dir Direction) bool {
	for _, f := range pc {
		if f.Direction == dir {
			return true
		}
	}
	return false
}
