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

	"github.com/spatialmodel/rivus/milp"
)

// Names of the constraint families.
const (
	PeakSatisfaction            = "peak_satisfaction"
	EdgeEquation                = "edge_equation"
	ArcFlowByCapacity           = "arc_flow_by_capacity"
	ArcFlowUnidirectionality    = "arc_flow_unidirectionality"
	ArcUnidirectionality        = "arc_unidirectionality"
	EdgeCapacity                = "edge_capacity"
	HubSupply                   = "hub_supply"
	HubOutputByCapacity         = "hub_output_by_capacity"
	HubCapacity                 = "hub_capacity"
	VertexEquation              = "vertex_equation"
	SourceVertices              = "source_vertices"
	CommodityMaximum            = "commodity_maximum"
	ProcessThroughputByCapacity = "process_throughput_by_capacity"
	ProcessCapacityMin          = "process_capacity_min"
	ProcessCapacityMax          = "process_capacity_max"
	ProcessInput                = "process_input"
	ProcessOutput               = "process_output"
	DefCosts                    = "def_costs"
)

// constraintFamily declares a family and fills it.
type constraintFamily struct {
	name, doc string
	dims      []string
	fill      func(m *Model, f *milp.Family)
}

var constraintFamilies = []constraintFamily{
	// edges and arcs
	{PeakSatisfaction, "peak must be satisfied by Sigma and hub process output",
		[]string{"Vertex1", "Vertex2", "commodity", "time"}, (*Model).peakSatisfaction},
	{EdgeEquation, "Sigma is provided by arc flow difference Pin-Pot in either direction",
		[]string{"Vertex1", "Vertex2", "commodity", "time"}, (*Model).edgeEquation},
	{ArcFlowByCapacity, "Pin <= Pmax",
		[]string{"Vertex1", "Vertex2", "commodity", "time"}, (*Model).arcFlowByCapacity},
	{ArcFlowUnidirectionality, "Pin <= Cmax * Psi",
		[]string{"Vertex1", "Vertex2", "commodity", "time"}, (*Model).arcFlowUnidirectionality},
	{ArcUnidirectionality, "Psi[i,j,t] + Psi[j,i,t] <= 1",
		[]string{"Vertex1", "Vertex2", "commodity", "time"}, (*Model).arcUnidirectionality},
	{EdgeCapacity, "Pmax <= Cmax * Xi",
		[]string{"Vertex1", "Vertex2", "commodity"}, (*Model).edgeCapacity},

	// hubs
	{HubSupply, "Hub inputs <= Sigma",
		[]string{"Vertex1", "Vertex2", "commodity", "time"}, (*Model).hubSupply},
	{HubOutputByCapacity, "Epsilon_hub <= Kappa_hub",
		[]string{"Vertex1", "Vertex2", "process", "time"}, (*Model).hubOutputByCapacity},
	{HubCapacity, "Kappa_hub <= Cmax",
		[]string{"Vertex1", "Vertex2", "process"}, (*Model).hubCapacity},

	// vertices
	{VertexEquation, "Rho >= Process balance + Arc flow balance",
		[]string{"Vertex", "commodity", "time"}, (*Model).vertexEquation},
	{SourceVertices, "Rho <= Cmax",
		[]string{"Vertex", "commodity", "time"}, (*Model).sourceVertices},

	// commodities
	{CommodityMaximum, "Net commodity generation <= allowed-max",
		[]string{"commodity"}, (*Model).commodityMaximum},

	// processes
	{ProcessThroughputByCapacity, "Tau <= Kappa_process",
		[]string{"Vertex", "process", "time"}, (*Model).processThroughputByCapacity},
	{ProcessCapacityMin, "Kappa_process >= Cmin * Phi",
		[]string{"Vertex", "process"}, (*Model).processCapacityMin},
	{ProcessCapacityMax, "Kappa_process <= Cmax * Phi",
		[]string{"Vertex", "process"}, (*Model).processCapacityMax},
	{ProcessInput, "Epsilon_in = Tau * r_in",
		[]string{"Vertex", "process", "commodity", "time"}, (*Model).processInput},
	{ProcessOutput, "Epsilon_out = Tau * r_out",
		[]string{"Vertex", "process", "commodity", "time"}, (*Model).processOutput},
}

// DeclareConstraints creates all constraint families except the cost
// definitions.
func DeclareConstraints() Phase {
	return func(m *Model) error {
		for _, cf := range constraintFamilies {
			f, err := m.Problem.AddFamily(cf.name, cf.doc, cf.dims...)
			if err != nil {
				return fmt.Errorf("rivus: declaring constraints: %v", err)
			}
			cf.fill(m, f)
		}
		return nil
	}
}

func (m *Model) peakSatisfaction(f *milp.Family) {
	for _, e := range m.Sets.Edge {
		for _, co := range m.Sets.Demand {
			for _, t := range m.Sets.Time {
				provided := m.HubBalance(e, co, t)
				provided.Add(m.Sigma.At(e.V1, e.V2, co, t), 1)
				peak := m.Demand.PeakOf(e, co) * m.timeStep[t].ScaleOf(co)
				f.Add([]string{e.V1, e.V2, co, t}, provided, milp.GreaterEqual, milp.Constant(peak))
			}
		}
	}
}

func (m *Model) edgeEquation(f *milp.Family) {
	for _, e := range m.Sets.Edge {
		length := m.edgeLength[e]
		for _, co := range m.Sets.Commodity {
			c := m.commodity[co]
			for _, t := range m.Sets.Time {
				idx := []string{e.V1, e.V2, co, t}
				sigma := milp.Sum(m.Sigma.At(idx...))
				if !m.transportable[co] {
					f.Add(idx, sigma, milp.LessEqual, milp.Constant(0))
					continue
				}
				var supply milp.Expr
				inFactor := 1 - length*c.LossVar
				fixedLoss := length * c.LossFix
				for _, a := range []Arc{{e.V1, e.V2}, {e.V2, e.V1}} {
					supply.Add(m.Pin.At(a.From, a.To, co, t), inFactor)
					supply.Add(m.Pot.At(a.From, a.To, co, t), -1)
					supply.Add(m.Psi.At(a.From, a.To, co, t), -fixedLoss)
				}
				f.Add(idx, sigma, milp.LessEqual, supply)
			}
		}
	}
}

func (m *Model) arcFlowByCapacity(f *milp.Family) {
	for _, a := range m.Sets.Arc {
		e, _ := m.Graph.EdgeOf(a)
		for _, co := range m.Sets.Transportable {
			pmax := milp.Sum(m.Pmax.At(e.V1, e.V2, co))
			for _, t := range m.Sets.Time {
				f.Add([]string{a.From, a.To, co, t}, milp.Sum(m.Pin.At(a.From, a.To, co, t)),
					milp.LessEqual, pmax)
			}
		}
	}
}

func (m *Model) arcFlowUnidirectionality(f *milp.Family) {
	for _, a := range m.Sets.Arc {
		for _, co := range m.Sets.Transportable {
			capMax := m.commodity[co].CapMax
			for _, t := range m.Sets.Time {
				f.Add([]string{a.From, a.To, co, t}, milp.Sum(m.Pin.At(a.From, a.To, co, t)),
					milp.LessEqual, milp.Sum(m.Psi.At(a.From, a.To, co, t)).Scale(capMax))
			}
		}
	}
}

// arcUnidirectionality adds one constraint per edge; the constraint for
// the reverse arc would be identical.
func (m *Model) arcUnidirectionality(f *milp.Family) {
	for _, e := range m.Sets.Edge {
		for _, co := range m.Sets.Transportable {
			for _, t := range m.Sets.Time {
				f.Add([]string{e.V1, e.V2, co, t},
					milp.Sum(m.Psi.At(e.V1, e.V2, co, t), m.Psi.At(e.V2, e.V1, co, t)),
					milp.LessEqual, milp.Constant(1))
			}
		}
	}
}

func (m *Model) edgeCapacity(f *milp.Family) {
	for _, e := range m.Sets.Edge {
		for _, co := range m.Sets.Transportable {
			f.Add([]string{e.V1, e.V2, co}, milp.Sum(m.Pmax.At(e.V1, e.V2, co)),
				milp.LessEqual, milp.Sum(m.Xi.At(e.V1, e.V2, co)).Scale(m.commodity[co].CapMax))
		}
	}
}

func (m *Model) hubSupply(f *milp.Family) {
	for _, e := range m.Sets.Edge {
		for _, co := range m.Sets.Commodity {
			for _, t := range m.Sets.Time {
				f.Add([]string{e.V1, e.V2, co, t}, m.HubBalance(e, co, t).Neg(),
					milp.LessEqual, milp.Sum(m.Sigma.At(e.V1, e.V2, co, t)))
			}
		}
	}
}

func (m *Model) hubOutputByCapacity(f *milp.Family) {
	for _, e := range m.Sets.Edge {
		for _, h := range m.Sets.Hub {
			kappa := milp.Sum(m.KappaHub.At(e.V1, e.V2, h))
			for _, t := range m.Sets.Time {
				f.Add([]string{e.V1, e.V2, h, t}, milp.Sum(m.EpsilonHub.At(e.V1, e.V2, h, t)),
					milp.LessEqual, kappa)
			}
		}
	}
}

func (m *Model) hubCapacity(f *milp.Family) {
	for _, e := range m.Sets.Edge {
		for _, h := range m.Tech.Hubs {
			f.Add([]string{e.V1, e.V2, h.Name}, milp.Sum(m.KappaHub.At(e.V1, e.V2, h.Name)),
				milp.LessEqual, milp.Constant(h.CapMax))
		}
	}
}

// vertexEquation requires the net consumption of each commodity in each
// vertex to be covered by its source stream, or to be non-positive for
// commodities without a source.
func (m *Model) vertexEquation(f *milp.Family) {
	for _, v := range m.Sets.Vertex {
		for _, co := range m.Sets.Commodity {
			for _, t := range m.Sets.Time {
				var required milp.Expr
				if m.transportable[co] {
					required.AddExpr(m.FlowBalance(v, co, t), -1)
				}
				required.AddExpr(m.ProcessBalance(v, co, t), -1)
				if m.isSource[co] {
					f.Add([]string{v, co, t}, milp.Sum(m.Rho.At(v, co, t)), milp.GreaterEqual, required)
				} else {
					f.Add([]string{v, co, t}, milp.Constant(0), milp.GreaterEqual, required)
				}
			}
		}
	}
}

func (m *Model) sourceVertices(f *milp.Family) {
	for _, v := range m.Sets.Vertex {
		for _, co := range m.Sets.Source {
			capacity := m.source[v][co]
			for _, t := range m.Sets.Time {
				f.Add([]string{v, co, t}, milp.Sum(m.Rho.At(v, co, t)),
					milp.LessEqual, milp.Constant(capacity))
			}
		}
	}
}

func (m *Model) commodityMaximum(f *milp.Family) {
	for _, co := range m.Sets.AllowedMax {
		var total milp.Expr
		for _, t := range m.Sets.Time {
			w := m.timeStep[t].Weight
			for _, v := range m.Sets.Vertex {
				total.AddExpr(m.ProcessBalance(v, co, t), w)
			}
			for _, e := range m.Sets.Edge {
				total.AddExpr(m.HubBalance(e, co, t), w)
			}
		}
		f.Add([]string{co}, total, milp.LessEqual, milp.Constant(m.commodity[co].AllowedMax))
	}
}

func (m *Model) processThroughputByCapacity(f *milp.Family) {
	for _, v := range m.Sets.Vertex {
		for _, p := range m.Sets.Process {
			kappa := milp.Sum(m.KappaProcess.At(v, p))
			for _, t := range m.Sets.Time {
				f.Add([]string{v, p, t}, milp.Sum(m.Tau.At(v, p, t)), milp.LessEqual, kappa)
			}
		}
	}
}

func (m *Model) processCapacityMin(f *milp.Family) {
	for _, v := range m.Sets.Vertex {
		for _, t := range m.Tech.All {
			f.Add([]string{v, t.Name}, milp.Sum(m.KappaProcess.At(v, t.Name)),
				milp.GreaterEqual, milp.Sum(m.Phi.At(v, t.Name)).Scale(t.CapMin))
		}
	}
}

func (m *Model) processCapacityMax(f *milp.Family) {
	for _, v := range m.Sets.Vertex {
		for _, t := range m.Tech.All {
			f.Add([]string{v, t.Name}, milp.Sum(m.KappaProcess.At(v, t.Name)),
				milp.LessEqual, milp.Sum(m.Phi.At(v, t.Name)).Scale(t.CapMax))
		}
	}
}

func (m *Model) processInput(f *milp.Family) {
	for _, v := range m.Sets.Vertex {
		for _, t := range m.Tech.All {
			for _, fl := range t.Inputs {
				for _, ts := range m.Sets.Time {
					f.Add([]string{v, t.Name, fl.Commodity, ts},
						milp.Sum(m.EpsilonIn.At(v, t.Name, fl.Commodity, ts)),
						milp.Equal, milp.Sum(m.Tau.At(v, t.Name, ts)).Scale(fl.Ratio))
				}
			}
		}
	}
}

func (m *Model) processOutput(f *milp.Family) {
	for _, v := range m.Sets.Vertex {
		for _, t := range m.Tech.All {
			for _, fl := range t.Outputs {
				for _, ts := range m.Sets.Time {
					f.Add([]string{v, t.Name, fl.Commodity, ts},
						milp.Sum(m.EpsilonOut.At(v, t.Name, fl.Commodity, ts)),
						milp.Equal, milp.Sum(m.Tau.At(v, t.Name, ts)).Scale(fl.Ratio))
				}
			}
		}
	}
}
