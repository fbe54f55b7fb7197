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
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rivus/milp"
)

// BuildConfig holds the options for building a model.
type BuildConfig struct {
	// HubRule selects the hub classification rule. The default is
	// FourConditionHubRule.
	HubRule HubRule

	// FixedCosts selects how fixed costs are defined. The default is
	// ExplicitFixedCosts.
	FixedCosts FixedCostRule

	// PeakMultiplier, if not nil, adjusts the aggregated peak demand.
	PeakMultiplier PeakMultiplier

	// PeakExpression, if not empty and PeakMultiplier is nil, is
	// compiled with ExpressionPeakMultiplier.
	PeakExpression string

	// Log receives progress messages. The default is
	// logrus.StandardLogger().
	Log logrus.FieldLogger
}

// Sets holds the index sets of a model. Each set is ordered as in the
// input tables, so building a model twice from the same data gives the
// same domains.
type Sets struct {
	Commodity     []string
	Demand        []string // commodities with demand in edges
	Source        []string // commodities that may enter the network at vertices
	Transportable []string // commodities with cap-max > 0
	AllowedMax    []string // commodities with a finite, positive allowed-max

	Process []string
	Hub     []string

	// ProcessInputs and ProcessOutputs hold (process, commodity) tuples.
	ProcessInputs  [][2]string
	ProcessOutputs [][2]string

	Time []string

	Vertex []string
	Edge   []EdgeKey
	Arc    []Arc

	CostType []CostType
}

// Phase is one step in building a model.
type Phase func(*Model) error

// Model is a mixed-integer linear program for a network, together with
// the data it was built from.
type Model struct {
	// Params holds the input data. It is a copy of the data given to
	// Build and must not be modified.
	Params *Data
	Config BuildConfig

	Graph  *Graph
	Demand *Demand
	Tech   *Technologies
	Sets   Sets

	Problem *milp.Problem

	// InitFuncs are run in order by Init.
	InitFuncs []Phase

	// Variable collections.
	Sigma, Pin, Pot, Psi, Pmax, Xi *milp.VarSet
	Rho                            *milp.VarSet
	KappaHub, EpsilonHub           *milp.VarSet
	KappaProcess, Phi, Tau         *milp.VarSet
	EpsilonIn, EpsilonOut          *milp.VarSet
	Costs                          *milp.VarSet

	commodity     map[string]Commodity
	timeStep      map[string]TimeStep
	edgeLength    map[EdgeKey]float64
	source        map[string]map[string]float64
	transportable map[string]bool
	isSource      map[string]bool

	ix *index
}

// Build creates a model from data. data is copied and not modified.
func Build(data *Data, cfg BuildConfig) (*Model, error) {
	m := &Model{
		Params: data.Clone(),
		Config: cfg,
		InitFuncs: []Phase{
			ValidateData(),
			Derive(),
			DeclareSets(),
			DeclareVariables(),
			DeclareConstraints(),
			DefineCosts(),
			SetObjective(),
		},
	}
	if err := m.Init(); err != nil {
		return nil, err
	}
	return m, nil
}

// Init runs the functions in m.InitFuncs.
func (m *Model) Init() error {
	if m.Config.Log == nil {
		m.Config.Log = logrus.StandardLogger()
	}
	start := time.Now()
	for i, f := range m.InitFuncs {
		if err := f(m); err != nil {
			return err
		}
		m.Config.Log.WithFields(logrus.Fields{
			"phase":   i + 1,
			"nphases": len(m.InitFuncs),
		}).Debug("rivus build phase complete")
	}
	if m.Problem != nil {
		m.Config.Log.WithFields(logrus.Fields{
			"variables":   m.Problem.NumVars(),
			"constraints": m.Problem.NumConstraints(),
			"duration":    time.Since(start),
		}).Info("rivus model built")
	}
	return nil
}

// ValidateData checks the input tables.
func ValidateData() Phase {
	return func(m *Model) error {
		return m.Params.Validate()
	}
}

// Derive creates the graph, demand and technology classification from
// the input tables.
func Derive() Phase {
	return func(m *Model) error {
		var err error
		m.Graph, err = DeriveGraph(m.Params.Vertices, m.Params.Edges)
		if err != nil {
			return err
		}
		m.Tech, err = Classify(m.Params.Processes, m.Params.ProcessCommodities, m.Config.HubRule)
		if err != nil {
			return err
		}
		m.Demand = AggregateDemand(m.Params.Edges, m.Params.AreaDemand)
		mult := m.Config.PeakMultiplier
		if mult == nil && m.Config.PeakExpression != "" {
			if mult, err = ExpressionPeakMultiplier(m.Config.PeakExpression); err != nil {
				return err
			}
		}
		if mult != nil {
			if m.Demand, err = m.Demand.WithPeakMultiplier(mult); err != nil {
				return err
			}
		}
		return nil
	}
}

// DeclareSets creates the index sets of the model and the lookup
// tables used while building constraints.
func DeclareSets() Phase {
	return func(m *Model) error {
		d := m.Params
		s := &m.Sets
		m.commodity = make(map[string]Commodity, len(d.Commodities))
		m.transportable = make(map[string]bool)
		m.isSource = make(map[string]bool)

		demanded := make(map[string]bool)
		for _, a := range d.AreaDemand {
			demanded[a.Commodity] = true
		}
		hasSource := make(map[string]bool)
		for _, v := range d.Vertices {
			for co := range v.Source {
				hasSource[co] = true
			}
		}
		for _, c := range d.Commodities {
			m.commodity[c.Name] = c
			s.Commodity = append(s.Commodity, c.Name)
			if demanded[c.Name] {
				s.Demand = append(s.Demand, c.Name)
			}
			if hasSource[c.Name] {
				s.Source = append(s.Source, c.Name)
				m.isSource[c.Name] = true
			}
			if c.CapMax > 0 {
				s.Transportable = append(s.Transportable, c.Name)
				m.transportable[c.Name] = true
			}
			if c.AllowedMax > 0 && !math.IsInf(c.AllowedMax, 1) {
				s.AllowedMax = append(s.AllowedMax, c.Name)
			}
		}

		for _, t := range m.Tech.All {
			s.Process = append(s.Process, t.Name)
			for _, f := range t.Inputs {
				s.ProcessInputs = append(s.ProcessInputs, [2]string{t.Name, f.Commodity})
			}
			for _, f := range t.Outputs {
				s.ProcessOutputs = append(s.ProcessOutputs, [2]string{t.Name, f.Commodity})
			}
		}
		for _, h := range m.Tech.Hubs {
			s.Hub = append(s.Hub, h.Name)
		}

		m.timeStep = make(map[string]TimeStep, len(d.Time))
		for _, t := range d.Time {
			s.Time = append(s.Time, t.Name)
			m.timeStep[t.Name] = t
		}

		s.Vertex = m.Graph.Vertices
		s.Edge = m.Graph.Edges
		s.Arc = m.Graph.Arcs
		s.CostType = []CostType{Investment, Fixed, Variable}

		m.edgeLength = make(map[EdgeKey]float64, len(d.Edges))
		for _, e := range d.Edges {
			m.edgeLength[e.Key()] = e.Length
		}
		m.source = make(map[string]map[string]float64, len(d.Vertices))
		for _, v := range d.Vertices {
			m.source[v.ID] = v.Source
		}
		m.ix = newIndex(m.Tech, m.Graph)
		return nil
	}
}

// DeclareVariables creates the decision variables.
func DeclareVariables() Phase {
	return func(m *Model) error {
		s := &m.Sets
		m.Problem = milp.NewProblem("rivus")
		var edgeCoTime, arcTrTime, edgeTr, vertexSrcTime, edgeHub, edgeHubTime [][]string
		var vertexProc, vertexProcTime, inTuples, outTuples, costTypes [][]string
		for _, e := range s.Edge {
			for _, co := range s.Commodity {
				for _, t := range s.Time {
					edgeCoTime = append(edgeCoTime, []string{e.V1, e.V2, co, t})
				}
			}
			for _, co := range s.Transportable {
				edgeTr = append(edgeTr, []string{e.V1, e.V2, co})
			}
			for _, h := range s.Hub {
				edgeHub = append(edgeHub, []string{e.V1, e.V2, h})
				for _, t := range s.Time {
					edgeHubTime = append(edgeHubTime, []string{e.V1, e.V2, h, t})
				}
			}
		}
		for _, a := range s.Arc {
			for _, co := range s.Transportable {
				for _, t := range s.Time {
					arcTrTime = append(arcTrTime, []string{a.From, a.To, co, t})
				}
			}
		}
		for _, v := range s.Vertex {
			for _, co := range s.Source {
				for _, t := range s.Time {
					vertexSrcTime = append(vertexSrcTime, []string{v, co, t})
				}
			}
			for _, p := range s.Process {
				vertexProc = append(vertexProc, []string{v, p})
				for _, t := range s.Time {
					vertexProcTime = append(vertexProcTime, []string{v, p, t})
				}
			}
			for _, pc := range s.ProcessInputs {
				for _, t := range s.Time {
					inTuples = append(inTuples, []string{v, pc[0], pc[1], t})
				}
			}
			for _, pc := range s.ProcessOutputs {
				for _, t := range s.Time {
					outTuples = append(outTuples, []string{v, pc[0], pc[1], t})
				}
			}
		}
		for _, ct := range s.CostType {
			costTypes = append(costTypes, []string{string(ct)})
		}

		edgeDims := []string{"Vertex1", "Vertex2"}
		arcDims := []string{"Vertex1", "Vertex2"}
		decls := []struct {
			set    **milp.VarSet
			name   string
			doc    string
			dims   []string
			kind   milp.Kind
			domain [][]string
		}{
			{&m.Sigma, "Sigma", "supply (kW) of commodity in edge at time",
				append(edgeDims, "commodity", "time"), milp.Continuous, edgeCoTime},
			{&m.Pin, "Pin", "power flow (kW) of commodity into arc at time",
				append(arcDims, "commodity", "time"), milp.Continuous, arcTrTime},
			{&m.Pot, "Pot", "power flow (kW) of commodity out of arc at time",
				append(arcDims, "commodity", "time"), milp.Continuous, arcTrTime},
			{&m.Psi, "Psi", "1 if (directed!) arc is used at time, 0 else",
				append(arcDims, "commodity", "time"), milp.Binary, arcTrTime},
			{&m.Pmax, "Pmax", "power flow capacity (kW) for commodity in edge",
				append(edgeDims, "commodity"), milp.Continuous, edgeTr},
			{&m.Xi, "Xi", "1 if (undirected!) edge is used for commodity at all, 0 else",
				append(edgeDims, "commodity"), milp.Binary, edgeTr},
			{&m.Rho, "Rho", "source stream (kW) of commodity from vertex",
				[]string{"Vertex", "commodity", "time"}, milp.Continuous, vertexSrcTime},
			{&m.KappaHub, "Kappa_hub", "capacity (kW) of hub process in an edge",
				append(edgeDims, "process"), milp.Continuous, edgeHub},
			{&m.EpsilonHub, "Epsilon_hub", "activity (kW) of hub process in edge at time",
				append(edgeDims, "process", "time"), milp.Continuous, edgeHubTime},
			{&m.KappaProcess, "Kappa_process", "capacity (kW) of process in vertex",
				[]string{"Vertex", "process"}, milp.Continuous, vertexProc},
			{&m.Phi, "Phi", "1 if process in vertex has Kappa_process > 0, 0 else",
				[]string{"Vertex", "process"}, milp.Binary, vertexProc},
			{&m.Tau, "Tau", "power flow (kW) through process",
				[]string{"Vertex", "process", "time"}, milp.Continuous, vertexProcTime},
			{&m.EpsilonIn, "Epsilon_in", "power flow (kW) of commodity into process",
				[]string{"Vertex", "process", "commodity", "time"}, milp.Continuous, inTuples},
			{&m.EpsilonOut, "Epsilon_out", "power flow (kW) of commodity out of process",
				[]string{"Vertex", "process", "commodity", "time"}, milp.Continuous, outTuples},
			{&m.Costs, "costs", "costs (EUR) by cost type",
				[]string{"cost_type"}, milp.Continuous, costTypes},
		}
		for _, d := range decls {
			vs, err := m.Problem.AddVarSet(d.name, d.doc, d.dims, d.kind, d.domain)
			if err != nil {
				return fmt.Errorf("rivus: declaring variables: %v", err)
			}
			*d.set = vs
		}
		return nil
	}
}

// SetObjective sets the objective to minimize the sum of all cost types.
func SetObjective() Phase {
	return func(m *Model) error {
		m.Problem.SetObjective(milp.Sum(m.Costs.Vars()...), true)
		return nil
	}
}
