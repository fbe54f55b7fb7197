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

// Package rivus builds mixed-integer linear programs that find the
// minimum-cost topology, transport capacities and conversion equipment
// placement of distributed urban energy networks carrying multiple
// commodities.
package rivus

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Commodity is an energy carrier such as electricity, heat or gas.
// Loss and cost attributes that depend on transport distance are per
// metre of edge length.
type Commodity struct {
	Name string `rivus:"Commodity" validate:"required"`

	// LossFix is the fixed loss per metre of a used arc [kW/m] and
	// LossVar is the loss per metre proportional to the inflow [1/m].
	LossFix float64 `rivus:"loss-fix" validate:"gte=0"`
	LossVar float64 `rivus:"loss-var" validate:"gte=0"`

	// CapMax is the maximum transport capacity [kW]. Commodities with
	// CapMax == 0 cannot be transported.
	CapMax float64 `rivus:"cap-max" validate:"gte=0"`

	CostInvFix float64 `rivus:"cost-inv-fix" validate:"gte=0"` // [€/m]
	CostInvVar float64 `rivus:"cost-inv-var" validate:"gte=0"` // [€/kW/m]
	CostFix    float64 `rivus:"cost-fix" validate:"gte=0"`     // [€/kW/m]
	CostVar    float64 `rivus:"cost-var" validate:"gte=0"`     // [€/kWh]

	// AllowedMax is the maximum allowed net generation over the time
	// horizon [kWh]. Zero or infinite values mean no limit.
	AllowedMax float64 `rivus:"allowed-max,optional" validate:"gte=0"`
}

// Process is a conversion technology, such as a boiler or a combined
// heat and power plant.
type Process struct {
	Name string `rivus:"Process" validate:"required"`

	CapMin float64 `rivus:"cap-min" validate:"gte=0"`                 // [kW]
	CapMax float64 `rivus:"cap-max" validate:"gte=0,gtefield=CapMin"` // [kW]

	CostInvFix float64 `rivus:"cost-inv-fix" validate:"gte=0"` // [€]
	CostInvVar float64 `rivus:"cost-inv-var" validate:"gte=0"` // [€/kW]
	CostFix    float64 `rivus:"cost-fix" validate:"gte=0"`     // [€/kW]
	CostVar    float64 `rivus:"cost-var" validate:"gte=0"`     // [€/kWh]
}

// Direction tells whether a commodity flows into or out of a process.
type Direction string

// Directions of process commodity flows.
const (
	In  Direction = "In"
	Out Direction = "Out"
)

// ProcessCommodity is the flow of a commodity into or out of a process
// per unit of process throughput.
type ProcessCommodity struct {
	Process   string    `rivus:"Process" validate:"required"`
	Commodity string    `rivus:"Commodity" validate:"required"`
	Direction Direction `rivus:"Direction" validate:"oneof=In Out"`
	Ratio     float64   `rivus:"ratio" validate:"gte=0"`
}

// defaultScaleKey is the key in TimeStep.Scale that applies to
// commodities without their own entry.
const defaultScaleKey = "scale"

// TimeStep is a representative period of the time horizon.
type TimeStep struct {
	Name string `rivus:"Time" validate:"required"`

	// Weight scales variable costs and generation to the whole horizon.
	Weight float64 `rivus:"weight" validate:"gte=0"`

	// Scale translates peak demand into the expected load of this time
	// step. It is keyed by commodity; the key "scale" holds the value for
	// commodities without their own key.
	Scale map[string]float64 `rivus:"scale" validate:"dive,gte=0"`
}

// ScaleOf returns the peak scale factor of commodity co in t. It falls
// back to the default scale and then to 1.
func (t TimeStep) ScaleOf(co string) float64 {
	if v, ok := t.Scale[co]; ok {
		return v
	}
	if v, ok := t.Scale[defaultScaleKey]; ok {
		return v
	}
	return 1
}

// AreaDemand holds the demand intensity of a commodity in an area type.
type AreaDemand struct {
	Area      string  `rivus:"Area" validate:"required"`
	Commodity string  `rivus:"Commodity" validate:"required"`
	Peak      float64 `rivus:"peak" validate:"gte=0"`   // [kW/m²]
	Demand    float64 `rivus:"demand" validate:"gte=0"` // [kWh/m²/a]
}

// Vertex is a connection point of the network.
type Vertex struct {
	ID string `rivus:"Vertex" validate:"required"`

	// Source holds the source capacity [kW] of commodities
	// that may enter the network at this vertex.
	Source map[string]float64 `rivus:"source" validate:"dive,gte=0"`
}

// EdgeKey identifies an undirected edge by its vertices in input order.
type EdgeKey struct {
	V1, V2 string
}

func (k EdgeKey) String() string { return k.V1 + "-" + k.V2 }

// Edge is an undirected street segment between two vertices.
type Edge struct {
	V1 string `rivus:"Vertex1" validate:"required"`
	V2 string `rivus:"Vertex2" validate:"required"`

	// Areas holds the floor area [m²] of each area type
	// that is supplied from this edge.
	Areas map[string]float64 `rivus:"area" validate:"dive,gte=0"`

	// Length is the physical length of the edge [m].
	Length float64 `rivus:"length" validate:"gte=0"`
}

// Key returns the key of e.
func (e Edge) Key() EdgeKey { return EdgeKey{V1: e.V1, V2: e.V2} }

// Data holds all of the input tables for building a model.
type Data struct {
	Commodities        []Commodity
	Processes          []Process
	ProcessCommodities []ProcessCommodity
	Time               []TimeStep
	AreaDemand         []AreaDemand
	Vertices           []Vertex
	Edges              []Edge
}

func copyMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	o := make(map[string]float64, len(m))
	for k, v := range m {
		o[k] = v
	}
	return o
}

// Clone returns a deep copy of d. Scenario builds that modify input
// tables should each work on their own clone.
func (d *Data) Clone() *Data {
	o := &Data{
		Commodities:        append([]Commodity(nil), d.Commodities...),
		Processes:          append([]Process(nil), d.Processes...),
		ProcessCommodities: append([]ProcessCommodity(nil), d.ProcessCommodities...),
		AreaDemand:         append([]AreaDemand(nil), d.AreaDemand...),
		Time:               make([]TimeStep, len(d.Time)),
		Vertices:           make([]Vertex, len(d.Vertices)),
		Edges:              make([]Edge, len(d.Edges)),
	}
	for i, t := range d.Time {
		t.Scale = copyMap(t.Scale)
		o.Time[i] = t
	}
	for i, v := range d.Vertices {
		v.Source = copyMap(v.Source)
		o.Vertices[i] = v
	}
	for i, e := range d.Edges {
		e.Areas = copyMap(e.Areas)
		o.Edges[i] = e
	}
	return o
}

// Commodity returns the commodity with the given name.
func (d *Data) Commodity(name string) (Commodity, bool) {
	for _, c := range d.Commodities {
		if c.Name == name {
			return c, true
		}
	}
	return Commodity{}, false
}

// Process returns the process with the given name.
func (d *Data) Process(name string) (Process, bool) {
	for _, p := range d.Processes {
		if p.Name == name {
			return p, true
		}
	}
	return Process{}, false
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _ := parseTag(f.Tag.Get("rivus"))
		return name
	})
}

// rowError converts a validation error for a table row into an error
// that names the row and the offending column.
func rowError(table string, row int, id string, err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		var rule string
		switch fe.Tag() {
		case "required":
			rule = "must not be empty"
		case "gte":
			rule = "must be >= " + fe.Param()
		case "gtefield":
			rule = "must be >= " + strings.ToLower(fe.Param()[:3]) + "-" + strings.ToLower(fe.Param()[3:])
		case "oneof":
			rule = "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
		default:
			rule = "fails " + fe.Tag()
		}
		return fmt.Errorf("rivus: %s row %d (%s): %s=%v %s", table, row, id, fe.Field(), fe.Value(), rule)
	}
	return fmt.Errorf("rivus: %s row %d (%s): %v", table, row, id, err)
}

// Validate checks d for errors in the shape and content of its tables.
// The first error found is returned and names the offending row.
func (d *Data) Validate() error {
	commodities := make(map[string]bool)
	for i, c := range d.Commodities {
		if err := validate.Struct(c); err != nil {
			return rowError("commodity", i, c.Name, err)
		}
		if commodities[c.Name] {
			return fmt.Errorf("rivus: commodity row %d: duplicate commodity %q", i, c.Name)
		}
		commodities[c.Name] = true
	}
	processes := make(map[string]bool)
	for i, p := range d.Processes {
		if err := validate.Struct(p); err != nil {
			return rowError("process", i, p.Name, err)
		}
		if processes[p.Name] {
			return fmt.Errorf("rivus: process row %d: duplicate process %q", i, p.Name)
		}
		processes[p.Name] = true
	}
	for i, pc := range d.ProcessCommodities {
		id := fmt.Sprintf("%s, %s, %s", pc.Process, pc.Commodity, pc.Direction)
		if err := validate.Struct(pc); err != nil {
			return rowError("process-commodity", i, id, err)
		}
		if !processes[pc.Process] {
			return fmt.Errorf("rivus: process-commodity row %d (%s): unknown process %q", i, id, pc.Process)
		}
		if !commodities[pc.Commodity] {
			return fmt.Errorf("rivus: process-commodity row %d (%s): unknown commodity %q", i, id, pc.Commodity)
		}
	}
	if len(d.Time) == 0 {
		return fmt.Errorf("rivus: time table is empty")
	}
	steps := make(map[string]bool)
	for i, t := range d.Time {
		if err := validate.Struct(t); err != nil {
			return rowError("time", i, t.Name, err)
		}
		if steps[t.Name] {
			return fmt.Errorf("rivus: time row %d: duplicate time step %q", i, t.Name)
		}
		steps[t.Name] = true
	}
	areaDemand := make(map[[2]string]bool)
	for i, a := range d.AreaDemand {
		id := a.Area + ", " + a.Commodity
		if err := validate.Struct(a); err != nil {
			return rowError("area-demand", i, id, err)
		}
		if !commodities[a.Commodity] {
			return fmt.Errorf("rivus: area-demand row %d (%s): unknown commodity %q", i, id, a.Commodity)
		}
		if areaDemand[[2]string{a.Area, a.Commodity}] {
			return fmt.Errorf("rivus: area-demand row %d: duplicate entry (%s)", i, id)
		}
		areaDemand[[2]string{a.Area, a.Commodity}] = true
	}
	for i, v := range d.Vertices {
		if err := validate.Struct(v); err != nil {
			return rowError("vertex", i, v.ID, err)
		}
	}
	for i, e := range d.Edges {
		if err := validate.Struct(e); err != nil {
			return rowError("edge", i, e.Key().String(), err)
		}
	}
	return nil
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string]bool) []string {
	o := make([]string, 0, len(m))
	for k := range m {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}
