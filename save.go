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
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/rivus/milp"
	"github.com/spf13/cast"
	"github.com/tealeg/xlsx"
)

// Snapshot holds everything needed to rebuild a solved model.
type Snapshot struct {
	Data *Data

	HubRule        HubRule
	FixedCosts     FixedCostRule
	PeakExpression string

	// Solution may be nil for models that have not been solved.
	Solution *milp.Solution
}

// Save writes the input data, build options and solution s of m to w
// as a gzipped gob (format description at
// https://golang.org/pkg/encoding/gob/). Custom PeakMultiplier
// functions cannot be saved; only PeakExpression is kept.
func Save(w io.Writer, m *Model, s *milp.Solution) error {
	if m.Config.PeakMultiplier != nil {
		return fmt.Errorf("rivus.Save: models built with a PeakMultiplier function cannot be saved")
	}
	gz := gzip.NewWriter(w)
	snap := Snapshot{
		Data:           m.Params,
		HubRule:        m.Config.HubRule,
		FixedCosts:     m.Config.FixedCosts,
		PeakExpression: m.Config.PeakExpression,
		Solution:       s,
	}
	if err := gob.NewEncoder(gz).Encode(snap); err != nil {
		return fmt.Errorf("rivus.Save: %v", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("rivus.Save: %v", err)
	}
	return nil
}

// Load reads a snapshot written by Save and rebuilds the model. The
// returned solution is nil if none was saved.
func Load(r io.Reader, cfg BuildConfig) (*Model, *milp.Solution, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("rivus.Load: %v", err)
	}
	defer gz.Close()
	var snap Snapshot
	if err := gob.NewDecoder(gz).Decode(&snap); err != nil {
		return nil, nil, fmt.Errorf("rivus.Load: %v", err)
	}
	cfg.HubRule = snap.HubRule
	cfg.FixedCosts = snap.FixedCosts
	cfg.PeakExpression = snap.PeakExpression
	cfg.PeakMultiplier = nil
	m, err := Build(snap.Data, cfg)
	if err != nil {
		return nil, nil, err
	}
	if snap.Solution != nil && len(snap.Solution.Values) != 0 && len(snap.Solution.Values) != m.Problem.NumVars() {
		return nil, nil, fmt.Errorf("rivus.Load: saved solution has %d values but the rebuilt model has %d variables",
			len(snap.Solution.Values), m.Problem.NumVars())
	}
	return m, snap.Solution, nil
}

// WriteLP writes the optimization problem of m in CPLEX LP format.
func (m *Model) WriteLP(w io.Writer) error {
	return milp.WriteLP(w, m.Problem)
}

// addTableSheet writes t to a new sheet with the given name.
func addTableSheet(f *xlsx.File, name string, t *Table) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return fmt.Errorf("rivus: writing report sheet %s: %v", name, err)
	}
	row := sheet.AddRow()
	for _, h := range append(append([]string(nil), t.Dims...), t.Columns...) {
		row.AddCell().SetString(h)
	}
	for _, r := range t.Rows {
		row := sheet.AddRow()
		for _, k := range r.Index {
			row.AddCell().SetString(k)
		}
		for _, v := range r.Values {
			row.AddCell().SetFloat(v)
		}
	}
	return nil
}

// WriteReport writes the constant and time-dependent results to an
// xlsx file.
func WriteReport(filename string, r *Result) error {
	c := r.Constants()
	ts := r.Timeseries()
	f := xlsx.NewFile()
	sheets := []struct {
		name string
		t    *Table
	}{
		{"Costs", c.Costs},
		{"Pmax", c.Pmax},
		{"Kappa_hub", c.KappaHub},
		{"Kappa_process", c.KappaProcess},
		{"Rho", ts.Source},
		{"Flows", ts.Flows},
		{"Hubs", ts.Hubs},
		{"Process-IO", ts.ProcessIO},
		{"Tau", ts.Tau},
	}
	for _, s := range sheets {
		if err := addTableSheet(f, s.name, s.t); err != nil {
			return err
		}
	}
	if err := f.Save(filename); err != nil {
		return fmt.Errorf("rivus: writing report: %v", err)
	}
	return nil
}

// ReadReportTable reads a sheet written by WriteReport. dims is the
// number of index columns.
func ReadReportTable(filename, sheet string, dims int) (*Table, error) {
	f, err := xlsx.OpenFile(filename)
	if err != nil {
		return nil, fmt.Errorf("rivus: reading report: %v", err)
	}
	s, ok := f.Sheet[sheet]
	if !ok {
		return nil, fmt.Errorf("rivus: reading report: no sheet %s", sheet)
	}
	rows := sheetCells(s)
	t := &Table{Name: sheet}
	if len(rows) == 0 {
		return t, nil
	}
	if len(rows[0]) < dims {
		return nil, fmt.Errorf("rivus: reading report sheet %s: %d columns but %d index columns", sheet, len(rows[0]), dims)
	}
	t.Dims = rows[0][:dims]
	t.Columns = rows[0][dims:]
	for i, r := range rows[1:] {
		row := Row{Index: make([]string, dims), Values: make([]float64, len(t.Columns))}
		for j := range row.Index {
			if j < len(r) {
				row.Index[j] = r[j]
			}
		}
		for j := range row.Values {
			if dims+j >= len(r) || r[dims+j] == "" {
				continue
			}
			v, err := cast.ToFloat64E(r[dims+j])
			if err != nil {
				return nil, fmt.Errorf("rivus: reading report sheet %s row %d: %v", sheet, i+1, err)
			}
			row.Values[j] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteEdgeShapefile writes the edges of r's model with their geometry
// and the installed transport capacity of each transportable commodity.
// geometries must be in the same order as the model's edges.
func WriteEdgeShapefile(filename string, r *Result, geometries []geom.MultiLineString) error {
	m := r.Model
	if len(geometries) != len(m.Sets.Edge) {
		return fmt.Errorf("rivus: writing edge shapefile: %d geometries for %d edges",
			len(geometries), len(m.Sets.Edge))
	}
	fields := []goshp.Field{
		goshp.StringField("Vertex1", 50),
		goshp.StringField("Vertex2", 50),
	}
	for _, co := range m.Sets.Transportable {
		fields = append(fields, goshp.FloatField(shapefileFieldName(co), 14, 4))
	}
	filename = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".shp"
	e, err := shp.NewEncoderFromFields(filename, goshp.POLYLINE, fields...)
	if err != nil {
		return fmt.Errorf("rivus: creating edge shapefile: %v", err)
	}
	defer e.Close()
	for i, k := range m.Sets.Edge {
		vals := []interface{}{k.V1, k.V2}
		for _, co := range m.Sets.Transportable {
			vals = append(vals, r.value(m.Pmax, k.V1, k.V2, co))
		}
		if err := e.EncodeFields(geometries[i], vals...); err != nil {
			return fmt.Errorf("rivus: writing edge shapefile: %v", err)
		}
	}
	return nil
}

// shapefileFieldName shortens name to the 10 characters that dBase
// field names may hold.
func shapefileFieldName(name string) string {
	if len(name) > 10 {
		return name[:10]
	}
	return name
}
