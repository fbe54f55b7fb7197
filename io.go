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
	"context"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/requestcache"
	"github.com/spf13/cast"
	"github.com/tealeg/xlsx"
)

// Names of the spreadsheet sheets.
const (
	CommoditySheet        = "Commodity"
	ProcessSheet          = "Process"
	ProcessCommoditySheet = "Process-Commodity"
	TimeSheet             = "Time"
	AreaDemandSheet       = "Area-Demand"
	VertexSheet           = "Vertex"
	EdgeSheet             = "Edge"
)

// parseTag splits a rivus struct tag into the column name and whether
// the column is optional.
func parseTag(tag string) (name string, optional bool) {
	parts := strings.Split(tag, ",")
	for _, p := range parts[1:] {
		if p == "optional" {
			optional = true
		}
	}
	return parts[0], optional
}

// excelCache holds previously opened spreadsheets so that scenario runs
// that share an input file only read it once.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

// loadExcelFile opens a spreadsheet, using a cache keyed by file name
// and modification time.
func loadExcelFile(filename string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			f, err := xlsx.OpenFile(req.(string))
			if err != nil {
				return nil, fmt.Errorf("rivus: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(100))
	})
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("rivus: opening xlsx file: %v", err)
	}
	key := fmt.Sprintf("%s_%d", filename, info.ModTime().UnixNano())
	fI, err := excelCache.NewRequest(context.Background(), filename, key).Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// ReadSpreadsheet reads the input tables from the xlsx file with the
// given name. The Vertex and Edge sheets are optional, because the
// network is usually read from shapefiles instead.
func ReadSpreadsheet(filename string) (*Data, error) {
	f, err := loadExcelFile(filename)
	if err != nil {
		return nil, err
	}
	d := new(Data)
	sheets := []struct {
		name     string
		dst      interface{}
		optional bool
	}{
		{CommoditySheet, &d.Commodities, false},
		{ProcessSheet, &d.Processes, false},
		{ProcessCommoditySheet, &d.ProcessCommodities, false},
		{TimeSheet, &d.Time, false},
		{AreaDemandSheet, &d.AreaDemand, false},
		{VertexSheet, &d.Vertices, true},
		{EdgeSheet, &d.Edges, true},
	}
	for _, s := range sheets {
		sheet, ok := f.Sheet[s.name]
		if !ok {
			if s.optional {
				continue
			}
			return nil, fmt.Errorf("rivus: reading %s: missing sheet %s", filename, s.name)
		}
		if err := decodeSheet(s.name, sheetCells(sheet), s.dst); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// sheetCells returns the trimmed cell values of sheet, skipping empty
// rows.
func sheetCells(sheet *xlsx.Sheet) [][]string {
	var o [][]string
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		r := make([]string, len(row.Cells))
		empty := true
		for i, c := range row.Cells {
			if c == nil {
				continue
			}
			r[i] = strings.TrimSpace(c.Value)
			if r[i] != "" {
				empty = false
			}
		}
		if !empty {
			o = append(o, r)
		}
	}
	return o
}

// column maps a struct field to a sheet column.
type column struct {
	field    int
	name     string
	optional bool
	index    int // -1 if missing
}

// decodeSheet decodes rows, the first of which holds the column names,
// into the slice of structs pointed to by dst. Struct fields are
// matched to columns by their rivus tag. Blank numeric cells are errors
// unless the column is optional. A map[string]float64 field receives
// every column that is not matched by another field.
func decodeSheet(sheet string, rows [][]string, dst interface{}) error {
	sv := reflect.ValueOf(dst).Elem()
	et := sv.Type().Elem()
	if len(rows) == 0 {
		sv.Set(reflect.MakeSlice(sv.Type(), 0, 0))
		return nil
	}
	header := rows[0]
	cell := func(r []string, i int) string {
		if i < 0 || i >= len(r) {
			return ""
		}
		return r[i]
	}

	var cols []column
	mapField := -1
	claimed := make(map[int]bool)
	for i := 0; i < et.NumField(); i++ {
		f := et.Field(i)
		tag, ok := f.Tag.Lookup("rivus")
		if !ok {
			continue
		}
		if f.Type.Kind() == reflect.Map {
			mapField = i
			continue
		}
		name, optional := parseTag(tag)
		c := column{field: i, name: name, optional: optional, index: -1}
		for j, h := range header {
			if strings.EqualFold(h, name) {
				c.index = j
				claimed[j] = true
				break
			}
		}
		if c.index < 0 && !optional {
			return fmt.Errorf("rivus: %s sheet: missing column %s", sheet, name)
		}
		cols = append(cols, c)
	}

	out := reflect.MakeSlice(sv.Type(), len(rows)-1, len(rows)-1)
	for ri, r := range rows[1:] {
		ev := out.Index(ri)
		for _, c := range cols {
			s := cell(r, c.index)
			fv := ev.Field(c.field)
			switch fv.Kind() {
			case reflect.String:
				fv.SetString(s)
			case reflect.Float64:
				if s == "" {
					if c.optional {
						continue
					}
					return fmt.Errorf("rivus: %s sheet row %d: column %s: missing value", sheet, ri+1, c.name)
				}
				v, err := cast.ToFloat64E(s)
				if err != nil {
					return fmt.Errorf("rivus: %s sheet row %d: column %s: %v", sheet, ri+1, c.name, err)
				}
				fv.SetFloat(v)
			default:
				panic(fmt.Errorf("rivus: unsupported field type %v", fv.Type()))
			}
		}
		if mapField < 0 {
			continue
		}
		m := make(map[string]float64)
		for j, h := range header {
			s := cell(r, j)
			if claimed[j] || h == "" || s == "" {
				continue
			}
			v, err := cast.ToFloat64E(s)
			if err != nil {
				return fmt.Errorf("rivus: %s sheet row %d: column %s: %v", sheet, ri+1, h, err)
			}
			m[h] = v
		}
		ev.Field(mapField).Set(reflect.ValueOf(m))
	}
	sv.Set(out)
	return nil
}

// encodeSheet is the inverse of decodeSheet. The columns of the map
// field, if any, follow the other columns in lexical order.
func encodeSheet(sheet *xlsx.Sheet, src interface{}) {
	sv := reflect.ValueOf(src)
	et := sv.Type().Elem()
	var header []string
	var fields []int
	mapField := -1
	for i := 0; i < et.NumField(); i++ {
		tag, ok := et.Field(i).Tag.Lookup("rivus")
		if !ok {
			continue
		}
		if et.Field(i).Type.Kind() == reflect.Map {
			mapField = i
			continue
		}
		name, _ := parseTag(tag)
		header = append(header, name)
		fields = append(fields, i)
	}
	var mapKeys []string
	if mapField >= 0 {
		keys := make(map[string]bool)
		for i := 0; i < sv.Len(); i++ {
			for _, k := range sv.Index(i).Field(mapField).MapKeys() {
				keys[k.String()] = true
			}
		}
		mapKeys = sortedKeys(keys)
	}

	row := sheet.AddRow()
	for _, h := range append(header, mapKeys...) {
		row.AddCell().SetString(h)
	}
	for i := 0; i < sv.Len(); i++ {
		ev := sv.Index(i)
		row := sheet.AddRow()
		for _, f := range fields {
			fv := ev.Field(f)
			switch fv.Kind() {
			case reflect.String:
				row.AddCell().SetString(fv.String())
			case reflect.Float64:
				row.AddCell().SetFloat(fv.Float())
			}
		}
		if mapField < 0 {
			continue
		}
		m := ev.Field(mapField).Interface().(map[string]float64)
		for _, k := range mapKeys {
			c := row.AddCell()
			if v, ok := m[k]; ok {
				c.SetFloat(v)
			}
		}
	}
}

// WriteSpreadsheet writes d to an xlsx file in the format read by
// ReadSpreadsheet.
func WriteSpreadsheet(filename string, d *Data) error {
	f := xlsx.NewFile()
	sheets := []struct {
		name string
		src  interface{}
	}{
		{CommoditySheet, d.Commodities},
		{ProcessSheet, d.Processes},
		{ProcessCommoditySheet, d.ProcessCommodities},
		{TimeSheet, d.Time},
		{AreaDemandSheet, d.AreaDemand},
		{VertexSheet, d.Vertices},
		{EdgeSheet, d.Edges},
	}
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		if err != nil {
			return fmt.Errorf("rivus: writing spreadsheet: %v", err)
		}
		encodeSheet(sheet, s.src)
	}
	if err := f.Save(filename); err != nil {
		return fmt.Errorf("rivus: writing spreadsheet: %v", err)
	}
	return nil
}

// trimField removes the padding around a dBase attribute value.
func trimField(s string) string { return strings.Trim(s, " \t\x00") }

// vertexID normalizes a vertex ID read from a shapefile, where IDs are
// often stored in numeric columns: "3.000" becomes "3".
func vertexID(s string) string {
	s = trimField(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

// shapeFields returns the names of the attribute fields of d.
func shapeFields(d *shp.Decoder) []string {
	fields := d.Fields()
	o := make([]string, len(fields))
	for i, f := range fields {
		o[i] = strings.TrimRight(string(f.Name[:]), "\x00")
	}
	return o
}

// matchFields returns the fields among available that match the
// wanted names, ignoring case. The returned names are spelled as in
// wanted.
func matchFields(available, wanted []string) []string {
	var o []string
	for _, w := range wanted {
		for _, a := range available {
			if strings.EqualFold(a, w) {
				o = append(o, w)
				break
			}
		}
	}
	return o
}

// ReadVertexShapefile reads the network vertices from a point
// shapefile with a Vertex column. Each column named after one of the
// given commodities holds the source capacity of that commodity.
func ReadVertexShapefile(filename string, commodities []string) ([]Vertex, error) {
	f, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("rivus: opening vertex shapefile: %v", err)
	}
	defer f.Close()
	sources := matchFields(shapeFields(f), commodities)
	var vertices []Vertex
	for {
		_, fields, more := f.DecodeRowFields(append([]string{"Vertex"}, sources...)...)
		if !more || f.Error() != nil {
			break
		}
		v := Vertex{ID: vertexID(fields["Vertex"])}
		if len(sources) > 0 {
			v.Source = make(map[string]float64, len(sources))
		}
		for _, co := range sources {
			s := trimField(fields[co])
			if s == "" {
				continue
			}
			if v.Source[co], err = cast.ToFloat64E(s); err != nil {
				return nil, fmt.Errorf("rivus: vertex shapefile row %d: column %s: %v", len(vertices), co, err)
			}
		}
		vertices = append(vertices, v)
	}
	if err := f.Error(); err != nil {
		return nil, fmt.Errorf("rivus: reading vertex shapefile %s: %v", filename, err)
	}
	return vertices, nil
}

// ReadEdgeShapefile reads the network edges from a polyline shapefile
// with Vertex1 and Vertex2 columns. Each column named after one of the
// given area types holds the area of that type supplied by the edge.
// Edge lengths are calculated from the geometry; see LineLength. The
// geometries are returned in the same order as the edges.
func ReadEdgeShapefile(filename string, areas []string, geographic bool) ([]Edge, []geom.MultiLineString, error) {
	f, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("rivus: opening edge shapefile: %v", err)
	}
	defer f.Close()
	areaFields := matchFields(shapeFields(f), areas)
	var edges []Edge
	var geoms []geom.MultiLineString
	for {
		g, fields, more := f.DecodeRowFields(append([]string{"Vertex1", "Vertex2"}, areaFields...)...)
		if !more || f.Error() != nil {
			break
		}
		ml, ok := g.(geom.MultiLineString)
		if !ok {
			return nil, nil, fmt.Errorf("rivus: edge shapefile row %d: geometry must be a polyline, not %T", len(edges), g)
		}
		e := Edge{
			V1:     vertexID(fields["Vertex1"]),
			V2:     vertexID(fields["Vertex2"]),
			Length: MultiLineLength(ml, geographic),
			Areas:  make(map[string]float64, len(areaFields)),
		}
		for _, a := range areaFields {
			s := trimField(fields[a])
			if s == "" {
				continue
			}
			if e.Areas[a], err = cast.ToFloat64E(s); err != nil {
				return nil, nil, fmt.Errorf("rivus: edge shapefile row %d: column %s: %v", len(edges), a, err)
			}
		}
		edges = append(edges, e)
		geoms = append(geoms, ml)
	}
	if err := f.Error(); err != nil {
		return nil, nil, fmt.Errorf("rivus: reading edge shapefile %s: %v", filename, err)
	}
	return edges, geoms, nil
}

// AreaTypes returns the area types named in the area-demand table, in
// order of first appearance.
func (d *Data) AreaTypes() []string {
	var o []string
	seen := make(map[string]bool)
	for _, a := range d.AreaDemand {
		if !seen[a.Area] {
			seen[a.Area] = true
			o = append(o, a.Area)
		}
	}
	return o
}

// CommodityNames returns the names of the commodities in table order.
func (d *Data) CommodityNames() []string {
	o := make([]string, len(d.Commodities))
	for i, c := range d.Commodities {
		o[i] = c.Name
	}
	return o
}
