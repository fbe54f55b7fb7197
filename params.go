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
	"reflect"
	"strings"
)

// tableKeys holds the key columns of each input table.
var tableKeys = map[string][]string{
	CommoditySheet:        {"Commodity"},
	ProcessSheet:          {"Process"},
	ProcessCommoditySheet: {"Process", "Commodity", "Direction"},
	TimeSheet:             {"Time"},
	AreaDemandSheet:       {"Area", "Commodity"},
	VertexSheet:           {"Vertex"},
	EdgeSheet:             {"Vertex1", "Vertex2"},
}

// table returns the rows of the input table with the given name, which
// is matched case-insensitively against the sheet names.
func (d *Data) table(name string) (rows reflect.Value, sheet string, err error) {
	dv := reflect.ValueOf(d).Elem()
	for _, t := range []struct {
		sheet string
		field string
	}{
		{CommoditySheet, "Commodities"},
		{ProcessSheet, "Processes"},
		{ProcessCommoditySheet, "ProcessCommodities"},
		{TimeSheet, "Time"},
		{AreaDemandSheet, "AreaDemand"},
		{VertexSheet, "Vertices"},
		{EdgeSheet, "Edges"},
	} {
		if strings.EqualFold(t.sheet, name) {
			return dv.FieldByName(t.field), t.sheet, nil
		}
	}
	return reflect.Value{}, "", fmt.Errorf("rivus: unknown table %q", name)
}

// columnField returns the index of the field of struct type t that holds
// column, or of its map field if no other field matches. isMap is true
// in the latter case.
func columnField(t reflect.Type, column string) (field int, isMap bool) {
	field = -1
	for i := 0; i < t.NumField(); i++ {
		tag, ok := t.Field(i).Tag.Lookup("rivus")
		if !ok {
			continue
		}
		if t.Field(i).Type.Kind() == reflect.Map {
			if field < 0 {
				field, isMap = i, true
			}
			continue
		}
		if name, _ := parseTag(tag); strings.EqualFold(name, column) {
			return i, false
		}
	}
	return field, isMap
}

// cell finds the row with the given key in a table and the field
// holding column.
func (d *Data) cell(table string, key []string, column string) (row reflect.Value, field int, isMap bool, err error) {
	rows, sheet, err := d.table(table)
	if err != nil {
		return reflect.Value{}, 0, false, err
	}
	keyCols := tableKeys[sheet]
	if len(key) != len(keyCols) {
		return reflect.Value{}, 0, false, fmt.Errorf("rivus: %s key %v: want %d values (%s)",
			sheet, key, len(keyCols), strings.Join(keyCols, ", "))
	}
	et := rows.Type().Elem()
	keyFields := make([]int, len(keyCols))
	for i, k := range keyCols {
		keyFields[i], _ = columnField(et, k)
	}
	field, isMap = columnField(et, column)
	if field < 0 {
		return reflect.Value{}, 0, false, fmt.Errorf("rivus: %s table has no column %s", sheet, column)
	}
	if !isMap {
		for _, kf := range keyFields {
			if kf == field {
				return reflect.Value{}, 0, false, fmt.Errorf("rivus: %s column %s is not a parameter", sheet, column)
			}
		}
	}
rowLoop:
	for i := 0; i < rows.Len(); i++ {
		r := rows.Index(i)
		for j, kf := range keyFields {
			if r.Field(kf).String() != key[j] {
				continue rowLoop
			}
		}
		return r, field, isMap, nil
	}
	return reflect.Value{}, 0, false, fmt.Errorf("rivus: %s table has no row %v", sheet, key)
}

// Param returns the value of a parameter in an input table. table is a
// sheet name such as "Commodity", key holds the values of the table's
// key columns (for example Process, Commodity and Direction for the
// Process-Commodity table) and column is the column name. Columns that
// are held in a map, such as per-commodity time scales or edge areas,
// are zero when they are not set.
func (d *Data) Param(table string, key []string, column string) (float64, error) {
	row, field, isMap, err := d.cell(table, key, column)
	if err != nil {
		return 0, err
	}
	if isMap {
		m := row.Field(field).Interface().(map[string]float64)
		return m[column], nil
	}
	return row.Field(field).Float(), nil
}

// SetParam changes the value of a parameter in an input table; see
// Param. Maps are modified in place, so callers that need the original
// should work on a Clone.
func (d *Data) SetParam(table string, key []string, column string, value float64) error {
	row, field, isMap, err := d.cell(table, key, column)
	if err != nil {
		return err
	}
	if isMap {
		fv := row.Field(field)
		if fv.IsNil() {
			fv.Set(reflect.ValueOf(make(map[string]float64)))
		}
		fv.SetMapIndex(reflect.ValueOf(column), reflect.ValueOf(value))
		return nil
	}
	row.Field(field).SetFloat(value)
	return nil
}
