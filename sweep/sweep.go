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

// Package sweep creates and runs scenarios in which one input parameter
// is varied over a range.
package sweep

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spatialmodel/rivus"
)

// Default proportions of the original parameter value.
const (
	DefaultLo   = 0.9
	DefaultUp   = 1.1
	DefaultStep = 0.05
)

// Range varies a parameter of an input table. Lo, Up and Step are
// proportions of the original value; the values of the range are
// Lo·original, (Lo+Step)·original, ... up to but not including
// Up·original.
type Range struct {
	// Table is the name of the input table, e.g. "Commodity".
	Table string `toml:"table"`

	// Key holds the values of the key columns of the row, e.g.
	// ["Boiler", "CO2", "Out"] for the Process-Commodity table.
	Key []string `toml:"key"`

	// Column is the name of the parameter column, e.g. "cost-inv-fix".
	Column string `toml:"column"`

	// Lo, Up and Step default to DefaultLo, DefaultUp and DefaultStep
	// when nil.
	Lo   *float64 `toml:"lo"`
	Up   *float64 `toml:"up"`
	Step *float64 `toml:"step"`

	// ZeroRoot, if not nil, replaces an original value of zero, for
	// which proportional ranges would be empty.
	ZeroRoot *float64 `toml:"zero_root"`
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func (r Range) String() string {
	return fmt.Sprintf("%s%v:%s", r.Table, r.Key, r.Column)
}

// Values returns the values of r for a parameter whose original value
// is original. If original is zero and ZeroRoot is nil, the only value
// is zero.
func (r Range) Values(original float64) ([]float64, error) {
	if original == 0 {
		if r.ZeroRoot == nil {
			return []float64{0}, nil
		}
		original = *r.ZeroRoot
	}
	lo := orDefault(r.Lo, DefaultLo) * original
	up := orDefault(r.Up, DefaultUp) * original
	step := orDefault(r.Step, DefaultStep) * original
	if step == 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return nil, fmt.Errorf("sweep: %s: invalid step %g", r, step)
	}
	// The tolerance keeps rounding errors from adding a value at up.
	n := int(math.Ceil((up-lo)/step - 1e-9))
	if n <= 0 {
		return nil, fmt.Errorf("sweep: %s: range from %g to %g by %g is empty", r, lo, up, step)
	}
	o := make([]float64, n)
	for i := range o {
		o[i] = lo + float64(i)*step
	}
	return o, nil
}

// Scenario is a variant of the input data.
type Scenario struct {
	// Name identifies the scenario, e.g. "Commodity[Heat]:cost-fix=0.1".
	Name  string
	Range Range
	Value float64
	Data  *rivus.Data
}

// Scenarios returns one scenario for each value of r. Each scenario
// holds its own copy of d; d is not modified.
func (r Range) Scenarios(d *rivus.Data) ([]Scenario, error) {
	original, err := d.Param(r.Table, r.Key, r.Column)
	if err != nil {
		return nil, fmt.Errorf("sweep: %v", err)
	}
	vals, err := r.Values(original)
	if err != nil {
		return nil, err
	}
	o := make([]Scenario, len(vals))
	for i, v := range vals {
		c := d.Clone()
		if err := c.SetParam(r.Table, r.Key, r.Column, v); err != nil {
			return nil, fmt.Errorf("sweep: %v", err)
		}
		o[i] = Scenario{
			Name:  r.String() + "=" + strconv.FormatFloat(v, 'g', 6, 64),
			Range: r,
			Value: v,
			Data:  c,
		}
	}
	return o, nil
}

// File is the contents of a sweep file, e.g.:
//
//	[[range]]
//	table = "Commodity"
//	key = ["Heat"]
//	column = "cost-inv-fix"
//	lo = 0.5
//	up = 1.6
//	step = 0.5
type File struct {
	Ranges []Range `toml:"range"`
}

// ReadFile reads a sweep file in TOML format.
func ReadFile(filename string) (*File, error) {
	f := new(File)
	md, err := toml.DecodeFile(filename, f)
	if err != nil {
		return nil, fmt.Errorf("sweep: reading %s: %v", filename, err)
	}
	if u := md.Undecoded(); len(u) > 0 {
		keys := make([]string, len(u))
		for i, k := range u {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("sweep: reading %s: unknown keys %s", filename, strings.Join(keys, ", "))
	}
	if len(f.Ranges) == 0 {
		return nil, fmt.Errorf("sweep: reading %s: no ranges", filename)
	}
	return f, nil
}

// Scenarios returns the scenarios of all ranges in f, in order.
func (f *File) Scenarios(d *rivus.Data) ([]Scenario, error) {
	var o []Scenario
	for _, r := range f.Ranges {
		s, err := r.Scenarios(d)
		if err != nil {
			return nil, err
		}
		o = append(o, s...)
	}
	return o, nil
}
