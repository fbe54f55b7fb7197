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

package rivusutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spatialmodel/rivus"
	"github.com/spatialmodel/rivus/milp"
)

// testData returns two vertices connected by one 100 m edge with a
// peak Heat demand of 500 kW, which vertex 1 can supply.
func testData() *rivus.Data {
	return &rivus.Data{
		Commodities: []rivus.Commodity{
			{Name: "Heat", CapMax: 10000, CostInvFix: 10, CostInvVar: 1, CostFix: 0.1, CostVar: 0.05},
		},
		Time: []rivus.TimeStep{
			{Name: "t1", Weight: 8760, Scale: map[string]float64{"scale": 1}},
		},
		AreaDemand: []rivus.AreaDemand{
			{Area: "residential", Commodity: "Heat", Peak: 0.01, Demand: 20},
		},
		Vertices: []rivus.Vertex{
			{ID: "1", Source: map[string]float64{"Heat": 1000}},
			{ID: "2"},
		},
		Edges: []rivus.Edge{
			{V1: "1", V2: "2", Areas: map[string]float64{"residential": 50000}, Length: 100},
		},
	}
}

// writeData writes testData to a spreadsheet in dir and returns the
// inputs that read it.
func writeData(t *testing.T, dir string) Inputs {
	filename := filepath.Join(dir, "data.xlsx")
	if err := rivus.WriteSpreadsheet(filename, testData()); err != nil {
		t.Fatal(err)
	}
	return Inputs{Data: filename}
}

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "rivusutil")
	if err != nil {
		t.Fatal(err)
	}
	return dir
}

// assignSolver returns a solution where the named variables, e.g.
// "Pmax(1,2,Heat)", take the given values and all others are zero.
type assignSolver struct {
	vals       map[string]float64
	infeasible bool
}

func (s assignSolver) Solve(ctx context.Context, p *milp.Problem) (*milp.Solution, error) {
	if s.infeasible {
		return &milp.Solution{Status: milp.Infeasible}, nil
	}
	x := make([]float64, p.NumVars())
	for name, v := range s.vals {
		i := strings.Index(name, "(")
		vs := p.VarSet(name[:i])
		if vs == nil {
			return nil, fmt.Errorf("no variable set %s", name[:i])
		}
		vr, ok := vs.Get(strings.Split(strings.TrimSuffix(name[i+1:], ")"), ",")...)
		if !ok {
			return nil, fmt.Errorf("no variable %s", name)
		}
		x[vr] = v
	}
	obj, _ := p.Objective()
	return &milp.Solution{Status: milp.Optimal, Values: x, Objective: obj.Eval(x)}, nil
}

var heatSolver = assignSolver{vals: map[string]float64{
	"Rho(1,Heat,t1)":   500,
	"Pin(1,2,Heat,t1)": 500,
	"Pmax(1,2,Heat)":   500,
	"Xi(1,2,Heat)":     1,
}}

func TestVersion(t *testing.T) {
	var buf bytes.Buffer
	Root.SetOut(&buf)
	defer Root.SetOut(nil)
	Root.SetArgs([]string{"version"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	if want := "rivus v" + rivus.Version + "\n"; buf.String() != want {
		t.Errorf("have %q, want %q", buf.String(), want)
	}
}

func TestBuildCommand(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	in := writeData(t, dir)
	lpFile := filepath.Join(dir, "model.lp")

	Cfg.Set("data", in.Data)
	Cfg.Set("lp_file", lpFile)
	Cfg.Set("hub_rule", "three")
	defer func() {
		Cfg.Set("data", "")
		Cfg.Set("lp_file", "")
		Cfg.Set("hub_rule", "four")
	}()
	Root.SetArgs([]string{"build"})
	if err := Root.Execute(); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(lpFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Minimize", "Subject To", "End"} {
		if !strings.Contains(string(b), want) {
			t.Errorf("LP file is missing %q", want)
		}
	}
}

func TestSolve(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	in := writeData(t, dir)
	out := Outputs{
		LPFile:       filepath.Join(dir, "model.lp"),
		ReportFile:   filepath.Join(dir, "report.xlsx"),
		SnapshotFile: filepath.Join(dir, "run.gob.gz"),
	}
	if err := Solve(context.Background(), in, rivus.BuildConfig{}, heatSolver, out, nil, "test"); err != nil {
		t.Fatal(err)
	}
	pmax, err := rivus.ReadReportTable(out.ReportFile, "Pmax", 2)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := pmax.Get("Heat", "1", "2"); !ok || v != 500 {
		t.Errorf("Pmax: have %g, %v", v, ok)
	}
	if _, err := os.Stat(out.LPFile); err != nil {
		t.Error(err)
	}

	t.Run("analyze", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Analyze(&buf, out.SnapshotFile, nil); err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("have %d lines, want 2:\n%s", len(lines), buf.String())
		}
		want := []string{"Heat", "1", "1", "true", "true", "1"}
		if have := strings.Fields(lines[1]); !reflect.DeepEqual(have, want) {
			t.Errorf("have %v, want %v", have, want)
		}
	})
	t.Run("analyze unknown commodity", func(t *testing.T) {
		if err := Analyze(ioutil.Discard, out.SnapshotFile, []string{"Steam"}); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestSolveInfeasible(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	in := writeData(t, dir)
	out := Outputs{
		ReportFile:   filepath.Join(dir, "report.xlsx"),
		SnapshotFile: filepath.Join(dir, "run.gob.gz"),
	}
	err := Solve(context.Background(), in, rivus.BuildConfig{}, assignSolver{infeasible: true}, out, nil, "test")
	if !errors.Is(err, rivus.ErrNoSolution) {
		t.Errorf("have %v, want ErrNoSolution", err)
	}
	if _, err := os.Stat(out.SnapshotFile); err != nil {
		t.Errorf("the snapshot should be saved: %v", err)
	}
	if _, err := os.Stat(out.ReportFile); err == nil {
		t.Error("no report should be written")
	}
}

func TestSweep(t *testing.T) {
	dir := tempDir(t)
	defer os.RemoveAll(dir)
	in := writeData(t, dir)
	sweepFile := filepath.Join(dir, "sweep.toml")
	err := ioutil.WriteFile(sweepFile, []byte(`
[[range]]
table = "Commodity"
key = ["Heat"]
column = "cost-inv-fix"
lo = 0.9
up = 1.1
step = 0.1
`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	reportFile := filepath.Join(dir, "report.xlsx")
	var buf bytes.Buffer
	if err := Sweep(context.Background(), &buf, in, rivus.BuildConfig{}, heatSolver, sweepFile, 2, reportFile, nil, "test"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("have %d lines, want 3:\n%s", len(lines), buf.String())
	}
	for i, l := range lines[1:] {
		f := strings.Fields(l)
		if f[0] != fmt.Sprint(i) || f[2] != "optimal" {
			t.Errorf("line %d: %q", i, l)
		}
		if _, err := os.Stat(scenarioFile(reportFile, i)); err != nil {
			t.Error(err)
		}
	}

	t.Run("failure", func(t *testing.T) {
		var buf bytes.Buffer
		err := Sweep(context.Background(), &buf, in, rivus.BuildConfig{}, assignSolver{infeasible: true}, sweepFile, 1, "", nil, "test")
		if err == nil || err.Error() != "rivus: 2 of 2 scenarios failed" {
			t.Errorf("have %v", err)
		}
	})
}

func TestScenarioFile(t *testing.T) {
	if have := scenarioFile("out/report.xlsx", 3); have != "out/report_3.xlsx" {
		t.Errorf("have %s", have)
	}
	if have := scenarioFile("report", 0); have != "report_0" {
		t.Errorf("have %s", have)
	}
}
