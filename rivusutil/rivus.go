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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/ctessum/geom"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rivus"
	"github.com/spatialmodel/rivus/internal/postgres"
	"github.com/spatialmodel/rivus/milp"
	"github.com/spatialmodel/rivus/sweep"
)

// Load reads the input data. The edge geometries are returned if the
// edges are read from a shapefile.
func (in Inputs) Load() (*rivus.Data, []geom.MultiLineString, error) {
	d, err := rivus.ReadSpreadsheet(in.Data)
	if err != nil {
		return nil, nil, err
	}
	if in.VertexShapefile != "" {
		if d.Vertices, err = rivus.ReadVertexShapefile(in.VertexShapefile, d.CommodityNames()); err != nil {
			return nil, nil, err
		}
	}
	var geometries []geom.MultiLineString
	if in.EdgeShapefile != "" {
		if d.Edges, geometries, err = rivus.ReadEdgeShapefile(in.EdgeShapefile, d.AreaTypes(), in.Geographic); err != nil {
			return nil, nil, err
		}
	}
	logrus.WithFields(logrus.Fields{
		"vertices": len(d.Vertices),
		"edges":    len(d.Edges),
	}).Info("read input data")
	return d, geometries, nil
}

// Build reads the input data, builds the model, and writes it to lpFile
// in LP format if lpFile is not empty.
func Build(in Inputs, cfg rivus.BuildConfig, lpFile string) (*rivus.Model, error) {
	d, _, err := in.Load()
	if err != nil {
		return nil, err
	}
	m, err := rivus.Build(d, cfg)
	if err != nil {
		return nil, err
	}
	if lpFile != "" {
		if err := writeFile(lpFile, m.WriteLP); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// writeFile creates the named file and writes to it with write.
func writeFile(filename string, write func(io.Writer) error) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("rivus: %v", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Solve reads the input data, builds and solves the model, and writes
// the results to the given outputs. If store is not nil, the run is
// stored in the database under the name runner.
func Solve(ctx context.Context, in Inputs, cfg rivus.BuildConfig, solver milp.Solver, out Outputs, store *postgres.Store, runner string) error {
	d, geometries, err := in.Load()
	if err != nil {
		return err
	}
	m, err := rivus.Build(d, cfg)
	if err != nil {
		return err
	}
	if out.LPFile != "" {
		if err := writeFile(out.LPFile, m.WriteLP); err != nil {
			return err
		}
	}
	sol, err := solver.Solve(ctx, m.Problem)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"status":    sol.Status,
		"objective": sol.Objective,
	}).Info("solved model")
	if out.SnapshotFile != "" {
		if err := writeFile(out.SnapshotFile, func(w io.Writer) error { return rivus.Save(w, m, sol) }); err != nil {
			return err
		}
	}
	r, resultErr := rivus.NewResult(m, sol)
	if store != nil {
		if err := storeRun(ctx, store, runner, d, r, sol); err != nil {
			return err
		}
	}
	if resultErr != nil {
		return resultErr
	}
	if out.ReportFile != "" {
		if err := rivus.WriteReport(out.ReportFile, r); err != nil {
			return err
		}
	}
	if out.ResultShapefile != "" {
		if err := rivus.WriteEdgeShapefile(out.ResultShapefile, r, geometries); err != nil {
			return err
		}
	}
	return nil
}

// storeRun stores the parameters of a run and, if r is not nil, its
// results.
func storeRun(ctx context.Context, s *postgres.Store, runner string, d *rivus.Data, r *rivus.Result, sol *milp.Solution) error {
	runID, err := s.InitRun(ctx, postgres.Run{Runner: runner, Label: uuid.New()})
	if err != nil {
		return err
	}
	if err := s.StoreParams(ctx, runID, d); err != nil {
		s.FinishRun(ctx, runID, postgres.StatusFailed, postgres.OutcomeNotRun)
		return err
	}
	outcome := postgres.OutcomeNotRun
	if sol != nil {
		outcome = sol.Status.String()
	}
	if r != nil {
		if err := s.StoreResults(ctx, runID, r); err != nil {
			s.FinishRun(ctx, runID, postgres.StatusFailed, outcome)
			return err
		}
	}
	return s.FinishRun(ctx, runID, postgres.StatusFinished, outcome)
}

// scenarioFile adds the scenario number i to filename, before its
// extension.
func scenarioFile(filename string, i int) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("%s_%d%s", strings.TrimSuffix(filename, ext), i, ext)
}

// Sweep reads the input data and the ranges in sweepFile, and builds
// and solves every scenario with up to workers scenarios at a time.
// A summary line for each scenario is written to w. If reportFile is
// not empty, a report is written for each solved scenario, with the
// scenario number added to the file name. If store is not nil, each
// scenario is stored as a run. An error is returned if any scenario
// fails.
func Sweep(ctx context.Context, w io.Writer, in Inputs, cfg rivus.BuildConfig, solver milp.Solver, sweepFile string, workers int, reportFile string, store *postgres.Store, runner string) error {
	d, _, err := in.Load()
	if err != nil {
		return err
	}
	f, err := sweep.ReadFile(sweepFile)
	if err != nil {
		return err
	}
	scenarios, err := f.Scenarios(d)
	if err != nil {
		return err
	}
	r := &sweep.Runner{Config: cfg, Solver: solver, Workers: workers}
	outcomes := r.Run(ctx, scenarios)

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tscenario\tstatus\tobjective")
	failed := 0
	for i, o := range outcomes {
		status, objective := "error", "-"
		if o.Solution != nil {
			status = o.Solution.Status.String()
			objective = fmt.Sprintf("%g", o.Solution.Objective)
		}
		var res *rivus.Result
		if o.Err == nil {
			res, o.Err = rivus.NewResult(o.Model, o.Solution)
		}
		if store != nil {
			if err := storeRun(ctx, store, runner, o.Scenario.Data, res, o.Solution); err != nil {
				return err
			}
		}
		if o.Err != nil {
			failed++
			logrus.WithError(o.Err).WithField("scenario", o.Scenario.Name).Error("scenario failed")
		} else if reportFile != "" {
			if err := rivus.WriteReport(scenarioFile(reportFile, i), res); err != nil {
				return err
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i, o.Scenario.Name, status, objective)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("rivus: %d of %d scenarios failed", failed, len(outcomes))
	}
	return nil
}

// Analyze reads a snapshot saved by Solve and writes a report on the
// networks of the given commodities to w. If commodities is empty, all
// transportable commodities are analyzed.
func Analyze(w io.Writer, snapshotFile string, commodities []string) error {
	f, err := os.Open(snapshotFile)
	if err != nil {
		return fmt.Errorf("rivus: %v", err)
	}
	defer f.Close()
	m, sol, err := rivus.Load(f, rivus.BuildConfig{})
	if err != nil {
		return err
	}
	r, err := rivus.NewResult(m, sol)
	if err != nil {
		return err
	}
	reports, err := rivus.AnalyzeNetworks(r, commodities)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "commodity\tedges\tcomponents\tconnected\tminimal\tspanning weight")
	for _, rep := range reports {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%v\t%v\t%g\n", rep.Commodity, rep.Edges,
			rep.Components, rep.Connected, rep.Minimal, rep.SpanningWeight)
	}
	return tw.Flush()
}
