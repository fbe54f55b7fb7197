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
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rivus"
	"github.com/spatialmodel/rivus/internal/postgres"
	"github.com/spatialmodel/rivus/solver/cbc"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// connectRetries is the number of times connecting to the database is
// retried.
const connectRetries = 5

// Inputs holds the locations of the input data.
type Inputs struct {
	// Data is the input spreadsheet.
	Data string

	// VertexShapefile and EdgeShapefile, if set, replace the Vertex
	// and Edge sheets of Data.
	VertexShapefile, EdgeShapefile string

	// Geographic specifies whether the edge shapefile coordinates are
	// longitude and latitude.
	Geographic bool
}

// Outputs holds the locations that results are written to. Empty
// locations are skipped.
type Outputs struct {
	LPFile, ReportFile, ResultShapefile, SnapshotFile string
}

// InputConfig returns the input locations from a viper configuration,
// expanding any environment variables and checking that the files exist.
func InputConfig(cfg *viper.Viper) (Inputs, error) {
	var in Inputs
	var err error
	if in.Data, err = checkInputFile("data", cfg.GetString("data")); err != nil {
		return in, err
	}
	if in.Data == "" {
		return in, fmt.Errorf(`you need to specify an input data configuration variable (for example: data="rivus.xlsx")`)
	}
	if in.VertexShapefile, err = checkInputFile("vertex_shapefile", cfg.GetString("vertex_shapefile")); err != nil {
		return in, err
	}
	if in.EdgeShapefile, err = checkInputFile("edge_shapefile", cfg.GetString("edge_shapefile")); err != nil {
		return in, err
	}
	in.Geographic = cfg.GetBool("geographic")
	return in, nil
}

// BuildConfig returns the model building options from a viper
// configuration.
func BuildConfig(cfg *viper.Viper) (rivus.BuildConfig, error) {
	var c rivus.BuildConfig
	var err error
	if c.HubRule, err = rivus.ParseHubRule(cfg.GetString("hub_rule")); err != nil {
		return c, fmt.Errorf("parsing build configuration: hub_rule: %v", err)
	}
	if c.FixedCosts, err = rivus.ParseFixedCostRule(cfg.GetString("fixed_cost_rule")); err != nil {
		return c, fmt.Errorf("parsing build configuration: fixed_cost_rule: %v", err)
	}
	c.PeakExpression = strings.TrimSpace(cfg.GetString("peak_multiplier"))
	if c.PeakExpression != "" {
		if _, err = rivus.ExpressionPeakMultiplier(c.PeakExpression); err != nil {
			return c, fmt.Errorf("parsing build configuration: peak_multiplier: %v", err)
		}
	}
	return c, nil
}

// OutputConfig returns the output locations from a viper configuration,
// expanding any environment variables and checking that the output
// directories exist.
func OutputConfig(cfg *viper.Viper) (Outputs, error) {
	var o Outputs
	var err error
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"lp_file", &o.LPFile},
		{"report_file", &o.ReportFile},
		{"result_shapefile", &o.ResultShapefile},
		{"snapshot_file", &o.SnapshotFile},
	} {
		if *f.dst, err = checkOutputFile(f.name, cfg.GetString(f.name)); err != nil {
			return o, err
		}
	}
	return o, nil
}

// SolverConfig returns a CBC solver that is restarted up to
// solver.retries times if the solver process fails.
func SolverConfig(cfg *viper.Viper) (*RetrySolver, error) {
	o := cbc.DefaultOptions()
	var err error
	if o.TimeLimit, err = parseDuration(cfg.Get("solver.time_limit")); err != nil {
		return nil, fmt.Errorf("parsing solver configuration: solver.time_limit: %v", err)
	}
	if o.TimeLimit < 0 {
		return nil, fmt.Errorf("parsing solver configuration: solver.time_limit=%v but should be >= 0", o.TimeLimit)
	}
	o.MIPGap = cfg.GetFloat64("solver.mip_gap")
	if o.MIPGap < 0 {
		return nil, fmt.Errorf("parsing solver configuration: solver.mip_gap=%g but should be >= 0", o.MIPGap)
	}
	o.Threads = cfg.GetInt("solver.threads")
	if o.Threads < 0 {
		return nil, fmt.Errorf("parsing solver configuration: solver.threads=%d but should be >= 0", o.Threads)
	}
	if o.LogFile, err = checkOutputFile("solver.log_file", cfg.GetString("solver.log_file")); err != nil {
		return nil, err
	}
	retries, err := cast.ToUint64E(cfg.Get("solver.retries"))
	if err != nil {
		return nil, fmt.Errorf("parsing solver configuration: solver.retries: %v", err)
	}
	path := os.ExpandEnv(cfg.GetString("solver.path"))
	if path == "" {
		return nil, fmt.Errorf("parsing solver configuration: solver.path is not specified")
	}
	s := cbc.New()
	s.Path = path
	s.Options = o
	return &RetrySolver{Solver: s, Retries: retries}, nil
}

// parseDuration parses v as a duration. Plain numbers are seconds.
func parseDuration(v interface{}) (time.Duration, error) {
	if f, err := cast.ToFloat64E(v); err == nil {
		return time.Duration(f * float64(time.Second)), nil
	}
	return cast.ToDurationE(v)
}

// SweepConfig returns the sweep file location and the number of
// workers from a viper configuration.
func SweepConfig(cfg *viper.Viper) (sweepFile string, workers int, err error) {
	if sweepFile, err = checkInputFile("sweep_file", cfg.GetString("sweep_file")); err != nil {
		return "", 0, err
	}
	if sweepFile == "" {
		return "", 0, fmt.Errorf(`you need to specify a sweep file configuration variable (for example: sweep_file="sweep.toml")`)
	}
	workers = cfg.GetInt("workers")
	if workers < 0 {
		return "", 0, fmt.Errorf("parsing sweep configuration: workers=%d but should be >= 0", workers)
	}
	return sweepFile, workers, nil
}

// checkInputFile expands any environment variables in f and makes sure
// the file exists if it is specified.
func checkInputFile(name, f string) (string, error) {
	if f == "" {
		return "", nil
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(f); err != nil {
		return f, fmt.Errorf("rivus: the %s file doesn't exist: %v", name, err)
	}
	return f, nil
}

// checkOutputFile expands any environment variables in f and makes sure
// its directory exists if it is specified.
func checkOutputFile(name, f string) (string, error) {
	if f == "" {
		return "", nil
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(filepath.Dir(f)); err != nil {
		return f, fmt.Errorf("rivus: the %s directory doesn't exist: %v", name, err)
	}
	return f, nil
}

// openStore connects to the database at url and creates any missing
// tables. The store is nil if url is empty. The returned function
// closes the connection.
func openStore(ctx context.Context, url string) (*postgres.Store, func(), error) {
	if url == "" {
		return nil, func() {}, nil
	}
	conn, err := postgres.Connect(ctx, os.ExpandEnv(url), connectRetries)
	if err != nil {
		return nil, nil, err
	}
	closeConn := func() {
		if err := conn.Close(ctx); err != nil {
			logrus.WithError(err).Warn("closing database connection")
		}
	}
	s := &postgres.Store{Conn: conn}
	if err := s.CreateSchema(ctx); err != nil {
		closeConn()
		return nil, nil, err
	}
	return s, closeConn, nil
}
