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

// Package cbc solves milp problems with the COIN-OR Branch and Cut
// (CBC) command line solver.
package cbc

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rivus/milp"
)

// Options holds solver settings.
type Options struct {
	// TimeLimit is the maximum time the solver may run for. Zero means
	// no limit. When the limit is reached, the best solution found so
	// far, if any, is returned with status milp.TimeLimit.
	TimeLimit time.Duration

	// MIPGap is the relative gap between the best solution and the best
	// bound at which the solver stops.
	MIPGap float64

	// Threads is the number of solver threads. Zero lets the solver
	// decide. Values above the number of CPUs are reduced to it.
	Threads int

	// LogFile, if not empty, receives the solver output.
	LogFile string
}

// DefaultOptions returns the default solver options.
func DefaultOptions() Options {
	return Options{
		TimeLimit: 12000 * time.Second,
		MIPGap:    0.001,
	}
}

// threads returns the number of threads to request.
func (o Options) threads() int {
	if n := runtime.NumCPU(); o.Threads > n {
		return n
	}
	return o.Threads
}

// args returns the command line arguments for solving lpFile and
// writing the solution to solFile.
func (o Options) args(lpFile, solFile string) []string {
	args := []string{lpFile}
	if o.TimeLimit > 0 {
		args = append(args, "-sec", strconv.FormatFloat(o.TimeLimit.Seconds(), 'g', -1, 64))
	}
	if o.MIPGap > 0 {
		args = append(args, "-ratioGap", strconv.FormatFloat(o.MIPGap, 'g', -1, 64))
	}
	if n := o.threads(); n > 0 {
		args = append(args, "-threads", strconv.Itoa(n))
	}
	return append(args, "-solve", "-solution", solFile)
}

// Solver runs the cbc executable. It implements milp.Solver.
type Solver struct {
	// Path is the location of the cbc executable. If it is empty, cbc is
	// looked up in the PATH.
	Path string

	Options Options

	// TempDir is where the LP and solution files are written. The
	// default is the system temporary directory.
	TempDir string

	// Log receives progress messages. The default is
	// logrus.StandardLogger().
	Log logrus.FieldLogger
}

// New returns a solver with the default options.
func New() *Solver {
	return &Solver{Options: DefaultOptions()}
}

func (s *Solver) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// Solve writes p to an LP file, runs cbc on it and reads the solution.
// An error is returned if cbc could not be run or its solution file
// could not be read.
func (s *Solver) Solve(ctx context.Context, p *milp.Problem) (*milp.Solution, error) {
	path := s.Path
	if path == "" {
		path = "cbc"
	}
	dir, err := ioutil.TempDir(s.TempDir, "rivus_cbc")
	if err != nil {
		return nil, fmt.Errorf("cbc: %v", err)
	}
	defer os.RemoveAll(dir)
	lpFile := filepath.Join(dir, "problem.lp")
	solFile := filepath.Join(dir, "problem.sol")

	f, err := os.Create(lpFile)
	if err != nil {
		return nil, fmt.Errorf("cbc: %v", err)
	}
	if err := milp.WriteLP(f, p); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("cbc: %v", err)
	}

	cmd := exec.CommandContext(ctx, path, s.Options.args(lpFile, solFile)...)
	var out io.Writer = ioutil.Discard
	if s.Options.LogFile != "" {
		lf, err := os.Create(s.Options.LogFile)
		if err != nil {
			return nil, fmt.Errorf("cbc: creating log file: %v", err)
		}
		defer lf.Close()
		out = lf
	}
	cmd.Stdout = out
	cmd.Stderr = out

	s.log().WithFields(logrus.Fields{
		"problem":     p.Name,
		"variables":   p.NumVars(),
		"constraints": p.NumConstraints(),
		"threads":     s.Options.threads(),
	}).Info("starting cbc")
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("cbc: %v", ctx.Err())
		}
		return nil, fmt.Errorf("cbc: running %s: %v", path, err)
	}

	sf, err := os.Open(solFile)
	if err != nil {
		return nil, fmt.Errorf("cbc: reading solution: %v", err)
	}
	defer sf.Close()
	sol, err := ReadSolution(sf, milp.LPNames(p))
	if err != nil {
		return nil, err
	}
	if sol.Values != nil {
		obj, _ := p.Objective()
		sol.Objective = obj.Eval(sol.Values)
	}
	s.log().WithFields(logrus.Fields{
		"status":    sol.Status,
		"objective": sol.Objective,
		"duration":  time.Since(start).Round(time.Millisecond),
	}).Info("cbc finished")
	return sol, nil
}
