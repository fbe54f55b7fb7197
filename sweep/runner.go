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

package sweep

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rivus"
	"github.com/spatialmodel/rivus/internal/hash"
	"github.com/spatialmodel/rivus/milp"
)

// Outcome is the outcome of a scenario.
type Outcome struct {
	Scenario Scenario

	// Key identifies the contents of the scenario. Scenarios with equal
	// data and build options have equal keys and share their outcome.
	Key string

	Model *rivus.Model

	// Solution is nil if the Runner has no Solver.
	Solution *milp.Solution

	Err error
}

// Runner builds, and optionally solves, scenarios in parallel.
type Runner struct {
	Config rivus.BuildConfig

	// Solver, if not nil, is used to solve each model.
	Solver milp.Solver

	// Workers is the number of scenarios processed at once. The default
	// is the number of CPUs.
	Workers int

	// Log receives progress messages. The default is
	// logrus.StandardLogger().
	Log logrus.FieldLogger

	once  sync.Once
	cache *requestcache.Cache
}

type result struct {
	model    *rivus.Model
	solution *milp.Solution
	err      error
}

func (r *Runner) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

func (r *Runner) init() {
	r.once.Do(func() {
		workers := r.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(-1)
		}
		r.cache = requestcache.NewCache(r.process, workers, requestcache.Memory(100))
	})
}

// process builds and solves the scenario in req. Failures are returned
// inside the result so that they are cached like successes, except for
// solves stopped by ctx, which are returned as errors and not cached.
func (r *Runner) process(ctx context.Context, req interface{}) (interface{}, error) {
	s := req.(Scenario)
	log := r.log().WithField("scenario", s.Name)
	cfg := r.Config
	cfg.Log = log
	m, err := rivus.Build(s.Data, cfg)
	if err != nil {
		return &result{err: fmt.Errorf("sweep: scenario %s: %v", s.Name, err)}, nil
	}
	res := &result{model: m}
	if r.Solver == nil {
		return res, nil
	}
	if res.solution, err = r.Solver.Solve(ctx, m.Problem); err != nil {
		err = fmt.Errorf("sweep: scenario %s: %w", s.Name, err)
		if ctx.Err() != nil {
			return nil, err
		}
		return &result{model: m, err: err}, nil
	}
	log.WithField("status", res.solution.Status).Info("solved scenario")
	return res, nil
}

// Key returns the content key of s under the build options of r.
func (r *Runner) Key(s Scenario) string {
	return hash.Key(s.Data, r.Config.HubRule, r.Config.FixedCosts, r.Config.PeakExpression)
}

// Run processes the scenarios and returns their outcomes in the same
// order. Scenarios with equal keys are processed once and share their
// Model and Solution. Failed scenarios have a non-nil Err; they do not
// stop the others. Custom PeakMultiplier functions are not part of the
// scenario key, so all scenarios of one Runner must use the same one.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) []Outcome {
	r.init()
	o := make([]Outcome, len(scenarios))
	first := make(map[string]int) // first scenario with each key
	var unique []int
	for i, s := range scenarios {
		o[i] = Outcome{Scenario: s, Key: r.Key(s)}
		if _, ok := first[o[i].Key]; !ok {
			first[o[i].Key] = i
			unique = append(unique, i)
		}
	}

	results := make([]*result, len(scenarios))
	var wg sync.WaitGroup
	wg.Add(len(unique))
	for _, i := range unique {
		go func(i int) {
			defer wg.Done()
			resI, err := r.cache.NewRequest(ctx, scenarios[i], o[i].Key).Result()
			if err != nil {
				results[i] = &result{err: err}
				return
			}
			results[i] = resI.(*result)
		}(i)
	}
	wg.Wait()

	failed := 0
	for i := range o {
		res := results[first[o[i].Key]]
		o[i].Model = res.model
		o[i].Solution = res.solution
		o[i].Err = res.err
		if res.err != nil {
			failed++
		}
	}
	r.log().WithFields(logrus.Fields{
		"scenarios": len(scenarios),
		"unique":    len(unique),
		"failed":    failed,
	}).Info("sweep finished")
	return o
}
