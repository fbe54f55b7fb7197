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
	"errors"
	"io/ioutil"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rivus/milp"
)

// flakySolver fails the given number of times before succeeding.
type flakySolver struct {
	failures, calls int
	status          milp.Status
}

func (s *flakySolver) Solve(ctx context.Context, p *milp.Problem) (*milp.Solution, error) {
	s.calls++
	if s.calls <= s.failures {
		return nil, errors.New("cbc: exit status 139")
	}
	return &milp.Solution{Status: s.status}, nil
}

func TestRetrySolver(t *testing.T) {
	log := logrus.New()
	log.Out = ioutil.Discard
	noWait := func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	tests := []struct {
		name      string
		failures  int
		retries   uint64
		status    milp.Status
		calls     int
		err       bool
		cancelled bool
	}{
		{name: "no failures", retries: 2, status: milp.Optimal, calls: 1},
		{name: "recovers", failures: 2, retries: 2, status: milp.Optimal, calls: 3},
		{name: "gives up", failures: 3, retries: 2, calls: 3, err: true},
		{name: "infeasible is not retried", retries: 2, status: milp.Infeasible, calls: 1},
		{name: "cancelled", failures: 5, retries: 5, calls: 1, err: true, cancelled: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs := &flakySolver{failures: test.failures, status: test.status}
			s := &RetrySolver{Solver: fs, Retries: test.retries, NewBackOff: noWait, Log: log}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if test.cancelled {
				cancel()
			}
			sol, err := s.Solve(ctx, milp.NewProblem("test"))
			if fs.calls != test.calls {
				t.Errorf("calls: have %d, want %d", fs.calls, test.calls)
			}
			if test.err {
				if err == nil {
					t.Error("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if sol.Status != test.status {
				t.Errorf("status: have %v, want %v", sol.Status, test.status)
			}
		})
	}
}
