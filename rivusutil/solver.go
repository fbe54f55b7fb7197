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
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rivus/milp"
)

// RetrySolver restarts a solver with exponential backoff when it
// returns an error. A returned solution with a non-optimal status is
// not an error and is not retried.
type RetrySolver struct {
	Solver milp.Solver

	// Retries is the maximum number of restarts.
	Retries uint64

	// NewBackOff, if not nil, returns the policy that spaces the
	// restarts. The default is backoff.NewExponentialBackOff.
	NewBackOff func() backoff.BackOff

	// Log receives a message for each restart. The default is
	// logrus.StandardLogger().
	Log logrus.FieldLogger
}

// Solve implements milp.Solver.
func (s *RetrySolver) Solve(ctx context.Context, p *milp.Problem) (*milp.Solution, error) {
	var b backoff.BackOff
	if s.NewBackOff != nil {
		b = s.NewBackOff()
	} else {
		b = backoff.NewExponentialBackOff()
	}
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var sol *milp.Solution
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		var err error
		sol, err = s.Solver.Solve(ctx, p)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, s.Retries), ctx),
		func(err error, wait time.Duration) {
			log.WithError(err).WithFields(logrus.Fields{
				"attempt": attempt,
				"wait":    wait,
			}).Warn("solver failed, restarting")
		})
	if err != nil {
		return nil, err
	}
	return sol, nil
}
