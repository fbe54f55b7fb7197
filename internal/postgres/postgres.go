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

// Package postgres stores model inputs and results in a PostgreSQL
// database so that the outcomes of many runs can be compared.
package postgres

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rivus"
)

// Conn is the part of *pgx.Conn that Store uses.
type Conn interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Connect connects to the database at url, retrying with exponential
// backoff up to maxRetries times while the database is not reachable.
func Connect(ctx context.Context, url string, maxRetries uint64) (*pgx.Conn, error) {
	var conn *pgx.Conn
	err := backoff.Retry(func() error {
		var err error
		conn, err = pgx.Connect(ctx, url)
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx))
	if err != nil {
		return nil, fmt.Errorf("postgres: connecting: %v", err)
	}
	return conn, nil
}

// Schema holds the statements that create the tables used by Store.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS run (
		run_id   BIGSERIAL PRIMARY KEY,
		runner   TEXT NOT NULL,
		start_ts TIMESTAMP NOT NULL,
		end_ts   TIMESTAMP,
		status   TEXT NOT NULL,
		outcome  TEXT NOT NULL,
		label    UUID NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS commodity (
		run_id       BIGINT REFERENCES run ON DELETE CASCADE,
		commodity    TEXT,
		loss_fix     DOUBLE PRECISION,
		loss_var     DOUBLE PRECISION,
		cap_max      DOUBLE PRECISION,
		cost_inv_fix DOUBLE PRECISION,
		cost_inv_var DOUBLE PRECISION,
		cost_fix     DOUBLE PRECISION,
		cost_var     DOUBLE PRECISION,
		allowed_max  DOUBLE PRECISION,
		PRIMARY KEY (run_id, commodity)
	)`,
	`CREATE TABLE IF NOT EXISTS process (
		run_id       BIGINT REFERENCES run ON DELETE CASCADE,
		process      TEXT,
		cap_min      DOUBLE PRECISION,
		cap_max      DOUBLE PRECISION,
		cost_inv_fix DOUBLE PRECISION,
		cost_inv_var DOUBLE PRECISION,
		cost_fix     DOUBLE PRECISION,
		cost_var     DOUBLE PRECISION,
		PRIMARY KEY (run_id, process)
	)`,
	`CREATE TABLE IF NOT EXISTS process_commodity (
		run_id    BIGINT REFERENCES run ON DELETE CASCADE,
		process   TEXT,
		commodity TEXT,
		direction TEXT,
		ratio     DOUBLE PRECISION,
		PRIMARY KEY (run_id, process, commodity, direction)
	)`,
	`CREATE TABLE IF NOT EXISTS time (
		run_id    BIGINT REFERENCES run ON DELETE CASCADE,
		time_step TEXT,
		weight    DOUBLE PRECISION,
		PRIMARY KEY (run_id, time_step)
	)`,
	`CREATE TABLE IF NOT EXISTS time_demand (
		run_id    BIGINT REFERENCES run ON DELETE CASCADE,
		time_step TEXT,
		commodity TEXT,
		scale     DOUBLE PRECISION,
		PRIMARY KEY (run_id, time_step, commodity)
	)`,
	`CREATE TABLE IF NOT EXISTS area (
		run_id        BIGINT REFERENCES run ON DELETE CASCADE,
		building_type TEXT,
		PRIMARY KEY (run_id, building_type)
	)`,
	`CREATE TABLE IF NOT EXISTS area_demand (
		run_id        BIGINT REFERENCES run ON DELETE CASCADE,
		building_type TEXT,
		commodity     TEXT,
		peak          DOUBLE PRECISION,
		demand        DOUBLE PRECISION,
		PRIMARY KEY (run_id, building_type, commodity)
	)`,
	`CREATE TABLE IF NOT EXISTS vertex (
		run_id     BIGINT REFERENCES run ON DELETE CASCADE,
		vertex_num TEXT,
		PRIMARY KEY (run_id, vertex_num)
	)`,
	`CREATE TABLE IF NOT EXISTS vertex_source (
		run_id     BIGINT REFERENCES run ON DELETE CASCADE,
		vertex_num TEXT,
		commodity  TEXT,
		value      DOUBLE PRECISION,
		PRIMARY KEY (run_id, vertex_num, commodity)
	)`,
	`CREATE TABLE IF NOT EXISTS edge (
		run_id   BIGINT REFERENCES run ON DELETE CASCADE,
		edge_num INTEGER,
		vertex1  TEXT,
		vertex2  TEXT,
		length   DOUBLE PRECISION,
		PRIMARY KEY (run_id, edge_num)
	)`,
	`CREATE TABLE IF NOT EXISTS edge_demand (
		run_id        BIGINT REFERENCES run ON DELETE CASCADE,
		edge_num      INTEGER,
		building_type TEXT,
		value         DOUBLE PRECISION,
		PRIMARY KEY (run_id, edge_num, building_type)
	)`,
	`CREATE TABLE IF NOT EXISTS costs (
		run_id    BIGINT REFERENCES run ON DELETE CASCADE,
		cost_type TEXT,
		value     DOUBLE PRECISION,
		PRIMARY KEY (run_id, cost_type)
	)`,
	`CREATE TABLE IF NOT EXISTS pmax (
		run_id    BIGINT REFERENCES run ON DELETE CASCADE,
		vertex1   TEXT,
		vertex2   TEXT,
		commodity TEXT,
		capacity  DOUBLE PRECISION,
		PRIMARY KEY (run_id, vertex1, vertex2, commodity)
	)`,
}

// Run statuses.
const (
	StatusPrepared = "prepared"
	StatusFinished = "finished"
	StatusFailed   = "failed"

	// OutcomeNotRun is the outcome of a run that has not been solved.
	OutcomeNotRun = "not_run"
)

// Run describes a model run.
type Run struct {
	// Runner is the name of whoever started the run.
	Runner string

	// Start is the start time of the run. The default is now.
	Start time.Time

	// Label identifies the run across databases. A random label is
	// created if it is not set.
	Label uuid.UUID
}

// Store writes runs to a database.
type Store struct {
	Conn Conn

	// Log receives progress messages. The default is
	// logrus.StandardLogger().
	Log logrus.FieldLogger
}

func (s *Store) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// CreateSchema creates any missing tables.
func (s *Store) CreateSchema(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := s.Conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: creating schema: %v", err)
		}
	}
	return nil
}

// InitRun inserts r with status "prepared" and returns its run_id.
func (s *Store) InitRun(ctx context.Context, r Run) (int64, error) {
	if r.Start.IsZero() {
		r.Start = time.Now()
	}
	if r.Label == uuid.Nil {
		r.Label = uuid.New()
	}
	var id int64
	err := s.Conn.QueryRow(ctx,
		`INSERT INTO run (runner, start_ts, status, outcome, label)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING run_id`,
		r.Runner, r.Start, StatusPrepared, OutcomeNotRun, r.Label.String(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: initializing run: %v", err)
	}
	s.log().WithFields(logrus.Fields{
		"run_id": id,
		"label":  r.Label,
		"runner": r.Runner,
	}).Info("initialized run")
	return id, nil
}

// FinishRun sets the end time, status and outcome of a run.
func (s *Store) FinishRun(ctx context.Context, runID int64, status, outcome string) error {
	_, err := s.Conn.Exec(ctx,
		`UPDATE run SET end_ts = $2, status = $3, outcome = $4 WHERE run_id = $1`,
		runID, time.Now(), status, outcome)
	if err != nil {
		return fmt.Errorf("postgres: finishing run %d: %v", runID, err)
	}
	return nil
}

// insert returns an INSERT statement for the given table and columns.
// run_id is always the first column.
func insert(table string, cols ...string) string {
	ph := make([]string, len(cols)+1)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (run_id, %s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(ph, ", "))
}

// rows executes stmt once for each set of values, prepending runID.
func (s *Store) rows(ctx context.Context, runID int64, table, stmt string, values [][]interface{}) error {
	for _, v := range values {
		if _, err := s.Conn.Exec(ctx, stmt, append([]interface{}{runID}, v...)...); err != nil {
			return fmt.Errorf("postgres: storing %s: %v", table, err)
		}
	}
	return nil
}

// finite replaces infinite values, which mean no limit in the input
// tables, with nil so that they are stored as NULL.
func finite(v float64) interface{} {
	if math.IsInf(v, 0) {
		return nil
	}
	return v
}

// StoreParams writes the input tables of a run.
func (s *Store) StoreParams(ctx context.Context, runID int64, d *rivus.Data) error {
	type table struct {
		name   string
		cols   []string
		values [][]interface{}
	}
	var tables []table

	t := table{name: "commodity", cols: []string{"commodity", "loss_fix", "loss_var", "cap_max",
		"cost_inv_fix", "cost_inv_var", "cost_fix", "cost_var", "allowed_max"}}
	for _, c := range d.Commodities {
		t.values = append(t.values, []interface{}{c.Name, c.LossFix, c.LossVar, c.CapMax,
			c.CostInvFix, c.CostInvVar, c.CostFix, c.CostVar, finite(c.AllowedMax)})
	}
	tables = append(tables, t)

	t = table{name: "process", cols: []string{"process", "cap_min", "cap_max",
		"cost_inv_fix", "cost_inv_var", "cost_fix", "cost_var"}}
	for _, p := range d.Processes {
		t.values = append(t.values, []interface{}{p.Name, p.CapMin, p.CapMax,
			p.CostInvFix, p.CostInvVar, p.CostFix, p.CostVar})
	}
	tables = append(tables, t)

	t = table{name: "process_commodity", cols: []string{"process", "commodity", "direction", "ratio"}}
	for _, pc := range d.ProcessCommodities {
		t.values = append(t.values, []interface{}{pc.Process, pc.Commodity, string(pc.Direction), pc.Ratio})
	}
	tables = append(tables, t)

	t = table{name: "time", cols: []string{"time_step", "weight"}}
	td := table{name: "time_demand", cols: []string{"time_step", "commodity", "scale"}}
	for _, ts := range d.Time {
		t.values = append(t.values, []interface{}{ts.Name, ts.Weight})
		for _, co := range sortedKeys(ts.Scale) {
			td.values = append(td.values, []interface{}{ts.Name, co, ts.Scale[co]})
		}
	}
	tables = append(tables, t, td)

	t = table{name: "area", cols: []string{"building_type"}}
	for _, a := range d.AreaTypes() {
		t.values = append(t.values, []interface{}{a})
	}
	ad := table{name: "area_demand", cols: []string{"building_type", "commodity", "peak", "demand"}}
	for _, a := range d.AreaDemand {
		ad.values = append(ad.values, []interface{}{a.Area, a.Commodity, a.Peak, a.Demand})
	}
	tables = append(tables, t, ad)

	t = table{name: "vertex", cols: []string{"vertex_num"}}
	vs := table{name: "vertex_source", cols: []string{"vertex_num", "commodity", "value"}}
	for _, v := range d.Vertices {
		t.values = append(t.values, []interface{}{v.ID})
		for _, co := range sortedKeys(v.Source) {
			vs.values = append(vs.values, []interface{}{v.ID, co, v.Source[co]})
		}
	}
	tables = append(tables, t, vs)

	t = table{name: "edge", cols: []string{"edge_num", "vertex1", "vertex2", "length"}}
	ed := table{name: "edge_demand", cols: []string{"edge_num", "building_type", "value"}}
	for i, e := range d.Edges {
		t.values = append(t.values, []interface{}{i, e.V1, e.V2, e.Length})
		for _, a := range sortedKeys(e.Areas) {
			ed.values = append(ed.values, []interface{}{i, a, e.Areas[a]})
		}
	}
	tables = append(tables, t, ed)

	n := 0
	for _, t := range tables {
		if err := s.rows(ctx, runID, t.name, insert(t.name, t.cols...), t.values); err != nil {
			return err
		}
		n += len(t.values)
	}
	s.log().WithFields(logrus.Fields{"run_id": runID, "rows": n}).Info("stored parameters")
	return nil
}

// StoreResults writes the costs and transport capacities of a solved
// run. Zero capacities are not stored.
func (s *Store) StoreResults(ctx context.Context, runID int64, r *rivus.Result) error {
	c := r.Constants()
	var costs [][]interface{}
	for _, row := range c.Costs.Rows {
		costs = append(costs, []interface{}{row.Index[0], row.Values[0]})
	}
	if err := s.rows(ctx, runID, "costs", insert("costs", "cost_type", "value"), costs); err != nil {
		return err
	}
	var pmax [][]interface{}
	for _, row := range c.Pmax.Rows {
		for j, co := range c.Pmax.Columns {
			if row.Values[j] <= 0 {
				continue
			}
			pmax = append(pmax, []interface{}{row.Index[0], row.Index[1], co, row.Values[j]})
		}
	}
	if err := s.rows(ctx, runID, "pmax", insert("pmax", "vertex1", "vertex2", "commodity", "capacity"), pmax); err != nil {
		return err
	}
	s.log().WithFields(logrus.Fields{"run_id": runID, "rows": len(costs) + len(pmax)}).Info("stored results")
	return nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
