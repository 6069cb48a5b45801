//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package metrics records per-statement outcomes of a run and pushes them
// to a Prometheus Pushgateway when the run ends. A batch job exits before
// it could be scraped, so nothing is served over HTTP.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
	"github.com/pgEdge/pgedge-dwhload/pkg/version"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder implements warehouse.Observer on a private registry.
type Recorder struct {
	gatewayURL string
	job        string
	reg        *prometheus.Registry

	statements *prometheus.CounterVec
	duration   *prometheus.SummaryVec
	rows       *prometheus.CounterVec
	lastRun    *prometheus.GaugeVec
	buildInfo  *prometheus.GaugeVec
}

// NewRecorder creates a recorder that pushes to gatewayURL under job.
// An empty gatewayURL keeps the metrics in memory only.
func NewRecorder(gatewayURL, job string) (*Recorder, error) {
	if job == "" {
		job = "pgedge-dwhload"
	}

	r := &Recorder{
		gatewayURL: gatewayURL,
		job:        job,
		reg:        prometheus.NewRegistry(),
		statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwhload_statements_total",
				Help: "Statements executed, partitioned by step, statement and status.",
			},
			[]string{"step", "statement", "status"},
		),
		duration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "dwhload_statement_duration_seconds",
				Help:       "Statement duration in seconds, partitioned by step and status.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"step", "status"},
		),
		rows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dwhload_rows_total",
				Help: "Rows written, partitioned by step and table.",
			},
			[]string{"step", "table"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dwhload_last_run_timestamp_seconds",
				Help: "Unix time the last run of a command finished, partitioned by command and status.",
			},
			[]string{"command", "status"},
		),
		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dwhload_build_info",
				Help: "Build information of pgedge-dwhload.",
			},
			[]string{"version", "commit", "dialect"},
		),
	}

	for name, c := range map[string]prometheus.Collector{
		"statement counter": r.statements,
		"duration summary":  r.duration,
		"row counter":       r.rows,
		"last run gauge":    r.lastRun,
		"build info":        r.buildInfo,
	} {
		if err := r.reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register %s: %w", name, err)
		}
	}

	return r, nil
}

// ObserveStatement implements warehouse.Observer.
func (r *Recorder) ObserveStatement(step string, stmt warehouse.Statement, rows int64, d time.Duration, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	r.statements.WithLabelValues(step, stmt.Name, status).Inc()
	r.duration.WithLabelValues(step, status).Observe(d.Seconds())
	if err == nil && rows > 0 {
		r.rows.WithLabelValues(step, stmt.Table).Add(float64(rows))
	}
}

// SetDialect records the build and target dialect of this run.
func (r *Recorder) SetDialect(dialect string) {
	r.buildInfo.WithLabelValues(version.Version, version.Commit, dialect).Set(1)
}

// Finish records the end of a command.
func (r *Recorder) Finish(command string, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	r.lastRun.WithLabelValues(command, status).SetToCurrentTime()
}

// Registry returns the registry the recorder writes to.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Push sends the collected metrics to the Pushgateway, replacing the
// previous push of the same job. It does nothing without a gateway URL.
func (r *Recorder) Push(ctx context.Context) error {
	if r.gatewayURL == "" {
		return nil
	}
	if err := push.New(r.gatewayURL, r.job).Gatherer(r.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("metrics: push to %s: %w", r.gatewayURL, err)
	}
	return nil
}
