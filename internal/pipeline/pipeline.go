//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline runs the two entry points of the loader: the schema
// reset, and the ETL that bulk-loads the staging tables and transforms
// them into the star schema.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pgEdge/pgedge-dwhload/internal/config"
	"github.com/pgEdge/pgedge-dwhload/internal/loader"
	"github.com/pgEdge/pgedge-dwhload/internal/logging"
	"github.com/pgEdge/pgedge-dwhload/internal/storage"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

// Step names used in logs and metrics.
const (
	StepReset     = "reset"
	StepLoad      = "load"
	StepTransform = "transform"
)

// Options configures a Pipeline.
type Options struct {
	// Atomic runs each step in one transaction.
	Atomic bool

	// Observer is notified of every statement. May be nil.
	Observer warehouse.Observer

	// Storage is used by client-side loads.
	Storage storage.Options
}

// Pipeline runs the steps against one connection, one statement at a time.
type Pipeline struct {
	db      warehouse.DB
	dialect warehouse.Dialect
	loader  loader.Loader
	opts    Options
}

// New creates a pipeline for dialect d on db.
func New(db warehouse.DB, d warehouse.Dialect, opts Options) *Pipeline {
	return &Pipeline{
		db:      db,
		dialect: d,
		loader:  loader.New(d, opts.Storage, opts.Observer),
		opts:    opts,
	}
}

func (p *Pipeline) exec(ctx context.Context, step string, stmts []warehouse.Statement) ([]warehouse.Result, error) {
	return warehouse.Execute(ctx, p.db, stmts, warehouse.ExecOptions{
		Step:     step,
		Atomic:   p.opts.Atomic,
		Observer: p.opts.Observer,
	})
}

// ResetSchema drops every warehouse table and creates it again, empty.
// With drop false only the CREATE statements run, which is a no-op for
// tables that already exist.
func (p *Pipeline) ResetSchema(ctx context.Context, drop bool) error {
	var stmts []warehouse.Statement
	if drop {
		stmts = append(stmts, p.dialect.DropTableQueries()...)
	}
	stmts = append(stmts, p.dialect.CreateTableQueries()...)

	logging.Info().
		Str("dialect", p.dialect.Name()).
		Bool("drop", drop).
		Int("statements", len(stmts)).
		Msg("Resetting schema")

	if _, err := p.exec(ctx, StepReset, stmts); err != nil {
		return fmt.Errorf("schema reset failed: %w", err)
	}

	logging.Info().Msg("Schema reset complete")
	return nil
}

// LoadStaging runs jobs in order. It returns the rows loaded per table.
func (p *Pipeline) LoadStaging(ctx context.Context, jobs []loader.Job) (map[string]int64, error) {
	loaded := make(map[string]int64, len(jobs))

	run := func(db warehouse.DB) error {
		for _, job := range jobs {
			logging.Info().
				Str("table", job.Table).
				Str("source", job.Source).
				Msg("Loading staging table")

			n, err := p.loader.Load(ctx, db, job)
			if err != nil {
				return err
			}
			loaded[job.Table] = n
		}
		return nil
	}

	if !p.opts.Atomic {
		if err := run(p.db); err != nil {
			return loaded, fmt.Errorf("staging load failed: %w", err)
		}
		return loaded, nil
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin load transaction: %w", err)
	}
	// Rollback is a no-op once Commit succeeded.
	defer func() { _ = tx.Rollback(ctx) }()

	if err := run(tx); err != nil {
		return nil, fmt.Errorf("staging load failed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit load transaction: %w", err)
	}
	return loaded, nil
}

// Transform fills the dimensions and then the fact table from staging. It
// returns the rows inserted per table.
func (p *Pipeline) Transform(ctx context.Context) (map[string]int64, error) {
	results, err := p.exec(ctx, StepTransform, p.dialect.InsertTableQueries())
	inserted := make(map[string]int64, len(results))
	for _, r := range results {
		inserted[r.Statement.Table] = r.RowsAffected
	}
	if err != nil {
		return inserted, fmt.Errorf("transform failed: %w", err)
	}
	return inserted, nil
}

// ETLOptions selects the ETL steps to run.
type ETLOptions struct {
	SkipLoad      bool
	SkipTransform bool
}

// Report summarises an ETL run.
type Report struct {
	Loaded   map[string]int64
	Inserted map[string]int64
	Duration time.Duration
}

// RunETL loads the staging tables and then transforms them. The transform
// never starts if a load failed.
func (p *Pipeline) RunETL(ctx context.Context, jobs []loader.Job, opts ETLOptions) (*Report, error) {
	start := time.Now()
	report := &Report{}

	if !opts.SkipLoad {
		loaded, err := p.LoadStaging(ctx, jobs)
		report.Loaded = loaded
		if err != nil {
			return report, err
		}
	}

	if !opts.SkipTransform {
		inserted, err := p.Transform(ctx)
		report.Inserted = inserted
		if err != nil {
			return report, err
		}
	}

	report.Duration = time.Since(start)
	logging.Info().
		Dur("duration", report.Duration).
		Msg("ETL complete")
	return report, nil
}

// Jobs returns the staging loads described by cfg: the event log with its
// JSONPaths descriptor first, then the song catalog matched automatically.
func Jobs(cfg *config.Config) []loader.Job {
	return []loader.Job{
		{
			Table:     warehouse.StagingEvents,
			Columns:   warehouse.StagingEventsColumns,
			Source:    cfg.S3.LogData,
			JSONPaths: cfg.S3.LogJSONPath,
			IAMRole:   cfg.IAM.Role,
			Region:    cfg.S3.Region,
		},
		{
			Table:   warehouse.StagingSongs,
			Columns: warehouse.StagingSongsColumns,
			Source:  cfg.S3.SongData,
			IAMRole: cfg.IAM.Role,
			Region:  cfg.S3.Region,
		},
	}
}

// StorageOptions returns the object storage settings in cfg.
func StorageOptions(cfg *config.Config) storage.Options {
	return storage.Options{
		Region:    cfg.S3.Region,
		Endpoint:  cfg.S3.Endpoint,
		AccessKey: cfg.AWS.Key,
		SecretKey: cfg.AWS.Secret,
	}
}
