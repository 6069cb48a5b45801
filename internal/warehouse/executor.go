//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pgEdge/pgedge-dwhload/internal/logging"
)

// Observer receives the outcome of every statement or load the pipeline
// runs. Implementations must be cheap; they are called inline.
type Observer interface {
	ObserveStatement(step string, stmt Statement, rows int64, d time.Duration, err error)
}

// ExecOptions controls how a statement list is executed.
type ExecOptions struct {
	// Step names the pipeline step (reset, load, transform) for logs and metrics.
	Step string

	// Atomic runs the whole list in one transaction. By default each
	// statement runs and commits on its own.
	Atomic bool

	// Observer is notified after each statement. May be nil.
	Observer Observer
}

// Result holds the outcome of one executed statement.
type Result struct {
	Statement    Statement
	RowsAffected int64
	Duration     time.Duration
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Execute runs stmts one at a time, in order, and stops at the first error.
// Statements that completed before the failure stay committed unless
// opts.Atomic is set.
func Execute(ctx context.Context, db DB, stmts []Statement, opts ExecOptions) ([]Result, error) {
	if opts.Atomic {
		return executeInTx(ctx, db, stmts, opts)
	}
	return executeEach(ctx, db, stmts, opts)
}

func executeEach(ctx context.Context, db execer, stmts []Statement, opts ExecOptions) ([]Result, error) {
	results := make([]Result, 0, len(stmts))
	for _, stmt := range stmts {
		res, err := execOne(ctx, db, stmt, opts)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func executeInTx(ctx context.Context, db DB, stmts []Statement, opts ExecOptions) ([]Result, error) {
	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin %s transaction: %w", opts.Step, err)
	}
	// Rollback is a no-op once Commit succeeded.
	defer func() { _ = tx.Rollback(ctx) }()

	results, err := executeEach(ctx, tx, stmts, opts)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit %s transaction: %w", opts.Step, err)
	}
	return results, nil
}

func execOne(ctx context.Context, db execer, stmt Statement, opts ExecOptions) (Result, error) {
	logging.Debug().
		Str("step", opts.Step).
		Str("statement", stmt.Name).
		Str("table", stmt.Table).
		Msg("Executing statement")

	start := time.Now()
	tag, err := db.Exec(ctx, stmt.SQL)
	elapsed := time.Since(start)

	var rows int64
	if err == nil {
		rows = tag.RowsAffected()
	}
	Observe(opts.Observer, opts.Step, stmt, rows, elapsed, err)

	if err != nil {
		LogError(opts.Step, stmt, err)
		return Result{}, fmt.Errorf("%s: %w", stmt.Name, err)
	}

	logging.Info().
		Str("step", opts.Step).
		Str("statement", stmt.Name).
		Int64("rows", rows).
		Dur("duration", elapsed).
		Msg("Statement complete")

	return Result{Statement: stmt, RowsAffected: rows, Duration: elapsed}, nil
}

// Observe forwards to o when it is set.
func Observe(o Observer, step string, stmt Statement, rows int64, d time.Duration, err error) {
	if o != nil {
		o.ObserveStatement(step, stmt, rows, d, err)
	}
}

// LogError logs a failed statement, including the server's SQLSTATE when
// the error came from the database.
func LogError(step string, stmt Statement, err error) {
	ev := logging.Error().
		Str("step", step).
		Str("statement", stmt.Name).
		Str("table", stmt.Table)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		ev = ev.Str("sqlstate", pgErr.Code).
			Str("severity", pgErr.Severity)
		if pgErr.Detail != "" {
			ev = ev.Str("detail", pgErr.Detail)
		}
	}
	ev.Err(err).Msg("Statement failed")
}
