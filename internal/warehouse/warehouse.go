//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse defines the star schema, the dialect interface and the
// sequential statement executor shared by every target warehouse.
package warehouse

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is an interface that both *pgx.Conn and pgx.Tx satisfy.
// This allows the executor and the loaders to run either directly on the
// connection (one implicit transaction per statement) or inside an
// explicit transaction.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Statement is one complete SQL unit submitted to the warehouse.
type Statement struct {
	// Name identifies the statement in logs, errors and metrics.
	Name string

	// Table is the table the statement targets.
	Table string

	// SQL is the statement text.
	SQL string
}

// CopyJob describes a bulk load of newline-delimited JSON objects from
// object storage into a staging table.
type CopyJob struct {
	// Table is the staging table to load.
	Table string

	// Source is the location prefix of the JSON objects.
	Source string

	// JSONPaths is the location of a JSONPaths field-mapping descriptor.
	// Empty means fields are matched to columns by name ("auto").
	JSONPaths string

	// IAMRole is the role the warehouse assumes to read Source.
	IAMRole string

	// Region is the bucket region, if it differs from the warehouse's.
	Region string
}

// ErrNoNativeCopy is returned by dialects whose engine cannot read object
// storage on its own; the load then has to be streamed by the client.
var ErrNoNativeCopy = errors.New("dialect has no native COPY from object storage")

// Dialect defines the SQL a target warehouse needs for every pipeline step.
type Dialect interface {
	// Name returns the dialect name used in configuration.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// DropTableQueries returns the DROP statements in reverse dependency order.
	DropTableQueries() []Statement

	// CreateTableQueries returns the CREATE statements in dependency order.
	CreateTableQueries() []Statement

	// CopyTableQuery returns the native bulk-load statement for job.
	CopyTableQuery(job CopyJob) (Statement, error)

	// InsertTableQueries returns the five transform statements in the order
	// dimensions first, fact last.
	InsertTableQueries() []Statement
}
