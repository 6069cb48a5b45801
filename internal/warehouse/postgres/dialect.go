// Package postgres implements the PostgreSQL dialect. PostgreSQL cannot
// read object storage itself, so its staging tables are filled by the
// client-side stream loader.
package postgres

import (
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

// Dialect implements warehouse.Dialect for PostgreSQL.
type Dialect struct{}

// New creates a new PostgreSQL dialect.
func New() *Dialect {
	return &Dialect{}
}

// Name returns the dialect name.
func (d *Dialect) Name() string {
	return "postgres"
}

// Description returns a human-readable description.
func (d *Dialect) Description() string {
	return "PostgreSQL - indexes instead of sort keys, staging loaded by the client over COPY"
}

// DropTableQueries returns the DROP statements.
func (d *Dialect) DropTableQueries() []warehouse.Statement {
	return dropTableQueries()
}

// CreateTableQueries returns the CREATE statements.
func (d *Dialect) CreateTableQueries() []warehouse.Statement {
	return createTableQueries()
}

// CopyTableQuery always fails with warehouse.ErrNoNativeCopy.
func (d *Dialect) CopyTableQuery(job warehouse.CopyJob) (warehouse.Statement, error) {
	return warehouse.Statement{}, warehouse.ErrNoNativeCopy
}

// InsertTableQueries returns the transform statements.
func (d *Dialect) InsertTableQueries() []warehouse.Statement {
	return insertTableQueries()
}

func init() {
	warehouse.Register(New())
}
