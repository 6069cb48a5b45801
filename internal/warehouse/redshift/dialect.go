// Package redshift implements the Amazon Redshift dialect: columnar layout
// hints on every dimension and fact table, and native COPY from S3.
package redshift

import (
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

// Dialect implements warehouse.Dialect for Amazon Redshift.
type Dialect struct{}

// New creates a new Redshift dialect.
func New() *Dialect {
	return &Dialect{}
}

// Name returns the dialect name.
func (d *Dialect) Name() string {
	return "redshift"
}

// Description returns a human-readable description.
func (d *Dialect) Description() string {
	return "Amazon Redshift - DISTKEY/SORTKEY layout, COPY from S3 with an IAM role"
}

// DropTableQueries returns the DROP statements.
func (d *Dialect) DropTableQueries() []warehouse.Statement {
	return dropTableQueries()
}

// CreateTableQueries returns the CREATE statements.
func (d *Dialect) CreateTableQueries() []warehouse.Statement {
	return createTableQueries()
}

// CopyTableQuery returns a COPY ... FROM 's3://...' statement for job.
func (d *Dialect) CopyTableQuery(job warehouse.CopyJob) (warehouse.Statement, error) {
	return copyQuery(job)
}

// InsertTableQueries returns the transform statements.
func (d *Dialect) InsertTableQueries() []warehouse.Statement {
	return insertTableQueries()
}

func init() {
	warehouse.Register(New())
}
