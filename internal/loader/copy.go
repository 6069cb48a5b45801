package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

// CopyLoader runs the dialect's native COPY statement; the warehouse reads
// the objects itself.
type CopyLoader struct {
	dialect  warehouse.Dialect
	observer warehouse.Observer
}

// NewCopyLoader creates a native COPY loader for d.
func NewCopyLoader(d warehouse.Dialect, observer warehouse.Observer) *CopyLoader {
	return &CopyLoader{dialect: d, observer: observer}
}

// Load builds and executes the COPY statement for job. It returns
// warehouse.ErrNoNativeCopy unwrapped when the dialect has none.
func (l *CopyLoader) Load(ctx context.Context, db warehouse.DB, job Job) (int64, error) {
	stmt, err := l.dialect.CopyTableQuery(job.CopyJob())
	if err != nil {
		if errors.Is(err, warehouse.ErrNoNativeCopy) {
			return 0, err
		}
		return 0, fmt.Errorf("copy %s: %w", job.Table, err)
	}

	results, err := warehouse.Execute(ctx, db, []warehouse.Statement{stmt}, warehouse.ExecOptions{
		Step:     "load",
		Observer: l.observer,
	})
	if err != nil {
		return 0, err
	}
	return results[0].RowsAffected, nil
}
