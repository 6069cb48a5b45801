//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package loader bulk-loads newline-delimited JSON objects from object
// storage into the staging tables, either with the warehouse's own COPY
// or by streaming the rows through the client.
package loader

import (
	"context"
	"errors"

	"github.com/pgEdge/pgedge-dwhload/internal/storage"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

// Job is one staging table load.
type Job struct {
	// Table is the staging table to fill.
	Table string

	// Columns are the table's columns in load order.
	Columns []warehouse.Column

	// Source is the location of the JSON objects.
	Source string

	// JSONPaths is the location of a JSONPaths descriptor; empty means auto.
	JSONPaths string

	// IAMRole is the role the warehouse assumes for native COPY.
	IAMRole string

	// Region is the bucket region.
	Region string
}

// CopyJob converts j to the dialect's bulk-load description.
func (j Job) CopyJob() warehouse.CopyJob {
	return warehouse.CopyJob{
		Table:     j.Table,
		Source:    j.Source,
		JSONPaths: j.JSONPaths,
		IAMRole:   j.IAMRole,
		Region:    j.Region,
	}
}

// Loader fills one staging table per call. A load is a single COPY: it
// either lands completely or not at all.
type Loader interface {
	Load(ctx context.Context, db warehouse.DB, job Job) (int64, error)
}

// New returns the loader for dialect d. Dialects with a native COPY from
// object storage use it; the others are streamed through the client.
func New(d warehouse.Dialect, opts storage.Options, observer warehouse.Observer) Loader {
	return &dialectLoader{
		native: NewCopyLoader(d, observer),
		stream: NewStreamLoader(opts, observer),
	}
}

type dialectLoader struct {
	native *CopyLoader
	stream *StreamLoader
}

func (l *dialectLoader) Load(ctx context.Context, db warehouse.DB, job Job) (int64, error) {
	n, err := l.native.Load(ctx, db, job)
	if errors.Is(err, warehouse.ErrNoNativeCopy) {
		return l.stream.Load(ctx, db, job)
	}
	return n, err
}
