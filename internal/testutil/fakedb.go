//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// CopyCall records one CopyFrom invocation.
type CopyCall struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// FakeDB is an in-memory stand-in for a *pgx.Conn. It records every call
// in Log ("begin", "exec <sql>", "copy <table>", "commit", "rollback").
// Methods it does not override panic through the nil embedded pgx.Tx.
type FakeDB struct {
	pgx.Tx

	// ExecErr, when set, decides whether an Exec fails.
	ExecErr func(sql string) error

	// ExecRows, when set, returns the rows affected by an Exec.
	ExecRows func(sql string) int64

	mu       sync.Mutex
	Log      []string
	Execs    []string
	ExecArgs [][]any
	Copies   []CopyCall
}

// Begin starts a fake transaction.
func (f *FakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	f.record("begin")
	return &fakeTx{db: f}, nil
}

// Exec records sql and returns the configured outcome.
func (f *FakeDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	f.Execs = append(f.Execs, sql)
	f.ExecArgs = append(f.ExecArgs, arguments)
	f.Log = append(f.Log, "exec "+sql)
	f.mu.Unlock()

	if f.ExecErr != nil {
		if err := f.ExecErr(sql); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	var rows int64
	if f.ExecRows != nil {
		rows = f.ExecRows(sql)
	}
	return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", rows)), nil
}

// CopyFrom drains rowSrc and records the rows.
func (f *FakeDB) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	call := CopyCall{Table: tableName.Sanitize(), Columns: columnNames}
	for rowSrc.Next() {
		vals, err := rowSrc.Values()
		if err != nil {
			return 0, err
		}
		call.Rows = append(call.Rows, vals)
	}
	if err := rowSrc.Err(); err != nil {
		return 0, err
	}

	f.mu.Lock()
	f.Copies = append(f.Copies, call)
	f.Log = append(f.Log, "copy "+call.Table)
	f.mu.Unlock()
	return int64(len(call.Rows)), nil
}

func (f *FakeDB) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Log = append(f.Log, event)
}

type fakeTx struct {
	pgx.Tx
	db   *FakeDB
	done bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, arguments...)
}

func (t *fakeTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return t.db.CopyFrom(ctx, tableName, columnNames, rowSrc)
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.done = true
	t.db.record("commit")
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.db.record("rollback")
	return nil
}
