//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pgEdge/pgedge-dwhload/internal/logging"
	"github.com/pgEdge/pgedge-dwhload/pkg/version"
)

const metadataTable = "dwhload_metadata"

// Metadata keys.
const (
	KeyDialect         = "dialect"
	KeyVersion         = "version"
	KeySchemaResetAt   = "schema_reset_at"
	KeyLoadCompletedAt = "load_completed_at"
	KeyETLCompletedAt  = "etl_completed_at"
)

// RunKeys are the keys recording when each command last completed.
var RunKeys = []string{KeySchemaResetAt, KeyLoadCompletedAt, KeyETLCompletedAt}

// Querier is satisfied by *pgx.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// createMetadataTableSQL creates the metadata table if it doesn't exist.
// It is not one of the warehouse tables, so a schema reset leaves it alone.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS dwhload_metadata (
    key   VARCHAR(64) PRIMARY KEY,
    value VARCHAR(1024) NOT NULL
)`

// SaveMetadata upserts values into the metadata table. Redshift has no
// ON CONFLICT, so each key is deleted and re-inserted.
func SaveMetadata(ctx context.Context, q Querier, values map[string]string) error {
	// Create table if it doesn't exist
	if _, err := q.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := q.Exec(ctx, `DELETE FROM dwhload_metadata WHERE key = $1`, key); err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
		if _, err := q.Exec(ctx, `INSERT INTO dwhload_metadata (key, value) VALUES ($1, $2)`, key, values[key]); err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}

	logging.Debug().
		Strs("keys", keys).
		Msg("Saved metadata")

	return nil
}

// RecordReset stores the dialect, version and time of a schema reset.
func RecordReset(ctx context.Context, q Querier, dialect string, at time.Time) error {
	return SaveMetadata(ctx, q, map[string]string{
		KeyDialect:       dialect,
		KeyVersion:       version.Short(),
		KeySchemaResetAt: at.UTC().Format(time.RFC3339),
	})
}

// RecordETL stores the dialect, version and time of an ETL run. Only the
// steps that ran are stamped: load_completed_at when the staging tables
// were loaded, etl_completed_at when the star schema was filled.
func RecordETL(ctx context.Context, q Querier, dialect string, at time.Time, loaded, transformed bool) error {
	values := map[string]string{
		KeyDialect: dialect,
		KeyVersion: version.Short(),
	}
	stamp := at.UTC().Format(time.RFC3339)
	if loaded {
		values[KeyLoadCompletedAt] = stamp
	}
	if transformed {
		values[KeyETLCompletedAt] = stamp
	}
	return SaveMetadata(ctx, q, values)
}

// GetAllMetadata retrieves all metadata as a map. A missing metadata table
// yields an empty map.
func GetAllMetadata(ctx context.Context, q Querier) (map[string]string, error) {
	exists, err := TableExists(ctx, q, metadataTable)
	if err != nil {
		return nil, err
	}
	metadata := make(map[string]string)
	if !exists {
		return metadata, nil
	}

	rows, err := q.Query(ctx, `SELECT key, value FROM dwhload_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// TableExists checks if table exists in the current schema.
func TableExists(ctx context.Context, q Querier, table string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = current_schema() AND table_name = $1
        )
    `, table).Scan(&exists)
	return exists, err
}

// TableCount is the row count of one table; Exists is false when the table
// has not been created.
type TableCount struct {
	Table  string
	Exists bool
	Rows   int64
}

// CountRows returns the row count of every table in order.
func CountRows(ctx context.Context, q Querier, tables []string) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(tables))
	for _, table := range tables {
		exists, err := TableExists(ctx, q, table)
		if err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
		tc := TableCount{Table: table, Exists: exists}
		if exists {
			err := q.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", pgx.Identifier{table}.Sanitize())).Scan(&tc.Rows)
			if err != nil {
				return nil, fmt.Errorf("failed to count %s: %w", table, err)
			}
		}
		counts = append(counts, tc)
	}
	return counts, nil
}
