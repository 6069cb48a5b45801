package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pgEdge/pgedge-dwhload/internal/db"
)

func TestWriteStatusMarksMissingRuns(t *testing.T) {
	var buf bytes.Buffer
	writeStatus(&buf, []db.TableCount{
		{Table: "staging_events", Exists: true, Rows: 8056},
		{Table: "songplays", Exists: false},
	}, map[string]string{
		db.KeyDialect:         "postgres",
		db.KeyLoadCompletedAt: "2026-03-04T12:30:00Z",
	})

	out := buf.String()
	assert.Contains(t, out, "staging_events           8056 rows")
	assert.Contains(t, out, "songplays             missing")
	assert.Contains(t, out, "load_completed_at  2026-03-04T12:30:00Z")
	assert.Contains(t, out, "etl_completed_at   never")
	assert.Contains(t, out, "schema_reset_at    never")
	assert.Contains(t, out, "dialect            postgres")
	assert.NotContains(t, out, "No loader metadata")
}

func TestWriteStatusWithoutMetadata(t *testing.T) {
	var buf bytes.Buffer
	writeStatus(&buf, nil, map[string]string{})

	out := buf.String()
	assert.Contains(t, out, "etl_completed_at   never")
	assert.Contains(t, out, "No loader metadata; run 'pgedge-dwhload reset' first.")
}
