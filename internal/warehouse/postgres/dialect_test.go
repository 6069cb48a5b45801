package postgres

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

func TestCopyTableQueryUnsupported(t *testing.T) {
	_, err := New().CopyTableQuery(warehouse.CopyJob{
		Table:  warehouse.StagingSongs,
		Source: "s3://bucket/song_data",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, warehouse.ErrNoNativeCopy))
}

func TestCreateTableQueriesNoRedshiftSyntax(t *testing.T) {
	for _, s := range New().CreateTableQueries() {
		for _, keyword := range []string{"DISTKEY", "SORTKEY", "IDENTITY(", "VARCHAR(MAX)"} {
			assert.NotContains(t, s.SQL, keyword, s.Name)
		}
	}
}

func TestCreateTableQueriesIndexes(t *testing.T) {
	var indexes []string
	for _, s := range New().CreateTableQueries() {
		if strings.HasPrefix(s.Name, "index ") {
			indexes = append(indexes, s.Table)
		}
	}
	assert.Equal(t, []string{warehouse.Songs, warehouse.Songplays}, indexes)
}

func TestDropTableQueriesQuoteReservedNames(t *testing.T) {
	drops := New().DropTableQueries()
	assert.Equal(t, `DROP TABLE IF EXISTS "time" CASCADE`, drops[len(drops)-1].SQL)
}

func TestTransformUsesEpochArithmetic(t *testing.T) {
	inserts := New().InsertTableQueries()
	for _, s := range inserts {
		assert.NotContains(t, s.SQL, "DATEADD", s.Name)
	}
	assert.Contains(t, inserts[3].SQL, "TIMESTAMP 'epoch' + ts * INTERVAL '1 millisecond'")
	assert.Contains(t, inserts[3].SQL, "EXTRACT(dow FROM start_time)")
	assert.Contains(t, inserts[3].SQL, `INSERT INTO "time"`)
}
