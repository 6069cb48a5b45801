package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-dwhload/internal/config"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse/postgres"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse/redshift"
)

func testConfig() *config.Config {
	c := config.DefaultConfig()
	c.IAM.Role = "arn:aws:iam::123456789012:role/dwhRole"
	c.S3 = config.S3Config{
		LogData:     "s3://udacity-dend/log_data",
		LogJSONPath: "s3://udacity-dend/log_json_path.json",
		SongData:    "s3://udacity-dend/song_data",
		Region:      "us-west-2",
	}
	return c
}

func TestWriteStepTransform(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStep(&buf, redshift.New(), testConfig(), "transform"))

	out := buf.String()
	assert.Equal(t, 5, strings.Count(out, "INSERT INTO"))
	assert.Less(t, strings.Index(out, "-- insert users"), strings.Index(out, "-- insert songplays"))
	assert.True(t, strings.HasSuffix(out, ";\n\n"))
}

func TestWriteStepLoadRedshift(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStep(&buf, redshift.New(), testConfig(), "load"))

	out := buf.String()
	assert.Contains(t, out, "-- copy staging_events\nCOPY \"staging_events\"")
	assert.Contains(t, out, "JSON 'auto'\nREGION 'us-west-2';")
}

func TestWriteStepLoadPostgres(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStep(&buf, postgres.New(), testConfig(), "load"))

	out := buf.String()
	assert.Contains(t, out, "-- staging_events: streamed by the client from s3://udacity-dend/log_data")
	assert.NotContains(t, out, "COPY")
}

func TestWriteStepReset(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeStep(&buf, postgres.New(), testConfig(), "reset"))

	out := buf.String()
	assert.Less(t, strings.LastIndex(out, "DROP TABLE"), strings.Index(out, "CREATE TABLE"))
}

func TestWriteStepErrors(t *testing.T) {
	var buf bytes.Buffer
	err := writeStep(&buf, redshift.New(), testConfig(), "vacuum")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown step")

	c := testConfig()
	c.IAM.Role = ""
	err = writeStep(&buf, redshift.New(), c, "load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "staging_events")
}
