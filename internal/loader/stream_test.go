package loader

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-dwhload/internal/storage"
	"github.com/pgEdge/pgedge-dwhload/internal/testutil"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

const songObject = `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`

const eventObject = `{"artist":"Casual","auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":0,"lastName":"Frye","length":218.93179,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"PUT","page":"NextSong","registration":1540919166796.0,"sessionId":38,"song":"I Didn't Mean To","status":200,"ts":1609459200000,"userAgent":"Mozilla\/5.0","userId":"39"}`

func writeObject(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeGzipObject(t *testing.T, path, content string) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	writeObject(t, path, buf.String())
}

func writeEventJSONPaths(t *testing.T, path string) {
	t.Helper()
	quoted := make([]string, len(EventLogJSONPaths))
	for i, p := range EventLogJSONPaths {
		quoted[i] = `"` + p + `"`
	}
	writeObject(t, path, `{"jsonpaths": [`+strings.Join(quoted, ", ")+`]}`)
}

func songsJob(source string) Job {
	return Job{
		Table:   warehouse.StagingSongs,
		Columns: warehouse.StagingSongsColumns,
		Source:  source,
	}
}

func TestStreamLoaderAutoMapping(t *testing.T) {
	dir := t.TempDir()
	writeObject(t, filepath.Join(dir, "song_data", "A", "TRAAAAW128F429D538.json"), songObject)
	writeGzipObject(t, filepath.Join(dir, "song_data", "B", "TRBBB.json.gz"),
		strings.Replace(songObject, "SOMZWCG12A8C13C480", "SOBBB", 1)+"\n"+
			strings.Replace(songObject, "SOMZWCG12A8C13C480", "SOCCC", 1))

	db := &testutil.FakeDB{}
	n, err := NewStreamLoader(storage.Options{}, nil).Load(context.Background(), db, songsJob(filepath.Join(dir, "song_data")))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.Len(t, db.Copies, 1)
	copied := db.Copies[0]
	assert.Equal(t, `"staging_songs"`, copied.Table)
	assert.Equal(t, warehouse.ColumnNames(warehouse.StagingSongsColumns), copied.Columns)
	require.Len(t, copied.Rows, 3)

	row := copied.Rows[0]
	assert.Equal(t, int32(1), row[0])
	assert.Equal(t, "ARD7TVE1187B99BFB1", row[1])
	assert.Nil(t, row[2])
	assert.Nil(t, row[3])
	assert.Equal(t, "Casual", row[5])
	assert.Equal(t, "SOMZWCG12A8C13C480", row[6])
	assert.Equal(t, "I Didn't Mean To", row[7])
	assert.Equal(t, "218.93179", numericText(t, row[8]))
	assert.Equal(t, int32(0), row[9])

	// Objects are read in key order, records in file order.
	assert.Equal(t, "SOBBB", copied.Rows[1][6])
	assert.Equal(t, "SOCCC", copied.Rows[2][6])
}

func TestStreamLoaderJSONPaths(t *testing.T) {
	dir := t.TempDir()
	writeObject(t, filepath.Join(dir, "log_data", "2021-01-01-events.json"), eventObject+"\n"+
		strings.Replace(eventObject, `"page":"NextSong"`, `"page":"Home"`, 1)+"\n")
	writeEventJSONPaths(t, filepath.Join(dir, "log_json_path.json"))

	db := &testutil.FakeDB{}
	n, err := NewStreamLoader(storage.Options{}, nil).Load(context.Background(), db, Job{
		Table:     warehouse.StagingEvents,
		Columns:   warehouse.StagingEventsColumns,
		Source:    "file://" + filepath.Join(dir, "log_data"),
		JSONPaths: filepath.Join(dir, "log_json_path.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	row := db.Copies[0].Rows[0]
	require.Len(t, row, 18)
	assert.Equal(t, "Casual", row[0])
	assert.Equal(t, "Walter", row[2])
	assert.Equal(t, int32(0), row[4])
	assert.Equal(t, "218.93179", numericText(t, row[6]))
	assert.Equal(t, "1540919166796.0", row[11])
	assert.Equal(t, int32(38), row[12])
	assert.Equal(t, "200", row[14])
	assert.Equal(t, int64(1609459200000), row[15])
	assert.Equal(t, "Mozilla/5.0", row[16])
	assert.Equal(t, "39", row[17])
	assert.Equal(t, "Home", db.Copies[0].Rows[1][10])
}

func TestStreamLoaderFailures(t *testing.T) {
	dir := t.TempDir()
	writeObject(t, filepath.Join(dir, "malformed", "a.json"), songObject+"\n{\"num_songs\": ")
	writeObject(t, filepath.Join(dir, "array", "a.json"), "["+songObject+"]")
	writeObject(t, filepath.Join(dir, "badtype", "a.json"), strings.Replace(songObject, `"year": 0`, `"year": "nineteen"`, 1))
	writeObject(t, filepath.Join(dir, "good", "a.json"), songObject)
	writeObject(t, filepath.Join(dir, "short_paths.json"), `{"jsonpaths": ["$.num_songs"]}`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	tests := []struct {
		name    string
		job     Job
		wantErr string
	}{
		{"malformed json", songsJob(filepath.Join(dir, "malformed")), "invalid JSON"},
		{"non-object value", songsJob(filepath.Join(dir, "array")), "expected a JSON object"},
		{"uncoercible value", songsJob(filepath.Join(dir, "badtype")), "column year"},
		{"empty location", songsJob(filepath.Join(dir, "empty")), "no objects found"},
		{"missing location", songsJob(filepath.Join(dir, "nowhere")), "no objects found"},
		{"blank location", songsJob(""), "location is empty"},
		{"jsonpaths column mismatch", Job{
			Table:     warehouse.StagingSongs,
			Columns:   warehouse.StagingSongsColumns,
			Source:    filepath.Join(dir, "good"),
			JSONPaths: filepath.Join(dir, "short_paths.json"),
		}, "has 1 expressions but table staging_songs has 10 columns"},
		{"missing jsonpaths", Job{
			Table:     warehouse.StagingSongs,
			Columns:   warehouse.StagingSongsColumns,
			Source:    filepath.Join(dir, "good"),
			JSONPaths: filepath.Join(dir, "nope.json"),
		}, "nope.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &testutil.FakeDB{}
			n, err := NewStreamLoader(storage.Options{}, nil).Load(context.Background(), db, tt.job)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "copy staging_songs")
			assert.Zero(t, n)
			assert.Empty(t, db.Copies, "a failed load must not write any rows")
		})
	}
}
