//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the postgres dialect.
// Run with: go test -tags=integration ./internal/pipeline/...
// Starts a PostgreSQL container unless PGEDGE_TEST_CONN names a server.

package pipeline_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgEdge/pgedge-dwhload/internal/config"
	"github.com/pgEdge/pgedge-dwhload/internal/db"
	"github.com/pgEdge/pgedge-dwhload/internal/pipeline"
	"github.com/pgEdge/pgedge-dwhload/internal/sample"
	"github.com/pgEdge/pgedge-dwhload/internal/storage"
	"github.com/pgEdge/pgedge-dwhload/internal/testutil"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse/postgres"
)

func connect(t *testing.T) *pgx.Conn {
	t.Helper()
	connStr := testutil.TestDatabase(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	conn, err := db.Connect(ctx, connStr, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(context.Background()) })
	return conn
}

func freshSchema(t *testing.T, conn *pgx.Conn) *pipeline.Pipeline {
	t.Helper()
	p := pipeline.New(conn, postgres.New(), pipeline.Options{})
	require.NoError(t, p.ResetSchema(context.Background(), true))
	return p
}

func columns(t *testing.T, conn *pgx.Conn) []string {
	t.Helper()
	rows, err := conn.Query(context.Background(), `
        SELECT table_name || '.' || column_name || ':' || data_type
        FROM information_schema.columns
        WHERE table_schema = current_schema()
          AND table_name = ANY($1)
        ORDER BY table_name, ordinal_position`, warehouse.Tables)
	require.NoError(t, err)
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	require.NoError(t, err)
	return cols
}

func counts(t *testing.T, conn *pgx.Conn) map[string]int64 {
	t.Helper()
	tc, err := db.CountRows(context.Background(), conn, warehouse.Tables)
	require.NoError(t, err)
	out := make(map[string]int64, len(tc))
	for _, c := range tc {
		require.True(t, c.Exists, "table %s missing", c.Table)
		out[c.Table] = c.Rows
	}
	return out
}

func exec(t *testing.T, conn *pgx.Conn, sql string, args ...any) {
	t.Helper()
	_, err := conn.Exec(context.Background(), sql, args...)
	require.NoError(t, err)
}

func insertSong(t *testing.T, conn *pgx.Conn, songID, artistID, title, artist string, duration float64, year int, location string, lat, long *float64) {
	exec(t, conn, `
        INSERT INTO staging_songs (num_songs, artist_id, artist_latitude, artist_longitude,
            artist_location, artist_name, song_id, title, duration, year)
        VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		artistID, lat, long, location, artist, songID, title, duration, year)
}

func insertEvent(t *testing.T, conn *pgx.Conn, userID, page, artist, song string, length float64, ts int64) {
	exec(t, conn, `
        INSERT INTO staging_events (artist_name, auth, first_name, gender, item_in_session,
            last_name, length, level, location, method, page, registration, session_id,
            song, status, ts, user_agent, user_id)
        VALUES ($1, 'Logged In', 'Jane', 'F', 0, 'Doe', $2, 'free', 'NY', 'PUT', $3,
            '1540919166796.0', 1, $4, '200', $5, 'UA', $6)`,
		artist, length, page, song, ts, userID)
}

func ptr(f float64) *float64 { return &f }

func TestResetSchemaIsIdempotent(t *testing.T) {
	conn := connect(t)
	p := freshSchema(t, conn)

	first := columns(t, conn)
	require.NotEmpty(t, first)

	insertSong(t, conn, "S1", "A1", "Test Song", "Test Artist", 180.0, 2000, "NY", ptr(40.7), ptr(-74.0))
	require.NoError(t, p.ResetSchema(context.Background(), true))

	assert.Equal(t, first, columns(t, conn))
	for table, n := range counts(t, conn) {
		assert.Zero(t, n, "table %s not empty after reset", table)
	}
}

func TestTransformEndToEnd(t *testing.T) {
	conn := connect(t)
	p := freshSchema(t, conn)
	ctx := context.Background()

	insertSong(t, conn, "S1", "A1", "Test Song", "Test Artist", 180.0, 2000, "NY", ptr(40.7), ptr(-74.0))
	insertEvent(t, conn, "U1", "NextSong", "Test Artist", "Test Song", 180.0, 1609459200000)

	inserted, err := p.Transform(ctx)
	require.NoError(t, err)
	for _, table := range warehouse.TransformOrder {
		assert.Equal(t, int64(1), inserted[table], table)
	}

	var (
		artistName, location string
		lat, long            float64
	)
	require.NoError(t, conn.QueryRow(ctx,
		`SELECT name, location, latitude, longitude FROM artists WHERE artist_id = 'A1'`).
		Scan(&artistName, &location, &lat, &long))
	assert.Equal(t, "Test Artist", artistName)
	assert.Equal(t, "NY", location)
	assert.InDelta(t, 40.7, lat, 1e-9)
	assert.InDelta(t, -74.0, long, 1e-9)

	var (
		title, artistID string
		year            int
		duration        float64
	)
	require.NoError(t, conn.QueryRow(ctx,
		`SELECT title, artist_id, year, duration FROM songs WHERE song_id = 'S1'`).
		Scan(&title, &artistID, &year, &duration))
	assert.Equal(t, "Test Song", title)
	assert.Equal(t, "A1", artistID)
	assert.Equal(t, 2000, year)
	assert.InDelta(t, 180.0, duration, 1e-9)

	var first, last, gender, level string
	require.NoError(t, conn.QueryRow(ctx,
		`SELECT first_name, last_name, gender, level FROM users WHERE user_id = 'U1'`).
		Scan(&first, &last, &gender, &level))
	assert.Equal(t, []string{"Jane", "Doe", "F", "free"}, []string{first, last, gender, level})

	var start time.Time
	var hour, day, week, month, yr, weekday int
	require.NoError(t, conn.QueryRow(ctx,
		`SELECT start_time, hour, day, week, month, year, weekday FROM "time"`).
		Scan(&start, &hour, &day, &week, &month, &yr, &weekday))
	assert.Equal(t, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, []int{0, 1, 53, 1, 2021, 5}, []int{hour, day, week, month, yr, weekday})

	var spStart time.Time
	var spUser, spSong, spArtist, spLevel, spLocation, spAgent string
	var spSession int
	require.NoError(t, conn.QueryRow(ctx, `
        SELECT start_time, user_id, level, song_id, artist_id, session_id, location, user_agent
        FROM songplays`).
		Scan(&spStart, &spUser, &spLevel, &spSong, &spArtist, &spSession, &spLocation, &spAgent))
	assert.Equal(t, start.UTC(), spStart.UTC())
	assert.Equal(t, "U1", spUser)
	assert.Equal(t, "S1", spSong)
	assert.Equal(t, "A1", spArtist)
	assert.Equal(t, "free", spLevel)
	assert.Equal(t, 1, spSession)
	assert.Equal(t, "NY", spLocation)
	assert.Equal(t, "UA", spAgent)
}

func TestTransformIsIdempotent(t *testing.T) {
	conn := connect(t)
	p := freshSchema(t, conn)
	ctx := context.Background()

	insertSong(t, conn, "S1", "A1", "Test Song", "Test Artist", 180.0, 2000, "NY", ptr(40.7), ptr(-74.0))
	insertSong(t, conn, "S2", "A2", "Other Song", "Other Artist", 201.5, 0, "", nil, nil)
	insertEvent(t, conn, "U1", "NextSong", "Test Artist", "Test Song", 180.0, 1609459200000)
	insertEvent(t, conn, "U2", "NextSong", "Other Artist", "Other Song", 201.5, 1609459260000)

	_, err := p.Transform(ctx)
	require.NoError(t, err)
	before := counts(t, conn)

	inserted, err := p.Transform(ctx)
	require.NoError(t, err)
	for _, table := range warehouse.TransformOrder {
		assert.Zero(t, inserted[table], "second run inserted into %s", table)
	}
	assert.Equal(t, before, counts(t, conn))
}

func TestTransformDropsEvents(t *testing.T) {
	conn := connect(t)
	p := freshSchema(t, conn)
	ctx := context.Background()

	insertSong(t, conn, "S1", "A1", "Test Song", "Test Artist", 180.0, 2000, "NY", ptr(40.7), ptr(-74.0))
	insertEvent(t, conn, "U1", "Home", "Test Artist", "Test Song", 180.0, 1609459200000)
	insertEvent(t, conn, "U1", "NextSong", "Test Artist", "Test Song", 180.5, 1609459300000)
	insertEvent(t, conn, "U1", "NextSong", "Test Artist", "Unknown Song", 180.0, 1609459400000)
	insertEvent(t, conn, "U1", "NextSong", "Someone Else", "Test Song", 180.0, 1609459500000)

	inserted, err := p.Transform(ctx)
	require.NoError(t, err)
	assert.Zero(t, inserted[warehouse.Songplays])

	// Every event still lands in the time dimension.
	assert.Equal(t, int64(4), inserted[warehouse.Time])
}

func TestUsersKeepLatestLevel(t *testing.T) {
	conn := connect(t)
	p := freshSchema(t, conn)
	ctx := context.Background()

	insertEvent(t, conn, "U1", "Home", "", "", 0, 1609459200000)
	exec(t, conn, `UPDATE staging_events SET level = 'paid'`)
	insertEvent(t, conn, "U1", "Upgrade", "", "", 0, 1609459100000)

	_, err := p.Transform(ctx)
	require.NoError(t, err)

	var level string
	require.NoError(t, conn.QueryRow(ctx, `SELECT level FROM users WHERE user_id = 'U1'`).Scan(&level))
	assert.Equal(t, "paid", level)
}

func TestRunETLFromSampleData(t *testing.T) {
	conn := connect(t)
	ctx := context.Background()

	opts := sample.DefaultOptions()
	opts.Events = 300
	ds, err := sample.Generate(opts)
	require.NoError(t, err)

	root, err := storage.ParseLocation(filepath.Join(t.TempDir(), "dataset"))
	require.NoError(t, err)
	store, err := storage.Open(ctx, root, storage.Options{})
	require.NoError(t, err)
	manifest, err := sample.Write(ctx, store, root, ds)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Dialect = config.DialectPostgres
	cfg.S3 = config.S3Config{
		LogData:     manifest.LogData,
		LogJSONPath: manifest.LogJSONPath,
		SongData:    manifest.SongData,
	}

	p := pipeline.New(conn, postgres.New(), pipeline.Options{Atomic: true})
	require.NoError(t, p.ResetSchema(ctx, true))

	report, err := p.RunETL(ctx, pipeline.Jobs(cfg), pipeline.ETLOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(len(ds.Events)), report.Loaded[warehouse.StagingEvents])
	assert.Equal(t, int64(len(ds.Songs)), report.Loaded[warehouse.StagingSongs])

	catalog := make(map[string]bool, len(ds.Songs))
	for _, s := range ds.Songs {
		catalog[strings.Join([]string{s.ArtistName, s.Title}, "\x00")] = true
	}
	matched := 0
	for _, ev := range ds.Events {
		if ev.Page == "NextSong" && catalog[strings.Join([]string{*ev.Artist, *ev.Song}, "\x00")] {
			matched++
		}
	}
	require.Positive(t, matched)
	assert.Equal(t, int64(matched), report.Inserted[warehouse.Songplays])

	// Every fact row resolves to exactly one row in each dimension.
	var orphans int
	require.NoError(t, conn.QueryRow(ctx, `
        SELECT count(*)
        FROM songplays sp
        LEFT JOIN "time" t ON t.start_time = sp.start_time
        LEFT JOIN users u ON u.user_id = sp.user_id
        LEFT JOIN songs s ON s.song_id = sp.song_id
        LEFT JOIN artists a ON a.artist_id = sp.artist_id
        WHERE t.start_time IS NULL OR u.user_id IS NULL
           OR s.song_id IS NULL OR a.artist_id IS NULL`).Scan(&orphans))
	assert.Zero(t, orphans)

	var duplicates int
	require.NoError(t, conn.QueryRow(ctx, `
        SELECT count(*) FROM (
            SELECT start_time, user_id FROM songplays
            GROUP BY 1, 2 HAVING count(*) > 1
        ) d`).Scan(&duplicates))
	assert.Zero(t, duplicates)

	require.NoError(t, db.RecordETL(ctx, conn, config.DialectPostgres, time.Now(), true, true))
	meta, err := db.GetAllMetadata(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, config.DialectPostgres, meta[db.KeyDialect])
	assert.NotEmpty(t, meta[db.KeyLoadCompletedAt])
	assert.NotEmpty(t, meta[db.KeyETLCompletedAt])
}
