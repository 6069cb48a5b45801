//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

const stagingEventsCreate = `
CREATE TABLE IF NOT EXISTS staging_events (
    artist_name      TEXT,
    auth             VARCHAR(255),
    first_name       VARCHAR(255),
    gender           VARCHAR(255),
    item_in_session  INT4,
    last_name        VARCHAR(255),
    length           NUMERIC,
    level            VARCHAR(255),
    location         VARCHAR(255),
    method           VARCHAR(255),
    page             VARCHAR(255),
    registration     VARCHAR(255),
    session_id       INT4,
    song             VARCHAR(255),
    status           VARCHAR(255),
    ts               BIGINT,
    user_agent       VARCHAR(255),
    user_id          VARCHAR(255)
)`

const stagingSongsCreate = `
CREATE TABLE IF NOT EXISTS staging_songs (
    num_songs        INT4,
    artist_id        VARCHAR(255),
    artist_latitude  NUMERIC,
    artist_longitude NUMERIC,
    artist_location  VARCHAR(255),
    artist_name      TEXT,
    song_id          VARCHAR(255),
    title            VARCHAR(255),
    duration         NUMERIC,
    year             INT4
)`

const usersCreate = `
CREATE TABLE IF NOT EXISTS users (
    user_id     VARCHAR(255) PRIMARY KEY,
    first_name  VARCHAR(128),
    last_name   VARCHAR(128),
    gender      CHAR(1),
    level       VARCHAR(4)
)`

const songsCreate = `
CREATE TABLE IF NOT EXISTS songs (
    song_id     VARCHAR(255) PRIMARY KEY,
    title       VARCHAR(255),
    artist_id   VARCHAR(255),
    year        INT4,
    duration    FLOAT8
)`

const artistsCreate = `
CREATE TABLE IF NOT EXISTS artists (
    artist_id   VARCHAR(255) PRIMARY KEY,
    name        TEXT,
    location    VARCHAR(255),
    latitude    FLOAT8,
    longitude   FLOAT8
)`

const timeCreate = `
CREATE TABLE IF NOT EXISTS "time" (
    start_time  TIMESTAMP PRIMARY KEY,
    hour        INT4,
    day         INT4,
    week        INT4,
    month       INT4,
    year        INT4,
    weekday     INT4
)`

const songplaysCreate = `
CREATE TABLE IF NOT EXISTS songplays (
    songplay_id  BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    start_time   TIMESTAMP    NOT NULL REFERENCES "time"(start_time),
    user_id      VARCHAR(255) NOT NULL REFERENCES users(user_id),
    level        VARCHAR(4),
    song_id      VARCHAR(255) NOT NULL REFERENCES songs(song_id),
    artist_id    VARCHAR(255) NOT NULL REFERENCES artists(artist_id),
    session_id   INT4,
    location     VARCHAR(255),
    user_agent   VARCHAR(255),
    CONSTRAINT songplays_uniqueness UNIQUE (start_time, user_id)
)`

// PostgreSQL has no distribution or sort keys; the sort keys that are not
// already covered by a primary key become secondary indexes.
const (
	songsArtistIndex = `
CREATE INDEX IF NOT EXISTS songs_artist_id_idx ON songs (artist_id)`

	songplaysJoinIndex = `
CREATE INDEX IF NOT EXISTS songplays_user_song_artist_idx
    ON songplays (user_id, song_id, artist_id)`
)

func createTableQueries() []warehouse.Statement {
	createByTable := map[string]string{
		warehouse.StagingEvents: stagingEventsCreate,
		warehouse.StagingSongs:  stagingSongsCreate,
		warehouse.Users:         usersCreate,
		warehouse.Songs:         songsCreate,
		warehouse.Artists:       artistsCreate,
		warehouse.Time:          timeCreate,
		warehouse.Songplays:     songplaysCreate,
	}
	indexesByTable := map[string][]string{
		warehouse.Songs:     {songsArtistIndex},
		warehouse.Songplays: {songplaysJoinIndex},
	}

	var stmts []warehouse.Statement
	for _, table := range warehouse.Tables {
		stmts = append(stmts, warehouse.Statement{
			Name:  "create " + table,
			Table: table,
			SQL:   createByTable[table],
		})
		for _, idx := range indexesByTable[table] {
			stmts = append(stmts, warehouse.Statement{
				Name:  "index " + table,
				Table: table,
				SQL:   idx,
			})
		}
	}
	return stmts
}

func dropTableQueries() []warehouse.Statement {
	stmts := make([]warehouse.Statement, 0, len(warehouse.DropOrder))
	for _, table := range warehouse.DropOrder {
		stmts = append(stmts, warehouse.Statement{
			Name:  "drop " + table,
			Table: table,
			SQL:   fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pgx.Identifier{table}.Sanitize()),
		})
	}
	return stmts
}
