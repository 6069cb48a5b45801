//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package redshift

import (
	"fmt"

	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

// Staging tables have no keys; Redshift loads them with COPY.
const stagingEventsCreate = `
CREATE TABLE IF NOT EXISTS staging_events (
    artist_name      VARCHAR(MAX),
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
    num_songs        INT,
    artist_id        VARCHAR(255),
    artist_latitude  NUMERIC,
    artist_longitude NUMERIC,
    artist_location  VARCHAR(255),
    artist_name      VARCHAR(MAX),
    song_id          VARCHAR(255),
    title            VARCHAR(255),
    duration         NUMERIC,
    year             INT
)`

// Dimensions are distributed and sorted on their key.
const usersCreate = `
CREATE TABLE IF NOT EXISTS users (
    user_id     VARCHAR(255) PRIMARY KEY,
    first_name  VARCHAR(128),
    last_name   VARCHAR(128),
    gender      CHAR,
    level       VARCHAR(4)
)
DISTKEY (user_id)
SORTKEY (user_id)`

const songsCreate = `
CREATE TABLE IF NOT EXISTS songs (
    song_id     VARCHAR(255) PRIMARY KEY,
    title       VARCHAR(255),
    artist_id   VARCHAR(255),
    year        INT4,
    duration    FLOAT8
)
DISTKEY (song_id)
SORTKEY (artist_id)`

const artistsCreate = `
CREATE TABLE IF NOT EXISTS artists (
    artist_id   VARCHAR(255) PRIMARY KEY,
    name        VARCHAR(MAX),
    location    VARCHAR(255),
    latitude    FLOAT8,
    longitude   FLOAT8
)
DISTKEY (artist_id)
SORTKEY (artist_id)`

const timeCreate = `
CREATE TABLE IF NOT EXISTS time (
    start_time  TIMESTAMP PRIMARY KEY,
    hour        INT4,
    day         INT4,
    week        INT4,
    month       INT4,
    year        INT4,
    weekday     INT4
)
DISTKEY (start_time)
SORTKEY (start_time, year, month, week, day, weekday, hour)`

// The fact table is distributed on its surrogate key and sorted on the
// columns it is joined through.
const songplaysCreate = `
CREATE TABLE IF NOT EXISTS songplays (
    songplay_id  INT8 IDENTITY(0,1) PRIMARY KEY,
    start_time   TIMESTAMP    NOT NULL REFERENCES time(start_time),
    user_id      VARCHAR(255) NOT NULL REFERENCES users(user_id),
    level        VARCHAR(4),
    song_id      VARCHAR(255) NOT NULL REFERENCES songs(song_id),
    artist_id    VARCHAR(255) NOT NULL REFERENCES artists(artist_id),
    session_id   INT4,
    location     VARCHAR(255),
    user_agent   VARCHAR(255),
    CONSTRAINT uniqueness UNIQUE (start_time, user_id)
)
DISTKEY (songplay_id)
SORTKEY (user_id, song_id, artist_id)`

var createByTable = map[string]string{
	warehouse.StagingEvents: stagingEventsCreate,
	warehouse.StagingSongs:  stagingSongsCreate,
	warehouse.Users:         usersCreate,
	warehouse.Songs:         songsCreate,
	warehouse.Artists:       artistsCreate,
	warehouse.Time:          timeCreate,
	warehouse.Songplays:     songplaysCreate,
}

func createTableQueries() []warehouse.Statement {
	stmts := make([]warehouse.Statement, 0, len(warehouse.Tables))
	for _, table := range warehouse.Tables {
		stmts = append(stmts, warehouse.Statement{
			Name:  "create " + table,
			Table: table,
			SQL:   createByTable[table],
		})
	}
	return stmts
}

// CASCADE is required: dropping a dimension must also drop the fact
// table's foreign key that references it.
func dropTableQueries() []warehouse.Statement {
	stmts := make([]warehouse.Statement, 0, len(warehouse.DropOrder))
	for _, table := range warehouse.DropOrder {
		stmts = append(stmts, warehouse.Statement{
			Name:  "drop " + table,
			Table: table,
			SQL:   fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table),
		})
	}
	return stmts
}
