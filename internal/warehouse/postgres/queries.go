package postgres

import "github.com/pgEdge/pgedge-dwhload/internal/warehouse"

const usersInsert = `
INSERT INTO users (user_id, first_name, last_name, gender, level)
SELECT DISTINCT
    user_id,
    first_name,
    last_name,
    gender,
    level
FROM staging_events
NATURAL INNER JOIN (
    SELECT user_id, MAX(ts) AS ts
    FROM staging_events
    GROUP BY 1
) AS last_update
WHERE user_id IS NOT NULL
  AND user_id NOT IN (SELECT user_id FROM users)`

const songsInsert = `
INSERT INTO songs (song_id, title, artist_id, year, duration)
SELECT DISTINCT
    song_id,
    title,
    artist_id,
    year,
    duration
FROM staging_songs
WHERE song_id IS NOT NULL
  AND song_id NOT IN (SELECT song_id FROM songs)`

const artistsInsert = `
INSERT INTO artists (artist_id, name, location, latitude, longitude)
SELECT DISTINCT
    artist_id,
    artist_name,
    artist_location,
    MAX(CAST(artist_latitude AS FLOAT8)) AS artist_latitude,
    MAX(CAST(artist_longitude AS FLOAT8)) AS artist_longitude
FROM staging_songs
WHERE artist_id IS NOT NULL
  AND artist_id NOT IN (SELECT artist_id FROM artists)
GROUP BY 1, 2, 3`

// TIMESTAMP 'epoch' + ts * INTERVAL '1 millisecond' is the PostgreSQL
// spelling of DATEADD('ms', ts, '1970-01-01'). EXTRACT(dow) numbers days
// from Sunday = 0, like Redshift's weekday.
const timeInsert = `
INSERT INTO "time" (start_time, hour, day, week, month, year, weekday)
WITH times AS (
    SELECT TIMESTAMP 'epoch' + ts * INTERVAL '1 millisecond' AS start_time
    FROM staging_events
    WHERE ts IS NOT NULL
    GROUP BY 1
)
SELECT DISTINCT
    start_time,
    EXTRACT(hour FROM start_time)  AS hour,
    EXTRACT(day FROM start_time)   AS day,
    EXTRACT(week FROM start_time)  AS week,
    EXTRACT(month FROM start_time) AS month,
    EXTRACT(year FROM start_time)  AS year,
    EXTRACT(dow FROM start_time)   AS weekday
FROM times
WHERE start_time NOT IN (SELECT start_time FROM "time")`

const songplaysInsert = `
INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
WITH song_artist AS (
    SELECT
        songs.song_id,
        songs.artist_id,
        songs.title    AS song_name,
        songs.duration AS duration,
        artists.name   AS artist_name
    FROM songs
    INNER JOIN artists USING (artist_id)
)
SELECT DISTINCT
    TIMESTAMP 'epoch' + se.ts * INTERVAL '1 millisecond' AS start_time,
    se.user_id,
    se.level,
    sa.song_id,
    sa.artist_id,
    se.session_id,
    se.location,
    se.user_agent
FROM staging_events se
INNER JOIN song_artist sa
    ON  sa.artist_name = se.artist_name
    AND sa.song_name = se.song
    AND sa.duration = se.length
WHERE se.page = 'NextSong'
  AND NOT EXISTS (
      SELECT 1
      FROM songplays sp
      WHERE sp.start_time = TIMESTAMP 'epoch' + se.ts * INTERVAL '1 millisecond'
        AND sp.user_id = se.user_id
  )`

func insertTableQueries() []warehouse.Statement {
	sqlByTable := map[string]string{
		warehouse.Users:     usersInsert,
		warehouse.Songs:     songsInsert,
		warehouse.Artists:   artistsInsert,
		warehouse.Time:      timeInsert,
		warehouse.Songplays: songplaysInsert,
	}

	stmts := make([]warehouse.Statement, 0, len(warehouse.TransformOrder))
	for _, table := range warehouse.TransformOrder {
		stmts = append(stmts, warehouse.Statement{
			Name:  "insert " + table,
			Table: table,
			SQL:   sqlByTable[table],
		})
	}
	return stmts
}
