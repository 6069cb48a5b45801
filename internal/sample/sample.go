//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package sample generates a synthetic song catalog and listening event log
// in the same JSON layout as the public song_data and log_data sets, so the
// whole pipeline can run without access to them.
package sample

import (
	"fmt"
	"strconv"
	"time"
)

// Song is one song_data object.
type Song struct {
	NumSongs        int      `json:"num_songs"`
	ArtistID        string   `json:"artist_id"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
	ArtistLocation  string   `json:"artist_location"`
	ArtistName      string   `json:"artist_name"`
	SongID          string   `json:"song_id"`
	Title           string   `json:"title"`
	Duration        float64  `json:"duration"`
	Year            int      `json:"year"`

	// TrackID names the object the song is written to.
	TrackID string `json:"-"`
}

// Event is one log_data record.
type Event struct {
	Artist        *string  `json:"artist"`
	Auth          string   `json:"auth"`
	FirstName     string   `json:"firstName"`
	Gender        string   `json:"gender"`
	ItemInSession int      `json:"itemInSession"`
	LastName      string   `json:"lastName"`
	Length        *float64 `json:"length"`
	Level         string   `json:"level"`
	Location      string   `json:"location"`
	Method        string   `json:"method"`
	Page          string   `json:"page"`
	Registration  float64  `json:"registration"`
	SessionID     int      `json:"sessionId"`
	Song          *string  `json:"song"`
	Status        int      `json:"status"`
	TS            int64    `json:"ts"`
	UserAgent     string   `json:"userAgent"`
	UserID        string   `json:"userId"`
}

// Time returns the event time.
func (e Event) Time() time.Time {
	return time.UnixMilli(e.TS).UTC()
}

// Options sizes the generated data set.
type Options struct {
	Seed uint64

	Artists int
	Songs   int
	Users   int
	Events  int

	// Start is the time of the first event.
	Start time.Time

	// UnmatchedRatio is the share of NextSong events that name a song
	// absent from the catalog.
	UnmatchedRatio float64
}

// DefaultOptions returns a small data set that covers every branch of the
// transform.
func DefaultOptions() Options {
	return Options{
		Seed:           1,
		Artists:        20,
		Songs:          50,
		Users:          10,
		Events:         500,
		Start:          time.Date(2018, time.November, 1, 0, 0, 0, 0, time.UTC),
		UnmatchedRatio: 0.1,
	}
}

// Validate checks that the options can produce a data set.
func (o Options) Validate() error {
	if o.Artists < 1 || o.Songs < 1 || o.Users < 1 || o.Events < 1 {
		return fmt.Errorf("artists, songs, users and events must all be at least 1")
	}
	if o.UnmatchedRatio < 0 || o.UnmatchedRatio > 1 {
		return fmt.Errorf("unmatched ratio must be between 0 and 1")
	}
	return nil
}

// Dataset is a generated catalog and event log.
type Dataset struct {
	Songs  []Song
	Events []Event
}

type artist struct {
	id        string
	name      string
	location  string
	latitude  *float64
	longitude *float64
}

type user struct {
	id           string
	firstName    string
	lastName     string
	gender       string
	level        string
	location     string
	userAgent    string
	registration float64
}

var (
	pages       = []string{"NextSong", "Home", "Settings", "Logout", "Upgrade", "Help"}
	pageWeights = []int{80, 8, 3, 4, 3, 2}
)

// Generate builds a data set. Artist and song IDs are unique, event
// timestamps strictly increase, and a free user may upgrade to paid
// part way through the log.
func Generate(opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Start.IsZero() {
		opts.Start = DefaultOptions().Start
	}

	f := NewFakerWithSeed(opts.Seed)

	artists := make([]artist, opts.Artists)
	artistIDs := make(map[string]bool, opts.Artists)
	for i := range artists {
		a := artist{id: uniqueID(f, "AR", artistIDs), name: f.ArtistName()}
		if f.Chance(0.7) {
			a.location = f.Location()
		}
		if f.Chance(0.5) {
			lat, long := f.Latitude(), f.Longitude()
			a.latitude, a.longitude = &lat, &long
		}
		artists[i] = a
	}

	ds := &Dataset{Songs: make([]Song, opts.Songs)}
	songIDs := make(map[string]bool, opts.Songs)
	trackIDs := make(map[string]bool, opts.Songs)
	for i := range ds.Songs {
		a := Choose(f, artists)
		year := 0
		if f.Chance(0.6) {
			year = f.Int(1960, 2018)
		}
		ds.Songs[i] = Song{
			NumSongs:        1,
			ArtistID:        a.id,
			ArtistLatitude:  a.latitude,
			ArtistLongitude: a.longitude,
			ArtistLocation:  a.location,
			ArtistName:      a.name,
			SongID:          uniqueID(f, "SO", songIDs),
			Title:           f.SongTitle(),
			Duration:        Round5(f.Float64(60, 600)),
			Year:            year,
			TrackID:         uniqueID(f, "TR", trackIDs),
		}
	}

	users := make([]*user, opts.Users)
	regStart := opts.Start.AddDate(-1, 0, 0).UnixMilli()
	for i := range users {
		users[i] = &user{
			id:           strconv.Itoa(i + 1),
			firstName:    f.FirstName(),
			lastName:     f.LastName(),
			gender:       f.Gender(),
			level:        ChooseWeighted(f, []string{"free", "paid"}, []int{3, 1}),
			location:     f.Location(),
			userAgent:    f.UserAgent(),
			registration: float64(regStart + int64(f.Int(0, 300*24*3600)*1000)),
		}
	}

	ds.Events = make([]Event, 0, opts.Events)
	ts := opts.Start.UnixMilli()
	sessions := make(map[string][2]int) // user -> {session id, item in session}
	nextSession := 1
	for i := 0; i < opts.Events; i++ {
		u := Choose(f, users)

		sess, ok := sessions[u.id]
		if !ok || f.Chance(0.05) {
			sess = [2]int{nextSession, 0}
			nextSession++
		} else {
			sess[1]++
		}
		sessions[u.id] = sess

		page := ChooseWeighted(f, pages, pageWeights)
		ev := Event{
			Auth:          "Logged In",
			FirstName:     u.firstName,
			Gender:        u.gender,
			ItemInSession: sess[1],
			LastName:      u.lastName,
			Level:         u.level,
			Location:      u.location,
			Method:        "GET",
			Page:          page,
			Registration:  u.registration,
			SessionID:     sess[0],
			Status:        200,
			TS:            ts,
			UserAgent:     u.userAgent,
			UserID:        u.id,
		}

		switch page {
		case "NextSong":
			ev.Method = "PUT"
			s := Choose(f, ds.Songs)
			artistName, title, length := s.ArtistName, s.Title, s.Duration
			if f.Chance(opts.UnmatchedRatio) {
				artistName, title = f.ArtistName(), f.SongTitle()
				length = Round5(f.Float64(60, 600))
			}
			ev.Artist, ev.Song, ev.Length = &artistName, &title, &length
		case "Upgrade":
			u.level = "paid"
		case "Logout":
			ev.Method = "PUT"
			ev.Status = 307
			delete(sessions, u.id)
		}

		ds.Events = append(ds.Events, ev)
		ts += int64(f.Int(1, 300_000))
	}

	return ds, nil
}

func uniqueID(f *Faker, prefix string, seen map[string]bool) string {
	for {
		id := f.ID(prefix, 16)
		if !seen[id] {
			seen[id] = true
			return id
		}
	}
}
