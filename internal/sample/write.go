package sample

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pgEdge/pgedge-dwhload/internal/loader"
	"github.com/pgEdge/pgedge-dwhload/internal/logging"
	"github.com/pgEdge/pgedge-dwhload/internal/storage"
)

// Object names below the output root.
const (
	LogDataDir    = "log_data"
	SongDataDir   = "song_data"
	JSONPathsFile = "log_json_path.json"
)

// Manifest reports what Write produced and where.
type Manifest struct {
	LogData     string
	SongData    string
	LogJSONPath string
	Objects     int
	Songs       int
	Events      int
}

// Write stores ds below root: one object per song under
// song_data/X/Y/Z/<track>.json, one newline-delimited object per day under
// log_data/YYYY/MM/YYYY-MM-DD-events.json, and the JSONPaths descriptor
// for the event log.
func Write(ctx context.Context, store storage.Store, root storage.Location, ds *Dataset) (*Manifest, error) {
	m := &Manifest{
		LogData:     root.Join(LogDataDir).String(),
		SongData:    root.Join(SongDataDir).String(),
		LogJSONPath: root.Join(JSONPathsFile).String(),
		Songs:       len(ds.Songs),
		Events:      len(ds.Events),
	}

	put := func(name string, data []byte) error {
		if err := store.Put(ctx, root.Join(name).Path, data); err != nil {
			return err
		}
		m.Objects++
		return nil
	}

	for _, s := range ds.Songs {
		data, err := json.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("failed to encode song %s: %w", s.SongID, err)
		}
		t := s.TrackID
		name := fmt.Sprintf("%s/%c/%c/%c/%s.json", SongDataDir, t[2], t[3], t[4], t)
		if err := put(name, data); err != nil {
			return nil, err
		}
	}

	days := make(map[string]*bytes.Buffer)
	for _, ev := range ds.Events {
		day := ev.Time().Format("2006-01-02")
		buf, ok := days[day]
		if !ok {
			buf = &bytes.Buffer{}
			days[day] = buf
		}
		data, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("failed to encode event at %d: %w", ev.TS, err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}
	dayNames := make([]string, 0, len(days))
	for day := range days {
		dayNames = append(dayNames, day)
	}
	sort.Strings(dayNames)
	for _, day := range dayNames {
		name := fmt.Sprintf("%s/%s/%s/%s-events.json", LogDataDir, day[:4], day[5:7], day)
		if err := put(name, days[day].Bytes()); err != nil {
			return nil, err
		}
	}

	descriptor, err := json.MarshalIndent(struct {
		JSONPaths []string `json:"jsonpaths"`
	}{loader.EventLogJSONPaths}, "", "    ")
	if err != nil {
		return nil, err
	}
	if err := put(JSONPathsFile, descriptor); err != nil {
		return nil, err
	}

	logging.Info().
		Str("root", root.String()).
		Int("songs", m.Songs).
		Int("events", m.Events).
		Int("objects", m.Objects).
		Msg("Sample data written")

	return m, nil
}
