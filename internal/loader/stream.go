package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-dwhload/internal/logging"
	"github.com/pgEdge/pgedge-dwhload/internal/storage"
	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

// StreamLoader performs the COPY on the client: it reads every object under
// the source location and sends the mapped rows with one CopyFrom.
type StreamLoader struct {
	opts     storage.Options
	observer warehouse.Observer
}

// NewStreamLoader creates a client-side loader.
func NewStreamLoader(opts storage.Options, observer warehouse.Observer) *StreamLoader {
	return &StreamLoader{opts: opts, observer: observer}
}

// Load streams job's objects into job.Table.
func (l *StreamLoader) Load(ctx context.Context, db warehouse.DB, job Job) (int64, error) {
	stmt := warehouse.Statement{
		Name:  "copy " + job.Table,
		Table: job.Table,
		SQL:   fmt.Sprintf("COPY %s FROM STDIN (FORMAT binary)", pgx.Identifier{job.Table}.Sanitize()),
	}

	start := time.Now()
	n, keys, err := l.load(ctx, db, job)
	elapsed := time.Since(start)

	warehouse.Observe(l.observer, "load", stmt, n, elapsed, err)
	if err != nil {
		warehouse.LogError("load", stmt, err)
		return 0, fmt.Errorf("%s: %w", stmt.Name, err)
	}

	logging.Info().
		Str("step", "load").
		Str("statement", stmt.Name).
		Str("source", job.Source).
		Int("objects", keys).
		Int64("rows", n).
		Dur("duration", elapsed).
		Msg("Statement complete")

	return n, nil
}

func (l *StreamLoader) load(ctx context.Context, db warehouse.DB, job Job) (int64, int, error) {
	if len(job.Columns) == 0 {
		return 0, 0, fmt.Errorf("no columns for table %s", job.Table)
	}

	mapper, err := l.mapper(ctx, job)
	if err != nil {
		return 0, 0, err
	}

	loc, err := storage.ParseLocation(job.Source)
	if err != nil {
		return 0, 0, err
	}
	store, err := storage.Open(ctx, loc, l.opts)
	if err != nil {
		return 0, 0, err
	}
	keys, err := store.List(ctx, loc.Path)
	if err != nil {
		return 0, 0, err
	}
	if len(keys) == 0 {
		return 0, 0, fmt.Errorf("no objects found at %s", job.Source)
	}

	logging.Debug().
		Str("table", job.Table).
		Str("source", job.Source).
		Int("objects", len(keys)).
		Msg("Streaming objects")

	src := &rowSource{
		ctx:     ctx,
		store:   store,
		keys:    keys,
		mapper:  mapper,
		columns: job.Columns,
	}
	defer src.close()

	n, err := db.CopyFrom(ctx, pgx.Identifier{job.Table}, warehouse.ColumnNames(job.Columns), src)
	if err != nil {
		return 0, len(keys), err
	}
	return n, len(keys), nil
}

func (l *StreamLoader) mapper(ctx context.Context, job Job) (fieldMapper, error) {
	if job.JSONPaths == "" {
		return autoMapper{}, nil
	}

	loc, err := storage.ParseLocation(job.JSONPaths)
	if err != nil {
		return nil, fmt.Errorf("jsonpaths: %w", err)
	}
	store, err := storage.Open(ctx, loc, l.opts)
	if err != nil {
		return nil, err
	}
	rc, err := storage.OpenObject(ctx, store, loc.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	paths, err := ParseJSONPaths(rc)
	if err != nil {
		return nil, fmt.Errorf("jsonpaths %s: %w", job.JSONPaths, err)
	}
	if len(paths) != len(job.Columns) {
		return nil, fmt.Errorf("jsonpaths %s has %d expressions but table %s has %d columns",
			job.JSONPaths, len(paths), job.Table, len(job.Columns))
	}
	return pathMapper(paths), nil
}

// rowSource implements pgx.CopyFromSource over a sequence of objects, each
// holding zero or more concatenated JSON objects.
type rowSource struct {
	ctx     context.Context
	store   storage.Store
	keys    []string
	mapper  fieldMapper
	columns []warehouse.Column

	next   int
	key    string
	body   io.ReadCloser
	dec    *json.Decoder
	record int
	values []any
	err    error
}

func (s *rowSource) Next() bool {
	if s.err != nil {
		return false
	}

	for {
		if s.dec == nil {
			if s.next >= len(s.keys) {
				return false
			}
			if err := s.open(s.keys[s.next]); err != nil {
				s.err = err
				return false
			}
			s.next++
		}

		var raw any
		err := s.dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			s.close()
			continue
		}
		s.record++
		if err != nil {
			s.err = fmt.Errorf("%s: record %d: invalid JSON: %w", s.key, s.record, err)
			return false
		}

		obj, ok := raw.(map[string]any)
		if !ok {
			s.err = fmt.Errorf("%s: record %d: expected a JSON object, got %s", s.key, s.record, jsonKind(raw))
			return false
		}

		values, err := rowValues(s.mapper.extract(obj), s.columns)
		if err != nil {
			s.err = fmt.Errorf("%s: record %d: %w", s.key, s.record, err)
			return false
		}
		s.values = values
		return true
	}
}

func (s *rowSource) Values() ([]any, error) {
	return s.values, nil
}

func (s *rowSource) Err() error {
	return s.err
}

func (s *rowSource) open(key string) error {
	rc, err := storage.OpenObject(s.ctx, s.store, key)
	if err != nil {
		return err
	}
	s.key = key
	s.body = rc
	s.dec = json.NewDecoder(rc)
	s.dec.UseNumber()
	s.record = 0
	return nil
}

func (s *rowSource) close() {
	if s.body != nil {
		s.body.Close()
	}
	s.body = nil
	s.dec = nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
