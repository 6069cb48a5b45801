package loader

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeObject(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var obj map[string]any
	require.NoError(t, dec.Decode(&obj))
	return obj
}

func TestParseJSONPath(t *testing.T) {
	obj := decodeObject(t, `{
		"artist": "Des'ree",
		"user": {"first name": "Ann", "tags": ["a", "b"]},
		"it's": 1
	}`)

	tests := []struct {
		expr string
		want any
	}{
		{"$['artist']", "Des'ree"},
		{`$["artist"]`, "Des'ree"},
		{"$.artist", "Des'ree"},
		{"$['user']['first name']", "Ann"},
		{"$.user.tags[1]", "b"},
		{"$['user']['tags'][0]", "a"},
		{`$["it's"]`, json.Number("1")},
		{"$['missing']", nil},
		{"$.user.tags[5]", nil},
		{"$.artist.name", nil},
		{"$.artist[0]", nil},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := ParseJSONPath(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, p.String())
			assert.Equal(t, tt.want, p.Lookup(obj))
		})
	}
}

func TestParseJSONPathErrors(t *testing.T) {
	for _, expr := range []string{
		"",
		"$",
		"artist",
		"$.",
		"$..artist",
		"$['artist'",
		"$['artist",
		"$[x]",
		"$[-1]",
		"$[0",
		"$artist",
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseJSONPath(expr)
			assert.Error(t, err)
		})
	}
}

func TestParseJSONPaths(t *testing.T) {
	descriptor := `{"jsonpaths": ["$['artist']", "$['ts']", "$.song"]}`
	paths, err := ParseJSONPaths(strings.NewReader(descriptor))
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, "$.song", paths[2].String())
}

func TestParseJSONPathsErrors(t *testing.T) {
	for name, descriptor := range map[string]string{
		"not json":       `{"jsonpaths": [`,
		"empty list":     `{"jsonpaths": []}`,
		"missing key":    `{"paths": ["$.a"]}`,
		"bad expression": `{"jsonpaths": ["$.a", "b"]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseJSONPaths(strings.NewReader(descriptor))
			assert.Error(t, err)
		})
	}
}

func TestEventLogJSONPathsParse(t *testing.T) {
	for _, expr := range EventLogJSONPaths {
		_, err := ParseJSONPath(expr)
		assert.NoError(t, err, expr)
	}
}

func TestAutoMapper(t *testing.T) {
	obj := decodeObject(t, `{"song_id": "SOA", "Artist_ID": "ARB", "extra": true}`)
	lookup := autoMapper{}.extract(obj)

	assert.Equal(t, "SOA", lookup(0, "song_id"))
	assert.Nil(t, lookup(2, "title"))

	// Keys differing only in case do not match.
	assert.Nil(t, lookup(1, "artist_id"))
}
