package loader

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// EventLogJSONPaths maps the event log's camelCase keys to the
// staging_events columns, in column order.
var EventLogJSONPaths = []string{
	"$['artist']",
	"$['auth']",
	"$['firstName']",
	"$['gender']",
	"$['itemInSession']",
	"$['lastName']",
	"$['length']",
	"$['level']",
	"$['location']",
	"$['method']",
	"$['page']",
	"$['registration']",
	"$['sessionId']",
	"$['song']",
	"$['status']",
	"$['ts']",
	"$['userAgent']",
	"$['userId']",
}

// pathStep is one element of a JSONPath: an object key or an array index.
type pathStep struct {
	key   string
	index int
	isKey bool
}

// JSONPath is a parsed JSONPaths expression in bracket or dot notation.
type JSONPath struct {
	expr  string
	steps []pathStep
}

// String returns the source expression.
func (p JSONPath) String() string {
	return p.expr
}

// Lookup returns the value the path selects in obj, or nil when any step
// is missing.
func (p JSONPath) Lookup(obj map[string]any) any {
	var cur any = obj
	for _, step := range p.steps {
		if step.isKey {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			cur = m[step.key]
		} else {
			a, ok := cur.([]any)
			if !ok || step.index >= len(a) {
				return nil
			}
			cur = a[step.index]
		}
	}
	return cur
}

// ParseJSONPaths reads a {"jsonpaths": [...]} descriptor.
func ParseJSONPaths(r io.Reader) ([]JSONPath, error) {
	var doc struct {
		JSONPaths []string `json:"jsonpaths"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid descriptor: %w", err)
	}
	if len(doc.JSONPaths) == 0 {
		return nil, fmt.Errorf("descriptor has no jsonpaths")
	}

	paths := make([]JSONPath, 0, len(doc.JSONPaths))
	for i, expr := range doc.JSONPaths {
		p, err := ParseJSONPath(expr)
		if err != nil {
			return nil, fmt.Errorf("expression %d: %w", i+1, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// ParseJSONPath parses $['a']["b"][0] and $.a.b style expressions.
func ParseJSONPath(expr string) (JSONPath, error) {
	if !strings.HasPrefix(expr, "$") {
		return JSONPath{}, fmt.Errorf("%q must start with $", expr)
	}
	rest := expr[1:]
	if rest == "" {
		return JSONPath{}, fmt.Errorf("%q selects the whole record", expr)
	}

	var steps []pathStep
	for rest != "" {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end == -1 {
				end = len(rest)
			}
			if end == 0 {
				return JSONPath{}, fmt.Errorf("%q has an empty member name", expr)
			}
			steps = append(steps, pathStep{key: rest[:end], isKey: true})
			rest = rest[end:]

		case '[':
			if len(rest) > 1 && (rest[1] == '\'' || rest[1] == '"') {
				quote := rest[1]
				end := strings.IndexByte(rest[2:], quote)
				if end == -1 {
					return JSONPath{}, fmt.Errorf("%q has an unterminated name", expr)
				}
				name := rest[2 : 2+end]
				rest = rest[2+end+1:]
				if !strings.HasPrefix(rest, "]") {
					return JSONPath{}, fmt.Errorf("%q is missing ]", expr)
				}
				rest = rest[1:]
				steps = append(steps, pathStep{key: name, isKey: true})
				continue
			}

			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return JSONPath{}, fmt.Errorf("%q is missing ]", expr)
			}
			index, err := strconv.Atoi(rest[1:end])
			if err != nil || index < 0 {
				return JSONPath{}, fmt.Errorf("%q has an invalid array index %q", expr, rest[1:end])
			}
			steps = append(steps, pathStep{index: index})
			rest = rest[end+1:]

		default:
			return JSONPath{}, fmt.Errorf("%q has an unexpected character %q", expr, rest[0])
		}
	}

	return JSONPath{expr: expr, steps: steps}, nil
}

// fieldMapper picks the raw value for each column out of one JSON object.
type fieldMapper interface {
	extract(obj map[string]any) func(i int, col string) any
}

// pathMapper takes column i from the i-th JSONPaths expression.
type pathMapper []JSONPath

func (m pathMapper) extract(obj map[string]any) func(int, string) any {
	return func(i int, _ string) any {
		return m[i].Lookup(obj)
	}
}

// autoMapper matches top-level keys to column names exactly, as Redshift's
// JSON 'auto' does. Keys without a column are dropped and columns without
// a key load as NULL.
type autoMapper struct{}

func (autoMapper) extract(obj map[string]any) func(int, string) any {
	return func(_ int, col string) any {
		return obj[col]
	}
}
