package loader

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pgEdge/pgedge-dwhload/internal/warehouse"
)

// rowValues builds one COPY row from the mapper's lookups.
func rowValues(lookup func(i int, col string) any, columns []warehouse.Column) ([]any, error) {
	values := make([]any, len(columns))
	for i, col := range columns {
		v, err := Coerce(lookup(i, col.Name), col.Kind)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		values[i] = v
	}
	return values, nil
}

// Coerce converts a decoded JSON value to the Go type pgx encodes for kind.
// JSON null loads as NULL; an empty string loads as NULL in numeric columns.
func Coerce(v any, kind warehouse.ColumnKind) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch kind {
	case warehouse.KindText:
		return toText(v)
	case warehouse.KindInt32:
		return toInt(v, 32)
	case warehouse.KindInt64:
		return toInt(v, 64)
	case warehouse.KindNumeric:
		return toNumeric(v)
	default:
		return nil, fmt.Errorf("unsupported column kind %s", kind)
	}
}

func toText(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		// Nested objects and arrays are stored as their JSON text.
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
}

func numberText(v any) (string, bool, error) {
	switch x := v.(type) {
	case json.Number:
		return x.String(), true, nil
	case string:
		s := strings.TrimSpace(x)
		return s, s != "", nil
	default:
		return "", false, fmt.Errorf("cannot load %s as a number", jsonKind(v))
	}
}

func toInt(v any, bits int) (any, error) {
	s, ok, err := numberText(v)
	if err != nil || !ok {
		return nil, err
	}
	n, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return nil, fmt.Errorf("cannot load %q as int%d", s, bits)
	}
	if bits == 32 {
		return int32(n), nil
	}
	return n, nil
}

func toNumeric(v any) (any, error) {
	s, ok, err := numberText(v)
	if err != nil || !ok {
		return nil, err
	}

	// The numeric text scanner has no exponent syntax.
	if strings.ContainsAny(s, "eE") {
		f, _, err := big.ParseFloat(s, 10, 256, big.ToNearestEven)
		if err != nil {
			return nil, fmt.Errorf("cannot load %q as numeric", s)
		}
		s = f.Text('f', -1)
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return nil, fmt.Errorf("cannot load %q as numeric", s)
	}
	return n, nil
}
