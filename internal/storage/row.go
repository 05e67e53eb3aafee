package storage

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

var (
	// ErrColumnNotFound is returned when a row has no such column.
	ErrColumnNotFound = errors.New("storage: column not found")
	// ErrNullValue is returned by non-null accessors on SQL NULL.
	ErrNullValue = errors.New("storage: unexpected null value")
)

// TypeError reports a value that cannot be converted to the requested type.
type TypeError struct {
	Column string
	Want   string
	Got    any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("storage: column %q: cannot read %T as %s", e.Column, e.Got, e.Want)
}

// Row is one result record with typed accessors. Values are whatever the
// driver produced; conversion and validation happen in the accessors.
type Row struct {
	columns []string
	values  map[string]any
}

// NewRow pairs column names with values; extra values are ignored.
func NewRow(columns []string, values []any) Row {
	row := Row{columns: append([]string(nil), columns...), values: make(map[string]any, len(columns))}
	for i, col := range columns {
		if i < len(values) {
			row.values[col] = values[i]
		}
	}
	return row
}

// Columns returns the column names in query order.
func (r Row) Columns() []string {
	return append([]string(nil), r.columns...)
}

// Value returns the raw driver value.
func (r Row) Value(col string) (any, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Map returns a copy of the row keyed by column name.
func (r Row) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

func (r Row) lookup(col string) (any, error) {
	v, ok := r.values[col]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, col)
	}
	return v, nil
}

func (r Row) nonNull(col string) (any, error) {
	v, err := r.lookup(col)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrNullValue, col)
	}
	return v, nil
}

// Int reads an integer column.
func (r Row) Int(col string) (int64, error) {
	v, err := r.nonNull(col)
	if err != nil {
		return 0, err
	}
	return toInt(col, v)
}

// NullInt reads a nullable integer column.
func (r Row) NullInt(col string) (*int64, error) {
	v, err := r.lookup(col)
	if err != nil || v == nil {
		return nil, err
	}
	n, err := toInt(col, v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Float reads a numeric column.
func (r Row) Float(col string) (float64, error) {
	v, err := r.nonNull(col)
	if err != nil {
		return 0, err
	}
	return toFloat(col, v)
}

// NullFloat reads a nullable numeric column.
func (r Row) NullFloat(col string) (*float64, error) {
	v, err := r.lookup(col)
	if err != nil || v == nil {
		return nil, err
	}
	f, err := toFloat(col, v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// String reads a text column.
func (r Row) String(col string) (string, error) {
	v, err := r.nonNull(col)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", &TypeError{Column: col, Want: "string", Got: v}
	}
}

// NullString reads a nullable text column.
func (r Row) NullString(col string) (*string, error) {
	v, err := r.lookup(col)
	if err != nil || v == nil {
		return nil, err
	}
	s, err := r.String(col)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Bool reads a boolean column. Integer 0/1 and textual booleans are accepted.
func (r Row) Bool(col string) (bool, error) {
	v, err := r.nonNull(col)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, perr := strconv.ParseBool(strings.TrimSpace(b))
		if perr != nil {
			return false, &TypeError{Column: col, Want: "bool", Got: v}
		}
		return parsed, nil
	default:
		n, ierr := toInt(col, v)
		if ierr != nil {
			return false, &TypeError{Column: col, Want: "bool", Got: v}
		}
		return n != 0, nil
	}
}

// Time reads a date or timestamp column.
func (r Row) Time(col string) (time.Time, error) {
	v, err := r.nonNull(col)
	if err != nil {
		return time.Time{}, err
	}
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		for _, layout := range []string{time.DateOnly, time.RFC3339, time.DateTime} {
			if parsed, perr := time.Parse(layout, t); perr == nil {
				return parsed, nil
			}
		}
	}
	return time.Time{}, &TypeError{Column: col, Want: "time", Got: v}
}

// NullTime reads a nullable date column.
func (r Row) NullTime(col string) (*time.Time, error) {
	v, err := r.lookup(col)
	if err != nil || v == nil {
		return nil, err
	}
	t, err := r.Time(col)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Decimal reads a money column.
func (r Row) Decimal(col string) (decimal.Decimal, error) {
	v, err := r.nonNull(col)
	if err != nil {
		return decimal.Zero, err
	}
	switch d := v.(type) {
	case decimal.Decimal:
		return d, nil
	case string:
		parsed, perr := decimal.NewFromString(d)
		if perr != nil {
			return decimal.Zero, &TypeError{Column: col, Want: "decimal", Got: v}
		}
		return parsed, nil
	}
	f, err := toFloat(col, v)
	if err != nil {
		return decimal.Zero, &TypeError{Column: col, Want: "decimal", Got: v}
	}
	return decimal.NewFromFloat(f), nil
}

func toInt(col string, v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case *big.Int:
		if n.IsInt64() {
			return n.Int64(), nil
		}
	case float64:
		if n == float64(int64(n)) {
			return int64(n), nil
		}
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err == nil {
			return parsed, nil
		}
	}
	return 0, &TypeError{Column: col, Want: "int", Got: v}
}

func toFloat(col string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case decimal.Decimal:
		return n.InexactFloat64(), nil
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err == nil && f.Valid {
			return f.Float64, nil
		}
	case *big.Int:
		f, _ := new(big.Float).SetInt(n).Float64()
		return f, nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil {
			return parsed, nil
		}
	case []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(string(n)), 64)
		if err == nil {
			return parsed, nil
		}
	default:
		if i, err := toInt(col, v); err == nil {
			return float64(i), nil
		}
	}
	return 0, &TypeError{Column: col, Want: "float", Got: v}
}
