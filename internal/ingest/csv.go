package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("ingest: missing column")

// decodeReader wraps r for the named source encoding.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.ReplaceAll(encoding, "_", "-")) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("ingest: unsupported encoding %q", encoding)
	}
}

// record is one CSV line addressed by header name.
type record struct {
	line   int
	fields []string
	index  map[string]int
}

func (r record) get(col string) string {
	i, ok := r.index[col]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func isMissing(v string) bool {
	switch strings.ToUpper(v) {
	case "", "NA", "N/A", "NAN", "NULL":
		return true
	}
	return false
}

func (r record) int(col string) (int64, error) {
	v := r.get(col)
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("%s: invalid integer %q", col, v)
		}
		return int64(f), nil
	}
	return n, nil
}

func (r record) float(col string) (float64, error) {
	v := r.get(col)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid number %q", col, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: non-finite number %q", col, v)
	}
	return f, nil
}

func parseMoney(r record, col string) (decimal.Decimal, error) {
	v := r.get(col)
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid amount %q", col, v)
	}
	return d, nil
}

func (r record) nullFloat(col string) (*float64, error) {
	v := r.get(col)
	if isMissing(v) {
		return nil, nil
	}
	f, err := r.float(col)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r record) bool(col string) (bool, error) {
	v := r.get(col)
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", col, v)
	}
	return b, nil
}

func (r record) date(col, layout string) (time.Time, error) {
	v := r.get(col)
	t, err := time.Parse(layout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid date %q", col, v)
	}
	return t, nil
}

// nullDate parses leniently: unparseable dates become nil.
func (r record) nullDate(col, layout string) *time.Time {
	t, err := r.date(col, layout)
	if err != nil {
		return nil
	}
	return &t
}

func (r record) nullString(col string) *string {
	v := r.get(col)
	if v == "" {
		return nil
	}
	return &v
}

// csvSource iterates a CSV file with a header row.
type csvSource struct {
	reader *csv.Reader
	index  map[string]int
}

func newCSVSource(r io.Reader, required []string) (*csvSource, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	return &csvSource{reader: reader, index: index}, nil
}

// next returns the next record. A malformed line yields a record carrying
// its line number together with the parse error so the caller can report it
// and continue.
func (s *csvSource) next() (record, error) {
	fields, err := s.reader.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return record{line: parseErr.StartLine}, err
		}
		return record{}, err
	}
	line, _ := s.reader.FieldPos(0)
	return record{line: line, fields: fields, index: s.index}, nil
}
