// Package ingest loads the Superstore and Walmart CSV exports into storage.
// Every data row yields a RowResult; a bad row never aborts the file.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"retail-demand-optimizer/internal/storage"
)

// Kind names a supported source file.
type Kind string

const (
	KindSuperstore Kind = "superstore"
	KindStores     Kind = "stores"
	KindFeatures   Kind = "features"
	KindTrain      Kind = "train"
	KindTest       Kind = "test"
)

// Kinds lists the sources in dependency order.
var Kinds = []Kind{KindSuperstore, KindStores, KindFeatures, KindTrain, KindTest}

// Recorder receives per-row outcomes, typically a metrics recorder.
type Recorder interface {
	RowProcessed(table, outcome string)
}

// Options describe the source formats.
type Options struct {
	SuperstoreEncoding   string
	SuperstoreDateLayout string
	WalmartDateLayout    string
}

// DefaultOptions match the public Kaggle exports.
func DefaultOptions() Options {
	return Options{
		SuperstoreEncoding:   "latin1",
		SuperstoreDateLayout: "1/2/2006",
		WalmartDateLayout:    "2006-01-02",
	}
}

// Loader writes parsed rows through a DatasetWriter. It is single-writer
// and not meant to run concurrently with itself.
type Loader struct {
	sink     storage.DatasetWriter
	opts     Options
	recorder Recorder
	logger   zerolog.Logger
	runID    uuid.UUID
}

// NewLoader wires the sink. recorder may be nil.
func NewLoader(sink storage.DatasetWriter, opts Options, recorder Recorder, logger zerolog.Logger) *Loader {
	def := DefaultOptions()
	if opts.SuperstoreDateLayout == "" {
		opts.SuperstoreDateLayout = def.SuperstoreDateLayout
	}
	if opts.WalmartDateLayout == "" {
		opts.WalmartDateLayout = def.WalmartDateLayout
	}
	return &Loader{
		sink:     sink,
		opts:     opts,
		recorder: recorder,
		logger:   logger.With().Str("component", "ingest").Logger(),
		runID:    uuid.New(),
	}
}

// RunID identifies every report produced by this loader.
func (l *Loader) RunID() uuid.UUID {
	return l.runID
}

// LoadFile opens path and loads it as kind.
func (l *Loader) LoadFile(ctx context.Context, kind Kind, path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return l.Load(ctx, kind, f, path)
}

// Load parses r as kind. The error is non-nil only when the file as a whole
// cannot be read.
func (l *Loader) Load(ctx context.Context, kind Kind, r io.Reader, source string) (*Report, error) {
	switch kind {
	case KindSuperstore:
		return l.LoadSuperstore(ctx, r, source)
	case KindStores:
		return l.LoadStores(ctx, r, source)
	case KindFeatures:
		return l.LoadFeatures(ctx, r, source)
	case KindTrain:
		return l.LoadTrain(ctx, r, source)
	case KindTest:
		return l.LoadTest(ctx, r, source)
	default:
		return nil, fmt.Errorf("ingest: unknown source kind %q", kind)
	}
}

var superstoreColumns = []string{
	"Order ID", "Order Date", "Ship Date", "Ship Mode", "Customer ID", "Customer Name",
	"Segment", "Country", "City", "State", "Postal Code", "Region", "Product ID",
	"Category", "Sub-Category", "Product Name", "Sales", "Quantity", "Discount", "Profit",
}

// LoadSuperstore loads the Superstore export. Row ids are assigned from the
// data row sequence; unparseable dates are stored as NULL.
func (l *Loader) LoadSuperstore(ctx context.Context, r io.Reader, source string) (*Report, error) {
	decoded, err := decodeReader(r, l.opts.SuperstoreEncoding)
	if err != nil {
		return nil, err
	}

	var seq int64
	return l.run(ctx, decoded, source, storage.TableSuperstore, superstoreColumns, func(rec record) (string, func() (bool, error), error) {
		seq++
		order := storage.SuperstoreOrder{
			RowID:        seq,
			OrderID:      rec.get("Order ID"),
			OrderDate:    rec.nullDate("Order Date", l.opts.SuperstoreDateLayout),
			ShipDate:     rec.nullDate("Ship Date", l.opts.SuperstoreDateLayout),
			ShipMode:     rec.get("Ship Mode"),
			CustomerID:   rec.get("Customer ID"),
			CustomerName: rec.get("Customer Name"),
			Segment:      rec.get("Segment"),
			Country:      rec.get("Country"),
			City:         rec.get("City"),
			State:        rec.get("State"),
			PostalCode:   rec.nullString("Postal Code"),
			Region:       rec.get("Region"),
			ProductID:    rec.get("Product ID"),
			Category:     rec.get("Category"),
			SubCategory:  rec.get("Sub-Category"),
			ProductName:  rec.get("Product Name"),
		}
		key := order.OrderID
		if key == "" {
			return key, nil, errors.New("empty Order ID")
		}

		var parseErr error
		if order.Sales, parseErr = parseMoney(rec, "Sales"); parseErr != nil {
			return key, nil, parseErr
		}
		if order.Quantity, parseErr = rec.int("Quantity"); parseErr != nil {
			return key, nil, parseErr
		}
		if order.Discount, parseErr = rec.float("Discount"); parseErr != nil {
			return key, nil, parseErr
		}
		if order.Profit, parseErr = parseMoney(rec, "Profit"); parseErr != nil {
			return key, nil, parseErr
		}
		return key, func() (bool, error) { return l.sink.InsertSuperstoreOrder(ctx, order) }, nil
	})
}

// LoadStores loads stores.csv.
func (l *Loader) LoadStores(ctx context.Context, r io.Reader, source string) (*Report, error) {
	return l.run(ctx, r, source, storage.TableWalmartStores, []string{"Store", "Type", "Size"}, func(rec record) (string, func() (bool, error), error) {
		key := rec.get("Store")
		var (
			s   storage.WalmartStore
			err error
		)
		if s.Store, err = rec.int("Store"); err != nil {
			return key, nil, err
		}
		s.Type = rec.get("Type")
		if s.Size, err = rec.int("Size"); err != nil {
			return key, nil, err
		}
		return key, func() (bool, error) { return l.sink.InsertStore(ctx, s) }, nil
	})
}

var featureColumns = []string{
	"Store", "Date", "Temperature", "Fuel_Price",
	"MarkDown1", "MarkDown2", "MarkDown3", "MarkDown4", "MarkDown5",
	"CPI", "Unemployment", "IsHoliday",
}

// LoadFeatures loads features.csv. "NA" indicators are stored as NULL.
func (l *Loader) LoadFeatures(ctx context.Context, r io.Reader, source string) (*Report, error) {
	return l.run(ctx, r, source, storage.TableWalmartFeatures, featureColumns, func(rec record) (string, func() (bool, error), error) {
		key := rec.get("Store") + "/" + rec.get("Date")
		var (
			f   storage.WalmartFeature
			err error
		)
		if f.Store, err = rec.int("Store"); err != nil {
			return key, nil, err
		}
		if f.Date, err = rec.date("Date", l.opts.WalmartDateLayout); err != nil {
			return key, nil, err
		}
		if f.Temperature, err = rec.nullFloat("Temperature"); err != nil {
			return key, nil, err
		}
		if f.FuelPrice, err = rec.nullFloat("Fuel_Price"); err != nil {
			return key, nil, err
		}
		for i := range f.Markdowns {
			if f.Markdowns[i], err = rec.nullFloat("MarkDown" + strconv.Itoa(i+1)); err != nil {
				return key, nil, err
			}
		}
		if f.CPI, err = rec.nullFloat("CPI"); err != nil {
			return key, nil, err
		}
		if f.Unemployment, err = rec.nullFloat("Unemployment"); err != nil {
			return key, nil, err
		}
		if f.IsHoliday, err = rec.bool("IsHoliday"); err != nil {
			return key, nil, err
		}
		return key, func() (bool, error) { return l.sink.InsertFeature(ctx, f) }, nil
	})
}

// LoadTrain loads train.csv. Rows with an unparseable date are reported as
// failures and not stored.
func (l *Loader) LoadTrain(ctx context.Context, r io.Reader, source string) (*Report, error) {
	columns := []string{"Store", "Dept", "Date", "Weekly_Sales", "IsHoliday"}
	return l.run(ctx, r, source, storage.TableWalmartTrain, columns, func(rec record) (string, func() (bool, error), error) {
		key := rec.get("Store") + "/" + rec.get("Dept") + "/" + rec.get("Date")
		var (
			s   storage.WalmartSale
			err error
		)
		if s.Store, err = rec.int("Store"); err != nil {
			return key, nil, err
		}
		if s.Dept, err = rec.int("Dept"); err != nil {
			return key, nil, err
		}
		if s.Date, err = rec.date("Date", l.opts.WalmartDateLayout); err != nil {
			return key, nil, err
		}
		if s.WeeklySales, err = rec.float("Weekly_Sales"); err != nil {
			return key, nil, err
		}
		if s.IsHoliday, err = rec.bool("IsHoliday"); err != nil {
			return key, nil, err
		}
		return key, func() (bool, error) { return l.sink.InsertSale(ctx, s) }, nil
	})
}

// LoadTest loads test.csv.
func (l *Loader) LoadTest(ctx context.Context, r io.Reader, source string) (*Report, error) {
	columns := []string{"Store", "Dept", "Date", "IsHoliday"}
	return l.run(ctx, r, source, storage.TableWalmartTest, columns, func(rec record) (string, func() (bool, error), error) {
		key := rec.get("Store") + "/" + rec.get("Dept") + "/" + rec.get("Date")
		var (
			t   storage.WalmartTestRow
			err error
		)
		if t.Store, err = rec.int("Store"); err != nil {
			return key, nil, err
		}
		if t.Dept, err = rec.int("Dept"); err != nil {
			return key, nil, err
		}
		if t.Date, err = rec.date("Date", l.opts.WalmartDateLayout); err != nil {
			return key, nil, err
		}
		if t.IsHoliday, err = rec.bool("IsHoliday"); err != nil {
			return key, nil, err
		}
		return key, func() (bool, error) { return l.sink.InsertTestRow(ctx, t) }, nil
	})
}

// rowParser turns a record into its key and a deferred insert.
type rowParser func(rec record) (key string, insert func() (bool, error), err error)

func (l *Loader) run(ctx context.Context, r io.Reader, source, table string, required []string, parse rowParser) (*Report, error) {
	src, err := newCSVSource(r, required)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	report := newReport(l.runID, source, table)
	logger := l.logger.With().Str("table", table).Str("source", source).Str("run_id", l.runID.String()).Logger()
	logger.Info().Msg("ingest started")

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.finish()
			return report, ctxErr
		}

		rec, readErr := src.next()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil && rec.line == 0 {
			report.finish()
			return report, fmt.Errorf("%s: read: %w", source, readErr)
		}

		res := RowResult{Line: rec.line}
		switch {
		case readErr != nil:
			res.Outcome, res.Err = OutcomeFailed, readErr
		default:
			key, insert, parseErr := parse(rec)
			res.Key = key
			if parseErr != nil {
				res.Outcome, res.Err = OutcomeFailed, parseErr
				break
			}
			inserted, insertErr := insert()
			switch {
			case insertErr != nil:
				res.Outcome, res.Err = OutcomeFailed, insertErr
			case inserted:
				res.Outcome = OutcomeInserted
			default:
				res.Outcome = OutcomeSkipped
			}
		}

		if res.Outcome == OutcomeFailed {
			logger.Debug().Int("line", res.Line).Str("key", res.Key).Err(res.Err).Msg("row rejected")
		}
		if l.recorder != nil {
			l.recorder.RowProcessed(table, string(res.Outcome))
		}
		report.add(res)
	}

	report.finish()
	logger.Info().
		Int("total", report.Total).
		Int("inserted", report.Inserted).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Dur("took", report.Duration).
		Msg("ingest finished")
	return report, nil
}
