package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"retail-demand-optimizer/internal/storage"
)

type memorySink struct {
	orders   []storage.SuperstoreOrder
	stores   []storage.WalmartStore
	features []storage.WalmartFeature
	sales    map[string]storage.WalmartSale
	tests    []storage.WalmartTestRow
	failOn   int64
}

func newMemorySink() *memorySink {
	return &memorySink{sales: make(map[string]storage.WalmartSale)}
}

func (m *memorySink) InsertSuperstoreOrder(_ context.Context, o storage.SuperstoreOrder) (bool, error) {
	m.orders = append(m.orders, o)
	return true, nil
}

func (m *memorySink) InsertStore(_ context.Context, s storage.WalmartStore) (bool, error) {
	if s.Store == m.failOn {
		return false, errors.New("connection reset")
	}
	m.stores = append(m.stores, s)
	return true, nil
}

func (m *memorySink) InsertFeature(_ context.Context, f storage.WalmartFeature) (bool, error) {
	m.features = append(m.features, f)
	return true, nil
}

func (m *memorySink) InsertSale(_ context.Context, s storage.WalmartSale) (bool, error) {
	key := fmt.Sprintf("%s/%d/%d", s.Date.Format(time.DateOnly), s.Store, s.Dept)
	if _, exists := m.sales[key]; exists {
		return false, nil
	}
	m.sales[key] = s
	return true, nil
}

func (m *memorySink) InsertTestRow(_ context.Context, t storage.WalmartTestRow) (bool, error) {
	m.tests = append(m.tests, t)
	return true, nil
}

type countingRecorder map[string]int

func (c countingRecorder) RowProcessed(table, outcome string) {
	c[table+":"+outcome]++
}

func newTestLoader(sink storage.DatasetWriter, rec Recorder) *Loader {
	return NewLoader(sink, DefaultOptions(), rec, zerolog.Nop())
}

func TestLoadTrainReportsBadRowsWithoutAborting(t *testing.T) {
	sink := newMemorySink()
	rec := countingRecorder{}
	loader := newTestLoader(sink, rec)

	csv := strings.Join([]string{
		"Store,Dept,Date,Weekly_Sales,IsHoliday",
		"1,1,2010-02-05,24924.5,FALSE",
		"1,1,2010-02-12,46039.49,TRUE",
		"1,1,not-a-date,100,FALSE",
		"1,2,2010-02-05,abc,FALSE",
		"1,1,2010-02-05,24924.5,FALSE",
		"1,2,2010-02-12,50605.27,TRUE",
	}, "\n")

	report, err := loader.LoadTrain(context.Background(), strings.NewReader(csv), "train.csv")
	require.NoError(t, err)

	assert.Equal(t, loader.RunID(), report.RunID)
	assert.Equal(t, storage.TableWalmartTrain, report.Table)
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Failed)
	assert.False(t, report.OK())

	failures := report.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, 4, failures[0].Line)
	assert.Equal(t, "1/1/not-a-date", failures[0].Key)
	assert.Contains(t, failures[0].Reason(), "invalid date")
	assert.Equal(t, 5, failures[1].Line)
	assert.Contains(t, failures[1].Reason(), "Weekly_Sales")

	assert.Equal(t, 3, rec["walmart_train:inserted"])
	assert.Equal(t, 2, rec["walmart_train:failed"])
	assert.Equal(t, 1, rec["walmart_train:skipped"])

	sale := sink.sales["2010-02-12/1/1"]
	assert.True(t, sale.IsHoliday)
	assert.Equal(t, 46039.49, sale.WeeklySales)
}

func TestLoadTrainRejectsNonFiniteSales(t *testing.T) {
	sink := newMemorySink()
	loader := newTestLoader(sink, nil)

	csv := strings.Join([]string{
		"Store,Dept,Date,Weekly_Sales,IsHoliday",
		"1,1,2010-02-05,NaN,FALSE",
		"1,1,2010-02-12,+Inf,FALSE",
		"1,1,2010-02-19,-infinity,FALSE",
		"1,1,2010-02-26,100,FALSE",
	}, "\n")

	report, err := loader.LoadTrain(context.Background(), strings.NewReader(csv), "train.csv")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 3, report.Failed)
	for _, f := range report.Failures() {
		assert.Contains(t, f.Reason(), "non-finite")
	}
	require.Len(t, sink.sales, 1)
}

func TestLoadStoresCountsSinkErrors(t *testing.T) {
	sink := newMemorySink()
	sink.failOn = 2
	loader := newTestLoader(sink, nil)

	report, err := loader.LoadStores(context.Background(), strings.NewReader("Store,Type,Size\n1,A,151315\n2,A,202307\n3,B,37392\n"), "stores.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "2", report.Failures()[0].Key)
	require.Len(t, sink.stores, 2)
	assert.Equal(t, "B", sink.stores[1].Type)
}

func TestLoadFeaturesTreatsNAAsNull(t *testing.T) {
	sink := newMemorySink()
	loader := newTestLoader(sink, nil)

	csv := "Store,Date,Temperature,Fuel_Price,MarkDown1,MarkDown2,MarkDown3,MarkDown4,MarkDown5,CPI,Unemployment,IsHoliday\n" +
		"1,2010-02-05,42.31,2.572,NA,NA,NA,NA,NA,211.0963582,8.106,FALSE\n" +
		"1,2011-11-11,59.11,3.297,10382.9,6115.67,215.07,2406.62,6551.42,217.998085,7.866,FALSE\n"

	report, err := loader.LoadFeatures(context.Background(), strings.NewReader(csv), "features.csv")
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Len(t, sink.features, 2)

	first := sink.features[0]
	assert.Nil(t, first.Markdowns[0])
	require.NotNil(t, first.CPI)
	assert.InDelta(t, 211.0963582, *first.CPI, 1e-9)

	second := sink.features[1]
	require.NotNil(t, second.Markdowns[4])
	assert.Equal(t, 6551.42, *second.Markdowns[4])
}

func TestLoadSuperstoreDecodesLatin1(t *testing.T) {
	sink := newMemorySink()
	loader := newTestLoader(sink, nil)

	header := "Row ID,Order ID,Order Date,Ship Date,Ship Mode,Customer ID,Customer Name,Segment,Country,City,State,Postal Code,Region,Product ID,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit\n"
	line1 := "1,CA-2016-152156,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,FUR-BO-10001798,Furniture,Bookcases,Caf\xe9 Bookcase,261.96,2,0,41.9136\n"
	line2 := "2,CA-2016-152157,bad,,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,,South,FUR-CH-10000454,Furniture,Chairs,\"Chair, Hon\",731.94,3,0,219.582\n"
	line3 := "3,CA-2016-152158,11/8/2016,11/11/2016,Second Class,CG-12520,Claire Gute,Consumer,United States,Henderson,Kentucky,42420,South,OFF-LA-10000240,Office Supplies,Labels,Labels,lots,2,0,6.8714\n"

	report, err := loader.LoadSuperstore(context.Background(), strings.NewReader(header+line1+line2+line3), "superstore.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, sink.orders, 2)

	first := sink.orders[0]
	assert.Equal(t, int64(1), first.RowID)
	assert.Equal(t, "Café Bookcase", first.ProductName)
	require.NotNil(t, first.OrderDate)
	assert.Equal(t, time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC), *first.OrderDate)
	assert.True(t, first.Sales.Equal(decimal.RequireFromString("261.96")))
	require.NotNil(t, first.PostalCode)
	assert.Equal(t, "42420", *first.PostalCode)

	second := sink.orders[1]
	assert.Equal(t, int64(2), second.RowID)
	assert.Nil(t, second.OrderDate)
	assert.Nil(t, second.ShipDate)
	assert.Nil(t, second.PostalCode)
	assert.Equal(t, "Chair, Hon", second.ProductName)
}

func TestLoadRejectsMissingColumns(t *testing.T) {
	loader := newTestLoader(newMemorySink(), nil)

	_, err := loader.LoadTest(context.Background(), strings.NewReader("Store,Date\n1,2012-11-02\n"), "test.csv")
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = loader.Load(context.Background(), Kind("orders"), strings.NewReader(""), "x.csv")
	assert.Error(t, err)
}

func TestLoadFileReadsFromDisk(t *testing.T) {
	sink := newMemorySink()
	loader := newTestLoader(sink, nil)

	path := filepath.Join(t.TempDir(), "test.csv")
	require.NoError(t, os.WriteFile(path, []byte("Store,Dept,Date,IsHoliday\n1,1,2012-11-02,FALSE\n1,1,2012-11-23,TRUE\n"), 0o600))

	report, err := loader.LoadFile(context.Background(), KindTest, path)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, path, report.Source)
	require.Len(t, sink.tests, 2)
	assert.True(t, sink.tests[1].IsHoliday)
}
