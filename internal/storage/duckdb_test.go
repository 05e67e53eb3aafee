package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var firstWeek = time.Date(2010, 2, 5, 0, 0, 0, 0, time.UTC)

func newMemoryRepository(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()
	client, err := NewDuckDBClient(ctx, "")
	require.NoError(t, err)
	t.Cleanup(client.Close)

	repo := NewRepository(client)
	require.NoError(t, repo.InitSchema(ctx))
	return repo
}

func TestDuckDBWeeklySalesRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository(t)

	inserted, err := repo.InsertStore(ctx, WalmartStore{Store: 1, Type: "A", Size: 151315})
	require.NoError(t, err)
	assert.True(t, inserted)

	for week := 0; week < 12; week++ {
		date := firstWeek.AddDate(0, 0, 7*week)
		for dept := int64(1); dept <= 2; dept++ {
			ok, insertErr := repo.InsertSale(ctx, WalmartSale{
				Store:       1,
				Dept:        dept,
				Date:        date,
				WeeklySales: float64(100*dept + int64(week)),
				IsHoliday:   week == 1,
			})
			require.NoError(t, insertErr)
			require.True(t, ok)
		}
	}

	dup, err := repo.InsertSale(ctx, WalmartSale{Store: 1, Dept: 1, Date: firstWeek, WeeklySales: 1})
	require.NoError(t, err)
	assert.False(t, dup)

	weekly, err := repo.WeeklySalesByStore(ctx, 1, nil)
	require.NoError(t, err)
	require.Len(t, weekly, 12)
	assert.Equal(t, 150.0, weekly[0].Sales)
	assert.True(t, weekly[1].IsHoliday)
	assert.False(t, weekly[2].IsHoliday)
	assert.Equal(t, firstWeek.AddDate(0, 0, 77), weekly[11].Date.UTC())

	dept := int64(2)
	single, err := repo.WeeklySalesByStore(ctx, 1, &dept)
	require.NoError(t, err)
	require.Len(t, single, 12)
	assert.Equal(t, 205.0, single[5].Sales)

	series, err := repo.StoreSeries(ctx, 1, &dept)
	require.NoError(t, err)
	assert.Equal(t, 12, series.Len())
	assert.Equal(t, "1", series.First().Dimension("store"))
	assert.Equal(t, "2", series.First().Dimension("dept"))

	_, err = repo.StoreSeries(ctx, 99, nil)
	assert.ErrorIs(t, err, ErrNoData)

	stores, err := repo.ListStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 1)
	assert.Equal(t, int64(12), stores[0].Weeks)
	require.NotNil(t, stores[0].Type)
	assert.Equal(t, "A", *stores[0].Type)

	count, err := repo.CountRows(ctx, "walmart")
	require.NoError(t, err)
	assert.Equal(t, int64(24), count)

	rows, err := repo.TableRows(ctx, "walmart", 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"store", "dept", "date", "weekly_sales", "is_holiday"}, rows[0].Columns())

	_, err = repo.TableRows(ctx, "users; DROP TABLE x", 3)
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestDuckDBSuperstoreAndFeatures(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository(t)

	orderDate := time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC)
	postal := "42420"
	_, err := repo.InsertSuperstoreOrder(ctx, SuperstoreOrder{
		RowID:       1,
		OrderID:     "CA-2016-152156",
		OrderDate:   &orderDate,
		Region:      "South",
		Category:    "Furniture",
		PostalCode:  &postal,
		Sales:       decimal.RequireFromString("261.96"),
		Quantity:    2,
		Discount:    0,
		Profit:      decimal.RequireFromString("41.9136"),
		ProductName: "Bush Somerset Collection Bookcase",
	})
	require.NoError(t, err)

	orders, err := repo.SuperstoreOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	order := orders[0]
	assert.Equal(t, "Furniture", order.Category)
	assert.Nil(t, order.ShipDate)
	require.NotNil(t, order.OrderDate)
	assert.Equal(t, orderDate, order.OrderDate.UTC())
	assert.True(t, order.Sales.Equal(decimal.RequireFromString("261.96")))
	assert.Equal(t, int64(2), order.Quantity)

	temp := 42.31
	_, err = repo.InsertFeature(ctx, WalmartFeature{Store: 1, Date: firstWeek, Temperature: &temp, IsHoliday: false})
	require.NoError(t, err)

	features, err := repo.WalmartFeatures(ctx)
	require.NoError(t, err)
	require.Len(t, features, 1)
	require.NotNil(t, features[0].Temperature)
	assert.Equal(t, 42.31, *features[0].Temperature)
	assert.Nil(t, features[0].Markdowns[0])
	assert.Nil(t, features[0].CPI)
}

func TestStoreSeriesAveragesDepartmentsPerDate(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepository(t)

	sales := []WalmartSale{
		{Store: 3, Dept: 1, Date: firstWeek, WeeklySales: 100},
		{Store: 3, Dept: 7, Date: firstWeek, WeeklySales: 300},
		{Store: 3, Dept: 1, Date: firstWeek.AddDate(0, 0, 7), WeeklySales: 50},
		{Store: 4, Dept: 1, Date: firstWeek, WeeklySales: 9000},
	}
	for _, s := range sales {
		_, err := repo.InsertSale(ctx, s)
		require.NoError(t, err)
	}

	series, err := repo.StoreSeries(ctx, 3, nil)
	require.NoError(t, err)
	require.Equal(t, 2, series.Len())
	assert.Equal(t, []float64{200, 50}, series.Values())

	totals, err := repo.WeeklyTotals(ctx)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, 9400.0, totals[0].Sales)
}
