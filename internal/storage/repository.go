package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"retail-demand-optimizer/internal/timeseries"
)

var (
	// ErrUnknownDataset is returned for dataset names outside the whitelist.
	ErrUnknownDataset = errors.New("storage: unknown dataset")
	// ErrNoData is returned when a selection matches no rows.
	ErrNoData = errors.New("storage: no rows for selection")
)

const (
	insertSuperstoreSQL = `INSERT INTO superstore_sales (
        row_id, order_id, order_date, ship_date, ship_mode, customer_id, customer_name,
        segment, country, city, state, postal_code, region, product_id, category,
        sub_category, product_name, sales, quantity, discount, profit
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21
    )
    ON CONFLICT DO NOTHING`

	insertStoreSQL = `INSERT INTO walmart_stores (store, type, size)
    VALUES ($1,$2,$3)
    ON CONFLICT DO NOTHING`

	insertFeatureSQL = `INSERT INTO walmart_features (
        store, date, temperature, fuel_price,
        markdown1, markdown2, markdown3, markdown4, markdown5,
        cpi, unemployment, is_holiday
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
    )
    ON CONFLICT DO NOTHING`

	insertSaleSQL = `INSERT INTO walmart_train (store, dept, date, weekly_sales, is_holiday)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT DO NOTHING`

	insertTestRowSQL = `INSERT INTO walmart_test (store, dept, date, is_holiday)
    VALUES ($1,$2,$3,$4)
    ON CONFLICT DO NOTHING`

	listSuperstoreSQL = `SELECT
        row_id, order_id, order_date, ship_date, ship_mode, customer_id, customer_name,
        segment, country, city, state, postal_code, region, product_id, category,
        sub_category, product_name, sales, quantity, discount, profit
    FROM superstore_sales
    ORDER BY row_id
    LIMIT $1`

	listStoresSQL = `SELECT store, type, size
    FROM walmart_stores
    ORDER BY store`

	listFeaturesSQL = `SELECT
        store, date, temperature, fuel_price,
        markdown1, markdown2, markdown3, markdown4, markdown5,
        cpi, unemployment, is_holiday
    FROM walmart_features
    ORDER BY store, date`

	listSalesSQL = `SELECT store, dept, date, weekly_sales, is_holiday
    FROM walmart_train
    ORDER BY store, dept, date`

	storeWeeklySalesSQL = `SELECT
        date,
        AVG(weekly_sales) AS weekly_sales,
        BOOL_OR(is_holiday) AS is_holiday
    FROM walmart_train
    WHERE store = $1
      AND date IS NOT NULL
      AND weekly_sales IS NOT NULL
    GROUP BY date
    ORDER BY date`

	storeDeptWeeklySalesSQL = `SELECT
        date,
        AVG(weekly_sales) AS weekly_sales,
        BOOL_OR(is_holiday) AS is_holiday
    FROM walmart_train
    WHERE store = $1
      AND dept = $2
      AND date IS NOT NULL
      AND weekly_sales IS NOT NULL
    GROUP BY date
    ORDER BY date`

	weeklyTotalsSQL = `SELECT
        date,
        SUM(weekly_sales) AS weekly_sales,
        BOOL_OR(is_holiday) AS is_holiday
    FROM walmart_train
    GROUP BY date
    ORDER BY date`

	storeSummariesSQL = `SELECT
        t.store AS store,
        s.type AS type,
        s.size AS size,
        COUNT(DISTINCT t.date) AS weeks,
        COALESCE(SUM(t.weekly_sales), 0) AS total_sales
    FROM walmart_train t
    LEFT JOIN walmart_stores s ON s.store = t.store
    GROUP BY t.store, s.type, s.size
    ORDER BY t.store`
)

type datasetTable struct {
	table   string
	orderBy string
}

var datasets = map[string]datasetTable{
	"superstore": {table: TableSuperstore, orderBy: "row_id"},
	"walmart":    {table: TableWalmartTrain, orderBy: "store, dept, date"},
	"stores":     {table: TableWalmartStores, orderBy: "store"},
	"features":   {table: TableWalmartFeatures, orderBy: "store, date"},
	"test":       {table: TableWalmartTest, orderBy: "store, dept, date"},
}

// Datasets lists the dataset names accepted by TableRows.
func Datasets() []string {
	names := make([]string, 0, len(datasets))
	for name := range datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DatasetTable resolves a dataset name to its table.
func DatasetTable(dataset string) (string, error) {
	ds, ok := datasets[dataset]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDataset, dataset)
	}
	return ds.table, nil
}

// SalesReader is the read side used by the forecast pipeline and insights.
type SalesReader interface {
	WeeklySalesByStore(ctx context.Context, store int64, dept *int64) ([]WeeklySales, error)
	ListStores(ctx context.Context) ([]StoreSummary, error)
}

// DatasetWriter is the write side used by ingestion.
type DatasetWriter interface {
	InsertSuperstoreOrder(ctx context.Context, order SuperstoreOrder) (bool, error)
	InsertStore(ctx context.Context, store WalmartStore) (bool, error)
	InsertFeature(ctx context.Context, feature WalmartFeature) (bool, error)
	InsertSale(ctx context.Context, sale WalmartSale) (bool, error)
	InsertTestRow(ctx context.Context, row WalmartTestRow) (bool, error)
}

// Repository maps domain records to SQL on top of a Client.
type Repository struct {
	db Client
}

var (
	_ SalesReader   = (*Repository)(nil)
	_ DatasetWriter = (*Repository)(nil)
)

// NewRepository wraps a client.
func NewRepository(db Client) *Repository {
	return &Repository{db: db}
}

func (r *Repository) client() (Client, error) {
	if r == nil || r.db == nil {
		return nil, ErrNotConfigured
	}
	return r.db, nil
}

// RunQuery exposes the raw query path for ad-hoc reads.
func (r *Repository) RunQuery(ctx context.Context, query string, args ...any) ([]Row, error) {
	db, err := r.client()
	if err != nil {
		return nil, err
	}
	return db.RunQuery(ctx, query, args...)
}

// InitSchema creates missing tables.
func (r *Repository) InitSchema(ctx context.Context) error {
	db, err := r.client()
	if err != nil {
		return err
	}
	return InitSchema(ctx, db)
}

func (r *Repository) insert(ctx context.Context, what, query string, args ...any) (bool, error) {
	db, err := r.client()
	if err != nil {
		return false, err
	}
	affected, err := db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert %s: %w", what, err)
	}
	return affected > 0, nil
}

// InsertSuperstoreOrder stores an order line. It reports false when the row
// already existed.
func (r *Repository) InsertSuperstoreOrder(ctx context.Context, o SuperstoreOrder) (bool, error) {
	return r.insert(ctx, "superstore order", insertSuperstoreSQL,
		o.RowID,
		o.OrderID,
		nullableTime(o.OrderDate),
		nullableTime(o.ShipDate),
		o.ShipMode,
		o.CustomerID,
		o.CustomerName,
		o.Segment,
		o.Country,
		o.City,
		o.State,
		nullableString(o.PostalCode),
		o.Region,
		o.ProductID,
		o.Category,
		o.SubCategory,
		o.ProductName,
		o.Sales.InexactFloat64(),
		o.Quantity,
		o.Discount,
		o.Profit.InexactFloat64(),
	)
}

// InsertStore stores a Walmart store.
func (r *Repository) InsertStore(ctx context.Context, s WalmartStore) (bool, error) {
	return r.insert(ctx, "store", insertStoreSQL, s.Store, s.Type, s.Size)
}

// InsertFeature stores a feature row.
func (r *Repository) InsertFeature(ctx context.Context, f WalmartFeature) (bool, error) {
	return r.insert(ctx, "feature", insertFeatureSQL,
		f.Store,
		f.Date,
		nullableFloat(f.Temperature),
		nullableFloat(f.FuelPrice),
		nullableFloat(f.Markdowns[0]),
		nullableFloat(f.Markdowns[1]),
		nullableFloat(f.Markdowns[2]),
		nullableFloat(f.Markdowns[3]),
		nullableFloat(f.Markdowns[4]),
		nullableFloat(f.CPI),
		nullableFloat(f.Unemployment),
		f.IsHoliday,
	)
}

// InsertSale stores a weekly department sale.
func (r *Repository) InsertSale(ctx context.Context, s WalmartSale) (bool, error) {
	return r.insert(ctx, "sale", insertSaleSQL, s.Store, s.Dept, s.Date, s.WeeklySales, s.IsHoliday)
}

// InsertTestRow stores a week to predict.
func (r *Repository) InsertTestRow(ctx context.Context, t WalmartTestRow) (bool, error) {
	return r.insert(ctx, "test row", insertTestRowSQL, t.Store, t.Dept, t.Date, t.IsHoliday)
}

// SuperstoreOrders lists up to limit order lines.
func (r *Repository) SuperstoreOrders(ctx context.Context, limit int) ([]SuperstoreOrder, error) {
	db, err := r.client()
	if err != nil {
		return nil, err
	}
	rows, err := db.RunQuery(ctx, listSuperstoreSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list superstore orders: %w", err)
	}

	orders := make([]SuperstoreOrder, 0, len(rows))
	for _, row := range rows {
		order, scanErr := scanSuperstoreOrder(row)
		if scanErr != nil {
			return nil, scanErr
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// WalmartStores lists every store.
func (r *Repository) WalmartStores(ctx context.Context) ([]WalmartStore, error) {
	db, err := r.client()
	if err != nil {
		return nil, err
	}
	rows, err := db.RunQuery(ctx, listStoresSQL)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}

	stores := make([]WalmartStore, 0, len(rows))
	for _, row := range rows {
		var s WalmartStore
		if s.Store, err = row.Int("store"); err != nil {
			return nil, err
		}
		if s.Type, err = row.String("type"); err != nil {
			return nil, err
		}
		if s.Size, err = row.Int("size"); err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, nil
}

// WalmartFeatures lists every feature row.
func (r *Repository) WalmartFeatures(ctx context.Context) ([]WalmartFeature, error) {
	db, err := r.client()
	if err != nil {
		return nil, err
	}
	rows, err := db.RunQuery(ctx, listFeaturesSQL)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}

	features := make([]WalmartFeature, 0, len(rows))
	for _, row := range rows {
		feature, scanErr := scanFeature(row)
		if scanErr != nil {
			return nil, scanErr
		}
		features = append(features, feature)
	}
	return features, nil
}

// WalmartSales lists every department sale.
func (r *Repository) WalmartSales(ctx context.Context) ([]WalmartSale, error) {
	db, err := r.client()
	if err != nil {
		return nil, err
	}
	rows, err := db.RunQuery(ctx, listSalesSQL)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	sales := make([]WalmartSale, 0, len(rows))
	for _, row := range rows {
		var s WalmartSale
		if s.Store, err = row.Int("store"); err != nil {
			return nil, err
		}
		if s.Dept, err = row.Int("dept"); err != nil {
			return nil, err
		}
		if s.Date, err = row.Time("date"); err != nil {
			return nil, err
		}
		if s.WeeklySales, err = row.Float("weekly_sales"); err != nil {
			return nil, err
		}
		if s.IsHoliday, err = row.Bool("is_holiday"); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	return sales, nil
}

// WeeklySalesByStore averages department sales per week for one store, optionally
// restricted to one department, ordered by date.
func (r *Repository) WeeklySalesByStore(ctx context.Context, store int64, dept *int64) ([]WeeklySales, error) {
	db, err := r.client()
	if err != nil {
		return nil, err
	}

	var rows []Row
	if dept != nil {
		rows, err = db.RunQuery(ctx, storeDeptWeeklySalesSQL, store, *dept)
	} else {
		rows, err = db.RunQuery(ctx, storeWeeklySalesSQL, store)
	}
	if err != nil {
		return nil, fmt.Errorf("weekly sales for store %d: %w", store, err)
	}
	return scanWeeklySales(rows)
}

// WeeklyTotals sums sales across all stores per week.
func (r *Repository) WeeklyTotals(ctx context.Context) ([]WeeklySales, error) {
	db, err := r.client()
	if err != nil {
		return nil, err
	}
	rows, err := db.RunQuery(ctx, weeklyTotalsSQL)
	if err != nil {
		return nil, fmt.Errorf("weekly totals: %w", err)
	}
	return scanWeeklySales(rows)
}

// StoreSeries loads the weekly series for a store as a forecast input.
func (r *Repository) StoreSeries(ctx context.Context, store int64, dept *int64) (timeseries.Slice, error) {
	weekly, err := r.WeeklySalesByStore(ctx, store, dept)
	if err != nil {
		return timeseries.Slice{}, err
	}
	return SeriesFromWeekly(weekly, store, dept)
}

// SeriesFromWeekly converts weekly totals into a series tagged with the store
// and, when set, the department.
func SeriesFromWeekly(weekly []WeeklySales, store int64, dept *int64) (timeseries.Slice, error) {
	if len(weekly) == 0 {
		return timeseries.Slice{}, fmt.Errorf("%w: store %d", ErrNoData, store)
	}
	dims := map[string]string{"store": strconv.FormatInt(store, 10)}
	if dept != nil {
		dims["dept"] = strconv.FormatInt(*dept, 10)
	}
	points := make([]timeseries.Point, len(weekly))
	for i, w := range weekly {
		points[i] = timeseries.NewPoint(w.Date, w.Sales, dims)
	}
	return timeseries.NewSlice(points)
}

// ListStores summarises the stores that have sales history.
func (r *Repository) ListStores(ctx context.Context) ([]StoreSummary, error) {
	db, err := r.client()
	if err != nil {
		return nil, err
	}
	rows, err := db.RunQuery(ctx, storeSummariesSQL)
	if err != nil {
		return nil, fmt.Errorf("list store summaries: %w", err)
	}

	out := make([]StoreSummary, 0, len(rows))
	for _, row := range rows {
		var s StoreSummary
		if s.Store, err = row.Int("store"); err != nil {
			return nil, err
		}
		if s.Type, err = row.NullString("type"); err != nil {
			return nil, err
		}
		if s.Size, err = row.NullInt("size"); err != nil {
			return nil, err
		}
		if s.Weeks, err = row.Int("weeks"); err != nil {
			return nil, err
		}
		if s.TotalSales, err = row.Decimal("total_sales"); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// TableRows returns up to limit raw rows of a whitelisted dataset.
func (r *Repository) TableRows(ctx context.Context, dataset string, limit int) ([]Row, error) {
	ds, ok := datasets[dataset]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, dataset)
	}
	db, err := r.client()
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT $1", ds.table, ds.orderBy)
	rows, err := db.RunQuery(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("rows of %s: %w", ds.table, err)
	}
	return rows, nil
}

// CountRows counts the rows of a whitelisted dataset.
func (r *Repository) CountRows(ctx context.Context, dataset string) (int64, error) {
	table, err := DatasetTable(dataset)
	if err != nil {
		return 0, err
	}
	db, err := r.client()
	if err != nil {
		return 0, err
	}
	rows, err := db.RunQuery(ctx, fmt.Sprintf("SELECT COUNT(*) AS n FROM %s", table))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Int("n")
}

func scanWeeklySales(rows []Row) ([]WeeklySales, error) {
	out := make([]WeeklySales, 0, len(rows))
	for _, row := range rows {
		var (
			w   WeeklySales
			err error
		)
		if w.Date, err = row.Time("date"); err != nil {
			return nil, err
		}
		if w.Sales, err = row.Float("weekly_sales"); err != nil {
			return nil, err
		}
		if w.IsHoliday, err = row.Bool("is_holiday"); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, nil
}

func scanSuperstoreOrder(row Row) (SuperstoreOrder, error) {
	var (
		o   SuperstoreOrder
		err error
	)
	if o.RowID, err = row.Int("row_id"); err != nil {
		return o, err
	}
	if o.OrderID, err = row.String("order_id"); err != nil {
		return o, err
	}
	if o.OrderDate, err = row.NullTime("order_date"); err != nil {
		return o, err
	}
	if o.ShipDate, err = row.NullTime("ship_date"); err != nil {
		return o, err
	}
	if o.PostalCode, err = row.NullString("postal_code"); err != nil {
		return o, err
	}

	text := map[string]*string{
		"ship_mode":     &o.ShipMode,
		"customer_id":   &o.CustomerID,
		"customer_name": &o.CustomerName,
		"segment":       &o.Segment,
		"country":       &o.Country,
		"city":          &o.City,
		"state":         &o.State,
		"region":        &o.Region,
		"product_id":    &o.ProductID,
		"category":      &o.Category,
		"sub_category":  &o.SubCategory,
		"product_name":  &o.ProductName,
	}
	for col, dst := range text {
		value, textErr := row.NullString(col)
		if textErr != nil {
			return o, textErr
		}
		if value != nil {
			*dst = *value
		}
	}

	if o.Sales, err = row.Decimal("sales"); err != nil {
		return o, err
	}
	if o.Quantity, err = row.Int("quantity"); err != nil {
		return o, err
	}
	if o.Discount, err = row.Float("discount"); err != nil {
		return o, err
	}
	if o.Profit, err = row.Decimal("profit"); err != nil {
		return o, err
	}
	return o, nil
}

func scanFeature(row Row) (WalmartFeature, error) {
	var (
		f   WalmartFeature
		err error
	)
	if f.Store, err = row.Int("store"); err != nil {
		return f, err
	}
	if f.Date, err = row.Time("date"); err != nil {
		return f, err
	}
	if f.Temperature, err = row.NullFloat("temperature"); err != nil {
		return f, err
	}
	if f.FuelPrice, err = row.NullFloat("fuel_price"); err != nil {
		return f, err
	}
	for i := range f.Markdowns {
		if f.Markdowns[i], err = row.NullFloat(fmt.Sprintf("markdown%d", i+1)); err != nil {
			return f, err
		}
	}
	if f.CPI, err = row.NullFloat("cpi"); err != nil {
		return f, err
	}
	if f.Unemployment, err = row.NullFloat("unemployment"); err != nil {
		return f, err
	}
	if f.IsHoliday, err = row.Bool("is_holiday"); err != nil {
		return f, err
	}
	return f, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
