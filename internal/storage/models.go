package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// SuperstoreOrder is one order line of the Superstore dataset.
type SuperstoreOrder struct {
	RowID        int64
	OrderID      string
	OrderDate    *time.Time
	ShipDate     *time.Time
	ShipMode     string
	CustomerID   string
	CustomerName string
	Segment      string
	Country      string
	City         string
	State        string
	PostalCode   *string
	Region       string
	ProductID    string
	Category     string
	SubCategory  string
	ProductName  string
	Sales        decimal.Decimal
	Quantity     int64
	Discount     float64
	Profit       decimal.Decimal
}

// WalmartStore describes a store.
type WalmartStore struct {
	Store int64
	Type  string
	Size  int64
}

// WalmartFeature holds the regional indicators for a store and week.
// Markdowns and macro indicators are often missing.
type WalmartFeature struct {
	Store        int64
	Date         time.Time
	Temperature  *float64
	FuelPrice    *float64
	Markdowns    [5]*float64
	CPI          *float64
	Unemployment *float64
	IsHoliday    bool
}

// WalmartSale is one department's weekly sales.
type WalmartSale struct {
	Store       int64
	Dept        int64
	Date        time.Time
	WeeklySales float64
	IsHoliday   bool
}

// WalmartTestRow is a week to be predicted.
type WalmartTestRow struct {
	Store     int64
	Dept      int64
	Date      time.Time
	IsHoliday bool
}

// WeeklySales is a store total for one week.
type WeeklySales struct {
	Date      time.Time
	Sales     float64
	IsHoliday bool
}

// StoreSummary lists a store with its history size.
type StoreSummary struct {
	Store      int64
	Type       *string
	Size       *int64
	Weeks      int64
	TotalSales decimal.Decimal
}
