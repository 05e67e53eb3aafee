package storage

import (
	"context"
	"fmt"
)

// Table names.
const (
	TableSuperstore      = "superstore_sales"
	TableWalmartStores   = "walmart_stores"
	TableWalmartFeatures = "walmart_features"
	TableWalmartTrain    = "walmart_train"
	TableWalmartTest     = "walmart_test"
)

// The DDL sticks to types and syntax shared by PostgreSQL and DuckDB.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS superstore_sales (
        row_id        INTEGER PRIMARY KEY,
        order_id      VARCHAR NOT NULL,
        order_date    DATE,
        ship_date     DATE,
        ship_mode     VARCHAR,
        customer_id   VARCHAR,
        customer_name VARCHAR,
        segment       VARCHAR,
        country       VARCHAR,
        city          VARCHAR,
        state         VARCHAR,
        postal_code   VARCHAR,
        region        VARCHAR,
        product_id    VARCHAR,
        category      VARCHAR,
        sub_category  VARCHAR,
        product_name  VARCHAR,
        sales         FLOAT8 NOT NULL,
        quantity      INTEGER NOT NULL,
        discount      FLOAT8 NOT NULL,
        profit        FLOAT8 NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS walmart_stores (
        store INTEGER PRIMARY KEY,
        type  VARCHAR NOT NULL,
        size  INTEGER NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS walmart_features (
        store        INTEGER NOT NULL,
        date         DATE NOT NULL,
        temperature  FLOAT8,
        fuel_price   FLOAT8,
        markdown1    FLOAT8,
        markdown2    FLOAT8,
        markdown3    FLOAT8,
        markdown4    FLOAT8,
        markdown5    FLOAT8,
        cpi          FLOAT8,
        unemployment FLOAT8,
        is_holiday   BOOLEAN NOT NULL,
        PRIMARY KEY (store, date)
    )`,
	`CREATE TABLE IF NOT EXISTS walmart_train (
        store        INTEGER NOT NULL,
        dept         INTEGER NOT NULL,
        date         DATE NOT NULL,
        weekly_sales FLOAT8 NOT NULL,
        is_holiday   BOOLEAN NOT NULL,
        PRIMARY KEY (store, dept, date)
    )`,
	`CREATE TABLE IF NOT EXISTS walmart_test (
        store      INTEGER NOT NULL,
        dept       INTEGER NOT NULL,
        date       DATE NOT NULL,
        is_holiday BOOLEAN NOT NULL,
        PRIMARY KEY (store, dept, date)
    )`,
}

// InitSchema creates the tables when they do not exist yet.
func InitSchema(ctx context.Context, db Execer) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
