package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"

	"retail-demand-optimizer/internal/config"
)

// DuckDBClient runs queries against an embedded DuckDB database. An empty
// path opens an in-memory database shared by all connections of the client.
type DuckDBClient struct {
	db   *sql.DB
	path string
}

var _ Client = (*DuckDBClient)(nil)

// NewDuckDBClient opens and pings the database.
func NewDuckDBClient(ctx context.Context, path string) (*DuckDBClient, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &DuckDBClient{db: db, path: path}, nil
}

// Driver names the backend.
func (c *DuckDBClient) Driver() string {
	return config.DriverDuckDB
}

// Path is the database file, empty for in-memory.
func (c *DuckDBClient) Path() string {
	return c.path
}

// Close closes the database.
func (c *DuckDBClient) Close() {
	if c == nil || c.db == nil {
		return
	}
	c.db.Close()
}

// Ping checks the database handle.
func (c *DuckDBClient) Ping(ctx context.Context) error {
	if c == nil || c.db == nil {
		return ErrNotConfigured
	}
	return c.db.PingContext(ctx)
}

// RunQuery returns every row of the result set.
func (c *DuckDBClient) RunQuery(ctx context.Context, query string, args ...any) ([]Row, error) {
	if c == nil || c.db == nil {
		return nil, ErrNotConfigured
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	out := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, NewRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	return out, nil
}

// Exec runs a statement.
func (c *DuckDBClient) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if c == nil || c.db == nil {
		return 0, ErrNotConfigured
	}
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}
