package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"retail-demand-optimizer/internal/config"
)

var (
	// ErrNotConfigured indicates the storage backend was not initialised.
	ErrNotConfigured = errors.New("storage: backend not configured")
)

// Querier runs read queries. Placeholders use the $n form, which both
// backends accept.
type Querier interface {
	RunQuery(ctx context.Context, query string, args ...any) ([]Row, error)
}

// Execer runs statements and reports affected rows.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
}

// Client is a storage backend owned by the application and passed to
// every component that touches the database.
type Client interface {
	Querier
	Execer
	Ping(ctx context.Context) error
	Driver() string
	Close()
}

// Open builds the client selected by cfg.Driver.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Client, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgresClient(pool), nil
	case config.DriverDuckDB, "":
		return NewDuckDBClient(ctx, cfg.Path)
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
	}
}

// NewPool configures a PostgreSQL connection pool from runtime settings.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database.dsn is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	return pool, nil
}

// PostgresClient runs queries through a pgx pool.
type PostgresClient struct {
	pool *pgxpool.Pool
}

var _ Client = (*PostgresClient)(nil)

// NewPostgresClient wires a pgx pool into a client.
func NewPostgresClient(pool *pgxpool.Pool) *PostgresClient {
	return &PostgresClient{pool: pool}
}

func (c *PostgresClient) getPool() (*pgxpool.Pool, error) {
	if c == nil || c.pool == nil {
		return nil, ErrNotConfigured
	}
	return c.pool, nil
}

// Driver names the backend.
func (c *PostgresClient) Driver() string {
	return config.DriverPostgres
}

// Close releases the underlying pool resources.
func (c *PostgresClient) Close() {
	if c == nil || c.pool == nil {
		return
	}
	c.pool.Close()
}

// Ping checks connectivity.
func (c *PostgresClient) Ping(ctx context.Context) error {
	pool, err := c.getPool()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

// RunQuery returns every row of the result set.
func (c *PostgresClient) RunQuery(ctx context.Context, query string, args ...any) ([]Row, error) {
	pool, err := c.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, query, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("run query: %w", queryErr)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	out := make([]Row, 0)
	for rows.Next() {
		values, valErr := rows.Values()
		if valErr != nil {
			return nil, fmt.Errorf("read row values: %w", valErr)
		}
		out = append(out, NewRow(columns, values))
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("run query: %w", rows.Err())
	}
	return out, nil
}

// Exec runs a statement.
func (c *PostgresClient) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	pool, err := c.getPool()
	if err != nil {
		return 0, err
	}
	tag, execErr := pool.Exec(ctx, query, args...)
	if execErr != nil {
		return 0, fmt.Errorf("exec: %w", execErr)
	}
	return tag.RowsAffected(), nil
}
