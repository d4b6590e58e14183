// Package postgres opens the two PostgreSQL handles the tool uses: a
// database/sql pool on lib/pq for regular statements and a pgx pool for COPY.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"personnel/internal/platform/config"
)

// Open connects through lib/pq and verifies the connection.
func Open(ctx context.Context, databaseURL string, cfg config.DatabaseConfig) (*sql.DB, error) {
	dsn, err := withStatementTimeout(databaseURL, cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// OpenPool connects through pgx. It backs the COPY write path only.
func OpenPool(ctx context.Context, databaseURL string, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn, err := withStatementTimeout(databaseURL, cfg)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pgx pool: %w", err)
	}
	return pool, nil
}

// withStatementTimeout adds statement_timeout as a run-time parameter, which
// both drivers forward to the server at connection start.
func withStatementTimeout(databaseURL string, cfg config.DatabaseConfig) (string, error) {
	if cfg.StatementTimeout <= 0 {
		return databaseURL, nil
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("parse postgres url: %w", err)
	}
	q := u.Query()
	q.Set("statement_timeout", strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
