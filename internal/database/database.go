// Package database centralises sqlx connection helpers for PostgreSQL.
// The driver is pgx (database/sql compatibility layer), which keeps sqlx
// ergonomics while exposing pgx's runtime-parameter handling — the
// mechanism search_path scoping relies on.
//
// Public entry points:
//
//	Open(ctx, url)                      – quick helper with conservative pool sizes.
//	OpenWithOptions(ctx, url, opts)     – fine-grained control, with retry.
//	OpenPool(ctx, url)                  – raw pgxpool for code that wants pgx natively.
//	WithQueryTimeout(ctx)               – conservative per-query deadline.
//
// The sqlx helpers Ping the database before returning so callers can fail
// fast during bootstrap.  Callers should Close() the returned handle when
// no longer needed.
package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// QueryTimeout bounds individual control-plane statements.  Expiry is an
// infrastructure error, never a tenant-resolution miss.
const QueryTimeout = 5 * time.Second

// Options tunes pool sizing and bootstrap retry behaviour.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retries         int
	RetryBackoff    time.Duration
}

// DefaultOptions suits the process-wide control-plane pool.
func DefaultOptions() Options {
	return Options{
		MaxOpenConns:    15,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// TenantOptions keeps per-tenant resource usage small.  Registries open one
// of these pools per schema.
func TenantOptions() Options {
	return Options{
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
		Retries:         2,
		RetryBackoff:    500 * time.Millisecond,
	}
}

// Open returns a *sqlx.DB with the default pool sizes.  Suitable for the
// control-plane pool or for test setups.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	return OpenWithOptions(ctx, url, DefaultOptions())
}

// OpenWithOptions lets callers tune the pool per use.  The connect ping is
// retried Options.Retries times with a fixed backoff, which smooths over
// database restarts during deploys.
func OpenWithOptions(ctx context.Context, url string, opts Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", url)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	err = db.PingContext(ctx)
	for attempt := 0; err != nil && attempt < opts.Retries; attempt++ {
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryBackoff):
		}
		err = db.PingContext(ctx)
	}
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenPool returns a pgxpool with tenant-sized limits.  Used by the raw
// registry variant; the sqlx registry covers everything else.
func OpenPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 5
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// WithQueryTimeout derives a context bounded by QueryTimeout.
func WithQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, QueryTimeout)
}
