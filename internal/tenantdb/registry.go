// internal/tenantdb/registry.go
//
// Per-schema connection registries.
//
// Context
// -------
// Tenant-scoped pools are expensive to open and long-lived, so each is
// created lazily on first use and cached for the process lifetime — no
// TTL, no staleness check.  Entries, once stored, are immutable
// references; reads need no locking.  First access per key goes through
// a singleflight group so N concurrent cold hits open exactly one pool
// and all N callers observe the same instance.  The only teardown is
// CloseAll, intended for graceful shutdown and test isolation, never
// for request handling.
//
// Two registries exist because they wrap different client types: the
// sqlx registry serves catalog/store CRUD, the pgxpool registry serves
// raw-query tooling.  They are cached independently by design.
package tenantdb

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/stolyo/internal/database"
	"github.com/yanizio/stolyo/internal/metrics"
)

//
// sqlx registry
//

// Registry caches one *sqlx.DB per normalized schema name.
type Registry struct {
	baseURL string
	sfg     singleflight.Group
	m       sync.Map // schema → *sqlx.DB

	// open is swappable for tests.
	open func(ctx context.Context, url string) (*sqlx.DB, error)
}

// NewRegistry builds a Registry deriving tenant URLs from baseURL.
func NewRegistry(baseURL string) *Registry {
	return &Registry{
		baseURL: baseURL,
		open: func(ctx context.Context, url string) (*sqlx.DB, error) {
			return database.OpenWithOptions(ctx, url, database.TenantOptions())
		},
	}
}

// NewRegistryWithOpener builds a Registry whose pools come from open
// instead of the default dialer.  Handler tests use it to serve sqlmock
// pools through the real cache discipline.
func NewRegistryWithOpener(baseURL string, open func(ctx context.Context, url string) (*sqlx.DB, error)) *Registry {
	return &Registry{baseURL: baseURL, open: open}
}

// Get returns the pool for schema, opening it on first use.
func (r *Registry) Get(ctx context.Context, schema string) (*sqlx.DB, error) {
	key := database.NormalizeSchema(schema)

	if v, ok := r.m.Load(key); ok {
		return v.(*sqlx.DB), nil
	}

	v, err, _ := r.sfg.Do(key, func() (interface{}, error) {
		// Double-check after the singleflight barrier.
		if v, ok := r.m.Load(key); ok {
			return v, nil
		}
		url, err := database.WithSearchPath(r.baseURL, key)
		if err != nil {
			return nil, err
		}
		db, err := r.open(ctx, url)
		if err != nil {
			return nil, err
		}
		r.m.Store(key, db)
		metrics.TenantPoolOpenTotal.Inc()
		metrics.ActiveTenantPools.Inc()
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sqlx.DB), nil
}

// CloseAll closes every cached pool and empties the registry.
func (r *Registry) CloseAll() error {
	var firstErr error
	r.m.Range(func(key, value any) bool {
		if err := value.(*sqlx.DB).Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		r.m.Delete(key)
		metrics.ActiveTenantPools.Dec()
		return true
	})
	return firstErr
}

//
// pgxpool registry
//

// PoolRegistry caches one *pgxpool.Pool per normalized schema name.  Same
// cache discipline as Registry, independent key space.
type PoolRegistry struct {
	baseURL string
	sfg     singleflight.Group
	m       sync.Map // schema → *pgxpool.Pool

	open func(ctx context.Context, url string) (*pgxpool.Pool, error)
}

// NewPoolRegistry builds a PoolRegistry deriving tenant URLs from baseURL.
func NewPoolRegistry(baseURL string) *PoolRegistry {
	return &PoolRegistry{
		baseURL: baseURL,
		open:    database.OpenPool,
	}
}

// Get returns the pgx pool for schema, opening it on first use.
func (r *PoolRegistry) Get(ctx context.Context, schema string) (*pgxpool.Pool, error) {
	key := database.NormalizeSchema(schema)

	if v, ok := r.m.Load(key); ok {
		return v.(*pgxpool.Pool), nil
	}

	v, err, _ := r.sfg.Do(key, func() (interface{}, error) {
		if v, ok := r.m.Load(key); ok {
			return v, nil
		}
		url, err := database.WithSearchPath(r.baseURL, key)
		if err != nil {
			return nil, err
		}
		pool, err := r.open(ctx, url)
		if err != nil {
			return nil, err
		}
		r.m.Store(key, pool)
		metrics.TenantPoolOpenTotal.Inc()
		metrics.ActiveTenantPools.Inc()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pgxpool.Pool), nil
}

// CloseAll closes every cached pool and empties the registry.
func (r *PoolRegistry) CloseAll() {
	r.m.Range(func(key, value any) bool {
		value.(*pgxpool.Pool).Close()
		r.m.Delete(key)
		metrics.ActiveTenantPools.Dec()
		return true
	})
}
