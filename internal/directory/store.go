// internal/directory/store.go
//
// Query helpers over the control-plane schema.
//
// Context
// -------
// Reads go through Store, which owns the shared *sqlx.DB and applies the
// conservative per-query timeout.  Inserts are package-level helpers
// accepting sqlx.ExtContext so the provisioner can run them inside the
// same transaction as the tenant schema DDL.
package directory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/stolyo/internal/database"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("directory: not found")

// Store wraps the control-plane connection pool.
type Store struct {
	db *sqlx.DB
}

// NewStore binds a Store to the control-plane pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying pool for transactional callers.
func (s *Store) DB() *sqlx.DB { return s.db }

//
// Tenant lookups
//

// TenantByDomain returns the tenant owning an exact hostname mapping.
func (s *Store) TenantByDomain(ctx context.Context, hostname string) (*Tenant, error) {
	ctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	const q = `
        SELECT t.id, t.name, t.slug, t.schema_name, t.created_at
        FROM   domains d
        JOIN   tenants t ON t.id = d.tenant_id
        WHERE  d.hostname = $1
        LIMIT  1`
	var rec Tenant
	if err := s.db.GetContext(ctx, &rec, q, hostname); err != nil {
		return nil, mapNoRows(err)
	}
	return &rec, nil
}

// TenantBySlugOrSchema returns the tenant whose slug OR schema name equals
// candidate.  Used by the subdomain fallback.
func (s *Store) TenantBySlugOrSchema(ctx context.Context, candidate string) (*Tenant, error) {
	ctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	const q = `
        SELECT id, name, slug, schema_name, created_at
        FROM   tenants
        WHERE  slug = $1 OR schema_name = $1
        LIMIT  1`
	var rec Tenant
	if err := s.db.GetContext(ctx, &rec, q, candidate); err != nil {
		return nil, mapNoRows(err)
	}
	return &rec, nil
}

// TenantByID returns one tenant by primary key.
func (s *Store) TenantByID(ctx context.Context, id string) (*Tenant, error) {
	ctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	const q = `
        SELECT id, name, slug, schema_name, created_at
        FROM   tenants
        WHERE  id = $1`
	var rec Tenant
	if err := s.db.GetContext(ctx, &rec, q, id); err != nil {
		return nil, mapNoRows(err)
	}
	return &rec, nil
}

// TenantBySlug returns one tenant by its unique slug.
func (s *Store) TenantBySlug(ctx context.Context, slug string) (*Tenant, error) {
	ctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	const q = `
        SELECT id, name, slug, schema_name, created_at
        FROM   tenants
        WHERE  slug = $1
        LIMIT  1`
	var rec Tenant
	if err := s.db.GetContext(ctx, &rec, q, slug); err != nil {
		return nil, mapNoRows(err)
	}
	return &rec, nil
}

// AllTenants returns every tenant.  Used by the bulk schema migrator and
// admin tooling, not by the HTTP request path.
func (s *Store) AllTenants(ctx context.Context) ([]Tenant, error) {
	const q = `
        SELECT id, name, slug, schema_name, created_at
        FROM   tenants
        ORDER  BY created_at ASC`
	var rows []Tenant
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

//
// Domain lookups
//

// DomainsByTenant returns a tenant's domains, primary first, then oldest.
func (s *Store) DomainsByTenant(ctx context.Context, tenantID string) ([]Domain, error) {
	ctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	const q = `
        SELECT hostname, tenant_id, is_primary, created_at
        FROM   domains
        WHERE  tenant_id = $1
        ORDER  BY is_primary DESC, created_at ASC`
	var rows []Domain
	if err := s.db.SelectContext(ctx, &rows, q, tenantID); err != nil {
		return nil, err
	}
	return rows, nil
}

//
// User and membership lookups
//

// UserByEmail returns one user by unique email.
func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	const q = `
        SELECT id, email, hashed_password, name
        FROM   users
        WHERE  email = $1
        LIMIT  1`
	var rec User
	if err := s.db.GetContext(ctx, &rec, q, email); err != nil {
		return nil, mapNoRows(err)
	}
	return &rec, nil
}

// MembershipFor returns the membership row for (user, tenant), or
// ErrNotFound when the user does not belong to the tenant.
func (s *Store) MembershipFor(ctx context.Context, userID, tenantID string) (*Membership, error) {
	ctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	const q = `
        SELECT user_id, tenant_id, role, created_at
        FROM   user_tenants
        WHERE  user_id = $1 AND tenant_id = $2
        LIMIT  1`
	var rec Membership
	if err := s.db.GetContext(ctx, &rec, q, userID, tenantID); err != nil {
		return nil, mapNoRows(err)
	}
	return &rec, nil
}

// FirstMembership returns the user's oldest membership.  Backs the
// dashboard-entry lookup when a user lands on the marketing host.
func (s *Store) FirstMembership(ctx context.Context, userID string) (*Membership, error) {
	ctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	const q = `
        SELECT user_id, tenant_id, role, created_at
        FROM   user_tenants
        WHERE  user_id = $1
        ORDER  BY created_at ASC
        LIMIT  1`
	var rec Membership
	if err := s.db.GetContext(ctx, &rec, q, userID); err != nil {
		return nil, mapNoRows(err)
	}
	return &rec, nil
}

//
// Insert helpers (transaction-friendly)
//

// InsertTenant writes one tenant row.
func InsertTenant(ctx context.Context, ext sqlx.ExtContext, t *Tenant) error {
	const q = `
        INSERT INTO tenants (id, name, slug, schema_name, created_at)
        VALUES ($1, $2, $3, $4, $5)`
	_, err := ext.ExecContext(ctx, q, t.ID, t.Name, t.Slug, t.SchemaName, t.CreatedAt)
	return err
}

// InsertDomain writes one domain row.
func InsertDomain(ctx context.Context, ext sqlx.ExtContext, d *Domain) error {
	const q = `
        INSERT INTO domains (hostname, tenant_id, is_primary, created_at)
        VALUES ($1, $2, $3, $4)`
	_, err := ext.ExecContext(ctx, q, d.Hostname, d.TenantID, d.IsPrimary, d.CreatedAt)
	return err
}

// InsertUser writes one user row.
func InsertUser(ctx context.Context, ext sqlx.ExtContext, u *User) error {
	const q = `
        INSERT INTO users (id, email, hashed_password, name)
        VALUES ($1, $2, $3, $4)`
	_, err := ext.ExecContext(ctx, q, u.ID, u.Email, u.HashedPassword, u.Name)
	return err
}

// InsertMembership writes one membership row.
func InsertMembership(ctx context.Context, ext sqlx.ExtContext, m *Membership) error {
	const q = `
        INSERT INTO user_tenants (user_id, tenant_id, role, created_at)
        VALUES ($1, $2, $3, $4)`
	_, err := ext.ExecContext(ctx, q, m.UserID, m.TenantID, m.Role, m.CreatedAt)
	return err
}

func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
