// internal/directory/model.go
//
// Control-plane records: tenants, domains, users, and memberships.
//
// Context
// -------
// The directory is the shared schema every request consults before any
// tenant-scoped work happens.  A Tenant row is created once at
// provisioning time and treated as immutable afterwards; Domains map
// hostnames to tenants (hostname unique across the whole system); a
// Membership grants one user one role inside one tenant.
package directory

import (
	"time"

	"github.com/google/uuid"
)

//
// Roles
//

// Role is the closed set of membership roles.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

//
// Records
//

// Tenant mirrors one row in `tenants`.  SchemaName is derived from Slug at
// creation (`t_` prefix, `[a-z0-9_]` alphabet) and names the isolated
// PostgreSQL schema holding this tenant's tables.
type Tenant struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Slug       string    `db:"slug" json:"slug"`
	SchemaName string    `db:"schema_name" json:"schemaName"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// Domain mirrors one row in `domains`.  Hostname is the primary key, so a
// hostname can belong to at most one tenant system-wide.
type Domain struct {
	Hostname  string    `db:"hostname" json:"hostname"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenantId"`
	IsPrimary bool      `db:"is_primary" json:"isPrimary"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// User mirrors one row in `users`.  The hash never leaves the server.
type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	Name           *string   `db:"name" json:"name,omitempty"`
}

// Membership mirrors one row in `user_tenants`.  The (user, tenant) pair is
// the primary key; a user may belong to many tenants with a different role
// in each.
type Membership struct {
	UserID    uuid.UUID `db:"user_id" json:"userId"`
	TenantID  uuid.UUID `db:"tenant_id" json:"tenantId"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
