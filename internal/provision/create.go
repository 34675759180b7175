// internal/provision/create.go
//
// Tenant creation flow.
//
// Context
// -------
// CreateTenant is the one write path that touches both planes: it
// renders and runs the tenant schema DDL AND inserts the directory rows
// (tenant, domains, owner user, OWNER membership) in a single
// control-plane transaction.  PostgreSQL DDL is transactional, so a
// crash mid-flow leaves neither an orphaned schema nor a tenant row
// pointing at nothing.
//
// Conflicts surface as typed errors: a reused owner email is detected
// up front, a duplicate domain arrives as a unique-constraint violation
// and is mapped to ErrDomainExists.
package provision

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanizio/stolyo/internal/directory"
)

// Typed conflict/validation errors.  The web layer maps them to 400/409.
var (
	ErrMissingFields   = errors.New("provision: name, slug, ownerEmail, and ownerPassword are required")
	ErrInvalidSlug     = errors.New("provision: slug must contain only a-z, 0-9, and hyphens")
	ErrOwnerEmailTaken = errors.New("provision: owner email already exists")
	ErrDomainExists    = errors.New("provision: domain already mapped to a tenant")
	ErrSlugTaken       = errors.New("provision: slug already in use")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// CreateTenantParams is the validated input to CreateTenant.
type CreateTenantParams struct {
	Name          string
	Slug          string
	OwnerEmail    string
	OwnerPassword string
	OwnerName     string
	CustomDomain  string
}

// Service owns the tenant creation flow.
type Service struct {
	db            *sqlx.DB
	cache         *directory.HostCache // nil disables invalidation
	dashboardHost string
}

// NewService wires a Service.  db must be the control-plane pool.
func NewService(db *sqlx.DB, cache *directory.HostCache, dashboardHost string) *Service {
	return &Service{db: db, cache: cache, dashboardHost: strings.ToLower(dashboardHost)}
}

// SchemaNameForSlug derives the tenant schema name: `t_` plus the slug
// with every character outside [a-z0-9_] replaced by underscore.
func SchemaNameForSlug(slug string) string {
	var b strings.Builder
	b.Grow(len(slug) + 2)
	b.WriteString("t_")
	for _, r := range strings.ToLower(slug) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// CreateTenant provisions the schema and inserts the directory graph.
func (s *Service) CreateTenant(ctx context.Context, p CreateTenantParams) (*directory.Tenant, error) {
	name := strings.TrimSpace(p.Name)
	slug := strings.ToLower(strings.TrimSpace(p.Slug))
	ownerEmail := strings.ToLower(strings.TrimSpace(p.OwnerEmail))
	ownerPassword := strings.TrimSpace(p.OwnerPassword)
	ownerName := strings.TrimSpace(p.OwnerName)
	customDomain := strings.ToLower(strings.TrimSpace(p.CustomDomain))

	if name == "" || slug == "" || ownerEmail == "" || ownerPassword == "" {
		return nil, ErrMissingFields
	}
	if !slugPattern.MatchString(slug) {
		return nil, ErrInvalidSlug
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(ownerPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash owner password: %w", err)
	}

	schemaName := SchemaNameForSlug(slug)
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Schema DDL first; it participates in the same transaction.
	if err := EnsureSchemaTx(ctx, tx, schemaName); err != nil {
		return nil, err
	}

	// Do not silently attach a tenant to an existing account.
	var emailTaken bool
	const emailQ = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	if err := tx.GetContext(ctx, &emailTaken, emailQ, ownerEmail); err != nil {
		return nil, err
	}
	if emailTaken {
		return nil, ErrOwnerEmailTaken
	}

	tenant := &directory.Tenant{
		ID:         uuid.New(),
		Name:       name,
		Slug:       slug,
		SchemaName: schemaName,
		CreatedAt:  now,
	}
	if err := directory.InsertTenant(ctx, tx, tenant); err != nil {
		return nil, mapConflict(err, ErrSlugTaken)
	}

	// Generated subdomain is primary unless a custom domain takes over.
	generated := &directory.Domain{
		Hostname:  slug + "." + s.dashboardHost,
		TenantID:  tenant.ID,
		IsPrimary: customDomain == "",
		CreatedAt: now,
	}
	if err := directory.InsertDomain(ctx, tx, generated); err != nil {
		return nil, mapConflict(err, ErrDomainExists)
	}
	invalidate := []string{generated.Hostname}

	if customDomain != "" {
		custom := &directory.Domain{
			Hostname:  customDomain,
			TenantID:  tenant.ID,
			IsPrimary: true,
			CreatedAt: now.Add(time.Microsecond), // generated domain stays oldest
		}
		if err := directory.InsertDomain(ctx, tx, custom); err != nil {
			return nil, mapConflict(err, ErrDomainExists)
		}
		invalidate = append(invalidate, customDomain)
	}

	owner := &directory.User{
		ID:             uuid.New(),
		Email:          ownerEmail,
		HashedPassword: string(hashed),
	}
	if ownerName != "" {
		owner.Name = &ownerName
	}
	if err := directory.InsertUser(ctx, tx, owner); err != nil {
		return nil, mapConflict(err, ErrOwnerEmailTaken)
	}

	membership := &directory.Membership{
		UserID:    owner.ID,
		TenantID:  tenant.ID,
		Role:      directory.RoleOwner,
		CreatedAt: now,
	}
	if err := directory.InsertMembership(ctx, tx, membership); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, invalidate...)
	zap.S().Infow("tenant created",
		"tenant", slug, "schema", schemaName, "custom_domain", customDomain != "")
	return tenant, nil
}

// mapConflict converts a PostgreSQL unique violation into the given typed
// error; everything else passes through.
func mapConflict(err error, conflict error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return conflict
	}
	return err
}
