// internal/provision/provisioner.go
//
// Tenant schema provisioning.
//
// Context
// -------
// EnsureSchema applies the rendered template to the control-plane
// database.  The template is idempotent, so provisioning doubles as the
// per-tenant migration mechanism: MigrateAll re-runs it for every known
// tenant after a template change and reports how many were processed.
// Execution fails fast on the first statement error; there is no
// partial-rollback bookkeeping because callers that need atomicity
// (tenant creation) run the statements inside their own transaction via
// EnsureSchemaTx.
package provision

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/stolyo/internal/database"
	"github.com/yanizio/stolyo/internal/directory"
	"github.com/yanizio/stolyo/internal/metrics"
)

// Provisioner executes tenant schema DDL against the control plane.
type Provisioner struct {
	db *sqlx.DB
}

// NewProvisioner binds a Provisioner to the control-plane pool.
func NewProvisioner(db *sqlx.DB) *Provisioner {
	return &Provisioner{db: db}
}

// EnsureSchema creates or upgrades one tenant schema.  Idempotent.
func (p *Provisioner) EnsureSchema(ctx context.Context, schemaName string) error {
	return EnsureSchemaTx(ctx, p.db, schemaName)
}

// EnsureSchemaTx runs the rendered template on ext, which may be a plain
// pool or an open transaction.  Tenant creation passes its transaction so
// schema DDL and directory rows commit or roll back together.
func EnsureSchemaTx(ctx context.Context, ext sqlx.ExtContext, schemaName string) error {
	statements, err := RenderTemplate(schemaName)
	if err != nil {
		return err
	}

	metrics.SchemaProvisionTotal.Inc()
	for i, stmt := range statements {
		qctx, cancel := database.WithQueryTimeout(ctx)
		_, err := ext.ExecContext(qctx, stmt)
		cancel()
		if err != nil {
			metrics.SchemaProvisionErrorsTotal.Inc()
			return fmt.Errorf("provision %s: statement %d/%d: %w",
				schemaName, i+1, len(statements), err)
		}
	}
	return nil
}

// MigrateAll re-applies the template to every tenant in the directory and
// returns the number of tenants processed.  Used by the tenantctl CLI
// after template changes.
func (p *Provisioner) MigrateAll(ctx context.Context, store *directory.Store) (int, error) {
	tenants, err := store.AllTenants(ctx)
	if err != nil {
		return 0, err
	}

	for _, t := range tenants {
		if err := p.EnsureSchema(ctx, t.SchemaName); err != nil {
			return 0, fmt.Errorf("migrate tenant %s: %w", t.Slug, err)
		}
		zap.S().Infow("tenant schema migrated", "tenant", t.Slug, "schema", t.SchemaName)
	}
	return len(tenants), nil
}
