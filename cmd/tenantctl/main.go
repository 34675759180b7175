// cmd/tenantctl/main.go
//
// Operator tooling for tenant schemas.
//
// Commands
// --------
//
//	tenantctl migrate-tenants   re-apply the schema template to every
//	                            tenant and verify each schema answers
//	tenantctl seed              create the fixed demo tenant for local
//	                            development (idempotent)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/stolyo/internal/config"
	"github.com/yanizio/stolyo/internal/database"
	"github.com/yanizio/stolyo/internal/directory"
	"github.com/yanizio/stolyo/internal/provision"
	"github.com/yanizio/stolyo/internal/tenantdb"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tenantctl <migrate-tenants|seed>\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect control-plane DB: %v", err)
	}
	defer db.Close()

	store := directory.NewStore(db)

	switch flag.Arg(0) {
	case "migrate-tenants":
		if err := migrateTenants(ctx, cfg, db, store); err != nil {
			log.Fatalf("migrate-tenants: %v", err)
		}
	case "seed":
		if err := seed(ctx, cfg, db, store); err != nil {
			log.Fatalf("seed: %v", err)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// migrateTenants re-applies the template to every tenant, then pings each
// schema through a scoped pgx pool to confirm the search_path wiring.
func migrateTenants(ctx context.Context, cfg *config.Config, db *sqlx.DB, store *directory.Store) error {
	prov := provision.NewProvisioner(db)
	n, err := prov.MigrateAll(ctx, store)
	if err != nil {
		return err
	}

	pools := tenantdb.NewPoolRegistry(cfg.Database.URL)
	defer pools.CloseAll()

	tenants, err := store.AllTenants(ctx)
	if err != nil {
		return err
	}
	for _, t := range tenants {
		pool, err := pools.Get(ctx, t.SchemaName)
		if err != nil {
			return fmt.Errorf("open pool for %s: %w", t.Slug, err)
		}
		var count int
		if err := pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&count); err != nil {
			return fmt.Errorf("verify schema %s: %w", t.SchemaName, err)
		}
		fmt.Printf("tenant %-20s schema %-24s products %d\n", t.Slug, t.SchemaName, count)
	}

	fmt.Printf("migrated %d tenant schema(s)\n", n)
	return nil
}

// seed provisions the fixed demo tenant used in local development.
func seed(ctx context.Context, cfg *config.Config, db *sqlx.DB, store *directory.Store) error {
	const slug = "demo"

	if t, err := store.TenantBySlug(ctx, slug); err == nil {
		fmt.Printf("demo tenant already present (schema %s)\n", t.SchemaName)
		return nil
	} else if !errors.Is(err, directory.ErrNotFound) {
		return err
	}

	svc := provision.NewService(db, nil, cfg.Hosts.Dashboard)
	tenant, err := svc.CreateTenant(ctx, provision.CreateTenantParams{
		Name:          "Demo Store",
		Slug:          slug,
		OwnerEmail:    "demo@stolyo.local",
		OwnerPassword: "demo1234",
		OwnerName:     "Demo Owner",
		CustomDomain:  "localhost",
	})
	if err != nil {
		return err
	}

	fmt.Printf("demo tenant created: slug=%s schema=%s\n", tenant.Slug, tenant.SchemaName)
	fmt.Println("sign in with demo@stolyo.local / demo1234 at http://localhost")
	return nil
}
