// cmd/migrate/main.go
//
// Control-plane schema migrations.
//
// The shared tables (tenants, domains, users, user_tenants) are
// versioned with golang-migrate; per-tenant schemas are handled
// separately by the idempotent template (see cmd/tenantctl).
package main

import (
	"errors"
	"flag"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("STOLYO_DATABASE__URL"),
			"PostgreSQL connection URL (defaults to STOLYO_DATABASE__URL)")
		source  = flag.String("source", "file://migrations", "Migration source")
		command = flag.String("command", "up", "Migration command (up, down, force)")
		forceTo = flag.Int("force-version", 1, "Version for the force command")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("database URL is required (flag -database-url or STOLYO_DATABASE__URL)")
	}

	cfg, err := pgx.ParseConfig(*databaseURL)
	if err != nil {
		log.Fatalf("parse database URL: %v", err)
	}
	db := stdlib.OpenDB(*cfg)
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatalf("create migration driver: %v", err)
	}
	m, err := migrate.NewWithDatabaseInstance(*source, "postgres", driver)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}

	switch *command {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("apply migrations: %v", err)
		}
		log.Println("migrations applied")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("revert migrations: %v", err)
		}
		log.Println("migrations reverted")
	case "force":
		if err := m.Force(*forceTo); err != nil {
			log.Fatalf("force version: %v", err)
		}
		log.Printf("migration version forced to %d", *forceTo)
	default:
		log.Fatalf("unknown command %q", *command)
	}
}
