// internal/store/service.go
//
// Load/save for the per-tenant store_configs row.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/stolyo/internal/database"
)

// Service reads and writes the single configuration row inside one
// tenant schema.
type Service struct {
	db *sqlx.DB
}

// NewService binds a Service to a tenant-scoped pool.
func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// Load returns the tenant's configuration merged over the defaults.  A
// tenant that has never saved gets the defaults.
func (s *Service) Load(ctx context.Context) (Config, error) {
	qctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	var raw []byte
	err := s.db.GetContext(qctx, &raw, `SELECT config FROM store_configs LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), err
	}
	return Parse(raw)
}

// Save replaces the tenant's configuration.  The table holds one logical
// row, so the write is a delete-then-insert inside one transaction.
func (s *Service) Save(ctx context.Context, cfg Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return err
	}

	qctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTxx(qctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(qctx, `DELETE FROM store_configs`); err != nil {
		return err
	}
	const q = `INSERT INTO store_configs (id, config, updated_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(qctx, q, uuid.New(), raw, time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}
