// internal/catalog/repo.go
//
// Product CRUD against a tenant-scoped pool.
//
// Context
// -------
// A Repo wraps a *sqlx.DB whose search_path already points at one tenant
// schema, so every query here uses bare table names and can never read
// another tenant's rows.  Slug assignment happens on write: the desired
// slug is probed for uniqueness with numeric suffixes before falling back
// to a timestamp, which keeps product URLs stable and collision-free
// without a retry loop around the insert.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/stolyo/internal/database"
)

var (
	ErrNotFound      = errors.New("catalog: product not found")
	ErrInvalidStatus = errors.New("catalog: status must be draft, active, or archived")
	ErrMissingName   = errors.New("catalog: name is required")
)

// slugProbeLimit bounds the numeric-suffix search before the timestamp
// fallback kicks in.
const slugProbeLimit = 50

const productColumns = `id, name, description, slug, status, price, compare_at_price,
	sku, currency, stock_quantity, category_id, image_url, created_at, updated_at`

// Repo performs product reads and writes inside one tenant schema.
type Repo struct {
	db *sqlx.DB
}

// NewRepo binds a Repo to a tenant-scoped pool.
func NewRepo(db *sqlx.DB) *Repo {
	return &Repo{db: db}
}

// CreateProductParams carries the fields accepted on product creation.
// Slug is optional; when absent the slug derives from the name.
type CreateProductParams struct {
	Name           string
	Description    *string
	Slug           *string
	Status         Status
	Price          string
	CompareAtPrice *string
	SKU            *string
	Currency       string
	StockQuantity  int
	CategoryID     *uuid.UUID
	ImageURL       *string
}

// UpdateProductParams carries partial updates; nil fields stay unchanged.
type UpdateProductParams struct {
	Name           *string
	Description    *string
	Slug           *string
	Status         *Status
	Price          *string
	CompareAtPrice *string
	SKU            *string
	Currency       *string
	StockQuantity  *int
	CategoryID     *uuid.UUID
	ImageURL       *string
}

// List returns every product, newest first, optionally filtered by status.
func (r *Repo) List(ctx context.Context, status *Status) ([]Product, error) {
	qctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	var products []Product
	if status != nil {
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		q := `SELECT ` + productColumns + ` FROM products WHERE status = $1 ORDER BY created_at DESC`
		return products, r.db.SelectContext(qctx, &products, q, *status)
	}
	q := `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`
	return products, r.db.SelectContext(qctx, &products, q)
}

// ActiveStorefront returns the products a public storefront shows.
func (r *Repo) ActiveStorefront(ctx context.Context) ([]Product, error) {
	active := StatusActive
	return r.List(ctx, &active)
}

// ByID looks up one product.
func (r *Repo) ByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	qctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	var p Product
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if err := r.db.GetContext(qctx, &p, q, id); err != nil {
		return nil, mapNoRows(err)
	}
	return &p, nil
}

// BySlug looks up one product by its URL slug.
func (r *Repo) BySlug(ctx context.Context, slug string) (*Product, error) {
	qctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	var p Product
	q := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	if err := r.db.GetContext(qctx, &p, q, slug); err != nil {
		return nil, mapNoRows(err)
	}
	return &p, nil
}

// Create inserts a product with a unique slug, derived from the
// requested slug when one is supplied and from the name otherwise.
func (r *Repo) Create(ctx context.Context, in CreateProductParams) (*Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrMissingName
	}
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}

	base := name
	if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
		base = *in.Slug
	}
	slug, err := r.ensureUniqueSlug(ctx, Slugify(base), uuid.Nil)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Product{
		ID:             uuid.New(),
		Name:           name,
		Description:    in.Description,
		Slug:           &slug,
		Status:         status,
		Price:          in.Price,
		CompareAtPrice: in.CompareAtPrice,
		SKU:            in.SKU,
		Currency:       currency,
		StockQuantity:  in.StockQuantity,
		CategoryID:     in.CategoryID,
		ImageURL:       in.ImageURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	qctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	const q = `
		INSERT INTO products (id, name, description, slug, status, price, compare_at_price,
			sku, currency, stock_quantity, category_id, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = r.db.ExecContext(qctx, q,
		p.ID, p.Name, p.Description, p.Slug, p.Status, p.Price, p.CompareAtPrice,
		p.SKU, p.Currency, p.StockQuantity, p.CategoryID, p.ImageURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies the non-nil fields of in to the product and returns the
// updated row.  An explicit slug wins; a renamed product without one
// gets a fresh unique slug.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, in UpdateProductParams) (*Product, error) {
	p, err := r.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrMissingName
		}
		if name != p.Name {
			slug, err := r.ensureUniqueSlug(ctx, Slugify(name), id)
			if err != nil {
				return nil, err
			}
			p.Slug = &slug
		}
		p.Name = name
	}
	if in.Slug != nil {
		slug, err := r.ensureUniqueSlug(ctx, Slugify(*in.Slug), id)
		if err != nil {
			return nil, err
		}
		p.Slug = &slug
	}
	if in.Description != nil {
		p.Description = in.Description
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		p.Status = *in.Status
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.CompareAtPrice != nil {
		p.CompareAtPrice = in.CompareAtPrice
	}
	if in.SKU != nil {
		p.SKU = in.SKU
	}
	if in.Currency != nil {
		p.Currency = strings.ToUpper(strings.TrimSpace(*in.Currency))
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
	}
	if in.ImageURL != nil {
		p.ImageURL = in.ImageURL
	}
	p.UpdatedAt = time.Now().UTC()

	qctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	const q = `
		UPDATE products
		SET name = $1, description = $2, slug = $3, status = $4, price = $5,
			compare_at_price = $6, sku = $7, currency = $8, stock_quantity = $9,
			category_id = $10, image_url = $11, updated_at = $12
		WHERE id = $13`
	res, err := r.db.ExecContext(qctx, q,
		p.Name, p.Description, p.Slug, p.Status, p.Price,
		p.CompareAtPrice, p.SKU, p.Currency, p.StockQuantity,
		p.CategoryID, p.ImageURL, p.UpdatedAt, p.ID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}
	return p, nil
}

// Delete removes a product.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	qctx, cancel := database.WithQueryTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(qctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ensureUniqueSlug probes base, base-2, base-3, ... until a free slug is
// found, excluding the row being updated.  After slugProbeLimit attempts
// it appends a timestamp, which is unique enough for any real catalog.
func (r *Repo) ensureUniqueSlug(ctx context.Context, base string, exclude uuid.UUID) (string, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM products WHERE slug = $1 AND id <> $2)`

	for i := 0; i < slugProbeLimit; i++ {
		candidate := base
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", base, i+1)
		}

		qctx, cancel := database.WithQueryTimeout(ctx)
		var taken bool
		err := r.db.GetContext(qctx, &taken, q, candidate, exclude)
		cancel()
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return fmt.Sprintf("%s-%d", base, time.Now().UnixMilli()), nil
}

func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
