// internal/catalog/model.go
//
// Per-tenant product records.  These rows live inside the tenant's own
// schema; the repository reaches them through a registry pool whose
// search_path is already scoped, so table names stay unqualified.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Status is the product lifecycle enum.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived:
		return true
	}
	return false
}

// Product mirrors one row in `products`.  Price columns scan as strings to
// keep PostgreSQL numeric values exact.
type Product struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Name           string     `db:"name" json:"name"`
	Description    *string    `db:"description" json:"description,omitempty"`
	Slug           *string    `db:"slug" json:"slug,omitempty"`
	Status         Status     `db:"status" json:"status"`
	Price          string     `db:"price" json:"price"`
	CompareAtPrice *string    `db:"compare_at_price" json:"compareAtPrice,omitempty"`
	SKU            *string    `db:"sku" json:"sku,omitempty"`
	Currency       string     `db:"currency" json:"currency"`
	StockQuantity  int        `db:"stock_quantity" json:"stockQuantity"`
	CategoryID     *uuid.UUID `db:"category_id" json:"categoryId,omitempty"`
	ImageURL       *string    `db:"image_url" json:"imageUrl,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

// Category mirrors one row in `categories`.
type Category struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      *string   `db:"slug" json:"slug,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
