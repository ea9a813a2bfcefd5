package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"listings-import-service/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateSKU is returned when an insert violates the SKU uniqueness
// constraint. The constraint is the last line of defense against concurrent
// imports racing on the same new SKU, so callers must treat this as a
// per-record failure rather than a fatal error.
var ErrDuplicateSKU = errors.New("duplicate sku")

// ProductStore is the storage surface the import pipeline depends on.
// Implementations are assumed transactional at the single-row level.
type ProductStore interface {
	// FindBySKU returns the product with the exact SKU, or ErrNotFound.
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	// Insert persists a new product row. Returns ErrDuplicateSKU when the
	// SKU already exists.
	Insert(ctx context.Context, product *models.Product) error
	// Update replaces the stored product identified by product.ID.
	Update(ctx context.Context, product *models.Product) error
	// FindAmazonDataByProductID returns the extension row linked to a
	// product, or ErrNotFound.
	FindAmazonDataByProductID(ctx context.Context, productID uuid.UUID) (*models.AmazonListing, error)
	// InsertAmazonData persists a new extension row.
	InsertAmazonData(ctx context.Context, data *models.AmazonListing) error
	// UpdateAmazonData replaces the stored extension row identified by data.ID.
	UpdateAmazonData(ctx context.Context, data *models.AmazonListing) error
}
