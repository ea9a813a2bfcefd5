package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"listings-import-service/internal/models"
)

// DryRunStore wraps another ProductStore: reads pass through, writes are
// recorded and dropped. Injecting it keeps the import flow free of dry-run
// conditionals.
type DryRunStore struct {
	inner ProductStore

	mu              sync.Mutex
	inserts         []*models.Product
	updates         []*models.Product
	extensionWrites int
}

// NewDryRunStore wraps inner in a write-discarding recorder.
func NewDryRunStore(inner ProductStore) *DryRunStore {
	return &DryRunStore{inner: inner}
}

func (s *DryRunStore) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	return s.inner.FindBySKU(ctx, sku)
}

func (s *DryRunStore) Insert(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// The caller relies on the product getting an identity for the
	// extension row, same as a real insert.
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	s.inserts = append(s.inserts, product)
	return nil
}

func (s *DryRunStore) Update(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, product)
	return nil
}

func (s *DryRunStore) FindAmazonDataByProductID(ctx context.Context, productID uuid.UUID) (*models.AmazonListing, error) {
	return s.inner.FindAmazonDataByProductID(ctx, productID)
}

func (s *DryRunStore) InsertAmazonData(ctx context.Context, data *models.AmazonListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data.ID == uuid.Nil {
		data.ID = uuid.New()
	}
	s.extensionWrites++
	return nil
}

func (s *DryRunStore) UpdateAmazonData(ctx context.Context, data *models.AmazonListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extensionWrites++
	return nil
}

// RecordedInserts returns the products that would have been created.
func (s *DryRunStore) RecordedInserts() []*models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Product(nil), s.inserts...)
}

// RecordedUpdates returns the products that would have been updated.
func (s *DryRunStore) RecordedUpdates() []*models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.Product(nil), s.updates...)
}
