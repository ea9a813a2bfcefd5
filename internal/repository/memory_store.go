package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"listings-import-service/internal/models"
)

// MemoryStore is an in-process ProductStore used by tests and local tooling.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*models.Product          // keyed by SKU
	listings map[uuid.UUID]*models.AmazonListing // keyed by product ID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]*models.Product),
		listings: make(map[uuid.UUID]*models.AmazonListing),
	}
}

func (s *MemoryStore) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[sku]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Insert(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[product.SKU]; exists {
		return ErrDuplicateSKU
	}
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	cp := *product
	s.products[product.SKU] = &cp
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sku, existing := range s.products {
		if existing.ID == product.ID {
			// SKU is immutable through Update; the stored key stays put.
			cp := *product
			cp.SKU = sku
			s.products[sku] = &cp
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) FindAmazonDataByProductID(ctx context.Context, productID uuid.UUID) (*models.AmazonListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[productID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) InsertAmazonData(ctx context.Context, data *models.AmazonListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data.ID == uuid.Nil {
		data.ID = uuid.New()
	}
	cp := *data
	s.listings[data.ProductID] = &cp
	return nil
}

func (s *MemoryStore) UpdateAmazonData(ctx context.Context, data *models.AmazonListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pid, existing := range s.listings {
		if existing.ID == data.ID {
			cp := *data
			cp.ProductID = pid
			s.listings[pid] = &cp
			return nil
		}
	}
	return ErrNotFound
}

// ProductCount returns the number of stored products.
func (s *MemoryStore) ProductCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// ListingCount returns the number of stored extension rows.
func (s *MemoryStore) ListingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.listings)
}
