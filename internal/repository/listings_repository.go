package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"listings-import-service/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL = 5 * time.Minute // SKU lookup cache
)

// ListingsRepository is the Postgres-backed ProductStore with an optional
// Redis read-through cache for SKU lookups.
type ListingsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewListingsRepository creates a repository. redis may be nil; caching is
// then disabled.
func NewListingsRepository(db *gorm.DB, redis *redis.Client) *ListingsRepository {
	return &ListingsRepository{db: db, redis: redis}
}

func skuCacheKey(sku string) string {
	return fmt.Sprintf("listings:product:sku:%s", sku)
}

// FindBySKU retrieves a product by exact SKU match with caching.
func (r *ListingsRepository) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	cacheKey := skuCacheKey(sku)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// Insert creates a new product row.
func (r *ListingsRepository) Insert(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return translateError(err)
	}
	r.invalidate(ctx, product.SKU)
	return nil
}

// Update replaces the stored product identified by product.ID.
func (r *ListingsRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(product)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	r.invalidate(ctx, product.SKU)
	return nil
}

// FindAmazonDataByProductID retrieves the extension row linked to a product.
func (r *ListingsRepository) FindAmazonDataByProductID(ctx context.Context, productID uuid.UUID) (*models.AmazonListing, error) {
	var listing models.AmazonListing
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &listing, nil
}

// InsertAmazonData creates a new extension row.
func (r *ListingsRepository) InsertAmazonData(ctx context.Context, data *models.AmazonListing) error {
	if data.ID == uuid.Nil {
		data.ID = uuid.New()
	}
	now := time.Now()
	if data.CreatedAt.IsZero() {
		data.CreatedAt = now
	}
	data.UpdatedAt = now
	return translateError(r.db.WithContext(ctx).Create(data).Error)
}

// UpdateAmazonData replaces the stored extension row identified by data.ID.
func (r *ListingsRepository) UpdateAmazonData(ctx context.Context, data *models.AmazonListing) error {
	data.UpdatedAt = time.Now()
	result := r.db.WithContext(ctx).Model(&models.AmazonListing{}).
		Where("id = ?", data.ID).
		Updates(data)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// invalidate drops the SKU cache entry after a write.
func (r *ListingsRepository) invalidate(ctx context.Context, sku string) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, skuCacheKey(sku)).Err()
}

// translateError maps driver-level errors to the repository sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateSKU
	}
	// Postgres unique_violation surfaces as a plain error string through
	// some driver versions.
	if strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "SQLSTATE 23505") {
		return ErrDuplicateSKU
	}
	return err
}
