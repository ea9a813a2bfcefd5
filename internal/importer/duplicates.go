package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"listings-import-service/internal/models"
	"listings-import-service/internal/repository"
)

// DuplicateHandler reconciles incoming SKUs against existing storage using a
// run-wide strategy.
type DuplicateHandler struct {
	store  repository.ProductStore
	opts   models.DuplicateOptions
	logger *logrus.Entry
}

// NewDuplicateHandler creates a handler; zero-value option fields fall back
// to the documented defaults.
func NewDuplicateHandler(store repository.ProductStore, opts models.DuplicateOptions, logger *logrus.Logger) *DuplicateHandler {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	defaults := models.DefaultDuplicateOptions()
	if opts.Strategy == "" {
		opts.Strategy = defaults.Strategy
	}
	if opts.RenamePattern == "" {
		opts.RenamePattern = defaults.RenamePattern
	}
	if opts.MergeFields == nil {
		opts.MergeFields = defaults.MergeFields
	}
	if opts.CompareFields == nil {
		opts.CompareFields = defaults.CompareFields
	}
	return &DuplicateHandler{
		store:  store,
		opts:   opts,
		logger: logger.WithField("component", "duplicate-handler"),
	}
}

// ValidateOptions checks the configured strategy and rename pattern.
func (h *DuplicateHandler) ValidateOptions() (bool, []string) {
	var errs []string
	switch h.opts.Strategy {
	case models.StrategySkip, models.StrategyOverwrite, models.StrategyMerge, models.StrategyRename:
	default:
		errs = append(errs, fmt.Sprintf("invalid duplicate strategy %q", h.opts.Strategy))
	}
	if h.opts.Strategy == models.StrategyRename {
		if strings.TrimSpace(h.opts.RenamePattern) == "" {
			errs = append(errs, "rename strategy requires a rename pattern")
		} else if !strings.Contains(h.opts.RenamePattern, "{sku}") {
			errs = append(errs, "rename pattern must contain the {sku} placeholder")
		}
	}
	return len(errs) == 0, errs
}

// CheckDuplicate looks up the SKU and decides the resolution. The action for
// an existing product is simply the configured strategy.
func (h *DuplicateHandler) CheckDuplicate(ctx context.Context, sku string) (*models.DuplicateCheckResult, error) {
	existing, err := h.store.FindBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.DuplicateCheckResult{
				IsDuplicate: false,
				Action:      models.DuplicateActionCreate,
				Reason:      "no existing product with this SKU",
			}, nil
		}
		return nil, fmt.Errorf("duplicate check for %s failed: %w", sku, err)
	}

	result := &models.DuplicateCheckResult{
		IsDuplicate:     true,
		ExistingProduct: existing,
		Action:          models.DuplicateAction(h.opts.Strategy),
		Reason:          fmt.Sprintf("product with SKU %s already exists; strategy is %s", sku, h.opts.Strategy),
	}

	amazonData, err := h.store.FindAmazonDataByProductID(ctx, existing.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("extension lookup for %s failed: %w", sku, err)
	}
	result.ExistingAmazonData = amazonData

	return result, nil
}

// GenerateNewSKU substitutes the pattern placeholders for a rename.
func (h *DuplicateHandler) GenerateNewSKU(originalSKU string) string {
	now := time.Now()
	sku := strings.ReplaceAll(h.opts.RenamePattern, "{sku}", originalSKU)
	sku = strings.ReplaceAll(sku, "{timestamp}", fmt.Sprintf("%d", now.UnixMilli()))
	sku = strings.ReplaceAll(sku, "{date}", now.Format("2006-01-02"))
	return sku
}

// MergeProductData combines an existing product with incoming data. Array
// merge fields are unioned, description keeps the longer text, and price and
// stock always take the incoming values: the report is authoritative for
// both.
func (h *DuplicateHandler) MergeProductData(existing, incoming *models.Product) *models.Product {
	merged := *existing

	for _, field := range h.opts.MergeFields {
		switch field {
		case "images":
			merged.Images = unionArrays(existing.Images, incoming.Images)
		case "tags":
			merged.Tags = unionArrays(existing.Tags, incoming.Tags)
		case "description":
			merged.Description = longerString(existing.Description, incoming.Description)
		}
	}

	merged.Price = incoming.Price
	merged.Stock = incoming.Stock
	merged.UpdatedAt = time.Now()
	return &merged
}

// MergeAmazonData overwrites every field with the incoming row while keeping
// the existing identity and creation time.
func (h *DuplicateHandler) MergeAmazonData(existing, incoming *models.AmazonListing) *models.AmazonListing {
	merged := *incoming
	merged.ID = existing.ID
	merged.ProductID = existing.ProductID
	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = time.Now()
	return &merged
}

// DetectChanges lists the compare fields whose values differ.
func (h *DuplicateHandler) DetectChanges(existing, incoming *models.Product) []string {
	var changed []string
	for _, field := range h.opts.CompareFields {
		switch field {
		case "name":
			if existing.Name != incoming.Name {
				changed = append(changed, field)
			}
		case "price":
			if !floatPtrEqual(existing.Price, incoming.Price) {
				changed = append(changed, field)
			}
		case "description":
			if !stringPtrEqual(existing.Description, incoming.Description) {
				changed = append(changed, field)
			}
		case "images":
			if !arraysEqualSorted(existing.Images, incoming.Images) {
				changed = append(changed, field)
			}
		case "tags":
			if !arraysEqualSorted(existing.Tags, incoming.Tags) {
				changed = append(changed, field)
			}
		}
	}
	return changed
}

func unionArrays(a, b *models.JSONArray) *models.JSONArray {
	seen := make(map[string]bool)
	var result models.JSONArray
	appendAll := func(arr *models.JSONArray) {
		if arr == nil {
			return
		}
		for _, item := range *arr {
			key := fmt.Sprintf("%v", item)
			if seen[key] {
				continue
			}
			seen[key] = true
			result = append(result, item)
		}
	}
	appendAll(a)
	appendAll(b)
	if result == nil {
		return nil
	}
	return &result
}

func longerString(a, b *string) *string {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if len(*b) > len(*a) {
		return b
	}
	return a
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func arraysEqualSorted(a, b *models.JSONArray) bool {
	var as, bs []string
	if a != nil {
		for _, item := range *a {
			as = append(as, fmt.Sprintf("%v", item))
		}
	}
	if b != nil {
		for _, item := range *b {
			bs = append(bs, fmt.Sprintf("%v", item))
		}
	}
	if len(as) != len(bs) {
		return false
	}
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
