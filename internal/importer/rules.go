package importer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"listings-import-service/internal/models"
)

// priceFallbackFields is the ordered candidate list for price extraction.
// First field whose value parses to a finite number > 0 wins. The
// purchasable_offer entry matches the marketplace offer path columns some
// exports use instead of a flat price field.
var priceFallbackFields = []string{
	"list_price_with_tax",
	"purchasable_offer",
	"standard_price",
	"our_price",
	"price",
}

const (
	maxOtherImages  = 8
	maxBulletPoints = 5
	maxTags         = 20
	minTagLength    = 3
)

// MappingRule transforms one raw field into one preview field. Apply writes
// through a typed setter so target fields are checked at compile time.
type MappingRule struct {
	// SourceField is the header (substring) the value is read from.
	SourceField string
	// Required marks the rule for the mapping statistics.
	Required bool
	// AlwaysRun rules compute derived fields (price fallback, image list)
	// and run even when no column literally matches SourceField.
	AlwaysRun bool
	// Apply writes the transformed value into the preview. An error (or
	// panic) is recorded on the record without aborting the other rules.
	Apply func(p *models.ProductPreview, value string, row models.RawRow) error
}

// DefaultMappingRules returns the rule set for Amazon Category Listings
// Report rows, in application order.
func DefaultMappingRules() []MappingRule {
	return []MappingRule{
		{
			SourceField: "item_sku",
			Required:    true,
			Apply: func(p *models.ProductPreview, value string, _ models.RawRow) error {
				p.SKU = value
				p.AmazonData.AmazonSKU = value
				return nil
			},
		},
		{
			SourceField: "item_name",
			Required:    true,
			Apply: func(p *models.ProductPreview, value string, _ models.RawRow) error {
				p.Name = value
				return nil
			},
		},
		{
			SourceField: "product_description",
			Apply: func(p *models.ProductPreview, value string, _ models.RawRow) error {
				p.Description = value
				return nil
			},
		},
		{
			SourceField: "feed_product_type",
			Required:    true,
			Apply: func(p *models.ProductPreview, value string, _ models.RawRow) error {
				p.AmazonData.FeedProductType = value
				return nil
			},
		},
		{
			SourceField: "recommended_browse_nodes",
			Apply: func(p *models.ProductPreview, value string, _ models.RawRow) error {
				p.AmazonData.BrowseNodes = value
				return nil
			},
		},
		{
			SourceField: "price",
			AlwaysRun:   true,
			Apply: func(p *models.ProductPreview, _ string, row models.RawRow) error {
				p.Price = ExtractPrice(row)
				return nil
			},
		},
		{
			SourceField: "list_price",
			Apply: func(p *models.ProductPreview, value string, _ models.RawRow) error {
				v, err := parsePrice(value)
				if err != nil {
					return fmt.Errorf("invalid list price %q: %w", value, err)
				}
				p.CompareAtPrice = &v
				return nil
			},
		},
		{
			SourceField: "main_image_url",
			AlwaysRun:   true,
			Apply: func(p *models.ProductPreview, _ string, row models.RawRow) error {
				p.Images = ExtractImages(row)
				return nil
			},
		},
		{
			SourceField: "bullet_point",
			AlwaysRun:   true,
			Apply: func(p *models.ProductPreview, _ string, row models.RawRow) error {
				p.AmazonData.BulletPoints = ExtractBulletPoints(row)
				return nil
			},
		},
		{
			SourceField: "generic_keywords",
			AlwaysRun:   true,
			Apply: func(p *models.ProductPreview, _ string, row models.RawRow) error {
				p.Tags = ExtractTags(row)
				return nil
			},
		},
		{
			SourceField: "item_weight",
			AlwaysRun:   true,
			Apply: func(p *models.ProductPreview, _ string, row models.RawRow) error {
				p.Weight = ExtractWeight(row)
				return nil
			},
		},
		{
			SourceField: "item_length",
			AlwaysRun:   true,
			Apply: func(p *models.ProductPreview, _ string, row models.RawRow) error {
				p.Dimensions = ExtractDimensions(row)
				return nil
			},
		},
		{
			SourceField: "listing_status",
			Apply: func(p *models.ProductPreview, value string, _ models.RawRow) error {
				p.AmazonData.ListingStatus = value
				return nil
			},
		},
	}
}

// ExtractPrice walks the fallback chain and returns the first value parsing
// to a finite number greater than zero, or nil.
func ExtractPrice(row models.RawRow) *float64 {
	for _, field := range priceFallbackFields {
		value, ok := row.Lookup(field)
		if !ok || value == "" {
			continue
		}
		v, err := parsePrice(value)
		if err != nil {
			continue
		}
		return &v
	}
	return nil
}

// parsePrice tolerates currency symbols and thousands separators.
func parsePrice(value string) (float64, error) {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimLeft(cleaned, "$€£¥ ")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("price %q is not a positive finite number", value)
	}
	return v, nil
}

// ExtractImages combines main_image_url with up to 8 numbered
// other_image_url fields, preserving order and skipping gaps.
func ExtractImages(row models.RawRow) []string {
	var images []string
	if main := row.Get("main_image_url"); main != "" {
		images = append(images, main)
	}
	for i := 1; i <= maxOtherImages; i++ {
		if url := row.Get(fmt.Sprintf("other_image_url%d", i)); url != "" {
			images = append(images, url)
		}
	}
	return images
}

// ExtractBulletPoints collects the numbered bullet_point fields in order.
func ExtractBulletPoints(row models.RawRow) []string {
	var bullets []string
	for i := 1; i <= maxBulletPoints; i++ {
		if b := row.Get(fmt.Sprintf("bullet_point%d", i)); b != "" {
			bullets = append(bullets, b)
		}
	}
	return bullets
}

// ExtractTags splits generic_keywords on commas and semicolons, trims,
// drops tokens shorter than 3 characters, deduplicates and caps at 20.
func ExtractTags(row models.RawRow) []string {
	keywords := row.Get("generic_keywords")
	if keywords == "" {
		return nil
	}
	tokens := strings.FieldsFunc(keywords, func(r rune) bool {
		return r == ',' || r == ';'
	})
	seen := make(map[string]bool)
	var tags []string
	for _, token := range tokens {
		tag := strings.TrimSpace(token)
		if len(tag) < minTagLength {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		tags = append(tags, tag)
		if len(tags) == maxTags {
			break
		}
	}
	return tags
}

// ExtractWeight tries item_weight then the shipping weight column.
func ExtractWeight(row models.RawRow) *float64 {
	for _, field := range []string{"item_weight", "website_shipping_weight"} {
		value, ok := row.Lookup(field)
		if !ok || value == "" {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil && v > 0 {
			return &v
		}
	}
	return nil
}

// ExtractDimensions builds dimensions from the item_* columns; all three
// sides must parse for a result.
func ExtractDimensions(row models.RawRow) *models.Dimensions {
	length, lerr := strconv.ParseFloat(strings.TrimSpace(row.Get("item_length")), 64)
	width, werr := strconv.ParseFloat(strings.TrimSpace(row.Get("item_width")), 64)
	height, herr := strconv.ParseFloat(strings.TrimSpace(row.Get("item_height")), 64)
	if lerr != nil || werr != nil || herr != nil {
		return nil
	}
	unit := row.Get("item_dimensions_unit_of_measure")
	if unit == "" {
		unit = "inches"
	}
	return &models.Dimensions{
		Length: length,
		Width:  width,
		Height: height,
		Unit:   unit,
	}
}
