package importer

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"listings-import-service/internal/models"
)

const (
	metaTitleLimit          = 60
	metaTitleTruncate       = 57
	metaDescriptionLimit    = 160
	metaDescriptionTruncate = 157
)

var skuPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// builtinCategoryMap routes well-known feed product types to local catalog
// categories when no explicit mapping is configured.
var builtinCategoryMap = map[string]string{
	"home":                 "home-garden",
	"kitchen":              "home-kitchen",
	"toys_and_games":       "toys-games",
	"beauty":               "beauty-personal-care",
	"health":               "health-household",
	"sports":               "sports-outdoors",
	"office_products":      "office-supplies",
	"pet_supplies":         "pet-supplies",
	"clothing":             "apparel",
	"consumer_electronics": "electronics",
}

// Columns the extension extractor handles explicitly; everything else goes
// into the open attributes bag.
var attributeDenylist = []string{
	"item_sku",
	"item_name",
	"product_description",
	"feed_product_type",
	"main_image_url",
	"other_image_url",
	"swatch_image_url",
	"bullet_point",
	"generic_keywords",
	"standard_price",
	"list_price",
	"purchasable_offer",
	"our_price",
	"quantity",
	"brand_name",
	"manufacturer",
	"recommended_browse_nodes",
	"item_weight",
	"item_length",
	"item_width",
	"item_height",
	"item_dimensions_unit_of_measure",
}

// RowSource is the shared extraction surface over the two input shapes the
// transformer accepts: a normalized preview record or a raw report row.
type RowSource interface {
	SKU() string
	Name() string
	Description() string
	Images() []string
	Price() *float64
	CompareAtPrice() *float64
	Weight() *float64
	Dimensions() *models.Dimensions
	Tags() []string
	FeedProductType() string
	BrowseNodes() string
	BulletPoints() []string
	ListingStatus() string
	Raw() models.RawRow
}

// previewSource adapts a ProductPreview.
type previewSource struct {
	p *models.ProductPreview
}

func (s previewSource) SKU() string                    { return s.p.SKU }
func (s previewSource) Name() string                   { return s.p.Name }
func (s previewSource) Description() string            { return s.p.Description }
func (s previewSource) Images() []string               { return s.p.Images }
func (s previewSource) Price() *float64                { return s.p.Price }
func (s previewSource) CompareAtPrice() *float64       { return s.p.CompareAtPrice }
func (s previewSource) Weight() *float64               { return s.p.Weight }
func (s previewSource) Dimensions() *models.Dimensions { return s.p.Dimensions }
func (s previewSource) Tags() []string                 { return s.p.Tags }
func (s previewSource) FeedProductType() string        { return s.p.AmazonData.FeedProductType }
func (s previewSource) BrowseNodes() string            { return s.p.AmazonData.BrowseNodes }
func (s previewSource) BulletPoints() []string         { return s.p.AmazonData.BulletPoints }
func (s previewSource) ListingStatus() string          { return s.p.AmazonData.ListingStatus }
func (s previewSource) Raw() models.RawRow             { return s.p.Raw }

// rawSource adapts an unmapped report row.
type rawSource struct {
	row models.RawRow
}

func (s rawSource) SKU() string                    { return s.row.Get("item_sku") }
func (s rawSource) Name() string                   { return s.row.Get("item_name") }
func (s rawSource) Description() string            { return s.row.Get("product_description") }
func (s rawSource) Images() []string               { return ExtractImages(s.row) }
func (s rawSource) Price() *float64                { return ExtractPrice(s.row) }
func (s rawSource) Weight() *float64               { return ExtractWeight(s.row) }
func (s rawSource) Dimensions() *models.Dimensions { return ExtractDimensions(s.row) }
func (s rawSource) Tags() []string                 { return ExtractTags(s.row) }
func (s rawSource) FeedProductType() string        { return s.row.Get("feed_product_type") }
func (s rawSource) BrowseNodes() string            { return s.row.Get("recommended_browse_nodes") }
func (s rawSource) BulletPoints() []string         { return ExtractBulletPoints(s.row) }
func (s rawSource) ListingStatus() string          { return s.row.Get("listing_status") }
func (s rawSource) Raw() models.RawRow             { return s.row }

func (s rawSource) CompareAtPrice() *float64 {
	if v, err := parsePrice(s.row.Get("list_price")); err == nil {
		return &v
	}
	return nil
}

// SourceFromPreview wraps a preview record for transformation.
func SourceFromPreview(p *models.ProductPreview) RowSource {
	return previewSource{p: p}
}

// SourceFromRaw wraps a raw report row for transformation.
func SourceFromRaw(row models.RawRow) RowSource {
	return rawSource{row: row}
}

// DataTransformer produces storage-ready product and extension rows from a
// row source, applying the configured defaults.
type DataTransformer struct {
	opts   models.TransformOptions
	logger *logrus.Entry
}

// NewDataTransformer creates a transformer with the given options. Zero-value
// option fields fall back to the documented defaults.
func NewDataTransformer(opts models.TransformOptions, logger *logrus.Logger) *DataTransformer {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = "uncategorized"
	}
	if opts.DefaultStatus == "" {
		opts.DefaultStatus = models.ProductStatusDraft
	}
	if opts.EnableAutoTags == nil {
		autoTags := true
		opts.EnableAutoTags = &autoTags
	}
	return &DataTransformer{
		opts:   opts,
		logger: logger.WithField("component", "data-transformer"),
	}
}

// TransformProduct builds the product/extension pair for one source record.
func (t *DataTransformer) TransformProduct(src RowSource) *models.TransformedProductData {
	now := time.Now()

	product := &models.Product{
		Name:       src.Name(),
		SKU:        src.SKU(),
		Slug:       GenerateSlug(src.SKU()),
		Stock:      t.opts.DefaultStockLevel,
		CategoryID: t.resolveCategory(src.FeedProductType()),
		Status:     t.opts.DefaultStatus,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if desc := src.Description(); desc != "" {
		product.Description = &desc
	}
	if price := src.Price(); price != nil {
		v := *price
		if t.opts.PriceMarkup != 0 {
			v = v * (1 + t.opts.PriceMarkup/100)
		}
		product.Price = &v
	}
	if sale, err := parsePrice(src.Raw().Get("sale_price")); err == nil {
		product.SalePrice = &sale
	}
	if weight := src.Weight(); weight != nil {
		product.Weight = weight
	}
	if dims := src.Dimensions(); dims != nil {
		product.Dimensions = &models.JSON{
			"length": dims.Length,
			"width":  dims.Width,
			"height": dims.Height,
			"unit":   dims.Unit,
		}
	}
	if images := src.Images(); len(images) > 0 {
		arr := make(models.JSONArray, len(images))
		for i, img := range images {
			arr[i] = img
		}
		product.Images = &arr
	}
	if stock := parseOptionalInt(src.Raw().Get("quantity")); stock != nil {
		product.Stock = *stock
	}

	tags := t.GenerateTags(src)
	if len(tags) > 0 {
		arr := make(models.JSONArray, len(tags))
		for i, tag := range tags {
			arr[i] = tag
		}
		product.Tags = &arr
	}

	product.MetaTitle = truncateMeta(src.Name(), metaTitleLimit, metaTitleTruncate)
	product.MetaDescription = truncateMeta(src.Description(), metaDescriptionLimit, metaDescriptionTruncate)
	if product.MetaDescription == nil {
		empty := ""
		product.MetaDescription = &empty
	}

	return &models.TransformedProductData{
		Product:    product,
		AmazonData: t.buildAmazonData(src, now),
	}
}

// resolveCategory maps the feed product type through the configured mapping,
// then the built-in table, then the default.
func (t *DataTransformer) resolveCategory(feedProductType string) string {
	key := strings.ToLower(strings.TrimSpace(feedProductType))
	if mapped, ok := t.opts.CategoryMapping[feedProductType]; ok {
		return mapped
	}
	if mapped, ok := t.opts.CategoryMapping[key]; ok {
		return mapped
	}
	if mapped, ok := builtinCategoryMap[key]; ok {
		return mapped
	}
	return t.opts.DefaultCategory
}

// GenerateTags synthesizes tags from brand, feed type, category and search
// terms when auto-tagging is enabled.
func (t *DataTransformer) GenerateTags(src RowSource) []string {
	seen := make(map[string]bool)
	var tags []string
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if seen[key] {
			return
		}
		seen[key] = true
		tags = append(tags, tag)
	}

	for _, tag := range src.Tags() {
		add(tag)
	}

	if !*t.opts.EnableAutoTags {
		return tags
	}

	raw := src.Raw()
	add(raw.Get("brand_name"))
	add(src.FeedProductType())
	add(t.resolveCategory(src.FeedProductType()))
	add(raw.Get("department_name"))
	for _, term := range strings.FieldsFunc(raw.Get("generic_keywords"), func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	}) {
		if len(strings.TrimSpace(term)) > 2 {
			add(term)
		}
	}
	return tags
}

// buildAmazonData extracts the extension row straight from the raw fields so
// it works for both input shapes.
func (t *DataTransformer) buildAmazonData(src RowSource, now time.Time) *models.AmazonListing {
	raw := src.Raw()

	listing := &models.AmazonListing{
		AmazonSKU:       src.SKU(),
		FeedProductType: src.FeedProductType(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	setString := func(dst **string, field string) {
		if v := raw.Get(field); v != "" {
			*dst = &v
		}
	}
	setFloat := func(dst **float64, field string) {
		if v := raw.Get(field); v != "" {
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				*dst = &f
			}
		}
	}
	setInt := func(dst **int, field string) {
		if v := raw.Get(field); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = &n
			}
		}
	}
	setBool := func(dst **bool, field string) {
		if v := raw.Get(field); v != "" {
			b := strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
			*dst = &b
		}
	}
	setDate := func(dst **time.Time, field string) {
		if v := raw.Get(field); v != "" {
			if ts, err := time.Parse("2006-01-02", strings.TrimSpace(v)); err == nil {
				*dst = &ts
			}
		}
	}

	if nodes := src.BrowseNodes(); nodes != "" {
		listing.BrowseNodes = &nodes
	}
	if status := src.ListingStatus(); status != "" {
		listing.ListingStatus = &status
	}

	setString(&listing.ExternalProductID, "external_product_id")
	setString(&listing.ExternalProductIDType, "external_product_id_type")
	setString(&listing.Brand, "brand_name")
	setString(&listing.Manufacturer, "manufacturer")
	setString(&listing.ManufacturerPartNumber, "part_number")
	setString(&listing.ModelNumber, "model_number")
	setString(&listing.ModelName, "model_name")
	setString(&listing.GenericKeywords, "generic_keywords")
	setString(&listing.TargetAudience, "target_audience")
	setString(&listing.SpecificUses, "specific_uses")
	setString(&listing.SwatchImageURL, "swatch_image_url")
	setString(&listing.CurrencyCode, "currency")
	setString(&listing.FulfillmentCenterID, "fulfillment_center_id")
	setString(&listing.MerchantShippingGroup, "merchant_shipping_group")
	setString(&listing.ConditionType, "condition_type")
	setString(&listing.ConditionNote, "condition_note")
	setString(&listing.PackageDimsUnit, "package_dimensions_unit_of_measure")
	setString(&listing.PackageWeightUnit, "package_weight_unit_of_measure")
	setString(&listing.ItemDimsUnit, "item_dimensions_unit_of_measure")
	setString(&listing.ItemWeightUnit, "item_weight_unit_of_measure")
	setString(&listing.CountryOfOrigin, "country_of_origin")
	setString(&listing.BatteryType, "battery_type")
	setString(&listing.DgHzRegulation, "supplier_declared_dg_hz_regulation")
	setString(&listing.SafetyDataSheetURL, "safety_data_sheet_url")
	setString(&listing.FlashPoint, "flash_point")
	setString(&listing.GhsClass, "ghs_classification_class")
	setString(&listing.Prop65Compliance, "california_proposition_65")
	setString(&listing.WarrantyType, "warranty_type")
	setString(&listing.WarrantyDescription, "warranty_description")
	setString(&listing.ParentChild, "parent_child")
	setString(&listing.ParentSKU, "parent_sku")
	setString(&listing.RelationshipType, "relationship_type")
	setString(&listing.VariationTheme, "variation_theme")
	setString(&listing.ColorName, "color_name")
	setString(&listing.ColorMap, "color_map")
	setString(&listing.SizeName, "size_name")
	setString(&listing.SizeMap, "size_map")
	setString(&listing.StyleName, "style_name")
	setString(&listing.MaterialType, "material_type")
	setString(&listing.IncludedComponents, "included_components")
	setString(&listing.UnitCountType, "unit_count_type")
	setString(&listing.MarketplaceID, "marketplace_id")

	setFloat(&listing.StandardPrice, "standard_price")
	setFloat(&listing.ListPriceWithTax, "list_price_with_tax")
	setFloat(&listing.SalePrice, "sale_price")
	setFloat(&listing.BusinessPrice, "business_price")
	setFloat(&listing.MinimumAllowedPrice, "minimum_seller_allowed_price")
	setFloat(&listing.MaximumAllowedPrice, "maximum_seller_allowed_price")
	setFloat(&listing.PackageLength, "package_length")
	setFloat(&listing.PackageWidth, "package_width")
	setFloat(&listing.PackageHeight, "package_height")
	setFloat(&listing.PackageWeight, "package_weight")
	setFloat(&listing.ItemLength, "item_length")
	setFloat(&listing.ItemWidth, "item_width")
	setFloat(&listing.ItemHeight, "item_height")
	setFloat(&listing.ItemWeight, "item_weight")
	setFloat(&listing.LithiumEnergyContent, "lithium_battery_energy_content")
	setFloat(&listing.UnitCount, "unit_count")

	setInt(&listing.Quantity, "quantity")
	setInt(&listing.FulfillmentLatency, "fulfillment_latency")
	setInt(&listing.NumberOfBatteries, "number_of_batteries")
	setInt(&listing.NumberOfItems, "number_of_items")

	setBool(&listing.BatteriesIncluded, "are_batteries_included")
	setBool(&listing.BatteriesRequired, "batteries_required")
	setBool(&listing.IsDiscontinued, "is_discontinued_by_manufacturer")

	setDate(&listing.SaleFromDate, "sale_from_date")
	setDate(&listing.SaleEndDate, "sale_end_date")
	setDate(&listing.SiteLaunchDate, "product_site_launch_date")

	listing.MarketplaceData = extractMarketplaceData(raw)

	if v := raw.Get("external_product_id"); v != "" {
		if strings.EqualFold(raw.Get("external_product_id_type"), "ASIN") {
			listing.ASIN = &v
		}
	}

	if bullets := src.BulletPoints(); len(bullets) > 0 {
		for i, b := range bullets {
			bullet := b
			switch i {
			case 0:
				listing.BulletPoint1 = &bullet
			case 1:
				listing.BulletPoint2 = &bullet
			case 2:
				listing.BulletPoint3 = &bullet
			case 3:
				listing.BulletPoint4 = &bullet
			case 4:
				listing.BulletPoint5 = &bullet
			}
		}
	}

	if images := src.Images(); len(images) > 0 {
		main := images[0]
		listing.MainImageURL = &main
		if len(images) > 1 {
			others := make(models.JSONArray, len(images)-1)
			for i, img := range images[1:] {
				others[i] = img
			}
			listing.OtherImageURLs = &others
		}
	}

	// Legacy column names written by the previous importer.
	sku := src.SKU()
	name := src.Name()
	listing.ItemSKU = &sku
	listing.ItemName = &name
	setString(&listing.ItemType, "item_type")

	if attrs := collectAttributes(raw); len(attrs) > 0 {
		bag := models.JSON(attrs)
		listing.Attributes = &bag
	}

	return listing
}

// extractMarketplaceData collects marketplace-scoped columns, including the
// bracketed per-marketplace purchasable_offer pricing variants, into one
// JSONB payload. Returns nil when the report carries none.
func extractMarketplaceData(raw models.RawRow) *models.JSON {
	data := make(models.JSON)
	for key, value := range raw {
		if value == "" {
			continue
		}
		lower := strings.ToLower(key)
		if strings.Contains(lower, "marketplace") || strings.Contains(lower, "purchasable_offer") {
			data[key] = value
		}
	}
	if len(data) == 0 {
		return nil
	}
	return &data
}

// collectAttributes captures every raw field without a dedicated column so
// no source data is silently dropped.
func collectAttributes(raw models.RawRow) map[string]interface{} {
	attrs := make(map[string]interface{})
	for key, value := range raw {
		if value == "" || isDenylisted(key) {
			continue
		}
		attrs[key] = value
	}
	return attrs
}

func isDenylisted(key string) bool {
	lower := strings.ToLower(key)
	for _, deny := range attributeDenylist {
		if strings.Contains(lower, deny) {
			return true
		}
	}
	return false
}

// ValidateTransformedData checks a transformed pair before persistence.
func (t *DataTransformer) ValidateTransformedData(data *models.TransformedProductData) (bool, []string) {
	var errs []string
	if data.Product == nil || data.AmazonData == nil {
		return false, []string{"transformed data is incomplete"}
	}
	if strings.TrimSpace(data.Product.SKU) == "" {
		errs = append(errs, "sku is required")
	} else if !skuPattern.MatchString(data.Product.SKU) {
		errs = append(errs, fmt.Sprintf("sku %q contains invalid characters", data.Product.SKU))
	}
	if strings.TrimSpace(data.Product.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(data.AmazonData.FeedProductType) == "" {
		errs = append(errs, "feed product type is required")
	}
	if data.Product.Price != nil && *data.Product.Price < 0 {
		errs = append(errs, "price must not be negative")
	}
	if data.Product.Weight != nil && *data.Product.Weight < 0 {
		errs = append(errs, "weight must not be negative")
	}
	if data.Product.Stock < 0 {
		errs = append(errs, "stock must not be negative")
	}
	return len(errs) == 0, errs
}

// GenerateSlug lowercases the SKU and collapses every run of
// non-alphanumeric characters to a single hyphen.
func GenerateSlug(sku string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(sku) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// truncateMeta shortens a value for meta fields, appending an ellipsis when
// truncated. Returns nil for empty input.
func truncateMeta(value string, limit, truncateAt int) *string {
	if value == "" {
		return nil
	}
	runes := []rune(value)
	if len(runes) > limit {
		truncated := string(runes[:truncateAt]) + "…"
		return &truncated
	}
	return &value
}

func parseOptionalInt(value string) *int {
	if value == "" {
		return nil
	}
	if num, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
		return &num
	}
	return nil
}
