package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray type for PostgreSQL JSONB (array)
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Dimensions represents product dimensions
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// Product represents a catalog product row built from an imported listing
type Product struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name            string          `json:"name" gorm:"not null"`
	Slug            string          `json:"slug" gorm:"index:idx_products_slug,unique"`
	SKU             string          `json:"sku" gorm:"not null;index:idx_products_sku,unique"`
	Description     *string         `json:"description,omitempty"`
	Price           *float64        `json:"price,omitempty"`
	SalePrice       *float64        `json:"salePrice,omitempty"`
	CostPrice       *float64        `json:"costPrice,omitempty"`
	Stock           int             `json:"stock" gorm:"not null;default:0"`
	Weight          *float64        `json:"weight,omitempty"`
	Dimensions      *JSON           `json:"dimensions,omitempty" gorm:"type:jsonb"`
	Images          *JSONArray      `json:"images,omitempty" gorm:"type:jsonb"`
	Tags            *JSONArray      `json:"tags,omitempty" gorm:"type:jsonb"`
	CategoryID      string          `json:"categoryId" gorm:"not null;index"`
	Status          ProductStatus   `json:"status" gorm:"not null;default:'DRAFT'"`
	MetaTitle       *string         `json:"metaTitle,omitempty"`
	MetaDescription *string         `json:"metaDescription,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	DeletedAt       *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// AmazonListing carries the Amazon-specific attributes extracted from a
// Category Listings Report row, linked 1:1 to a catalog product. Columns are
// optional because report templates vary widely between categories.
type AmazonListing struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index:idx_amazon_listings_product,unique"`

	// Identity
	AmazonSKU             string  `json:"amazonSku" gorm:"not null;index"`
	ASIN                  *string `json:"asin,omitempty" gorm:"index"`
	ExternalProductID     *string `json:"externalProductId,omitempty"`
	ExternalProductIDType *string `json:"externalProductIdType,omitempty"`
	FeedProductType       string  `json:"feedProductType" gorm:"not null"`
	BrowseNodes           *string `json:"browseNodes,omitempty"`
	ListingStatus         *string `json:"listingStatus,omitempty"`

	// Brand / manufacturer
	Brand                  *string `json:"brand,omitempty"`
	Manufacturer           *string `json:"manufacturer,omitempty"`
	ManufacturerPartNumber *string `json:"manufacturerPartNumber,omitempty"`
	ModelNumber            *string `json:"modelNumber,omitempty"`
	ModelName              *string `json:"modelName,omitempty"`

	// Content
	BulletPoint1    *string `json:"bulletPoint1,omitempty"`
	BulletPoint2    *string `json:"bulletPoint2,omitempty"`
	BulletPoint3    *string `json:"bulletPoint3,omitempty"`
	BulletPoint4    *string `json:"bulletPoint4,omitempty"`
	BulletPoint5    *string `json:"bulletPoint5,omitempty"`
	GenericKeywords *string `json:"genericKeywords,omitempty"`
	TargetAudience  *string `json:"targetAudience,omitempty"`
	SpecificUses    *string `json:"specificUses,omitempty"`

	// Images
	MainImageURL   *string    `json:"mainImageUrl,omitempty"`
	OtherImageURLs *JSONArray `json:"otherImageUrls,omitempty" gorm:"type:jsonb"`
	SwatchImageURL *string    `json:"swatchImageUrl,omitempty"`

	// Pricing
	StandardPrice       *float64   `json:"standardPrice,omitempty"`
	ListPriceWithTax    *float64   `json:"listPriceWithTax,omitempty"`
	SalePrice           *float64   `json:"salePrice,omitempty"`
	SaleFromDate        *time.Time `json:"saleFromDate,omitempty"`
	SaleEndDate         *time.Time `json:"saleEndDate,omitempty"`
	BusinessPrice       *float64   `json:"businessPrice,omitempty"`
	MinimumAllowedPrice *float64   `json:"minimumAllowedPrice,omitempty"`
	MaximumAllowedPrice *float64   `json:"maximumAllowedPrice,omitempty"`
	CurrencyCode        *string    `json:"currencyCode,omitempty"`

	// Inventory / fulfillment
	Quantity              *int    `json:"quantity,omitempty"`
	FulfillmentLatency    *int    `json:"fulfillmentLatency,omitempty"`
	FulfillmentCenterID   *string `json:"fulfillmentCenterId,omitempty"`
	MerchantShippingGroup *string `json:"merchantShippingGroup,omitempty"`

	// Condition
	ConditionType *string `json:"conditionType,omitempty"`
	ConditionNote *string `json:"conditionNote,omitempty"`

	// Package dimensions
	PackageLength     *float64 `json:"packageLength,omitempty"`
	PackageWidth      *float64 `json:"packageWidth,omitempty"`
	PackageHeight     *float64 `json:"packageHeight,omitempty"`
	PackageDimsUnit   *string  `json:"packageDimsUnit,omitempty"`
	PackageWeight     *float64 `json:"packageWeight,omitempty"`
	PackageWeightUnit *string  `json:"packageWeightUnit,omitempty"`

	// Item dimensions
	ItemLength     *float64 `json:"itemLength,omitempty"`
	ItemWidth      *float64 `json:"itemWidth,omitempty"`
	ItemHeight     *float64 `json:"itemHeight,omitempty"`
	ItemDimsUnit   *string  `json:"itemDimsUnit,omitempty"`
	ItemWeight     *float64 `json:"itemWeight,omitempty"`
	ItemWeightUnit *string  `json:"itemWeightUnit,omitempty"`

	// Compliance / regulatory
	CountryOfOrigin      *string  `json:"countryOfOrigin,omitempty"`
	BatteriesIncluded    *bool    `json:"batteriesIncluded,omitempty"`
	BatteriesRequired    *bool    `json:"batteriesRequired,omitempty"`
	BatteryType          *string  `json:"batteryType,omitempty"`
	NumberOfBatteries    *int     `json:"numberOfBatteries,omitempty"`
	LithiumEnergyContent *float64 `json:"lithiumEnergyContent,omitempty"`
	DgHzRegulation       *string  `json:"dgHzRegulation,omitempty"`
	SafetyDataSheetURL   *string  `json:"safetyDataSheetUrl,omitempty"`
	FlashPoint           *string  `json:"flashPoint,omitempty"`
	GhsClass             *string  `json:"ghsClass,omitempty"`
	Prop65Compliance     *string  `json:"prop65Compliance,omitempty"`
	WarrantyType         *string  `json:"warrantyType,omitempty"`
	WarrantyDescription  *string  `json:"warrantyDescription,omitempty"`

	// Variation
	ParentChild      *string `json:"parentChild,omitempty"`
	ParentSKU        *string `json:"parentSku,omitempty"`
	RelationshipType *string `json:"relationshipType,omitempty"`
	VariationTheme   *string `json:"variationTheme,omitempty"`
	ColorName        *string `json:"colorName,omitempty"`
	ColorMap         *string `json:"colorMap,omitempty"`
	SizeName         *string `json:"sizeName,omitempty"`
	SizeMap          *string `json:"sizeMap,omitempty"`
	StyleName        *string `json:"styleName,omitempty"`
	MaterialType     *string `json:"materialType,omitempty"`

	// Misc
	IncludedComponents *string    `json:"includedComponents,omitempty"`
	NumberOfItems      *int       `json:"numberOfItems,omitempty"`
	UnitCount          *float64   `json:"unitCount,omitempty"`
	UnitCountType      *string    `json:"unitCountType,omitempty"`
	IsDiscontinued     *bool      `json:"isDiscontinued,omitempty"`
	SiteLaunchDate     *time.Time `json:"siteLaunchDate,omitempty"`

	// Marketplace payloads
	MarketplaceID   *string `json:"marketplaceId,omitempty"`
	MarketplaceData *JSON   `json:"marketplaceData,omitempty" gorm:"type:jsonb"`

	// Legacy column names kept for rows written by the previous importer
	ItemSKU  *string `json:"itemSku,omitempty"`
	ItemName *string `json:"itemName,omitempty"`
	ItemType *string `json:"itemType,omitempty"`

	// Everything extracted from the report that has no dedicated column
	Attributes *JSON `json:"attributes,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for the AmazonListing model
func (AmazonListing) TableName() string {
	return "amazon_listings"
}

// TransformedProductData is the pair of rows a single preview record
// produces for storage.
type TransformedProductData struct {
	Product    *Product       `json:"product"`
	AmazonData *AmazonListing `json:"amazonData"`
}
