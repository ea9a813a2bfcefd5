package models

import (
	"sort"
	"strings"
)

// RawRow is one spreadsheet data row keyed by column header. Amazon report
// headers carry free-form suffixes ("item_sku - SKU"), so lookups match by
// case-insensitive substring rather than exact name.
type RawRow map[string]string

// Lookup returns the value for the first header matching the given field name.
// Exact matches win; otherwise headers are scanned in sorted order so substring
// matches stay deterministic.
func (r RawRow) Lookup(field string) (string, bool) {
	needle := strings.ToLower(field)
	if v, ok := r[needle]; ok {
		return v, true
	}
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(strings.ToLower(k), needle) {
			return r[k], true
		}
	}
	return "", false
}

// Get returns the matched value or empty string.
func (r RawRow) Get(field string) string {
	v, _ := r.Lookup(field)
	return v
}

// SheetGrid is the parsed form of a single workbook sheet.
type SheetGrid struct {
	Name           string     `json:"name"`
	Headers        []string   `json:"headers"`
	Rows           [][]string `json:"rows"`
	RowCount       int        `json:"rowCount"`
	ColumnCount    int        `json:"columnCount"`
	HeaderRowIndex int        `json:"headerRowIndex"`
}

// HasHeader reports whether any header contains the given field name
// (case-insensitive).
func (g *SheetGrid) HasHeader(field string) bool {
	needle := strings.ToLower(field)
	for _, h := range g.Headers {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// HeaderIndex returns the index of the first header containing the field
// name, or -1.
func (g *SheetGrid) HeaderIndex(field string) int {
	needle := strings.ToLower(field)
	for i, h := range g.Headers {
		if strings.Contains(strings.ToLower(h), needle) {
			return i
		}
	}
	return -1
}

// ImportStatus represents the lifecycle of a preview record
type ImportStatus string

const (
	ImportStatusPending  ImportStatus = "pending"
	ImportStatusSelected ImportStatus = "selected"
	ImportStatusImported ImportStatus = "imported"
	ImportStatusError    ImportStatus = "error"
)

// AmazonPreviewData is the Amazon-specific slice of a preview record.
type AmazonPreviewData struct {
	AmazonSKU       string   `json:"amazonSku"`
	FeedProductType string   `json:"feedProductType"`
	BrowseNodes     string   `json:"browseNodes,omitempty"`
	BulletPoints    []string `json:"bulletPoints,omitempty"`
	ListingStatus   string   `json:"listingStatus,omitempty"`
}

// ProductPreview is the normalized record shown to the user before import.
type ProductPreview struct {
	SKU            string            `json:"sku"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Price          *float64          `json:"price,omitempty"`
	CompareAtPrice *float64          `json:"compareAtPrice,omitempty"`
	Weight         *float64          `json:"weight,omitempty"`
	Dimensions     *Dimensions       `json:"dimensions,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	AmazonData     AmazonPreviewData `json:"amazonData"`
	ImportStatus   ImportStatus      `json:"importStatus"`
	ImportErrors   []string          `json:"importErrors,omitempty"`
	Raw            RawRow            `json:"-"`
}

// MarkError flips the record into the error state. ImportErrors is always
// non-empty afterwards.
func (p *ProductPreview) MarkError(messages ...string) {
	p.ImportStatus = ImportStatusError
	if len(messages) == 0 {
		messages = []string{"unknown mapping error"}
	}
	p.ImportErrors = append(p.ImportErrors, messages...)
}

// MappingStats summarizes one mapping pass over a set of raw rows.
type MappingStats struct {
	TotalProducts         int `json:"totalProducts"`
	ValidProducts         int `json:"validProducts"`
	InvalidProducts       int `json:"invalidProducts"`
	DuplicateSKUs         int `json:"duplicateSkus"`
	MissingRequiredFields int `json:"missingRequiredFields"`
}

// StructureValidation is the result of checking a workbook's shape before
// any mapping happens. Errors are advisory until the caller treats them as
// blocking; warnings never block.
type StructureValidation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// FileAnalysisResult bundles everything the preview layer needs from one
// analyzed report file.
type FileAnalysisResult struct {
	FileName      string           `json:"fileName"`
	SheetCount    int              `json:"sheetCount"`
	Sheets        []SheetGrid      `json:"sheets"`
	TemplateSheet string           `json:"templateSheet"`
	RawRows       []RawRow         `json:"rawRows"`
	Previews      []ProductPreview `json:"previews"`
	Stats         MappingStats     `json:"stats"`
	MappedFields  []string         `json:"mappedFields"`
}
