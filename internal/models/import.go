package models

// DuplicateAction is the resolution decided for one SKU check.
type DuplicateAction string

const (
	DuplicateActionSkip      DuplicateAction = "skip"
	DuplicateActionOverwrite DuplicateAction = "overwrite"
	DuplicateActionMerge     DuplicateAction = "merge"
	DuplicateActionRename    DuplicateAction = "rename"
	DuplicateActionCreate    DuplicateAction = "create"
)

// DuplicateCheckResult describes how an incoming SKU relates to storage.
type DuplicateCheckResult struct {
	IsDuplicate        bool            `json:"isDuplicate"`
	ExistingProduct    *Product        `json:"existingProduct,omitempty"`
	ExistingAmazonData *AmazonListing  `json:"existingAmazonData,omitempty"`
	Action             DuplicateAction `json:"action"`
	Reason             string          `json:"reason"`
}

// ImportError records a failed record within a run.
type ImportError struct {
	SKU     string `json:"sku"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ImportWarning records a non-fatal condition within a run.
type ImportWarning struct {
	SKU     string `json:"sku"`
	Warning string `json:"warning"`
	Details string `json:"details,omitempty"`
}

// DuplicateLogEntry records the outcome of one duplicate check.
type DuplicateLogEntry struct {
	SKU    string          `json:"sku"`
	Action DuplicateAction `json:"action"`
	Reason string          `json:"reason"`
}

// ImportStatistics breaks successful work down by kind.
type ImportStatistics struct {
	NewProducts           int `json:"newProducts"`
	UpdatedProducts       int `json:"updatedProducts"`
	DuplicatesSkipped     int `json:"duplicatesSkipped"`
	DuplicatesOverwritten int `json:"duplicatesOverwritten"`
	DuplicatesMerged      int `json:"duplicatesMerged"`
	DuplicatesRenamed     int `json:"duplicatesRenamed"`
}

// ImportResult is the aggregate of one import run.
// Invariant: Successful + Failed + Skipped == Total.
type ImportResult struct {
	Success      bool                `json:"success"`
	Total        int                 `json:"total"`
	Successful   int                 `json:"successful"`
	Failed       int                 `json:"failed"`
	Skipped      int                 `json:"skipped"`
	Errors       []ImportError       `json:"errors,omitempty"`
	Warnings     []ImportWarning     `json:"warnings,omitempty"`
	Duplicates   []DuplicateLogEntry `json:"duplicates,omitempty"`
	ProcessingMs int64               `json:"processingMs"`
	Statistics   ImportStatistics    `json:"statistics"`
	DryRun       bool                `json:"dryRun"`
}

// TransformOptions configures DataTransformer defaults. EnableAutoTags is a
// pointer so a JSON payload that omits it keeps the default of true instead
// of silently disabling auto-tagging.
type TransformOptions struct {
	DefaultCategory   string            `json:"defaultCategory"`
	DefaultStatus     ProductStatus     `json:"defaultStatus"`
	DefaultStockLevel int               `json:"defaultStockLevel"`
	PriceMarkup       float64           `json:"priceMarkup"`
	EnableAutoTags    *bool             `json:"enableAutoTags,omitempty"`
	CategoryMapping   map[string]string `json:"categoryMapping,omitempty"`
}

// DefaultTransformOptions returns the documented defaults.
func DefaultTransformOptions() TransformOptions {
	autoTags := true
	return TransformOptions{
		DefaultCategory:   "uncategorized",
		DefaultStatus:     ProductStatusDraft,
		DefaultStockLevel: 0,
		PriceMarkup:       0,
		EnableAutoTags:    &autoTags,
	}
}

// DuplicateStrategy selects how colliding SKUs are reconciled.
type DuplicateStrategy string

const (
	StrategySkip      DuplicateStrategy = "skip"
	StrategyOverwrite DuplicateStrategy = "overwrite"
	StrategyMerge     DuplicateStrategy = "merge"
	StrategyRename    DuplicateStrategy = "rename"
)

// DuplicateOptions configures DuplicateHandler behavior for a run.
type DuplicateOptions struct {
	Strategy      DuplicateStrategy `json:"strategy"`
	RenamePattern string            `json:"renamePattern"`
	MergeFields   []string          `json:"mergeFields,omitempty"`
	CompareFields []string          `json:"compareFields,omitempty"`
}

// DefaultDuplicateOptions returns the documented defaults.
func DefaultDuplicateOptions() DuplicateOptions {
	return DuplicateOptions{
		Strategy:      StrategySkip,
		RenamePattern: "{sku}-amazon-{timestamp}",
		MergeFields:   []string{"images", "tags", "description"},
		CompareFields: []string{"name", "price", "description", "images"},
	}
}

// ImportOptions configures one ImportProcessor run.
type ImportOptions struct {
	ImportSettings    TransformOptions `json:"importSettings"`
	DuplicateHandling DuplicateOptions `json:"duplicateHandling"`
	BatchSize         int              `json:"batchSize"`
	EnableLogging     bool             `json:"enableLogging"`
	DryRun            bool             `json:"dryRun"`
}

// DefaultImportOptions returns the documented defaults.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		ImportSettings:    DefaultTransformOptions(),
		DuplicateHandling: DefaultDuplicateOptions(),
		BatchSize:         50,
		EnableLogging:     true,
	}
}

// ImportRequest is the API payload for starting an import run.
type ImportRequest struct {
	Products []ProductPreview `json:"products" binding:"required"`
	Options  *ImportOptions   `json:"options,omitempty"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

// Error carries a machine-readable code plus a human message.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
