package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"listings-import-service/internal/models"
)

const (
	// Runs past this size should go through a background job instead of a
	// synchronous request.
	largeReportThreshold = 10000
	// Fewer rows than this usually means the wrong sheet was exported.
	sparseReportThreshold = 5
)

var (
	requiredReportHeaders    = []string{"item_sku", "item_name", "feed_product_type"}
	recommendedReportHeaders = []string{"product_description", "main_image_url", "standard_price"}
)

// AnalysisEngine is the entry point for report analysis: it chains the sheet
// reader and field mapper and produces the preview payload for one file.
type AnalysisEngine struct {
	mapper     *FieldMapper
	logger     *logrus.Entry
	baseLogger *logrus.Logger
}

// NewAnalysisEngine builds an engine with the default mapping rules.
func NewAnalysisEngine(logger *logrus.Logger) *AnalysisEngine {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &AnalysisEngine{
		mapper:     NewFieldMapper(logger),
		logger:     logger.WithField("component", "analysis-engine"),
		baseLogger: logger,
	}
}

// AnalyzeFile analyzes the workbook at path.
func (e *AnalysisEngine) AnalyzeFile(path string) (*models.FileAnalysisResult, error) {
	reader, err := NewSheetReader(path, e.baseLogger)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	name := path
	if idx := strings.LastIndexAny(path, "/\\"); idx >= 0 {
		name = path[idx+1:]
	}
	return e.analyze(reader, name)
}

// AnalyzeUpload analyzes a workbook from an in-memory source, e.g. a
// multipart upload.
func (e *AnalysisEngine) AnalyzeUpload(r io.Reader, fileName string) (*models.FileAnalysisResult, error) {
	reader, err := NewSheetReaderFromReader(r, e.baseLogger)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return e.analyze(reader, fileName)
}

func (e *AnalysisEngine) analyze(reader *SheetReader, fileName string) (*models.FileAnalysisResult, error) {
	grids, err := reader.ParseAllSheets()
	if err != nil {
		return nil, err
	}

	template := reader.FindTemplateSheet(grids)
	if template == nil {
		return nil, fmt.Errorf("no valid product sheet found in %s", fileName)
	}

	rawRows := reader.ExtractProducts(template)
	previews := e.mapper.MapProducts(rawRows)

	result := &models.FileAnalysisResult{
		FileName:      fileName,
		SheetCount:    len(grids),
		Sheets:        grids,
		TemplateSheet: template.Name,
		RawRows:       rawRows,
		Previews:      previews,
		Stats:         e.mapper.GetMappingStats(rawRows),
		MappedFields:  e.mapper.SourceFields(),
	}

	e.logger.WithFields(logrus.Fields{
		"file":     fileName,
		"sheets":   len(grids),
		"template": template.Name,
		"products": len(previews),
	}).Info("Analyzed report file")

	return result, nil
}

// ValidateUploadStructure checks a whole workbook's shape without mapping
// anything: template sheet present, product rows present, required and
// recommended columns, size anomalies.
func (e *AnalysisEngine) ValidateUploadStructure(r io.Reader) models.StructureValidation {
	reader, err := NewSheetReaderFromReader(r, e.baseLogger)
	if err != nil {
		return models.StructureValidation{Errors: []string{err.Error()}}
	}
	defer reader.Close()

	grids, err := reader.ParseAllSheets()
	if err != nil {
		return models.StructureValidation{Errors: []string{err.Error()}}
	}

	template := reader.FindTemplateSheet(grids)
	if template == nil {
		return models.StructureValidation{Errors: []string{"no valid product sheet found"}}
	}

	products := reader.ExtractProducts(template)
	v := e.ValidateFileStructure(template, len(products))
	if len(products) == 0 {
		v.Errors = append(v.Errors, "no product rows could be extracted")
		v.IsValid = false
	}
	return v
}

// ValidateFileStructure checks the template sheet's shape before mapping.
// Missing required columns are errors; everything else only warns.
func (e *AnalysisEngine) ValidateFileStructure(grid *models.SheetGrid, productCount int) models.StructureValidation {
	v := models.StructureValidation{IsValid: true}

	for _, header := range requiredReportHeaders {
		if !grid.HasHeader(header) {
			v.Errors = append(v.Errors, fmt.Sprintf("missing required column: %s", header))
		}
	}
	for _, header := range recommendedReportHeaders {
		if !grid.HasHeader(header) {
			v.Warnings = append(v.Warnings, fmt.Sprintf("missing recommended column: %s", header))
		}
	}

	if productCount > largeReportThreshold {
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"report holds %d products; consider splitting it or running the import asynchronously", productCount))
	}
	if productCount < sparseReportThreshold {
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"report holds only %d products; verify the correct sheet was exported", productCount))
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

// GetDetailedStats recomputes mapping statistics for a set of raw rows.
func (e *AnalysisEngine) GetDetailedStats(rows []models.RawRow) models.MappingStats {
	return e.mapper.GetMappingStats(rows)
}

// GenerateReportSummary renders a short human-readable digest of an analysis.
func (e *AnalysisEngine) GenerateReportSummary(result *models.FileAnalysisResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", result.FileName)
	fmt.Fprintf(&b, "Sheets: %d (template: %s)\n", result.SheetCount, result.TemplateSheet)
	fmt.Fprintf(&b, "Products: %d total, %d valid, %d invalid\n",
		result.Stats.TotalProducts, result.Stats.ValidProducts, result.Stats.InvalidProducts)
	if result.Stats.DuplicateSKUs > 0 {
		fmt.Fprintf(&b, "Duplicate SKUs within file: %d\n", result.Stats.DuplicateSKUs)
	}
	if result.Stats.MissingRequiredFields > 0 {
		fmt.Fprintf(&b, "Rows missing required fields: %d\n", result.Stats.MissingRequiredFields)
	}
	return b.String()
}

// ExportAnalysisResults serializes the analysis for download or archival.
func (e *AnalysisEngine) ExportAnalysisResults(result *models.FileAnalysisResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to export analysis results: %w", err)
	}
	return data, nil
}
