package importer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listings-import-service/internal/models"
)

func TestAnalyzeUpload_EndToEnd(t *testing.T) {
	buf := buildReportWorkbook(t, sampleDataRows())
	engine := NewAnalysisEngine(nil)

	result, err := engine.AnalyzeUpload(buf, "listings-report.xlsx")

	require.NoError(t, err)
	assert.Equal(t, "listings-report.xlsx", result.FileName)
	assert.Equal(t, 2, result.SheetCount)
	assert.Equal(t, "Template", result.TemplateSheet)
	require.Len(t, result.RawRows, 2)
	require.Len(t, result.Previews, 2)

	first := result.Previews[0]
	assert.Equal(t, "ABC-123", first.SKU)
	assert.Equal(t, "Steel Blender", first.Name)
	assert.Equal(t, models.ImportStatusPending, first.ImportStatus)
	require.NotNil(t, first.Price)
	assert.Equal(t, 24.99, *first.Price, "list_price_with_tax wins the fallback chain")
	assert.Equal(t, []string{"main.jpg", "b.jpg", "c.jpg"}, first.Images)

	second := result.Previews[1]
	require.NotNil(t, second.Price)
	assert.Equal(t, 19.99, *second.Price, "standard_price is next in the chain")

	assert.Equal(t, 2, result.Stats.TotalProducts)
	assert.Equal(t, 2, result.Stats.ValidProducts)
	assert.Contains(t, result.MappedFields, "item_sku")
}

func TestAnalyzeUpload_NoProductSheet(t *testing.T) {
	buf := buildReportWorkbook(t, nil)

	// Without data rows the Template sheet is too small to qualify.
	engine := NewAnalysisEngine(nil)
	_, err := engine.AnalyzeUpload(buf, "empty.xlsx")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid product sheet")
}

func TestValidateUploadStructure(t *testing.T) {
	engine := NewAnalysisEngine(nil)

	v := engine.ValidateUploadStructure(buildReportWorkbook(t, sampleDataRows()))
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Errors)
	require.Len(t, v.Warnings, 1, "two products trips the sparse-report warning")
	assert.Contains(t, v.Warnings[0], "only 2")

	v = engine.ValidateUploadStructure(buildReportWorkbook(t, nil))
	assert.False(t, v.IsValid)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "no valid product sheet")
}

func TestValidateFileStructure(t *testing.T) {
	engine := NewAnalysisEngine(nil)

	complete := &models.SheetGrid{
		Headers: []string{
			"item_sku", "item_name", "feed_product_type",
			"product_description", "main_image_url", "standard_price",
		},
	}
	v := engine.ValidateFileStructure(complete, 100)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Warnings)

	missingRequired := &models.SheetGrid{
		Headers: []string{"item_name", "product_description", "main_image_url", "standard_price"},
	}
	v = engine.ValidateFileStructure(missingRequired, 100)
	assert.False(t, v.IsValid)
	assert.Contains(t, v.Errors, "missing required column: item_sku")
	assert.Contains(t, v.Errors, "missing required column: feed_product_type")

	missingRecommended := &models.SheetGrid{
		Headers: []string{"item_sku", "item_name", "feed_product_type"},
	}
	v = engine.ValidateFileStructure(missingRecommended, 100)
	assert.True(t, v.IsValid, "missing recommended columns only warn")
	assert.Len(t, v.Warnings, 3)
}

func TestValidateFileStructure_SizeWarnings(t *testing.T) {
	engine := NewAnalysisEngine(nil)
	grid := &models.SheetGrid{
		Headers: []string{
			"item_sku", "item_name", "feed_product_type",
			"product_description", "main_image_url", "standard_price",
		},
	}

	large := engine.ValidateFileStructure(grid, 10001)
	assert.True(t, large.IsValid)
	require.Len(t, large.Warnings, 1)
	assert.Contains(t, large.Warnings[0], "10001")

	sparse := engine.ValidateFileStructure(grid, 2)
	assert.True(t, sparse.IsValid)
	require.Len(t, sparse.Warnings, 1)
	assert.Contains(t, sparse.Warnings[0], "only 2")
}

func TestGenerateReportSummary(t *testing.T) {
	engine := NewAnalysisEngine(nil)
	result := &models.FileAnalysisResult{
		FileName:      "report.xlsx",
		SheetCount:    2,
		TemplateSheet: "Template",
		Stats: models.MappingStats{
			TotalProducts:   10,
			ValidProducts:   8,
			InvalidProducts: 2,
			DuplicateSKUs:   1,
		},
	}

	summary := engine.GenerateReportSummary(result)

	assert.Contains(t, summary, "report.xlsx")
	assert.Contains(t, summary, "10 total, 8 valid, 2 invalid")
	assert.Contains(t, summary, "Duplicate SKUs within file: 1")
	assert.NotContains(t, summary, "missing required")
}

func TestExportAnalysisResults_RoundTrips(t *testing.T) {
	buf := buildReportWorkbook(t, sampleDataRows())
	engine := NewAnalysisEngine(nil)
	result, err := engine.AnalyzeUpload(buf, "listings-report.xlsx")
	require.NoError(t, err)

	data, err := engine.ExportAnalysisResults(result)
	require.NoError(t, err)

	var decoded models.FileAnalysisResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result.FileName, decoded.FileName)
	assert.Len(t, decoded.Previews, len(result.Previews))
}
