package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"listings-import-service/internal/events"
	"listings-import-service/internal/importer"
	"listings-import-service/internal/models"
	"listings-import-service/internal/repository"
)

// templateColumns is the column set of the downloadable report template,
// in sheet order. Required columns are marked for the header styling.
var templateColumns = []struct {
	Name     string
	Required bool
}{
	{"item_sku", true},
	{"item_name", true},
	{"feed_product_type", true},
	{"product_description", false},
	{"brand_name", false},
	{"manufacturer", false},
	{"standard_price", false},
	{"list_price_with_tax", false},
	{"quantity", false},
	{"main_image_url", false},
	{"other_image_url1", false},
	{"other_image_url2", false},
	{"other_image_url3", false},
	{"bullet_point1", false},
	{"bullet_point2", false},
	{"bullet_point3", false},
	{"generic_keywords", false},
	{"recommended_browse_nodes", false},
	{"external_product_id", false},
	{"external_product_id_type", false},
	{"item_weight", false},
	{"item_length", false},
	{"item_width", false},
	{"item_height", false},
}

type ImportHandler struct {
	store            repository.ProductStore
	engine           *importer.AnalysisEngine
	publisher        *events.Publisher
	logger           *logrus.Logger
	defaultBatchSize int
	maxUploadBytes   int64
}

// NewImportHandler wires the listings import endpoints. The publisher may be
// nil when NATS is not configured.
func NewImportHandler(store repository.ProductStore, publisher *events.Publisher, logger *logrus.Logger, defaultBatchSize, maxUploadSizeMB int) *ImportHandler {
	return &ImportHandler{
		store:            store,
		engine:           importer.NewAnalysisEngine(logger),
		publisher:        publisher,
		logger:           logger,
		defaultBatchSize: defaultBatchSize,
		maxUploadBytes:   int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// AnalyzeListings parses an uploaded Category Listings Report and returns the
// preview payload without writing anything.
// POST /api/v1/listings/analyze
func (h *ImportHandler) AnalyzeListings(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_REQUIRED",
				Message: "Please upload an Excel report file",
			},
		})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "Only XLSX report files are supported",
			},
		})
		return
	}
	if header.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("Report exceeds the %d MB upload limit", h.maxUploadBytes/(1024*1024)),
			},
		})
		return
	}

	result, err := h.engine.AnalyzeUpload(file, header.Filename)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "ANALYSIS_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	var template *models.SheetGrid
	for i := range result.Sheets {
		if result.Sheets[i].Name == result.TemplateSheet {
			template = &result.Sheets[i]
		}
	}
	validation := models.StructureValidation{IsValid: true}
	if template != nil {
		validation = h.engine.ValidateFileStructure(template, len(result.Previews))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       result,
		"validation": validation,
		"summary":    h.engine.GenerateReportSummary(result),
	})
}

// ImportListings runs a batch import over previously analyzed records.
// POST /api/v1/listings/import
func (h *ImportHandler) ImportListings(c *gin.Context) {
	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	opts := models.DefaultImportOptions()
	opts.BatchSize = h.defaultBatchSize
	if req.Options != nil {
		opts = *req.Options
		if opts.BatchSize == 0 {
			opts.BatchSize = h.defaultBatchSize
		}
	}

	processor := importer.NewImportProcessor(h.store, opts, h.logger)
	result, err := processor.ProcessImport(c.Request.Context(), req.Products)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_OPTIONS",
				Message: err.Error(),
			},
		})
		return
	}

	if h.publisher != nil && !result.DryRun {
		if err := h.publisher.PublishImportCompleted(c.GetHeader("X-File-Name"), result); err != nil {
			h.logger.WithError(err).Warn("Failed to publish import event")
		}
	}

	c.JSON(http.StatusOK, result)
}

// GetImportTemplate downloads an empty report workbook in the Category
// Listings Report layout so the analyzer accepts round-tripped files.
// GET /api/v1/listings/import/template
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Instructions")
	f.SetCellValue("Instructions", "A1", "Listings Import Instructions")
	f.SetCellValue("Instructions", "A3", "Fill the Template sheet starting at row 4. Row 3 holds the field names and must not be changed.")
	f.SetCellValue("Instructions", "A4", "Required columns: item_sku, item_name, feed_product_type.")
	f.SetCellValue("Instructions", "A5", "Prices are read from list_price_with_tax first, then standard_price.")
	f.SetColWidth("Instructions", "A", "A", 100)

	if _, err := f.NewSheet("Template"); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "TEMPLATE_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Rows 1-2 mirror the metadata and display-label rows of the real
	// report; the analyzer expects the field names in row 3.
	f.SetCellValue("Template", "A1", "TemplateType=fptcustom")
	f.SetCellValue("Template", "B1", "Version=2024.0101")
	for i, col := range templateColumns {
		labelCell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue("Template", labelCell, displayLabel(col.Name))

		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue("Template", cell, col.Name)
		if col.Required {
			f.SetCellStyle("Template", cell, cell, requiredStyle)
		} else {
			f.SetCellStyle("Template", cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth("Template", colName, colName, 22)
	}

	sheetIdx, _ := f.GetSheetIndex("Template")
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=listings_import_template.xlsx")
	if err := f.Write(c.Writer); err != nil {
		h.logger.WithError(err).Error("Failed to write template workbook")
	}
}

// displayLabel renders a column name the way the report's label row shows it,
// e.g. "item_sku" becomes "Item Sku".
func displayLabel(column string) string {
	words := strings.Split(column, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
