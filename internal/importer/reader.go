package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"listings-import-service/internal/models"
)

// Column names that identify a sheet as holding Category Listings Report
// product rows. Exported templates rename and suffix headers freely, so
// matching is by case-insensitive substring.
var requiredSheetMarkers = []string{
	"item_sku",
	"item_name",
	"product_description",
	"main_image_url",
	"feed_product_type",
}

const (
	// Amazon's report puts metadata in rows 1-2 and the field-name header
	// in row 3 of the Template sheet (0-based index 2).
	templateHeaderRow = 2
	// Data rows normally start directly below the Template header.
	defaultDataStartRow = 3
	// How far past the header to scan for the first real data row.
	maxDataStartScanRow = 9

	minProductRows    = 3
	minProductColumns = 10
)

// SheetReader loads a report workbook and extracts candidate product rows.
type SheetReader struct {
	file   *excelize.File
	logger *logrus.Entry
}

// NewSheetReader opens the workbook at path. Any I/O or decode failure is
// fatal for the whole file.
func NewSheetReader(path string, logger *logrus.Logger) (*SheetReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report file %s: %w", path, err)
	}
	return newSheetReader(f, logger), nil
}

// NewSheetReaderFromReader opens a workbook from an in-memory byte source,
// e.g. a multipart upload.
func NewSheetReaderFromReader(r io.Reader, logger *logrus.Logger) (*SheetReader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode report file: %w", err)
	}
	return newSheetReader(f, logger), nil
}

func newSheetReader(f *excelize.File, logger *logrus.Logger) *SheetReader {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &SheetReader{
		file:   f,
		logger: logger.WithField("component", "sheet-reader"),
	}
}

// Close releases the underlying workbook.
func (r *SheetReader) Close() error {
	return r.file.Close()
}

// ParseAllSheets decodes every sheet in the workbook into a grid, preserving
// blank cells as empty strings.
func (r *SheetReader) ParseAllSheets() ([]models.SheetGrid, error) {
	sheets := r.file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook contains no sheets")
	}

	grids := make([]models.SheetGrid, 0, len(sheets))
	for _, name := range sheets {
		rows, err := r.file.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		grids = append(grids, buildGrid(name, rows))
	}
	return grids, nil
}

// buildGrid normalizes raw excelize rows into a rectangular grid and picks
// the header row: the Template sheet keeps its header in row index 2, every
// other sheet in row 0.
func buildGrid(name string, rows [][]string) models.SheetGrid {
	columns := 0
	for _, row := range rows {
		if len(row) > columns {
			columns = len(row)
		}
	}

	// excelize trims trailing blanks per row; pad so every row has the
	// same width.
	grid := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, columns)
		copy(padded, row)
		grid[i] = padded
	}

	headerRow := 0
	if strings.EqualFold(name, "Template") && len(grid) > templateHeaderRow {
		headerRow = templateHeaderRow
	}

	var headers []string
	if headerRow < len(grid) {
		headers = make([]string, columns)
		for i, h := range grid[headerRow] {
			headers[i] = strings.TrimSpace(h)
		}
	}

	return models.SheetGrid{
		Name:           name,
		Headers:        headers,
		Rows:           grid,
		RowCount:       len(grid),
		ColumnCount:    columns,
		HeaderRowIndex: headerRow,
	}
}

// FindTemplateSheet picks the sheet holding product rows: a sheet literally
// named "Template" wins, otherwise the sheet with the most rows. Returns nil
// when the candidate does not look like a product sheet.
func (r *SheetReader) FindTemplateSheet(grids []models.SheetGrid) *models.SheetGrid {
	var candidate *models.SheetGrid
	for i := range grids {
		if strings.EqualFold(grids[i].Name, "Template") {
			candidate = &grids[i]
			break
		}
	}
	if candidate == nil {
		for i := range grids {
			if candidate == nil || grids[i].RowCount > candidate.RowCount {
				candidate = &grids[i]
			}
		}
	}
	if candidate == nil || !IsValidProductSheet(candidate) {
		if candidate != nil {
			r.logger.WithField("sheet", candidate.Name).Debug("Candidate sheet rejected by product-sheet heuristic")
		}
		return nil
	}
	return candidate
}

// IsValidProductSheet reports whether the grid plausibly holds listing rows:
// at least one marker column, more than 3 rows and more than 10 columns.
func IsValidProductSheet(grid *models.SheetGrid) bool {
	if grid.RowCount <= minProductRows || grid.ColumnCount <= minProductColumns {
		return false
	}
	for _, marker := range requiredSheetMarkers {
		if grid.HasHeader(marker) {
			return true
		}
	}
	return false
}

// FindDataStartRow scans rows 3..9 for the first row with both a SKU and a
// name, defaulting to row 3. Some exports repeat display labels between the
// header and the data.
func FindDataStartRow(grid *models.SheetGrid) int {
	skuCol := grid.HeaderIndex("item_sku")
	nameCol := grid.HeaderIndex("item_name")
	if skuCol < 0 || nameCol < 0 {
		return defaultDataStartRow
	}
	for row := defaultDataStartRow; row <= maxDataStartScanRow && row < grid.RowCount; row++ {
		cells := grid.Rows[row]
		if strings.TrimSpace(cells[skuCol]) != "" && strings.TrimSpace(cells[nameCol]) != "" {
			return row
		}
	}
	return defaultDataStartRow
}

// ExtractProducts converts the grid's data rows into raw field maps, keeping
// only rows that carry a SKU, a name and a feed product type.
func (r *SheetReader) ExtractProducts(grid *models.SheetGrid) []models.RawRow {
	start := FindDataStartRow(grid)

	rows := make([]models.RawRow, 0, grid.RowCount)
	for rowIdx := start; rowIdx < grid.RowCount; rowIdx++ {
		raw := make(models.RawRow)
		for col, header := range grid.Headers {
			if header == "" || col >= len(grid.Rows[rowIdx]) {
				continue
			}
			value := strings.TrimSpace(grid.Rows[rowIdx][col])
			if value == "" {
				continue
			}
			raw[strings.ToLower(header)] = value
		}
		if raw.Get("item_sku") == "" || raw.Get("item_name") == "" || raw.Get("feed_product_type") == "" {
			continue
		}
		rows = append(rows, raw)
	}

	r.logger.WithFields(logrus.Fields{
		"sheet":    grid.Name,
		"startRow": start,
		"products": len(rows),
	}).Debug("Extracted product rows")

	return rows
}
