package importer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"listings-import-service/internal/models"
)

var reportHeaders = []interface{}{
	"item_sku", "item_name", "product_description", "feed_product_type",
	"main_image_url", "other_image_url1", "other_image_url2",
	"standard_price", "list_price_with_tax", "quantity", "brand_name",
	"generic_keywords", "recommended_browse_nodes",
}

// buildReportWorkbook assembles an xlsx in the Category Listings Report
// layout: an instructions sheet plus a Template sheet whose first two rows
// are metadata and whose third row carries the field names.
func buildReportWorkbook(t *testing.T, dataRows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Instructions"))
	require.NoError(t, f.SetSheetRow("Instructions", "A1", &[]interface{}{"How to use this template"}))

	_, err := f.NewSheet("Template")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Template", "A1", &[]interface{}{"TemplateType=fptcustom", "Version=2024.0101"}))
	require.NoError(t, f.SetSheetRow("Template", "A2", &[]interface{}{"Seller SKU", "Product Name", "Description"}))
	require.NoError(t, f.SetSheetRow("Template", "A3", &reportHeaders))
	for i, row := range dataRows {
		cell, err := excelize.CoordinatesToCellName(1, 4+i)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Template", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func sampleDataRows() [][]interface{} {
	return [][]interface{}{
		{"ABC-123", "Steel Blender", "A blender.", "kitchen", "main.jpg", "b.jpg", "c.jpg", "31.49", "24.99", "12", "Acme", "blender, kitchen", "12345"},
		{"DEF-456", "Glass Kettle", "A kettle.", "kitchen", "kettle.jpg", "", "", "19.99", "", "3", "Acme", "kettle", "12345"},
	}
}

func TestParseAllSheets(t *testing.T) {
	buf := buildReportWorkbook(t, sampleDataRows())
	reader, err := NewSheetReaderFromReader(buf, nil)
	require.NoError(t, err)
	defer reader.Close()

	grids, err := reader.ParseAllSheets()

	require.NoError(t, err)
	require.Len(t, grids, 2)

	var template *models.SheetGrid
	for i := range grids {
		if grids[i].Name == "Template" {
			template = &grids[i]
		}
	}
	require.NotNil(t, template)
	assert.Equal(t, 2, template.HeaderRowIndex)
	assert.Equal(t, 5, template.RowCount)
	assert.Equal(t, len(reportHeaders), template.ColumnCount)
	assert.Equal(t, "item_sku", template.Headers[0])
	assert.True(t, template.HasHeader("feed_product_type"))
}

func TestParseAllSheets_RowsArePaddedRectangular(t *testing.T) {
	buf := buildReportWorkbook(t, sampleDataRows())
	reader, err := NewSheetReaderFromReader(buf, nil)
	require.NoError(t, err)
	defer reader.Close()

	grids, err := reader.ParseAllSheets()
	require.NoError(t, err)

	for _, grid := range grids {
		for _, row := range grid.Rows {
			assert.Len(t, row, grid.ColumnCount)
		}
	}
}

func TestFindTemplateSheet_PrefersNamedTemplate(t *testing.T) {
	buf := buildReportWorkbook(t, sampleDataRows())
	reader, err := NewSheetReaderFromReader(buf, nil)
	require.NoError(t, err)
	defer reader.Close()

	grids, err := reader.ParseAllSheets()
	require.NoError(t, err)

	template := reader.FindTemplateSheet(grids)

	require.NotNil(t, template)
	assert.Equal(t, "Template", template.Name)
}

func TestFindTemplateSheet_RejectsNonProductWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"just", "some", "numbers"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{1, 2, 3}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	reader, err := NewSheetReaderFromReader(buf, nil)
	require.NoError(t, err)
	defer reader.Close()

	grids, err := reader.ParseAllSheets()
	require.NoError(t, err)

	assert.Nil(t, reader.FindTemplateSheet(grids))
}

func TestIsValidProductSheet(t *testing.T) {
	valid := &models.SheetGrid{
		Headers:     []string{"item_sku", "item_name", "c", "d", "e", "f", "g", "h", "i", "j", "k"},
		RowCount:    5,
		ColumnCount: 11,
	}
	assert.True(t, IsValidProductSheet(valid))

	tooNarrow := &models.SheetGrid{
		Headers:     []string{"item_sku", "item_name"},
		RowCount:    5,
		ColumnCount: 2,
	}
	assert.False(t, IsValidProductSheet(tooNarrow))

	noMarkers := &models.SheetGrid{
		Headers:     []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"},
		RowCount:    5,
		ColumnCount: 11,
	}
	assert.False(t, IsValidProductSheet(noMarkers))
}

func TestFindDataStartRow_SkipsLabelRows(t *testing.T) {
	rows := [][]interface{}{
		{"", "", "", "", "", "", "", "", "", "", "", "", ""},
		{"ABC-123", "Late Start", "Desc", "kitchen", "m.jpg", "", "", "9.99", "", "1", "Acme", "", ""},
	}
	buf := buildReportWorkbook(t, rows)
	reader, err := NewSheetReaderFromReader(buf, nil)
	require.NoError(t, err)
	defer reader.Close()

	grids, err := reader.ParseAllSheets()
	require.NoError(t, err)
	template := reader.FindTemplateSheet(grids)
	require.NotNil(t, template)

	assert.Equal(t, 4, FindDataStartRow(template))

	products := reader.ExtractProducts(template)
	require.Len(t, products, 1)
	assert.Equal(t, "ABC-123", products[0].Get("item_sku"))
}

func TestExtractProducts(t *testing.T) {
	rows := sampleDataRows()
	// A row without a SKU must be dropped.
	rows = append(rows, []interface{}{"", "No SKU", "Desc", "kitchen", "", "", "", "5.00", "", "1", "", "", ""})
	buf := buildReportWorkbook(t, rows)
	reader, err := NewSheetReaderFromReader(buf, nil)
	require.NoError(t, err)
	defer reader.Close()

	grids, err := reader.ParseAllSheets()
	require.NoError(t, err)
	template := reader.FindTemplateSheet(grids)
	require.NotNil(t, template)

	products := reader.ExtractProducts(template)

	require.Len(t, products, 2)
	first := products[0]
	assert.Equal(t, "ABC-123", first.Get("item_sku"))
	assert.Equal(t, "Steel Blender", first.Get("item_name"))
	assert.Equal(t, "24.99", first.Get("list_price_with_tax"))
	_, hasEmpty := first["list_price_with_tax"]
	assert.True(t, hasEmpty)

	second := products[1]
	_, hasBlank := second["list_price_with_tax"]
	assert.False(t, hasBlank, "blank cells are omitted from the raw row")
}

func TestNewSheetReaderFromReader_RejectsGarbage(t *testing.T) {
	_, err := NewSheetReaderFromReader(bytes.NewReader([]byte("not an xlsx file")), nil)
	assert.Error(t, err)
}
