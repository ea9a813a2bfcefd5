package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"listings-import-service/internal/models"
)

func TestExtractPrice_FallbackOrder(t *testing.T) {
	row := models.RawRow{
		"price":               "19.99",
		"standard_price":      "31.49",
		"list_price_with_tax": "24.99",
	}

	price := ExtractPrice(row)

	assert.NotNil(t, price)
	assert.Equal(t, 24.99, *price)
}

func TestExtractPrice_SkipsUnparseableCandidates(t *testing.T) {
	row := models.RawRow{
		"list_price_with_tax": "n/a",
		"standard_price":      "0",
		"our_price":           "$1,299.00",
	}

	price := ExtractPrice(row)

	assert.NotNil(t, price)
	assert.Equal(t, 1299.00, *price)
}

func TestExtractPrice_NoCandidates(t *testing.T) {
	assert.Nil(t, ExtractPrice(models.RawRow{"item_sku": "SKU-1"}))
}

func TestParsePrice_RejectsNonPositive(t *testing.T) {
	for _, value := range []string{"0", "-5", "NaN", "abc", ""} {
		_, err := parsePrice(value)
		assert.Error(t, err, "value %q should not parse", value)
	}
}

func TestExtractImages_PreservesOrder(t *testing.T) {
	row := models.RawRow{
		"main_image_url":   "https://img.example.com/A.jpg",
		"other_image_url1": "https://img.example.com/B.jpg",
		"other_image_url2": "https://img.example.com/C.jpg",
	}

	images := ExtractImages(row)

	assert.Equal(t, []string{
		"https://img.example.com/A.jpg",
		"https://img.example.com/B.jpg",
		"https://img.example.com/C.jpg",
	}, images)
}

func TestExtractImages_SkipsGaps(t *testing.T) {
	row := models.RawRow{
		"main_image_url":   "main.jpg",
		"other_image_url3": "three.jpg",
	}

	assert.Equal(t, []string{"main.jpg", "three.jpg"}, ExtractImages(row))
}

func TestExtractBulletPoints(t *testing.T) {
	row := models.RawRow{
		"bullet_point1": "First",
		"bullet_point2": "Second",
		"bullet_point5": "Fifth",
	}

	assert.Equal(t, []string{"First", "Second", "Fifth"}, ExtractBulletPoints(row))
}

func TestExtractTags_SplitsTrimsAndDeduplicates(t *testing.T) {
	row := models.RawRow{
		"generic_keywords": "kitchen, Kitchen; blender , ab, stainless steel",
	}

	tags := ExtractTags(row)

	assert.Equal(t, []string{"kitchen", "blender", "stainless steel"}, tags)
}

func TestExtractTags_CapsAtTwenty(t *testing.T) {
	keywords := ""
	for i := 0; i < 30; i++ {
		keywords += string(rune('a'+i%26)) + "tag" + string(rune('0'+i%10)) + string(rune('0'+i/10)) + ","
	}
	row := models.RawRow{"generic_keywords": keywords}

	assert.Len(t, ExtractTags(row), maxTags)
}

func TestExtractWeight_PrefersItemWeight(t *testing.T) {
	row := models.RawRow{
		"item_weight":             "2.5",
		"website_shipping_weight": "3.0",
	}

	weight := ExtractWeight(row)

	assert.NotNil(t, weight)
	assert.Equal(t, 2.5, *weight)
}

func TestExtractDimensions_AllSidesRequired(t *testing.T) {
	complete := models.RawRow{
		"item_length": "10",
		"item_width":  "5",
		"item_height": "2.5",
	}
	dims := ExtractDimensions(complete)
	assert.NotNil(t, dims)
	assert.Equal(t, 10.0, dims.Length)
	assert.Equal(t, 5.0, dims.Width)
	assert.Equal(t, 2.5, dims.Height)
	assert.Equal(t, "inches", dims.Unit)

	partial := models.RawRow{
		"item_length": "10",
		"item_width":  "5",
	}
	assert.Nil(t, ExtractDimensions(partial))
}

func TestExtractDimensions_UsesDeclaredUnit(t *testing.T) {
	row := models.RawRow{
		"item_length":                     "30",
		"item_width":                      "20",
		"item_height":                     "10",
		"item_dimensions_unit_of_measure": "CM",
	}

	dims := ExtractDimensions(row)

	assert.NotNil(t, dims)
	assert.Equal(t, "CM", dims.Unit)
}
