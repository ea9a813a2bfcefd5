package importer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listings-import-service/internal/models"
	"listings-import-service/internal/repository"
)

func previewRecord(sku, name string) models.ProductPreview {
	price := 19.99
	return models.ProductPreview{
		SKU:   sku,
		Name:  name,
		Price: &price,
		AmazonData: models.AmazonPreviewData{
			AmazonSKU:       sku,
			FeedProductType: "kitchen",
		},
		ImportStatus: models.ImportStatusSelected,
	}
}

func quietImportOptions() models.ImportOptions {
	opts := models.DefaultImportOptions()
	opts.EnableLogging = false
	return opts
}

func TestProcessImport_CreatesNewProducts(t *testing.T) {
	store := repository.NewMemoryStore()
	processor := NewImportProcessor(store, quietImportOptions(), nil)

	records := []models.ProductPreview{
		previewRecord("NEW-1", "First"),
		previewRecord("NEW-2", "Second"),
	}

	result, err := processor.ProcessImport(context.Background(), records)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 2, result.Statistics.NewProducts)
	assert.Equal(t, 2, store.ProductCount())
	assert.Equal(t, 2, store.ListingCount())

	stored, err := store.FindBySKU(context.Background(), "NEW-1")
	require.NoError(t, err)
	listing, err := store.FindAmazonDataByProductID(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, listing.ProductID)
	assert.Equal(t, "NEW-1", listing.AmazonSKU)
}

func TestProcessImport_CountInvariant(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProduct(t, store, "DUP-1")
	processor := NewImportProcessor(store, quietImportOptions(), nil)

	records := []models.ProductPreview{
		previewRecord("NEW-1", "Creates fine"),
		previewRecord("DUP-1", "Skipped duplicate"),
		previewRecord("BAD SKU", "Fails validation"),
	}

	result, err := processor.ProcessImport(context.Background(), records)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, result.Total, result.Successful+result.Failed+result.Skipped)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "BAD SKU", result.Errors[0].SKU)
	assert.Len(t, result.Duplicates, 3, "every record gets a duplicate log entry")
}

func TestProcessImport_SkipStrategy(t *testing.T) {
	store := repository.NewMemoryStore()
	existing := seedProduct(t, store, "DUP-1")
	processor := NewImportProcessor(store, quietImportOptions(), nil)

	result, err := processor.ProcessImport(context.Background(), []models.ProductPreview{
		previewRecord("DUP-1", "Should be skipped"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Statistics.DuplicatesSkipped)

	stored, err := store.FindBySKU(context.Background(), "DUP-1")
	require.NoError(t, err)
	assert.Equal(t, existing.Name, stored.Name, "skip must not touch the stored product")
}

func TestProcessImport_OverwriteStrategy(t *testing.T) {
	store := repository.NewMemoryStore()
	existing := seedProduct(t, store, "DUP-1")
	opts := quietImportOptions()
	opts.DuplicateHandling.Strategy = models.StrategyOverwrite
	processor := NewImportProcessor(store, opts, nil)

	result, err := processor.ProcessImport(context.Background(), []models.ProductPreview{
		previewRecord("DUP-1", "Overwritten Name"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Statistics.UpdatedProducts)
	assert.Equal(t, 1, result.Statistics.DuplicatesOverwritten)
	assert.Equal(t, 0, result.Statistics.NewProducts)
	assert.Equal(t, 1, store.ProductCount())

	stored, err := store.FindBySKU(context.Background(), "DUP-1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, stored.ID, "overwrite keeps the row identity")
	assert.Equal(t, "Overwritten Name", stored.Name)
}

func TestProcessImport_MergeStrategy(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProduct(t, store, "DUP-1")
	opts := quietImportOptions()
	opts.DuplicateHandling.Strategy = models.StrategyMerge
	processor := NewImportProcessor(store, opts, nil)

	result, err := processor.ProcessImport(context.Background(), []models.ProductPreview{
		previewRecord("DUP-1", "Incoming"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Statistics.UpdatedProducts)
	assert.Equal(t, 1, result.Statistics.DuplicatesMerged)

	stored, err := store.FindBySKU(context.Background(), "DUP-1")
	require.NoError(t, err)
	assert.Equal(t, "Existing DUP-1", stored.Name, "name is not a merge field")
	require.NotNil(t, stored.Price)
	assert.Equal(t, 19.99, *stored.Price, "price always takes the incoming value")
}

func TestProcessImport_RenameStrategy(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProduct(t, store, "DUP-1")
	opts := quietImportOptions()
	opts.DuplicateHandling.Strategy = models.StrategyRename
	processor := NewImportProcessor(store, opts, nil)

	result, err := processor.ProcessImport(context.Background(), []models.ProductPreview{
		previewRecord("DUP-1", "Renamed Import"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, result.Total, result.Successful+result.Failed+result.Skipped)
	assert.Equal(t, 1, result.Statistics.DuplicatesRenamed)
	assert.Equal(t, 1, result.Statistics.NewProducts)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "DUP-1", result.Warnings[0].SKU)
	assert.Equal(t, 2, store.ProductCount())
}

func TestProcessImport_DryRunWritesNothing(t *testing.T) {
	store := repository.NewMemoryStore()
	seedProduct(t, store, "DUP-1")
	opts := quietImportOptions()
	opts.DryRun = true
	processor := NewImportProcessor(store, opts, nil)

	records := []models.ProductPreview{
		previewRecord("NEW-1", "Would be created"),
		previewRecord("DUP-1", "Would be skipped"),
	}

	result, err := processor.ProcessImport(context.Background(), records)

	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, store.ProductCount(), "dry run must not write to the real store")
	assert.Equal(t, 0, store.ListingCount())
}

func TestProcessImport_InvalidConfigurationFailsFast(t *testing.T) {
	store := repository.NewMemoryStore()
	opts := quietImportOptions()
	opts.BatchSize = -1
	processor := NewImportProcessor(store, opts, nil)

	result, err := processor.ProcessImport(context.Background(), []models.ProductPreview{
		previewRecord("NEW-1", "Never processed"),
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "batch size")
	assert.Equal(t, 0, store.ProductCount())
}

func TestProcessImport_InvalidStrategyFailsFast(t *testing.T) {
	store := repository.NewMemoryStore()
	opts := quietImportOptions()
	opts.DuplicateHandling.Strategy = "explode"
	processor := NewImportProcessor(store, opts, nil)

	_, err := processor.ProcessImport(context.Background(), nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duplicate strategy")
}

func TestProcessImport_EmptyInput(t *testing.T) {
	store := repository.NewMemoryStore()
	processor := NewImportProcessor(store, quietImportOptions(), nil)

	result, err := processor.ProcessImport(context.Background(), nil)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 0, result.Total)
}

func TestChunkRecords(t *testing.T) {
	records := make([]models.ProductPreview, 205)
	for i := range records {
		records[i] = previewRecord(fmt.Sprintf("SKU-%03d", i), "Batch test")
	}

	batches := chunkRecords(records, 50)

	require.Len(t, batches, 5)
	for i := 0; i < 4; i++ {
		assert.Len(t, batches[i], 50)
	}
	assert.Len(t, batches[4], 5)
	assert.Equal(t, "SKU-000", batches[0][0].SKU)
	assert.Equal(t, "SKU-204", batches[4][4].SKU)
}
