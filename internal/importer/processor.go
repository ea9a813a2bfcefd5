package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"listings-import-service/internal/models"
	"listings-import-service/internal/repository"
)

// ImportProcessor drives a full import run over selected preview records:
// batching, duplicate resolution, transformation, persistence and result
// accounting. A processor is built per run and not reused.
type ImportProcessor struct {
	store       repository.ProductStore
	transformer *DataTransformer
	duplicates  *DuplicateHandler
	opts        models.ImportOptions
	logger      *logrus.Entry
	logPrefix   string
}

// NewImportProcessor wires a processor for one run. When DryRun is set the
// store is wrapped in a write-discarding recorder, so the processing flow
// itself carries no dry-run branches.
func NewImportProcessor(store repository.ProductStore, opts models.ImportOptions, logger *logrus.Logger) *ImportProcessor {
	if logger == nil || !opts.EnableLogging {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	if opts.BatchSize == 0 {
		opts.BatchSize = models.DefaultImportOptions().BatchSize
	}

	prefix := ""
	if opts.DryRun {
		store = repository.NewDryRunStore(store)
		prefix = "[DRY RUN] "
	}

	return &ImportProcessor{
		store:       store,
		transformer: NewDataTransformer(opts.ImportSettings, logger),
		duplicates:  NewDuplicateHandler(store, opts.DuplicateHandling, logger),
		opts:        opts,
		logger:      logger.WithField("component", "import-processor"),
		logPrefix:   prefix,
	}
}

// validateOptions checks the processor and duplicate-handler configuration.
func (p *ImportProcessor) validateOptions() []string {
	var errs []string
	if p.opts.BatchSize <= 0 {
		errs = append(errs, fmt.Sprintf("batch size must be positive, got %d", p.opts.BatchSize))
	}
	if ok, handlerErrs := p.duplicates.ValidateOptions(); !ok {
		errs = append(errs, handlerErrs...)
	}
	return errs
}

// ProcessImport runs the batch import. Invalid configuration fails the whole
// run before any record is touched; a failing record never aborts the run.
func (p *ImportProcessor) ProcessImport(ctx context.Context, records []models.ProductPreview) (*models.ImportResult, error) {
	if errs := p.validateOptions(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid import configuration: %s", strings.Join(errs, "; "))
	}

	start := time.Now()
	result := &models.ImportResult{
		Total:  len(records),
		DryRun: p.opts.DryRun,
	}

	batches := chunkRecords(records, p.opts.BatchSize)
	p.logger.WithFields(logrus.Fields{
		"records":   len(records),
		"batches":   len(batches),
		"batchSize": p.opts.BatchSize,
	}).Info(p.logPrefix + "Starting import run")

	for batchNum, batch := range batches {
		for i := range batch {
			record := &batch[i]
			if err := p.processProduct(ctx, record, result); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, models.ImportError{
					SKU:     record.SKU,
					Error:   err.Error(),
					Details: fmt.Sprintf("batch %d", batchNum+1),
				})
				p.logger.WithField("sku", record.SKU).WithError(err).Warn(p.logPrefix + "Record failed")
			}
		}
		p.logger.WithFields(logrus.Fields{
			"batch": batchNum + 1,
			"size":  len(batch),
		}).Debug(p.logPrefix + "Batch processed")
	}

	result.ProcessingMs = time.Since(start).Milliseconds()
	result.Success = result.Failed == 0

	p.logger.WithFields(logrus.Fields{
		"total":      result.Total,
		"successful": result.Successful,
		"failed":     result.Failed,
		"skipped":    result.Skipped,
		"durationMs": result.ProcessingMs,
	}).Info(p.logPrefix + "Import run finished")

	return result, nil
}

// chunkRecords partitions records into fixed-size batches; the last batch
// may be smaller. Batches bound memory for large reports, they are not a
// transactional unit.
func chunkRecords(records []models.ProductPreview, size int) [][]models.ProductPreview {
	var batches [][]models.ProductPreview
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}

// processProduct handles a single record end to end. Panics in transforms or
// storage drivers are converted to errors at this boundary so one bad record
// cannot abort the run.
func (p *ImportProcessor) processProduct(ctx context.Context, record *models.ProductPreview, result *models.ImportResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("record processing panicked: %v", r)
		}
	}()

	check, err := p.duplicates.CheckDuplicate(ctx, record.SKU)
	if err != nil {
		return err
	}

	result.Duplicates = append(result.Duplicates, models.DuplicateLogEntry{
		SKU:    record.SKU,
		Action: check.Action,
		Reason: check.Reason,
	})

	switch check.Action {
	case models.DuplicateActionSkip:
		result.Skipped++
		result.Statistics.DuplicatesSkipped++
		p.logger.WithField("sku", record.SKU).Debug(p.logPrefix + "Skipped duplicate")
		return nil

	case models.DuplicateActionOverwrite:
		if err := p.overwriteProduct(ctx, record, check); err != nil {
			return err
		}
		result.Successful++
		result.Statistics.UpdatedProducts++
		result.Statistics.DuplicatesOverwritten++
		return nil

	case models.DuplicateActionMerge:
		if err := p.mergeProduct(ctx, record, check); err != nil {
			return err
		}
		result.Successful++
		result.Statistics.UpdatedProducts++
		result.Statistics.DuplicatesMerged++
		return nil

	case models.DuplicateActionRename:
		renamed := *record
		renamed.SKU = p.duplicates.GenerateNewSKU(record.SKU)
		renamed.AmazonData.AmazonSKU = renamed.SKU
		result.Warnings = append(result.Warnings, models.ImportWarning{
			SKU:     record.SKU,
			Warning: "duplicate SKU renamed",
			Details: fmt.Sprintf("imported as %s", renamed.SKU),
		})
		// The nested create is the record's terminal outcome; the rename
		// itself only counts as a statistic, so Total is never double
		// charged.
		result.Statistics.DuplicatesRenamed++
		return p.createProduct(ctx, &renamed, result)

	case models.DuplicateActionCreate:
		return p.createProduct(ctx, record, result)

	default:
		return fmt.Errorf("unknown duplicate action %q", check.Action)
	}
}

// createProduct transforms, validates and inserts a new product with its
// extension row. A uniqueness violation at insert time means a concurrent
// import won the race; it fails this record only.
func (p *ImportProcessor) createProduct(ctx context.Context, record *models.ProductPreview, result *models.ImportResult) error {
	data := p.transformer.TransformProduct(SourceFromPreview(record))
	if ok, errs := p.transformer.ValidateTransformedData(data); !ok {
		return fmt.Errorf("transformed data invalid: %s", strings.Join(errs, "; "))
	}

	if err := p.store.Insert(ctx, data.Product); err != nil {
		if errors.Is(err, repository.ErrDuplicateSKU) {
			return fmt.Errorf("SKU %s was created concurrently by another import: %w", data.Product.SKU, err)
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	data.AmazonData.ProductID = data.Product.ID
	if err := p.store.InsertAmazonData(ctx, data.AmazonData); err != nil {
		return fmt.Errorf("failed to insert listing data: %w", err)
	}

	result.Successful++
	result.Statistics.NewProducts++
	p.logger.WithField("sku", data.Product.SKU).Debug(p.logPrefix + "Created product")
	return nil
}

// overwriteProduct replaces the existing rows entirely with the transformed
// incoming data.
func (p *ImportProcessor) overwriteProduct(ctx context.Context, record *models.ProductPreview, check *models.DuplicateCheckResult) error {
	data := p.transformer.TransformProduct(SourceFromPreview(record))
	if ok, errs := p.transformer.ValidateTransformedData(data); !ok {
		return fmt.Errorf("transformed data invalid: %s", strings.Join(errs, "; "))
	}

	data.Product.ID = check.ExistingProduct.ID
	data.Product.CreatedAt = check.ExistingProduct.CreatedAt
	if err := p.store.Update(ctx, data.Product); err != nil {
		return fmt.Errorf("failed to overwrite product: %w", err)
	}

	return p.writeExtension(ctx, data.AmazonData, check)
}

// mergeProduct combines the transformed incoming data with the stored rows
// per the merge rules and writes the result back.
func (p *ImportProcessor) mergeProduct(ctx context.Context, record *models.ProductPreview, check *models.DuplicateCheckResult) error {
	data := p.transformer.TransformProduct(SourceFromPreview(record))
	if ok, errs := p.transformer.ValidateTransformedData(data); !ok {
		return fmt.Errorf("transformed data invalid: %s", strings.Join(errs, "; "))
	}

	merged := p.duplicates.MergeProductData(check.ExistingProduct, data.Product)
	if err := p.store.Update(ctx, merged); err != nil {
		return fmt.Errorf("failed to update merged product: %w", err)
	}

	if check.ExistingAmazonData != nil {
		mergedData := p.duplicates.MergeAmazonData(check.ExistingAmazonData, data.AmazonData)
		if err := p.store.UpdateAmazonData(ctx, mergedData); err != nil {
			return fmt.Errorf("failed to update merged listing data: %w", err)
		}
		return nil
	}
	data.AmazonData.ProductID = check.ExistingProduct.ID
	if err := p.store.InsertAmazonData(ctx, data.AmazonData); err != nil {
		return fmt.Errorf("failed to insert listing data: %w", err)
	}
	return nil
}

// writeExtension updates the linked extension row, inserting one when the
// product predates the Amazon importer.
func (p *ImportProcessor) writeExtension(ctx context.Context, incoming *models.AmazonListing, check *models.DuplicateCheckResult) error {
	incoming.ProductID = check.ExistingProduct.ID
	if check.ExistingAmazonData == nil {
		if err := p.store.InsertAmazonData(ctx, incoming); err != nil {
			return fmt.Errorf("failed to insert listing data: %w", err)
		}
		return nil
	}
	incoming.ID = check.ExistingAmazonData.ID
	incoming.CreatedAt = check.ExistingAmazonData.CreatedAt
	if err := p.store.UpdateAmazonData(ctx, incoming); err != nil {
		return fmt.Errorf("failed to update listing data: %w", err)
	}
	return nil
}
