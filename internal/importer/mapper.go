package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"listings-import-service/internal/models"
)

// FieldMapper converts raw report rows into preview records by applying an
// ordered rule set. Each mapper owns its rules; nothing is shared between
// instances, so concurrent analyses cannot interfere.
type FieldMapper struct {
	rules  []MappingRule
	logger *logrus.Entry
}

// NewFieldMapper creates a mapper with the default Amazon rule set.
func NewFieldMapper(logger *logrus.Logger) *FieldMapper {
	return NewFieldMapperWithRules(DefaultMappingRules(), logger)
}

// NewFieldMapperWithRules creates a mapper with a caller-supplied rule set.
func NewFieldMapperWithRules(rules []MappingRule, logger *logrus.Logger) *FieldMapper {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &FieldMapper{
		rules:  append([]MappingRule(nil), rules...),
		logger: logger.WithField("component", "field-mapper"),
	}
}

// AddRule appends a rule; it affects subsequent mapping calls only.
func (m *FieldMapper) AddRule(rule MappingRule) {
	m.rules = append(m.rules, rule)
}

// RemoveRule drops the first rule reading from the given source field.
// Returns false when no rule matched.
func (m *FieldMapper) RemoveRule(sourceField string) bool {
	for i, rule := range m.rules {
		if rule.SourceField == sourceField {
			m.rules = append(m.rules[:i], m.rules[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateRule replaces the first rule reading from the given source field.
func (m *FieldMapper) UpdateRule(sourceField string, rule MappingRule) bool {
	for i, existing := range m.rules {
		if existing.SourceField == sourceField {
			m.rules[i] = rule
			return true
		}
	}
	return false
}

// SourceFields lists the source fields of the configured rules, in order.
func (m *FieldMapper) SourceFields() []string {
	fields := make([]string, len(m.rules))
	for i, rule := range m.rules {
		fields[i] = rule.SourceField
	}
	return fields
}

// MapProduct builds one preview record from one raw row. Rule failures are
// collected on the record; mapping always produces a result.
func (m *FieldMapper) MapProduct(row models.RawRow) models.ProductPreview {
	preview := models.ProductPreview{
		ImportStatus: models.ImportStatusPending,
		Raw:          row,
	}

	for _, rule := range m.rules {
		value, ok := row.Lookup(rule.SourceField)
		if !rule.AlwaysRun && (!ok || value == "") {
			continue
		}
		if err := applyRule(rule, &preview, value, row); err != nil {
			preview.ImportErrors = append(preview.ImportErrors,
				fmt.Sprintf("failed to map %s: %v", rule.SourceField, err))
		}
	}

	if messages := m.ValidateMappedProduct(&preview); len(messages) > 0 {
		preview.MarkError(messages...)
	}

	return preview
}

// applyRule isolates a single rule so a panicking transform cannot abort
// the rest of the mapping.
func applyRule(rule MappingRule, p *models.ProductPreview, value string, row models.RawRow) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return rule.Apply(p, value, row)
}

// ValidateMappedProduct returns the required-field violations for a preview.
func (m *FieldMapper) ValidateMappedProduct(p *models.ProductPreview) []string {
	var messages []string
	if strings.TrimSpace(p.SKU) == "" {
		messages = append(messages, "missing required field: sku")
	}
	if strings.TrimSpace(p.Name) == "" {
		messages = append(messages, "missing required field: name")
	}
	if strings.TrimSpace(p.AmazonData.FeedProductType) == "" {
		messages = append(messages, "missing required field: feed_product_type")
	}
	return messages
}

// MapProducts maps every row, preserving order.
func (m *FieldMapper) MapProducts(rows []models.RawRow) []models.ProductPreview {
	previews := make([]models.ProductPreview, 0, len(rows))
	for _, row := range rows {
		previews = append(previews, m.MapProduct(row))
	}

	m.logger.WithField("products", len(previews)).Debug("Mapped raw rows to previews")
	return previews
}

// GetMappingStats maps the rows and summarizes validity and duplication in
// a single pass.
func (m *FieldMapper) GetMappingStats(rows []models.RawRow) models.MappingStats {
	stats := models.MappingStats{TotalProducts: len(rows)}

	seen := make(map[string]bool)
	for _, preview := range m.MapProducts(rows) {
		if preview.ImportStatus == models.ImportStatusError {
			stats.InvalidProducts++
		} else {
			stats.ValidProducts++
		}
		if len(m.ValidateMappedProduct(&preview)) > 0 {
			stats.MissingRequiredFields++
		}
		if preview.SKU != "" {
			if seen[preview.SKU] {
				stats.DuplicateSKUs++
			}
			seen[preview.SKU] = true
		}
	}
	return stats
}
