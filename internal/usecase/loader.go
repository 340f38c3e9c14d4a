package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
)

// Catalog column names
const (
	ColumnItemName       = "Item Name"
	ColumnNewPrice       = "New Price"
	ColumnNormalizedCode = "Normalized Code"
	ColumnProductURL     = "Product URL"
	ColumnOldPrice       = "Old Price"
	ColumnProductCode    = "Product Code"
)

// RequiredColumns must all be present for a source to be admitted
var RequiredColumns = []string{ColumnItemName, ColumnNewPrice, ColumnNormalizedCode, ColumnProductURL}

// CodelessPolicy decides what happens to rows without a normalized code
type CodelessPolicy string

const (
	// CodelessDrop removes codeless rows before matching
	CodelessDrop CodelessPolicy = "drop"
	// CodelessResidual sends codeless rows straight to fuzzy matching
	CodelessResidual CodelessPolicy = "residual"
)

// priceSeparatorRegex strips thousands separators and whitespace
var priceSeparatorRegex = regexp.MustCompile(`[,\s\x{00a0}]`)

// LoadResult is the outcome of loading one source table
type LoadResult struct {
	Records  []domain.ProductRecord
	Dropped  int
	Rejected *domain.RejectedSource
}

// RecordLoader coerces raw retailer tables into ProductRecords
type RecordLoader struct {
	codeless CodelessPolicy
	logger   zerolog.Logger
}

// NewRecordLoader creates a loader. An empty policy defaults to CodelessDrop.
func NewRecordLoader(policy CodelessPolicy, logger zerolog.Logger) *RecordLoader {
	if policy == "" {
		policy = CodelessDrop
	}
	return &RecordLoader{codeless: policy, logger: logger}
}

// Load validates the table header and coerces every row. A table that could
// not be read or that misses a required column is rejected as a whole;
// individual bad cells degrade to absent values.
func (l *RecordLoader) Load(table domain.SourceTable) LoadResult {
	if table.ReadError != "" {
		l.logger.Warn().
			Str("category", table.Category).
			Str("retailer", string(table.Retailer)).
			Str("path", table.Path).
			Msg("source rejected: read failed")
		return LoadResult{Rejected: &domain.RejectedSource{
			Category: table.Category,
			Retailer: table.Retailer,
			Path:     table.Path,
			Reason:   fmt.Sprintf("%v: read failed: %s", domain.ErrSourceRejected, table.ReadError),
		}}
	}

	index := columnIndex(table.Columns)

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[strings.ToLower(col)]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		l.logger.Warn().
			Str("category", table.Category).
			Str("retailer", string(table.Retailer)).
			Strs("missing", missing).
			Msg("source rejected: missing required columns")
		return LoadResult{Rejected: &domain.RejectedSource{
			Category: table.Category,
			Retailer: table.Retailer,
			Path:     table.Path,
			Missing:  missing,
			Reason:   fmt.Sprintf("%v: missing required columns", domain.ErrSourceRejected),
		}}
	}

	result := LoadResult{Records: make([]domain.ProductRecord, 0, len(table.Rows))}
	for i, row := range table.Rows {
		rec, err := l.loadRow(table.Retailer, index, row)
		if err != nil {
			result.Dropped++
			l.logger.Debug().
				Str("category", table.Category).
				Str("retailer", string(table.Retailer)).
				Int("row", i+1).
				Err(err).
				Msg("row dropped")
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result
}

// loadRow converts a single row. It only fails when the row cannot take part
// in matching at all.
func (l *RecordLoader) loadRow(retailer domain.Retailer, index map[string]int, row []string) (domain.ProductRecord, error) {
	cell := func(name string) string {
		i, ok := index[strings.ToLower(name)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rec := domain.ProductRecord{
		ItemName:       cell(ColumnItemName),
		ProductCode:    cell(ColumnProductCode),
		NormalizedCode: strings.ToLower(cell(ColumnNormalizedCode)),
		NewPrice:       parsePrice(cell(ColumnNewPrice)),
		OldPrice:       parsePrice(cell(ColumnOldPrice)),
		ProductURL:     cell(ColumnProductURL),
		Retailer:       retailer,
	}

	if isBlankRow(row) {
		return rec, fmt.Errorf("%w: empty row", domain.ErrRecordDropped)
	}
	if rec.NormalizedCode == "" && l.codeless == CodelessDrop {
		return rec, fmt.Errorf("%w: empty normalized code", domain.ErrRecordDropped)
	}

	return rec, nil
}

// parsePrice parses a price cell. Anything non-numeric becomes absent.
func parsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	// Currency labels may lead or trail the amount ("EGP 1,299", "1299 LE")
	cleaned := strings.TrimFunc(priceSeparatorRegex.ReplaceAllString(s, ""), func(r rune) bool {
		return (r < '0' || r > '9') && r != '.' && r != '-'
	})
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// columnIndex maps trimmed, lower-cased header names to their position.
// The first occurrence of a duplicated header wins.
func columnIndex(columns []string) map[string]int {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		key := strings.ToLower(strings.TrimSpace(c))
		if key == "" {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	return index
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
