// Package sink persists comparison reports: spreadsheets per (category, tier)
// and an optional SQLite history of every run.
package sink

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pricelens/backend/internal/domain"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9\-_.]+`)

// FileName returns the output file name for a (category, tier) table
func FileName(category string, tier domain.Tier, ext string) string {
	return fmt.Sprintf("price-comparison-%s-%s.%s", unsafeFileChars.ReplaceAllString(category, "_"), tier, ext)
}

// Multi writes a report to every sink in turn. All sinks are attempted; the
// errors are joined.
type Multi []domain.ResultSink

// Write implements domain.ResultSink
func (m Multi) Write(ctx context.Context, report *domain.Report) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// formatCell renders a table cell as text. Absent prices render empty.
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', 2, 64)
	case *float64:
		if c == nil {
			return ""
		}
		return strconv.FormatFloat(*c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}

// cellValue unwraps optional prices for spreadsheet cells
func cellValue(v any) any {
	if p, ok := v.(*float64); ok {
		if p == nil {
			return nil
		}
		return *p
	}
	return v
}
