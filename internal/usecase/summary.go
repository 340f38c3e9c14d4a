package usecase

import (
	"fmt"
	"strings"

	"github.com/pricelens/backend/internal/domain"
)

// FormatSummary renders the run-level summary: tier counts per compared
// category, then skipped categories with the retailers that did have data,
// then rejected sources.
func FormatSummary(report *domain.Report) []string {
	var lines []string

	for _, c := range report.Categories {
		lines = append(lines, fmt.Sprintf("%s: Strong = %d, Weak = %d, Unmatched = %d",
			c.Category, len(c.Strong), len(c.Weak), len(c.Unmatched)))
	}

	if len(report.Skipped) == 0 {
		lines = append(lines, "No skipped categories due to missing retailer coverage.")
	} else {
		lines = append(lines, "Skipped categories:")
		for _, s := range report.Skipped {
			lines = append(lines, fmt.Sprintf("  - %s (from: %s) %s", s.Category, joinRetailers(s.Retailers), s.Reason))
		}
	}

	if len(report.Rejected) > 0 {
		lines = append(lines, "Rejected sources:")
		for _, r := range report.Rejected {
			line := fmt.Sprintf("  - %s / %s: %s", r.Category, r.Retailer, r.Reason)
			if len(r.Missing) > 0 {
				line += " (" + strings.Join(r.Missing, ", ") + ")"
			}
			lines = append(lines, line)
		}
	}

	if report.DroppedRecords > 0 {
		lines = append(lines, fmt.Sprintf("Dropped records: %d", report.DroppedRecords))
	}

	return lines
}

func joinRetailers(retailers []domain.Retailer) string {
	names := make([]string, len(retailers))
	for i, r := range retailers {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
