package domain

import (
	"fmt"
	"sort"
)

// NotAvailable marks a retailer that is absent from a group
const NotAvailable = "N/A"

// Table is the flat rendering of one tier of one category.
// Cells are strings, float64 (confidence) or *float64 (prices); a nil
// *float64 is an absent price.
type Table struct {
	Title  string
	Header []string
	Rows   [][]any
}

// TableTitle returns the display title for a (category, tier) table
func TableTitle(category string, tier Tier) string {
	return fmt.Sprintf("Price Comparison - %s - %s", category, tier.Title())
}

// TableHeader returns the column names for the given retailers
func TableHeader(retailers []Retailer) []string {
	header := make([]string, 0, len(retailers)*4+4)
	for _, r := range retailers {
		header = append(header,
			fmt.Sprintf("%s Item Name", r),
			fmt.Sprintf("%s Price", r),
			fmt.Sprintf("%s Normalized Code", r),
			fmt.Sprintf("%s Product URL", r),
		)
	}
	return append(header, "Confidence", "Best Price", "Lowest Retailer", "Product URL")
}

// Table renders one tier. With byConfidence set rows are ordered by confidence
// descending; the sort is stable so emission order breaks ties.
func (c *CategoryResult) Table(tier Tier, byConfidence bool) Table {
	groups := c.Groups(tier)
	if byConfidence {
		groups = append([]MatchGroup(nil), groups...)
		sort.SliceStable(groups, func(i, j int) bool {
			return groups[i].Confidence > groups[j].Confidence
		})
	}

	t := Table{
		Title:  TableTitle(c.Category, tier),
		Header: TableHeader(c.Retailers),
		Rows:   make([][]any, 0, len(groups)),
	}
	for i := range groups {
		t.Rows = append(t.Rows, groups[i].Row())
	}
	return t
}

// Row renders the group as one table row matching TableHeader(Slots' retailers)
func (g *MatchGroup) Row() []any {
	row := make([]any, 0, len(g.Slots)*4+4)
	for _, slot := range g.Slots {
		rec := slot.Record
		if rec == nil {
			row = append(row, NotAvailable, (*float64)(nil), NotAvailable, NotAvailable)
			continue
		}
		row = append(row, rec.ItemName, rec.NewPrice, orNA(rec.NormalizedCode), orNA(rec.ProductURL))
	}

	lowest := NotAvailable
	url := NotAvailable
	if g.LowestRetailer != "" {
		lowest = string(g.LowestRetailer)
		url = orNA(g.ProductURL())
	}

	return append(row, g.Confidence, g.BestPrice, lowest, url)
}

func orNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
