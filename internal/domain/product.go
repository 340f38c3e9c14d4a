package domain

import (
	"regexp"
	"strings"
)

// Retailer identifies the source a listing was collected from (e.g. "Btech")
type Retailer string

// ProductRecord represents one listing as seen at one retailer.
// Records are created once by the loader and never modified afterwards.
type ProductRecord struct {
	ItemName       string   `json:"itemName"`
	ProductCode    string   `json:"productCode,omitempty"`
	NormalizedCode string   `json:"normalizedCode"`
	NewPrice       *float64 `json:"newPrice,omitempty"`
	OldPrice       *float64 `json:"oldPrice,omitempty"` // informational only
	ProductURL     string   `json:"productUrl"`
	Retailer       Retailer `json:"retailer"`
}

// HasPrice reports whether the record carries a usable new price
func (r *ProductRecord) HasPrice() bool {
	return r != nil && r.NewPrice != nil
}

// SourceTable is a raw, already-extracted table for one (retailer, category) pair.
// Cells are kept as text; the loader is responsible for coercion.
// ReadError is set when the file behind the table could not be read; such a
// table carries no columns or rows.
type SourceTable struct {
	Retailer  Retailer   `json:"retailer"`
	Category  string     `json:"category"`
	Path      string     `json:"path,omitempty"`
	Columns   []string   `json:"columns"`
	Rows      [][]string `json:"rows"`
	ReadError string     `json:"-"`
}

// Price returns a pointer to v, for building optional prices
func Price(v float64) *float64 {
	return &v
}

var nonAlphanumericCode = regexp.MustCompile(`[^a-zA-Z0-9]`)

// NormalizeCode canonicalizes a raw product code: separators stripped, lower-cased.
// Adapters that only know the raw code use this to derive the normalized code.
func NormalizeCode(code string) string {
	if code == "" {
		return ""
	}
	return strings.ToLower(nonAlphanumericCode.ReplaceAllString(code, ""))
}
