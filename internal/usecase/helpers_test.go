package usecase

import (
	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
)

var testRetailers = []domain.Retailer{"A", "B", "C"}

func rec(retailer domain.Retailer, code, name string, price *float64) domain.ProductRecord {
	return domain.ProductRecord{
		ItemName:       name,
		NormalizedCode: code,
		NewPrice:       price,
		ProductURL:     "https://" + string(retailer) + ".example/" + name,
		Retailer:       retailer,
	}
}

func table(retailer domain.Retailer, category string, rows ...[]string) domain.SourceTable {
	return domain.SourceTable{
		Retailer: retailer,
		Category: category,
		Columns:  []string{"Item Name", "New Price", "Normalized Code", "Product URL"},
		Rows:     rows,
	}
}

func constScorer(score float64) Scorer {
	return func(a, b string) float64 { return score }
}

var nopLogger = zerolog.Nop()
