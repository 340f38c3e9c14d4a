package usecase

import (
	"testing"

	"github.com/pricelens/backend/internal/domain"
)

func groupWith(records ...domain.ProductRecord) *domain.MatchGroup {
	g := domain.NewMatchGroup([]domain.Retailer{"X", "Y", "Z"}, domain.BasisExactCode)
	for i := range records {
		g.Set(&records[i])
	}
	return g
}

func TestPriceAggregator_Aggregate(t *testing.T) {
	agg := NewPriceAggregator()

	t.Run("picks the minimum price", func(t *testing.T) {
		g := groupWith(
			rec("X", "c", "n", domain.Price(120)),
			rec("Y", "c", "n", domain.Price(99)),
			rec("Z", "c", "n", nil),
		)
		agg.Aggregate(g)

		if g.BestPrice == nil || *g.BestPrice != 99 {
			t.Errorf("BestPrice = %v, want 99", g.BestPrice)
		}
		if g.LowestRetailer != "Y" {
			t.Errorf("LowestRetailer = %q, want Y", g.LowestRetailer)
		}
		if g.ProductURL() != g.Record("Y").ProductURL {
			t.Errorf("ProductURL = %q, want Y's listing", g.ProductURL())
		}
	})

	t.Run("earliest retailer wins a tie", func(t *testing.T) {
		g := groupWith(
			rec("Z", "c", "n", domain.Price(50)),
			rec("Y", "c", "n", domain.Price(50)),
		)
		agg.Aggregate(g)

		if g.LowestRetailer != "Y" {
			t.Errorf("LowestRetailer = %q, want Y", g.LowestRetailer)
		}
	})

	t.Run("no price leaves both fields absent", func(t *testing.T) {
		g := groupWith(rec("X", "c", "n", nil), rec("Z", "c", "n", nil))
		agg.Aggregate(g)

		if g.BestPrice != nil || g.LowestRetailer != "" {
			t.Errorf("BestPrice = %v, LowestRetailer = %q, want absent", g.BestPrice, g.LowestRetailer)
		}
		if g.ProductURL() != "" {
			t.Errorf("ProductURL = %q, want empty", g.ProductURL())
		}
	})

	t.Run("zero is a real price", func(t *testing.T) {
		g := groupWith(rec("X", "c", "n", domain.Price(0)), rec("Y", "c", "n", domain.Price(10)))
		agg.Aggregate(g)

		if g.BestPrice == nil || *g.BestPrice != 0 || g.LowestRetailer != "X" {
			t.Errorf("BestPrice = %v at %q, want 0 at X", g.BestPrice, g.LowestRetailer)
		}
	})
}
