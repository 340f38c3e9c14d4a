package usecase

import "github.com/pricelens/backend/internal/domain"

// PriceAggregator derives the best price of a group
type PriceAggregator struct{}

// NewPriceAggregator creates a price aggregator
func NewPriceAggregator() *PriceAggregator {
	return &PriceAggregator{}
}

// Aggregate sets BestPrice to the minimum price over present, priced slots and
// LowestRetailer to the retailer offering it. Slots are visited in canonical
// retailer order and only a strictly lower price replaces the current best, so
// the earliest retailer wins a tie. A group without any price keeps both
// fields empty.
func (a *PriceAggregator) Aggregate(g *domain.MatchGroup) {
	g.BestPrice = nil
	g.LowestRetailer = ""

	for _, slot := range g.Slots {
		if !slot.Record.HasPrice() {
			continue
		}
		price := *slot.Record.NewPrice
		if g.BestPrice == nil || price < *g.BestPrice {
			g.BestPrice = domain.Price(price)
			g.LowestRetailer = slot.Retailer
		}
	}
}
