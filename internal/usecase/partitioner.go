package usecase

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
)

// minRetailersPerCategory is the coverage needed for a category to be compared
const minRetailersPerCategory = 2

// CategoryBatch is the immutable input of one category comparison.
// Records are ordered by canonical retailer order, then input order.
type CategoryBatch struct {
	Category  string
	Retailers []domain.Retailer
	Records   []domain.ProductRecord
}

// Partition is the loaded and gated input of a whole run
type Partition struct {
	Batches  []CategoryBatch
	Skipped  []domain.SkippedCategory
	Rejected []domain.RejectedSource
	Dropped  int
}

// CategoryPartitioner groups source tables by category and retailer and
// gates categories on retailer coverage
type CategoryPartitioner struct {
	retailers []domain.Retailer
	loader    *RecordLoader
	logger    zerolog.Logger
}

// NewCategoryPartitioner creates a partitioner for the given canonical retailer order
func NewCategoryPartitioner(retailers []domain.Retailer, loader *RecordLoader, logger zerolog.Logger) *CategoryPartitioner {
	return &CategoryPartitioner{retailers: retailers, loader: loader, logger: logger}
}

// Partition loads every table and builds one batch per eligible category.
// Categories are returned in ascending name order.
func (p *CategoryPartitioner) Partition(tables []domain.SourceTable) Partition {
	var out Partition

	byCategory := make(map[string][]domain.SourceTable)
	for _, t := range tables {
		if !p.known(t.Retailer) {
			out.Rejected = append(out.Rejected, domain.RejectedSource{
				Category: t.Category,
				Retailer: t.Retailer,
				Path:     t.Path,
				Reason:   fmt.Sprintf("%v: unknown retailer", domain.ErrSourceRejected),
			})
			p.logger.Warn().Str("category", t.Category).Str("retailer", string(t.Retailer)).Msg("source rejected: unknown retailer")
			continue
		}
		byCategory[t.Category] = append(byCategory[t.Category], t)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	for _, category := range categories {
		sources := byCategory[category]
		suppliers := p.suppliers(sources)
		if len(suppliers) < minRetailersPerCategory {
			out.Skipped = append(out.Skipped, domain.SkippedCategory{
				Category:  category,
				Retailers: suppliers,
				Reason:    fmt.Sprintf("%v: appears in only one retailer", domain.ErrCategorySkipped),
			})
			p.logger.Info().Str("category", category).Int("sources", len(suppliers)).Msg("skipping category")
			continue
		}

		records := make(map[domain.Retailer][]domain.ProductRecord)
		for _, src := range sources {
			res := p.loader.Load(src)
			out.Dropped += res.Dropped
			if res.Rejected != nil {
				out.Rejected = append(out.Rejected, *res.Rejected)
				continue
			}
			records[src.Retailer] = append(records[src.Retailer], res.Records...)
		}

		batch := CategoryBatch{Category: category, Retailers: p.retailers}
		usable := 0
		for _, r := range p.retailers {
			if len(records[r]) == 0 {
				continue
			}
			usable++
			batch.Records = append(batch.Records, records[r]...)
		}

		if usable < minRetailersPerCategory {
			out.Skipped = append(out.Skipped, domain.SkippedCategory{
				Category:  category,
				Retailers: suppliers,
				Reason:    fmt.Sprintf("%v: not enough valid data sources", domain.ErrCategorySkipped),
			})
			p.logger.Warn().Str("category", category).Int("usable", usable).Msg("not enough valid data sources")
			continue
		}

		out.Batches = append(out.Batches, batch)
	}

	return out
}

// suppliers lists, in canonical order, the retailers that supplied a table
func (p *CategoryPartitioner) suppliers(sources []domain.SourceTable) []domain.Retailer {
	seen := make(map[domain.Retailer]bool, len(sources))
	for _, s := range sources {
		seen[s.Retailer] = true
	}
	var out []domain.Retailer
	for _, r := range p.retailers {
		if seen[r] {
			out = append(out, r)
		}
	}
	return out
}

func (p *CategoryPartitioner) known(r domain.Retailer) bool {
	for _, k := range p.retailers {
		if k == r {
			return true
		}
	}
	return false
}
