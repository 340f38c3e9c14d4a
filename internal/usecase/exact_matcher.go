package usecase

import (
	"math"
	"sort"

	"github.com/pricelens/backend/internal/domain"
)

// ExactMatcher groups records of a category that share a normalized code
type ExactMatcher struct {
	retailers []domain.Retailer
	scorer    Scorer
}

// NewExactMatcher creates an exact matcher. A nil scorer defaults to CodeRatio.
func NewExactMatcher(retailers []domain.Retailer, scorer Scorer) *ExactMatcher {
	if scorer == nil {
		scorer = CodeRatio
	}
	return &ExactMatcher{retailers: retailers, scorer: scorer}
}

// Match partitions records by normalized code. Every partition that spans at
// least two retailers becomes an EXACT_CODE group; groups are returned in
// ascending code order. All remaining records (single-retailer partitions,
// codeless records and extra same-code listings of one retailer) form the
// residual pool, returned in input order.
func (m *ExactMatcher) Match(records []domain.ProductRecord) ([]*domain.MatchGroup, []domain.ProductRecord) {
	partitions := make(map[string][]int)
	coverage := make(map[domain.Retailer]bool)
	for i, rec := range records {
		if rec.NormalizedCode == "" {
			continue
		}
		partitions[rec.NormalizedCode] = append(partitions[rec.NormalizedCode], i)
		coverage[rec.Retailer] = true
	}

	codes := make([]string, 0, len(partitions))
	for code := range partitions {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	used := make([]bool, len(records))
	var groups []*domain.MatchGroup

	for _, code := range codes {
		members := partitions[code]
		if distinctRetailers(records, members) < 2 {
			continue
		}

		group := domain.NewMatchGroup(m.retailers, domain.BasisExactCode)
		group.NormalizedCode = code
		for _, idx := range members {
			if group.Record(records[idx].Retailer) != nil {
				// first listing in input order wins the slot
				continue
			}
			rec := records[idx]
			if group.Set(&rec) {
				used[idx] = true
			}
		}

		group.Confidence = m.confidence(group, len(coverage))
		groups = append(groups, group)
	}

	residual := make([]domain.ProductRecord, 0, len(records))
	for i, rec := range records {
		if !used[i] {
			residual = append(residual, rec)
		}
	}

	return groups, residual
}

// confidence averages the raw-code/normalized-code similarity of every present
// slot over all retailers covered by the category's coded records. Covered
// retailers missing from the group contribute 0, penalizing partial coverage.
func (m *ExactMatcher) confidence(group *domain.MatchGroup, coverage int) float64 {
	if coverage == 0 {
		return 0
	}

	total := 0.0
	for _, slot := range group.Slots {
		if slot.Record == nil {
			continue
		}
		raw := slot.Record.ProductCode
		if raw == "" {
			raw = group.NormalizedCode
		}
		total += m.scorer(raw, group.NormalizedCode)
	}

	return math.Round(total/float64(coverage)*100) / 100
}

func distinctRetailers(records []domain.ProductRecord, members []int) int {
	seen := make(map[domain.Retailer]bool, len(members))
	for _, idx := range members {
		seen[records[idx].Retailer] = true
	}
	return len(seen)
}
