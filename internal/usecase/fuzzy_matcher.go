package usecase

import (
	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
)

// FuzzyMatcher links residual records across retailers by item-name similarity.
//
// Matching is greedy and order dependent: retailers are visited in canonical
// order and records in input order. Each record takes the best still-available
// candidate from another retailer, and a taken candidate leaves the pool for
// good, even when a later record would have been a better partner.
type FuzzyMatcher struct {
	retailers     []domain.Retailer
	scorer        Scorer
	weakThreshold float64
	logger        zerolog.Logger
}

// NewFuzzyMatcher creates a fuzzy matcher. A nil scorer defaults to TokenSortRatio.
func NewFuzzyMatcher(retailers []domain.Retailer, scorer Scorer, weakThreshold float64, logger zerolog.Logger) *FuzzyMatcher {
	if scorer == nil {
		scorer = TokenSortRatio
	}
	return &FuzzyMatcher{
		retailers:     retailers,
		scorer:        scorer,
		weakThreshold: weakThreshold,
		logger:        logger,
	}
}

// Match consumes the residual pool and returns FUZZY_NAME pairs and SINGLETON
// groups in processing order. Every pool record ends up in exactly one group.
func (m *FuzzyMatcher) Match(pool []domain.ProductRecord) []*domain.MatchGroup {
	available := make([]bool, len(pool))
	for i := range available {
		available[i] = true
	}

	var groups []*domain.MatchGroup
	for _, retailer := range m.retailers {
		for i := range pool {
			if pool[i].Retailer != retailer || !available[i] {
				continue
			}
			available[i] = false

			best, score := m.bestCandidate(pool, available, i)
			if best >= 0 && score >= m.weakThreshold {
				available[best] = false
				groups = append(groups, m.pair(&pool[i], &pool[best], score))
				continue
			}

			groups = append(groups, m.singleton(&pool[i]))
		}
	}

	return groups
}

// bestCandidate scans every available record of another retailer and returns
// the index and score of the most similar one. The earliest candidate wins
// ties. It returns -1 when no candidate is left.
func (m *FuzzyMatcher) bestCandidate(pool []domain.ProductRecord, available []bool, i int) (int, float64) {
	best := -1
	highest := -1.0 // so that a score of 0 is still a candidate

	for j := range pool {
		if !available[j] || pool[j].Retailer == pool[i].Retailer {
			continue
		}
		score := m.scorer(pool[i].ItemName, pool[j].ItemName)
		if score > highest {
			highest = score
			best = j
		}
	}

	if best >= 0 {
		m.logger.Debug().
			Str("item", pool[i].ItemName).
			Str("candidate", pool[best].ItemName).
			Str("candidate_retailer", string(pool[best].Retailer)).
			Float64("score", highest).
			Msg("best fuzzy candidate")
	}

	return best, highest
}

// pair takes the source record's code as the group code, falling back to the
// candidate's when the source is codeless
func (m *FuzzyMatcher) pair(a, b *domain.ProductRecord, score float64) *domain.MatchGroup {
	group := domain.NewMatchGroup(m.retailers, domain.BasisFuzzyName)
	ra, rb := *a, *b
	group.Set(&ra)
	group.Set(&rb)
	group.Confidence = score
	group.NormalizedCode = ra.NormalizedCode
	if group.NormalizedCode == "" {
		group.NormalizedCode = rb.NormalizedCode
	}
	return group
}

func (m *FuzzyMatcher) singleton(a *domain.ProductRecord) *domain.MatchGroup {
	group := domain.NewMatchGroup(m.retailers, domain.BasisSingleton)
	ra := *a
	group.Set(&ra)
	group.NormalizedCode = ra.NormalizedCode
	return group
}
