package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/pricelens/backend/internal/domain"
)

func TestRecorder_ObserveCategory(t *testing.T) {
	strong := GroupsTotal.WithLabelValues("strong", "EXACT_CODE")
	single := GroupsTotal.WithLabelValues("unmatched", "SINGLETON")
	beforeStrong := testutil.ToFloat64(strong)
	beforeSingle := testutil.ToFloat64(single)

	NewRecorder().ObserveCategory(&domain.CategoryResult{
		Strong:    []domain.MatchGroup{{Basis: domain.BasisExactCode}, {Basis: domain.BasisExactCode}},
		Unmatched: []domain.MatchGroup{{Basis: domain.BasisSingleton}},
	}, 10*time.Millisecond)

	assert.Equal(t, beforeStrong+2, testutil.ToFloat64(strong))
	assert.Equal(t, beforeSingle+1, testutil.ToFloat64(single))
}

func TestRecorder_SkipsAndRejections(t *testing.T) {
	skipped := testutil.ToFloat64(CategoriesSkippedTotal)
	rejected := SourcesRejectedTotal.WithLabelValues("Btech")
	beforeRejected := testutil.ToFloat64(rejected)

	r := NewRecorder()
	r.CategorySkipped(domain.SkippedCategory{Category: "Fans"})
	r.SourceRejected(domain.RejectedSource{Retailer: "Btech"})

	assert.Equal(t, skipped+1, testutil.ToFloat64(CategoriesSkippedTotal))
	assert.Equal(t, beforeRejected+1, testutil.ToFloat64(rejected))
}

func TestObserveHTTP(t *testing.T) {
	counter := HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/comparisons", "200")
	before := testutil.ToFloat64(counter)

	ObserveHTTP("POST", "/api/v1/comparisons", 200, 5*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
