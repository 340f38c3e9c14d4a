package usecase

import (
	"fmt"

	"github.com/pricelens/backend/internal/domain"
)

// Default tier boundaries. The exact-code and fuzzy-name paths are tuned
// independently.
const (
	DefaultStrongThreshold    = 81.0 // exact groups at or above are Strong
	DefaultExactWeakThreshold = 20.0 // exact groups at or above (and below Strong) are Weak
	DefaultFuzzyWeakThreshold = 30.0 // fuzzy pairs at or above are Weak
)

// Thresholds holds the tier boundaries on the 0-100 confidence axis
type Thresholds struct {
	Strong    float64
	ExactWeak float64
	FuzzyWeak float64
}

// DefaultThresholds returns the canonical threshold set
func DefaultThresholds() Thresholds {
	return Thresholds{
		Strong:    DefaultStrongThreshold,
		ExactWeak: DefaultExactWeakThreshold,
		FuzzyWeak: DefaultFuzzyWeakThreshold,
	}
}

// Validate checks that the boundaries are on the confidence axis and ordered
func (t Thresholds) Validate() error {
	bounds := []struct {
		name  string
		value float64
	}{
		{"strong", t.Strong},
		{"exact weak", t.ExactWeak},
		{"fuzzy weak", t.FuzzyWeak},
	}
	for _, b := range bounds {
		if b.value < 0 || b.value > 100 {
			return fmt.Errorf("%s threshold must be within [0,100], got %.2f", b.name, b.value)
		}
	}
	if t.ExactWeak > t.Strong {
		return fmt.Errorf("exact weak threshold (%.2f) must not exceed strong threshold (%.2f)", t.ExactWeak, t.Strong)
	}
	return nil
}

// ConfidenceClassifier routes groups to a tier. It never alters confidence.
type ConfidenceClassifier struct {
	thresholds Thresholds
}

// NewConfidenceClassifier creates a classifier with the given boundaries
func NewConfidenceClassifier(thresholds Thresholds) *ConfidenceClassifier {
	return &ConfidenceClassifier{thresholds: thresholds}
}

// Classify returns the tier for a group. Lower bounds are inclusive.
func (c *ConfidenceClassifier) Classify(g *domain.MatchGroup) domain.Tier {
	switch g.Basis {
	case domain.BasisExactCode:
		switch {
		case g.Confidence >= c.thresholds.Strong:
			return domain.TierStrong
		case g.Confidence >= c.thresholds.ExactWeak:
			return domain.TierWeak
		default:
			return domain.TierUnmatched
		}
	case domain.BasisFuzzyName:
		if g.Confidence >= c.thresholds.FuzzyWeak {
			return domain.TierWeak
		}
		return domain.TierUnmatched
	default:
		return domain.TierUnmatched
	}
}
