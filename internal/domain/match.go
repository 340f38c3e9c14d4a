package domain

import "time"

// MatchBasis records which matcher produced a group
type MatchBasis string

const (
	BasisExactCode MatchBasis = "EXACT_CODE"
	BasisFuzzyName MatchBasis = "FUZZY_NAME"
	BasisSingleton MatchBasis = "SINGLETON"
)

// Tier is the confidence bucket a group is routed to
type Tier string

const (
	TierStrong    Tier = "strong"
	TierWeak      Tier = "weak"
	TierUnmatched Tier = "unmatched"
)

// Tiers lists the tiers in output order
var Tiers = []Tier{TierStrong, TierWeak, TierUnmatched}

// Title returns the human readable table title for the tier
func (t Tier) Title() string {
	switch t {
	case TierStrong:
		return "Strong Matches"
	case TierWeak:
		return "Weak Matches"
	default:
		return "Unmatched"
	}
}

// Slot holds one retailer's record inside a group. Record is nil when the
// retailer is absent from the group.
type Slot struct {
	Retailer Retailer       `json:"retailer"`
	Record   *ProductRecord `json:"record,omitempty"`
}

// MatchGroup is one reconciled product (real or singleton) within a category.
// Slots holds exactly one entry per known retailer, in canonical retailer order.
type MatchGroup struct {
	Slots          []Slot     `json:"slots"`
	NormalizedCode string     `json:"normalizedCode,omitempty"`
	Confidence     float64    `json:"confidence"`
	BestPrice      *float64   `json:"bestPrice,omitempty"`
	LowestRetailer Retailer   `json:"lowestRetailer,omitempty"`
	Basis          MatchBasis `json:"matchBasis"`
	Tier           Tier       `json:"tier"`
}

// NewMatchGroup creates a group with one empty slot per retailer
func NewMatchGroup(retailers []Retailer, basis MatchBasis) *MatchGroup {
	slots := make([]Slot, len(retailers))
	for i, r := range retailers {
		slots[i] = Slot{Retailer: r}
	}
	return &MatchGroup{Slots: slots, Basis: basis}
}

// Set fills the slot of the record's retailer. It reports false if the
// retailer is unknown to the group.
func (g *MatchGroup) Set(rec *ProductRecord) bool {
	for i := range g.Slots {
		if g.Slots[i].Retailer == rec.Retailer {
			g.Slots[i].Record = rec
			return true
		}
	}
	return false
}

// Record returns the record held for a retailer, or nil
func (g *MatchGroup) Record(r Retailer) *ProductRecord {
	for _, s := range g.Slots {
		if s.Retailer == r {
			return s.Record
		}
	}
	return nil
}

// PresentCount returns the number of filled slots
func (g *MatchGroup) PresentCount() int {
	n := 0
	for _, s := range g.Slots {
		if s.Record != nil {
			n++
		}
	}
	return n
}

// ProductURL returns the URL of the lowest-priced retailer's listing, or ""
func (g *MatchGroup) ProductURL() string {
	if g.LowestRetailer == "" {
		return ""
	}
	if rec := g.Record(g.LowestRetailer); rec != nil {
		return rec.ProductURL
	}
	return ""
}

// CategoryResult holds the three tiered tables of one compared category
type CategoryResult struct {
	Category  string       `json:"category"`
	Retailers []Retailer   `json:"retailers"`
	Strong    []MatchGroup `json:"strong"`
	Weak      []MatchGroup `json:"weak"`
	Unmatched []MatchGroup `json:"unmatched"`
}

// Groups returns the table for the given tier
func (c *CategoryResult) Groups(t Tier) []MatchGroup {
	switch t {
	case TierStrong:
		return c.Strong
	case TierWeak:
		return c.Weak
	default:
		return c.Unmatched
	}
}

// SkippedCategory is a category that never reached the classifier
type SkippedCategory struct {
	Category  string     `json:"category"`
	Retailers []Retailer `json:"retailers"` // retailers that did supply data
	Reason    string     `json:"reason"`
}

// RejectedSource is a retailer table excluded from its category
type RejectedSource struct {
	Category string   `json:"category"`
	Retailer Retailer `json:"retailer"`
	Path     string   `json:"path,omitempty"`
	Missing  []string `json:"missingColumns,omitempty"`
	Reason   string   `json:"reason"`
}

// Report is the outcome of one comparison run
type Report struct {
	RunID          string            `json:"runId"`
	GeneratedAt    time.Time         `json:"generatedAt"`
	Retailers      []Retailer        `json:"retailers"`
	Categories     []CategoryResult  `json:"categories"`
	Skipped        []SkippedCategory `json:"skipped"`
	Rejected       []RejectedSource  `json:"rejected"`
	DroppedRecords int               `json:"droppedRecords"`
	Source         string            `json:"source,omitempty"` // "Engine" or "Cache"
}
