package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
)

// EngineConfig holds configuration for the comparison engine
type EngineConfig struct {
	Retailers          []domain.Retailer // canonical order, also the price tie-break order
	Thresholds         Thresholds
	CodelessPolicy     CodelessPolicy
	EnableDebugLogging bool

	// NameScorer and CodeScorer override the default similarity functions
	NameScorer Scorer
	CodeScorer Scorer
}

// Recorder receives run statistics
type Recorder interface {
	ObserveCategory(result *domain.CategoryResult, elapsed time.Duration)
	CategorySkipped(skipped domain.SkippedCategory)
	SourceRejected(rejected domain.RejectedSource)
}

type noopRecorder struct{}

func (noopRecorder) ObserveCategory(*domain.CategoryResult, time.Duration) {}
func (noopRecorder) CategorySkipped(domain.SkippedCategory)                {}
func (noopRecorder) SourceRejected(domain.RejectedSource)                  {}

// ComparisonEngine runs the matching pipeline over a batch of source tables
type ComparisonEngine struct {
	retailers   []domain.Retailer
	partitioner *CategoryPartitioner
	exact       *ExactMatcher
	fuzzy       *FuzzyMatcher
	classifier  *ConfidenceClassifier
	aggregator  *PriceAggregator
	logger      zerolog.Logger
	recorder    Recorder
}

// NewComparisonEngine creates an engine. Zero thresholds fall back to the
// defaults and a nil recorder discards statistics.
func NewComparisonEngine(cfg EngineConfig, logger zerolog.Logger, recorder Recorder) *ComparisonEngine {
	thresholds := cfg.Thresholds
	if thresholds == (Thresholds{}) {
		thresholds = DefaultThresholds()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}

	matchLogger := logger.With().Str("component", "matcher").Logger()
	if !cfg.EnableDebugLogging {
		matchLogger = matchLogger.Level(zerolog.InfoLevel)
	}

	loader := NewRecordLoader(cfg.CodelessPolicy, logger)

	return &ComparisonEngine{
		retailers:   cfg.Retailers,
		partitioner: NewCategoryPartitioner(cfg.Retailers, loader, logger),
		exact:       NewExactMatcher(cfg.Retailers, cfg.CodeScorer),
		fuzzy:       NewFuzzyMatcher(cfg.Retailers, cfg.NameScorer, thresholds.FuzzyWeak, matchLogger),
		classifier:  NewConfidenceClassifier(thresholds),
		aggregator:  NewPriceAggregator(),
		logger:      logger,
		recorder:    recorder,
	}
}

// Run loads and partitions the tables, then compares each eligible category
// in turn. It only fails when the context is cancelled between categories.
func (e *ComparisonEngine) Run(ctx context.Context, tables []domain.SourceTable) (*domain.Report, error) {
	partition := e.partitioner.Partition(tables)

	report := &domain.Report{
		RunID:          uuid.NewString(),
		GeneratedAt:    time.Now().UTC(),
		Retailers:      e.retailers,
		Skipped:        partition.Skipped,
		Rejected:       partition.Rejected,
		DroppedRecords: partition.Dropped,
		Source:         "Engine",
	}
	for _, r := range partition.Rejected {
		e.recorder.SourceRejected(r)
	}
	for _, s := range partition.Skipped {
		e.recorder.CategorySkipped(s)
	}

	for _, batch := range partition.Batches {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		result := e.CompareCategory(batch)
		e.recorder.ObserveCategory(&result, time.Since(start))

		e.logger.Info().
			Str("category", batch.Category).
			Int("strong", len(result.Strong)).
			Int("weak", len(result.Weak)).
			Int("unmatched", len(result.Unmatched)).
			Msg("category compared")

		report.Categories = append(report.Categories, result)
	}

	return report, nil
}

// CompareCategory is a pure function of its batch: exact matching first, fuzzy
// matching over whatever the exact matcher left, then classification and
// price aggregation of every group.
func (e *ComparisonEngine) CompareCategory(batch CategoryBatch) domain.CategoryResult {
	result := domain.CategoryResult{Category: batch.Category, Retailers: e.retailers}

	exactGroups, residual := e.exact.Match(batch.Records)
	fuzzyGroups := e.fuzzy.Match(residual)

	for _, groups := range [][]*domain.MatchGroup{exactGroups, fuzzyGroups} {
		for _, g := range groups {
			e.aggregator.Aggregate(g)
			g.Tier = e.classifier.Classify(g)

			switch g.Tier {
			case domain.TierStrong:
				result.Strong = append(result.Strong, *g)
			case domain.TierWeak:
				result.Weak = append(result.Weak, *g)
			default:
				result.Unmatched = append(result.Unmatched, *g)
			}
		}
	}

	return result
}
