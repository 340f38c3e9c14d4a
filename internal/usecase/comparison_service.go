package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pricelens/backend/internal/domain"
)

// ComparisonServiceConfig holds configuration for the comparison service
type ComparisonServiceConfig struct {
	CacheTTL time.Duration
	Engine   EngineConfig
	Sink     domain.ResultSink // optional; receives every freshly computed report
}

// ComparisonService runs API comparisons with result caching
type ComparisonService struct {
	cache    domain.CacheRepository
	engine   EngineConfig
	sink     domain.ResultSink
	cacheTTL time.Duration
	logger   zerolog.Logger
	recorder Recorder
}

// NewComparisonService creates a new comparison service with dependencies.
// A nil cache disables caching.
func NewComparisonService(
	cache domain.CacheRepository,
	config ComparisonServiceConfig,
	logger zerolog.Logger,
	recorder Recorder,
) *ComparisonService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &ComparisonService{
		cache:    cache,
		engine:   config.Engine,
		sink:     config.Sink,
		cacheTTL: cacheTTL,
		logger:   logger,
		recorder: recorder,
	}
}

// Compare runs the engine over the request's tables.
// Flow: check cache -> run engine -> sink -> cache -> return
func (s *ComparisonService) Compare(ctx context.Context, request *domain.ComparisonRequest) (*domain.Report, error) {
	if request == nil || len(request.Categories) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	cfg := s.engineConfig(request)
	if len(cfg.Retailers) < minRetailersPerCategory {
		return nil, fmt.Errorf("%w: at least %d retailers are required", domain.ErrInvalidRequest, minRetailersPerCategory)
	}
	if err := checkRetailers(cfg.Retailers); err != nil {
		return nil, err
	}

	cacheKey, err := generateCacheKey(cfg, request)
	if err != nil {
		return nil, err
	}

	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		cached.Source = "Cache"
		return cached, nil
	}

	engine := NewComparisonEngine(cfg, s.logger, s.recorder)
	report, err := engine.Run(ctx, request.Tables())
	if err != nil {
		return nil, err
	}

	if s.sink != nil {
		if err := s.sink.Write(ctx, report); err != nil {
			s.logger.Error().Err(err).Str("run_id", report.RunID).Msg("failed to persist comparison")
		}
	}

	if err := s.setInCache(ctx, cacheKey, report); err != nil {
		s.logger.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache comparison")
	}

	return report, nil
}

// engineConfig applies per-request overrides to the service defaults
func (s *ComparisonService) engineConfig(request *domain.ComparisonRequest) EngineConfig {
	cfg := s.engine
	if len(request.Retailers) > 0 {
		cfg.Retailers = request.Retailers
	}
	if request.CodelessPolicy != "" {
		cfg.CodelessPolicy = CodelessPolicy(request.CodelessPolicy)
	}
	return cfg
}

// checkRetailers rejects empty and repeated names; each retailer owns exactly
// one slot per group
func checkRetailers(retailers []domain.Retailer) error {
	seen := make(map[domain.Retailer]bool, len(retailers))
	for _, r := range retailers {
		if r == "" {
			return fmt.Errorf("%w: empty retailer name", domain.ErrInvalidRequest)
		}
		if seen[r] {
			return fmt.Errorf("%w: duplicate retailer %s", domain.ErrInvalidRequest, r)
		}
		seen[r] = true
	}
	return nil
}

// generateCacheKey hashes everything that can change the outcome of a run.
// Format: "comparison:{sha256}"
func generateCacheKey(cfg EngineConfig, request *domain.ComparisonRequest) (string, error) {
	payload, err := json.Marshal(struct {
		Retailers  []domain.Retailer
		Thresholds Thresholds
		Codeless   CodelessPolicy
		Categories []domain.CategoryInput
	}{cfg.Retailers, cfg.Thresholds, cfg.CodelessPolicy, request.Categories})
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	sum := sha256.Sum256(payload)
	return "comparison:" + hex.EncodeToString(sum[:]), nil
}

// getFromCache retrieves a report from cache
func (s *ComparisonService) getFromCache(ctx context.Context, key string) (*domain.Report, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var report domain.Report
	if err := json.Unmarshal(value, &report); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &report, nil
}

// setInCache stores a report in cache
func (s *ComparisonService) setInCache(ctx context.Context, key string, report *domain.Report) error {
	if s.cache == nil {
		return nil
	}
	value, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, value, s.cacheTTL)
}
