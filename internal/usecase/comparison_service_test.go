package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pricelens/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// recordingSink captures the reports handed to it
type recordingSink struct {
	reports []*domain.Report
	err     error
}

func (s *recordingSink) Write(ctx context.Context, report *domain.Report) error {
	s.reports = append(s.reports, report)
	return s.err
}

func sampleRequest() *domain.ComparisonRequest {
	columns := []string{"Item Name", "New Price", "Normalized Code", "Product URL"}
	return &domain.ComparisonRequest{
		Categories: []domain.CategoryInput{{
			Name: "Pumps",
			Sources: []domain.SourceInput{
				{Retailer: "A", Columns: columns, Rows: [][]string{{"Pump A X1", "100", "x1", "https://a/x1"}}},
				{Retailer: "B", Columns: columns, Rows: [][]string{{"Water Pump X1", "95", "x1", "https://b/x1"}}},
			},
		}},
	}
}

func newTestService(cache domain.CacheRepository) *ComparisonService {
	return NewComparisonService(cache, ComparisonServiceConfig{
		Engine: EngineConfig{Retailers: testRetailers},
	}, nopLogger, nil)
}

func TestNewComparisonService(t *testing.T) {
	t.Run("creates service with default values", func(t *testing.T) {
		svc := NewComparisonService(nil, ComparisonServiceConfig{}, nopLogger, nil)
		if svc.cacheTTL != 24*time.Hour {
			t.Errorf("cacheTTL = %v, want 24h", svc.cacheTTL)
		}
	})

	t.Run("creates service with custom values", func(t *testing.T) {
		svc := NewComparisonService(nil, ComparisonServiceConfig{CacheTTL: time.Hour}, nopLogger, nil)
		if svc.cacheTTL != time.Hour {
			t.Errorf("cacheTTL = %v, want 1h", svc.cacheTTL)
		}
	})
}

func TestComparisonService_Compare(t *testing.T) {
	ctx := context.Background()

	t.Run("returns error for nil request", func(t *testing.T) {
		svc := newTestService(NewMockCacheRepository())
		_, err := svc.Compare(ctx, nil)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("returns error for empty categories", func(t *testing.T) {
		svc := newTestService(NewMockCacheRepository())
		_, err := svc.Compare(ctx, &domain.ComparisonRequest{})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("returns error for a single retailer", func(t *testing.T) {
		svc := newTestService(NewMockCacheRepository())
		req := sampleRequest()
		req.Retailers = []domain.Retailer{"A"}
		_, err := svc.Compare(ctx, req)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("returns error for repeated or empty retailers", func(t *testing.T) {
		for _, retailers := range [][]domain.Retailer{
			{"A", "B", "A"},
			{"A", "", "B"},
		} {
			cache := NewMockCacheRepository()
			svc := newTestService(cache)
			req := sampleRequest()
			req.Retailers = retailers
			report, err := svc.Compare(ctx, req)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Errorf("retailers %v: error = %v, want ErrInvalidRequest", retailers, err)
			}
			if report != nil {
				t.Errorf("retailers %v: expected no report", retailers)
			}
			if cache.setCalled {
				t.Errorf("retailers %v: rejected request must not be cached", retailers)
			}
		}
	})

	t.Run("runs engine on cache miss and caches result", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := newTestService(cache)

		report, err := svc.Compare(ctx, sampleRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Source != "Engine" {
			t.Errorf("Source = %v, want Engine", report.Source)
		}
		if len(report.Categories) != 1 || len(report.Categories[0].Strong) != 1 {
			t.Errorf("Categories = %+v", report.Categories)
		}
		if !cache.setCalled {
			t.Error("expected cache.Set to be called")
		}
	})

	t.Run("returns cached report on cache hit", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := newTestService(cache)

		first, err := svc.Compare(ctx, sampleRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := svc.Compare(ctx, sampleRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.Source != "Cache" {
			t.Errorf("Source = %v, want Cache", second.Source)
		}
		if second.RunID != first.RunID {
			t.Errorf("RunID = %v, want %v", second.RunID, first.RunID)
		}
		best := second.Categories[0].Strong[0].BestPrice
		if best == nil || *best != 95 {
			t.Errorf("BestPrice = %v, want 95", best)
		}
	})

	t.Run("different requests use different keys", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := newTestService(cache)

		if _, err := svc.Compare(ctx, sampleRequest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		req := sampleRequest()
		req.CodelessPolicy = "residual"
		if _, err := svc.Compare(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cache.data) != 2 {
			t.Errorf("cached entries = %d, want 2", len(cache.data))
		}
	})

	t.Run("ignores corrupt cache entries", func(t *testing.T) {
		cache := NewMockCacheRepository()
		svc := newTestService(cache)
		key, err := generateCacheKey(svc.engineConfig(sampleRequest()), sampleRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		cache.data[key] = []byte("{not json")

		report, err := svc.Compare(ctx, sampleRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Source != "Engine" {
			t.Errorf("Source = %v, want Engine", report.Source)
		}
		var stored domain.Report
		if err := json.Unmarshal(cache.data[key], &stored); err != nil {
			t.Errorf("expected cache entry to be replaced: %v", err)
		}
	})

	t.Run("does not fail when caching fails", func(t *testing.T) {
		cache := NewMockCacheRepository()
		cache.setError = domain.ErrCacheUnavailable
		svc := newTestService(cache)

		if _, err := svc.Compare(ctx, sampleRequest()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("works without a cache", func(t *testing.T) {
		svc := newTestService(nil)
		report, err := svc.Compare(ctx, sampleRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Source != "Engine" {
			t.Errorf("Source = %v, want Engine", report.Source)
		}
	})

	t.Run("persists fresh reports to the sink but not cache hits", func(t *testing.T) {
		sink := &recordingSink{}
		svc := NewComparisonService(NewMockCacheRepository(), ComparisonServiceConfig{
			Engine: EngineConfig{Retailers: testRetailers},
			Sink:   sink,
		}, nopLogger, nil)

		first, err := svc.Compare(ctx, sampleRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := svc.Compare(ctx, sampleRequest()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(sink.reports) != 1 {
			t.Fatalf("sink writes = %d, want 1", len(sink.reports))
		}
		if sink.reports[0].RunID != first.RunID {
			t.Errorf("sink RunID = %v, want %v", sink.reports[0].RunID, first.RunID)
		}
	})

	t.Run("does not fail when the sink fails", func(t *testing.T) {
		svc := NewComparisonService(nil, ComparisonServiceConfig{
			Engine: EngineConfig{Retailers: testRetailers},
			Sink:   &recordingSink{err: errors.New("disk full")},
		}, nopLogger, nil)

		if _, err := svc.Compare(ctx, sampleRequest()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
