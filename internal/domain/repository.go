package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque encoded payloads so memory and Redis behave alike.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogReader supplies the raw per-(retailer, category) tables of a run
type CatalogReader interface {
	ReadCatalogs(ctx context.Context) ([]SourceTable, error)
}

// ResultSink persists the tiered tables of a finished run
type ResultSink interface {
	Write(ctx context.Context, report *Report) error
}
