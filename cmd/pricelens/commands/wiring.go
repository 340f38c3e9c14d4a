package commands

import (
	"context"
	"fmt"

	"github.com/pricelens/backend/config"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/catalog"
	"github.com/pricelens/backend/internal/infrastructure/sink"
	"github.com/pricelens/backend/internal/usecase"
)

func retailers(c *config.Config) []domain.Retailer {
	names := c.RetailerNames()
	out := make([]domain.Retailer, len(names))
	for i, n := range names {
		out[i] = domain.Retailer(n)
	}
	return out
}

func engineConfig(c *config.Config) usecase.EngineConfig {
	return usecase.EngineConfig{
		Retailers: retailers(c),
		Thresholds: usecase.Thresholds{
			Strong:    c.Matching.StrongThreshold,
			ExactWeak: c.Matching.ExactWeakThreshold,
			FuzzyWeak: c.Matching.FuzzyWeakThreshold,
		},
		CodelessPolicy:     usecase.CodelessPolicy(c.Matching.CodelessPolicy),
		EnableDebugLogging: c.Matching.EnableDebugLogging,
	}
}

func catalogConfig(c *config.Config) catalog.Config {
	sources := make([]catalog.RetailerSource, len(c.Catalog.Retailers))
	for i, r := range c.Catalog.Retailers {
		sources[i] = catalog.RetailerSource{Name: domain.Retailer(r.Name), Folder: r.Folder}
	}
	return catalog.Config{
		InputDir:    c.Catalog.InputDir,
		Retailers:   sources,
		FilePattern: c.Catalog.FilePattern,
		HeaderRow:   c.Catalog.HeaderRow,
	}
}

// openHistory opens the SQLite history store, or returns nil when disabled
func openHistory(ctx context.Context, c *config.Config) (*sink.SQLiteStore, error) {
	if c.Output.SQLitePath == "" {
		return nil, nil
	}
	store, err := sink.OpenSQLiteStore(ctx, c.Output.SQLitePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

// fileSinks builds one writer per configured output format
func fileSinks(c *config.Config) (sink.Multi, error) {
	var sinks sink.Multi
	for _, format := range c.Output.Formats {
		switch format {
		case "xlsx":
			sinks = append(sinks, sink.NewXLSXWriter(c.Output.Dir, c.Output.SortByConfidence, sink.DefaultHighlights(), logger))
		case "csv":
			sinks = append(sinks, sink.NewCSVWriter(c.Output.Dir, c.Output.SortByConfidence, logger))
		default:
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
		}
	}
	return sinks, nil
}
