package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpDelivery "github.com/pricelens/backend/internal/delivery/http"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/infrastructure/cache"
	"github.com/pricelens/backend/internal/infrastructure/metrics"
	"github.com/pricelens/backend/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the comparison HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type cacheBackend interface {
	domain.CacheRepository
	Close() error
}

func newCache(ctx context.Context) (cacheBackend, error) {
	if cfg.Cache.Type == "redis" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{URL: cfg.Cache.RedisURL})
	}
	return cache.NewMemoryCache(), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("starting PriceLens API")

	resultCache, err := newCache(ctx)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer resultCache.Close()

	history, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}

	serviceConfig := usecase.ComparisonServiceConfig{
		CacheTTL: cfg.Cache.TTL,
		Engine:   engineConfig(cfg),
	}
	var historyReader httpDelivery.HistoryReader
	if history != nil {
		defer history.Close()
		serviceConfig.Sink = history
		historyReader = history
	}

	service := usecase.NewComparisonService(resultCache, serviceConfig, logger, metrics.NewRecorder())
	handler := httpDelivery.NewHandler(service, historyReader, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
