package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pricelens/backend/internal/infrastructure/catalog"
	"github.com/pricelens/backend/internal/infrastructure/metrics"
	"github.com/pricelens/backend/internal/usecase"
)

var (
	inputDir       string
	outputDir      string
	formats        []string
	codelessPolicy string
	byConfidence   bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the latest retailer exports and write the result tables",
	Long: `Compare discovers the newest export of every retailer and category under the
input directory, matches the listings and writes strong, weak and unmatched
tables per category. A summary is printed when the run finishes.`,
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVarP(&inputDir, "input", "i", "", "catalog input directory (overrides config)")
	compareCmd.Flags().StringVarP(&outputDir, "output", "o", "", "result directory (overrides config)")
	compareCmd.Flags().StringSliceVar(&formats, "format", nil, "output formats: xlsx, csv (overrides config)")
	compareCmd.Flags().StringVar(&codelessPolicy, "codeless-policy", "", "drop or residual (overrides config)")
	compareCmd.Flags().BoolVar(&byConfidence, "sort-by-confidence", false, "sort tables by confidence, highest first")
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	applyCompareFlags(cmd)
	start := time.Now()

	reader, err := catalog.NewReader(catalogConfig(cfg), logger)
	if err != nil {
		return err
	}
	tables, err := reader.ReadCatalogs(ctx)
	if err != nil {
		return fmt.Errorf("read catalogs: %w", err)
	}

	engine := usecase.NewComparisonEngine(engineConfig(cfg), logger, metrics.NewRecorder())
	report, err := engine.Run(ctx, tables)
	if err != nil {
		return fmt.Errorf("compare: %w", err)
	}

	sinks, err := fileSinks(cfg)
	if err != nil {
		return err
	}
	history, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	if history != nil {
		defer history.Close()
		sinks = append(sinks, history)
	}
	writeErr := sinks.Write(ctx, report)

	out := cmd.OutOrStdout()
	for _, line := range usecase.FormatSummary(report) {
		fmt.Fprintln(out, line)
	}

	logger.Info().
		Str("run_id", report.RunID).
		Int("categories", len(report.Categories)).
		Dur("elapsed", time.Since(start)).
		Msg("comparison finished")

	if writeErr != nil {
		return fmt.Errorf("write results: %w", writeErr)
	}
	return nil
}

func applyCompareFlags(cmd *cobra.Command) {
	if inputDir != "" {
		cfg.Catalog.InputDir = inputDir
	}
	if outputDir != "" {
		cfg.Output.Dir = outputDir
	}
	if len(formats) > 0 {
		cfg.Output.Formats = formats
	}
	if codelessPolicy != "" {
		cfg.Matching.CodelessPolicy = codelessPolicy
	}
	if cmd.Flags().Changed("sort-by-confidence") {
		cfg.Output.SortByConfidence = byConfidence
	}
}
