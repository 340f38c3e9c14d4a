package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pricelens/backend/config"
	"github.com/pricelens/backend/internal/logging"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pricelens",
	Short: "PriceLens - cross-retailer product matching and price comparison",
	Long: `PriceLens reconciles the product catalogs of several retailers, groups listings
that refer to the same product and reports the cheapest offer for each group,
split into strong, weak and unmatched tables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadFile(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		logCfg := logging.Config{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
		}
		if verbose {
			logCfg.Level = "debug"
			logCfg.Format = "console"
			cfg.Matching.EnableDebugLogging = true
		}
		logger = logging.New(logCfg)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
