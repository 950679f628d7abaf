// Path: cmd/bookshelf/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bookshelf/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bookshelf",
	Short: "Bookshelf - browse the Open Library catalog",
	Long: `Bookshelf serves a paginated, searchable view of the Open Library catalog,
with book detail pages and highlight cards derived from catalog queries.

Run without arguments to start the web server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		zcfg := zap.NewProductionConfig()
		level, err := zap.ParseAtomicLevel(cfg.Log.Level)
		if err != nil {
			return fmt.Errorf("invalid log.level %q: %w", cfg.Log.Level, err)
		}
		zcfg.Level = level
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ./configs/config.yaml)")

	browseCmd.Flags().StringVar(&browseCategory, "category", "", "Subject to list (default: catalog.default_category)")
	browseCmd.Flags().StringVarP(&browseQuery, "query", "q", "", "Free-text search instead of a subject")
	browseCmd.Flags().IntVar(&browsePages, "pages", 1, "Number of pages to print")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(highlightsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
