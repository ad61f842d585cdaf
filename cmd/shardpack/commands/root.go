// Package commands implements the CLI commands for shardpack.
package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/shardpack/shardpack/internal/logger"
	"github.com/shardpack/shardpack/pkg/config"
	"github.com/shardpack/shardpack/pkg/metrics"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	threads       int
	logJSON       bool
	logLevel      string
	configFile    string
	metricsListen string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "shardpack",
	Short: "Parallel shard archiver",
	Long: `shardpack packs a directory tree into independently compressed shard
archives and restores them back, using one worker per shard in both
directions.

Use "shardpack [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVarP(&threads, "threads", "t", 0, "Number of worker threads (required for compress/decompress)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON instead of text")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Minimum log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: $XDG_CONFIG_HOME/shardpack/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&metricsListen, "metrics-listen", "", "Serve Prometheus metrics on this address for the duration of the run")

	// Add subcommands
	rootCmd.AddCommand(compressCmd)
	rootCmd.AddCommand(decompressCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// setup loads configuration, applies flag overrides, and initializes
// the logger and the optional metrics endpoint. Called by the commands
// that run a compress or restore pipeline.
func setup(cmd *cobra.Command) (*config.Config, error) {
	if !cmd.Flags().Changed("threads") {
		return nil, fmt.Errorf("required flag --threads not set")
	}
	if threads < 1 {
		return nil, fmt.Errorf("thread count must be at least 1, got %d", threads)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	// CLI flags take precedence over config file and environment
	if logJSON {
		cfg.Logging.Format = "json"
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if metricsListen != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Listen = metricsListen
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.Init()
		go serveMetrics(cfg.Metrics.Listen)
	}

	return cfg, nil
}

// serveMetrics exposes the Prometheus endpoint for the duration of the
// run. The process exits when the pipeline finishes, so there is no
// graceful shutdown path.
func serveMetrics(listen string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.Info("serving metrics", "listen", listen)
	if err := http.ListenAndServe(listen, mux); err != nil {
		logger.Warn("metrics endpoint stopped", "error", err)
	}
}
