package config

import (
	"strings"

	"github.com/shardpack/shardpack/internal/bytesize"
	"github.com/shardpack/shardpack/pkg/codec"
	"github.com/shardpack/shardpack/pkg/offload"
)

// ApplyDefaults sets default values for any unspecified configuration
// fields. Zero values are replaced with defaults; explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetricsDefaults(&cfg.Metrics)
	applyCompressDefaults(&cfg.Compress)
	applyRestoreDefaults(&cfg.Restore)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	if cfg.Listen == "" {
		cfg.Listen = ":9090"
	}
}

// applyCompressDefaults sets compression defaults.
func applyCompressDefaults(cfg *CompressConfig) {
	if cfg.Codec == "" {
		cfg.Codec = codec.DefaultName
	}
	// Level 0 means the codec's own default and needs no substitution.
}

// applyRestoreDefaults sets restore defaults.
func applyRestoreDefaults(cfg *RestoreConfig) {
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = bytesize.ByteSize(offload.DefaultChunkSize)
	}
	if cfg.QueueDepth == 0 {
		cfg.QueueDepth = offload.DefaultQueueDepth
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = offload.DefaultReadTimeout
	}
}

// GetDefaultConfig returns a Config struct with all default values
// applied. Useful for generating sample configuration files and for
// testing.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
