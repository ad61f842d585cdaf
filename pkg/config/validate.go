package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Struct tag rules cover the
// per-field constraints; cross-field rules live in Validate itself.
var validate = validator.New()

// Validate checks the configuration for invalid or inconsistent values.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return fmt.Errorf("invalid configuration: %w", errs)
		}
		return err
	}

	// lz4 levels stop at 9; the struct tag only knows the zstd range.
	if cfg.Compress.Codec == "lz4" && cfg.Compress.Level > 9 {
		return fmt.Errorf("invalid configuration: lz4 compression level %d exceeds maximum 9", cfg.Compress.Level)
	}

	return nil
}
