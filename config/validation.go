package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks the loaded configuration for the current environment.
// Development and test fall back to defaults; production must be explicit
// about every credential it runs with.
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.PageSize < 1 {
		errors = append(errors, "PAGE_SIZE must be at least 1")
	}
	if cfg.MediaDir == "" && cfg.S3Bucket == "" {
		errors = append(errors, "either MEDIA_DIR or S3_BUCKET_NAME must be set")
	}

	if IsProduction() {
		if cfg.JWTSecret == "" || cfg.JWTSecret == "dev-secret" {
			errors = append(errors, "JWT_SECRET must be set in production")
		}
		if cfg.DBPassword == "" {
			errors = append(errors, "DB_PASSWORD must be set in production")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, "; "))
	}

	return nil
}
