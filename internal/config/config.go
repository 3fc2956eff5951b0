// Package config reads command defaults from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/marc2iiif/internal/manifest"
)

const (
	DefaultOutputDir   = "manifests"
	DefaultConcurrency = 4
	DefaultPort        = "8888"
	DefaultLogLevel    = "info"
)

// Config holds the environment-provided defaults. Command flags override them.
type Config struct {
	OutputDir   string
	Format      manifest.Format
	Concurrency int
	Port        string
	VuFindURL   string
	LogLevel    string
}

// Load reads MARC2IIIF_* variables, VUFIND_URL and LOG_LEVEL. Unset or empty
// variables take their defaults; malformed values are an error. LOG_LEVEL is
// kept as given and checked with ParseLevel once the --log-level flag has
// had a chance to replace it.
func Load() (Config, error) {
	cfg := Config{
		OutputDir:   getenv("MARC2IIIF_OUTPUT_DIR", DefaultOutputDir),
		Format:      manifest.FormatJSON,
		Concurrency: DefaultConcurrency,
		Port:        getenv("MARC2IIIF_PORT", DefaultPort),
		VuFindURL:   os.Getenv("VUFIND_URL"),
		LogLevel:    getenv("LOG_LEVEL", DefaultLogLevel),
	}

	if v := os.Getenv("MARC2IIIF_FORMAT"); v != "" {
		format, err := manifest.ParseFormat(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid MARC2IIIF_FORMAT: %w", err)
		}
		cfg.Format = format
	}

	if v := os.Getenv("MARC2IIIF_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("invalid MARC2IIIF_CONCURRENCY %q: must be a positive integer", v)
		}
		cfg.Concurrency = n
	}

	return cfg, nil
}

// ParseLevel maps debug|info|warn|error onto a slog level
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", s)
	}
	return level, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
