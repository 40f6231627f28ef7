package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mrz1836/go-sanitize"
)

// Environment variable names.
const (
	EnvHome           = "CUPCAKE_HOME"
	EnvProviderURL    = "CUPCAKE_PROVIDER_URL"
	EnvContract       = "CUPCAKE_CONTRACT"
	EnvOutputFormat   = "CUPCAKE_OUTPUT_FORMAT"
	EnvVerbose        = "CUPCAKE_VERBOSE"
	EnvLogLevel       = "CUPCAKE_LOG_LEVEL"
	EnvConfirmTimeout = "CUPCAKE_CONFIRM_TIMEOUT"
	EnvNoColor        = "NO_COLOR"
)

// ApplyEnvironment applies environment variable overrides to the configuration.
func ApplyEnvironment(cfg *Config) {
	if v := os.Getenv(EnvHome); v != "" {
		cfg.Home = v
	}

	if v := os.Getenv(EnvProviderURL); v != "" {
		cfg.Provider.URL = SanitizeURL(v)
	}

	if v := os.Getenv(EnvContract); v != "" {
		cfg.Contract.Address = strings.TrimSpace(v)
	}

	if v := os.Getenv(EnvOutputFormat); v != "" {
		cfg.Output.DefaultFormat = strings.ToLower(v)
	}

	if v := os.Getenv(EnvVerbose); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}

	// CUPCAKE_CONFIRM_TIMEOUT accepts a Go duration ("90s") or whole seconds
	if v := os.Getenv(EnvConfirmTimeout); v != "" {
		if d, ok := parseDuration(v); ok {
			cfg.Transaction.ConfirmationTimeout = d
		}
	}

	// NO_COLOR disables colored output
	if _, ok := os.LookupEnv(EnvNoColor); ok {
		cfg.Output.Color = "never"
	}
}

// parseBool parses a boolean string value.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "1" || s == "true" || s == "yes" || s == "on" {
		return true
	}
	b, _ := strconv.ParseBool(s)
	return b
}

func parseDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		if secs <= 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}

// SanitizeURL cleans a provider URL of copy-paste artifacts such as
// surrounding whitespace, quotes and control characters.
func SanitizeURL(raw string) string {
	return sanitize.URL(strings.TrimSpace(raw))
}
