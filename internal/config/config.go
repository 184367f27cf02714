package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// NoOverride is the REGION_OVERRIDE value meaning "use AWS_DEFAULT_REGION".
const NoOverride = "NO"

// ErrMissingEnv is wrapped by errors for required variables that are unset.
var ErrMissingEnv = errors.New("required environment variable not set")

// Config holds process configuration. It is resolved once at startup and
// passed to the components that need it; nothing reads the environment later.
type Config struct {
	LogLevel string
	Region   string
	KMSKey   string

	Schedule     string
	MetricsAddr  string
	EventsConfig string
	ReportDest   string
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv to look up variables.
func FromEnv(getenv func(string) string) (Config, error) {
	var c Config

	c.LogLevel = strings.TrimSpace(getenv("LOG_LEVEL"))
	if c.LogLevel == "" {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", ErrMissingEnv)
	}

	// Both region sources are trimmed before the sentinel comparison, so a
	// padded " NO " still selects AWS_DEFAULT_REGION.
	override := strings.TrimSpace(getenv("REGION_OVERRIDE"))
	if override != "" && override != NoOverride {
		c.Region = override
	} else {
		c.Region = strings.TrimSpace(getenv("AWS_DEFAULT_REGION"))
	}
	if c.Region == "" {
		return Config{}, fmt.Errorf("AWS_DEFAULT_REGION (or REGION_OVERRIDE): %w", ErrMissingEnv)
	}

	c.KMSKey = strings.TrimSpace(getenv("KMS_KEY"))
	if c.KMSKey == "" {
		return Config{}, fmt.Errorf("KMS_KEY: %w", ErrMissingEnv)
	}

	c.Schedule = envOr(getenv, "SCHEDULE", "0 * * * *")
	c.MetricsAddr = envOr(getenv, "METRICS_ADDR", ":9090")
	c.EventsConfig = getenv("EVENTS_CONFIG")
	c.ReportDest = getenv("REPORT_DEST")
	return c, nil
}

// envOr returns the value of the variable named by key or def if empty.
func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}
