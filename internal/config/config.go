package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// Remote expense service
	APIBaseURL string

	// Local state
	StatePath string

	// Search
	SearchDebounce time.Duration

	// Connectivity
	ProbeURL     string
	PollInterval time.Duration
	ProbeTimeout time.Duration

	// Offline queue
	DrainTimeout time.Duration

	// Logging
	LogLevel string
}

func Load() *Config {
	cfg := &Config{
		APIBaseURL: getEnv("ONEPOCKET_API_URL", "http://localhost:8080"),
		StatePath:  getEnv("ONEPOCKET_STATE_PATH", defaultStatePath()),

		SearchDebounce: getEnvDuration("ONEPOCKET_SEARCH_DEBOUNCE", 300*time.Millisecond),

		ProbeURL:     getEnv("ONEPOCKET_PROBE_URL", ""),
		PollInterval: getEnvDuration("ONEPOCKET_POLL_INTERVAL", 15*time.Second),
		ProbeTimeout: getEnvDuration("ONEPOCKET_PROBE_TIMEOUT", 5*time.Second),

		DrainTimeout: getEnvDuration("ONEPOCKET_DRAIN_TIMEOUT", 30*time.Second),

		LogLevel: getEnv("ONEPOCKET_LOG_LEVEL", "info"),
	}

	// The API itself answers connectivity probes unless overridden.
	if cfg.ProbeURL == "" {
		cfg.ProbeURL = cfg.APIBaseURL
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if parsed, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
	}

	if c.ProbeURL != "" {
		if parsed, err := url.Parse(c.ProbeURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid probe URL '%s': %v", c.ProbeURL, err))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid probe URL scheme '%s': must be 'http' or 'https'", parsed.Scheme))
		}
	}

	if c.StatePath == "" {
		errors = append(errors, "state path cannot be empty")
	} else {
		dir := filepath.Dir(c.StatePath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create state directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.SearchDebounce < 0 {
		errors = append(errors, fmt.Sprintf("invalid search debounce %v: must not be negative", c.SearchDebounce))
	} else if c.SearchDebounce > 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid search debounce %v: must be at most 10 seconds", c.SearchDebounce))
	}

	if c.PollInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be at least 1 second", c.PollInterval))
	} else if c.PollInterval > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid poll interval %v: must be at most 1 hour", c.PollInterval))
	}

	if c.ProbeTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid probe timeout %v: must be at least 1 second", c.ProbeTimeout))
	} else if c.ProbeTimeout >= c.PollInterval {
		errors = append(errors, fmt.Sprintf("invalid probe timeout %v: must be shorter than the poll interval (%v)", c.ProbeTimeout, c.PollInterval))
	}

	if c.DrainTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid drain timeout %v: must be at least 1 second", c.DrainTimeout))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func defaultStatePath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".onepocket", "state.db")
	}
	return "./data/onepocket.db"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
