package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the daemon and the DM CLI read from the
// environment.
type Config struct {
	// Bluesky app credentials
	Username string
	Password string

	// Ably API key, daemon only
	AblyKey string

	Host         string
	PollInterval time.Duration
	Backoff      time.Duration
	Port         string
	Debug        bool
}

func read() *Config {
	return &Config{
		Username:     os.Getenv("BSKY_USERNAME"),
		Password:     os.Getenv("BSKY_PASSWORD"),
		AblyKey:      os.Getenv("ABLY_API_KEY"),
		Host:         getEnv("BSKY_HOST", "https://bsky.social"),
		PollInterval: getDuration("BSKY_POLL_INTERVAL", 3*time.Second),
		Backoff:      getDuration("STREAM_BACKOFF", 5*time.Second),
		Port:         getEnv("BRIDGE_PORT", "8080"),
		Debug:        getBool("DEBUG", false),
	}
}

// Load reads the daemon configuration. Missing required variables are
// reported together so a misconfigured deployment fails with one
// actionable error.
func Load() (*Config, error) {
	cfg := read()
	if m := missing("BSKY_USERNAME", cfg.Username, "BSKY_PASSWORD", cfg.Password, "ABLY_API_KEY", cfg.AblyKey); len(m) > 0 {
		return nil, fmt.Errorf("missing required environment: %s", strings.Join(m, ", "))
	}
	return cfg, nil
}

// LoadCLI reads configuration for the DM CLI, which only needs the Bluesky
// credentials.
func LoadCLI() (*Config, error) {
	cfg := read()
	if m := missing("BSKY_USERNAME", cfg.Username, "BSKY_PASSWORD", cfg.Password); len(m) > 0 {
		return nil, fmt.Errorf("missing required environment: %s", strings.Join(m, ", "))
	}
	return cfg, nil
}

// missing takes alternating name, value pairs and returns the names whose
// values are empty.
func missing(pairs ...string) []string {
	var out []string
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			out = append(out, pairs[i])
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
