package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Server.VoiceRateLimit < 0 {
		return fmt.Errorf("server: voice_rate_limit must be >= 0 (got %d)", c.Server.VoiceRateLimit)
	}

	if err := c.Log.validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if err := c.Matching.validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}

	if c.Inventory.MergeMaxRetries < 1 {
		return fmt.Errorf("inventory: merge_max_retries must be >= 1 (got %d)", c.Inventory.MergeMaxRetries)
	}
	if c.Inventory.MaxItems < 1 {
		return fmt.Errorf("inventory: max_items must be >= 1 (got %d)", c.Inventory.MaxItems)
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics: path must start with / (got %q)", c.Metrics.Path)
	}

	return nil
}

func (l *LogConfig) validate() error {
	switch strings.ToLower(l.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown level %q", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown format %q", l.Format)
	}
	return nil
}

func (m *MatchingConfig) validate() error {
	if m.MinSimilarity <= 0 || m.MinSimilarity > 1 {
		return fmt.Errorf("min_similarity must be in (0, 1] (got %v)", m.MinSimilarity)
	}
	if m.MaxMatchDistance < 0 || m.MaxMatchDistance > 1 {
		return fmt.Errorf("max_match_distance must be in [0, 1] (got %v)", m.MaxMatchDistance)
	}
	if m.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must be >= 0 (got %s)", m.CacheTTL)
	}
	if m.MaxSuggestions < 0 {
		return fmt.Errorf("max_suggestions must be >= 0 (got %d)", m.MaxSuggestions)
	}
	return nil
}
