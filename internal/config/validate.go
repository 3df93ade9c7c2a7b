package config

import (
	"fmt"
	"net/url"
	"slices"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Scraper.DefaultInterval < MinInterval {
		return fmt.Errorf("scraper.default_interval must be >= %s, got %s", MinInterval, cfg.Scraper.DefaultInterval)
	}
	if cfg.Scraper.ShutdownTimeout <= 0 {
		return fmt.Errorf("scraper.shutdown_timeout must be > 0")
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.DetailTimeout <= 0 {
		return fmt.Errorf("fetcher.detail_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	for key, src := range cfg.Sources {
		if !slices.Contains(SourceKeys, key) {
			return fmt.Errorf("sources.%s is not a known source", key)
		}
		if !src.Enabled {
			continue
		}
		if err := ValidateURL(src.URL); err != nil {
			return fmt.Errorf("sources.%s.url: %w", key, err)
		}
		if src.Pages < 0 {
			return fmt.Errorf("sources.%s.pages must be >= 0, got %d", key, src.Pages)
		}
		if src.PageDelay < 0 {
			return fmt.Errorf("sources.%s.page_delay must be >= 0", key)
		}
		if src.Limit < 0 {
			return fmt.Errorf("sources.%s.limit must be >= 0, got %d", key, src.Limit)
		}
	}

	switch cfg.Storage.Type {
	case "memory":
	case "postgres":
		if cfg.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required for storage.type postgres")
		}
	case "mongo":
		if cfg.Storage.Mongo.URI == "" || cfg.Storage.Mongo.Database == "" {
			return fmt.Errorf("storage.mongo.uri and storage.mongo.database are required for storage.type mongo")
		}
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: memory, postgres, mongo)", cfg.Storage.Type)
	}

	if cfg.API.Enabled && (cfg.API.Port < 1 || cfg.API.Port > 65535) {
		return fmt.Errorf("api.port must be 1-65535, got %d", cfg.API.Port)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as a source endpoint.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
