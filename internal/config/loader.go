package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and CLI flags.
// Priority (highest to lowest): env vars > config file > defaults.
// A .env file in the working directory is loaded into the environment first.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("HOAXWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("hoaxwatch")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".hoaxwatch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine unless one was explicitly requested.
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve
// for keys absent from the config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("scraper.default_interval", cfg.Scraper.DefaultInterval)
	v.SetDefault("scraper.autostart", cfg.Scraper.Autostart)
	v.SetDefault("scraper.shutdown_timeout", cfg.Scraper.ShutdownTimeout)

	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.detail_timeout", cfg.Fetcher.DetailTimeout)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.respect_robots_txt", cfg.Fetcher.RespectRobotsTxt)

	for key, src := range cfg.Sources {
		prefix := "sources." + key + "."
		v.SetDefault(prefix+"enabled", src.Enabled)
		v.SetDefault(prefix+"url", src.URL)
		v.SetDefault(prefix+"pages", src.Pages)
		v.SetDefault(prefix+"page_delay", src.PageDelay)
		v.SetDefault(prefix+"fetch_dates", src.FetchDates)
		v.SetDefault(prefix+"limit", src.Limit)
		v.SetDefault(prefix+"interval", src.Interval)
	}

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.postgres.dsn", cfg.Storage.Postgres.DSN)
	v.SetDefault("storage.postgres.max_conns", cfg.Storage.Postgres.MaxConns)
	v.SetDefault("storage.mongo.uri", cfg.Storage.Mongo.URI)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)

	v.SetDefault("api.enabled", cfg.API.Enabled)
	v.SetDefault("api.port", cfg.API.Port)
	v.SetDefault("api.cors_origins", cfg.API.CORSOrigins)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
