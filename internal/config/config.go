// Path: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Catalog    CatalogConfig
	Browse     BrowseConfig
	Highlights HighlightsConfig
	Telemetry  TelemetryConfig
	Log        LogConfig
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// DatabaseConfig holds the database connection settings.
// An empty URI selects the in-memory stores.
type DatabaseConfig struct {
	URI                 string `mapstructure:"uri"`
	Name                string `mapstructure:"name"`
	Collection          string `mapstructure:"collection"`
	HighlightCollection string `mapstructure:"highlight_collection"`
}

// CatalogConfig holds settings for the Open Library client.
type CatalogConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	CoversURL         string `mapstructure:"covers_url"`
	PlaceholderImage  string `mapstructure:"placeholder_image"`
	DefaultCategory   string `mapstructure:"default_category"`
	DefaultLimit      int    `mapstructure:"default_limit"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	RequestsPerSecond int    `mapstructure:"requests_per_second"`
	BurstLimit        int    `mapstructure:"burst_limit"`
}

// BrowseConfig holds the view-model sizing.
type BrowseConfig struct {
	PageSize    int `mapstructure:"page_size"`
	MaxFetch    int `mapstructure:"max_fetch"`
	CachePages  int `mapstructure:"cache_pages"`
	MaxSessions int `mapstructure:"max_sessions"`
}

// HighlightsConfig holds settings for the highlight refresh loop.
type HighlightsConfig struct {
	RefreshMinutes int `mapstructure:"refresh_minutes"`
}

// TelemetryConfig holds the OpenTelemetry exporter settings.
type TelemetryConfig struct {
	Enabled                bool   `mapstructure:"enabled"`
	Endpoint               string `mapstructure:"endpoint"`
	Insecure               bool   `mapstructure:"insecure"`
	IntervalSeconds        int    `mapstructure:"interval_seconds"`
	ServiceName            string `mapstructure:"service_name"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from file and environment variables.
// An empty path searches ./configs for config.yaml.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("DATABASE.URI", "")
	v.SetDefault("DATABASE.NAME", "bookshelf")
	v.SetDefault("DATABASE.COLLECTION", "books")
	v.SetDefault("DATABASE.HIGHLIGHT_COLLECTION", "_highlights")
	v.SetDefault("CATALOG.BASE_URL", "https://openlibrary.org")
	v.SetDefault("CATALOG.COVERS_URL", "https://covers.openlibrary.org")
	v.SetDefault("CATALOG.PLACEHOLDER_IMAGE", "/static/placeholder-cover.svg")
	v.SetDefault("CATALOG.DEFAULT_CATEGORY", "science")
	v.SetDefault("CATALOG.DEFAULT_LIMIT", 20)
	v.SetDefault("CATALOG.TIMEOUT_SECONDS", 15)
	v.SetDefault("CATALOG.REQUESTS_PER_SECOND", 5)
	v.SetDefault("CATALOG.BURST_LIMIT", 10)
	v.SetDefault("BROWSE.PAGE_SIZE", 8)
	v.SetDefault("BROWSE.MAX_FETCH", 100)
	v.SetDefault("BROWSE.CACHE_PAGES", 32)
	v.SetDefault("BROWSE.MAX_SESSIONS", 1024)
	v.SetDefault("HIGHLIGHTS.REFRESH_MINUTES", 30)
	v.SetDefault("TELEMETRY.ENABLED", false)
	v.SetDefault("TELEMETRY.ENDPOINT", "localhost:4318")
	v.SetDefault("TELEMETRY.INSECURE", true)
	v.SetDefault("TELEMETRY.INTERVAL_SECONDS", 30)
	v.SetDefault("TELEMETRY.SERVICE_NAME", "bookshelf")
	v.SetDefault("TELEMETRY.SHUTDOWN_TIMEOUT_SECONDS", 5)
	v.SetDefault("LOG.LEVEL", "info")

	// Load from config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Load from environment variables, e.g. BOOKSHELF_BROWSE_PAGE_SIZE.
	v.SetEnvPrefix("BOOKSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects sizes the view-model cannot work with.
func (c *Config) Validate() error {
	switch {
	case c.Browse.PageSize <= 0:
		return fmt.Errorf("browse.page_size must be positive, got %d", c.Browse.PageSize)
	case c.Browse.MaxFetch < c.Browse.PageSize:
		return fmt.Errorf("browse.max_fetch (%d) must be at least browse.page_size (%d)", c.Browse.MaxFetch, c.Browse.PageSize)
	case c.Browse.CachePages <= 0:
		return fmt.Errorf("browse.cache_pages must be positive, got %d", c.Browse.CachePages)
	case c.Browse.MaxSessions <= 0:
		return fmt.Errorf("browse.max_sessions must be positive, got %d", c.Browse.MaxSessions)
	case c.Catalog.RequestsPerSecond <= 0:
		return fmt.Errorf("catalog.requests_per_second must be positive, got %d", c.Catalog.RequestsPerSecond)
	}
	return nil
}
