package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Output    OutputConfig    `mapstructure:"output"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
}

// RetailerConfig names a retailer and the folder holding its exports
type RetailerConfig struct {
	Name   string `mapstructure:"name"`
	Folder string `mapstructure:"folder"`
}

// CatalogConfig holds catalog discovery configuration.
// Retailer order is the canonical order used for tie-breaks and output columns.
type CatalogConfig struct {
	InputDir    string           `mapstructure:"input_dir"`
	Retailers   []RetailerConfig `mapstructure:"retailers"`
	FilePattern string           `mapstructure:"file_pattern"`
	HeaderRow   int              `mapstructure:"header_row"`
}

// MatchingConfig holds the engine thresholds and policies
type MatchingConfig struct {
	StrongThreshold    float64 `mapstructure:"strong_threshold"`
	ExactWeakThreshold float64 `mapstructure:"exact_weak_threshold"`
	FuzzyWeakThreshold float64 `mapstructure:"fuzzy_weak_threshold"`
	CodelessPolicy     string  `mapstructure:"codeless_policy"` // "drop" or "residual"
	EnableDebugLogging bool    `mapstructure:"enable_debug_logging"`
}

// OutputConfig holds result sink configuration
type OutputConfig struct {
	Dir              string   `mapstructure:"dir"`
	Formats          []string `mapstructure:"formats"`
	SQLitePath       string   `mapstructure:"sqlite_path"` // empty disables history
	SortByConfidence bool     `mapstructure:"sort_by_confidence"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// RetailerNames returns the configured retailers in canonical order
func (c *Config) RetailerNames() []string {
	names := make([]string, len(c.Catalog.Retailers))
	for i, r := range c.Catalog.Retailers {
		names[i] = r.Name
	}
	return names
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration from an explicit file, or searches the
// default locations when path is empty
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pricelens/")
	}

	// Environment variable settings
	v.SetEnvPrefix("PRICELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 10<<20)

	// Catalog defaults
	v.SetDefault("catalog.input_dir", "./catalogs")
	v.SetDefault("catalog.retailers", []map[string]string{
		{"name": "2B", "folder": "2b/2b-outputs"},
		{"name": "Btech", "folder": "btech/btech-outputs"},
		{"name": "Raneen", "folder": "raneen/raneen-outputs"},
	})
	v.SetDefault("catalog.file_pattern", "")
	v.SetDefault("catalog.header_row", 2)

	// Matching defaults
	v.SetDefault("matching.strong_threshold", 81.0)
	v.SetDefault("matching.exact_weak_threshold", 20.0)
	v.SetDefault("matching.fuzzy_weak_threshold", 30.0)
	v.SetDefault("matching.codeless_policy", "drop")
	v.SetDefault("matching.enable_debug_logging", false)

	// Output defaults
	v.SetDefault("output.dir", "./results")
	v.SetDefault("output.formats", []string{"xlsx"})
	v.SetDefault("output.sqlite_path", "")
	v.SetDefault("output.sort_by_confidence", false)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if len(config.Catalog.Retailers) < 2 {
		return fmt.Errorf("at least two retailers are required, got %d", len(config.Catalog.Retailers))
	}
	seen := make(map[string]bool, len(config.Catalog.Retailers))
	for _, r := range config.Catalog.Retailers {
		if r.Name == "" {
			return fmt.Errorf("retailer name must not be empty")
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate retailer: %s", r.Name)
		}
		seen[r.Name] = true
	}

	if config.Catalog.HeaderRow < 1 {
		return fmt.Errorf("header row must be at least 1, got %d", config.Catalog.HeaderRow)
	}

	m := config.Matching
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"strong", m.StrongThreshold},
		{"exact weak", m.ExactWeakThreshold},
		{"fuzzy weak", m.FuzzyWeakThreshold},
	} {
		if th.value < 0 || th.value > 100 {
			return fmt.Errorf("%s threshold must be within [0,100], got %v", th.name, th.value)
		}
	}
	if m.ExactWeakThreshold > m.StrongThreshold {
		return fmt.Errorf("exact weak threshold must not exceed strong threshold")
	}

	if m.CodelessPolicy != "drop" && m.CodelessPolicy != "residual" {
		return fmt.Errorf("codeless policy must be 'drop' or 'residual', got: %s", m.CodelessPolicy)
	}

	for _, f := range config.Output.Formats {
		if f != "xlsx" && f != "csv" {
			return fmt.Errorf("output format must be 'xlsx' or 'csv', got: %s", f)
		}
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("per-IP rate limit must not be negative")
	}

	return nil
}
