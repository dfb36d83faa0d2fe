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
	Data      DataConfig      `mapstructure:"data"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DataConfig holds the reference data sources
type DataConfig struct {
	CatalogSource  string `mapstructure:"catalog_source"` // "csv", "sqlite" or "postgres"
	ProductsFile   string `mapstructure:"products_file"`
	DatabaseDSN    string `mapstructure:"database_dsn"`
	CropsFile      string `mapstructure:"crops_file"`
	FAQFile        string `mapstructure:"faq_file"`
	ReloadSchedule string `mapstructure:"reload_schedule"` // cron expression, empty disables
}

// MemoryConfig holds user-memory store configuration
type MemoryConfig struct {
	Type         string `mapstructure:"type"` // "file" or "redis"
	Dir          string `mapstructure:"dir"`
	RedisURL     string `mapstructure:"redis_url"`
	HistoryLimit int    `mapstructure:"history_limit"`
	SummaryLimit int    `mapstructure:"summary_limit"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string        `mapstructure:"type"` // "memory", "redis" or "none"
	RedisURL   string        `mapstructure:"redis_url"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// RetrievalConfig holds query defaults
type RetrievalConfig struct {
	DefaultRegion string `mapstructure:"default_region"`
	DefaultUser   string `mapstructure:"default_user"`
	EvidenceTopK  int    `mapstructure:"evidence_top_k"`
	MaxResults    int    `mapstructure:"max_results"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, reading path instead of searching
// the default locations when path is set.
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/producelens/")
	}

	// Environment variable settings: PRODUCELENS_SERVER_PORT -> server.port
	v.SetEnvPrefix("PRODUCELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
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

// loadEnvFile loads ./.env into the environment when it exists. Variables that
// are already set are not overridden.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Data defaults
	v.SetDefault("data.catalog_source", "csv")
	v.SetDefault("data.products_file", "data/products.csv")
	v.SetDefault("data.database_dsn", "data/app.db")
	v.SetDefault("data.crops_file", "data/crops.json")
	v.SetDefault("data.faq_file", "data/faq.md")
	v.SetDefault("data.reload_schedule", "")

	// Memory defaults
	v.SetDefault("memory.type", "file")
	v.SetDefault("memory.dir", "data/memory")
	v.SetDefault("memory.redis_url", "")
	v.SetDefault("memory.history_limit", 50)
	v.SetDefault("memory.summary_limit", 10)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.max_entries", 10000)

	// Retrieval defaults
	v.SetDefault("retrieval.default_region", "Beijing")
	v.SetDefault("retrieval.default_user", "default")
	v.SetDefault("retrieval.evidence_top_k", 5)
	v.SetDefault("retrieval.max_results", 10)

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Data.CatalogSource {
	case "csv":
		if config.Data.ProductsFile == "" {
			return fmt.Errorf("products file is required when catalog source is 'csv'")
		}
	case "sqlite", "postgres":
		if config.Data.DatabaseDSN == "" {
			return fmt.Errorf("database DSN is required when catalog source is '%s'", config.Data.CatalogSource)
		}
	default:
		return fmt.Errorf("catalog source must be 'csv', 'sqlite' or 'postgres', got: %s", config.Data.CatalogSource)
	}

	if config.Data.CropsFile == "" || config.Data.FAQFile == "" {
		return fmt.Errorf("crops file and FAQ file are required")
	}

	switch config.Memory.Type {
	case "file":
		if config.Memory.Dir == "" {
			return fmt.Errorf("memory directory is required when memory type is 'file'")
		}
	case "redis":
		if config.Memory.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when memory type is 'redis'")
		}
	default:
		return fmt.Errorf("memory type must be 'file' or 'redis', got: %s", config.Memory.Type)
	}

	switch config.Cache.Type {
	case "memory", "none":
	case "redis":
		if config.Cache.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when cache type is 'redis'")
		}
	default:
		return fmt.Errorf("cache type must be 'memory', 'redis' or 'none', got: %s", config.Cache.Type)
	}

	if config.Retrieval.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive, got: %d", config.Retrieval.MaxResults)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("rate limit must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
