package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Redis   RedisConfig   `yaml:"redis"`
	JWT     JWTConfig     `yaml:"jwt"`
	Payment PaymentConfig `yaml:"payment"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Billing BillingConfig `yaml:"billing"`
	Seed    SeedConfig    `yaml:"seed"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MongoConfig contains document store settings
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// RedisConfig contains cache and pub/sub settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// JWTConfig contains bearer token settings
type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

// PaymentConfig contains gateway credentials
type PaymentConfig struct {
	KeyID     string `yaml:"key_id"`
	KeySecret string `yaml:"key_secret"`
	Currency  string `yaml:"currency"`
}

// StorageConfig contains upload settings
type StorageConfig struct {
	UploadDir   string `yaml:"upload_dir"`
	MaxFileSize int64  `yaml:"max_file_size_mb"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// BillingConfig contains monthly billing settings
type BillingConfig struct {
	OverdueSpec string `yaml:"overdue_spec"` // cron spec for the overdue sweep
	DueDays     int    `yaml:"due_days"`
}

// SeedConfig controls the bootstrap routine
type SeedConfig struct {
	Enabled       bool   `yaml:"enabled"`
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// Default returns a configuration with every setting at its default.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{Port: 5000, AllowedOrigins: []string{"*"}},
		Mongo:   MongoConfig{URI: "mongodb://localhost:27017", Database: "makeeasy"},
		Redis:   RedisConfig{Addr: "localhost:6379"},
		JWT:     JWTConfig{ExpireHours: 720},
		Payment: PaymentConfig{Currency: "INR"},
		Storage: StorageConfig{UploadDir: "static/uploads", MaxFileSize: 10},
		Log:     LogConfig{Level: "info", Format: "text"},
		Billing: BillingConfig{OverdueSpec: "@hourly", DueDays: 7},
		Seed:    SeedConfig{AdminEmail: "admin@makeeasy.in"},
	}
}

// Load reads configuration from an optional YAML file, then applies
// environment overrides and validates the result.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	if val := os.Getenv("PORT"); val != "" {
		if p, err := strconv.Atoi(strings.TrimPrefix(val, ":")); err == nil {
			c.Server.Port = p
		}
	}
	if val := os.Getenv("CORS_ORIGINS"); val != "" {
		c.Server.AllowedOrigins = strings.Split(val, ",")
	}

	// Mongo
	if val := os.Getenv("MONGO_URI"); val != "" {
		c.Mongo.URI = val
	}
	if val := os.Getenv("MONGO_DB"); val != "" {
		c.Mongo.Database = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}
	if val := os.Getenv("JWT_EXPIRE_HOURS"); val != "" {
		fmt.Sscanf(val, "%d", &c.JWT.ExpireHours)
	}

	// Payment
	if val := os.Getenv("RAZORPAY_KEY_ID"); val != "" {
		c.Payment.KeyID = val
	}
	if val := os.Getenv("RAZORPAY_KEY_SECRET"); val != "" {
		c.Payment.KeySecret = val
	}

	// Storage
	if val := os.Getenv("UPLOAD_DIR"); val != "" {
		c.Storage.UploadDir = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Seed
	if val := os.Getenv("SEED_DB"); val != "" {
		c.Seed.Enabled = val == "true" || val == "1"
	}
	if val := os.Getenv("SEED_ADMIN_EMAIL"); val != "" {
		c.Seed.AdminEmail = val
	}
	if val := os.Getenv("SEED_ADMIN_PASSWORD"); val != "" {
		c.Seed.AdminPassword = val
	}
}

// Validate checks that required configuration values are present
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server port must be positive")
	}
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo database is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if c.JWT.ExpireHours <= 0 {
		return fmt.Errorf("jwt expiry must be positive")
	}
	if c.Seed.Enabled && c.Seed.AdminPassword == "" {
		return fmt.Errorf("seed admin password is required when seeding is enabled")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
