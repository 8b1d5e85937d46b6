package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	Secrets    SecretsConfig
	Commission CommissionConfig
	Logger     LoggerConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Host        string
	MetricsPort int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// CacheConfig selects and tunes the aggregate cache backend
type CacheConfig struct {
	// Backend is "memory" or "redis"
	Backend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces keys on a shared redis instance
	KeyPrefix string

	// MaxEntries bounds the in-process cache; 0 means unbounded
	MaxEntries int
}

// SecretsConfig selects where the database password is resolved from
type SecretsConfig struct {
	// Source is "env", "aws" or "vault"
	Source string

	// DBPasswordPath is the secret path holding the database password.
	// Empty means the password comes from DB_PASSWORD directly.
	DBPasswordPath string

	AWSRegion   string
	AWSProfile  string
	AWSEndpoint string

	VaultAddress string
	VaultToken   string
}

// CommissionConfig overrides the default commission rates
type CommissionConfig struct {
	SellerRate  float64
	PartnerRate float64
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level       string // debug, info, warn, error
	Development bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnvAsInt("SERVER_PORT", 8080),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "settlement_service"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		},
		Cache: CacheConfig{
			Backend:       getEnv("CACHE_BACKEND", "memory"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			KeyPrefix:     getEnv("CACHE_KEY_PREFIX", "settlement"),
			MaxEntries:    getEnvAsInt("CACHE_MAX_ENTRIES", 10000),
		},
		Secrets: SecretsConfig{
			Source:         getEnv("SECRETS_SOURCE", "env"),
			DBPasswordPath: getEnv("SECRETS_DB_PASSWORD_PATH", ""),
			AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
			AWSProfile:     getEnv("AWS_PROFILE", ""),
			AWSEndpoint:    getEnv("AWS_SECRETS_ENDPOINT", ""),
			VaultAddress:   getEnv("VAULT_ADDR", ""),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
		},
		Commission: CommissionConfig{
			SellerRate:  getEnvAsFloat("COMMISSION_SELLER_RATE", 0.20),
			PartnerRate: getEnvAsFloat("COMMISSION_PARTNER_RATE", 0.05),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	// Validate required fields
	if cfg.Database.Password == "" && cfg.Secrets.DBPasswordPath == "" {
		return nil, fmt.Errorf("DB_PASSWORD or SECRETS_DB_PASSWORD_PATH is required")
	}
	if cfg.Cache.Backend != "memory" && cfg.Cache.Backend != "redis" {
		return nil, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", cfg.Cache.Backend)
	}
	if cfg.Commission.SellerRate < 0 || cfg.Commission.SellerRate >= 1 {
		return nil, fmt.Errorf("COMMISSION_SELLER_RATE must be in [0, 1)")
	}
	if cfg.Commission.PartnerRate < 0 || cfg.Commission.PartnerRate >= 1 {
		return nil, fmt.Errorf("COMMISSION_PARTNER_RATE must be in [0, 1)")
	}

	return cfg, nil
}

// ConnectionString returns PostgreSQL connection string
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
