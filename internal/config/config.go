// Package config provides configuration management for the faucet analytics
// service. It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/faucet-analytics/internal/chains"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Backend  BackendConfig
	Refresh  RefreshConfig
	Logging  LoggingConfig
	Chains   ChainsConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	RequestsPerSec  int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration. An empty host disables the snapshot
// hot cache entirely.
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
	SnapshotTTL    time.Duration
}

// Enabled reports whether a Redis endpoint is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// BackendConfig holds the external metadata/deleted-faucet service settings
type BackendConfig struct {
	BaseURL         string
	DeletedTimeout  time.Duration
	MetadataTimeout time.Duration
}

// RefreshConfig holds pipeline scheduling configuration
type RefreshConfig struct {
	Interval   time.Duration
	RPCTimeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// ChainsConfig carries per-chain RPC URL overrides keyed by chain id. When a
// chain has no override the static registry URLs are used.
type ChainsConfig struct {
	RPCOverrides map[int64][]string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8001"),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Minute),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			RequestsPerSec:  getEnvAsInt("RATE_LIMIT_RPS", 20),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "faucet_analytics"),
				User:           getEnv("POSTGRES_USER", "analytics"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", ""),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
				SnapshotTTL:    getEnvAsDuration("REDIS_SNAPSHOT_TTL", 5*time.Minute),
			},
		},
		Backend: BackendConfig{
			BaseURL:         getEnv("BACKEND_BASE_URL", "https://faucetdrop-backend.onrender.com"),
			DeletedTimeout:  getEnvAsDuration("BACKEND_DELETED_TIMEOUT", 5*time.Second),
			MetadataTimeout: getEnvAsDuration("BACKEND_METADATA_TIMEOUT", 4*time.Second),
		},
		Refresh: RefreshConfig{
			Interval:   getEnvAsDuration("REFRESH_INTERVAL", 3*time.Hour),
			RPCTimeout: getEnvAsDuration("RPC_TIMEOUT", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	config.Chains = loadChainOverrides()

	return config, nil
}

// loadChainOverrides reads <NAME>_RPC_URLS overrides (comma-separated) for
// every network in the static registry, e.g. CELO_RPC_URLS or BASE_RPC_URLS.
func loadChainOverrides() ChainsConfig {
	overrides := make(map[int64][]string)
	for _, network := range chains.All() {
		key := strings.ToUpper(network.Name) + "_RPC_URLS"
		raw := getEnv(key, "")
		if raw == "" {
			continue
		}
		var urls []string
		for _, u := range strings.Split(raw, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				urls = append(urls, u)
			}
		}
		if len(urls) > 0 {
			overrides[network.ChainID] = urls
		}
	}
	return ChainsConfig{RPCOverrides: overrides}
}

// RPCURLs returns the candidate endpoint list for a network, preferring the
// environment override over the static registry.
func (c *Config) RPCURLs(network chains.Network) []string {
	if urls, ok := c.Chains.RPCOverrides[network.ChainID]; ok {
		return urls
	}
	return network.RPCURLs
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
