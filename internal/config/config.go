package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port            int
	Environment     string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	LogLevel        string

	// Database. An empty DatabaseURL selects the in-memory store.
	DatabaseURL         string
	DBMaxConnections    int
	DBConnectionTimeout time.Duration
	AutoMigrate         bool
	SeedDefaults        bool

	// Clerk Auth
	ClerkSecretKey string
	RequireAuth    bool

	// S3
	S3Bucket    string
	S3Region    string
	AWSEndpoint string // For LocalStack in development

	// Ledger
	MaxUploadBytes       int64
	PatternCacheTTL      time.Duration
	BalanceAuditInterval time.Duration // 0 disables the periodic audit
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Port:                 getEnvInt("PORT", 8080),
		Environment:          getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout:      getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		CORSOrigins:          getEnvList("CORS_ORIGINS", nil),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBMaxConnections:     getEnvInt("DB_MAX_CONNECTIONS", 25),
		DBConnectionTimeout:  getEnvDuration("DB_CONNECTION_TIMEOUT", 30*time.Second),
		AutoMigrate:          getEnvBool("AUTO_MIGRATE", true),
		SeedDefaults:         getEnvBool("SEED_DEFAULTS", true),
		ClerkSecretKey:       getEnv("CLERK_SECRET_KEY", ""),
		RequireAuth:          getEnvBool("REQUIRE_AUTH", false),
		S3Bucket:             getEnv("S3_BUCKET", ""),
		S3Region:             getEnv("S3_REGION", "ap-south-1"),
		AWSEndpoint:          getEnv("AWS_ENDPOINT", ""),
		MaxUploadBytes:       int64(getEnvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		PatternCacheTTL:      getEnvDuration("PATTERN_CACHE_TTL", 5*time.Minute),
		BalanceAuditInterval: getEnvDuration("BALANCE_AUDIT_INTERVAL", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.BalanceAuditInterval < 0 {
		return fmt.Errorf("BALANCE_AUDIT_INTERVAL must not be negative")
	}
	if c.RequireAuth && c.ClerkSecretKey == "" {
		return fmt.Errorf("CLERK_SECRET_KEY is required when REQUIRE_AUTH is set")
	}

	if c.IsProduction() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.ClerkSecretKey == "" {
			return fmt.Errorf("CLERK_SECRET_KEY is required in production")
		}
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required in production")
		}
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
