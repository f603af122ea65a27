package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Cache providers
const (
	CacheMemory   = "memory"
	CacheRedis    = "redis"
	CacheDynamoDB = "dynamodb"
	CacheNone     = "none"
)

// ServiceConfig holds the settings of the department service process
type ServiceConfig struct {
	StoreDriver      string
	SQLitePath       string
	CacheProvider    string
	CacheTTL         time.Duration
	RedisAddr        string
	DynamoDBTable    string
	VerifyInvariants bool
	HTTPAddr         string
	LogLevel         string
	Environment      Environment
}

// DefaultServiceConfig returns the settings used for keys that are not set
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		StoreDriver:   StoreMemory,
		CacheProvider: CacheMemory,
		CacheTTL:      5 * time.Minute,
		RedisAddr:     "localhost:6379",
		DynamoDBTable: "DepartmentCache",
		HTTPAddr:      ":8080",
		LogLevel:      "info",
		Environment:   Development,
	}
}

// Validate checks the enumerated settings
func (c *ServiceConfig) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StorePostgres, StoreSQLite:
	default:
		return &ValidationError{Field: "STORE_DRIVER", Message: fmt.Sprintf("unknown store driver %q", c.StoreDriver)}
	}

	switch c.CacheProvider {
	case CacheMemory, CacheRedis, CacheDynamoDB, CacheNone:
	default:
		return &ValidationError{Field: "CACHE_PROVIDER", Message: fmt.Sprintf("unknown cache provider %q", c.CacheProvider)}
	}

	if c.CacheTTL <= 0 {
		return &ValidationError{Field: "CACHE_TTL_SECONDS", Message: "cache TTL must be positive"}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "LOG_LEVEL", Message: fmt.Sprintf("unknown log level %q", c.LogLevel)}
	}

	return nil
}

// GetServiceConfig reads the service settings from provider, falling back
// to DefaultServiceConfig for every key that is not set. A key that is set
// but cannot be parsed is an error.
func GetServiceConfig(ctx context.Context, provider Provider) (*ServiceConfig, error) {
	cfg := DefaultServiceConfig()
	cfg.Environment = provider.GetEnvironment()

	fields := []struct {
		key  string
		dest *string
	}{
		{"STORE_DRIVER", &cfg.StoreDriver},
		{"SQLITE_PATH", &cfg.SQLitePath},
		{"CACHE_PROVIDER", &cfg.CacheProvider},
		{"REDIS_ADDR", &cfg.RedisAddr},
		{"DYNAMODB_TABLE", &cfg.DynamoDBTable},
		{"HTTP_ADDR", &cfg.HTTPAddr},
		{"LOG_LEVEL", &cfg.LogLevel},
	}
	for _, f := range fields {
		if value, err := provider.GetString(ctx, f.key); err == nil {
			*f.dest = value
		}
	}
	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	cfg.CacheProvider = strings.ToLower(cfg.CacheProvider)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if isSet(ctx, provider, "CACHE_TTL_SECONDS") {
		seconds, err := provider.GetInt(ctx, "CACHE_TTL_SECONDS")
		if err != nil {
			return nil, fmt.Errorf("failed to get CACHE_TTL_SECONDS: %w", err)
		}
		cfg.CacheTTL = time.Duration(seconds) * time.Second
	}

	if isSet(ctx, provider, "VERIFY_INVARIANTS") {
		verify, err := provider.GetBool(ctx, "VERIFY_INVARIANTS")
		if err != nil {
			return nil, fmt.Errorf("failed to get VERIFY_INVARIANTS: %w", err)
		}
		cfg.VerifyInvariants = verify
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service configuration: %w", err)
	}
	return &cfg, nil
}

func isSet(ctx context.Context, provider Provider, key string) bool {
	_, err := provider.GetString(ctx, key)
	return err == nil
}
