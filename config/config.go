package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment represents the application environment
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// environmentFromEnv reads APP_ENV, defaulting to development
func environmentFromEnv() Environment {
	env := os.Getenv("APP_ENV")
	if env == "" {
		return Development
	}
	return Environment(env)
}

// ValidationError names the setting that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Provider is a source of configuration values. Every getter fails when
// the key is not set; the typed getters also fail when it does not parse.
type Provider interface {
	GetString(ctx context.Context, key string) (string, error)
	GetInt(ctx context.Context, key string) (int, error)
	GetBool(ctx context.Context, key string) (bool, error)
	// GetSecret reads credentials, which some providers keep apart
	GetSecret(ctx context.Context, key string) (string, error)
	GetEnvironment() Environment
}

// EnvProvider reads KEY from the environment variable <prefix>KEY
type EnvProvider struct {
	prefix      string
	environment Environment
}

// NewEnvProvider creates an EnvProvider for the given variable prefix
func NewEnvProvider(prefix string) Provider {
	return &EnvProvider{
		prefix:      prefix,
		environment: environmentFromEnv(),
	}
}

// GetEnvironment returns the current environment
func (p *EnvProvider) GetEnvironment() Environment {
	return p.environment
}

// GetString treats an empty variable as unset
func (p *EnvProvider) GetString(ctx context.Context, key string) (string, error) {
	value := os.Getenv(p.prefix + key)
	if value == "" {
		return "", fmt.Errorf("%s%s is not set", p.prefix, key)
	}
	return value, nil
}

func (p *EnvProvider) GetInt(ctx context.Context, key string) (int, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

func (p *EnvProvider) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(value)
}

// GetSecret reads secrets like any other variable
func (p *EnvProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.GetString(ctx, key)
}

// NewProvider selects a provider from CONFIG_SOURCE: "env" (default),
// "file" (reads CONFIG_FILE) or "aws" (reads the secret named by
// AWS_SECRET_NAME).
func NewProvider(ctx context.Context) (Provider, error) {
	switch source := strings.ToLower(os.Getenv("CONFIG_SOURCE")); source {
	case "", "env":
		return NewEnvProvider(os.Getenv("CONFIG_PREFIX")), nil
	case "file":
		path := os.Getenv("CONFIG_FILE")
		if path == "" {
			return nil, fmt.Errorf("CONFIG_FILE environment variable not set")
		}
		return NewFileProvider(path)
	case "aws":
		return NewAWSConfigProvider(ctx)
	default:
		return nil, fmt.Errorf("unknown config source %q", source)
	}
}
