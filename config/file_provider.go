package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FileProvider implements Provider over a flat YAML document of
// KEY: value pairs, using the same keys as the environment provider
type FileProvider struct {
	values      map[string]string
	environment Environment
}

// NewFileProvider reads and parses the YAML file at path
func NewFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read the config file: %w", err)
	}
	return ParseFileProvider(data)
}

// ParseFileProvider builds a FileProvider from YAML bytes
func ParseFileProvider(data []byte) (*FileProvider, error) {
	raw := make(map[string]any)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse the config file: %w", err)
	}

	values := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case map[string]any, []any:
			return nil, &ValidationError{Field: key, Message: "nested values are not supported"}
		default:
			values[key] = fmt.Sprint(v)
		}
	}

	env := environmentFromEnv()
	if fromFile, ok := values["APP_ENV"]; ok {
		env = Environment(fromFile)
	}
	return &FileProvider{values: values, environment: env}, nil
}

// GetEnvironment returns the current environment
func (p *FileProvider) GetEnvironment() Environment {
	return p.environment
}

// GetString retrieves a string configuration value from the file
func (p *FileProvider) GetString(ctx context.Context, key string) (string, error) {
	value, ok := p.values[key]
	if !ok || value == "" {
		return "", fmt.Errorf("config key %s not set", key)
	}
	return value, nil
}

// GetInt retrieves an integer configuration value from the file
func (p *FileProvider) GetInt(ctx context.Context, key string) (int, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// GetBool retrieves a boolean configuration value from the file
func (p *FileProvider) GetBool(ctx context.Context, key string) (bool, error) {
	value, err := p.GetString(ctx, key)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(value)
}

// GetSecret retrieves a secret value from the file
func (p *FileProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.GetString(ctx, key)
}
