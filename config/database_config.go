package config

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"slices"
)

var (
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	specialPattern = regexp.MustCompile(`[^A-Za-z0-9]`)
	dbNamePattern  = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

	sslModes = []string{"disable", "require", "verify-ca", "verify-full"}
)

const defaultSSLMode = "disable"

// DatabaseConfig locates the PostgreSQL store
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the configuration as a lib/pq connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// Validate reports the first setting that is unusable in env. Production
// additionally requires a strong password and TLS.
func (c *DatabaseConfig) Validate(env Environment) error {
	production := env == Production

	rules := []struct {
		field  string
		failed bool
		msg    string
	}{
		{"Host", c.Host == "", "host is required"},
		{"Host", c.Host != "" && !resolvable(c.Host), "host is neither an IP address nor a resolvable name"},
		{"Port", c.Port < 1 || c.Port > 65535, "port must be in 1..65535"},
		{"User", c.User == "", "user is required"},
		{"Password", c.Password == "", "password is required"},
		{"DBName", c.DBName == "", "database name is required"},
		{"DBName", c.DBName != "" && !dbNamePattern.MatchString(c.DBName), "database name must be a letter followed by letters, digits or underscores"},
		{"SSLMode", !slices.Contains(sslModes, c.SSLMode), fmt.Sprintf("unknown SSL mode %q", c.SSLMode)},
		{"SSLMode", production && c.SSLMode == "disable", "TLS is required in production"},
	}
	for _, r := range rules {
		if r.failed {
			return &ValidationError{Field: r.field, Message: r.msg}
		}
	}

	if production {
		return checkPasswordStrength("Password", c.Password)
	}
	return nil
}

func resolvable(host string) bool {
	if net.ParseIP(host) != nil {
		return true
	}
	_, err := net.LookupHost(host)
	return err == nil
}

// checkPasswordStrength applies the production password rules
func checkPasswordStrength(field, password string) error {
	var missing string
	switch {
	case len(password) < 12:
		return &ValidationError{Field: field, Message: "password needs at least 12 characters in production"}
	case !upperPattern.MatchString(password):
		missing = "an uppercase letter"
	case !lowerPattern.MatchString(password):
		missing = "a lowercase letter"
	case !digitPattern.MatchString(password):
		missing = "a digit"
	case !specialPattern.MatchString(password):
		missing = "a special character"
	default:
		return nil
	}
	return &ValidationError{Field: field, Message: "password needs " + missing + " in production"}
}

// GetDatabaseConfig reads DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME
// and the optional DB_SSLMODE from provider
func GetDatabaseConfig(ctx context.Context, provider Provider) (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{SSLMode: defaultSSLMode}

	var err error
	if cfg.Port, err = provider.GetInt(ctx, "DB_PORT"); err != nil {
		return nil, fmt.Errorf("reading DB_PORT: %w", err)
	}
	if cfg.Password, err = provider.GetSecret(ctx, "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("reading DB_PASSWORD: %w", err)
	}

	required := []struct {
		key  string
		dest *string
	}{
		{"DB_HOST", &cfg.Host},
		{"DB_USER", &cfg.User},
		{"DB_NAME", &cfg.DBName},
	}
	for _, f := range required {
		if *f.dest, err = provider.GetString(ctx, f.key); err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.key, err)
		}
	}
	if mode, err := provider.GetString(ctx, "DB_SSLMODE"); err == nil {
		cfg.SSLMode = mode
	}

	if err := cfg.Validate(provider.GetEnvironment()); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}
	return cfg, nil
}
