// Package config loads agencyapi settings from AGENCYAPI_* environment
// variables, an optional config file and bound flags.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	// Database connection string (DSN). postgres:// URLs select PostgreSQL,
	// anything else is opened as SQLite.
	DatabaseURL string `mapstructure:"database_url"`

	// Server bind address (host:port)
	ServerAddr string `mapstructure:"server_addr"`

	Token TokenConfig `mapstructure:"token"`
	OIDC  OIDCConfig  `mapstructure:"oidc"`
	Redis RedisConfig `mapstructure:"redis"`
	Login LoginConfig `mapstructure:"login"`

	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// Enable debug logging
	Debug bool `mapstructure:"debug"`
}

// TokenConfig configures the session tokens issued by the login RPC.
type TokenConfig struct {
	// Secret signs HS256 session tokens. Password login is disabled when empty.
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

// OIDCConfig configures validation of bearer tokens from an external
// identity provider. Leave Issuer empty to accept only session tokens.
type OIDCConfig struct {
	Issuer   string `mapstructure:"issuer"`
	Audience string `mapstructure:"audience"`
}

// Enabled reports whether external tokens are accepted.
func (c OIDCConfig) Enabled() bool {
	return c.Issuer != ""
}

// RedisConfig points at the Redis used for login throttling.
type RedisConfig struct {
	// URL is a redis:// URL. Throttling is off when empty.
	URL string `mapstructure:"url"`
}

type LoginConfig struct {
	MaxPerMinute int `mapstructure:"max_per_minute"`
}

// TelemetryConfig configures OTLP export of traces and metrics.
type TelemetryConfig struct {
	// OTLPEndpoint is host:port of an OTLP/HTTP collector. Export is off when empty.
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	Insecure     bool   `mapstructure:"insecure"`
	ServiceName  string `mapstructure:"service_name"`
	Environment  string `mapstructure:"environment"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database_url", "file:agencydesk.db?cache=shared")
	v.SetDefault("server_addr", "localhost:8080")
	v.SetDefault("token.secret", "")
	v.SetDefault("token.ttl", 12*time.Hour)
	v.SetDefault("oidc.issuer", "")
	v.SetDefault("oidc.audience", "agencyapi")
	v.SetDefault("redis.url", "")
	v.SetDefault("login.max_per_minute", 5)
	v.SetDefault("telemetry.otlp_endpoint", "")
	v.SetDefault("telemetry.insecure", false)
	v.SetDefault("telemetry.service_name", "agencyapi")
	v.SetDefault("telemetry.environment", "development")
	v.SetDefault("debug", false)
}

// Load reads cfgFile when set, then applies AGENCYAPI_* environment variables
// and any flags bound to v.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("AGENCYAPI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if c.ServerAddr == "" {
		return errors.New("server_addr is required")
	}
	if c.Token.Secret == "" && !c.OIDC.Enabled() {
		return errors.New("at least one of token.secret or oidc.issuer must be set")
	}
	if c.Token.Secret != "" && len(c.Token.Secret) < 32 {
		return errors.New("token.secret must be at least 32 bytes")
	}
	if c.Token.TTL <= 0 {
		return fmt.Errorf("token.ttl must be positive, got %s", c.Token.TTL)
	}
	if c.OIDC.Enabled() && c.OIDC.Audience == "" {
		return errors.New("oidc.audience is required when oidc.issuer is set")
	}
	if c.Login.MaxPerMinute < 0 {
		return fmt.Errorf("login.max_per_minute must not be negative, got %d", c.Login.MaxPerMinute)
	}
	return nil
}

type configContextKey struct{}

// NewContext returns a copy of ctx carrying cfg.
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey{}, cfg)
}

// FromContext returns the configuration stored by NewContext.
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(configContextKey{}).(*Config)
	return cfg, ok && cfg != nil
}
