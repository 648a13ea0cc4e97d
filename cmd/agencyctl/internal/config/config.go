// Package config loads agencyctl settings with viper and carries them through
// the cobra command context.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caffeinepub/agencydesk/cmd/agencyctl/internal/client"
	"github.com/caffeinepub/agencydesk/pkg/sdk"
	"github.com/spf13/viper"
)

// Config is the resolved CLI configuration.
type Config struct {
	Server         string        `mapstructure:"server"`
	Auth           AuthConfig    `mapstructure:"auth"`
	Log            LogConfig     `mapstructure:"log"`
	Timeout        time.Duration `mapstructure:"timeout"`
	NonInteractive bool          `mapstructure:"non_interactive"`
}

// AuthConfig selects the identity provider. Exactly one mode is active.
type AuthConfig struct {
	Mode     string `mapstructure:"mode"`
	Issuer   string `mapstructure:"issuer"`
	ClientID string `mapstructure:"client_id"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server", "http://localhost:8080")
	v.SetDefault("auth.mode", string(sdk.AuthModeOIDC))
	v.SetDefault("auth.issuer", "")
	v.SetDefault("auth.client_id", "agencyctl")
	v.SetDefault("log.level", "warn")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("non_interactive", false)
}

// Load reads cfgFile, or ~/.config/agencyctl/config.yaml when empty, then
// applies AGENCYCTL_* environment overrides and any flags bound to v.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.config/agencyctl")
	}

	v.SetEnvPrefix("AGENCYCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server must be an absolute URL, got %q", c.Server)
	}
	switch sdk.AuthMode(c.Auth.Mode) {
	case sdk.AuthModeOIDC:
		if c.Auth.Issuer == "" {
			return errors.New("auth.issuer is required when auth.mode is oidc")
		}
	case sdk.AuthModePassword:
	default:
		return fmt.Errorf("auth.mode must be %q or %q, got %q", sdk.AuthModeOIDC, sdk.AuthModePassword, c.Auth.Mode)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a log.level value onto a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", s, err)
	}
	return level, nil
}

type contextKey string

const configKey contextKey = "agencyctl-config"

// GlobalConfig holds shared state for all agencyctl commands. The root
// command injects it in PersistentPreRunE.
type GlobalConfig struct {
	Config         *Config
	Logger         *slog.Logger
	ClientProvider *client.Provider
}

// InjectConfig adds cfg to the command context.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the command context.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics. Only use it in
// RunE functions that run after the root command's pre-run hook.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("agencyctl: config not found in context - this is a bug in agencyctl")
	}
	return cfg
}
