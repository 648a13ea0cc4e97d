package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoad_FromFile(t *testing.T) {
	path := writeConfig(t, `
server: https://agency.example.com
auth:
  mode: password
log:
  level: debug
timeout: 5s
non_interactive: true
`)
	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "https://agency.example.com", cfg.Server)
	assert.Equal(t, "password", cfg.Auth.Mode)
	assert.Equal(t, "agencyctl", cfg.Auth.ClientID)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.NonInteractive)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "auth:\n  mode: oidc\n  issuer: https://idp.example.com\n")
	t.Setenv("AGENCYCTL_SERVER", "http://127.0.0.1:9999")
	t.Setenv("AGENCYCTL_AUTH_MODE", "password")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.Server)
	assert.Equal(t, "password", cfg.Auth.Mode)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:  "http://localhost:8080",
			Auth:    AuthConfig{Mode: "oidc", Issuer: "https://idp.example.com"},
			Log:     LogConfig{Level: "info"},
			Timeout: time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "password needs no issuer", mutate: func(c *Config) { c.Auth = AuthConfig{Mode: "password"} }},
		{name: "relative server", mutate: func(c *Config) { c.Server = "localhost" }, wantErr: "absolute URL"},
		{name: "oidc without issuer", mutate: func(c *Config) { c.Auth.Issuer = "" }, wantErr: "auth.issuer"},
		{name: "unknown mode", mutate: func(c *Config) { c.Auth.Mode = "both" }, wantErr: "auth.mode"},
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, wantErr: "timeout"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestContextInjection(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Panics(t, func() { MustFromContext(context.Background()) })

	gc := &GlobalConfig{Config: &Config{Server: "http://x"}}
	ctx := InjectConfig(context.Background(), gc)
	assert.Same(t, gc, MustFromContext(ctx))
}
