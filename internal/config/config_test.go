package config

import (
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	for _, k := range []string{"ENV", "PORT", "TOKEN_TTL", "SALT", "CORS_ORIGINS", "LOG_LEVEL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 240*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 0, cfg.BcryptCost)
	assert.Contains(t, cfg.CORSOrigins, "http://localhost:3000")
	assert.True(t, cfg.IsProduction())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("ENV", " Development ")
	t.Setenv("SALT", "10")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("CORS_ORIGINS", "https://a.example/ , ,https://b.example")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestParseRejectsMalformedCost(t *testing.T) {
	t.Setenv("SALT", "ten")
	_, err := Parse()
	assert.Error(t, err)
}

func TestWarnings(t *testing.T) {
	cfg := &Config{}
	assert.Len(t, cfg.Warnings(), 4)

	cfg = &Config{
		DatabaseURL:    "postgres://localhost/apod",
		JWTPrivateKey:  "secret",
		BcryptCost:     10,
		GoogleClientID: "client.apps.googleusercontent.com",
	}
	assert.Empty(t, cfg.Warnings())
}

func TestDatabaseDSN(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantSSLMode string
		wantHost    string
	}{
		{
			name:        "local url in development",
			cfg:         Config{Env: "development", DatabaseURL: "postgres://u:p@localhost:5432/apod"},
			wantSSLMode: "disable",
			wantHost:    "localhost:5432",
		},
		{
			name:        "supabase url forces tls",
			cfg:         Config{Env: "development", DatabaseURL: "postgres://u:p@db.abc.supabase.co:5432/postgres"},
			wantSSLMode: "require",
			wantHost:    "db.abc.supabase.co:5432",
		},
		{
			name:        "explicit sslmode kept",
			cfg:         Config{Env: "production", DatabaseURL: "postgres://u:p@db:5432/apod?sslmode=verify-full"},
			wantSSLMode: "verify-full",
			wantHost:    "db:5432",
		},
		{
			name:        "discrete variables in production",
			cfg:         Config{Env: "production", DBHost: "db", DBPort: "5433", DBUser: "u", DBPassword: "p@ss", DBName: "apod"},
			wantSSLMode: "require",
			wantHost:    "db:5433",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := tt.cfg.DatabaseDSN()
			require.NoError(t, err)

			u, err := url.Parse(dsn)
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, u.Host)
			assert.Equal(t, tt.wantSSLMode, u.Query().Get("sslmode"))
		})
	}
}

func TestDatabaseDSNNotConfigured(t *testing.T) {
	_, err := (&Config{}).DatabaseDSN()
	assert.ErrorIs(t, err, ErrDatabaseNotConfigured)
}
