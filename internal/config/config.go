package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrDatabaseNotConfigured is returned by DatabaseDSN when neither DATABASE_URL
// nor DB_HOST is set.
var ErrDatabaseNotConfigured = errors.New("database connection string is not set: set DATABASE_URL or DB_HOST, DB_USER, DB_PASSWORD, DB_NAME")

// Config holds application configuration loaded from environment variables
type Config struct {
	Env  string `env:"ENV" envDefault:"production"`
	Port string `env:"PORT" envDefault:"8080"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`

	// Signing secret for issued tokens. The variable name is shared with the
	// deployment that predates this service.
	JWTPrivateKey string        `env:"JWTokenPrivateKey"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"240h"`

	// BcryptCost is the password hash cost factor.
	BcryptCost         int    `env:"SALT"`
	PasswordPolicyFile string `env:"PASSWORD_POLICY_FILE"`

	GoogleClientID string `env:"GOOGLE_CLIENT_ID"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000,https://nasa-apodapi-webapplication.app,https://nasa-apodapi-webapp.vercel.app"`

	RedisURL string `env:"REDIS_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	SeedDevData bool `env:"SEED_DEV_DATA"`
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.CORSOrigins = trimOrigins(cfg.CORSOrigins)

	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// IsDevelopment reports whether development diagnostics are enabled.
func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// Warnings lists configuration gaps that degrade individual flows. None of
// them stop the process.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.DatabaseURL == "" && c.DBHost == "" {
		warnings = append(warnings, "Database connection string is not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_PASSWORD, DB_NAME.")
	}
	if c.JWTPrivateKey == "" {
		warnings = append(warnings, "JWTokenPrivateKey not set. Login will report a configuration error until it is configured.")
	}
	if c.BcryptCost == 0 {
		warnings = append(warnings, "SALT not set. Signup will report a configuration error until a bcrypt cost is configured.")
	}
	if c.GoogleClientID == "" {
		warnings = append(warnings, "GOOGLE_CLIENT_ID not set. Google login will not work until credentials are configured.")
	}
	return warnings
}

// DatabaseDSN returns the Postgres connection string. DATABASE_URL wins over
// the discrete DB_* variables. Supabase hosts and production deployments get
// sslmode=require unless the URL already sets a mode.
func (c *Config) DatabaseDSN() (string, error) {
	if c.DatabaseURL != "" {
		u, err := url.Parse(c.DatabaseURL)
		if err != nil {
			return "", fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		q := u.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", c.sslMode(strings.Contains(u.Host, "supabase.co")))
			u.RawQuery = q.Encode()
		}
		return u.String(), nil
	}

	if c.DBHost == "" {
		return "", ErrDatabaseNotConfigured
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DBUser, c.DBPassword),
		Host:   net.JoinHostPort(c.DBHost, c.DBPort),
		Path:   "/" + c.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", c.sslMode(false))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Config) sslMode(forceTLS bool) string {
	if forceTLS || c.IsProduction() {
		// TLS without certificate verification
		return "require"
	}
	return "disable"
}

func trimOrigins(origins []string) []string {
	result := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			result = append(result, o)
		}
	}
	return result
}
