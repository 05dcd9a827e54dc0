package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var validEnvs = map[string]bool{
	"local": true,
	"alpha": true,
	"beta":  true,
	"prod":  true,
}

type Config struct {
	ServerPort  string
	AppEnv      string
	AuthDevMode bool
	LogLevel    string
	Timezone    string
	DB          DBConfig
	Cognito     CognitoConfig
	Crypto      CryptoConfig
	RateLimit   RateLimitConfig
}

func (c Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Location resolves the configured timezone. Day boundaries for routine
// materialization are computed in this location.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.ServerPort); err != nil {
		return fmt.Errorf("invalid SERVER_PORT %q: %w", c.ServerPort, err)
	}
	if !validEnvs[c.AppEnv] {
		return fmt.Errorf("invalid APP_ENV %q: must be one of local, alpha, beta, prod", c.AppEnv)
	}
	if c.AuthDevMode && c.AppEnv != "local" {
		return fmt.Errorf("AUTH_DEV_MODE must not be enabled in %s environment", c.AppEnv)
	}
	if !c.AuthDevMode {
		if c.Cognito.UserPoolID == "" {
			return fmt.Errorf("COGNITO_USER_POOL_ID is required when AUTH_DEV_MODE is disabled")
		}
		if c.Cognito.AppClientID == "" {
			return fmt.Errorf("COGNITO_APP_CLIENT_ID is required when AUTH_DEV_MODE is disabled")
		}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Crypto.AtRest && c.Crypto.Salt == "" {
		return fmt.Errorf("CRYPTO_SALT is required when CRYPTO_AT_REST is enabled")
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_RPS %g: must be positive", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst <= 0 {
		return fmt.Errorf("invalid RATE_LIMIT_BURST %d: must be positive", c.RateLimit.Burst)
	}
	return nil
}

type DBConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	Name          string
	SSLMode       string
	MigrationsURL string
}

func (d DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     d.Name,
		RawQuery: fmt.Sprintf("sslmode=%s", url.QueryEscape(d.SSLMode)),
	}
	return u.String()
}

type CognitoConfig struct {
	Region          string
	UserPoolID      string
	AppClientID     string
	AppClientSecret string
}

// CryptoConfig controls at-rest encryption of task and routine text.
type CryptoConfig struct {
	AtRest bool
	Salt   string
}

// RateLimitConfig bounds per-client request rates on the auth endpoints.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

func Load() Config {
	// Local development reads a .env file when present; missing is fine.
	_ = godotenv.Load()

	return Config{
		ServerPort:  envOrDefault("SERVER_PORT", "8080"),
		AppEnv:      envOrDefault("APP_ENV", "local"),
		AuthDevMode: strings.EqualFold(envOrDefault("AUTH_DEV_MODE", "false"), "true"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		Timezone:    envOrDefault("TIMEZONE", "UTC"),
		DB: DBConfig{
			Host:          envOrDefault("DB_HOST", "localhost"),
			Port:          envOrDefault("DB_PORT", "5432"),
			User:          envOrDefault("DB_USER", "routine"),
			Password:      envOrDefault("DB_PASSWORD", "routine"),
			Name:          envOrDefault("DB_NAME", "routine"),
			SSLMode:       envOrDefault("DB_SSLMODE", "disable"),
			MigrationsURL: envOrDefault("DB_MIGRATIONS_URL", "file://migrations"),
		},
		Cognito: CognitoConfig{
			Region:          envOrDefault("COGNITO_REGION", "ap-northeast-1"),
			UserPoolID:      os.Getenv("COGNITO_USER_POOL_ID"),
			AppClientID:     os.Getenv("COGNITO_APP_CLIENT_ID"),
			AppClientSecret: os.Getenv("COGNITO_APP_CLIENT_SECRET"),
		},
		Crypto: CryptoConfig{
			AtRest: strings.EqualFold(envOrDefault("CRYPTO_AT_REST", "false"), "true"),
			Salt:   os.Getenv("CRYPTO_SALT"),
		},
		RateLimit: RateLimitConfig{
			RPS:   envFloatOrDefault("RATE_LIMIT_RPS", 5),
			Burst: envIntOrDefault("RATE_LIMIT_BURST", 10),
		},
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func envFloatOrDefault(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
