// Package config handles configuration for the server component:
// defaults, JSON overlay, environment (.env + process env) and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"
)

// SupportedAlgorithms lists the JWT signing algorithms the server accepts.
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

// Config holds runtime settings for the contactkeeper server. It is built
// once at startup and treated as read-only afterwards.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the HTTP API.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty means in-memory storage.
//   - SecretKey / SigningAlgorithm: HMAC secret and algorithm for JWTs. Never logged.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - Password*: argon2id cost parameters.
//   - Redis*: optional Redis used for login throttling; empty address disables it.
//   - MaxLoginAttempts / LoginAttemptWindow: failed-login budget per username.
type Config struct {
	EndpointAddrHTTP             string `env:"HTTP_ADDR"`
	DatabaseDSN                  string `env:"DATABASE_DSN"`
	SecretKey                    string `env:"JWT_SECRET"`
	SigningAlgorithm             string `env:"JWT_ALGORITHM"`
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	PasswordMemoryKB             uint32 `env:"PASSWORD_MEMORY_KB"`
	PasswordTime                 uint32 `env:"PASSWORD_TIME"`
	PasswordParallelism          uint8  `env:"PASSWORD_PARALLELISM"`
	RedisAddr                    string `env:"REDIS_ADDR"`
	RedisPassword                string `env:"REDIS_PASSWORD"`
	RedisDB                      int    `env:"REDIS_DB"`
	MaxLoginAttempts             int    `env:"MAX_LOGIN_ATTEMPTS"`
	LoginAttemptWindow           time.Duration
	LogLevel                     string `env:"LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.DatabaseDSN = ""
	c.SecretKey = "my_secret_key"
	c.SigningAlgorithm = "HS256"
	c.AccessTokenValidityDuration = 1 * time.Hour
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.PasswordMemoryKB = 64 * 1024
	c.PasswordTime = 1
	c.PasswordParallelism = 4
	c.RedisAddr = ""
	c.RedisPassword = ""
	c.RedisDB = 0
	c.MaxLoginAttempts = 5
	c.LoginAttemptWindow = 15 * time.Minute
	c.LogLevel = "info"
}

// Validate rejects configurations the auth subsystem cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key must not be empty"))
	}
	if !slices.Contains(SupportedAlgorithms, c.SigningAlgorithm) {
		errs = append(errs, fmt.Errorf("unsupported signing algorithm %q", c.SigningAlgorithm))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token validity must be positive"))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("refresh token validity must be positive"))
	}
	if c.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("max login attempts must be positive"))
	}
	return errors.Join(errs...)
}

// LogValue keeps secrets out of logs.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("http_addr", c.EndpointAddrHTTP),
		slog.Bool("database", c.DatabaseDSN != ""),
		slog.String("jwt_algorithm", c.SigningAlgorithm),
		slog.Duration("access_ttl", c.AccessTokenValidityDuration),
		slog.Duration("refresh_ttl", c.RefreshTokenValidityDuration),
		slog.Bool("redis", c.RedisAddr != ""),
		slog.String("log_level", c.LogLevel),
	)
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, args); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
