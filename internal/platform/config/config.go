// Package config loads process configuration from the environment (and an
// optional .env file) using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"

	pkgstrings "catalog/pkg/platform/strings"
)

// DevJWTSecret is only accepted when APP_ENV=development is set explicitly.
const DevJWTSecret = "dev-secret-key-change-in-production"

// Config holds application configuration loaded once at startup and passed
// explicitly to constructors.
type Config struct {
	// HTTPAddr is the listen address (e.g. :8080). PORT, when set, replaces its port.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	Port     string `mapstructure:"PORT"`
	// Env is the application environment. It defaults to "production"; only
	// "development" relaxes the JWT_SECRET requirement.
	Env string `mapstructure:"APP_ENV"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	JWTIssuer string        `mapstructure:"JWT_ISSUER"`
	JWTTTL    time.Duration `mapstructure:"JWT_TTL"`

	// DatabaseURL is the Postgres DSN; empty selects in-memory stores.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	BcryptCost  int    `mapstructure:"BCRYPT_COST"`

	// RedisURL enables the product read cache when set.
	RedisURL        string        `mapstructure:"REDIS_URL"`
	ProductCacheTTL time.Duration `mapstructure:"PRODUCT_CACHE_TTL"`

	// KafkaBrokers is a comma-separated broker list; when set, audit records are
	// also published to AuditKafkaTopic.
	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	AuditKafkaTopic string `mapstructure:"AUDIT_KAFKA_TOPIC"`

	LogLevel string `mapstructure:"LOG_LEVEL"`

	// CORSAllowedOrigins is a comma-separated origin allow-list; "*" allows any origin.
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("PORT", "")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "catalog")
	v.SetDefault("JWT_TTL", "1h")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("PRODUCT_CACHE_TTL", "5m")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("AUDIT_KAFKA_TOPIC", "catalog.audit")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.Port != "" {
		host, _, err := net.SplitHostPort(cfg.HTTPAddr)
		if err != nil {
			host = ""
		}
		cfg.HTTPAddr = net.JoinHostPort(host, cfg.Port)
	}
	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("config: JWT_SECRET must be set when APP_ENV is not development")
		}
		cfg.JWTSecret = DevJWTSecret
	}
	if cfg.JWTTTL <= 0 {
		return nil, errors.New("config: JWT_TTL must be positive")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.ProductCacheTTL <= 0 {
		return nil, errors.New("config: PRODUCT_CACHE_TTL must be positive")
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsDevelopment reports whether the process runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsesDevSecret reports whether tokens are signed with the public DevJWTSecret.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == DevJWTSecret
}

// CORSOrigins returns the allowed origins from the comma-separated config.
func (c *Config) CORSOrigins() []string {
	if c == nil {
		return nil
	}
	return pkgstrings.SplitList(c.CORSAllowedOrigins)
}

// KafkaBrokersList returns broker addresses from the comma-separated config.
func (c *Config) KafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return pkgstrings.SplitList(c.KafkaBrokers)
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q", s)
	}
	return level, nil
}
