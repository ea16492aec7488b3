// Package config centralizes environment-driven configuration for the
// service. A .env file is honored when present; every value has a working
// default so a bare `go run ./cmd/server` starts a development instance.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Env == "development"
}

// RedisConfig carries the durable-store connection parameters. An empty Addr
// means no durable backend: the in-process limiter is used instead.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (r RedisConfig) Configured() bool {
	return r.Addr != ""
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// SecurityConfig holds the admission-layer feature flags and IP lists. Flags
// default to enabled; setting the variable to "false" disables the feature.
type SecurityConfig struct {
	Enabled          bool
	RateLimitEnabled bool
	PatternEnabled   bool
	UserAgentEnabled bool
	SkipLocalhost    bool
	WhitelistedIPs   []string
	BlacklistedIPs   []string
}

// Load reads configuration from the environment, honoring a local .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	ttlHours, err := strconv.Atoi(getEnv("JWT_EXPIRES_HOURS", "168"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid JWT_EXPIRES_HOURS: %w", err)
	}

	return Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       db,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "change-this-secret-in-production"),
			TokenTTL:  time.Duration(ttlHours) * time.Hour,
		},
		Security: SecurityConfig{
			Enabled:          getBool("SECURITY_ENABLED", true),
			RateLimitEnabled: getBool("RATE_LIMIT_ENABLED", true),
			PatternEnabled:   getBool("PATTERN_DETECTION_ENABLED", true),
			UserAgentEnabled: getBool("USER_AGENT_BLOCK_ENABLED", true),
			SkipLocalhost:    getBool("SKIP_LOCALHOST_SECURITY", true),
			WhitelistedIPs:   splitList(os.Getenv("WHITELISTED_IPS")),
			BlacklistedIPs:   splitList(os.Getenv("BLACKLISTED_IPS")),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

// getBool treats only an explicit "false" as disabling; anything else keeps
// the default-on semantics of the security flags.
func getBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value != "false"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
