// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/nba-fantasy-server/pkg/logging"
	"github.com/spf13/viper"
)

type Config struct {
	// Upstream
	Tank01APIKey  string `mapstructure:"TANK01_API_KEY"`
	Tank01APIHost string `mapstructure:"TANK01_API_HOST"`
	Tank01BaseURL string `mapstructure:"TANK01_BASE_URL"`

	// Server
	Port            string        `mapstructure:"PORT"`
	RequestDeadline time.Duration `mapstructure:"REQUEST_DEADLINE"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	// Logging
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	// Cache TTLs
	RosterCacheTTL     time.Duration `mapstructure:"ROSTER_CACHE_TTL"`
	ADPCacheTTL        time.Duration `mapstructure:"ADP_CACHE_TTL"`
	ProjectionCacheTTL time.Duration `mapstructure:"PROJECTION_CACHE_TTL"`

	// Upstream resilience
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	BreakerFailures int           `mapstructure:"BREAKER_FAILURES"`
	BreakerCooldown time.Duration `mapstructure:"BREAKER_COOLDOWN"`

	// CORS
	CorsOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Inbound rate limit: INBOUND_RATE_LIMIT requests per INBOUND_RATE_LIMIT_PER
	InboundRateLimit    int           `mapstructure:"INBOUND_RATE_LIMIT"`
	InboundRateLimitPer time.Duration `mapstructure:"INBOUND_RATE_LIMIT_PER"`
}

// Load reads configuration from defaults, a .env file in the working
// directory or its parent, and the environment, in increasing precedence.
// Extra search paths for the .env file can be passed in.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	if len(paths) == 0 {
		paths = []string{".", ".."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	// Read from environment
	v.AutomaticEnv()

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Parse CORS origins from comma-separated string
	cfg.CorsOrigins = splitList(v.GetString("CORS_ORIGINS"))

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("TANK01_API_KEY", "")
	v.SetDefault("TANK01_API_HOST", "tank01-fantasy-stats.p.rapidapi.com")
	v.SetDefault("TANK01_BASE_URL", "https://tank01-fantasy-stats.p.rapidapi.com")
	v.SetDefault("PORT", "5000")
	v.SetDefault("REQUEST_DEADLINE", "15s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", false)
	v.SetDefault("ROSTER_CACHE_TTL", "1h")
	v.SetDefault("ADP_CACHE_TTL", "24h")
	v.SetDefault("PROJECTION_CACHE_TTL", "15m")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("BREAKER_FAILURES", 5)
	v.SetDefault("BREAKER_COOLDOWN", "30s")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("INBOUND_RATE_LIMIT", 60)
	v.SetDefault("INBOUND_RATE_LIMIT_PER", "1m")
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Tank01APIKey) == "" {
		errs = append(errs, errors.New("TANK01_API_KEY is required"))
	}
	if strings.TrimSpace(c.Tank01APIHost) == "" {
		errs = append(errs, errors.New("TANK01_API_HOST is required"))
	}
	if strings.TrimSpace(c.Port) == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}

	positive := []struct {
		key string
		val time.Duration
	}{
		{"ROSTER_CACHE_TTL", c.RosterCacheTTL},
		{"ADP_CACHE_TTL", c.ADPCacheTTL},
		{"PROJECTION_CACHE_TTL", c.ProjectionCacheTTL},
		{"UPSTREAM_TIMEOUT", c.UpstreamTimeout},
		{"REQUEST_DEADLINE", c.RequestDeadline},
		{"BREAKER_COOLDOWN", c.BreakerCooldown},
		{"INBOUND_RATE_LIMIT_PER", c.InboundRateLimitPer},
		{"SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
	}
	for _, p := range positive {
		if p.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0 (got %s)", p.key, p.val))
		}
	}

	if c.BreakerFailures < 1 {
		errs = append(errs, fmt.Errorf("BREAKER_FAILURES must be >= 1 (got %d)", c.BreakerFailures))
	}
	if c.InboundRateLimit < 1 {
		errs = append(errs, fmt.Errorf("INBOUND_RATE_LIMIT must be >= 1 (got %d)", c.InboundRateLimit))
	}

	return errors.Join(errs...)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// AllowsAnyOrigin reports whether CORS is open to every origin.
func (c *Config) AllowsAnyOrigin() bool {
	for _, o := range c.CorsOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
