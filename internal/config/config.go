// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	minSecretLen = 32
	maxLatency   = 2 * time.Second
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"fixmycity.db"`
	JWTSecret    string `env:"FIXMYCITY_JWT_SECRET,required"`
	// Secure cookies are the default; disable only for local development over plain HTTP.
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"true"`
	BcryptCost   int  `env:"BCRYPT_COST" envDefault:"12"`

	// DemoMode accepts the fixed bypass code in place of any OTP.
	DemoMode         bool          `env:"FIXMYCITY_DEMO_MODE" envDefault:"true"`
	SimulatedLatency time.Duration `env:"FIXMYCITY_SIMULATED_LATENCY" envDefault:"0s"`
	SeedIssues       bool          `env:"FIXMYCITY_SEED_ISSUES" envDefault:"true"`
	SessionIdleTTL   time.Duration `env:"FIXMYCITY_SESSION_IDLE_TTL" envDefault:"30m"`

	AuthRatePerMin int `env:"FIXMYCITY_AUTH_RATE_PER_MIN" envDefault:"10"`
	AuthRateBurst  int `env:"FIXMYCITY_AUTH_RATE_BURST" envDefault:"5"`
}

// Load parses the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges the env tags cannot express.
func (c Config) Validate() error {
	var errs []error
	if len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("FIXMYCITY_JWT_SECRET must be at least %d characters for HMAC-SHA256 security", minSecretLen))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 14 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 14, got %d", c.BcryptCost))
	}
	if c.SimulatedLatency < 0 || c.SimulatedLatency > maxLatency {
		errs = append(errs, fmt.Errorf("FIXMYCITY_SIMULATED_LATENCY must be between 0 and %s", maxLatency))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, errors.New("FIXMYCITY_SESSION_IDLE_TTL must be positive"))
	}
	if c.AuthRatePerMin <= 0 || c.AuthRateBurst <= 0 {
		errs = append(errs, errors.New("auth rate limits must be positive"))
	}
	return errors.Join(errs...)
}
