package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Bounds for DIRECTORY_TIMEOUT. Cold starts of the script gateway take
// tens of seconds.
const (
	MinDirectoryTimeout = 20 * time.Second
	MaxDirectoryTimeout = 35 * time.Second
)

type Config struct {
	Port         string   `env:"PORT,          default=8080"`
	Env          string   `env:"ENV,           default=development"`
	LogLevel     string   `env:"LOG_LEVEL,     default=info"`
	CookieSecure bool     `env:"COOKIE_SECURE, default=true"`
	CORSOrigins  []string `env:"CORS_ORIGINS"`

	Directory DirectoryConfig
	Pause     PauseConfig
	Identity  IdentityConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type DirectoryConfig struct {
	URL     string        `env:"DIRECTORY_URL"`
	Timeout time.Duration `env:"DIRECTORY_TIMEOUT, default=30s"`
}

type PauseConfig struct {
	URL string `env:"PAUSE_URL"`
}

type IdentityConfig struct {
	BaseURL     string        `env:"IDENTITY_BASE_URL,     default=https://identitytoolkit.googleapis.com/v1"`
	APIKey      string        `env:"IDENTITY_API_KEY"`
	EmailDomain string        `env:"IDENTITY_EMAIL_DOMAIN, default=crossfitlagos.app"`
	Timeout     time.Duration `env:"IDENTITY_TIMEOUT,      default=20s"`
}

// Enabled reports whether the primary identity provider is configured.
func (c IdentityConfig) Enabled() bool { return c.APIKey != "" }

type SessionConfig struct {
	TTL time.Duration `env:"SESSION_TTL, default=720h"`
	// Store selects the device key-value backend: redis or memory.
	Store string `env:"SESSION_STORE, default=redis"`
}

type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,   default=1"`
	Burst int     `env:"RATE_LIMIT_BURST, default=5"`
	// AccountPerMinute is the sustained login/reset rate per phone number.
	AccountPerMinute float64 `env:"RATE_LIMIT_ACCOUNT_PER_MINUTE, default=5"`
}

type AuditConfig struct {
	Key     string `env:"AUDIT_KEY"`
	Workers int    `env:"AUDIT_WORKERS, default=4"`
	// Enabled turns off the Mongo audit trail when false.
	Enabled bool `env:"AUDIT_ENABLED, default=true"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=member_portal"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads an optional .env file, then the environment, and validates the
// result.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether ENV is production.
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Validate checks the settings Load cannot express as defaults.
func (c *Config) Validate() error {
	var errs []error

	if err := absoluteURL("DIRECTORY_URL", c.Directory.URL); err != nil {
		errs = append(errs, err)
	}
	if c.Directory.Timeout < MinDirectoryTimeout || c.Directory.Timeout > MaxDirectoryTimeout {
		errs = append(errs, fmt.Errorf("DIRECTORY_TIMEOUT must be between %s and %s, got %s",
			MinDirectoryTimeout, MaxDirectoryTimeout, c.Directory.Timeout))
	}
	if c.Pause.URL != "" {
		if err := absoluteURL("PAUSE_URL", c.Pause.URL); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Identity.Enabled() {
		if err := absoluteURL("IDENTITY_BASE_URL", c.Identity.BaseURL); err != nil {
			errs = append(errs, err)
		}
		if c.Identity.EmailDomain == "" {
			errs = append(errs, errors.New("IDENTITY_EMAIL_DOMAIN is required when IDENTITY_API_KEY is set"))
		}
		if c.Identity.Timeout <= 0 {
			errs = append(errs, errors.New("IDENTITY_TIMEOUT must be positive"))
		}
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Session.Store != "redis" && c.Session.Store != "memory" {
		errs = append(errs, fmt.Errorf("SESSION_STORE must be redis or memory, got %q", c.Session.Store))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be positive and RATE_LIMIT_BURST at least 1"))
	}
	if c.RateLimit.AccountPerMinute <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_ACCOUNT_PER_MINUTE must be positive"))
	}
	if c.Audit.Enabled && c.Audit.Workers < 1 {
		errs = append(errs, errors.New("AUDIT_WORKERS must be at least 1"))
	}

	return errors.Join(errs...)
}

func absoluteURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", name)
	}
	return nil
}
