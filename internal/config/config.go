// Package config loads runtime settings with viper.
//
// Precedence, lowest first:
//
//	defaults (setDefaults) → config.yaml → PULSE_* environment variables
//
// Nested keys map to env vars by upper-casing and replacing "." with "_":
// ai.provider is PULSE_AI_PROVIDER.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "PULSE"

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	SecureCookies   bool          `mapstructure:"secure_cookies"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // "memory" or "sqlite"
	Path   string `mapstructure:"path"`   // sqlite file, ":memory:" allowed
}

type GitHubConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	CallbackURL  string `mapstructure:"callback_url"`
}

// Enabled reports whether the GitHub sign-in routes should be mounted.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	PasswordCost int           `mapstructure:"password_cost"`
	GitHub       GitHubConfig  `mapstructure:"github"`

	// ClientSocialLogin mounts POST /api/auth/social, which trusts a
	// provider identity asserted by the browser. Leave off in production.
	ClientSocialLogin bool `mapstructure:"client_social_login"`
}

type AIConfig struct {
	Provider    string        `mapstructure:"provider"` // openai | gemini | none
	OpenAIKey   string        `mapstructure:"openai_key"`
	OpenAIModel string        `mapstructure:"openai_model"`
	OpenAIURL   string        `mapstructure:"openai_url"`
	GeminiKey   string        `mapstructure:"gemini_key"`
	GeminiModel string        `mapstructure:"gemini_model"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type AnalyticsConfig struct {
	Seed uint64 `mapstructure:"seed"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CacheConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxSizeMB   int64         `mapstructure:"max_size_mb"`
	CounterSize int64         `mapstructure:"counter_size"`
	TTL         time.Duration `mapstructure:"ttl"`
}

type SeedConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // text | json
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Auth      AuthConfig      `mapstructure:"auth"`
	AI        AIConfig        `mapstructure:"ai"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Seed      SeedConfig      `mapstructure:"seed"`
	Log       LogConfig       `mapstructure:"log"`
}

// Load reads configuration. path may name a config file; when empty,
// ./config.yaml is used if present and skipped otherwise.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Provider SDK conventions, used only when the PULSE_ names are unset.
	_ = v.BindEnv("ai.openai_key", EnvPrefix+"_AI_OPENAI_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("ai.gemini_key", EnvPrefix+"_AI_GEMINI_KEY", "GEMINI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("config: store.driver must be memory or sqlite, got %q", c.Store.Driver)
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("config: auth.jwt_secret must be at least 16 characters")
	}
	switch c.AI.Provider {
	case "openai", "gemini", "none":
	default:
		return fmt.Errorf("config: ai.provider must be openai, gemini or none, got %q", c.AI.Provider)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("config: ratelimit values must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second) // AI routes wait on the provider
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.secure_cookies", false)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.path", "data/pulse.db")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_ttl", 24*time.Hour)
	v.SetDefault("auth.password_cost", 12)
	v.SetDefault("auth.client_social_login", false)
	v.SetDefault("auth.github.client_id", "")
	v.SetDefault("auth.github.client_secret", "")
	v.SetDefault("auth.github.callback_url", "http://localhost:8080/auth/github/callback")

	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.openai_model", "gpt-4o")
	v.SetDefault("ai.openai_url", "https://api.openai.com/v1")
	v.SetDefault("ai.gemini_model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout", 20*time.Second)

	v.SetDefault("analytics.seed", 1)

	v.SetDefault("ratelimit.requests_per_second", 0.5)
	v.SetDefault("ratelimit.burst", 5)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size_mb", 16)
	v.SetDefault("cache.counter_size", 10000)
	v.SetDefault("cache.ttl", 10*time.Minute)

	v.SetDefault("seed.enabled", true)
	v.SetDefault("seed.password", "password")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
