// Package config loads pokedex-client settings from the environment and an
// optional pokedex.{yaml,json,env} file using viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. POKEDEX_API_BASE_URL.
const EnvPrefix = "POKEDEX"

// Config groups all application settings.
type Config struct {
	API     APIConfig
	Redis   RedisConfig
	Catalog CatalogConfig
	HTTP    HTTPConfig
	Auth    AuthConfig
	Log     LogConfig
}

// APIConfig configures access to the remote Pokémon API.
type APIConfig struct {
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	RateLimit      float64 // requests per second, 0 disables the limiter
	Burst          int
	MaxConcurrency int // parallel enrichment lookups per batch
}

// RedisConfig configures the response cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// CatalogConfig holds the page sizes of both views.
type CatalogConfig struct {
	PageSize     int
	MovesPerPage int
}

// HTTPConfig configures the HTTP front-end.
type HTTPConfig struct {
	Host string
	Port int
	// RequestsPerMinute is the per-IP limit applied by the server.
	RequestsPerMinute int
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthConfig holds the single configured account and session token settings.
type AuthConfig struct {
	Email     string
	Password  string
	JWTSecret string
	TokenTTL  time.Duration
	Issuer    string
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from POKEDEX_* environment variables and, when
// present, a pokedex config file in the working directory or ./config.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("pokedex")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an existing viper instance, applying
// defaults and environment bindings.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		API: APIConfig{
			BaseURL:        v.GetString("api.base_url"),
			UserAgent:      v.GetString("api.user_agent"),
			Timeout:        v.GetDuration("api.timeout"),
			RateLimit:      v.GetFloat64("api.rate_limit"),
			Burst:          v.GetInt("api.burst"),
			MaxConcurrency: v.GetInt("api.max_concurrency"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Catalog: CatalogConfig{
			PageSize:     v.GetInt("catalog.page_size"),
			MovesPerPage: v.GetInt("catalog.moves_per_page"),
		},
		HTTP: HTTPConfig{
			Host:              v.GetString("http.host"),
			Port:              v.GetInt("http.port"),
			RequestsPerMinute: v.GetInt("http.requests_per_minute"),
		},
		Auth: AuthConfig{
			Email:     v.GetString("auth.email"),
			Password:  v.GetString("auth.password"),
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
			Issuer:    v.GetString("auth.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://pokeapi.co/api/v2")
	v.SetDefault("api.user_agent", "pokedex-client/0.1.0")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.rate_limit", 20.0)
	v.SetDefault("api.burst", 40)
	v.SetDefault("api.max_concurrency", 20)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("catalog.page_size", 20)
	v.SetDefault("catalog.moves_per_page", 8)

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.requests_per_minute", 120)

	v.SetDefault("auth.email", "usuario@ups.edu.ec")
	v.SetDefault("auth.password", "123456")
	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.token_ttl", 60*time.Minute)
	v.SetDefault("auth.issuer", "pokedex-client")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// Validate checks the values the rest of the module relies on.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.UserAgent == "" {
		return fmt.Errorf("api.user_agent is required")
	}
	if c.API.MaxConcurrency <= 0 {
		return fmt.Errorf("api.max_concurrency must be > 0 (got %d)", c.API.MaxConcurrency)
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("catalog.page_size must be > 0 (got %d)", c.Catalog.PageSize)
	}
	if c.Catalog.MovesPerPage <= 0 {
		return fmt.Errorf("catalog.moves_per_page must be > 0 (got %d)", c.Catalog.MovesPerPage)
	}
	if c.Auth.Email == "" || c.Auth.Password == "" {
		return fmt.Errorf("auth.email and auth.password are required")
	}
	return nil
}
