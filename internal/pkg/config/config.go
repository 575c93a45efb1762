package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Places    PlacesConfig    `mapstructure:"places"`
	Search    SearchConfig    `mapstructure:"search"`
	Sessions  SessionsConfig  `mapstructure:"sessions"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// PlacesConfig configures the text-search provider.
type PlacesConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	FieldMask      string `mapstructure:"field_mask"`
}

func (p PlacesConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// SearchConfig holds the fixed query parameters of every session.
type SearchConfig struct {
	TextQuery       string  `mapstructure:"text_query"`
	IncludedType    string  `mapstructure:"included_type"`
	PageSize        int     `mapstructure:"page_size"`
	LatOffsetMeters float64 `mapstructure:"lat_offset_meters"`
	LngOffsetMeters float64 `mapstructure:"lng_offset_meters"`
}

type SessionsConfig struct {
	IdleTTLSeconds       int `mapstructure:"idle_ttl_seconds"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
}

func (s SessionsConfig) IdleTTL() time.Duration {
	return time.Duration(s.IdleTTLSeconds) * time.Second
}

func (s SessionsConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

type CacheConfig struct {
	PageTTLSeconds int `mapstructure:"page_ttl_seconds"`
}

type TemporalConfig struct {
	HostPort  string `mapstructure:"host_port"`
	TaskQueue string `mapstructure:"task_queue"`
	MaxPages  int    `mapstructure:"max_pages"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultFieldMask lists the response fields requested from the provider.
const DefaultFieldMask = "nextPageToken,places.id,places.displayName,places.location,places.photos"

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()
	setDefaults(v, service)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: NEARBITE_PLACES_API_KEY → places.api_key
	v.SetEnvPrefix("NEARBITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, service string) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "nearbite")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "nearbite")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("places.base_url", "https://places.googleapis.com/")
	v.SetDefault("places.api_key", "")
	v.SetDefault("places.timeout_seconds", 10)
	v.SetDefault("places.field_mask", DefaultFieldMask)
	v.SetDefault("search.text_query", "coffee")
	v.SetDefault("search.included_type", "cafe")
	v.SetDefault("search.page_size", 5)
	v.SetDefault("search.lat_offset_meters", 5000.0)
	v.SetDefault("search.lng_offset_meters", 5000.0)
	v.SetDefault("sessions.idle_ttl_seconds", 1800)
	v.SetDefault("sessions.sweep_interval_seconds", 60)
	v.SetDefault("cache.page_ttl_seconds", 600)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.task_queue", "nearbite-warmup")
	v.SetDefault("temporal.max_pages", 3)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Places.BaseURL == "" {
		errs = append(errs, "places.base_url is required")
	}
	if c.Places.TimeoutSeconds <= 0 {
		errs = append(errs, "places.timeout_seconds must be positive")
	}
	if c.Places.FieldMask == "" {
		errs = append(errs, "places.field_mask is required")
	}
	if c.Search.TextQuery == "" {
		errs = append(errs, "search.text_query is required")
	}
	if c.Search.PageSize < 1 || c.Search.PageSize > 20 {
		errs = append(errs, fmt.Sprintf("search.page_size must be 1-20, got %d", c.Search.PageSize))
	}
	if c.Search.LatOffsetMeters < 0 || c.Search.LngOffsetMeters < 0 {
		errs = append(errs, "search offsets must not be negative")
	}
	if c.Sessions.IdleTTLSeconds <= 0 {
		errs = append(errs, "sessions.idle_ttl_seconds must be positive")
	}
	if c.Sessions.SweepIntervalSeconds <= 0 {
		errs = append(errs, "sessions.sweep_interval_seconds must be positive")
	}
	if c.Cache.PageTTLSeconds < 0 {
		errs = append(errs, "cache.page_ttl_seconds must not be negative")
	}
	if c.Temporal.MaxPages < 0 {
		errs = append(errs, "temporal.max_pages must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
