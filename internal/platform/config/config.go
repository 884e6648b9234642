// Package config provides configuration loading and validation for the service.
// Configuration is loaded from YAML files with environment variable overrides
// using a layered system: defaults -> base.yaml -> {profile}.yaml -> env vars.
package config

import "time"

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Client    ClientConfig    `koanf:"client"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Store     StoreConfig     `koanf:"store"`
	Redis     RedisConfig     `koanf:"redis"`
	Gateway   GatewayConfig   `koanf:"gateway"`
	Presence  PresenceConfig  `koanf:"presence"`
	Ordering  OrderingConfig  `koanf:"ordering"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// InstanceID identifies this process on the presence bus. A random
	// ID is generated when empty.
	InstanceID string `koanf:"instance_id"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ClientConfig holds settings for the HTTP client used by the "http" store
// driver to reach the external entity store.
type ClientConfig struct {
	BaseURL        string               `koanf:"base_url"`
	Timeout        time.Duration        `koanf:"timeout"`
	Retry          RetryConfig          `koanf:"retry"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
	RateLimit      RateLimitConfig      `koanf:"rate_limit"`
}

// RetryConfig holds retry policy settings with exponential backoff.
type RetryConfig struct {
	MaxAttempts     int           `koanf:"max_attempts"`
	InitialInterval time.Duration `koanf:"initial_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	Multiplier      float64       `koanf:"multiplier"`
}

// CircuitBreakerConfig holds circuit breaker settings.
type CircuitBreakerConfig struct {
	MaxFailures   int           `koanf:"max_failures"`
	Timeout       time.Duration `koanf:"timeout"`
	HalfOpenLimit int           `koanf:"half_open_limit"`
}

// RateLimitConfig holds client-side rate limiting settings. A zero
// RequestsPerSecond disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	BurstSize         int     `koanf:"burst_size"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreHTTP     = "http"
)

// StoreConfig selects the entity store backing positions and documents.
type StoreConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`

	// Seed loads a demo board on startup. Only honored by the memory and
	// sqlite drivers.
	Seed bool `koanf:"seed"`
}

// RedisConfig holds the presence bus connection. When disabled, presence
// stays local to the process.
type RedisConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Addr          string `koanf:"addr"`
	Password      string `koanf:"password"`
	DB            int    `koanf:"db"`
	ChannelPrefix string `koanf:"channel_prefix"`
}

// GatewayConfig holds WebSocket transport settings.
type GatewayConfig struct {
	ReadLimit        int64         `koanf:"read_limit"`
	WriteTimeout     time.Duration `koanf:"write_timeout"`
	PingInterval     time.Duration `koanf:"ping_interval"`
	SendBuffer       int           `koanf:"send_buffer"`
	AllowedOrigins   []string      `koanf:"allowed_origins"`
	BroadcastWorkers int           `koanf:"broadcast_workers"`
	RoomBacklog      int           `koanf:"room_backlog"`
}

// PresenceConfig holds room membership settings.
type PresenceConfig struct {
	Palette       []string      `koanf:"palette"`
	IdleAfter     time.Duration `koanf:"idle_after"`
	EvictAfter    time.Duration `koanf:"evict_after"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	// InstanceTTL drops members of another instance once it has been
	// silent this long. Zero disables the check.
	InstanceTTL time.Duration `koanf:"instance_ttl"`
}

// OrderingConfig holds move retry settings.
type OrderingConfig struct {
	MaxAttempts int `koanf:"max_attempts"`
}
