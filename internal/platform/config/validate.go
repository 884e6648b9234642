package config

import (
	"errors"
	"fmt"
)

// Validate checks all configuration values and returns aggregated errors.
func (c *Config) Validate() error {
	return errors.Join(
		c.Server.validate(),
		c.Log.validate(),
		c.Client.validate(),
		c.Telemetry.validate(),
		c.Store.validate(),
		c.Redis.validate(),
		c.Gateway.validate(),
		c.Presence.validate(),
		c.Ordering.validate(),
	)
}

func (s *ServerConfig) validate() error {
	var errs []error

	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port))
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, errors.New("server.read_timeout must be positive"))
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server.write_timeout must be positive"))
	}

	return errors.Join(errs...)
}

func (l *LogConfig) validate() error {
	var errs []error

	switch l.Level {
	case "debug", "info", "warn", "error":
		// Valid levels.
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of: debug, info, warn, error; got %q", l.Level))
	}

	switch l.Format {
	case "json", "text":
		// Valid formats.
	default:
		errs = append(errs, fmt.Errorf("log.format must be one of: json, text; got %q", l.Format))
	}

	return errors.Join(errs...)
}

func (cl *ClientConfig) validate() error {
	var errs []error

	if cl.BaseURL == "" {
		errs = append(errs, errors.New("client.base_url must not be empty"))
	}
	if cl.Timeout <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	if cl.Retry.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("client.retry.max_attempts must be >= 1, got %d", cl.Retry.MaxAttempts))
	}
	if cl.Retry.Multiplier <= 0 {
		errs = append(errs, fmt.Errorf("client.retry.multiplier must be positive, got %f", cl.Retry.Multiplier))
	}
	if cl.CircuitBreaker.MaxFailures < 1 {
		errs = append(errs, fmt.Errorf("client.circuit_breaker.max_failures must be >= 1, got %d",
			cl.CircuitBreaker.MaxFailures))
	}
	if cl.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("client.rate_limit.requests_per_second must not be negative, got %f",
			cl.RateLimit.RequestsPerSecond))
	}
	if cl.RateLimit.RequestsPerSecond > 0 && cl.RateLimit.BurstSize < 1 {
		errs = append(errs, fmt.Errorf("client.rate_limit.burst_size must be >= 1 when limiting, got %d",
			cl.RateLimit.BurstSize))
	}

	return errors.Join(errs...)
}

func (t *TelemetryConfig) validate() error {
	if !t.Enabled {
		return nil
	}

	var errs []error

	switch t.Exporter {
	case "stdout", "otlp":
		// Valid exporters.
	default:
		errs = append(errs, fmt.Errorf("telemetry.exporter must be one of: stdout, otlp; got %q", t.Exporter))
	}

	if t.Exporter == "otlp" && t.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint must not be empty when exporter is otlp"))
	}

	return errors.Join(errs...)
}

func (s *StoreConfig) validate() error {
	switch s.Driver {
	case StoreMemory, StoreHTTP:
		return nil
	case StoreSQLite, StorePostgres:
		if s.DSN == "" {
			return fmt.Errorf("store.dsn must not be empty for driver %q", s.Driver)
		}
		return nil
	default:
		return fmt.Errorf("store.driver must be one of: memory, sqlite, postgres, http; got %q", s.Driver)
	}
}

func (r *RedisConfig) validate() error {
	if !r.Enabled {
		return nil
	}

	var errs []error

	if r.Addr == "" {
		errs = append(errs, errors.New("redis.addr must not be empty when redis is enabled"))
	}
	if r.ChannelPrefix == "" {
		errs = append(errs, errors.New("redis.channel_prefix must not be empty when redis is enabled"))
	}

	return errors.Join(errs...)
}

func (g *GatewayConfig) validate() error {
	var errs []error

	if g.ReadLimit <= 0 {
		errs = append(errs, fmt.Errorf("gateway.read_limit must be positive, got %d", g.ReadLimit))
	}
	if g.WriteTimeout <= 0 {
		errs = append(errs, errors.New("gateway.write_timeout must be positive"))
	}
	if g.PingInterval <= 0 {
		errs = append(errs, errors.New("gateway.ping_interval must be positive"))
	}
	if g.SendBuffer < 1 {
		errs = append(errs, fmt.Errorf("gateway.send_buffer must be >= 1, got %d", g.SendBuffer))
	}
	if g.BroadcastWorkers < 1 {
		errs = append(errs, fmt.Errorf("gateway.broadcast_workers must be >= 1, got %d", g.BroadcastWorkers))
	}
	if g.RoomBacklog < 1 {
		errs = append(errs, fmt.Errorf("gateway.room_backlog must be >= 1, got %d", g.RoomBacklog))
	}

	return errors.Join(errs...)
}

func (p *PresenceConfig) validate() error {
	var errs []error

	if p.IdleAfter < 0 {
		errs = append(errs, errors.New("presence.idle_after must not be negative"))
	}
	if p.EvictAfter < 0 {
		errs = append(errs, errors.New("presence.evict_after must not be negative"))
	}
	if p.EvictAfter > 0 && p.EvictAfter <= p.IdleAfter {
		errs = append(errs, fmt.Errorf("presence.evict_after (%s) must exceed presence.idle_after (%s)",
			p.EvictAfter, p.IdleAfter))
	}
	if (p.IdleAfter > 0 || p.EvictAfter > 0) && p.SweepInterval <= 0 {
		errs = append(errs, errors.New("presence.sweep_interval must be positive when idle or evict is set"))
	}
	if p.InstanceTTL < 0 {
		errs = append(errs, errors.New("presence.instance_ttl must not be negative"))
	}
	if p.InstanceTTL > 0 && p.InstanceTTL <= p.SweepInterval {
		errs = append(errs, fmt.Errorf("presence.instance_ttl (%s) must exceed presence.sweep_interval (%s)",
			p.InstanceTTL, p.SweepInterval))
	}
	if p.InstanceTTL > 0 && p.SweepInterval <= 0 {
		errs = append(errs, errors.New("presence.sweep_interval must be positive when instance_ttl is set"))
	}

	return errors.Join(errs...)
}

func (o *OrderingConfig) validate() error {
	if o.MaxAttempts < 1 {
		return fmt.Errorf("ordering.max_attempts must be >= 1, got %d", o.MaxAttempts)
	}
	return nil
}
