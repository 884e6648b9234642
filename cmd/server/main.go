// Package main is the entry point for the service. It wires all dependencies
// using samber/do v2, starts the HTTP and WebSocket server, runs the presence
// background loops, and handles graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/do/v2"

	adapthttp "github.com/jsamuelsen11/collab-sync/internal/adapters/http"
	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/collab-sync/internal/adapters/http/middleware"

	memorybus "github.com/jsamuelsen11/collab-sync/internal/adapters/bus/memory"
	redisbus "github.com/jsamuelsen11/collab-sync/internal/adapters/bus/redis"
	"github.com/jsamuelsen11/collab-sync/internal/adapters/clients/acl"
	"github.com/jsamuelsen11/collab-sync/internal/adapters/store"
	"github.com/jsamuelsen11/collab-sync/internal/adapters/store/memory"
	"github.com/jsamuelsen11/collab-sync/internal/adapters/store/postgres"
	"github.com/jsamuelsen11/collab-sync/internal/adapters/store/sqlite"
	"github.com/jsamuelsen11/collab-sync/internal/adapters/ws"
	"github.com/jsamuelsen11/collab-sync/internal/app"
	"github.com/jsamuelsen11/collab-sync/internal/app/presence"
	"github.com/jsamuelsen11/collab-sync/internal/app/roomqueue"
	model "github.com/jsamuelsen11/collab-sync/internal/domain/presence"
	"github.com/jsamuelsen11/collab-sync/internal/platform/config"
	"github.com/jsamuelsen11/collab-sync/internal/platform/health"
	"github.com/jsamuelsen11/collab-sync/internal/platform/httpclient"
	"github.com/jsamuelsen11/collab-sync/internal/platform/logging"
	"github.com/jsamuelsen11/collab-sync/internal/platform/telemetry"
	"github.com/jsamuelsen11/collab-sync/internal/ports"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second
	storeOpenTimeout      = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profile := os.Getenv(config.EnvPrefix + "PROFILE")
	if profile == "" {
		return errors.New(config.EnvPrefix + "PROFILE environment variable is required (e.g. local, dev, qa, prod)")
	}

	// Bootstrap: config, logger, telemetry.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	instanceID := cfg.Server.InstanceID
	if instanceID == "" {
		instanceID = uuid.NewString()
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr).
		With(slog.String("instance_id", instanceID))

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, instanceID, logger)

	// Resolve the server (eagerly wires the full graph).
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}

	backend := do.MustInvoke[*storeBackend](injector)
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("store close error", slog.Any("error", err))
		}
	}()

	// Register health checkers after the graph is wired.
	registerHealthChecks(injector, backend)

	// Background loops: cross-instance presence, room relay, heartbeat sweep.
	loopCtx, stopLoops := context.WithCancel(ctx)
	defer stopLoops()

	stops, err := startListeners(loopCtx, injector)
	if err != nil {
		return err
	}
	defer func() {
		for _, stop := range stops {
			stop()
		}
	}()

	heartbeat := do.MustInvoke[*presence.Heartbeat](injector)
	go heartbeat.Run(loopCtx)

	// Start server in background.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	logger.Info("collaboration engine ready",
		slog.String("store", cfg.Store.Driver),
		slog.Bool("redis", cfg.Redis.Enabled),
	)

	// Wait for shutdown signal or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Graceful shutdown: fail readiness, close WebSocket sessions (the
	// server's shutdown hook), drain HTTP requests, then finish queued room
	// work.
	do.MustInvoke[*handlers.HealthHandler](injector).Drain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Wait for Start() goroutine to return.
	<-serverErr

	do.MustInvoke[*roomqueue.Queue](injector).Close()

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// startListeners subscribes the presence registry and the room hub to the
// presence bus. The returned stop functions unsubscribe them.
func startListeners(ctx context.Context, injector do.Injector) ([]func(), error) {
	registry := do.MustInvoke[*presence.Registry](injector)
	hub := do.MustInvoke[*ws.Hub](injector)

	stopRegistry, err := registry.Listen(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribing presence registry: %w", err)
	}
	stopHub, err := hub.Listen(ctx)
	if err != nil {
		stopRegistry()
		return nil, fmt.Errorf("subscribing room hub: %w", err)
	}
	return []func(){stopHub, stopRegistry}, nil
}

func registerHealthChecks(injector do.Injector, backend *storeBackend) {
	registry := do.MustInvoke[ports.HealthRegistry](injector)
	registry.Register(backend.health)

	if bus, ok := do.MustInvoke[ports.PresenceBus](injector).(ports.HealthChecker); ok {
		registry.Register(bus)
	}
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp, cfg.Telemetry.ServiceName)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

// storeBackend is the configured store driver together with its health
// check and its release hook.
type storeBackend struct {
	ports.Store
	health ports.HealthChecker
	close  func() error
}

// Close releases the driver's connections. Nil-safe.
func (b *storeBackend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// openStore opens the driver named by cfg.Store.Driver and seeds the demo
// board when asked to.
func openStore(ctx context.Context, cfg *config.Config, i do.Injector) (*storeBackend, error) {
	ctx, cancel := context.WithTimeout(ctx, storeOpenTimeout)
	defer cancel()

	var (
		backend *storeBackend
		seeder  store.Seeder
	)
	switch cfg.Store.Driver {
	case config.StoreMemory:
		s := memory.New()
		backend = &storeBackend{Store: s, health: health.NewChecker("entity-store", s.Ping)}
		seeder = s
	case config.StoreSQLite:
		dsn := cfg.Store.DSN
		if dsn == "" {
			dsn = sqlite.MemoryDSN
		}
		s, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		backend = &storeBackend{Store: s, health: health.NewChecker("entity-store", s.Ping), close: s.Close}
		seeder = s
	case config.StorePostgres:
		s, err := postgres.Open(ctx, postgres.Config{DSN: cfg.Store.DSN})
		if err != nil {
			return nil, err
		}
		backend = &storeBackend{Store: s, health: health.NewChecker("entity-store", s.Ping), close: s.Close}
		seeder = s
	case config.StoreHTTP:
		client := do.MustInvoke[*httpclient.Client](i)
		s := acl.NewStoreClient(client, do.MustInvoke[*slog.Logger](i))
		backend = &storeBackend{Store: s, health: s}
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.Seed && seeder != nil {
		if err := store.Seed(ctx, seeder, time.Now()); err != nil {
			_ = backend.Close()
			return nil, err
		}
	}
	return backend, nil
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, instanceID string, logger *slog.Logger) {
	do.Provide(injector, func(i do.Injector) (*httpclient.Client, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return httpclient.New(&cfg.Client, "entity-store", metrics, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (*storeBackend, error) {
		return openStore(context.Background(), cfg, i)
	})

	do.Provide(injector, func(i do.Injector) (ports.Store, error) {
		return do.MustInvoke[*storeBackend](i).Store, nil
	})

	do.Provide(injector, func(_ do.Injector) (ports.PresenceBus, error) {
		if !cfg.Redis.Enabled {
			return memorybus.New(0), nil
		}
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return redisbus.New(rdb, cfg.Redis.ChannelPrefix, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (*presence.Registry, error) {
		palette, err := model.ParsePalette(cfg.Presence.Palette)
		if err != nil {
			return nil, fmt.Errorf("presence palette: %w", err)
		}
		return presence.NewRegistry(instanceID,
			presence.WithBus(do.MustInvoke[ports.PresenceBus](i)),
			presence.WithPalette(palette),
			presence.WithWorkers(cfg.Gateway.BroadcastWorkers),
			presence.WithLogger(logger),
			presence.WithMetrics(do.MustInvoke[*telemetry.Metrics](i)),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.PresenceService, error) {
		return do.MustInvoke[*presence.Registry](i), nil
	})

	do.Provide(injector, func(i do.Injector) (*presence.Heartbeat, error) {
		return presence.NewHeartbeat(do.MustInvoke[*presence.Registry](i),
			cfg.Presence.IdleAfter,
			cfg.Presence.EvictAfter,
			cfg.Presence.SweepInterval,
			presence.WithInstanceTTL(cfg.Presence.InstanceTTL),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*ws.Hub, error) {
		return ws.NewHub(instanceID, do.MustInvoke[*presence.Registry](i),
			ws.WithHubBus(do.MustInvoke[ports.PresenceBus](i)),
			ws.WithHubWorkers(cfg.Gateway.BroadcastWorkers),
			ws.WithHubLogger(logger),
			ws.WithHubMetrics(do.MustInvoke[*telemetry.Metrics](i)),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.OrderingService, error) {
		s := do.MustInvoke[ports.Store](i)
		return app.NewOrderingService(s, s, do.MustInvoke[*ws.Hub](i), logger,
			app.WithMaxAttempts(cfg.Ordering.MaxAttempts),
			app.WithOrderingMetrics(do.MustInvoke[*telemetry.Metrics](i)),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.DocumentService, error) {
		return app.NewDocumentService(do.MustInvoke[ports.Store](i), do.MustInvoke[*ws.Hub](i), logger), nil
	})

	do.Provide(injector, func(_ do.Injector) (*roomqueue.Queue, error) {
		return roomqueue.New(cfg.Gateway.RoomBacklog, roomqueue.WithLogger(logger)), nil
	})

	do.Provide(injector, func(i do.Injector) (*ws.Gateway, error) {
		gcfg := ws.Config{
			ReadLimit:      cfg.Gateway.ReadLimit,
			WriteTimeout:   cfg.Gateway.WriteTimeout,
			PingInterval:   cfg.Gateway.PingInterval,
			SendBuffer:     cfg.Gateway.SendBuffer,
			AllowedOrigins: cfg.Gateway.AllowedOrigins,
		}
		svc := ws.Services{
			Presence:  do.MustInvoke[ports.PresenceService](i),
			Ordering:  do.MustInvoke[ports.OrderingService](i),
			Documents: do.MustInvoke[ports.DocumentService](i),
		}
		return ws.NewGateway(gcfg, do.MustInvoke[*ws.Hub](i), svc, do.MustInvoke[*roomqueue.Queue](i),
			ws.WithLogger(logger),
			ws.WithMetrics(do.MustInvoke[*telemetry.Metrics](i)),
		), nil
	})

	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		return handlers.NewHealthHandler(do.MustInvoke[ports.HealthRegistry](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		routes := adapthttp.Routes{
			Presence:  handlers.NewPresenceHandler(do.MustInvoke[ports.PresenceService](i)),
			Ordering:  handlers.NewOrderingHandler(do.MustInvoke[ports.OrderingService](i)),
			Documents: handlers.NewDocumentHandler(do.MustInvoke[ports.DocumentService](i)),
			Health:    do.MustInvoke[*handlers.HealthHandler](i),
			WebSocket: do.MustInvoke[*ws.Gateway](i),
		}
		return adapthttp.NewRouter(routes,
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.CorrelationID(),
			middleware.OpenTelemetry(metrics),
			middleware.Logging(logger),
			middleware.Timeout(cfg.Server.WriteTimeout),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		server := adapthttp.NewServer(cfg.Server, handler, logger)
		server.OnShutdown(do.MustInvoke[*ws.Gateway](i).Close)
		return server, nil
	})
}
