// Command roomspatiald is the main entry point for the roomspatial server:
// it hosts one spatialized-audio room per configured RoomConfig, each
// connected to a conference backend and driven by its own tick loop
// (SPEC_FULL.md §5's "Per-room hosting").
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomspatial/roomspatial/internal/app"
	"github.com/roomspatial/roomspatial/internal/conference"
	"github.com/roomspatial/roomspatial/internal/conference/wsbackend"
	"github.com/roomspatial/roomspatial/internal/config"
	"github.com/roomspatial/roomspatial/internal/health"
	"github.com/roomspatial/roomspatial/internal/observe"
	"github.com/roomspatial/roomspatial/pkg/audio/spatializer/ambisonic"
	"github.com/roomspatial/roomspatial/pkg/audio/spatializer/direct"
	"github.com/roomspatial/roomspatial/pkg/audio/spatializer/legacypanner"
	"github.com/roomspatial/roomspatial/pkg/audio/spatializer/modernpanner"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "roomspatiald: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "roomspatiald: %v\n", err)
		}
		return 1
	}
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("roomspatiald starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"rooms", len(cfg.Rooms),
	)

	shutdownTelemetry, err := observe.InitProvider(context.Background(), observe.ProviderConfig{
		ServiceName: "roomspatiald",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer shutdownTelemetry(context.Background())

	registry := config.NewRegistry()
	registerBuiltins(registry, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, registry)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	watcher, err := config.NewWatcher(*configPath, application.OnConfigChanged)
	if err != nil {
		slog.Warn("config hot-reload disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	srv := newHTTPServer(cfg.Server.ListenAddr, application)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "err", err)
		}
	}()

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http server shutdown error", "err", err)
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltins registers every spatializer variant this binary ships
// with, in capability order (most capable first, Direct last since it
// always succeeds — spec.md §4.3), plus the reference WebSocket conference
// backend under "ws".
func registerBuiltins(reg *config.Registry, cfg *config.Config) {
	reg.RegisterSpatializer("ambisonic", ambisonic.Variant())
	reg.RegisterSpatializer("modern-panner", modernpanner.Variant())
	reg.RegisterSpatializer("legacy-panner", legacypanner.Variant())
	reg.RegisterSpatializer("direct", direct.Variant())

	reg.RegisterBackend("ws", func(cc config.ConferenceConfig) (conference.Backend, error) {
		// JitsiHost is repurposed here as the reference Hub's base WebSocket
		// URL; a real Jitsi-flavored backend factory would consume JVBHost
		// and JVBMuc instead.
		if cc.JitsiHost == "" {
			return nil, fmt.Errorf("roomspatiald: conference.jitsi_host must be set for the \"ws\" backend")
		}
		return wsbackend.New(cc.JitsiHost), nil
	})
}

// newHTTPServer wires the health/readiness endpoints and the Prometheus
// metrics endpoint exposed by observe.InitProvider's exporter registration.
func newHTTPServer(addr string, application *app.App) *http.Server {
	mux := http.NewServeMux()

	checkers := make([]health.Checker, 0, len(application.Rooms()))
	for name, room := range application.Rooms() {
		name, room := name, room
		checkers = append(checkers, health.Checker{
			Name: "room:" + name,
			Check: func(ctx context.Context) error {
				return room.Ping(ctx)
			},
		})
	}
	h := health.New(checkers...)
	h.Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{Addr: addr, Handler: observe.Middleware(observe.DefaultMetrics())(mux)}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogLevelDebug:
		lvl = slog.LevelDebug
	case config.LogLevelWarn:
		lvl = slog.LevelWarn
	case config.LogLevelError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
