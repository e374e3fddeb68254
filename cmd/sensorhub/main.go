package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sensorhub/sensorhub/internal/api"
	"github.com/sensorhub/sensorhub/internal/config"
	"github.com/sensorhub/sensorhub/internal/metrics"
	"github.com/sensorhub/sensorhub/internal/sensor"
	"github.com/sensorhub/sensorhub/internal/stream"

	// Compiled-in sensor variants self-register their factories.
	_ "github.com/sensorhub/sensorhub/internal/sensor/dht22"
	_ "github.com/sensorhub/sensorhub/internal/sensor/exporter"
	_ "github.com/sensorhub/sensorhub/internal/sensor/thermal"
)

const streamInterval = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	engine := flag.String("engine", "gin", "HTTP engine: gin or mux (interchangeable front ends)")
	addr := flag.String("addr", "", "listen address, overriding the configured port (e.g. 127.0.0.1:8080)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("sensorhub starting", "config", *configPath, "engine", *engine)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"sensors", len(cfg.Sensors),
		"cors_origins", len(cfg.Server.CORSOrigins),
		"sensor_types", sensor.Types(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Registry construction is a run-to-completion startup phase: no
	// request is served before it finishes.
	reg := sensor.Build(cfg.Sensors)
	metrics.SetRegistered(reg.Len())

	svc := api.NewService(reg, cfg.Server.Auth.ResolvedKey(), cfg.Server.Auth.EffectiveHeader())

	// Live readings hub, gated by the same credential as the REST API.
	hub := stream.New(reg, streamInterval, func(r *http.Request) bool {
		return svc.Authorized(r.Header.Get(svc.AuthHeader()))
	})
	go hub.Run(ctx)

	var handler http.Handler
	switch *engine {
	case "gin":
		handler = api.NewGin(svc, cfg.Server.CORSOrigins, hub)
	case "mux":
		handler = api.NewMux(svc, cfg.Server.CORSOrigins, hub)
	default:
		slog.Error("unknown engine", "engine", *engine)
		os.Exit(1)
	}

	// Watch config file for hot-reload. Sensors own hardware handles, so a
	// reload is logged rather than rebuilding the registry mid-flight.
	go func() {
		if err := config.Watch(ctx, *configPath, func(*config.Config) {
			slog.Info("restart to apply sensor topology changes")
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	if *addr != "" {
		listenAddr = *addr
	}
	httpSrv := &http.Server{
		Addr:    listenAddr,
		Handler: handler,
	}
	go func() {
		slog.Info("HTTP server listening", "addr", listenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("sensorhub shutting down")

	// Stop accepting requests before releasing any sensor resource.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpSrv.Shutdown(shutdownCtx) //nolint:errcheck

	reg.Close()
}
