package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Strob0t/AgentLink/internal/comms"
	"github.com/Strob0t/AgentLink/internal/config"
	"github.com/Strob0t/AgentLink/internal/discovery"
	"github.com/Strob0t/AgentLink/internal/events"
	"github.com/Strob0t/AgentLink/internal/logger"
	"github.com/Strob0t/AgentLink/internal/registry"
	"github.com/Strob0t/AgentLink/internal/scheduler"
	"github.com/Strob0t/AgentLink/internal/server"
	"github.com/Strob0t/AgentLink/internal/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer closeLog.Close()

	slog.Info("config loaded",
		"agent", cfg.Agent.Name,
		"port", cfg.Server.Port,
		"peers", len(cfg.Discovery.Endpoints),
		"telemetry", cfg.Telemetry.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	shutdownTelemetry := telemetry.Setup(ctx, cfg.Telemetry, cfg.Agent.Name, cfg.Agent.Version)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown", "error", err)
		}
	}()

	tracer := telemetry.NewSpanManager()
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Events ---
	sinks := []events.Sink{events.LogSink{}}
	if cfg.Events.NATSURL != "" {
		natsSink, err := events.ConnectNATS(ctx, cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			// fail-open: events degrade to the log sink
			slog.Warn("nats unavailable, events go to log only", "error", err)
		} else {
			defer func() { _ = natsSink.Close() }()
			sinks = append(sinks, natsSink)
		}
	}
	emitter := events.NewEmitter(cfg.Events.BufferSize, sinks...)
	defer emitter.Close()

	// --- Discovery ---
	known := discovery.NewKnownAgents()
	disco := discovery.NewClient(cfg.Discovery, known, tracer)
	go disco.Run(ctx)

	// --- Communication ---
	client := comms.New(cfg.Client, cfg.Breaker, cfg.Agent.Name, disco, tracer, metrics, emitter)

	// --- Registry and scheduler ---
	reg, err := registry.New(cfg.Agent)
	if err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	sched, err := scheduler.New(cfg.Scheduler, cfg.Agent.Name, nil, tracer, metrics, emitter)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer sched.Close()

	if err := registerHandlers(reg, disco, client); err != nil {
		return fmt.Errorf("handlers: %w", err)
	}

	// --- HTTP ---
	handlers := server.NewHandlers(reg, sched, disco, emitter, tracer)
	srv := server.NewServer(cfg.Server, server.NewRouter(handlers))

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// registerHandlers wires the built-in capability handlers for each
// advertised capability. Capabilities without a built-in get the echo
// handler.
func registerHandlers(reg *registry.Registry, disco *discovery.Client, client *comms.Client) error {
	builtins := map[string]registry.Handler{
		"echo": func(_ context.Context, query string) (string, error) {
			return "echo: " + query, nil
		},
		"ping": func(context.Context, string) (string, error) {
			return "pong", nil
		},
		"agent_info": func(context.Context, string) (string, error) {
			peers := disco.Snapshot()
			if len(peers) == 0 {
				return "no peers known yet", nil
			}
			var b strings.Builder
			b.WriteString("known agents:")
			for name, p := range peers {
				fmt.Fprintf(&b, "\n- %s (%s, %d capabilities)", name, p.Card.URL, len(p.Card.Capabilities))
			}
			return b.String(), nil
		},
		// ask_peer forwards "AgentName: query" to the named peer.
		"ask_peer": func(ctx context.Context, query string) (string, error) {
			target, rest, ok := strings.Cut(query, ":")
			if !ok || strings.TrimSpace(rest) == "" {
				return "", fmt.Errorf("ask_peer expects \"agent: query\", got %q", query)
			}
			return client.Send(ctx, strings.TrimSpace(target), strings.TrimSpace(rest))
		},
	}

	for _, cap := range reg.Card().Capabilities {
		h, ok := builtins[cap.Name]
		if !ok {
			h = builtins["echo"]
		}
		if err := reg.Register(cap.Name, h); err != nil {
			return err
		}
	}
	return nil
}
