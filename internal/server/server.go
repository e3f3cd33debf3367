// Package server exposes the agent over HTTP: the agent card on the
// well-known path, a health endpoint, and the JSON-RPC surface for
// message/send and tasks/get.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Strob0t/AgentLink/internal/a2a"
	"github.com/Strob0t/AgentLink/internal/config"
	"github.com/Strob0t/AgentLink/internal/discovery"
	"github.com/Strob0t/AgentLink/internal/events"
	"github.com/Strob0t/AgentLink/internal/middleware"
	"github.com/Strob0t/AgentLink/internal/registry"
	"github.com/Strob0t/AgentLink/internal/scheduler"
	"github.com/Strob0t/AgentLink/internal/telemetry"
)

// Handlers bundles the HTTP handlers with their dependencies.
type Handlers struct {
	registry  *registry.Registry
	scheduler *scheduler.Scheduler
	disco     *discovery.Client
	emitter   *events.Emitter
	tracer    *telemetry.SpanManager
}

// NewHandlers creates the handler set. emitter may be nil.
func NewHandlers(reg *registry.Registry, sched *scheduler.Scheduler, disco *discovery.Client, emitter *events.Emitter, tracer *telemetry.SpanManager) *Handlers {
	return &Handlers{
		registry:  reg,
		scheduler: sched,
		disco:     disco,
		emitter:   emitter,
		tracer:    tracer,
	}
}

// NewRouter assembles the chi router with the standard middleware chain.
func NewRouter(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)

	MountRoutes(r, h)
	return r
}

// MountRoutes registers all agent routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Method(http.MethodGet, a2a.WellKnownPath,
		otelhttp.NewHandler(http.HandlerFunc(h.HandleAgentCard), "agent.card"))
	r.Get("/health", h.HandleHealth)
	r.Method(http.MethodPost, "/",
		otelhttp.NewHandler(http.HandlerFunc(h.HandleRPC), "agent.rpc"))
}

// NewServer builds the http.Server with sane timeouts around the router.
func NewServer(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Long enough for sync handlers plus slack; async work is not
		// bounded by the request.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}
