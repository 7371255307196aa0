package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wadjakorntonsri/linkboard/pkg/adapters/graph"
	"github.com/wadjakorntonsri/linkboard/pkg/config"
	"github.com/wadjakorntonsri/linkboard/pkg/ports"
	"go.uber.org/zap"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.LinkService, log *zap.Logger) http.Handler {
	schema := graph.NewSchema(service, graph.Options{MaxDepth: cfg.MaxQueryDepth})
	h := NewHTTPHandler(schema)

	metrics := NewMetrics()
	mw := NewMiddleware(cfg, log, metrics)

	r := chi.NewRouter()
	// request id before logging, logging before recover so panics carry both
	r.Use(
		mw.RequestID,
		mw.Logging,
		mw.Recover,
		mw.Metrics,
		mw.Timeout,
		mw.Credential,
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, CodeNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Post("/graphql", h.GraphQL)
	if cfg.Playground {
		r.Get("/", h.Playground)
	}

	return r
}
