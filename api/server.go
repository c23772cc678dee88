/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack and routes. This is the
  wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, logged with it
  2. Logger:     One logrus line per request
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus counters per route pattern
  5. CORS:       Dashboard origins

ROUTE GROUPS:
  /api/months/*     Month documents and views
  /api/managers/*   Manager scoped views
  /api/ingest       Manual ingestion trigger
  /api/runs         Run ledger
  /healthz          Store readability
  /metrics          Prometheus exposition

SECURITY NOTE:
  No authentication. The API is meant for the internal network the
  dashboard runs on.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/timesheet/serve.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/warp/timesheet-analytics/observability"
)

// RouterOptions are the optional parts of the router.
type RouterOptions struct {
	Origins []string
	Metrics *observability.Metrics
}

// NewRouter creates a router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.Origins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler())
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/months", func(r chi.Router) {
			r.Get("/", h.ListMonths)
			r.Get("/summary", h.CombinedSummary)
			r.Get("/{id}", h.GetMonth)
			r.Get("/{id}/persons", h.ListPersons)
			r.Get("/{id}/persons/{name}/entries", h.ListPersonEntries)
			r.Get("/{id}/clients", h.ListClients)
			r.Get("/{id}/nucleos", h.ListUnits)
		})

		r.Route("/managers", func(r chi.Router) {
			r.Get("/", h.ListManagers)
			r.Get("/{name}/months/{id}", h.GetManagerView)
		})

		r.Post("/ingest", h.TriggerIngest)
		r.Get("/runs", h.ListRuns)
	})

	return r
}

// requestLogger logs one line per request with its id, status and duration.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
			}).Info("request")
		})
	}
}
