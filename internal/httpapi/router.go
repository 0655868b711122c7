// Package httpapi assembles the HTTP surface of the server: Connect services,
// image upload and download, health and metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mmynk/godutch/internal/auth"
	"github.com/mmynk/godutch/internal/images"
	"github.com/mmynk/godutch/internal/metrics"
	"github.com/mmynk/godutch/internal/middleware"
)

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Mount is a handler served under a path prefix, as returned by the
// rpc.New*ServiceHandler constructors.
type Mount struct {
	Path    string
	Handler http.Handler
}

// Config holds the dependencies of the router.
type Config struct {
	Images      *images.Service
	MaxUpload   int64
	JWT         *auth.JWTManager
	DB          Pinger
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	CORSOrigins []string
}

// NewRouter creates the Chi router with all routes mounted.
func NewRouter(cfg Config, services ...Mount) http.Handler {
	h := &handlers{
		images:    cfg.Images,
		maxUpload: cfg.MaxUpload,
		db:        cfg.DB,
		logger:    cfg.Logger,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors(cfg.CORSOrigins))
	r.Use(httpMetrics(cfg.Metrics))

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	// Connect services.
	for _, s := range services {
		r.Handle(s.Path+"*", s.Handler)
	}

	r.Route("/api/images", func(r chi.Router) {
		r.Use(middleware.RequireBearer(cfg.JWT))
		r.Post("/", h.uploadImage)
		r.Get("/{filename}", h.getImage)
	})

	return r
}

// requestLogger logs every request once it completes.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", chimw.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// httpMetrics records every request under its route pattern, so path
// parameters do not explode label cardinality.
func httpMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}

// cors adds CORS headers for browser access. An empty origin list allows
// any origin.
func cors(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case len(allowed) == 0:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
			w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
