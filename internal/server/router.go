package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/panelkit/panel/internal/branding"
	"github.com/panelkit/panel/internal/extension"
	"github.com/panelkit/panel/internal/extensions/respond"
)

// Dependencies are the pieces the router is assembled from.
type Dependencies struct {
	// Registry answers the extension listing and health phase.
	Registry *extension.Registry
	// Extensions is the compiled extension handler returned by Registry.Init.
	Extensions http.Handler
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
	Version  string
}

type healthResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Version    string `json:"version,omitempty"`
	Phase      string `json:"phase"`
	Extensions int    `json:"extensions"`
}

// NewRouter assembles the panel HTTP API.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{
			Status:  "ok",
			Service: branding.CLIName(),
			Version: deps.Version,
			Phase:   extension.PhaseUninitialized.String(),
		}
		status := http.StatusOK
		if deps.Registry != nil {
			resp.Phase = deps.Registry.Phase().String()
			resp.Extensions = deps.Registry.Len()
			if deps.Registry.Phase() != extension.PhaseReady {
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
			}
		}
		respond.JSON(w, status, resp)
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route(extension.RoutePrefix, func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			descs := []extension.Descriptor{}
			if deps.Registry != nil {
				descs = deps.Registry.Descriptors()
			}
			respond.JSON(w, http.StatusOK, descs)
		})
		if deps.Extensions != nil {
			r.Mount("/", deps.Extensions)
		}
	})

	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Debug("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
