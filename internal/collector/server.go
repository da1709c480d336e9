// Package collector receives payloads from capture sessions and shows them to
// the developer.
//
// The collector is deliberately stateless: it parses an inbound payload, logs
// it, renders it to the terminal and answers with an empty success status.
// Senders never read the answer, so even malformed bodies get the empty
// success; they are reported locally instead of propagated.
package collector

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/errbeacon/errbeacon/internal/payload"
)

// DefaultPath is the route capture sessions post payloads to.
const DefaultPath = "/__errbeacon"

// Config captures the collector knobs.
type Config struct {
	// Path overrides DefaultPath.
	Path string
	// Development gates the intake route. Outside development every request
	// gets a not-found answer.
	Development bool
	// Logger receives structured copies of each payload.
	Logger *zap.Logger
	// Out is where rendered payloads go. Defaults to stderr.
	Out io.Writer
	// Registry receives the collector metrics. Defaults to the global one.
	Registry prometheus.Registerer
}

// Server wires the intake route, health and metrics endpoints.
type Server struct {
	router      chi.Router
	logger      *zap.Logger
	metrics     *metrics
	out         io.Writer
	development bool
}

// NewServer constructs a Server with its routes registered.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Out == nil {
		cfg.Out = os.Stderr
	}
	m, err := newMetrics(cfg.Registry)
	if err != nil {
		return nil, err
	}
	s := &Server{
		logger:      cfg.Logger,
		metrics:     m,
		out:         cfg.Out,
		development: cfg.Development,
	}

	var metricsHandler http.Handler = promhttp.Handler()
	if g, ok := cfg.Registry.(prometheus.Gatherer); ok {
		metricsHandler = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}

	r := chi.NewRouter()
	r.Post(cfg.Path, s.receive)
	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metricsHandler)
	r.NotFound(s.notFound)
	r.MethodNotAllowed(s.notFound)
	s.router = r
	return s, nil
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) receive(w http.ResponseWriter, r *http.Request) {
	if !s.development {
		s.notFound(w, r)
		return
	}
	var p payload.ErrorPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.reject(w, err)
		return
	}
	if err := p.Validate(); err != nil {
		s.reject(w, err)
		return
	}

	s.metrics.received.WithLabelValues(string(p.Type)).Inc()
	s.logger.Info("captured payload",
		zap.String("type", string(p.Type)),
		zap.Int64("timestamp", p.Timestamp),
		zap.String("message", p.Message),
	)
	if _, err := io.WriteString(s.out, Render(p)+"\n"); err != nil {
		s.logger.Warn("render payload", zap.Error(err))
	}
	w.WriteHeader(http.StatusOK)
}

// reject reports a malformed body locally and still answers with the empty
// success the sender is not waiting for.
func (s *Server) reject(w http.ResponseWriter, err error) {
	s.metrics.malformed.Inc()
	s.logger.Warn("malformed payload", zap.Error(err))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
