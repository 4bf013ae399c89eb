// internal/api/server.go
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	commonerrors "titanic-agent/internal/common/errors"
	"titanic-agent/internal/common/logger"
	answerquestion "titanic-agent/internal/workers/agent/answer-question"
)

// Answerer answers one question.
type Answerer interface {
	Answer(ctx context.Context, question string) (*answerquestion.Output, error)
}

type Options struct {
	Answerer       Answerer
	Logger         logger.Logger
	AllowedOrigins []string
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
	// Ready reports whether the service can answer; nil means always ready.
	Ready func() error
}

type Server struct {
	answerer Answerer
	logger   logger.Logger
	errors   *commonerrors.ErrorHandler
	ready    func() error
}

// NewRouter wires the HTTP surface.
func NewRouter(opts Options) http.Handler {
	s := &Server{
		answerer: opts.Answerer,
		logger:   opts.Logger,
		errors:   commonerrors.NewErrorHandler(opts.Logger),
		ready:    opts.Ready,
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.accessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{commonerrors.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/", s.handleRoot)
	r.Head("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Post("/ask", s.handleAsk)

	return r
}
