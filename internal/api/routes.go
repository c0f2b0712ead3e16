package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/yt-scribe/internal/metrics"
	"github.com/yegors/yt-scribe/pkg/logger"
)

// RouterConfig holds router settings
type RouterConfig struct {
	CORSAllowedOrigins []string
}

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	auth       Authenticator
	metrics    *metrics.Metrics
	config     RouterConfig
	logger     *logger.Logger
}

// NewRouter creates a new API router. history and auth may be nil.
func NewRouter(
	transcriber Transcriber,
	history HistoryReader,
	auth Authenticator,
	m *metrics.Metrics,
	config RouterConfig,
	log *logger.Logger,
) *Router {
	return &Router{
		handler:    NewHandler(transcriber, history, m, log),
		middleware: NewMiddleware(log),
		auth:       auth,
		metrics:    m,
		config:     config,
		logger:     log.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.CORSAllowedOrigins))

	// Liveness
	router.Get("/", r.handler.Home)
	router.Handle("/metrics", r.metrics.Handler())

	// Protected routes
	router.Group(func(router chi.Router) {
		router.Use(r.middleware.Auth(r.auth))
		router.Post("/transcribe", r.handler.Transcribe)
	})

	router.Route("/api/v1", func(router chi.Router) {
		// Health check
		router.Get("/health", r.handler.GetHealth)

		router.Group(func(router chi.Router) {
			router.Use(r.middleware.Auth(r.auth))

			router.Post("/transcribe", r.handler.Transcribe)

			// Transcription history
			router.Get("/transcriptions", r.handler.GetTranscriptions)
			router.Get("/transcriptions/video/{videoId}", r.handler.GetTranscriptionsByVideo)
			router.Get("/transcriptions/{id}", r.handler.GetTranscriptionByID)
		})
	})

	return router
}
