package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pep299/clarify/internal/application"
	"github.com/pep299/clarify/internal/cache"
	"github.com/pep299/clarify/internal/config"
	"github.com/pep299/clarify/internal/export"
	"github.com/pep299/clarify/internal/logger"
	"github.com/pep299/clarify/internal/pipeline"
	"github.com/pep299/clarify/internal/speech"
	"github.com/pep299/clarify/internal/transport/middleware"
	"github.com/pep299/clarify/internal/transport/response"
)

// Request body limits
const (
	jsonBodyLimit   = 2 << 20
	uploadBodyLimit = 11 << 20
)

// Speaker synthesizes narration audio
type Speaker interface {
	Speak(ctx context.Context, text, lang string) (*speech.Audio, error)
}

// Deps are the components the HTTP layer calls into
type Deps struct {
	Assistant pipeline.Assistant
	Speaker   Speaker
	Exporter  *export.Exporter
	Pipeline  *pipeline.Pipeline
	Cache     *cache.Manager
	Logger    logger.Logger
}

// Server holds the HTTP handlers and their dependencies
type Server struct {
	config    *config.Config
	version   string
	assistant pipeline.Assistant
	speaker   Speaker
	exporter  *export.Exporter
	pipeline  *pipeline.Pipeline
	cache     *cache.Manager
	limiter   *middleware.RateLimiter
	logger    logger.Logger
}

// NewServer creates a new HTTP server backed by app
func NewServer(app *application.Application, version string) *Server {
	deps := Deps{
		Assistant: app.Assistant,
		Exporter:  app.Exporter,
		Pipeline:  app.Pipeline,
		Cache:     app.Cache,
		Logger:    app.Logger,
	}
	// Keep the interface nil when speech is off.
	if app.Speaker != nil {
		deps.Speaker = app.Speaker
	}
	return NewServerWithDeps(app.Config, version, deps)
}

// NewServerWithDeps creates a server from explicit dependencies
func NewServerWithDeps(cfg *config.Config, version string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Exporter == nil {
		deps.Exporter = export.New(cfg.ExportFontPath)
	}
	if deps.Pipeline == nil && deps.Assistant != nil {
		deps.Pipeline = pipeline.New(deps.Assistant, deps.Exporter, deps.Logger)
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewManagerWithCache(cache.NoopCache{})
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	if trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxies); err != nil {
		deps.Logger.Warn(context.Background(), "Ignoring trusted proxies: %v", err)
	} else {
		limiter.TrustProxies(trusted)
	}

	return &Server{
		config:    cfg,
		version:   version,
		assistant: deps.Assistant,
		speaker:   deps.Speaker,
		exporter:  deps.Exporter,
		pipeline:  deps.Pipeline,
		cache:     deps.Cache,
		limiter:   limiter,
		logger:    deps.Logger,
	}
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.WriteMethodNotAllowed(w)
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.WriteError(w, http.StatusNotFound, "Not found")
	})

	jsonLimit := middleware.MaxBody(jsonBodyLimit)
	uploadLimit := middleware.MaxBody(uploadBodyLimit)

	// Content operations
	r.Handle("/api/simplify", jsonLimit(http.HandlerFunc(s.simplifyHandler))).Methods("POST")
	r.Handle("/api/translate", jsonLimit(http.HandlerFunc(s.translateHandler))).Methods("POST")
	r.Handle("/api/explain-terms", jsonLimit(http.HandlerFunc(s.explainTermsHandler))).Methods("POST")
	r.Handle("/api/tts", jsonLimit(http.HandlerFunc(s.ttsHandler))).Methods("POST")
	r.Handle("/api/export", jsonLimit(http.HandlerFunc(s.exportHandler))).Methods("POST")

	// Uploads
	r.Handle("/api/parse-file", uploadLimit(http.HandlerFunc(s.parseFileHandler))).Methods("POST")
	r.Handle("/api/process", uploadLimit(http.HandlerFunc(s.processHandler))).Methods("POST")

	// Status
	r.HandleFunc("/api/languages", s.languagesHandler).Methods("GET")
	r.HandleFunc("/api/health", s.healthHandler).Methods("GET")
	r.HandleFunc("/api/cache/stats", s.cacheStatsHandler).Methods("GET")

	return r
}

// Handler wraps the routes in the shared middleware. The chain sits outside
// the router so preflight and 405 answers carry CORS headers too.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.SetupRoutes()
	h = s.limiter.Middleware(h)
	h = middleware.CORS(s.config.AllowedOrigins)(h)
	h = middleware.Logging(s.logger)(h)
	h = middleware.RequestID(h)
	return h
}

// Sweep drops expired cache entries and idle rate limiters
func (s *Server) Sweep(ctx context.Context) {
	start := time.Now()
	removed, err := s.cache.Sweep(ctx)
	if err != nil {
		s.logger.Error(ctx, "Cache sweep failed: %v", err)
		return
	}
	pruned := s.limiter.Prune()
	s.logger.Info(ctx, "Sweep removed %d cache entries and %d idle clients in %v", removed, pruned, time.Since(start))
}
