package application

import (
	"context"
	"fmt"
	"time"

	"github.com/pep299/clarify/internal/assistant"
	"github.com/pep299/clarify/internal/cache"
	"github.com/pep299/clarify/internal/config"
	"github.com/pep299/clarify/internal/export"
	"github.com/pep299/clarify/internal/llm"
	"github.com/pep299/clarify/internal/logger"
	"github.com/pep299/clarify/internal/pipeline"
	"github.com/pep299/clarify/internal/speech"
)

// Application holds every long-lived component built from configuration
type Application struct {
	Config    *config.Config
	Logger    logger.Logger
	Cache     *cache.Manager
	Assistant *assistant.Service
	Speaker   *speech.Speaker // nil when no Groq key is configured
	Exporter  *export.Exporter
	Pipeline  *pipeline.Pipeline
}

// New creates a new application instance with all dependencies
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.New(cfg.LogLevel)
	}

	// Initialize cache manager
	cacheManager, err := cache.NewManager(ctx, cfg.CacheType, time.Duration(cfg.CacheDuration)*time.Hour, cfg.CacheBucket)
	if err != nil {
		return nil, fmt.Errorf("creating cache manager: %w", err)
	}

	generator, err := NewGenerator(cfg)
	if err != nil {
		cacheManager.Close()
		return nil, err
	}

	svc := assistant.New(generator, cacheManager, log)
	exporter := export.New(cfg.ExportFontPath)

	app := &Application{
		Config:    cfg,
		Logger:    log,
		Cache:     cacheManager,
		Assistant: svc,
		Exporter:  exporter,
		Pipeline:  pipeline.New(svc, exporter, log),
	}

	if cfg.HasSpeech() {
		app.Speaker = speech.NewSpeaker(cfg.GroqAPIKey, map[string]speech.Voice{
			"en": {Model: cfg.TTSModel, Voice: cfg.TTSVoice},
			"ar": {Model: cfg.TTSArabicModel, Voice: cfg.TTSArabicVoice},
		})
	}

	log.Info(ctx, "Application ready: provider=%s cache=%s speech=%v", cfg.LLMProvider, cfg.CacheType, app.Speaker != nil)
	return app, nil
}

// NewGenerator builds the configured model client. When keys for both
// providers are present the other provider backs up the configured one.
func NewGenerator(cfg *config.Config) (llm.Generator, error) {
	groq := func() llm.Generator { return llm.NewGroq(cfg.GroqAPIKey, cfg.GroqModel) }
	gemini := func() llm.Generator { return llm.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel) }

	switch cfg.LLMProvider {
	case "groq":
		if cfg.GeminiAPIKey != "" {
			return &llm.Fallback{Primary: groq(), Secondary: gemini()}, nil
		}
		return groq(), nil
	case "gemini":
		if cfg.GroqAPIKey != "" {
			return &llm.Fallback{Primary: gemini(), Secondary: groq()}, nil
		}
		return gemini(), nil
	}
	return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
}

// Close cleans up application resources
func (a *Application) Close() error {
	if a.Cache != nil {
		return a.Cache.Close()
	}
	return nil
}
