package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pep299/clarify/internal/application"
	"github.com/pep299/clarify/internal/config"
	"github.com/pep299/clarify/internal/handlers"
	"github.com/pep299/clarify/internal/logger"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Clarify Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  GROQ_API_KEY          Groq API key (required for the groq provider and speech)\n")
		fmt.Printf("  GEMINI_API_KEY        Gemini API key (required for the gemini provider)\n")
		fmt.Printf("  LLM_PROVIDER          groq or gemini (default: groq)\n")
		fmt.Printf("  PORT                  Server port (default: 8080)\n")
		fmt.Printf("  HOST                  Server host (default: 0.0.0.0)\n")
		fmt.Printf("  CACHE_TYPE            Cache type: memory, cloud-storage or none (default: memory)\n")
		fmt.Printf("  CACHE_SWEEP_SCHEDULE  Cron spec for expired cache cleanup (default: @every 10m)\n")
		fmt.Printf("  ALLOWED_ORIGINS       Comma-separated CORS origins (default: *)\n")
		fmt.Printf("  TRUSTED_PROXIES       Proxies whose X-Forwarded-For is trusted for rate limiting\n")
		fmt.Printf("  CLARIFY_CONFIG        Optional YAML config file\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Clarify Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger := logger.New(cfg.LogLevel)
	app, err := application.New(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer app.Close()

	server := handlers.NewServer(app, Version)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Expired cache entries and idle rate limiters are swept on a schedule
	c := cron.New()
	if _, err := c.AddFunc(cfg.CacheSweepSchedule, func() { server.Sweep(ctx) }); err != nil {
		log.Fatalf("Invalid cache sweep schedule %q: %v", cfg.CacheSweepSchedule, err)
	}
	appLogger.Info(ctx, "Scheduled cache sweep with cron: %s", cfg.CacheSweepSchedule)
	c.Start()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		appLogger.Info(ctx, "Starting server on %s:%s", cfg.Host, cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-sigChan
	appLogger.Info(ctx, "Shutting down server...")

	// Wait for a running sweep before cancelling its context
	<-c.Stop().Done()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
