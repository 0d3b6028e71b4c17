package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsdigest/app/api"
	"newsdigest/app/cfg"
	"newsdigest/app/collector"
	"newsdigest/app/database"
	"newsdigest/app/digest"
	"newsdigest/app/enrich"
	"newsdigest/app/feed"
	"newsdigest/app/llm"
	"newsdigest/app/scraper"
	"newsdigest/app/sources"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting news digest server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	registry := sources.NewRegistry(appCfg.SourcesFile)
	if err := registry.Load(); err != nil {
		slog.Error("Failed to load source registry", "error", err)
		os.Exit(1)
	}
	slog.Info("Source registry ready", "sources", registry.Len())

	client, err := buildLLMClient(appCfg)
	if err != nil {
		slog.Error("Failed to build generation backend", "backend", appCfg.LLMBackend, "error", err)
		os.Exit(1)
	}
	slog.Info("Generation backend ready", "backend", appCfg.LLMBackend)

	articleRepo := database.NewArticleRepository(db)
	topicRepo := database.NewTopicRepository(db)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	fetcher := feed.NewFetcher(httpClient, appCfg.UserAgent)
	pageScraper := scraper.NewScraper(appCfg.UserAgent)

	articleCollector := collector.New(registry, fetcher, pageScraper,
		articleRepo, appCfg.BatchSize, feed.UnparsedDatePolicy(appCfg.UnparsedDatePolicy))
	enricher := enrich.NewService(articleRepo, client)
	assembler := digest.NewAssembler(articleRepo, topicRepo, client, appCfg.TemplatesDir)

	handler := api.NewHandler(articleCollector, enricher, assembler,
		articleRepo, topicRepo, appCfg.DefaultDays)
	router := api.NewServer(handler, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
}

// buildLLMClient selects the generation backend once at startup. Every
// backend is wrapped with bounded retry.
func buildLLMClient(appCfg *cfg.Cfg) (llm.Client, error) {
	var client llm.Client
	switch appCfg.LLMBackend {
	case "openai":
		if appCfg.OpenAIAPIKey == "" {
			slog.Warn("OPENAI_API_KEY is not set, generation calls will fail until configured")
		}
		client = llm.NewOpenAIClient(appCfg.OpenAIEndpoint, appCfg.OpenAIModel, appCfg.OpenAIAPIKey)
	case "ollama":
		ollama, err := llm.NewOllamaClient(appCfg.OllamaURL, appCfg.OllamaModel)
		if err != nil {
			return nil, err
		}
		client = ollama
	case "stub":
		client = llm.NewStubClient()
	default:
		return nil, fmt.Errorf("unknown generation backend: %s", appCfg.LLMBackend)
	}

	return llm.WithRetry(client), nil
}
