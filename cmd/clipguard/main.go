// cmd/clipguard/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	LoadEnv()

	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	if err := InitLogger(cfg.LogPath, ParseLogLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer Logger().Close()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %v", err)
	}
	Logger().Info("Starting clipguard: %s", cfg)

	store := NewTrustStore(cfg.SourceListPath)

	scheduler := cron.New(cron.WithLogger(cron.PrintfLogger(Logger())))
	if _, err := scheduler.AddFunc(cfg.SourceReloadCron, func() {
		defer RecoverFromPanic("source-reload")
		Logger().Info("Reloading trust registry")
		store.Reload()
	}); err != nil {
		return fmt.Errorf("invalid source reload schedule %q: %v", cfg.SourceReloadCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	oracle := NewOpenAIOracle(cfg)
	scorer := NewEmbeddingScorer(cfg)

	var searcher WebSearcher = NewFallbackSearcher(NewTavilySearcher(cfg), NewNewsFeedSearcher(cfg))
	if cfg.EnableSearchCache {
		searcher = NewCachedSearcher(searcher, time.Duration(cfg.SearchCacheTTLMin)*time.Minute)
	}

	filter := NewEvidenceFilter(store, cfg)
	ranker := NewEvidenceRanker(scorer, cfg)
	verifier := NewClaimVerifier(oracle)
	extractor := NewClaimExtractor(oracle, cfg)
	transcripts := NewTranscriptChain(cfg)

	orchestrator := NewOrchestrator(
		NewYouTubeFetcher(cfg),
		transcripts,
		extractor,
		NewTextPipeline(oracle, searcher, filter, ranker, verifier, cfg),
		NewImagePipeline(cfg),
		NewAudioPipeline(oracle),
		NewVerdictAggregator(oracle),
	)

	server := NewServer(cfg, orchestrator, store)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		Logger().Info("Received signal %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %v", err)
	}

	Logger().Info("Shutdown complete")
	return nil
}
