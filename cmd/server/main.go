package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/shopframe/backend/config"
	httpDelivery "github.com/shopframe/backend/internal/delivery/http"
	"github.com/shopframe/backend/internal/domain"
	"github.com/shopframe/backend/internal/infrastructure/analytics"
	"github.com/shopframe/backend/internal/infrastructure/cache"
	"github.com/shopframe/backend/internal/infrastructure/catalog"
	"github.com/shopframe/backend/internal/infrastructure/store"
	"github.com/shopframe/backend/internal/infrastructure/vision"
	"github.com/shopframe/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Server.Environment)
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("catalog_source", cfg.Catalog.Source).
		Msg("starting shopframe backend")

	// Frame cache and interaction log share one Badger store
	db, err := store.Open(store.Options{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer db.Close()

	// Infrastructure clients
	visionClient := vision.NewClient(vision.ClientConfig{
		APIKey:  cfg.Vision.APIKey,
		Model:   cfg.Vision.Model,
		Timeout: cfg.Vision.Timeout,
	}, logger)

	shopifyClient := catalog.NewClient(catalog.ClientConfig{
		Marketplace: catalog.SourceShopify,
		BaseURL:     cfg.Catalog.Shopify.BaseURL,
		AccessToken: cfg.Catalog.Shopify.AccessToken,
		RatePerSec:  cfg.Catalog.Shopify.RatePerSec,
		Timeout:     cfg.Catalog.Timeout,
	}, logger)
	amazonClient := catalog.NewClient(catalog.ClientConfig{
		Marketplace: catalog.SourceAmazon,
		BaseURL:     cfg.Catalog.Amazon.BaseURL,
		AccessToken: cfg.Catalog.Amazon.AccessToken,
		RatePerSec:  cfg.Catalog.Amazon.RatePerSec,
		Timeout:     cfg.Catalog.Timeout,
	}, logger)
	var searcher domain.CatalogSearcher = catalog.NewSearcher(cfg.Catalog.Source, shopifyClient, amazonClient)
	if cfg.Catalog.MemoTTL > 0 {
		searcher = catalog.NewCachedSearcher(searcher, cache.NewSearchMemo(), cfg.Catalog.MemoTTL)
	}

	amplitude := analytics.New(analytics.Config{
		APIKey: cfg.Analytics.AmplitudeAPIKey,
		AppEnv: cfg.Analytics.AppEnv,
	}, logger)
	if cfg.Analytics.AmplitudeAPIKey == "" {
		logger.Warn().Msg("amplitude api key not configured, analytics events will be dropped")
	}

	// Usecase layer
	extractor := usecase.NewItemExtractor(visionClient, logger)
	fanout := usecase.NewSearchFanout(searcher, usecase.DefaultResultLimit, logger)
	booster := usecase.NewEngagementBooster(db, usecase.BoosterConfig{
		LookbackWindow: cfg.Boost.LookbackWindow,
		MinImpressions: cfg.Boost.MinImpressions,
	}, logger)
	pipeline := usecase.NewFramePipeline(
		extractor,
		fanout,
		booster,
		db,
		db,
		amplitude,
		usecase.PipelineConfig{FreshnessWindow: cfg.Cache.FreshnessWindow},
		logger,
	)
	defer pipeline.Drain()

	// HTTP delivery
	handler := httpDelivery.NewHandler(pipeline, cfg.Server.MaxUploadBytes, logger)
	router := httpDelivery.SetupRouter(cfg, handler)

	// Flush in-flight background jobs on SIGINT/SIGTERM before exiting
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		pipeline.Drain()
		db.Close()
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info().Str("addr", addr).Msg("server listening")
	if err := router.Run(addr); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func newLogger(environment string) zerolog.Logger {
	if environment == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).
		Level(zerolog.InfoLevel).
		With().Timestamp().Logger()
}
