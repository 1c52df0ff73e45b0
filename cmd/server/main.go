package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"linktrail/internal/bot"
	"linktrail/internal/cache"
	"linktrail/internal/config"
	"linktrail/internal/database"
	"linktrail/internal/geo"
	"linktrail/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Starting linktrail service...", "port", cfg.Port)

	if err := run(cfg); err != nil {
		slog.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("Could not connect to Postgres", "error", err)
		return err
	}
	defer db.Close()

	lookup, archiveLookup := geoLookups(cfg)
	defer func() {
		for _, l := range lookup {
			if mm, ok := l.(*geo.MaxMind); ok {
				_ = mm.Close()
			}
		}
	}()
	dispatcher := geo.NewDispatcher(geo.NewEnricher(lookup, db, geoLogger()))
	defer func() {
		slog.Info("Waiting for in-flight geo enrichment")
		dispatcher.Wait()
	}()

	var linkCache service.LinkCache
	if cfg.RedisAddr != "" {
		cacheDB, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Error("Could not connect to Redis", "error", err)
			return err
		}
		defer cacheDB.Close()
		linkCache = cacheDB
	} else {
		slog.Info("REDIS_ADDR not set, slug cache disabled")
	}

	var archive service.ClickSink
	if cfg.ClickHouseAddr != "" {
		ch, err := database.ConnectClickHouse(ctx, cfg.ClickHouseAddr, cfg.ClickHouseUser, cfg.ClickHousePassword, cfg.ClickHouseDB, archiveLookup)
		if err != nil {
			slog.Error("Could not connect to ClickHouse", "error", err)
			return err
		}
		defer ch.Close()
		ch.Start(ctx)
		defer func() { <-ch.Done() }()
		archive = ch
	} else {
		slog.Info("CLICKHOUSE_ADDR not set, click archive disabled")
	}

	shortener := service.NewShortener(db, linkCache, cfg.BaseURL)
	analytics := service.NewAnalytics(db, db)
	resolver := service.NewResolver(shortener, db, dispatcher, archive)

	server := service.NewServer(service.ServerConfig{
		Port:               cfg.Port,
		APIKeys:            cfg.APIKeys,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, shortener, resolver, analytics, db)
	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start(ctx) }()

	botErr := make(chan error, 1)
	if cfg.TelegramToken != "" {
		tgBot, err := bot.NewTelegramBot(cfg.TelegramToken, shortener, analytics)
		if err != nil {
			slog.Error("Could not initialize bot", "error", err)
			return err
		}
		go func() { botErr <- tgBot.Start(ctx) }()
	}

	slog.Info("Service is up and running!")

	var runErr error
	serverDone := false
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case err := <-serverErr:
		serverDone = true
		if err != nil {
			slog.Error("Server stopped with error", "error", err)
			runErr = err
		}
	case err := <-botErr:
		if err != nil {
			slog.Error("Bot stopped with error", "error", err)
			runErr = err
		}
	}
	stop()
	if !serverDone {
		<-serverErr
	}

	slog.Info("Shutting down gracefully...")
	return runErr
}

// geoLookups builds the provider chains. Enrichment tries the local MaxMind
// database first, then ip-api.com when the HTTP fallback is enabled. The
// archive only gets the local database so a click never costs a second
// ip-api.com request.
func geoLookups(cfg *config.Config) (enrich, archive geo.Chain) {
	if mm, err := geo.OpenMaxMind(cfg.GeoIPDBPath); err != nil {
		slog.Warn("GeoIP database unavailable", "path", cfg.GeoIPDBPath, "error", err)
	} else {
		enrich = append(enrich, mm)
		archive = append(archive, mm)
	}
	if cfg.GeoIPHTTPFallback {
		enrich = append(enrich, geo.NewIPAPI(""))
	}
	if len(enrich) == 0 {
		slog.Warn("No geo providers configured, clicks will not be enriched")
	}
	return enrich, archive
}

func geoLogger() *slog.Logger {
	return slog.Default().With("component", "geo")
}
