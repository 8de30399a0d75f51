package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"docconvert/internal/convert"
	"docconvert/internal/engine"
	"docconvert/internal/http/handlers"
	"docconvert/internal/http/httpapi"
	"docconvert/internal/infra"
	"docconvert/internal/infra/geoip"
	"docconvert/internal/middleware"
	"docconvert/internal/payment"
	"docconvert/internal/quota"
	"docconvert/internal/session"
	"docconvert/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	work, err := storage.NewWorkDir(cfg.WorkDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare working storage")
	}
	sweeper := storage.NewSweeper(work.Dir(), cfg.FileExpiry, cfg.SweepInterval, logger)

	engineClient, err := engine.NewClient(engine.Options{BaseURL: cfg.EngineURL, Logger: &logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure document engine")
	}
	registry := convert.NewRegistry(engineClient)

	ctx := context.Background()
	var ledger quota.Ledger
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		pg := quota.NewPostgresLedger(pool, cfg.FreeLimit)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare quota schema")
		}
		ledger = pg
		logger.Info().Msg("quota ledger: postgres")
	} else {
		ledger = quota.NewMemoryLedger(cfg.FreeLimit)
		logger.Info().Msg("quota ledger: in-memory")
	}

	var payments *payment.Client
	if cfg.PaymentSecretKey != "" {
		payments, err = payment.NewClient(payment.Options{
			SecretKey: cfg.PaymentSecretKey,
			PriceID:   cfg.PaymentPriceID,
			BaseURL:   cfg.PaymentBaseURL,
			Logger:    &logger,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure payment provider")
		}
	} else {
		logger.Warn().Msg("payment provider not configured; top-ups disabled")
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	sessions := session.NewStore(cfg.CookieName, cfg.CookieSecure)
	converter := convert.NewService(registry, work, ledger, cfg.ConvertTimeout, cfg.MaxUploadBytes, logger)
	app := handlers.NewApp(cfg, logger, sessions, ledger, converter, payments)

	limit, per, err := middleware.ParseRateRule(cfg.ConvertRate)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid CONVERT_RATE_LIMIT")
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:        logger,
		CountryLookup: lookup,
		DefaultLocale: cfg.DefaultLocale,
		Sweeper:       sweeper,
		ConvertLimit:  limit,
		ConvertPer:    per,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
