package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	httpapi "berryfarm/internal/api/http"
	"berryfarm/internal/config"
	"berryfarm/internal/farm"
	"berryfarm/internal/market"
	"berryfarm/internal/scheduler"
	"berryfarm/internal/store"
	"berryfarm/internal/weather"
	"berryfarm/internal/weather/providers"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	st := store.New(db, log)

	if err := st.SeedBerryProfiles(store.DefaultBerryProfiles); err != nil {
		log.Fatal().Err(err).Msg("failed to seed berry profiles")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := providers.NewWeatherAPIClient(httpClient, cfg.WeatherAPIKey, log)

	cache := weather.NewCache(st, st, client, log)
	farms := farm.NewService(st, cache, cfg.SyncInterval, log)
	locations := farm.NewLocationService(st, client, cfg.HistoryDays, log)

	seed := cfg.MarketSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	species := make([]string, 0, len(store.DefaultBerryProfiles))
	for _, p := range store.DefaultBerryProfiles {
		species = append(species, p.Name)
	}
	prices := market.NewPrices(species, seed)

	sweeper := scheduler.New(farms, st, cfg.SweepInterval, cfg.SyncInterval, log)
	if err := sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start background sweeper")
	}
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "berryfarm",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "berryfarm",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Farms:     farms,
		Locations: locations,
		Weather:   cache,
		Prices:    prices,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}

	// Let pending weather backfill inserts land before the process exits.
	cache.WaitForBackfill()
}
