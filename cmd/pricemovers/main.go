// Package main is the entry point for the pricemovers terminal.
// It wires the market data gateway, the expiring cache and the analysis
// service, starts the background inspection API and the cache cleanup
// scheduler, then hands the terminal to the interactive menu.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"pricemovers/internal/analysis"
	"pricemovers/internal/cache"
	"pricemovers/internal/cli"
	"pricemovers/internal/clients/yahoo"
	"pricemovers/internal/config"
	"pricemovers/internal/database"
	"pricemovers/internal/marketcal"
	"pricemovers/internal/scheduler"
	"pricemovers/internal/server"
	"pricemovers/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting pricemovers")

	db, err := database.New(database.Config{
		Path:    cfg.CacheDBPath(),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer db.Close()

	store := cache.New(db.Conn(), log)
	if err := store.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate cache database")
	}

	gateway := yahoo.NewClient(cfg.HTTPTimeout, log)
	svc := analysis.New(gateway, store, marketcal.ExchangeClock{}, cfg.FetchDelay, log)

	sched := scheduler.New(log)
	// Expired entries accumulate for tickers nobody asks about again
	if err := sched.AddJob("0 0 3 * * *", cache.NewCleanupJob(store, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache cleanup job")
	}
	sched.Start()
	defer sched.Stop()

	var srv *server.Server
	if cfg.Port > 0 {
		srv = server.New(server.Config{
			Log:     log,
			Service: svc,
			Store:   store,
			Port:    cfg.Port,
			DevMode: cfg.DevMode,
		})
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("HTTP server stopped unexpectedly")
			}
		}()
	}

	menu := cli.NewMenu(svc, store, cfg.UniverseCSV, os.Stdin, os.Stdout, log)
	if err := menu.Run(context.Background()); err != nil {
		log.Error().Err(err).Msg("Menu loop failed")
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down HTTP server")
		}
	}

	log.Info().Msg("Shutdown complete")
}
