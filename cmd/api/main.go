package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"vidgate/internal/http/handlers"
	httpapi "vidgate/internal/http/httpapi"
	"vidgate/internal/infra"
	"vidgate/internal/infra/geoip"
	"vidgate/internal/middleware"
	"vidgate/internal/providers/veo"
)

func main() {
	// Muat .env (opsional)
	_ = godotenv.Load()

	// Konfigurasi & logger
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	// Country lookup for locale detection; missing database just disables it
	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, country detection disabled")
	}
	if resolver != nil {
		defer resolver.Close()
		lookup = resolver.CountryCode
	}

	// Upstream Veo client
	backend := veo.New(veo.Options{
		BaseURL:       cfg.VeoBaseURL,
		Model:         cfg.VeoModel,
		APIKey:        cfg.GeminiAPIKey,
		Timeout:       cfg.StartTimeout,
		StreamTimeout: cfg.StreamTimeout,
	})

	// App container
	app := handlers.NewApp(cfg, logger, backend)

	// Router via package httpapi (middleware chi sudah ada di dalamnya)
	router := httpapi.NewRouter(app, lookup)

	// HTTP server wrapper dari infra
	server := infra.NewHTTPServer(cfg, router)

	// Start async
	go func() {
		logger.Info().
			Str("mode", cfg.VeoMode).
			Str("model", cfg.VeoModel).
			Msgf("gateway listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
