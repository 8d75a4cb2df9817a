package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/phenrril/artfolio/internal/app"
	"github.com/phenrril/artfolio/internal/config"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	zerolog.DefaultContextLogger = &zlog.Logger

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	if !cfg.IsDev() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if cfg.UsesDefaultToken() {
		zlog.Warn().Msg("ADMIN_TOKEN is the default value; set a secret before exposing /admin")
	}

	ctx := context.Background()
	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to create app")
	}
	defer func() { _ = application.Close() }()
	if err := application.MigrateAndSeed(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("failed to migrate and seed database")
	}

	ln, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		zlog.Fatal().Err(err).Str("port", cfg.Port).Msg("listen")
	}

	server := &http.Server{
		Handler:           application.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info().Str("addr", ln.Addr().String()).Str("env", cfg.AppEnv).Msg("listening")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("shutdown")
	}
}
