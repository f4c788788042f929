package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Ali4mini/internal-comms/internal/adapters/httpapi"
	"github.com/Ali4mini/internal-comms/internal/adapters/signalws"
	"github.com/Ali4mini/internal-comms/internal/app"
	"github.com/Ali4mini/internal-comms/internal/auth"
	"github.com/Ali4mini/internal-comms/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	relay := app.NewRelay()
	verifier := auth.NewVerifier(cfg.Secret)
	ctl := signalws.NewController(relay, signalws.Options{
		ReadLimit:  cfg.ReadLimit,
		SendBuffer: cfg.SendBuffer,
		PingPeriod: cfg.PingPeriod,
	})

	r := httpapi.SetupSignalRouter(ctx, cfg, verifier, ctl)
	addr := fmt.Sprintf(":%d", cfg.SignalPort)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
