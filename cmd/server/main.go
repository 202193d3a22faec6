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

	router "github.com/aeroplan/collab/internal/adapters/http"
	signaladapter "github.com/aeroplan/collab/internal/adapters/signal"
	"github.com/aeroplan/collab/internal/adapters/store"
	"github.com/aeroplan/collab/internal/adapters/token"
	"github.com/aeroplan/collab/internal/app"
	"github.com/aeroplan/collab/internal/config"
	"github.com/aeroplan/collab/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open datastore")
	}
	defer db.Close()

	tokens := token.NewManager(cfg.Secret, db, cfg.TokenTTL)
	rooms := core.NewRoomManager()
	registry := app.NewRegistry()
	gate := app.NewGate(db)

	gateway := &app.Gateway{
		Registry: registry,
		Rooms:    rooms,
		Gate:     gate,
		Tokens:   tokens,
		Messages: db,
	}

	limiter := signaladapter.NewChatRateLimiter(cfg.ChatRateLimit, cfg.ChatRateWin)
	ctl := signaladapter.NewController(gateway, limiter)
	auth := &router.AuthHandlers{Users: db, Issuer: tokens}

	r := router.SetupRouter(ctx, cfg, ctl, auth, rooms)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Collab server started")
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
