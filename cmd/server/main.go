package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/vibechat/vibe-server/internal/adapters/http"
	wssignal "github.com/vibechat/vibe-server/internal/adapters/signal"
	"github.com/vibechat/vibe-server/internal/app"
	"github.com/vibechat/vibe-server/internal/config"
	"github.com/vibechat/vibe-server/internal/metrics"
	"github.com/vibechat/vibe-server/internal/store"
	"github.com/vibechat/vibe-server/internal/store/memory"
	"github.com/vibechat/vibe-server/internal/store/postgres"
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
	if cfg.Mode == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var (
		users    store.Users
		messages store.Messages
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.New(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres")
		}
		defer db.Close()
		users = postgres.NewUserRepository(db.Pool)
		messages = postgres.NewMessageRepository(db.Pool)
	} else {
		log.Warn().Msg("no postgres dsn configured, using in-memory store")
		mem := memory.New()
		users = mem
		messages = mem
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	collector := metrics.NewCollector(reg)

	codec := wssignal.Codec{}
	registry := app.NewRegistry(codec)
	rooms := app.NewRooms()
	coord := app.NewCoordinator(registry, rooms, codec, collector)
	invites := app.NewInviteSender(coord, messages)

	h := router.NewHandler(invites, users, messages)
	r := router.SetupRouter(ctx, cfg, coord, h, reg)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("vibe server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited gracefully")
}
