package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fogfleet/balancer/pkg/config"
	"github.com/fogfleet/balancer/pkg/edge"
	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

func main() {
	log := config.Logger("info")
	cfg, err := config.LoadEdge()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ bad configuration")
	}
	log = config.Logger(cfg.LogLevel)
	log.Info().
		Str("bind", cfg.Bind).
		Str("coordinator", cfg.Coordinator).
		Str("chat_file", cfg.ChatFile).
		Msg("🌐 edge starting")

	conn, err := lbv1.Dial(cfg.Coordinator)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ failed to dial coordinator")
	}
	defer conn.Close()

	chat, err := edge.OpenChatStore(cfg.ChatFile)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ failed to open chat store")
	}

	server := edge.NewServer(lbv1.NewCoordinatorClient(conn), edge.NewRAGStore(), chat, log)
	httpServer := &http.Server{
		Addr:    cfg.Bind,
		Handler: server.Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", cfg.Bind).Msg("🚀 HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("❌ HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("🛑 shutting down edge")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("⚠️ forced shutdown")
	}
	log.Info().Msg("✅ edge stopped")
}
