package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/fogfleet/balancer/pkg/config"
	"github.com/fogfleet/balancer/pkg/coordinator"
	"github.com/fogfleet/balancer/pkg/runtime"
	"github.com/fogfleet/balancer/pkg/wire/lbv1"
)

func main() {
	log := config.Logger("info")
	cfg, err := config.LoadCoordinator()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ bad configuration")
	}
	log = config.Logger(cfg.LogLevel)
	log.Info().
		Str("bind", cfg.Bind).
		Str("dashboard", cfg.Dashboard).
		Str("runtime", cfg.Runtime).
		Str("summary_model", cfg.SummaryModel).
		Msg("🧠 coordinator starting")

	runner, err := runtime.New(cfg.Runtime, cfg.OllamaURL)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ failed to build model runtime")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := coordinator.NewMetrics(prometheus.DefaultRegisterer)
	registry := coordinator.NewRegistry(cfg.WorkerPort, log)
	summarizer := coordinator.NewSummarizer(runner, registry, cfg.SummaryModel, metrics, log)
	dispatcher := coordinator.NewDispatcher(registry, summarizer, nil, coordinator.DispatchConfig{
		PollInterval:  cfg.PollInterval,
		StatusTimeout: cfg.StatusTimeout,
		JoinGrace:     cfg.JoinGrace,
	}, metrics, log)
	service := coordinator.NewService(registry, dispatcher, metrics, log)

	go registry.RunReaper(ctx, cfg.ReapInterval, cfg.WorkerTimeout)

	grpcServer := grpc.NewServer(
		grpc.MaxConcurrentStreams(uint32(cfg.MaxHandlers)),
		grpc.NumStreamWorkers(uint32(cfg.MaxHandlers)),
	)
	lbv1.RegisterCoordinatorServer(grpcServer, service)

	lis, err := net.Listen("tcp", cfg.Bind)
	if err != nil {
		log.Fatal().Err(err).Str("bind", cfg.Bind).Msg("❌ failed to listen")
	}
	go func() {
		log.Info().Str("addr", lis.Addr().String()).Msg("🚀 gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("❌ gRPC server failed")
		}
	}()

	broadcaster := coordinator.NewBroadcaster(registry, dispatcher, log)
	go broadcaster.Run(ctx, 500*time.Millisecond)
	go func() {
		mux := http.NewServeMux()
		broadcaster.RegisterHTTP(mux)
		log.Info().Str("addr", cfg.Dashboard).Msg("📊 dashboard listening")
		if err := http.ListenAndServe(cfg.Dashboard, mux); err != nil {
			log.Fatal().Err(err).Msg("❌ dashboard server failed")
		}
	}()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Info().Str("addr", cfg.Metrics).Msg("📈 metrics listening")
		if err := http.ListenAndServe(cfg.Metrics, mux); err != nil {
			log.Fatal().Err(err).Msg("❌ metrics server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("🛑 shutting down coordinator")
	grpcServer.GracefulStop()
	log.Info().Msg("✅ coordinator stopped")
}
