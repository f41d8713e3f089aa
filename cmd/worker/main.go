package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/fogfleet/balancer/pkg/config"
	"github.com/fogfleet/balancer/pkg/hardware"
	"github.com/fogfleet/balancer/pkg/runtime"
	"github.com/fogfleet/balancer/pkg/wire/lbv1"
	"github.com/fogfleet/balancer/pkg/worker"
)

func main() {
	log := config.Logger("info")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatal().Err(err).Msg("❌ bad configuration")
	}
	log = config.Logger(cfg.LogLevel)
	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("bind", cfg.Bind).
		Str("coordinator", cfg.Coordinator).
		Int("slots", cfg.Slots).
		Msg("⚡ worker starting")

	runner, err := runtime.New(cfg.Runtime, cfg.OllamaURL)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ failed to build model runtime")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	specs := hardware.Detect(ctx)
	log.Info().
		Int32("cores", specs.CPUCores).
		Float64("ram_gb", specs.RAMGB).
		Str("gpu", specs.GPUInfo).
		Float64("score", specs.PerformanceScore).
		Msg("🔍 hardware evaluated")

	models, err := runner.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ model listing failed, advertising none")
	}
	log.Info().Strs("models", models).Msg("📚 advertising installed models")

	hostname, _ := os.Hostname()
	advertise := cfg.AdvertiseAddr
	if advertise == "" {
		advertise = worker.LocalIP()
	}
	info := &lbv1.WorkerInfo{
		WorkerID:  cfg.WorkerID,
		Hostname:  hostname,
		IPAddress: advertise,
		Specs:     specs,
		Models:    models,
	}

	metrics := worker.NewMetrics(prometheus.DefaultRegisterer)
	srv := worker.NewServer(cfg.WorkerID, cfg.Slots, runner, metrics, log)
	srv.Start()

	grpcServer := grpc.NewServer()
	lbv1.RegisterWorkerServer(grpcServer, srv)

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

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Info().Str("addr", cfg.Metrics).Msg("📈 metrics listening")
		if err := http.ListenAndServe(cfg.Metrics, mux); err != nil {
			log.Fatal().Err(err).Msg("❌ metrics server failed")
		}
	}()

	registrar := worker.NewRegistrar(cfg.Coordinator, info, cfg.Heartbeat, log)
	go func() {
		if err := registrar.Run(ctx); err != nil {
			log.Error().Err(err).Msg("❌ registration loop exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("🛑 shutting down worker")
	grpcServer.GracefulStop()
	srv.Stop()
	log.Info().Msg("✅ worker stopped")
}
