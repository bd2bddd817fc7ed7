package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pjgateway/internal/application"
	"pjgateway/internal/config"
	"pjgateway/internal/infrastructure/kafka"
	"pjgateway/internal/infrastructure/logging"
	"pjgateway/internal/infrastructure/rolluprpc"
	"pjgateway/internal/infrastructure/telemetry"
	"pjgateway/internal/interfaces/gatewayapi"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "logs/gateway.log"
	}
	if _, err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		File:       logFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}); err != nil {
		slog.Error("logger init error", "err", err)
	}

	rpcClient, err := rolluprpc.NewClient(rolluprpc.Config{
		URL:                    cfg.RollupRPCURL,
		EthAccountLockCodeHash: cfg.EthAccountLockCodeHash,
		RollupScriptHash:       cfg.RollupScriptHash,
	})
	if err != nil {
		slog.Error("rollup rpc error", "err", err)
		os.Exit(1)
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	})
	if err != nil {
		slog.Error("kafka error", "err", err)
		os.Exit(1)
	}
	defer producer.Close()

	shutdownTracing, err := telemetry.InitTracer(context.Background(), "pjgateway-gateway", cfg.OtelEndpoint)
	if err != nil {
		slog.Warn("tracing init error", "err", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				slog.Warn("tracing shutdown error", "err", err)
			}
		}()
	}

	transcoder := application.NewTranscoder(rpcClient, cfg)
	metrics := gatewayapi.NewMetrics()

	server, err := gatewayapi.NewServer(transcoder, rpcClient, producer, metrics, gatewayapi.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	})
	if err != nil {
		slog.Error("http server error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("gateway listening", "addr", cfg.HTTPAddr, "rollup_rpc", cfg.RollupRPCURL)
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("http server error", "err", err)
		os.Exit(1)
	}
}
