package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"pjgateway/internal/application"
	"pjgateway/internal/config"
	"pjgateway/internal/infrastructure/cache"
	"pjgateway/internal/infrastructure/logging"
	"pjgateway/internal/infrastructure/telemetry"
	"pjgateway/internal/streaming"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "logs/cacheworker.log"
	}
	if _, err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		File:       logFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}); err != nil {
		slog.Error("logger init error", "err", err)
	}

	sink, err := cache.New(cache.Config{Addr: cfg.RedisAddr})
	if err != nil {
		slog.Error("cache error", "err", err)
		os.Exit(1)
	}
	defer sink.Close()

	shutdownTracing, err := telemetry.InitTracer(context.Background(), "pjgateway-cacheworker", cfg.OtelEndpoint)
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

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("cacheworker started", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
	consumeStream(ctx, reader, sink, cfg)
	_ = reader.Close()
}

func consumeStream(ctx context.Context, reader *kafka.Reader, sink *cache.AutoCreateAccountCache, cfg config.Config) {
	tracer := otel.Tracer("pjgateway/cacheworker")
	batch := application.NewCacheBatch()

	flushInterval := 500 * time.Millisecond

	for {
		fetchCtx, cancel := context.WithTimeout(ctx, flushInterval)
		message, err := reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				if batch.Len() > 0 {
					if err := batch.Flush(ctx, sink, reader); err != nil {
						slog.Error("batch flush error (timeout)", "err", err)
					}
				}
				continue
			}
			if errors.Is(err, context.Canceled) {
				if batch.Len() > 0 {
					if err := batch.Flush(context.Background(), sink, reader); err != nil {
						slog.Error("batch flush error (shutdown)", "err", err)
					}
				}
				return
			}
			slog.Error("kafka fetch error", "err", err)
			time.Sleep(100 * time.Millisecond)
			continue
		}

		decoded, err := streaming.Decode(message.Value)
		if err != nil {
			slog.Warn("message decode error", "err", err)
			_ = reader.CommitMessages(ctx, message)
			continue
		}

		messageCtx := telemetry.ExtractKafkaHeaders(ctx, message.Headers)
		if !trace.SpanContextFromContext(messageCtx).IsValid() && decoded.TraceID != "" {
			if ctxWithTrace, ok := telemetry.ContextWithTraceID(messageCtx, decoded.TraceID); ok {
				messageCtx = ctxWithTrace
			}
		}
		_, span := tracer.Start(messageCtx, "cacheworker.process_message", trace.WithSpanKind(trace.SpanKindConsumer))
		span.SetAttributes(attribute.String("eth.tx_hash", decoded.EthTxHash))

		if err := batch.Add(decoded, message); err != nil {
			slog.Warn("batch add error", "err", err)
			span.RecordError(err)
			span.End()
			_ = reader.CommitMessages(ctx, message)
			continue
		}
		span.End()

		if batch.Len() >= cfg.CacheBatchSize {
			if err := batch.Flush(ctx, sink, reader); err != nil {
				slog.Error("batch flush error (size)", "err", err)
			}
		}
	}
}
