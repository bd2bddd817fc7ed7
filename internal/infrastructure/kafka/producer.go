// Package kafka publishes AutoCreateAccountCacheEntry events for the
// cacheworker to consume, ported from the teacher's producer — same
// per-message tracing span, header injection and LeastBytes balancing, one
// topic instead of one per chain.
package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pjgateway/internal/domain"
	"pjgateway/internal/infrastructure/telemetry"
	"pjgateway/internal/streaming"
)

type Producer struct {
	writer *kafka.Writer
	topic  string
}

type ProducerConfig struct {
	Brokers []string
	Topic   string
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic is required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 500 * time.Millisecond,
	}
	return &Producer{writer: writer, topic: cfg.Topic}, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishAutoCreateAccount publishes entry under ethTxHash, per spec.md §6.
func (p *Producer) PublishAutoCreateAccount(ctx context.Context, ethTxHash [32]byte, entry domain.AutoCreateAccountCacheEntry) error {
	tracer := otel.Tracer("pjgateway/kafka")
	traceID, traceIDHex, ok := telemetry.NewTraceID()
	traceCtx := ctx
	if ok {
		if spanCtx, ok := telemetry.NewSpanContext(traceID); ok {
			traceCtx = trace.ContextWithSpanContext(ctx, spanCtx)
		}
	}
	traceCtx, span := tracer.Start(traceCtx, "gateway.publish_auto_create_account", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("eth.tx_hash", common.Hash(ethTxHash).Hex()),
		attribute.String("from.address", common.Address(entry.FromAddress).Hex()),
	)

	payload, err := streaming.Encode(streaming.Message{
		Type:        streaming.MessageTypeAutoCreateAccount,
		TraceID:     traceIDHex,
		EthTxHash:   common.Hash(ethTxHash).Hex(),
		Tx:          hexutil.Encode(entry.Tx),
		FromAddress: common.Address(entry.FromAddress).Hex(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	headers := make([]kafka.Header, 0, 2)
	telemetry.InjectKafkaHeaders(traceCtx, &headers)

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     ethTxHash[:],
		Value:   payload,
		Headers: headers,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
