package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/segmentio/kafka-go"

	"pjgateway/internal/domain"
	"pjgateway/internal/streaming"
)

// CacheEntry is a decoded auto-create-account event keyed by its eth tx
// hash. CacheBatch keeps the Kafka messages alongside its entries so it can
// commit offsets only after the Redis writes that consume them succeed.
type CacheEntry struct {
	EthTxHash [32]byte
	Entry     domain.AutoCreateAccountCacheEntry
}

// CacheBatch accumulates auto-create-account events between flushes,
// adapted from the teacher's Batch: same accumulate/flush/commit-offsets
// shape, one sink (Redis) instead of four MySQL bulk inserts.
type CacheBatch struct {
	entries  []CacheEntry
	messages []kafka.Message
}

func NewCacheBatch() *CacheBatch {
	return &CacheBatch{}
}

func (b *CacheBatch) Add(msg streaming.Message, kafkaMsg kafka.Message) error {
	ethTxHash, err := decodeHash32(msg.EthTxHash)
	if err != nil {
		return fmt.Errorf("decode eth_tx_hash: %w", err)
	}
	tx, err := decodeHexBytes(msg.Tx)
	if err != nil {
		return fmt.Errorf("decode tx: %w", err)
	}
	fromAddress, err := decodeAddress20(msg.FromAddress)
	if err != nil {
		return fmt.Errorf("decode from_address: %w", err)
	}

	b.entries = append(b.entries, CacheEntry{
		EthTxHash: ethTxHash,
		Entry:     domain.AutoCreateAccountCacheEntry{Tx: tx, FromAddress: fromAddress},
	})
	b.messages = append(b.messages, kafkaMsg)
	return nil
}

func (b *CacheBatch) Len() int {
	return len(b.messages)
}

// CacheSink is the subset of cache.AutoCreateAccountCache the batch depends
// on, defined here so tests can supply a fake.
type CacheSink interface {
	Set(ctx context.Context, ethTxHash [32]byte, entry domain.AutoCreateAccountCacheEntry) error
	Get(ctx context.Context, ethTxHash [32]byte) (domain.AutoCreateAccountCacheEntry, bool, error)
}

type Committer interface {
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

func (b *CacheBatch) Flush(ctx context.Context, sink CacheSink, committer Committer) error {
	if b.Len() == 0 {
		return nil
	}

	start := time.Now()
	skipped := 0
	for _, entry := range b.entries {
		// Kafka redelivers on a crash between Set and CommitMessages; check
		// first so a redelivered message doesn't reset the TTL or overwrite
		// an identical entry.
		if _, present, err := sink.Get(ctx, entry.EthTxHash); err != nil {
			return fmt.Errorf("failed to check cache entry: %w", err)
		} else if present {
			skipped++
			continue
		}
		if err := sink.Set(ctx, entry.EthTxHash, entry.Entry); err != nil {
			return fmt.Errorf("failed to write cache entry: %w", err)
		}
	}

	if err := committer.CommitMessages(ctx, b.messages...); err != nil {
		return fmt.Errorf("failed to commit kafka messages: %w", err)
	}

	slog.Info("flushed auto-create-account batch",
		"count", b.Len(),
		"skipped", skipped,
		"duration", time.Since(start),
	)

	b.Reset()
	return nil
}

func (b *CacheBatch) Reset() {
	b.entries = b.entries[:0]
	b.messages = b.messages[:0]
}

func decodeHash32(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hexutil.Decode(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func decodeAddress20(s string) ([20]byte, error) {
	var out [20]byte
	b, err := hexutil.Decode(s)
	if err != nil {
		return out, err
	}
	if len(b) != 20 {
		return out, fmt.Errorf("expected 20 bytes, got %d", len(b))
	}
	copy(out[:], b)
	return out, nil
}

func decodeHexBytes(s string) ([]byte, error) {
	return hexutil.Decode(s)
}
