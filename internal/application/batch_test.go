package application

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"

	"pjgateway/internal/domain"
	"pjgateway/internal/streaming"
)

type mockSink struct {
	writes map[[32]byte]domain.AutoCreateAccountCacheEntry
}

func (m *mockSink) Set(ctx context.Context, ethTxHash [32]byte, entry domain.AutoCreateAccountCacheEntry) error {
	if m.writes == nil {
		m.writes = make(map[[32]byte]domain.AutoCreateAccountCacheEntry)
	}
	m.writes[ethTxHash] = entry
	return nil
}

func (m *mockSink) Get(ctx context.Context, ethTxHash [32]byte) (domain.AutoCreateAccountCacheEntry, bool, error) {
	entry, ok := m.writes[ethTxHash]
	return entry, ok, nil
}

type mockCommitter struct {
	committed []kafka.Message
}

func (m *mockCommitter) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.committed = append(m.committed, msgs...)
	return nil
}

func TestCacheBatch_AddAndFlush(t *testing.T) {
	batch := NewCacheBatch()
	sink := &mockSink{}
	committer := &mockCommitter{}
	ctx := context.Background()

	hash := "0x" + repeatHex("ab", 32)
	tx := "0x1234"
	from := "0x" + repeatHex("cd", 20)

	if err := batch.Add(streaming.Message{
		Type:        streaming.MessageTypeAutoCreateAccount,
		EthTxHash:   hash,
		Tx:          tx,
		FromAddress: from,
	}, kafka.Message{Offset: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if batch.Len() != 1 {
		t.Fatalf("expected batch len 1, got %d", batch.Len())
	}

	if err := batch.Flush(ctx, sink, committer); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	if len(sink.writes) != 1 {
		t.Fatalf("expected 1 cache write, got %d", len(sink.writes))
	}
	if len(committer.committed) != 1 {
		t.Fatalf("expected 1 committed message, got %d", len(committer.committed))
	}
	if batch.Len() != 0 {
		t.Fatalf("expected batch len 0 after flush, got %d", batch.Len())
	}
}

func TestCacheBatch_FlushSkipsAlreadyCachedEntry(t *testing.T) {
	batch := NewCacheBatch()
	hash := "0x" + repeatHex("ab", 32)
	ethTxHash, err := decodeHash32(hash)
	if err != nil {
		t.Fatalf("decode hash: %v", err)
	}

	sink := &mockSink{writes: map[[32]byte]domain.AutoCreateAccountCacheEntry{
		ethTxHash: {Tx: []byte{0x12, 0x34}},
	}}
	committer := &mockCommitter{}
	ctx := context.Background()

	if err := batch.Add(streaming.Message{
		Type:        streaming.MessageTypeAutoCreateAccount,
		EthTxHash:   hash,
		Tx:          "0x1234",
		FromAddress: "0x" + repeatHex("cd", 20),
	}, kafka.Message{Offset: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := batch.Flush(ctx, sink, committer); err != nil {
		t.Fatalf("flush failed: %v", err)
	}

	if len(sink.writes) != 1 {
		t.Fatalf("expected the pre-existing entry to remain the only write, got %d", len(sink.writes))
	}
	if got := sink.writes[ethTxHash].FromAddress; got != ([20]byte{}) {
		t.Fatalf("expected the pre-existing entry to be left unchanged, got from address %x", got)
	}
	if len(committer.committed) != 1 {
		t.Fatalf("expected the redelivered message to still be committed, got %d", len(committer.committed))
	}
}

func TestCacheBatch_AddRejectsMalformedHash(t *testing.T) {
	batch := NewCacheBatch()
	err := batch.Add(streaming.Message{
		Type:        streaming.MessageTypeAutoCreateAccount,
		EthTxHash:   "0xnot-hex",
		Tx:          "0x",
		FromAddress: "0x" + repeatHex("cd", 20),
	}, kafka.Message{Offset: 1})
	if err == nil {
		t.Fatal("expected error for malformed eth_tx_hash")
	}
}

func repeatHex(pair string, n int) string {
	out := make([]byte, 0, len(pair)*n)
	for i := 0; i < n; i++ {
		out = append(out, pair...)
	}
	return string(out)
}
