// Package cache is the "downstream cache such as Redis" spec.md §6
// describes: the owner of the auto-create-account cache-key/value contract
// the transcoder emits but never writes itself. Ported from the teacher's
// internal/infrastructure/mysql/cache.go Redis wiring (connection setup,
// Ping-on-construct, TTL handling) — the indexed-log cache it wrapped is
// gone, replaced by the single write/read pair this contract needs.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/redis/go-redis/v9"

	"pjgateway/internal/domain"
)

const defaultTTL = 24 * time.Hour

type Config struct {
	Addr string
	TTL  time.Duration
}

// AutoCreateAccountCache writes AutoCreateAccountCacheEntry values under the
// "auto_create_account:0x<ethTxHash>" key spec.md §6 prescribes. Lifetime
// and eviction are this cache's own concern, per spec.md §6 — the TTL below
// is this owner's policy, not something the core dictates.
type AutoCreateAccountCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(cfg Config) (*AutoCreateAccountCache, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &AutoCreateAccountCache{client: client, ttl: cfg.TTL}, nil
}

func (c *AutoCreateAccountCache) Close() error {
	return c.client.Close()
}

// entryValue is the JSON shape of the cache value spec.md §6 describes:
// {tx: "0x...", fromAddress: "0x..."}.
type entryValue struct {
	Tx          string `json:"tx"`
	FromAddress string `json:"fromAddress"`
}

// Set writes entry under its cache key for ethTxHash.
func (c *AutoCreateAccountCache) Set(ctx context.Context, ethTxHash [32]byte, entry domain.AutoCreateAccountCacheEntry) error {
	value := entryValue{
		Tx:          hexutil.Encode(entry.Tx),
		FromAddress: hexutil.Encode(entry.FromAddress[:]),
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, domain.AutoCreateAccountCacheKey(ethTxHash), payload, c.ttl).Err()
}

// Get reads back the entry for ethTxHash, reporting absence via ok=false.
func (c *AutoCreateAccountCache) Get(ctx context.Context, ethTxHash [32]byte) (domain.AutoCreateAccountCacheEntry, bool, error) {
	raw, err := c.client.Get(ctx, domain.AutoCreateAccountCacheKey(ethTxHash)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.AutoCreateAccountCacheEntry{}, false, nil
	}
	if err != nil {
		return domain.AutoCreateAccountCacheEntry{}, false, err
	}
	var value entryValue
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return domain.AutoCreateAccountCacheEntry{}, false, err
	}
	tx, err := hexutil.Decode(value.Tx)
	if err != nil {
		return domain.AutoCreateAccountCacheEntry{}, false, err
	}
	fromBytes, err := hexutil.Decode(value.FromAddress)
	if err != nil || len(fromBytes) != 20 {
		return domain.AutoCreateAccountCacheEntry{}, false, errors.New("cache: malformed fromAddress")
	}
	entry := domain.AutoCreateAccountCacheEntry{Tx: tx}
	copy(entry.FromAddress[:], fromBytes)
	return entry, true, nil
}
