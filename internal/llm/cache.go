package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// CacheConfig sizes a CachedCompleter.
type CacheConfig struct {
	MaxCostBytes int64
	NumCounters  int64
	TTL          time.Duration
}

// CachedCompleter memoizes successful completions keyed by the prompts and
// options. Errors are never cached, so a provider outage does not pin a
// fallback for the whole TTL.
type CachedCompleter struct {
	next  Completer
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewCachedCompleter(next Completer, cfg CacheConfig) (*CachedCompleter, error) {
	if cfg.MaxCostBytes <= 0 {
		cfg.MaxCostBytes = 16 << 20
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = 10_000
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: creating completion cache: %w", err)
	}
	return &CachedCompleter{next: next, cache: cache, ttl: cfg.TTL}, nil
}

func (c *CachedCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	key := cacheKey(systemPrompt, userPrompt, opts)
	if v, ok := c.cache.Get(key); ok {
		if text, ok := v.(string); ok {
			return text, nil
		}
	}

	text, err := c.next.Complete(ctx, systemPrompt, userPrompt, opts)
	if err != nil {
		return "", err
	}
	c.cache.SetWithTTL(key, text, int64(len(text)), c.ttl)
	return text, nil
}

// Wait blocks until pending cache writes are applied. Ristretto buffers
// sets, so tests call this before expecting a hit.
func (c *CachedCompleter) Wait() {
	c.cache.Wait()
}

func (c *CachedCompleter) Close() {
	c.cache.Close()
}

func cacheKey(systemPrompt, userPrompt string, opts Options) string {
	h := sha256.New()
	fmt.Fprintf(h, "%g|%d|%t|%d|", opts.Temperature, opts.MaxTokens, opts.JSONMode, len(systemPrompt))
	h.Write([]byte(systemPrompt))
	h.Write([]byte(userPrompt))
	return hex.EncodeToString(h.Sum(nil))
}
