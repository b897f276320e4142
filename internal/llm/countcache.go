package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"readmegen/internal/llmclient"
)

// CountCache memoizes CountTokens results keyed by a digest of the request
// (model, system, messages). Completions pass through untouched.
func CountCache(size int, ttl time.Duration) Middleware {
	if size <= 0 {
		size = 256
	}
	cache := expirable.NewLRU[string, int](size, nil, ttl)
	return func(next llmclient.Client) llmclient.Client {
		return &countCached{next: next, cache: cache}
	}
}

type countCached struct {
	next  llmclient.Client
	cache *expirable.LRU[string, int]
}

func (c *countCached) Name() string { return c.next.Name() }
func (c *countCached) Close() error { return c.next.Close() }

func (c *countCached) Complete(ctx context.Context, req llmclient.Request) (llmclient.Response, error) {
	return c.next.Complete(ctx, req)
}

func (c *countCached) CountTokens(ctx context.Context, req llmclient.Request) (int, error) {
	key := countKey(c.next.Name(), req)
	if n, ok := c.cache.Get(key); ok {
		return n, nil
	}
	n, err := c.next.CountTokens(ctx, req)
	if err != nil {
		return 0, err
	}
	c.cache.Add(key, n)
	return n, nil
}

func countKey(client string, req llmclient.Request) string {
	b, _ := json.Marshal(struct {
		Client   string              `json:"c"`
		Model    string              `json:"m"`
		System   string              `json:"s"`
		Messages []llmclient.Message `json:"msgs"`
	}{client, req.Model, req.System, req.Messages})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
