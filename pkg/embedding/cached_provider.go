package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/Natthaphatpiw/agn-chat/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

// Cache is the byte store behind CachedProvider.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// CachedProvider memoizes query embeddings. Cache faults are logged and the
// call goes straight to the wrapped provider.
type CachedProvider struct {
	next   EmbeddingProvider
	cache  Cache
	model  string
	ttl    time.Duration
	logger logger.ILogger
}

func NewCachedProvider(next EmbeddingProvider, cache Cache, model string, ttl time.Duration, log logger.ILogger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		cache:  cache,
		model:  model,
		ttl:    ttl,
		logger: log,
	}
}

func (p *CachedProvider) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "emb:" + p.model + ":" + hex.EncodeToString(sum[:])
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := p.key(text)

	if raw, err := p.cache.Get(ctx, key); err == nil {
		var values []float32
		if err := json.Unmarshal(raw, &values); err == nil && len(values) > 0 {
			return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: values}}, nil
		}
	} else if !errors.Is(err, ErrCacheMiss) {
		p.logger.Warn("EMBEDDING", "Cache read failed", map[string]interface{}{"error": err.Error()})
	}

	resp, err := p.next.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(resp.Embedding.Values)
	if err == nil {
		err = p.cache.Set(ctx, key, raw, p.ttl)
	}
	if err != nil {
		p.logger.Warn("EMBEDDING", "Cache write failed", map[string]interface{}{"error": err.Error()})
	}

	return resp, nil
}
