// Package cache memoizes successful generations in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"gptenrich/pkg/gpt"
)

// Store is the subset of *redis.Client used by the cache.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Connect parses url, opens a client and pings it.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}

// Generator serves repeated requests from Redis and forwards misses to the
// wrapped generator. Only deterministic requests are cached: temperature 0
// and a non-empty input text. Sampled or input-less requests, such as
// output-mode rows, always reach the wrapped generator. Only successful
// responses are stored. Redis failures are logged and bypass the cache.
type Generator struct {
	next      gpt.Generator
	store     Store
	namespace string
	ttl       time.Duration
	logger    *slog.Logger
}

var _ gpt.Generator = (*Generator)(nil)

// Wrap decorates next. namespace separates engines sharing one Redis.
func Wrap(next gpt.Generator, store Store, namespace string, ttl time.Duration) *Generator {
	return &Generator{
		next:      next,
		store:     store,
		namespace: namespace,
		ttl:       ttl,
		logger:    slog.Default().With("component", "cache"),
	}
}

func (g *Generator) Generate(ctx context.Context, r gpt.Request) (string, error) {
	if !cacheable(r) {
		return g.next.Generate(ctx, r)
	}
	key := g.key(r)
	cached, err := g.store.Get(ctx, key).Result()
	switch {
	case err == nil:
		return cached, nil
	case !errors.Is(err, redis.Nil):
		g.logger.Warn("cache lookup failed", "error", err)
	}

	resp, err := g.next.Generate(ctx, r)
	if err != nil {
		return "", err
	}
	if err := g.store.Set(ctx, key, resp, g.ttl).Err(); err != nil {
		g.logger.Warn("cache store failed", "error", err)
	}
	return resp, nil
}

func cacheable(r gpt.Request) bool {
	return r.Temperature == 0 && r.Text != ""
}

// key hashes the rendered prompt together with the temperature.
func (g *Generator) key(r gpt.Request) string {
	h := sha256.New()
	h.Write([]byte(gpt.FormatPrompt(r)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatFloat(r.Temperature, 'g', -1, 64)))
	return fmt.Sprintf("gptenrich:%s:%s", g.namespace, hex.EncodeToString(h.Sum(nil)))
}
