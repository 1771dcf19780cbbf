package cli

import (
	"context"
	"log/slog"
	"net/http"

	"gptenrich/internal/cache"
	"gptenrich/internal/config"
	"gptenrich/pkg/gpt"
)

// NewGenerator builds the configured generator, wrapped in the Redis cache
// when redis.url is set. The returned func releases the cache connection.
func NewGenerator(ctx context.Context, cfg *config.Config) (gpt.Generator, func(), error) {
	opts := []gpt.ClientOption{gpt.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout})}
	if cfg.API.URL != "" {
		opts = append(opts, gpt.WithURL(cfg.API.URL))
	}
	gen, err := gpt.New(ctx, cfg.API.Engine, cfg.API.APIKey, opts...)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Redis.URL == "" {
		return gen, func() {}, nil
	}

	rdb, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		slog.Warn("response cache disabled", "error", err)
		return gen, func() {}, nil
	}
	slog.Info("response cache enabled", "ttl", cfg.Redis.TTL)
	return cache.Wrap(gen, rdb, cfg.API.Engine, cfg.Redis.TTL), func() { _ = rdb.Close() }, nil
}
