package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/esolrine-stories/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const pingTimeout = 5 * time.Second

// RedisCache keeps each page as a hash of variant -> JSON payload
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg *config.CacheConfig, log zerolog.Logger) (*RedisCache, error) {
	addr := strings.TrimSpace(cfg.Host)
	if addr == "" {
		addr = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", addr, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	log.Info().Str("addr", client.Options().Addr).Msg("Connected to redis page cache")
	return newRedisCache(client, cfg.Prefix, cfg.TTL, log), nil
}

func newRedisCache(client *redis.Client, prefix string, ttl time.Duration, log zerolog.Logger) *RedisCache {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "esolrine"
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    log.With().Str("component", "page_cache").Logger(),
	}
}

// Get loads a cached variant of a page into dest
func (c *RedisCache) Get(ctx context.Context, page, variant string, dest interface{}) (bool, error) {
	val, err := c.client.HGet(ctx, c.pageKey(page), variant).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores a variant of a page and refreshes the page expiry
func (c *RedisCache) Set(ctx context.Context, page, variant string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	key := c.pageKey(page)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, variant, payload)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	return err
}

// Invalidate drops every cached variant of the given pages
func (c *RedisCache) Invalidate(ctx context.Context, pages ...string) error {
	if len(pages) == 0 {
		return nil
	}
	keys := make([]string, 0, len(pages))
	for _, page := range pages {
		keys = append(keys, c.pageKey(page))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return err
	}
	c.log.Debug().Strs("pages", pages).Msg("Invalidated cached pages")
	return nil
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) pageKey(page string) string {
	page = strings.TrimSpace(page)
	if page == "" {
		page = KeyHome
	}
	return fmt.Sprintf("%s:page:%s", c.prefix, page)
}
