//go:build integration
// +build integration

package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func setupRedisCache(t *testing.T) *RedisCache {
	t.Helper()

	addr := strings.TrimSpace(os.Getenv("TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("skip redis integration test: TEST_REDIS_ADDR is empty")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping failed: %v", err)
	}
	prefix := "esolrine-test-" + time.Now().Format("150405.000000")
	c := newRedisCache(client, prefix, time.Minute, zerolog.Nop())
	t.Cleanup(func() {
		_ = c.Invalidate(context.Background(), KeyHome, StoryKey(1), KeyAdmin, KeyAdminStories)
		c.Close()
	})
	return c
}

func TestRedisCache_VariantsAndInvalidate(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, KeyHome, "en", []string{"Hello"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set(ctx, KeyHome, "fr", []string{"Bonjour"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set(ctx, StoryKey(1), "en", "story"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var fr []string
	found, err := c.Get(ctx, KeyHome, "fr", &fr)
	if err != nil || !found || len(fr) != 1 || fr[0] != "Bonjour" {
		t.Fatalf("Expected fr variant, got %v found=%v err=%v", fr, found, err)
	}

	if err := c.Invalidate(ctx, CreateKeys()...); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}

	var en []string
	if found, _ := c.Get(ctx, KeyHome, "en", &en); found {
		t.Error("Home page variants should be gone after invalidation")
	}
	var story string
	if found, _ := c.Get(ctx, StoryKey(1), "en", &story); !found {
		t.Error("Story page is not in the create invalidation set and should survive")
	}
}
