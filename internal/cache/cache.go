package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/esolrine-stories/internal/config"
	"github.com/rs/zerolog"
)

// Page keys of rendered pages whose cached renderings depend on story data
const (
	KeyHome         = "/"
	KeyAdmin        = "/admin"
	KeyAdminStories = "/admin/stories"
)

// StoryKey is the page key of a public story page
func StoryKey(id int64) string {
	return "/stories/" + strconv.FormatInt(id, 10)
}

// CreateKeys are the pages invalidated after a story is created
func CreateKeys() []string {
	return []string{KeyHome, KeyAdmin, KeyAdminStories}
}

// UpdateKeys are the pages invalidated after a story is updated
func UpdateKeys(id int64) []string {
	return []string{KeyHome, StoryKey(id), KeyAdmin, KeyAdminStories}
}

// DeleteKeys are the pages invalidated after a story is deleted
func DeleteKeys() []string {
	return []string{KeyHome, KeyAdmin, KeyAdminStories}
}

// PageCache stores rendered page payloads. A page holds one entry per
// variant (the locale it was rendered in); invalidating a page drops every
// variant at once.
type PageCache interface {
	Get(ctx context.Context, page, variant string, dest interface{}) (bool, error)
	Set(ctx context.Context, page, variant string, value interface{}) error
	Invalidate(ctx context.Context, pages ...string) error
}

// New returns a Redis backed cache when enabled, a no-op cache otherwise
func New(cfg *config.CacheConfig, log zerolog.Logger) (PageCache, error) {
	if cfg == nil || !cfg.Enabled {
		log.Info().Msg("Page cache disabled")
		return Noop{}, nil
	}

	rc, err := NewRedisCache(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rc, nil
}

// Noop is a PageCache that never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string, string, interface{}) (bool, error) {
	return false, nil
}

func (Noop) Set(context.Context, string, string, interface{}) error {
	return nil
}

func (Noop) Invalidate(context.Context, ...string) error {
	return nil
}
