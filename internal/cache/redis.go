package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"linktrail/internal/types"
)

const keyPrefix = "link:"

// ErrMiss is returned by GetLink when the slug is not cached.
var ErrMiss = errors.New("cache miss")

type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func ConnectRedis(url, password string) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}

	return newCache(rdb), nil
}

func newCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb, ttl: 10 * time.Minute, now: time.Now}
}

func (c *Cache) GetLink(ctx context.Context, slug string) (*types.Link, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+slug).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	var link types.Link
	if err := json.Unmarshal(raw, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// SetLink caches a link under its slug. Links with an expiry are never
// cached past it.
func (c *Cache) SetLink(ctx context.Context, link *types.Link) error {
	raw, err := json.Marshal(link)
	if err != nil {
		return err
	}
	ttl, ok := entryTTL(c.ttl, link.ExpiresAt, c.now())
	if !ok {
		return nil
	}
	return c.rdb.Set(ctx, keyPrefix+link.Slug, raw, ttl).Err()
}

// entryTTL clamps the default TTL to the link's expiry. ok is false once
// the link has expired.
func entryTTL(ttl time.Duration, expiresAt *int64, now time.Time) (time.Duration, bool) {
	if expiresAt == nil {
		return ttl, true
	}
	left := time.UnixMilli(*expiresAt).Sub(now)
	if left <= 0 {
		return 0, false
	}
	return min(ttl, left), true
}

func (c *Cache) DeleteLink(ctx context.Context, slugs ...string) error {
	if len(slugs) == 0 {
		return nil
	}
	keys := make([]string, len(slugs))
	for i, s := range slugs {
		keys[i] = keyPrefix + s
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}
