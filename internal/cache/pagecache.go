package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const pageKeyPrefix = "page:"

// PageCache keeps rendered page snapshots in redis so repeated runs against
// the same target within the TTL skip acquisition entirely.
type PageCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(url string, ttl time.Duration) (*PageCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &PageCache{Client: client, TTL: ttl}, nil
}

func (c *PageCache) Get(ctx context.Context, target string) (string, bool) {
	val, err := c.Client.Get(ctx, pageKeyPrefix+target).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set failures only cost a refetch next run, so they are logged, not raised.
func (c *PageCache) Set(ctx context.Context, target, html string) {
	if err := c.Client.Set(ctx, pageKeyPrefix+target, html, c.TTL).Err(); err != nil {
		log.Printf("page cache store failed for %s: %v", target, err)
	}
}
