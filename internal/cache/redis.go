// Package cache keeps slug to destination mappings in Redis so the redirect
// path can skip the link lookup. Counting still goes through the database.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/axellelanca/redirector/internal/logger"
)

// Config holds Redis connection configuration.
type Config struct {
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// ErrEmptyAddress is returned when the Redis address is not configured.
var ErrEmptyAddress = errors.New("redis address is required")

const (
	connectionTimeout = 5 * time.Second
	keyPrefix         = "redirector:dest:"
	defaultTTL        = 10 * time.Minute
)

// NewClient creates a Redis client and verifies the connection.
func NewClient(cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// DestinationCache is a read-through cache of link destinations.
// Redis failures are logged and treated as misses; they never fail a redirect.
type DestinationCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewDestinationCache wraps client. A non-positive ttl falls back to ten minutes.
func NewDestinationCache(client *redis.Client, ttl time.Duration, log logger.Logger) *DestinationCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &DestinationCache{client: client, ttl: ttl, log: log}
}

func key(slug string) string { return keyPrefix + slug }

// Get returns the cached destination of slug.
func (c *DestinationCache) Get(ctx context.Context, slug string) (string, bool) {
	dest, err := c.client.Get(ctx, key(slug)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache get failed", logger.String("slug", slug), logger.Error(err))
		}
		return "", false
	}
	return dest, true
}

// Set stores the destination of slug.
func (c *DestinationCache) Set(ctx context.Context, slug, destination string) {
	if err := c.client.Set(ctx, key(slug), destination, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", logger.String("slug", slug), logger.Error(err))
	}
}

// Fill stores the destination of slug only when no entry exists, so a fill
// racing a destination update never replaces the newer value.
func (c *DestinationCache) Fill(ctx context.Context, slug, destination string) {
	if err := c.client.SetNX(ctx, key(slug), destination, c.ttl).Err(); err != nil {
		c.log.Warn("cache fill failed", logger.String("slug", slug), logger.Error(err))
	}
}

// Delete evicts slug. Called after a link delete.
func (c *DestinationCache) Delete(ctx context.Context, slug string) {
	if err := c.client.Del(ctx, key(slug)).Err(); err != nil {
		c.log.Warn("cache delete failed", logger.String("slug", slug), logger.Error(err))
	}
}
