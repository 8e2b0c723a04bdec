// Package walletcache keeps the tracked-wallet membership set in redis so
// the hot ingestion path avoids a database round trip per candidate
// address.
package walletcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const setKey = "montrack:tracked_wallets"

// Cache is a redis-backed set of tracked wallet addresses.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
}

// New connects to redis at the given URL and verifies the connection.
func New(redisURL string, logger zerolog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "walletcache").Logger(),
	}, nil
}

// Contains reports whether the address is in the tracked set.
func (c *Cache) Contains(ctx context.Context, address string) (bool, error) {
	return c.client.SIsMember(ctx, setKey, address).Result()
}

// Add inserts addresses into the tracked set.
func (c *Cache) Add(ctx context.Context, addresses ...string) error {
	if len(addresses) == 0 {
		return nil
	}
	members := make([]interface{}, len(addresses))
	for i, addr := range addresses {
		members[i] = addr
	}
	return c.client.SAdd(ctx, setKey, members...).Err()
}

// Remove deletes addresses from the tracked set.
func (c *Cache) Remove(ctx context.Context, addresses ...string) error {
	if len(addresses) == 0 {
		return nil
	}
	members := make([]interface{}, len(addresses))
	for i, addr := range addresses {
		members[i] = addr
	}
	return c.client.SRem(ctx, setKey, members...).Err()
}

// Warm replaces nothing; it bulk-loads known addresses into the set, used
// at startup so the first webhook batch does not stampede the database.
func (c *Cache) Warm(ctx context.Context, addresses []string) error {
	if err := c.Add(ctx, addresses...); err != nil {
		return err
	}
	c.logger.Info().Int("wallets", len(addresses)).Msg("Tracked-wallet cache warmed")
	return nil
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
