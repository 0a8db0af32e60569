package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	jokesKey = "jokes:all"
	jokesTTL = time.Hour
)

// JokeCache is a cache-aside layer for the static joke catalogue.
type JokeCache struct {
	client *redis.Client
}

// NewJokeCache creates a JokeCache wrapping the given Redis client.
func NewJokeCache(client *redis.Client) *JokeCache {
	return &JokeCache{client: client}
}

// Get returns the cached joke list. A miss returns (nil, nil).
func (c *JokeCache) Get(ctx context.Context) ([]string, error) {
	raw, err := c.client.Get(ctx, jokesKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jokes cache get: %w", err)
	}

	var jokes []string
	if err := json.Unmarshal(raw, &jokes); err != nil {
		return nil, fmt.Errorf("jokes cache decode: %w", err)
	}
	return jokes, nil
}

// Set stores the joke list (expires after jokesTTL).
func (c *JokeCache) Set(ctx context.Context, jokes []string) error {
	raw, err := json.Marshal(jokes)
	if err != nil {
		return fmt.Errorf("jokes cache encode: %w", err)
	}
	return c.client.Set(ctx, jokesKey, raw, jokesTTL).Err()
}
