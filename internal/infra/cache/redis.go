// Package cache provides a Redis backed JSON cache for read-mostly data such
// as the tier catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotReady = errors.New("redis is not ready")

// Connect parses url, opens a client and pings it once.
func Connect(ctx context.Context, url string, timeout time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrNotReady, err)
	}
	return client, nil
}

// JSON stores values as JSON documents under a key prefix.
type JSON struct {
	db     redis.UniversalClient
	prefix string
}

func NewJSON(client redis.UniversalClient, prefix string) *JSON {
	return &JSON{db: client, prefix: prefix}
}

// Get decodes the value at key into dst. A missing key is a miss, not an
// error.
func (c *JSON) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.db.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores value with expiration ttl. Zero ttl means no expiration.
func (c *JSON) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.db.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *JSON) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	return c.db.Del(ctx, full...).Err()
}
