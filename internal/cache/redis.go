// Package cache provides a tiny Redis client wrapper for caching
// prediction results by image content hash.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pneumonet/internal/classify"
)

// Cache wraps a Redis client for prediction result storage
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a new Cache instance connected to the specified Redis address
// If addr is empty, defaults to localhost:6379
func New(addr string, ttl time.Duration) (*Cache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password by default
		DB:       0,  // Default DB
	})

	// Test connection
	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// Key derives the cache key for an image payload. The threshold is part
// of the key because it changes the classification outcome for the same
// probability.
func Key(imageData []byte, threshold float64) string {
	sum := sha256.Sum256(imageData)
	return fmt.Sprintf("prediction:%x:t%v", sum, threshold)
}

// GetPrediction returns the cached prediction for key, or nil on a miss.
func (c *Cache) GetPrediction(ctx context.Context, key string) (*classify.Prediction, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil // Key does not exist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached prediction: %w", err)
	}

	var pred classify.Prediction
	if err := json.Unmarshal(data, &pred); err != nil {
		return nil, fmt.Errorf("failed to decode cached prediction: %w", err)
	}

	return &pred, nil
}

// SetPrediction stores a prediction under key with the configured TTL.
func (c *Cache) SetPrediction(ctx context.Context, key string, pred classify.Prediction) error {
	if c == nil || c.client == nil {
		return nil
	}

	data, err := json.Marshal(pred)
	if err != nil {
		return fmt.Errorf("failed to encode prediction: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache prediction: %w", err)
	}

	return nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}
