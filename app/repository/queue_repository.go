package repository

import (
	"context"
	"sort"
	"time"

	"github.com/eduprompt/eduprompt/internal/pkg/cache"
)

// queueRepository inspects the Redis keyspace that backs the counter
// buffers and the statistics cache. It is read-mostly; the only write is
// the admin purge.
type queueRepository struct{}

// NewQueueRepository creates a new queue repository instance
func NewQueueRepository() QueueRepository {
	return &queueRepository{}
}

const scanBatch = 500

// FindKeysByPatterns scans the keyspace for all given match patterns and
// returns the union, sorted for stable display.
func (r *queueRepository) FindKeysByPatterns(patterns []string) ([]string, error) {
	client := cache.GetClient()
	ctx := context.Background()

	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		var cursor uint64
		for {
			keys, next, err := client.Scan(ctx, cursor, pattern, scanBatch).Result()
			if err != nil {
				return nil, err
			}
			for _, key := range keys {
				seen[key] = struct{}{}
			}
			if next == 0 {
				break
			}
			cursor = next
		}
	}

	out := make([]string, 0, len(seen))
	for key := range seen {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}

// GetValue returns the string value stored at key.
func (r *queueRepository) GetValue(key string) (string, error) {
	return cache.GetClient().Get(context.Background(), key).Result()
}

// GetTTL returns the remaining time-to-live of key.
func (r *queueRepository) GetTTL(key string) (time.Duration, error) {
	return cache.GetClient().TTL(context.Background(), key).Result()
}

// DeleteKeys removes the given keys in batches and reports how many were
// actually deleted. Counter keys deleted here lose any unflushed counts.
func (r *queueRepository) DeleteKeys(keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	client := cache.GetClient()
	ctx := context.Background()

	var deleted int64
	for i := 0; i < len(keys); i += scanBatch {
		end := i + scanBatch
		if end > len(keys) {
			end = len(keys)
		}
		n, err := client.Del(ctx, keys[i:end]...).Result()
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}
