package trust

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the distributed alternative to MemoryStore, for deployments
// that run more than one analysis worker and need trust history shared
// across processes (spec.md §5, "a sharded lock or per-customer mailbox").
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore builds a RedisStore. ttl is the expiry applied to each
// customer's cached score; zero disables expiry.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "trust:score:"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (rs *RedisStore) key(customerID string) string {
	return rs.prefix + customerID
}

func (rs *RedisStore) PreviousScore(ctx context.Context, customerID string) (float64, bool, error) {
	val, err := rs.client.Get(ctx, rs.key(customerID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("trust: redis get %s: %w", customerID, err)
	}
	score, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, fmt.Errorf("trust: parse cached score for %s: %w", customerID, err)
	}
	return score, true, nil
}

func (rs *RedisStore) SetScore(ctx context.Context, customerID string, score float64) error {
	if err := rs.client.Set(ctx, rs.key(customerID), strconv.FormatFloat(score, 'f', -1, 64), rs.ttl).Err(); err != nil {
		return fmt.Errorf("trust: redis set %s: %w", customerID, err)
	}
	return nil
}
