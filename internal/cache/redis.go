package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Namespace prefixes every key m3uforge writes, so one Redis database can
// be shared with other applications.
const Namespace = "m3uforge:"

// Redis is a go-redis client scoped to Namespace. Helpers in this package
// take unprefixed keys and patterns.
type Redis struct {
	client *redis.Client
}

// New connects to the Redis at rawURL ("redis://host:6379/0"). The
// connection is lazy; call Ping to check it.
func New(rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func nsKey(key string) string { return Namespace + key }

// Get loads the JSON value stored under key into a T. found is false, with a
// nil error, when the key does not exist.
func Get[T any](ctx context.Context, r *Redis, key string) (v T, found bool, err error) {
	raw, err := r.client.Get(ctx, nsKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return v, true, nil
}

// Set stores v as JSON under key for ttl.
func Set(ctx context.Context, r *Redis, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return r.client.Set(ctx, nsKey(key), data, ttl).Err()
}

// Del removes keys; missing keys are not an error.
func Del(ctx context.Context, r *Redis, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = nsKey(k)
	}
	return r.client.Del(ctx, full...).Err()
}

// DelPattern removes every key matching the glob pattern, e.g. "playlist:*".
// It walks the keyspace with SCAN rather than KEYS.
func DelPattern(ctx context.Context, r *Redis, pattern string) error {
	iter := r.client.Scan(ctx, 0, nsKey(pattern), 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("cache del %s: %w", pattern, err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan %s: %w", pattern, err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("cache del %s: %w", pattern, err)
		}
	}
	return nil
}
