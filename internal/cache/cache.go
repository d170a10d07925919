// Package cache is the local key-value store behind the read-path fallbacks.
// Values are opaque byte slices written and read wholesale.
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

var ErrNotFound = errors.New("cache: key not found")

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Each owner writes only its own key, so last write per key wins.
const (
	VendorsKey    = "@quickorder_vendors_v3"
	ProfileKey    = "@quickorder_profile"
	HistoryKey    = "@quickorder_history"
	RestaurantKey = "@quickorder_restaurant"

	itemsKeyPrefix = "@quickorder_items_v3_"
)

func ItemsKey(vendorID string) string {
	return itemsKeyPrefix + vendorID
}

const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

type Options struct {
	Backend   string
	Path      string
	RedisURL  string
	Namespace string
}

// Open builds the configured backend. The returned func releases it.
func Open(ctx context.Context, opts Options) (Cache, func() error, error) {
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemory(), func() error { return nil }, nil

	case BackendBadger:
		b, err := OpenBadger(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil

	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, nil, errors.New("cache: redis backend needs a REDIS_URL")
		}
		redisOpt, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("cache: invalid redis url: %w", err)
		}
		client := redis.NewClient(redisOpt)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("cache: redis ping: %w", err)
		}
		return NewRedis(client, opts.Namespace), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("cache: unknown backend %q", opts.Backend)
	}
}
