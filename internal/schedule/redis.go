package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/newsroom-cloud/analytics/internal/config"
)

// ErrEmptyRedisAddress is returned when the redis address is not
// configured.
var ErrEmptyRedisAddress = errors.New("redis address is required")

// connectionTimeout bounds the startup connection check.
const connectionTimeout = 5 * time.Second

// NewRedisClient connects the lock backend.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyRedisAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectionTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}
