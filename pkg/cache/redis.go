package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/lms-api/pkg/config"
)

const keyPrefix = "lms"

// NewRedis returns a configured Redis client, or nil when Redis is disabled.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// Key joins parts into a namespaced cache key, e.g. Key("dash", "admin") => "lms:dash:admin".
func Key(parts ...string) string {
	return keyPrefix + ":" + strings.Join(parts, ":")
}
