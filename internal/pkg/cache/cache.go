package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// ErrDisabled is returned by cache operations when no cache server is
// configured. Callers treat it like a miss.
var ErrDisabled = errors.New("cache disabled")

// Config carries the optional cache server settings.
type Config struct {
	Host string
	Port string
}

// Complete reports whether a cache server is configured.
func (c Config) Complete() bool {
	return c.Host != "" && c.Port != ""
}

// SetupCache connects to the cache server. Without configuration the
// service runs fine, it just loses status tracking and counters.
func SetupCache(cfg Config) {
	if !cfg.Complete() {
		log.Printf("Cache not configured, status tracking disabled")
		return
	}

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: "", // no password set
		DB:       0,  // use default DB
	})

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to cache: %v", err)
	} else {
		log.Printf("Successfully connected to cache: %s", pong)
	}
}

// Enabled reports whether a cache client exists.
func Enabled() bool {
	return client != nil
}

// GetClient returns the Redis client instance, nil when disabled.
func GetClient() *redis.Client {
	return client
}

// Set stores a value in the cache with the given key and expiration time
func Set(key string, value interface{}, expiration time.Duration) error {
	if client == nil {
		return ErrDisabled
	}
	return client.Set(ctx, key, value, expiration).Err()
}

// Get retrieves a value from the cache by key
func Get(key string) (string, error) {
	if client == nil {
		return "", ErrDisabled
	}
	return client.Get(ctx, key).Result()
}
