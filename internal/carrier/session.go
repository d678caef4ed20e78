package carrier

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jafarshop/backoffice/internal/config"
)

// SessionCache stores carrier session tokens between calls
type SessionCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, token string, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// InMemorySessionCache keeps tokens in process memory
type InMemorySessionCache struct {
	mu      sync.Mutex
	entries map[string]sessionEntry
	now     func() time.Time
}

type sessionEntry struct {
	token     string
	expiresAt time.Time
}

// NewInMemorySessionCache creates an empty in-memory session cache
func NewInMemorySessionCache() *InMemorySessionCache {
	return &InMemorySessionCache{
		entries: make(map[string]sessionEntry),
		now:     time.Now,
	}
}

func (c *InMemorySessionCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return "", false, nil
	}
	return entry.token, true, nil
}

func (c *InMemorySessionCache) Set(_ context.Context, key, token string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = sessionEntry{token: token, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *InMemorySessionCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

var _ SessionCache = (*InMemorySessionCache)(nil)

// RedisSessionCache shares tokens across server instances
type RedisSessionCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSessionCache connects to redis and verifies the connection
func NewRedisSessionCache(cfg config.RedisConfig) (*RedisSessionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for carrier sessions: %w", err)
	}

	return NewRedisSessionCacheWithClient(client), nil
}

// NewRedisSessionCacheWithClient wraps an existing redis client
func NewRedisSessionCacheWithClient(client *redis.Client) *RedisSessionCache {
	return &RedisSessionCache{
		client:    client,
		keyPrefix: "carrier:session:",
	}
}

func (c *RedisSessionCache) Get(ctx context.Context, key string) (string, bool, error) {
	token, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read carrier session: %w", err)
	}
	return token, true, nil
}

func (c *RedisSessionCache) Set(ctx context.Context, key, token string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.keyPrefix+key, token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store carrier session: %w", err)
	}
	return nil
}

func (c *RedisSessionCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate carrier session: %w", err)
	}
	return nil
}

// Close closes the redis client
func (c *RedisSessionCache) Close() error {
	return c.client.Close()
}

var _ SessionCache = (*RedisSessionCache)(nil)
