package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is used when NewCached is given a non-positive TTL.
const DefaultCacheTTL = time.Minute

// Logger is the slog-compatible subset used to report cache failures.
type Logger interface {
	Warn(msg string, args ...any)
}

// Cached is a read-through Redis cache in front of another Directory.
// Misses are not cached, so a user created later is found on the next lookup.
// Redis failures fall back to the wrapped directory.
type Cached struct {
	next   Directory
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	logger Logger
}

// CacheOption configures a Cached directory.
type CacheOption func(*Cached)

// WithKeyPrefix sets the prefix of the cache keys. Default "jwtgate:user:".
func WithKeyPrefix(prefix string) CacheOption {
	return func(c *Cached) {
		c.prefix = prefix
	}
}

// WithCacheLogger reports cache failures to logger.
func WithCacheLogger(logger Logger) CacheOption {
	return func(c *Cached) {
		c.logger = logger
	}
}

// NewCached wraps next with a cache stored in client.
func NewCached(next Directory, client redis.UniversalClient, ttl time.Duration, opts ...CacheOption) (*Cached, error) {
	if next == nil {
		return nil, errors.New("directory cannot be nil")
	}
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	c := &Cached{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: "jwtgate:user:",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// FindUserByID implements Directory.
func (c *Cached) FindUserByID(ctx context.Context, id string) (*User, error) {
	key := c.prefix + id

	user, err := c.get(ctx, key)
	if err == nil && user != nil {
		return user, nil
	}
	if err != nil {
		c.warn("failed to read user from cache", "error", err, "user_id", id)
	}

	user, err = c.next.FindUserByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}

	if err := c.set(ctx, key, user); err != nil {
		c.warn("failed to write user to cache", "error", err, "user_id", id)
	}
	return user, nil
}

// Invalidate drops the cached entry of a user, e.g. after a password change.
func (c *Cached) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, c.prefix+id).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached user %q: %w", id, err)
	}
	return nil
}

func (c *Cached) get(ctx context.Context, key string) (*User, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(val, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached user: %w", err)
	}
	return &user, nil
}

func (c *Cached) set(ctx context.Context, key string, user *User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *Cached) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
