// Package redisrevocation stores the session deny-list in Redis so that every
// server instance sees a logout.
package redisrevocation

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-room-server/token"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:session:"

var _ token.RevokedTokenCache = (*Cache)(nil)

type Cache struct {
	client  redis.UniversalClient
	nowFunc func() time.Time
}

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Connect opens a client and pings it once.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("[redisrevocation Connect] ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func New(client redis.UniversalClient) *Cache {
	return &Cache{client: client, nowFunc: time.Now}
}

func Key(jti string) string {
	return keyPrefix + jti
}

// Add stores jti until exp; already expired tokens are not stored.
func (c *Cache) Add(ctx context.Context, jti string, exp time.Time) error {
	ttl := exp.Sub(c.nowFunc())
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, Key(jti), 1, ttl).Err(); err != nil {
		return fmt.Errorf("[redisrevocation Add] %w", err)
	}
	return nil
}

func (c *Cache) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := c.client.Exists(ctx, Key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("[redisrevocation IsRevoked] %w", err)
	}
	return n > 0, nil
}
