package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a redis server.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(addr, prefix string) *Redis {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &Redis{client: rdb, prefix: prefix}
}

// Ping checks the connection so callers can fall back to memory at startup.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: redis get %s failed: %v", key, err)
		}
		return "", false
	}
	return val, true
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Open returns a redis Store when addr is set and reachable, otherwise memory.
func Open(ctx context.Context, addr string) Store {
	if addr == "" {
		return NewMemory()
	}
	r := NewRedis(addr, "hedge:")
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.Ping(pctx); err != nil {
		log.Printf("cache: %v, using in-memory cache", err)
		_ = r.Close()
		return NewMemory()
	}
	log.Printf("cache: using redis at %s", addr)
	return r
}
