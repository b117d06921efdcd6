// redis is a cache backend for sharing cached entries between application
// instances.
package redis

import (
	"context"
	"time"

	"github.com/golfgenius/ip-client-go/cache"
	rdb "github.com/redis/go-redis/v9"
)

type Cache struct {
	c      *rdb.Client
	prefix string
}

// New creates a redis-backed cache. An optional prefix namespaces every key,
// which keeps multiple clients from colliding on a shared redis.
func New(client *rdb.Client, prefix string) *Cache {
	return &Cache{c: client, prefix: prefix}
}

var _ cache.Cache = (*Cache)(nil)

func (r *Cache) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.c.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		return nil, false
	}
	return b, true
}

func (r *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_ = r.c.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *Cache) Delete(ctx context.Context, key string) {
	_ = r.c.Del(ctx, r.key(key)).Err()
}
