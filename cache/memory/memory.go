// memory is an in-process cache backend suitable for single-instance
// deployments and tests.
package memory

import (
	"context"
	"time"

	"github.com/golfgenius/ip-client-go/cache"
	gocache "github.com/patrickmn/go-cache"
)

type Mem struct{ c *gocache.Cache }

// New creates an in-memory cache whose entries default to defaultTTL when Set
// is called with a zero ttl.
func New(defaultTTL time.Duration) *Mem {
	return &Mem{c: gocache.New(defaultTTL, time.Minute)}
}

var _ cache.Cache = (*Mem)(nil)

func (m *Mem) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	b, ok := v.([]byte)
	return b, ok
}

func (m *Mem) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	m.c.Set(key, value, ttl)
}

func (m *Mem) Delete(_ context.Context, key string) { m.c.Delete(key) }
