// cache defines the cache abstraction the oidc package uses to share the
// provider discovery document across processes. The core never depends on a
// specific caching runtime: any backend implementing Cache can be injected,
// and running without one simply refetches on every expiry.
package cache

import (
	"context"
	"time"
)

// Cache is a minimal get/set/delete store with per-entry TTLs. A zero ttl
// means the entry does not expire. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)

	// Delete removes key.
	Delete(ctx context.Context, key string)
}
