package logo

import (
	"strings"
	"time"

	"tracepay/internal/cache"
)

// Resolver memoizes Match for a registry. Transaction feeds repeat the
// same descriptors, so lookups are served from a bounded LRU.
type Resolver struct {
	registry *Registry
	memo     *cache.LRUCache[Asset]
}

// NewResolver wraps r with a memo of at most size names kept for ttl.
func NewResolver(r *Registry, size int, ttl time.Duration) *Resolver {
	return &Resolver{registry: r, memo: cache.NewLRUCache[Asset](size, ttl)}
}

// Resolve returns the same result as Registry.Match.
func (res *Resolver) Resolve(name string) (Asset, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	if a, ok := res.memo.Get(key); ok {
		return a, a != ""
	}
	a, ok := res.registry.Match(key)
	// Misses are memoized too, as the empty asset.
	res.memo.Set(key, a)
	return a, ok
}

// Registry returns the wrapped registry.
func (res *Resolver) Registry() *Registry { return res.registry }

// Memo exposes the memo so it can be registered with a cache.Manager.
func (res *Resolver) Memo() cache.Cleaner { return res.memo }

// BuiltinResolvers returns one resolver per built-in registry.
func BuiltinResolvers(size int, ttl time.Duration) map[Kind]*Resolver {
	return map[Kind]*Resolver{
		KindBank:         NewResolver(banks, size, ttl),
		KindSubscription: NewResolver(subscriptions, size, ttl),
	}
}
