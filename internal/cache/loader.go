package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc produces a fresh value for a Loader.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Result is what a Loader returns.
type Result[T any] struct {
	Data      T
	FromCache bool
	// Age of the cached entry; zero for a fresh fetch.
	Age time.Duration
}

// Loader reads through a Gate: fresh cached data is returned as is,
// otherwise fetch runs and its result is stored. Concurrent misses for
// the same loader share a single fetch.
type Loader[T any] struct {
	gate  *Gate
	key   string
	ttl   time.Duration
	fetch FetchFunc[T]
	group singleflight.Group
}

// NewLoader creates a loader for key. ttl <= 0 uses DefaultTTL.
func NewLoader[T any](gate *Gate, key string, ttl time.Duration, fetch FetchFunc[T]) *Loader[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Loader[T]{gate: gate, key: key, ttl: ttl, fetch: fetch}
}

// Key returns the gate key this loader reads and writes.
func (l *Loader[T]) Key() string { return l.key }

// Get returns the cached value when fresh, unless force is set. A caller
// whose ctx ends stops waiting, but the shared fetch keeps running for the
// other callers.
func (l *Loader[T]) Get(ctx context.Context, force bool) (Result[T], error) {
	if !force && l.gate.IsFresh(ctx, l.key, l.ttl) {
		v, ok, err := Load[T](ctx, l.gate, l.key)
		if err == nil && ok {
			age, _ := l.gate.Age(ctx, l.key)
			return Result[T]{Data: v, FromCache: true, Age: age}, nil
		}
	}

	// The shared fetch must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan(l.key, func() (any, error) {
		data, err := l.fetch(shared)
		if err != nil {
			return nil, err
		}
		// The fetch succeeded; a failed cache write only costs a refetch next time.
		if serr := l.gate.Store(shared, l.key, data); serr != nil {
			l.gate.logger.WarnContext(shared, "Failed to cache fetched data",
				"component", "cache", "key", l.key, "error", serr)
		}
		return data, nil
	})

	var zero Result[T]
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return Result[T]{Data: res.Val.(T)}, nil
	}
}
