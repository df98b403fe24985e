package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tracepay/internal/kv"
)

const (
	// KeyPrefix namespaces gate entries inside a shared kv.Store.
	KeyPrefix = "tracepay_dashboard_cache_"

	// DefaultTTL is the max-age dashboard pages use when none is given.
	DefaultTTL = 5 * time.Minute

	// pruneAge bounds which entries may be dropped to make room after a
	// failed write.
	pruneAge = time.Hour
)

// entry is the persisted form of a gate value.
type entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp *int64          `json:"timestamp"`
	Key       string          `json:"key"`
}

// Observer receives gate events. internal/metrics provides the Prometheus
// implementation.
type Observer interface {
	CacheHit(key string)
	CacheMiss(key string)
	CacheStore(key string, err error)
}

type nopObserver struct{}

func (nopObserver) CacheHit(string)          {}
func (nopObserver) CacheMiss(string)         {}
func (nopObserver) CacheStore(string, error) {}

// Gate remembers the last payload written under a key together with the
// time it was written, so callers can skip a fetch while that payload is
// still fresh. Entries are age-gated only: a stale entry stays in storage
// until it is overwritten or explicitly cleared.
type Gate struct {
	store    kv.Store
	now      func() time.Time
	prefix   string
	logger   *slog.Logger
	observer Observer
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithPrefix overrides KeyPrefix.
func WithPrefix(prefix string) Option {
	return func(g *Gate) { g.prefix = prefix }
}

// WithLogger sets the logger used for swallowed read failures.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithObserver registers an event observer.
func WithObserver(o Observer) Option {
	return func(g *Gate) {
		if o != nil {
			g.observer = o
		}
	}
}

// NewGate returns a Gate persisting into store.
func NewGate(store kv.Store, opts ...Option) *Gate {
	g := &Gate{
		store:    store,
		now:      time.Now,
		prefix:   KeyPrefix,
		logger:   slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store associates key with payload and the current time, replacing any
// previous entry. payload must be JSON-serializable.
//
// If the write fails, entries older than one hour are pruned and the write
// is retried once; a second failure is returned to the caller.
func (g *Gate) Store(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload for %q: %w", key, err)
	}
	ts := g.now().UnixMilli()
	raw, err := json.Marshal(entry{Data: data, Timestamp: &ts, Key: key})
	if err != nil {
		return fmt.Errorf("encode entry for %q: %w", key, err)
	}

	err = g.store.Set(ctx, g.prefix+key, string(raw))
	if err != nil && ctx.Err() == nil {
		g.logger.WarnContext(ctx, "Cache write failed, pruning old entries",
			"component", "cache", "key", key, "error", err)
		if _, perr := g.pruneOlderThan(ctx, pruneAge); perr != nil {
			g.logger.WarnContext(ctx, "Cache prune failed", "component", "cache", "error", perr)
		}
		err = g.store.Set(ctx, g.prefix+key, string(raw))
	}
	g.observer.CacheStore(key, err)
	if err != nil {
		return fmt.Errorf("store %q: %w", key, err)
	}
	return nil
}

// IsFresh reports whether an entry exists for key and its age is at most
// maxAge. Storage failures and malformed entries report false.
func (g *Gate) IsFresh(ctx context.Context, key string, maxAge time.Duration) bool {
	age, ok := g.Age(ctx, key)
	fresh := ok && age <= maxAge
	if fresh {
		g.observer.CacheHit(key)
	} else {
		g.observer.CacheMiss(key)
	}
	return fresh
}

// Age returns how long ago key was stored. ok is false when there is no
// readable entry.
func (g *Gate) Age(ctx context.Context, key string) (age time.Duration, ok bool) {
	e, err := g.load(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			g.logger.DebugContext(ctx, "Cache entry unreadable", "component", "cache", "key", key, "error", err)
		}
		return 0, false
	}
	// Timestamps are stored in whole milliseconds; compare at that precision.
	return time.Duration(g.now().UnixMilli()-*e.Timestamp) * time.Millisecond, true
}

// Read decodes the payload stored under key into dst. A missing or
// malformed entry is a miss, not an error; only storage failures are
// returned.
func (g *Gate) Read(ctx context.Context, key string, dst any) (bool, error) {
	e, err := g.load(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, kv.ErrNotFound):
		return false, nil
	case errors.Is(err, errMalformed):
		g.logger.DebugContext(ctx, "Ignoring malformed cache entry", "component", "cache", "key", key, "error", err)
		return false, nil
	default:
		return false, fmt.Errorf("read %q: %w", key, err)
	}

	if err := json.Unmarshal(e.Data, dst); err != nil {
		g.logger.DebugContext(ctx, "Cache payload does not match destination", "component", "cache", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

// Load is the generic form of Read.
func Load[T any](ctx context.Context, g *Gate, key string) (T, bool, error) {
	var v T
	ok, err := g.Read(ctx, key, &v)
	if !ok {
		var zero T
		return zero, false, err
	}
	return v, true, nil
}

// Clear removes the entry for key.
func (g *Gate) Clear(ctx context.Context, key string) error {
	if err := g.store.Remove(ctx, g.prefix+key); err != nil {
		return fmt.Errorf("clear %q: %w", key, err)
	}
	return nil
}

// ClearAll removes every gate entry, leaving other keys in the store alone.
func (g *Gate) ClearAll(ctx context.Context) error {
	keys, err := g.store.Keys(ctx, g.prefix)
	if err != nil {
		return fmt.Errorf("list cache keys: %w", err)
	}
	for _, k := range keys {
		if err := g.store.Remove(ctx, k); err != nil {
			return fmt.Errorf("clear %q: %w", strings.TrimPrefix(k, g.prefix), err)
		}
	}
	return nil
}

// Keys returns the caller-facing keys of all gate entries.
func (g *Gate) Keys(ctx context.Context) ([]string, error) {
	keys, err := g.store.Keys(ctx, g.prefix)
	if err != nil {
		return nil, fmt.Errorf("list cache keys: %w", err)
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, g.prefix))
	}
	return out, nil
}

var errMalformed = errors.New("malformed cache entry")

func (g *Gate) load(ctx context.Context, key string) (entry, error) {
	raw, err := g.store.Get(ctx, g.prefix+key)
	if err != nil {
		return entry{}, err
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return entry{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if e.Timestamp == nil || len(e.Data) == 0 {
		return entry{}, fmt.Errorf("%w: missing data or timestamp", errMalformed)
	}
	return e, nil
}

// pruneOlderThan removes gate entries older than age, plus entries that
// cannot be parsed.
func (g *Gate) pruneOlderThan(ctx context.Context, age time.Duration) (int, error) {
	keys, err := g.store.Keys(ctx, g.prefix)
	if err != nil {
		return 0, err
	}
	cutoff := g.now().Add(-age).UnixMilli()
	removed := 0
	for _, k := range keys {
		key := strings.TrimPrefix(k, g.prefix)
		e, err := g.load(ctx, key)
		switch {
		case errors.Is(err, kv.ErrNotFound):
			continue
		case err != nil && !errors.Is(err, errMalformed):
			return removed, err
		case err == nil && *e.Timestamp >= cutoff:
			continue
		}
		if err := g.store.Remove(ctx, k); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
