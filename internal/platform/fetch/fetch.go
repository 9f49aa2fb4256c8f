// Package fetch provides a cached read-through resource with an explicit
// fetch state, replacing boolean loading flags paired with nullable data.
//
// A Resource serves reads from a local snapshot (optionally mirrored in
// redis) and reloads from its authoritative loader when the snapshot is
// older than the TTL. Concurrent reloads are deduplicated with singleflight.
// Consumers always learn whether the value they got is fresh or stale.
package fetch

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"tally/internal/platform/redis"
)

// Status is the lifecycle state of a cached resource.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusLoading    Status = "loading"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Result is what a read returns: the value, its lifecycle status, and
// whether the value is a stale snapshot relative to the authoritative store.
type Result[T any] struct {
	Value     T
	Status    Status
	Stale     bool
	FetchedAt time.Time
	Err       error
}

// Loader fetches the authoritative value.
type Loader[T any] func(ctx context.Context) (T, error)

// Resource is a read-through cache for a single logical value.
type Resource[T any] struct {
	name   string
	ttl    time.Duration
	loader Loader[T]
	cache  *redis.Client // optional cross-process mirror

	sf      singleflight.Group
	loading atomic.Bool

	mu        sync.RWMutex
	value     T
	fetchedAt time.Time
	populated bool
	lastErr   error
}

// Option configures a Resource.
type Option[T any] func(*Resource[T])

// WithRedis mirrors the snapshot in redis under "fetch:<name>" so restarts
// and sibling processes share it. A nil client is ignored.
func WithRedis[T any](client *redis.Client) Option[T] {
	return func(r *Resource[T]) {
		r.cache = client
	}
}

func NewResource[T any](name string, ttl time.Duration, loader Loader[T], opts ...Option[T]) *Resource[T] {
	r := &Resource[T]{name: name, ttl: ttl, loader: loader}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Status reports the resource's current state without triggering a load.
func (r *Resource[T]) Status() Status {
	if r.loading.Load() {
		return StatusLoading
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.populated:
		return StatusReady
	case r.lastErr != nil:
		return StatusFailed
	default:
		return StatusNotStarted
	}
}

// Get returns the cached value, reloading when the snapshot is missing or
// older than the TTL. When a reload fails but an earlier snapshot exists,
// that snapshot is returned marked stale; with no snapshot at all the
// failure is surfaced.
func (r *Resource[T]) Get(ctx context.Context) Result[T] {
	r.mu.RLock()
	value, fetchedAt, populated := r.value, r.fetchedAt, r.populated
	r.mu.RUnlock()

	if populated && time.Since(fetchedAt) <= r.ttl {
		return Result[T]{Value: value, Status: StatusReady, FetchedAt: fetchedAt}
	}

	loaded, err, _ := r.sf.Do(r.name, func() (any, error) {
		r.loading.Store(true)
		defer r.loading.Store(false)
		return r.load(ctx)
	})
	if err != nil {
		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()
		if populated {
			return Result[T]{Value: value, Status: StatusReady, Stale: true, FetchedAt: fetchedAt}
		}
		var zero T
		return Result[T]{Value: zero, Status: StatusFailed, Err: err}
	}

	res := loaded.(Result[T])
	return res
}

func (r *Resource[T]) load(ctx context.Context) (Result[T], error) {
	if v, ok := r.fromRedis(ctx); ok {
		r.store(v)
		return Result[T]{Value: v, Status: StatusReady, FetchedAt: time.Now()}, nil
	}

	v, err := r.loader(ctx)
	if err != nil {
		return Result[T]{}, err
	}

	r.store(v)
	r.toRedis(ctx, v)
	return Result[T]{Value: v, Status: StatusReady, FetchedAt: time.Now()}, nil
}

// Invalidate drops the snapshot everywhere; the next Get reloads from the
// authoritative source. Call after any mutation of the underlying data.
func (r *Resource[T]) Invalidate(ctx context.Context) {
	r.mu.Lock()
	var zero T
	r.value = zero
	r.populated = false
	r.fetchedAt = time.Time{}
	r.mu.Unlock()

	if r.cache != nil {
		r.cache.Del(ctx, r.redisKey())
	}
}

func (r *Resource[T]) store(v T) {
	r.mu.Lock()
	r.value = v
	r.fetchedAt = time.Now()
	r.populated = true
	r.lastErr = nil
	r.mu.Unlock()
}

func (r *Resource[T]) redisKey() string { return "fetch:" + r.name }

func (r *Resource[T]) fromRedis(ctx context.Context) (T, bool) {
	var zero T
	if r.cache == nil {
		return zero, false
	}
	raw, err := r.cache.Get(ctx, r.redisKey()).Bytes()
	if err != nil {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false
	}
	return v, true
}

func (r *Resource[T]) toRedis(ctx context.Context, v T) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	r.cache.Set(ctx, r.redisKey(), raw, r.ttl)
}
