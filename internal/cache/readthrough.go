package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

const (
	DefaultMaxAge         = 5 * time.Minute
	defaultRefreshTimeout = 30 * time.Second
)

// Fetcher loads the authoritative value for a key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Refresh is the outcome of a background revalidation.
type Refresh[T any] struct {
	Value     T
	FetchedAt time.Time
	Err       error
	// Superseded is set when the key was invalidated while the refresh ran. Value predates the
	// invalidation and was not stored.
	Superseded bool
}

// Result is what Get hands back. When Stale is set a background refresh was started and its
// outcome is delivered once on Refreshed, which is then closed.
type Result[T any] struct {
	Value     T
	FetchedAt time.Time
	FromCache bool
	Stale     bool
	Refreshed <-chan Refresh[T]
}

type Options struct {
	MaxAge         time.Duration
	RefreshTimeout time.Duration
	Now            func() time.Time
}

// ReadThrough serves values from a Store, fetching on a miss. Entries older than MaxAge are
// served immediately and revalidated in the background. Concurrent loads of one key share a
// single fetch.
type ReadThrough[T any] struct {
	log            *logger.Logger
	store          Store
	maxAge         time.Duration
	refreshTimeout time.Duration
	now            func() time.Time

	group singleflight.Group
	wg    sync.WaitGroup

	mu     sync.Mutex
	epochs map[string]uint64
}

type loaded[T any] struct {
	value      T
	at         time.Time
	superseded bool
}

func NewReadThrough[T any](log *logger.Logger, store Store, opts Options) *ReadThrough[T] {
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = defaultRefreshTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ReadThrough[T]{
		log:            log.With("service", "ReadThroughCache"),
		store:          store,
		maxAge:         opts.MaxAge,
		refreshTimeout: opts.RefreshTimeout,
		now:            opts.Now,
		epochs:         map[string]uint64{},
	}
}

func (c *ReadThrough[T]) Get(ctx context.Context, key string, fetch Fetcher[T]) (Result[T], error) {
	if fetch == nil {
		return Result[T]{}, fmt.Errorf("cache: nil fetcher for %s", key)
	}
	if value, at, ok := c.lookup(ctx, key); ok {
		res := Result[T]{Value: value, FetchedAt: at, FromCache: true}
		if c.now().Sub(at) <= c.maxAge {
			return res, nil
		}
		res.Stale = true
		res.Refreshed = c.revalidate(ctx, key, fetch)
		return res, nil
	}

	l, err := c.load(ctx, key, fetch)
	if err != nil {
		return Result[T]{}, err
	}
	return Result[T]{Value: l.value, FetchedAt: l.at}, nil
}

// Invalidate drops the entry so the next Get fetches. Fetches already running for key are not
// stored when they finish.
func (c *ReadThrough[T]) Invalidate(ctx context.Context, key string) error {
	c.mu.Lock()
	c.epochs[key]++
	c.mu.Unlock()
	c.group.Forget(key)
	if err := c.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("cache: invalidate %s: %w", key, err)
	}
	return nil
}

// Wait blocks until every background refresh has finished.
func (c *ReadThrough[T]) Wait() {
	c.wg.Wait()
}

func (c *ReadThrough[T]) lookup(ctx context.Context, key string) (T, time.Time, bool) {
	var zero T
	e, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			c.log.Warn("Cache read failed, fetching", "key", key, "error", err)
		}
		return zero, time.Time{}, false
	}
	var value T
	if err := json.Unmarshal(e.Payload, &value); err != nil {
		c.log.Warn("Cache entry undecodable, fetching", "key", key, "error", err)
		return zero, time.Time{}, false
	}
	return value, e.Timestamp, true
}

func (c *ReadThrough[T]) load(ctx context.Context, key string, fetch Fetcher[T]) (loaded[T], error) {
	v, err, _ := c.group.Do(key, func() (any, error) {
		epoch := c.epoch(key)
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		at := c.now()
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache: encode %s: %w", key, err)
		}
		stored, err := c.storeIfCurrent(ctx, key, epoch, Entry{Payload: raw, Timestamp: at})
		if err != nil {
			c.log.Warn("Cache write failed", "key", key, "error", err)
		}
		if !stored && err == nil {
			c.log.Debug("Fetch superseded by invalidate, not stored", "key", key)
		}
		return loaded[T]{value: value, at: at, superseded: !stored && err == nil}, nil
	})
	if err != nil {
		return loaded[T]{}, err
	}
	return v.(loaded[T]), nil
}

func (c *ReadThrough[T]) epoch(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epochs[key]
}

// storeIfCurrent writes e unless key was invalidated since epoch was read. The lock is held across
// the write so an Invalidate cannot slip between the check and the Set.
func (c *ReadThrough[T]) storeIfCurrent(ctx context.Context, key string, epoch uint64, e Entry) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epochs[key] != epoch {
		return false, nil
	}
	return true, c.store.Set(ctx, key, e)
}

func (c *ReadThrough[T]) revalidate(ctx context.Context, key string, fetch Fetcher[T]) <-chan Refresh[T] {
	out := make(chan Refresh[T], 1)
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		defer close(out)
		l, err := c.load(bg, key, fetch)
		if err != nil {
			c.log.Warn("Background refresh failed", "key", key, "error", err)
		}
		out <- Refresh[T]{Value: l.value, FetchedAt: l.at, Err: err, Superseded: l.superseded}
	}()
	return out
}
