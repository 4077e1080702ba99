package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mitchellh/copystructure"
	"github.com/step-security-bot/hedera-mirror-node/common"
	"github.com/step-security-bot/hedera-mirror-node/log"
	"github.com/step-security-bot/hedera-mirror-node/metric"
	"golang.org/x/sync/singleflight"
)

type cacheKey struct {
	kind Kind
	key  Key
}

func (k cacheKey) String() string {
	return k.kind.String() + ":" + k.key.String()
}

type baseCache interface {
	get(k cacheKey) (entry, bool)
	add(k cacheKey, e entry)
	len() int
}

// mapCache is owned by the call contexts of a single request
type mapCache struct {
	rw      sync.RWMutex
	entries map[cacheKey]entry
}

func (c *mapCache) get(k cacheKey) (entry, bool) {
	c.rw.RLock()
	defer c.rw.RUnlock()
	e, ok := c.entries[k]
	return e, ok
}

func (c *mapCache) add(k cacheKey, e entry) {
	c.rw.Lock()
	defer c.rw.Unlock()
	c.entries[k] = e
}

func (c *mapCache) len() int {
	c.rw.RLock()
	defer c.rw.RUnlock()
	return len(c.entries)
}

// lruCache is shared by concurrent requests.  Entries expire after a TTL so
// that state imported since stays visible.
type lruCache struct {
	lru *expirable.LRU[cacheKey, entry]
}

func (c *lruCache) get(k cacheKey) (entry, bool) { return c.lru.Get(k) }
func (c *lruCache) add(k cacheKey, e entry)      { c.lru.Add(k, e) }
func (c *lruCache) len() int                     { return c.lru.Len() }

// BaseFrame is the bottom, read-only frame of a FrameStack.  It loads
// entries from a Store and keeps both values and absences.  It is safe for
// concurrent use; concurrent loads of the same key reach the Store once.
// A shared base frame returns copies of its values, so callers may modify
// what Get returns.
type BaseFrame struct {
	store  Store
	cache  baseCache
	loads  singleflight.Group
	shared bool
}

// NewBaseFrame creates an unbounded base frame, meant to live as long as a
// single request
func NewBaseFrame(store Store) *BaseFrame {
	return &BaseFrame{
		store: store,
		cache: &mapCache{entries: make(map[cacheKey]entry)},
	}
}

// NewSharedBaseFrame creates a base frame holding at most size entries,
// each for at most ttl, meant to be shared by every request
func NewSharedBaseFrame(store Store, size int, ttl time.Duration) *BaseFrame {
	return &BaseFrame{
		store:  store,
		cache:  &lruCache{lru: expirable.NewLRU[cacheKey, entry](size, nil, ttl)},
		shared: true,
	}
}

// Len returns the number of cached entries
func (b *BaseFrame) Len() int {
	return b.cache.len()
}

// Get implements Frame
func (b *BaseFrame) Get(ctx context.Context, kind Kind, key Key) (interface{}, bool, error) {
	k := cacheKey{kind: kind, key: key}
	if e, ok := b.cache.get(k); ok {
		metric.CacheHits.WithLabelValues(kind.String()).Inc()
		return b.read(e)
	}
	metric.CacheMisses.WithLabelValues(kind.String()).Inc()

	res, err, _ := b.loads.Do(k.String(), func() (interface{}, error) {
		if e, ok := b.cache.get(k); ok {
			return e, nil
		}
		start := time.Now()
		defer metric.MeasureDuration(metric.StoreLoadDuration, start, kind.String())
		value, err := b.store.Load(ctx, kind, key)
		if errors.Is(err, ErrNotFound) || common.Unwrap(err) == ErrNotFound {
			e := entry{absent: true}
			b.cache.add(k, e)
			return e, nil
		}
		if err != nil {
			return nil, common.Wrap(err)
		}
		e := entry{value: value}
		b.cache.add(k, e)
		return e, nil
	})
	if err != nil {
		log.Debugw("BaseFrame load failed", "kind", kind, "key", key, "err", err)
		return nil, false, common.Wrap(err)
	}
	return b.read(res.(entry))
}

func (b *BaseFrame) read(e entry) (interface{}, bool, error) {
	if e.absent || !b.shared || e.value == nil {
		return e.value, !e.absent, nil
	}
	value, err := copystructure.Copy(e.value)
	if err != nil {
		return nil, false, common.Wrap(err)
	}
	return value, true, nil
}
