package comb

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mesh-intelligence/slowcomb/internal/lru"
	"github.com/mesh-intelligence/slowcomb/pkg/types"
)

// Cached wraps a sequence with a bounded least-recently-used memo from
// position to element. It answers the same lookups as the sequence it wraps
// and is safe for concurrent use.
type Cached struct {
	seq   types.Sequence
	cache *lru.Cache[int64, any]
	attrs metric.MeasurementOption
}

// CacheStats is a snapshot of cache traffic.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	Capacity  int
}

// NewCached wraps seq with a cache holding at most capacity elements.
func NewCached(seq types.Sequence, capacity int) (*Cached, error) {
	if seq == nil {
		return nil, fmt.Errorf("%w: nil sequence", types.ErrInvalidSource)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidCapacity, capacity)
	}
	c := &Cached{seq: seq, attrs: metric.WithAttributes(cacheAttrs(seq)...)}
	c.cache = lru.New(capacity, lru.WithEvictHook(func(int64, any) {
		recordCacheEviction(context.Background(), c.attrs)
	}))
	return c, nil
}

func cacheAttrs(seq types.Sequence) []attribute.KeyValue {
	u, ok := seq.(*Unit)
	if !ok {
		return []attribute.KeyValue{attribute.String("family", "terminal")}
	}
	return []attribute.KeyValue{
		attribute.String("family", string(u.Family())),
		attribute.String("unit", u.Name()),
	}
}

// Len implements types.Sequence.
func (c *Cached) Len() int64 { return c.seq.Len() }

// At implements types.Sequence. Only successful lookups are cached. Term
// elements are copied on the way in and out, so callers may modify what they
// get back.
func (c *Cached) At(i int64) (any, error) {
	if v, ok := c.cache.Get(i); ok {
		recordCacheHit(context.Background(), c.attrs)
		return cloneElement(v), nil
	}
	recordCacheMiss(context.Background(), c.attrs)
	v, err := c.seq.At(i)
	if err != nil {
		return nil, err
	}
	c.cache.Set(i, cloneElement(v))
	return v, nil
}

func cloneElement(v any) any {
	if t, ok := v.(types.Term); ok {
		return t.Clone()
	}
	return v
}

// Index passes reverse lookup through to the wrapped sequence.
func (c *Cached) Index(x any, from int64) (int64, error) {
	idx, ok := c.seq.(types.Indexer)
	if !ok || !types.SupportsIndex(c.seq) {
		return 0, types.ErrIndexUnsupported
	}
	return idx.Index(x, from)
}

// SupportsIndex reports the wrapped sequence's capability.
func (c *Cached) SupportsIndex() bool { return types.SupportsIndex(c.seq) }

// Unwrap returns the wrapped sequence.
func (c *Cached) Unwrap() types.Sequence { return c.seq }

// Stats returns a snapshot of the cache counters.
func (c *Cached) Stats() CacheStats {
	hits, misses, evictions := c.cache.Stats()
	return CacheStats{
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
		Size:      c.cache.Len(),
		Capacity:  c.cache.Capacity(),
	}
}

// Purge drops every cached element and resets the counters.
func (c *Cached) Purge() { c.cache.Purge() }
