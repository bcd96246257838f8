// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// l1.go — sharded in-process cache of type mappings keyed by the 32-bit
// type id, with per-entry TTL, bounded shards and a background sweeper.

// Package l1 provides the in-memory tier of the type-mapping store.
package l1

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AndrewDonelson/gridcodec/internal/clock"
)

const numShards = 64

// EvictionPolicy determines which entry is removed when a shard is full.
type EvictionPolicy int

const (
	LRU  EvictionPolicy = iota // Least Recently Used
	FIFO                       // First In, First Out
)

// Options configures a Store.
type Options struct {
	TTL           time.Duration
	MaxEntries    int // per shard; zero means unbounded
	Eviction      EvictionPolicy
	SweepInterval time.Duration
	Clock         clock.Clock
	OnEvict       func(id int32)
}

type entry[V any] struct {
	id        int32
	value     V
	expiresAt time.Time
	elem      *list.Element
}

type shard[V any] struct {
	mu    sync.Mutex
	items map[int32]*entry[V]
	order *list.List
}

// Store maps type ids to values of type V.
type Store[V any] struct {
	shards [numShards]*shard[V]
	opts   Options
	hits   atomic.Int64
	misses atomic.Int64
	stopCh chan struct{}
	once   sync.Once
}

// New creates a Store and starts its sweeper.
func New[V any](opts Options) *Store[V] {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.SweepInterval == 0 {
		opts.SweepInterval = 30 * time.Second
	}
	s := &Store[V]{opts: opts, stopCh: make(chan struct{})}
	for i := range s.shards {
		s.shards[i] = &shard[V]{items: make(map[int32]*entry[V]), order: list.New()}
	}
	go s.sweepLoop()
	return s
}

func (s *Store[V]) shardFor(id int32) *shard[V] {
	// Fibonacci hashing spreads the sequential ids registries tend to hand out.
	h := uint32(id) * 2654435769
	return s.shards[h>>26]
}

// Set stores v under id. A zero ttl uses the store default; a negative ttl
// never expires.
func (s *Store[V]) Set(id int32, v V, ttl time.Duration) {
	if ttl == 0 {
		ttl = s.opts.TTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = s.opts.Clock.Now().Add(ttl)
	}

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if e, ok := sh.items[id]; ok {
		e.value = v
		e.expiresAt = expiresAt
		if s.opts.Eviction == LRU {
			sh.order.MoveToFront(e.elem)
		}
		return
	}
	if s.opts.MaxEntries > 0 && len(sh.items) >= s.opts.MaxEntries {
		if back := sh.order.Back(); back != nil {
			s.remove(sh, back.Value.(*entry[V]))
		}
	}
	e := &entry[V]{id: id, value: v, expiresAt: expiresAt}
	e.elem = sh.order.PushFront(e)
	sh.items[id] = e
}

// Get returns the value stored under id.
func (s *Store[V]) Get(id int32) (V, bool) {
	var zero V
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	e, ok := sh.items[id]
	if !ok {
		s.misses.Add(1)
		return zero, false
	}
	if !e.expiresAt.IsZero() && s.opts.Clock.Now().After(e.expiresAt) {
		s.remove(sh, e)
		s.misses.Add(1)
		return zero, false
	}
	if s.opts.Eviction == LRU {
		sh.order.MoveToFront(e.elem)
	}
	s.hits.Add(1)
	return e.value, true
}

// Delete removes id.
func (s *Store[V]) Delete(id int32) {
	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok := sh.items[id]; ok {
		s.remove(sh, e)
	}
}

// Flush removes every entry without firing OnEvict.
func (s *Store[V]) Flush() {
	for _, sh := range s.shards {
		sh.mu.Lock()
		clear(sh.items)
		sh.order.Init()
		sh.mu.Unlock()
	}
}

// Stats holds hit/miss/entry counts.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int64
}

// Stats returns current statistics.
func (s *Store[V]) Stats() Stats {
	var total int64
	for _, sh := range s.shards {
		sh.mu.Lock()
		total += int64(len(sh.items))
		sh.mu.Unlock()
	}
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load(), Entries: total}
}

// Close stops the sweeper. It is safe to call more than once.
func (s *Store[V]) Close() {
	s.once.Do(func() { close(s.stopCh) })
}

func (s *Store[V]) sweepLoop() {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}

// Sweep drops expired entries.
func (s *Store[V]) Sweep() {
	now := s.opts.Clock.Now()
	for _, sh := range s.shards {
		sh.mu.Lock()
		for _, e := range sh.items {
			if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
				s.remove(sh, e)
			}
		}
		sh.mu.Unlock()
	}
}

func (s *Store[V]) remove(sh *shard[V], e *entry[V]) {
	delete(sh.items, e.id)
	sh.order.Remove(e.elem)
	if s.opts.OnEvict != nil {
		s.opts.OnEvict(e.id)
	}
}
