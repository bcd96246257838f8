// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// l2.go — Redis tier: raw serialized cache records, the shared type-id to
// class-name mapping hash, pub/sub for mapping invalidation, and the ErrMiss
// sentinel that drives tier fallthrough in the mapping store.

// Package l2 provides the Redis tier adapter.
package l2

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key or mapping does not exist in Redis.
// Callers use errors.Is(err, l2.ErrMiss) to distinguish a miss from a
// genuine Redis error.
var ErrMiss = errors.New("l2: miss")

const mappingsKey = "mappings"

// cmdSlicePool pools []*redis.StringCmd slices used by GetRecords.
var cmdSlicePool = sync.Pool{
	New: func() any {
		s := make([]*redis.StringCmd, 0, 16)
		return &s
	},
}

// Store is the Redis adapter.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
	hits      atomic.Int64
	misses    atomic.Int64
}

// Options configures a new Store.
type Options struct {
	Client    redis.UniversalClient
	KeyPrefix string
}

// New creates a new Store.
func New(opts Options) *Store {
	return &Store{client: opts.Client, keyPrefix: opts.KeyPrefix}
}

func (s *Store) prefixed(k string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + ":" + k
	}
	return k
}

// RecordKey returns the Redis key holding a cache entry's serialized bytes.
func (s *Store) RecordKey(cache, key string) string {
	return s.prefixed("rec:" + cache + ":" + key)
}

// ── Records ──────────────────────────────────────────────────────────────────

// SetRecord stores serialized record bytes. A ttl <= 0 persists indefinitely.
func (s *Store) SetRecord(ctx context.Context, cache, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	k := s.RecordKey(cache, key)
	if err := s.client.Set(ctx, k, data, ttl).Err(); err != nil {
		return fmt.Errorf("l2 set %s: %w", k, err)
	}
	return nil
}

// GetRecord returns the stored bytes or ErrMiss.
func (s *Store) GetRecord(ctx context.Context, cache, key string) ([]byte, error) {
	k := s.RecordKey(cache, key)
	b, err := s.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("l2 get %s: %w", k, err)
	}
	s.hits.Add(1)
	return b, nil
}

// DeleteRecord removes a stored record.
func (s *Store) DeleteRecord(ctx context.Context, cache, key string) error {
	k := s.RecordKey(cache, key)
	if err := s.client.Del(ctx, k).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("l2 delete %s: %w", k, err)
	}
	return nil
}

// GetRecords fetches several records in one pipeline round-trip. Missing
// keys are absent from the result.
func (s *Store) GetRecords(ctx context.Context, cache string, keys []string) (map[string][]byte, error) {
	pipe := s.client.Pipeline()

	sp := cmdSlicePool.Get().(*[]*redis.StringCmd)
	cmds := (*sp)[:0]
	if cap(cmds) < len(keys) {
		cmds = make([]*redis.StringCmd, 0, len(keys))
	}
	cmds = cmds[:len(keys)]
	defer func() {
		clear(cmds)
		*sp = cmds[:0]
		cmdSlicePool.Put(sp)
	}()

	for i, k := range keys {
		cmds[i] = pipe.Get(ctx, s.RecordKey(cache, k))
	}
	_, _ = pipe.Exec(ctx)
	out := make(map[string][]byte, len(keys))
	for i, cmd := range cmds {
		b, err := cmd.Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				s.misses.Add(1)
				continue
			}
			return nil, fmt.Errorf("l2 get-records key=%s: %w", keys[i], err)
		}
		s.hits.Add(1)
		out[keys[i]] = b
	}
	return out, nil
}

// ── Type mappings ────────────────────────────────────────────────────────────

// GetMapping returns the class name registered for id or ErrMiss.
func (s *Store) GetMapping(ctx context.Context, id int32) (string, error) {
	name, err := s.client.HGet(ctx, s.prefixed(mappingsKey), strconv.FormatInt(int64(id), 10)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			s.misses.Add(1)
			return "", ErrMiss
		}
		return "", fmt.Errorf("l2 hget mapping %d: %w", id, err)
	}
	s.hits.Add(1)
	return name, nil
}

// PutMapping records id → name unless id is already mapped. It returns the
// name that is mapped after the call, which differs from name on conflict.
func (s *Store) PutMapping(ctx context.Context, id int32, name string) (string, error) {
	key := s.prefixed(mappingsKey)
	field := strconv.FormatInt(int64(id), 10)
	set, err := s.client.HSetNX(ctx, key, field, name).Result()
	if err != nil {
		return "", fmt.Errorf("l2 hsetnx mapping %d: %w", id, err)
	}
	if set {
		return name, nil
	}
	existing, err := s.client.HGet(ctx, key, field).Result()
	if err != nil {
		return "", fmt.Errorf("l2 hget mapping %d: %w", id, err)
	}
	return existing, nil
}

// DeleteMapping forgets id.
func (s *Store) DeleteMapping(ctx context.Context, id int32) error {
	return s.client.HDel(ctx, s.prefixed(mappingsKey), strconv.FormatInt(int64(id), 10)).Err()
}

// Mappings returns every mapping held in Redis.
func (s *Store) Mappings(ctx context.Context) (map[int32]string, error) {
	raw, err := s.client.HGetAll(ctx, s.prefixed(mappingsKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("l2 hgetall mappings: %w", err)
	}
	out := make(map[int32]string, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("l2 mappings: bad field %q: %w", k, err)
		}
		out[int32(id)] = v
	}
	return out, nil
}

// ── Pub/sub ──────────────────────────────────────────────────────────────────

// Publish sends an invalidation message to the given channel.
func (s *Store) Publish(ctx context.Context, channel string, payload []byte) error {
	return s.client.Publish(ctx, channel, payload).Err()
}

// Subscribe returns a pub/sub subscription on the given channel.
func (s *Store) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return s.client.Subscribe(ctx, channel)
}

// Ping checks that Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Stats holds hit and miss counts.
type Stats struct {
	Hits   int64
	Misses int64
}

// Stats returns current statistics.
func (s *Store) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}
