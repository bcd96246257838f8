// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// mappings.go — the cluster-wide type id → class name directory. Lookups
// walk L1 (in-process) → L2 (Redis hash) → L3 (Postgres table) and back-fill
// the faster tiers; registrations go write-through or write-behind. Other
// nodes are told to drop stale L1 entries over Redis pub/sub.

package gridcodec

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/AndrewDonelson/gridcodec/internal/clock"
	"github.com/AndrewDonelson/gridcodec/internal/l1"
	"github.com/AndrewDonelson/gridcodec/internal/l2"
	"github.com/AndrewDonelson/gridcodec/internal/l3"
	"github.com/AndrewDonelson/gridcodec/internal/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// WriteMode controls how registrations flow through the tiers.
type WriteMode int

const (
	WriteThrough WriteMode = iota // L3 -> L2 -> L1, conflicts detected synchronously
	WriteBehind                   // L2 + L1 immediately, L3 async
)

// EvictionPolicy determines which L1 entry is evicted when MaxEntries is reached.
type EvictionPolicy int

const (
	EvictLRU EvictionPolicy = iota
	EvictFIFO
)

// L1PoolConfig configures the in-memory tier.
type L1PoolConfig struct {
	MaxEntries int // per shard
	Eviction   EvictionPolicy
}

// L2PoolConfig configures the Redis client.
type L2PoolConfig struct {
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// L3PoolConfig configures the PostgreSQL connection pool.
type L3PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// MappingConfig contains all MappingStore configuration. With neither Redis
// nor Postgres configured the store is a process-local cache.
type MappingConfig struct {
	// Redis. RedisClient, when set, is used as is and not closed by the store.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisClient   redis.UniversalClient
	KeyPrefix     string

	// Postgres
	PostgresDSN   string
	PostgresTable string

	L1Pool L1PoolConfig
	L2Pool L2PoolConfig
	L3Pool L3PoolConfig

	// L1TTL bounds how long a mapping is trusted without re-reading the
	// shared tiers. Negative means forever.
	L1TTL time.Duration

	WriteMode                 WriteMode
	WriteBehindFlushInterval  time.Duration
	WriteBehindFlushThreshold int
	WriteBehindMaxRetry       int
	// OnWriteError is called when a write-behind mapping is dropped.
	OnWriteError func(id int32, name string, err error)

	InvalidationChannel string

	// LookupTimeout bounds one shared-tier lookup. The lookup outlives the
	// caller that started it so concurrent waiters are not cancelled with
	// it. Default 2s.
	LookupTimeout time.Duration

	Clock   clock.Clock
	Metrics metrics.MetricsRecorder
	Logger  Logger
}

func (c *MappingConfig) defaults() {
	if c.Clock == nil {
		c.Clock = clock.Real{}
	}
	if c.Metrics == nil {
		c.Metrics = metrics.Noop{}
	}
	if c.Logger == nil {
		c.Logger = noopLogger{}
	}
	if c.L1TTL == 0 {
		c.L1TTL = 10 * time.Minute
	}
	if c.L1Pool.MaxEntries == 0 {
		c.L1Pool.MaxEntries = 4096
	}
	if c.PostgresTable == "" {
		c.PostgresTable = l3.DefaultTable
	}
	if c.InvalidationChannel == "" {
		c.InvalidationChannel = defaultInvalidationChannel
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 2 * time.Second
	}
	if c.WriteBehindFlushInterval == 0 {
		c.WriteBehindFlushInterval = 500 * time.Millisecond
	}
	if c.WriteBehindFlushThreshold == 0 {
		c.WriteBehindFlushThreshold = 100
	}
	if c.WriteBehindMaxRetry == 0 {
		c.WriteBehindMaxRetry = 5
	}
	if c.L3Pool.MaxConns == 0 {
		c.L3Pool.MaxConns = 20
	}
	if c.L3Pool.MinConns == 0 {
		c.L3Pool.MinConns = 2
	}
	if c.L3Pool.MaxConnLifetime == 0 {
		c.L3Pool.MaxConnLifetime = 30 * time.Minute
	}
	if c.L3Pool.MaxConnIdleTime == 0 {
		c.L3Pool.MaxConnIdleTime = 10 * time.Minute
	}
}

// MappingStats is the snapshot returned by MappingStore.Stats.
type MappingStats struct {
	L1Hits     int64
	L1Misses   int64
	L1Entries  int64
	L2Hits     int64
	L2Misses   int64
	DirtyCount int64
}

// MappingStore resolves and publishes type id → class name mappings.
type MappingStore struct {
	cfg       MappingConfig
	l1        *l1.Store[string]
	l2        *l2.Store
	l3        *l3.Store
	client    redis.UniversalClient
	ownClient bool
	group     singleflight.Group
	sync      *mappingSync
	closed    atomic.Bool
}

// NewMappingStore connects the configured tiers. When Postgres is
// configured the mapping table is created if missing.
func NewMappingStore(ctx context.Context, cfg MappingConfig) (*MappingStore, error) {
	cfg.defaults()
	if cfg.WriteMode == WriteBehind && cfg.PostgresDSN == "" {
		return nil, fmt.Errorf("%w: write-behind needs a Postgres tier", ErrInvalidConfig)
	}

	m := &MappingStore{cfg: cfg}
	m.l1 = l1.New[string](l1.Options{
		TTL:        cfg.L1TTL,
		MaxEntries: cfg.L1Pool.MaxEntries,
		Eviction:   l1.EvictionPolicy(cfg.L1Pool.Eviction),
		Clock:      cfg.Clock,
	})

	switch {
	case cfg.RedisClient != nil:
		m.client = cfg.RedisClient
	case cfg.RedisAddr != "":
		m.client = redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			PoolSize:     cfg.L2Pool.PoolSize,
			DialTimeout:  cfg.L2Pool.DialTimeout,
			ReadTimeout:  cfg.L2Pool.ReadTimeout,
			WriteTimeout: cfg.L2Pool.WriteTimeout,
		})
		m.ownClient = true
	}
	if m.client != nil {
		m.l2 = l2.New(l2.Options{Client: m.client, KeyPrefix: cfg.KeyPrefix})
	}

	if cfg.PostgresDSN != "" {
		pgCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
		if err != nil {
			m.closeClient()
			return nil, fmt.Errorf("gridcodec: postgres config: %w", err)
		}
		pgCfg.MaxConns = cfg.L3Pool.MaxConns
		pgCfg.MinConns = cfg.L3Pool.MinConns
		pgCfg.MaxConnLifetime = cfg.L3Pool.MaxConnLifetime
		pgCfg.MaxConnIdleTime = cfg.L3Pool.MaxConnIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
		if err != nil {
			m.closeClient()
			return nil, fmt.Errorf("gridcodec: postgres pool: %w", err)
		}
		m.l3 = l3.New(pool, nil, cfg.PostgresTable)
		if err := m.l3.EnsureSchema(ctx); err != nil {
			m.l3.Close()
			m.closeClient()
			return nil, fmt.Errorf("%w: %w", ErrL3Unavailable, err)
		}
	}

	m.sync = newMappingSync(m)
	m.sync.start()
	return m, nil
}

// Lookup returns the class name for id. Concurrent misses for the same id
// share one trip to the shared tiers.
func (m *MappingStore) Lookup(ctx context.Context, id int32) (string, error) {
	if m.closed.Load() {
		return "", ErrClosed
	}
	start := m.cfg.Clock.Now()
	defer func() { m.cfg.Metrics.RecordLatency("mappings", "lookup", clock.Since(m.cfg.Clock, start)) }()

	if name, ok := m.l1.Get(id); ok {
		m.cfg.Metrics.RecordHit("l1", "mapping")
		return name, nil
	}
	m.cfg.Metrics.RecordMiss("l1", "mapping")

	ch := m.group.DoChan(strconv.FormatInt(int64(id), 10), func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.LookupTimeout)
		defer cancel()
		return m.lookupShared(sctx, id)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// lookupShared reads L2 then L3, back-filling on the way out.
func (m *MappingStore) lookupShared(ctx context.Context, id int32) (string, error) {
	if m.l2 != nil {
		name, err := m.l2.GetMapping(ctx, id)
		switch {
		case err == nil:
			m.cfg.Metrics.RecordHit("l2", "mapping")
			m.l1.Set(id, name, 0)
			return name, nil
		case errors.Is(err, l2.ErrMiss):
			m.cfg.Metrics.RecordMiss("l2", "mapping")
		default:
			m.cfg.Metrics.RecordError("l2", "get")
			m.cfg.Logger.Warn("gridcodec: L2 mapping read failed", "type_id", id, "error", err)
		}
	}

	if m.l3 == nil {
		return "", fmt.Errorf("%w: type id %d", ErrRecordNotFound, id)
	}
	name, err := m.l3.Get(ctx, id)
	if err != nil {
		if errors.Is(err, l3.ErrNotFound) {
			m.cfg.Metrics.RecordMiss("l3", "mapping")
			return "", fmt.Errorf("%w: type id %d", ErrRecordNotFound, id)
		}
		m.cfg.Metrics.RecordError("l3", "get")
		return "", fmt.Errorf("%w: %w", ErrL3Unavailable, err)
	}
	m.cfg.Metrics.RecordHit("l3", "mapping")
	if m.l2 != nil {
		if _, err := m.l2.PutMapping(ctx, id, name); err != nil {
			m.cfg.Logger.Warn("gridcodec: L2 back-fill failed", "type_id", id, "error", err)
		}
	}
	m.l1.Set(id, name, 0)
	return name, nil
}

// Register publishes id → name. A different name already registered for
// id anywhere in the tiers is reported as ErrMappingConflict.
func (m *MappingStore) Register(ctx context.Context, id int32, name string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if prev, ok := m.l1.Get(id); ok {
		if prev != name {
			return conflictErr(id, prev, name)
		}
		if m.cfg.WriteMode == WriteThrough {
			return nil
		}
	}

	var err error
	switch m.cfg.WriteMode {
	case WriteBehind:
		err = m.registerWriteBehind(ctx, id, name)
	default:
		err = m.registerWriteThrough(ctx, id, name)
	}
	if err != nil {
		m.cfg.Metrics.RecordError("mappings", "register")
	}
	return err
}

func (m *MappingStore) registerWriteThrough(ctx context.Context, id int32, name string) error {
	if m.l3 != nil {
		got, err := m.l3.Put(ctx, id, name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrL3Unavailable, err)
		}
		if got != name {
			return conflictErr(id, got, name)
		}
	}
	if m.l2 != nil {
		got, err := m.l2.PutMapping(ctx, id, name)
		switch {
		case err != nil && m.l3 == nil:
			return fmt.Errorf("%w: %w", ErrL2Unavailable, err)
		case err != nil:
			m.cfg.Logger.Warn("gridcodec: L2 mapping write failed", "type_id", id, "error", err)
		case got != name:
			return conflictErr(id, got, name)
		}
	}
	m.l1.Set(id, name, 0)
	m.sync.publishInvalidation(ctx, id, opSet)
	return nil
}

func (m *MappingStore) registerWriteBehind(ctx context.Context, id int32, name string) error {
	if m.l2 != nil {
		got, err := m.l2.PutMapping(ctx, id, name)
		if err != nil {
			m.cfg.Logger.Warn("gridcodec: L2 mapping write failed", "type_id", id, "error", err)
		} else if got != name {
			return conflictErr(id, got, name)
		}
	}
	m.l1.Set(id, name, 0)
	m.sync.queueDirty(id, name)
	return nil
}

// Forget removes id from every tier and tells other nodes to drop it.
func (m *MappingStore) Forget(ctx context.Context, id int32) error {
	if m.closed.Load() {
		return ErrClosed
	}
	m.l1.Delete(id)
	if m.l2 != nil {
		if err := m.l2.DeleteMapping(ctx, id); err != nil {
			m.cfg.Logger.Warn("gridcodec: L2 mapping delete failed", "type_id", id, "error", err)
		}
	}
	if m.l3 != nil {
		if err := m.l3.Delete(ctx, id); err != nil {
			return fmt.Errorf("%w: %w", ErrL3Unavailable, err)
		}
	}
	m.sync.publishInvalidation(ctx, id, opDelete)
	return nil
}

// All returns every known mapping, read from the most durable tier
// configured. A store without shared tiers reports nothing.
func (m *MappingStore) All(ctx context.Context) (map[int32]string, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	if m.l3 != nil {
		rows, err := m.l3.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrL3Unavailable, err)
		}
		out := make(map[int32]string, len(rows))
		for _, r := range rows {
			out[r.TypeID] = r.ClassName
		}
		return out, nil
	}
	if m.l2 != nil {
		out, err := m.l2.Mappings(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrL2Unavailable, err)
		}
		return out, nil
	}
	return map[int32]string{}, nil
}

// Warm loads every shared mapping into L1 and returns how many it loaded.
func (m *MappingStore) Warm(ctx context.Context) (int, error) {
	all, err := m.All(ctx)
	if err != nil {
		return 0, err
	}
	for id, name := range all {
		m.l1.Set(id, name, 0)
	}
	return len(all), nil
}

// Import bulk-loads mappings into an empty Postgres tier and tells every
// node to drop its L1.
func (m *MappingStore) Import(ctx context.Context, mappings map[int32]string) (int64, error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if m.l3 == nil {
		return 0, ErrL3Unavailable
	}
	n, err := m.l3.Import(ctx, mappings)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrL3Unavailable, err)
	}
	m.l1.Flush()
	m.sync.publishInvalidation(ctx, 0, opInvalidateAll)
	return n, nil
}

// FlushDirty blocks until pending write-behind mappings reach L3.
func (m *MappingStore) FlushDirty(ctx context.Context) error {
	return m.sync.flushDirty(ctx)
}

// Stats returns a snapshot of tier statistics.
func (m *MappingStore) Stats() MappingStats {
	s1 := m.l1.Stats()
	st := MappingStats{
		L1Hits:     s1.Hits,
		L1Misses:   s1.Misses,
		L1Entries:  s1.Entries,
		DirtyCount: m.sync.dirtyCount.Load(),
	}
	if m.l2 != nil {
		s2 := m.l2.Stats()
		st.L2Hits, st.L2Misses = s2.Hits, s2.Misses
	}
	return st
}

// Ping checks every configured shared tier.
func (m *MappingStore) Ping(ctx context.Context) error {
	if m.l2 != nil {
		if err := m.l2.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrL2Unavailable, err)
		}
	}
	if m.l3 != nil {
		if err := m.l3.Ping(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrL3Unavailable, err)
		}
	}
	return nil
}

// Close flushes pending writes, stops background work and releases
// connections. It is safe to call more than once.
func (m *MappingStore) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	m.sync.stop()
	m.l1.Close()
	if m.l3 != nil {
		m.l3.Close()
	}
	return m.closeClient()
}

func (m *MappingStore) closeClient() error {
	if m.ownClient && m.client != nil {
		return m.client.Close()
	}
	return nil
}

func conflictErr(id int32, have, want string) error {
	return fmt.Errorf("%w: id %d is %s, not %s", ErrMappingConflict, id, have, want)
}
