// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// mappings_sync.go — background work for MappingStore: L1 invalidation
// over Redis pub/sub and the write-behind queue that flushes registrations
// to Postgres.

package gridcodec

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

const defaultInvalidationChannel = "gridcodec:mappings:invalidate"

const (
	opSet           = "set"
	opDelete        = "delete"
	opInvalidateAll = "invalidate_all"
)

// invalidationMsg is the Redis pub/sub payload for L1 invalidation.
type invalidationMsg struct {
	TypeID int32  `json:"type_id"`
	Op     string `json:"op"`
}

// dirtyMapping holds a registration pending write-behind flush to L3.
type dirtyMapping struct {
	id      int32
	name    string
	retries int
	lastErr error
}

type mappingSync struct {
	m          *MappingStore
	dirtyMu    sync.Mutex
	dirty      map[int32]*dirtyMapping
	dirtyCount atomic.Int64
	stopCh     chan struct{}
	flushCh    chan struct{}
	wg         sync.WaitGroup
}

func newMappingSync(m *MappingStore) *mappingSync {
	return &mappingSync{
		m:       m,
		dirty:   make(map[int32]*dirtyMapping),
		stopCh:  make(chan struct{}),
		flushCh: make(chan struct{}, 1),
	}
}

func (ms *mappingSync) start() {
	if ms.m.l2 != nil {
		ms.wg.Add(1)
		go ms.subscribeLoop()
	}
	if ms.m.cfg.WriteMode == WriteBehind && ms.m.l3 != nil {
		ms.wg.Add(1)
		go ms.writeBehindLoop()
	}
}

func (ms *mappingSync) stop() {
	close(ms.stopCh)
	ms.wg.Wait()
}

func (ms *mappingSync) publishInvalidation(ctx context.Context, id int32, op string) {
	if ms.m.l2 == nil {
		return
	}
	b, _ := json.Marshal(invalidationMsg{TypeID: id, Op: op})
	if err := ms.m.l2.Publish(ctx, ms.m.cfg.InvalidationChannel, b); err != nil {
		ms.m.cfg.Logger.Warn("gridcodec: publish invalidation failed", "type_id", id, "op", op, "error", err)
	}
}

func (ms *mappingSync) subscribeLoop() {
	defer ms.wg.Done()
	for {
		select {
		case <-ms.stopCh:
			return
		default:
		}
		ctx, cancel := context.WithCancel(context.Background())
		sub := ms.m.l2.Subscribe(ctx, ms.m.cfg.InvalidationChannel)
		func() {
			defer cancel()
			msgCh := sub.Channel()
			for {
				select {
				case <-ms.stopCh:
					_ = sub.Close()
					return
				case msg, ok := <-msgCh:
					if !ok {
						return
					}
					ms.handleInvalidation(msg.Payload)
				}
			}
		}()
		select {
		case <-ms.stopCh:
			return
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (ms *mappingSync) handleInvalidation(payload string) {
	var msg invalidationMsg
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		ms.m.cfg.Logger.Warn("gridcodec: malformed invalidation message", "payload", payload, "error", err)
		return
	}
	switch msg.Op {
	case opSet, opDelete:
		ms.m.l1.Delete(msg.TypeID)
	case opInvalidateAll:
		ms.m.l1.Flush()
	default:
		ms.m.cfg.Logger.Warn("gridcodec: unknown invalidation op", "op", msg.Op)
	}
}

func (ms *mappingSync) queueDirty(id int32, name string) {
	ms.dirtyMu.Lock()
	ms.dirty[id] = &dirtyMapping{id: id, name: name}
	count := int64(len(ms.dirty))
	ms.dirtyMu.Unlock()
	ms.dirtyCount.Store(count)
	ms.m.cfg.Metrics.RecordDirtyCount(count)

	if int(count) >= ms.m.cfg.WriteBehindFlushThreshold {
		select {
		case ms.flushCh <- struct{}{}:
		default:
		}
	}
}

func (ms *mappingSync) writeBehindLoop() {
	defer ms.wg.Done()
	ticker := time.NewTicker(ms.m.cfg.WriteBehindFlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ms.stopCh:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			_ = ms.flushDirty(ctx)
			cancel()
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = ms.flushDirty(ctx)
			cancel()
		case <-ms.flushCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = ms.flushDirty(ctx)
			cancel()
		}
	}
}

// flushDirty writes queued mappings to L3. Failures are re-queued until
// WriteBehindMaxRetry; conflicts are dropped at once.
func (ms *mappingSync) flushDirty(ctx context.Context) error {
	if ms.m.l3 == nil {
		return nil
	}
	ms.dirtyMu.Lock()
	if len(ms.dirty) == 0 {
		ms.dirtyMu.Unlock()
		return nil
	}
	snapshot := ms.dirty
	ms.dirty = make(map[int32]*dirtyMapping, len(snapshot))
	ms.dirtyCount.Store(0)
	ms.dirtyMu.Unlock()

	var failed []*dirtyMapping
	var errs []error
	for _, e := range snapshot {
		if e.retries >= ms.m.cfg.WriteBehindMaxRetry {
			ms.drop(e, errors.Join(ErrWriteBehindMaxRetry, e.lastErr))
			errs = append(errs, ErrWriteBehindMaxRetry)
			continue
		}
		got, err := ms.m.l3.Put(ctx, e.id, e.name)
		switch {
		case err != nil:
			e.retries++
			e.lastErr = err
			failed = append(failed, e)
		case got != e.name:
			cerr := conflictErr(e.id, got, e.name)
			ms.m.l1.Delete(e.id)
			ms.drop(e, cerr)
			errs = append(errs, cerr)
		default:
			ms.publishInvalidation(ctx, e.id, opSet)
		}
	}
	ms.dirtyMu.Lock()
	for _, e := range failed {
		if _, newer := ms.dirty[e.id]; !newer {
			ms.dirty[e.id] = e
		}
	}
	count := int64(len(ms.dirty))
	ms.dirtyMu.Unlock()
	ms.dirtyCount.Store(count)
	ms.m.cfg.Metrics.RecordDirtyCount(count)
	return errors.Join(errs...)
}

func (ms *mappingSync) drop(e *dirtyMapping, err error) {
	ms.m.cfg.Metrics.RecordError("mappings", "write_behind")
	ms.m.cfg.Logger.Error("gridcodec: write-behind mapping dropped", "type_id", e.id, "name", e.name, "error", err)
	if ms.m.cfg.OnWriteError != nil {
		ms.m.cfg.OnWriteError(e.id, e.name, err)
	}
}
