// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// table.go — append-only handle table mapping ascending integer handles to
// decoded values, used to resolve shared and cyclic back-references.

// Package handles provides the per-session back-reference table.
package handles

import (
	"errors"
	"fmt"
)

// ErrInvalidHandle is returned for handles outside the assigned range.
var ErrInvalidHandle = errors.New("handles: invalid handle")

const defaultCapacity = 10

// Table assigns handles in strict first-occurrence order. A handle is never
// reused or deleted within a session; only Rebind may change the value it
// refers to.
type Table struct {
	entries []any
	size    int
}

// New creates a table with the given initial capacity.
func New(capacity int) *Table {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Table{entries: make([]any, capacity)}
}

// Assign appends v and returns its handle.
func (t *Table) Assign(v any) int {
	if t.size >= len(t.entries) {
		t.grow()
	}
	t.entries[t.size] = v
	t.size++
	return t.size - 1
}

// Rebind replaces the value bound to h. Used after identity substitution so
// later back-references observe the substituted value.
func (t *Table) Rebind(h int, v any) error {
	if h < 0 || h >= t.size {
		return fmt.Errorf("%w: rebind %d (size %d)", ErrInvalidHandle, h, t.size)
	}
	t.entries[h] = v
	return nil
}

// Lookup returns the value currently bound to h.
func (t *Table) Lookup(h int) (any, error) {
	if h < 0 || h >= t.size {
		return nil, fmt.Errorf("%w: %d (size %d)", ErrInvalidHandle, h, t.size)
	}
	return t.entries[h], nil
}

// Len returns the number of assigned handles.
func (t *Table) Len() int { return t.size }

// Snapshot copies the bound values in handle order.
func (t *Table) Snapshot() []any {
	out := make([]any, t.size)
	copy(out, t.entries[:t.size])
	return out
}

// Reset forgets every handle so the table can serve a new session.
func (t *Table) Reset() {
	clear(t.entries[:t.size])
	t.size = 0
}

func (t *Table) grow() {
	next := make([]any, len(t.entries)<<1+1)
	copy(next, t.entries[:t.size])
	t.entries = next
}
