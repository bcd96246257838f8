// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// l3.go — PostgreSQL persistence tier for type mappings: idempotent table
// creation, first-writer-wins registration, point lookup, full load for
// warm-up, bulk COPY import and optional read-replica routing.

// Package l3 provides the PostgreSQL tier adapter.
package l3

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultTable is the mapping table name used when none is configured.
const DefaultTable = "gridcodec_type_mappings"

// ErrNotFound is returned when a type id has no persisted mapping.
var ErrNotFound = errors.New("l3: mapping not found")

// Mapping is one persisted type-id → class-name row.
type Mapping struct {
	TypeID       int32     `db:"type_id"`
	ClassName    string    `db:"class_name"`
	RegisteredAt time.Time `db:"registered_at"`
}

// Store is the PostgreSQL adapter.
type Store struct {
	pool    *pgxpool.Pool
	replica *pgxpool.Pool
	table   string
}

// New creates a Store from existing pools. replica may be nil.
func New(pool *pgxpool.Pool, replica *pgxpool.Pool, table string) *Store {
	if table == "" {
		table = DefaultTable
	}
	return &Store{pool: pool, replica: replica, table: table}
}

func (s *Store) readPool() *pgxpool.Pool {
	if s.replica != nil {
		return s.replica
	}
	return s.pool
}

// Ping verifies the primary pool is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the mapping table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		type_id       INTEGER     PRIMARY KEY,
		class_name    TEXT        NOT NULL,
		registered_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, pgx.Identifier{s.table}.Sanitize())
	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("l3 ensure schema %s: %w", s.table, err)
	}
	return nil
}

// Put records id → name unless id is already mapped, and returns the name
// mapped after the call.
func (s *Store) Put(ctx context.Context, id int32, name string) (string, error) {
	tbl := pgx.Identifier{s.table}.Sanitize()
	insert := fmt.Sprintf(
		"INSERT INTO %s (type_id, class_name) VALUES ($1, $2) ON CONFLICT (type_id) DO NOTHING", tbl)
	tag, err := s.pool.Exec(ctx, insert, id, name)
	if err != nil {
		return "", fmt.Errorf("l3 put %d: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return name, nil
	}
	var existing string
	q := fmt.Sprintf("SELECT class_name FROM %s WHERE type_id = $1", tbl)
	if err := s.pool.QueryRow(ctx, q, id).Scan(&existing); err != nil {
		return "", fmt.Errorf("l3 put %d: read existing: %w", id, err)
	}
	return existing, nil
}

// Get returns the class name persisted for id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int32) (string, error) {
	q := fmt.Sprintf("SELECT class_name FROM %s WHERE type_id = $1", pgx.Identifier{s.table}.Sanitize())
	var name string
	err := s.readPool().QueryRow(ctx, q, id).Scan(&name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("l3 get %d: %w", id, err)
	}
	return name, nil
}

// All returns every persisted mapping ordered by type id.
func (s *Store) All(ctx context.Context) ([]Mapping, error) {
	q := fmt.Sprintf("SELECT type_id, class_name, registered_at FROM %s ORDER BY type_id",
		pgx.Identifier{s.table}.Sanitize())
	rows, err := s.readPool().Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("l3 all: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[Mapping])
	if err != nil {
		return nil, fmt.Errorf("l3 all: %w", err)
	}
	return out, nil
}

// Delete removes id.
func (s *Store) Delete(ctx context.Context, id int32) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE type_id = $1", pgx.Identifier{s.table}.Sanitize())
	if _, err := s.pool.Exec(ctx, q, id); err != nil {
		return fmt.Errorf("l3 delete %d: %w", id, err)
	}
	return nil
}

// Import bulk-loads mappings with COPY. The table must not already hold any
// of the ids.
func (s *Store) Import(ctx context.Context, mappings map[int32]string) (int64, error) {
	rows := make([][]any, 0, len(mappings))
	for id, name := range mappings {
		rows = append(rows, []any{id, name})
	}
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{s.table}, []string{"type_id", "class_name"}, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("l3 import %s: %w", s.table, err)
	}
	return n, nil
}

// Table returns the mapping table name.
func (s *Store) Table() string { return s.table }

// Pool returns the underlying primary connection pool.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Close shuts down the primary and replica pools.
func (s *Store) Close() {
	s.pool.Close()
	if s.replica != nil {
		s.replica.Close()
	}
}
