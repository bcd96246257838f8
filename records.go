// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// records.go — RecordStore keeps serialized cache entries in Redis and
// answers field queries against them, through the footer when the record
// has one and through a full decode when it does not.

package gridcodec

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/AndrewDonelson/gridcodec/internal/l2"
	"github.com/redis/go-redis/v9"
)

// RecordStoreOptions configures a RecordStore.
type RecordStoreOptions struct {
	Client    redis.UniversalClient
	KeyPrefix string
	// TTL applies to Put. Zero keeps records until deleted.
	TTL time.Duration
	// Decoder configures every session opened over a fetched record.
	Decoder Config
}

// RecordStore stores raw records by cache name and key.
type RecordStore struct {
	l2  *l2.Store
	ttl time.Duration
	cfg Config
}

// NewRecordStore wraps a Redis client.
func NewRecordStore(opts RecordStoreOptions) (*RecordStore, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("%w: Client is required", ErrInvalidConfig)
	}
	if opts.Decoder.Resolver == nil {
		return nil, fmt.Errorf("%w: Decoder.Resolver is required", ErrInvalidConfig)
	}
	opts.Decoder.defaults()
	return &RecordStore{
		l2:  l2.New(l2.Options{Client: opts.Client, KeyPrefix: opts.KeyPrefix}),
		ttl: opts.TTL,
		cfg: opts.Decoder,
	}, nil
}

// Put stores data as is.
func (s *RecordStore) Put(ctx context.Context, cache, key string, data []byte) error {
	if err := s.l2.SetRecord(ctx, cache, key, data, s.ttl); err != nil {
		return fmt.Errorf("%w: %w", ErrL2Unavailable, err)
	}
	return nil
}

// Raw returns the stored bytes.
func (s *RecordStore) Raw(ctx context.Context, cache, key string) ([]byte, error) {
	data, err := s.l2.GetRecord(ctx, cache, key)
	if err != nil {
		if errors.Is(err, l2.ErrMiss) {
			return nil, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, cache, key)
		}
		return nil, fmt.Errorf("%w: %w", ErrL2Unavailable, err)
	}
	return data, nil
}

// Delete removes a record.
func (s *RecordStore) Delete(ctx context.Context, cache, key string) error {
	return s.l2.DeleteRecord(ctx, cache, key)
}

// Get decodes the whole record.
func (s *RecordStore) Get(ctx context.Context, cache, key string) (any, error) {
	data, err := s.Raw(ctx, cache, key)
	if err != nil {
		return nil, err
	}
	return s.decode(data)
}

// GetMany decodes every record found among keys. Missing keys are absent
// from the result.
func (s *RecordStore) GetMany(ctx context.Context, cache string, keys []string) (map[string]any, error) {
	raw, err := s.l2.GetRecords(ctx, cache, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrL2Unavailable, err)
	}
	out := make(map[string]any, len(raw))
	for k, data := range raw {
		v, err := s.decode(data)
		if err != nil {
			return nil, fmt.Errorf("record %s/%s: %w", cache, k, err)
		}
		out[k] = v
	}
	return out, nil
}

// Field returns one field of a record. Records without a usable footer are
// decoded in full and the field is read from the result.
func (s *RecordStore) Field(ctx context.Context, cache, key, name string) (any, error) {
	data, err := s.Raw(ctx, cache, key)
	if err != nil {
		return nil, err
	}
	d, err := NewDecoder(data, s.cfg)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	v, err := d.ReadField(name)
	if err == nil || !errors.Is(err, ErrUnsupportedFooter) {
		return v, err
	}
	obj, err := d.DecodeNext()
	if err != nil {
		return nil, err
	}
	return FieldOf(obj, name)
}

// HasField reports whether a record carries the named field.
func (s *RecordStore) HasField(ctx context.Context, cache, key, name string) (bool, error) {
	data, err := s.Raw(ctx, cache, key)
	if err != nil {
		return false, err
	}
	d, err := NewDecoder(data, s.cfg)
	if err != nil {
		return false, err
	}
	defer d.Close()
	return d.HasField(name)
}

func (s *RecordStore) decode(data []byte) (any, error) {
	d, err := NewDecoder(data, s.cfg)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return d.DecodeNext()
}

// FieldOf reads a field by wire name from a decoded value: an *Object, or a
// struct bound with the same naming rules as Bind.
func FieldOf(v any, name string) (any, error) {
	if o, ok := v.(*Object); ok {
		if f, ok := o.Field(name); ok {
			return f, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: %q on nil", ErrUnknownField, name)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %q on %T", ErrUnknownField, name, v)
	}
	if f, ok := structField(rv, name); ok {
		return f.Interface(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// structField searches leaf fields first, then embedded levels, matching
// the shadowing of the class hierarchy.
func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	var embedded []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			embedded = append(embedded, i)
			continue
		}
		if !f.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(f.Tag.Get("grid"), ",")
		if tag == "-" {
			continue
		}
		if tag == "" {
			tag = javaFieldName(f.Name)
		}
		if tag == name {
			return rv.Field(i), true
		}
	}
	for j := len(embedded) - 1; j >= 0; j-- {
		if f, ok := structField(rv.Field(embedded[j]), name); ok {
			return f, true
		}
	}
	return reflect.Value{}, false
}
