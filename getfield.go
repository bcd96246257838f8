// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// getfield.go — positional replay of a field schema: every field is read
// in declaration order up front, then served by name or position.

package gridcodec

import "fmt"

// FieldReader holds one schema's decoded field values.
type FieldReader struct {
	fields []FieldSchema
	values []any
	index  map[string]int
}

func (d *Decoder) readFieldReader(fields []FieldSchema) (*FieldReader, error) {
	r := &FieldReader{
		fields: fields,
		values: make([]any, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	for i := range fields {
		v, err := d.readField(fields[i].Kind)
		if err != nil {
			return nil, err
		}
		r.values[i] = v
		r.index[fields[i].Name] = i
	}
	return r, nil
}

// Len returns the number of fields.
func (r *FieldReader) Len() int { return len(r.values) }

// Name returns the name of field i.
func (r *FieldReader) Name(i int) string { return r.fields[i].Name }

// At returns the value of field i.
func (r *FieldReader) At(i int) any { return r.values[i] }

func (r *FieldReader) lookup(name string) (any, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return r.values[i], nil
}

// Defaulted reports whether the field decoded as absent.
func (r *FieldReader) Defaulted(name string) (bool, error) {
	v, err := r.lookup(name)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

// Object returns the field value, or dflt when it is absent.
func (r *FieldReader) Object(name string, dflt any) (any, error) {
	v, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return dflt, nil
	}
	return v, nil
}

func typed[T any](r *FieldReader, name string, dflt T) (T, error) {
	v, err := r.lookup(name)
	if err != nil {
		return dflt, err
	}
	if v == nil {
		return dflt, nil
	}
	t, ok := v.(T)
	if !ok {
		return dflt, fmt.Errorf("%w: %q is %T, want %T", ErrFieldType, name, v, dflt)
	}
	return t, nil
}

func (r *FieldReader) Bool(name string, dflt bool) (bool, error)       { return typed(r, name, dflt) }
func (r *FieldReader) Byte(name string, dflt int8) (int8, error)       { return typed(r, name, dflt) }
func (r *FieldReader) Short(name string, dflt int16) (int16, error)    { return typed(r, name, dflt) }
func (r *FieldReader) Int(name string, dflt int32) (int32, error)      { return typed(r, name, dflt) }
func (r *FieldReader) Long(name string, dflt int64) (int64, error)     { return typed(r, name, dflt) }
func (r *FieldReader) Float(name string, dflt float32) (float32, error) { return typed(r, name, dflt) }
func (r *FieldReader) Double(name string, dflt float64) (float64, error) {
	return typed(r, name, dflt)
}
func (r *FieldReader) Char(name string, dflt Char) (Char, error) { return typed(r, name, dflt) }

// Apply injects every value through its schema setter.
func (r *FieldReader) Apply(obj any) error {
	for i := range r.fields {
		f := &r.fields[i]
		if f.Set == nil {
			continue
		}
		if err := f.Set(obj, r.values[i]); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	return nil
}
