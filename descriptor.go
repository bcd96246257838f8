// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// descriptor.go — per-type reconstruction recipe: strategy, ordered class
// levels with their field schemas and optional read hooks, allocation,
// identity substitution and enum constants; plus footer metadata.

package gridcodec

import (
	"fmt"

	"github.com/AndrewDonelson/gridcodec/internal/wire"
)

// Strategy selects how a described object is rebuilt.
type Strategy int

const (
	PlainReflective   Strategy = iota // field by field, per class level
	ExternallyManaged                 // the type reads its own bytes
	SelfDescribing                    // the type reads a positional field reader
	EnumConstant                      // ordinal into a constant table
)

var strategyNames = [...]string{"plain-reflective", "externally-managed", "self-describing", "enum-constant"}

func (s Strategy) String() string {
	if s >= 0 && int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Tag returns the wire tag a record of this strategy is written with.
func (s Strategy) Tag() wire.Tag {
	switch s {
	case ExternallyManaged:
		return wire.TagExternalizable
	case SelfDescribing:
		return wire.TagMarshalAware
	case EnumConstant:
		return wire.TagEnum
	default:
		return wire.TagSerializable
	}
}

// FieldKind is the declared kind of a schema field.
type FieldKind int

const (
	KindByte FieldKind = iota
	KindShort
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindChar
	KindBoolean
	KindOther
)

var kindNames = [...]string{"byte", "short", "int", "long", "float", "double", "char", "boolean", "other"}

func (k FieldKind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Primitive reports whether k is encoded as a bare fixed-width value.
func (k FieldKind) Primitive() bool { return k >= KindByte && k < KindOther }

// Size returns the encoded width of a primitive kind, or -1 for KindOther.
func (k FieldKind) Size() int {
	switch k {
	case KindByte, KindBoolean:
		return 1
	case KindShort, KindChar:
		return 2
	case KindInt, KindFloat:
		return 4
	case KindLong, KindDouble:
		return 8
	default:
		return -1
	}
}

// Tag returns the field type marker written before a primitive of kind k.
func (k FieldKind) Tag() wire.Tag {
	if k.Primitive() {
		return wire.TagByte + wire.Tag(k)
	}
	return wire.TagNull
}

// ParseFieldKind maps a kind name ("int", "other", ...) to its FieldKind.
func ParseFieldKind(s string) (FieldKind, error) {
	for i, n := range kindNames {
		if n == s {
			return FieldKind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown field kind %q", ErrInvalidSchema, s)
}

// FieldSchema describes one declared field. Set may be nil, in which case
// the value is decoded and discarded.
type FieldSchema struct {
	Name string
	Kind FieldKind
	Set  func(obj, v any) error
}

// LevelHook is a per-level custom read routine. It runs with in bound to
// the level's fields so in.DefaultReadObject and in.ReadFields decode
// exactly that level.
type LevelHook func(obj any, in *ObjectInput) error

// ClassLevel is one class in a type's hierarchy.
type ClassLevel struct {
	Name   string
	Fields []FieldSchema
	Hook   LevelHook
}

// ClassDescriptor is the reconstruction recipe for one type. It is owned by
// the resolver and shared read-only by decode sessions.
type ClassDescriptor struct {
	Strategy Strategy
	TypeID   int32
	Name     string

	// Checksum is compared with the record header; zero disables the check.
	Checksum int16

	// Levels run root to leaf.
	Levels []ClassLevel

	// New returns a fresh instance. For PlainReflective types it must not
	// run user initialization.
	New func() (any, error)

	// ReadResolve, when set, replaces the built instance.
	ReadResolve func(obj any) (any, error)

	// Constants holds enum values by ordinal.
	Constants []any
}

// Fields returns every level's fields concatenated root to leaf.
func (d *ClassDescriptor) Fields() []FieldSchema {
	var n int
	for _, l := range d.Levels {
		n += len(l.Fields)
	}
	out := make([]FieldSchema, 0, n)
	for _, l := range d.Levels {
		out = append(out, l.Fields...)
	}
	return out
}

func (d *ClassDescriptor) hasHooks() bool {
	for _, l := range d.Levels {
		if l.Hook != nil {
			return true
		}
	}
	return false
}

func (d *ClassDescriptor) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSchema)
	}
	if d.TypeID == 0 {
		return fmt.Errorf("%w: %s has type id 0, which is reserved for inline names", ErrInvalidSchema, d.Name)
	}
	if d.Strategy == EnumConstant {
		if len(d.Constants) == 0 {
			return fmt.Errorf("%w: enum %s has no constants", ErrInvalidSchema, d.Name)
		}
		return nil
	}
	if d.New == nil {
		return fmt.Errorf("%w: %s has no allocator", ErrInvalidSchema, d.Name)
	}
	return nil
}

// FooterField is one entry of a type's footer metadata. Length is the
// fixed encoded width, or wire.VariableLength.
type FooterField struct {
	ID     int32
	Name   string
	Kind   FieldKind
	Length int32
}

// FooterMetadata lists a type's footer entries in field order.
type FooterMetadata []FooterField

// BuildFooterMetadata derives footer metadata from a descriptor's fields.
// Fixed lengths include the type marker byte when markers are written.
func BuildFooterMetadata(d *ClassDescriptor, ids FieldIDResolver, markers bool) FooterMetadata {
	if ids == nil {
		ids = LowerCaseHashIDs{}
	}
	fields := d.Fields()
	md := make(FooterMetadata, 0, len(fields))
	for _, f := range fields {
		length := wire.VariableLength
		if f.Kind.Primitive() {
			length = int32(f.Kind.Size())
			if markers {
				length++
			}
		}
		md = append(md, FooterField{ID: ids.FieldID(f.Name), Name: f.Name, Kind: f.Kind, Length: length})
	}
	return md
}

// Externalizable is implemented by ExternallyManaged types.
type Externalizable interface {
	ReadExternal(in *ObjectInput) error
}

// FieldsUnmarshaler is implemented by SelfDescribing types.
type FieldsUnmarshaler interface {
	UnmarshalFields(r *FieldReader) error
}

// ReadResolver lets a bound type substitute itself after construction.
type ReadResolver interface {
	ReadResolve() (any, error)
}
