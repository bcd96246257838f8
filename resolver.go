// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// resolver.go — the schema and field-id resolver contracts and the default
// Java-compatible string hashing used for type and field ids.

package gridcodec

import (
	"strings"
	"unicode/utf16"
)

// SchemaResolver maps wire identifiers to class descriptors. It is shared by
// concurrent decode sessions and must be safe for concurrent reads.
type SchemaResolver interface {
	// ResolveID returns the descriptor for a type id or an *UnknownTypeError.
	ResolveID(id int32) (*ClassDescriptor, error)
	// ResolveName returns the descriptor for a class name or an *UnknownTypeError.
	ResolveName(name string) (*ClassDescriptor, error)
	// FooterMetadata returns the footer layout for a type id, if any.
	FooterMetadata(id int32) (FooterMetadata, bool)
}

// FieldIDResolver maps field names to the ids stored in footer metadata.
// It must agree with the encoder.
type FieldIDResolver interface {
	FieldID(name string) int32
}

// LowerCaseHashIDs derives field ids from the lower-cased field name.
type LowerCaseHashIDs struct{}

func (LowerCaseHashIDs) FieldID(name string) int32 { return JavaHash(strings.ToLower(name)) }

// FieldIDFunc adapts a function to FieldIDResolver.
type FieldIDFunc func(name string) int32

func (f FieldIDFunc) FieldID(name string) int32 { return f(name) }

// JavaHash is Java's String.hashCode: s[0]*31^(n-1) + ... + s[n-1] over the
// UTF-16 code units of s.
func JavaHash(s string) int32 {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = 31*h + int32(u)
	}
	return h
}

// TypeID returns the default type id for a class name.
func TypeID(name string) int32 { return JavaHash(name) }
