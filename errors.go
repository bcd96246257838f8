// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// errors.go — sentinel error variables and typed errors returned by the
// decoder, the footer index, the registry and the mapping tiers.

// Package gridcodec decodes the optimized binary object-graph encoding used
// by a distributed data grid: tag dispatch, back-reference handles,
// schema-driven reconstruction and footer-indexed single-field access.
package gridcodec

import (
	"errors"
	"fmt"

	"github.com/AndrewDonelson/gridcodec/internal/handles"
	"github.com/AndrewDonelson/gridcodec/internal/wire"
)

// Decode errors
var (
	ErrMalformedStream       = errors.New("gridcodec: malformed stream")
	ErrUnknownType           = errors.New("gridcodec: unknown type")
	ErrInvalidHandle         = handles.ErrInvalidHandle
	ErrReconstructionFailed  = errors.New("gridcodec: reconstruction failed")
	ErrDelegatedDecodeFailed = errors.New("gridcodec: delegated decode failed")
	ErrChecksumMismatch      = errors.New("gridcodec: class checksum mismatch")
	ErrUnhashableKey         = errors.New("gridcodec: map key is not comparable")
)

// Footer errors. ErrFieldNotPresent also matches ErrUnsupportedFooter so
// callers that only care about "fall back to a full decode" can test one.
var (
	ErrUnsupportedFooter = errors.New("gridcodec: footer lookup unsupported")
	ErrFieldNotPresent   = fmt.Errorf("gridcodec: field not present: %w", ErrUnsupportedFooter)
)

// Session errors
var (
	ErrClosed       = errors.New("gridcodec: decoder closed")
	ErrNotActive    = errors.New("gridcodec: not inside a read hook")
	ErrUnknownField = errors.New("gridcodec: unknown field")
	ErrFieldType    = errors.New("gridcodec: field type mismatch")
)

// Registry errors
var (
	ErrTypeDuplicate   = errors.New("gridcodec: type already registered")
	ErrInvalidModel    = errors.New("gridcodec: model must be a non-nil pointer to a struct")
	ErrInvalidSchema   = errors.New("gridcodec: invalid class descriptor")
	ErrMappingConflict = errors.New("gridcodec: type id already mapped to another class")
)

// Infrastructure errors
var (
	ErrL2Unavailable       = errors.New("gridcodec: L2 Redis unavailable")
	ErrL3Unavailable       = errors.New("gridcodec: L3 Postgres unavailable")
	ErrRecordNotFound      = errors.New("gridcodec: record not found")
	ErrInvalidConfig       = errors.New("gridcodec: invalid configuration")
	ErrWriteBehindMaxRetry = errors.New("gridcodec: write-behind exceeded max retries")
)

// StreamError reports bytes that do not match the wire format.
type StreamError struct {
	Offset int
	Tag    wire.Tag
	Type   string // class being decoded, if any
	Err    error
}

func (e *StreamError) Error() string {
	msg := fmt.Sprintf("gridcodec: malformed stream at offset %d (tag %s", e.Offset, e.Tag)
	if e.Type != "" {
		msg += ", in " + e.Type
	}
	return msg + "): " + e.Err.Error()
}

func (e *StreamError) Unwrap() error { return e.Err }

// Is matches ErrMalformedStream, except for back-references which only match
// ErrInvalidHandle.
func (e *StreamError) Is(target error) bool {
	return target == ErrMalformedStream && !errors.Is(e.Err, ErrInvalidHandle)
}

// UnknownTypeError reports a type id or name the resolver cannot map.
type UnknownTypeError struct {
	TypeID int32
	Name   string
	Err    error
}

func (e *UnknownTypeError) Error() string {
	msg := fmt.Sprintf("gridcodec: unknown type (id=%d", e.TypeID)
	if e.Name != "" {
		msg += fmt.Sprintf(", name=%q", e.Name)
	}
	msg += "); check that all nodes are running the same version"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnknownTypeError) Unwrap() error        { return e.Err }
func (e *UnknownTypeError) Is(target error) bool { return target == ErrUnknownType }

// ReconstructionError reports a failure while building an instance of Type.
type ReconstructionError struct {
	Type  string
	Cause error
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("gridcodec: failed to reconstruct %s: %v", e.Type, e.Cause)
}

func (e *ReconstructionError) Unwrap() error        { return e.Cause }
func (e *ReconstructionError) Is(target error) bool { return target == ErrReconstructionFailed }

// FooterError reports why a footer lookup could not produce a range.
type FooterError struct {
	Field  string
	TypeID int32
	Reason error
}

func (e *FooterError) Error() string {
	return fmt.Sprintf("gridcodec: footer lookup of %q in type %d: %v", e.Field, e.TypeID, e.Reason)
}

func (e *FooterError) Unwrap() error { return e.Reason }

// reconstructErr wraps cause unless it already carries decode context.
func reconstructErr(typ string, cause error) error {
	var re *ReconstructionError
	var ue *UnknownTypeError
	var se *StreamError
	if errors.As(cause, &re) || errors.As(cause, &ue) || errors.As(cause, &se) {
		return cause
	}
	return &ReconstructionError{Type: typ, Cause: cause}
}
