// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// source.go — array-backed byte source with positioned little-endian reads,
// length-prefixed strings and primitive arrays, and arbitrary seeks for
// footer lookups.

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// ErrShortBuffer is returned when a read runs past the end of the source.
var ErrShortBuffer = errors.New("wire: short buffer")

// ErrBadLength is returned for negative or oversized length prefixes.
var ErrBadLength = errors.New("wire: bad length prefix")

// ErrBadPosition is returned by SetPosition for offsets outside the buffer.
var ErrBadPosition = errors.New("wire: position out of range")

// ErrBadUTF8 is returned when a string payload is not valid UTF-8.
var ErrBadUTF8 = errors.New("wire: invalid utf-8 string")

var le = binary.LittleEndian

// Source is a positioned reader over one in-memory record buffer.
// It is not safe for concurrent use.
type Source struct {
	buf []byte
	pos int
}

// NewSource wraps b without copying it.
func NewSource(b []byte) *Source {
	return &Source{buf: b}
}

// Position returns the current read offset.
func (s *Source) Position() int { return s.pos }

// SetPosition seeks to an absolute offset. Seeking to Size() is allowed.
func (s *Source) SetPosition(p int) error {
	if p < 0 || p > len(s.buf) {
		return fmt.Errorf("%w: %d not in [0,%d]", ErrBadPosition, p, len(s.buf))
	}
	s.pos = p
	return nil
}

// Size returns the total number of bytes in the source.
func (s *Source) Size() int { return len(s.buf) }

// Remaining returns the number of unread bytes.
func (s *Source) Remaining() int { return len(s.buf) - s.pos }

// Array exposes the backing array for zero-copy field extraction.
func (s *Source) Array() []byte { return s.buf }

// Reset rewinds to offset zero.
func (s *Source) Reset() { s.pos = 0 }

func (s *Source) take(n int) ([]byte, error) {
	if n < 0 || n > len(s.buf)-s.pos {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrShortBuffer, n, s.pos, len(s.buf)-s.pos)
	}
	b := s.buf[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

// Skip advances the position by n bytes.
func (s *Source) Skip(n int) error {
	_, err := s.take(n)
	return err
}

// ReadByte reads one unsigned byte.
func (s *Source) ReadByte() (byte, error) {
	b, err := s.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt8 reads one signed byte.
func (s *Source) ReadInt8() (int8, error) {
	b, err := s.ReadByte()
	return int8(b), err
}

// ReadTag reads the next tag byte.
func (s *Source) ReadTag() (Tag, error) {
	b, err := s.ReadByte()
	return Tag(int8(b)), err
}

// ReadBool reads one byte; any non-zero value is true.
func (s *Source) ReadBool() (bool, error) {
	b, err := s.ReadByte()
	return b != 0, err
}

// ReadInt16 reads a little-endian int16.
func (s *Source) ReadInt16() (int16, error) {
	b, err := s.take(2)
	if err != nil {
		return 0, err
	}
	return int16(le.Uint16(b)), nil
}

// ReadUint16 reads a little-endian uint16 (a UTF-16 code unit for chars).
func (s *Source) ReadUint16() (uint16, error) {
	b, err := s.take(2)
	if err != nil {
		return 0, err
	}
	return le.Uint16(b), nil
}

// ReadInt32 reads a little-endian int32.
func (s *Source) ReadInt32() (int32, error) {
	b, err := s.take(4)
	if err != nil {
		return 0, err
	}
	return int32(le.Uint32(b)), nil
}

// ReadInt64 reads a little-endian int64.
func (s *Source) ReadInt64() (int64, error) {
	b, err := s.take(8)
	if err != nil {
		return 0, err
	}
	return int64(le.Uint64(b)), nil
}

// ReadFloat32 reads an IEEE-754 single.
func (s *Source) ReadFloat32() (float32, error) {
	b, err := s.take(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(le.Uint32(b)), nil
}

// ReadFloat64 reads an IEEE-754 double.
func (s *Source) ReadFloat64() (float64, error) {
	b, err := s.take(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(le.Uint64(b)), nil
}

// ReadLen reads an int32 length prefix and checks that count elements of
// elemSize bytes can still fit in the buffer.
func (s *Source) ReadLen(elemSize int) (int, error) {
	at := s.pos
	n, err := s.ReadInt32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d at offset %d", ErrBadLength, n, at)
	}
	if elemSize > 0 && int64(n)*int64(elemSize) > int64(s.Remaining()) {
		return 0, fmt.Errorf("%w: %d elements of %d bytes at offset %d, %d bytes left",
			ErrBadLength, n, elemSize, at, s.Remaining())
	}
	return int(n), nil
}

// ReadFully copies len(p) bytes into p.
func (s *Source) ReadFully(p []byte) error {
	b, err := s.take(len(p))
	if err != nil {
		return err
	}
	copy(p, b)
	return nil
}

// ReadUTF reads an int32 byte length followed by UTF-8 bytes. The second
// result is the number of bytes consumed including the prefix.
func (s *Source) ReadUTF() (string, int, error) {
	start := s.pos
	n, err := s.ReadLen(1)
	if err != nil {
		return "", 0, err
	}
	b, err := s.take(n)
	if err != nil {
		return "", 0, err
	}
	if !utf8.Valid(b) {
		s.pos = start
		return "", 0, fmt.Errorf("%w at offset %d", ErrBadUTF8, start)
	}
	return string(b), s.pos - start, nil
}

// ReadByteArray reads a length-prefixed byte array.
func (s *Source) ReadByteArray() ([]byte, error) {
	n, err := s.ReadLen(1)
	if err != nil {
		return nil, err
	}
	b, err := s.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadInt16Array reads a length-prefixed int16 array.
func (s *Source) ReadInt16Array() ([]int16, error) {
	n, err := s.ReadLen(2)
	if err != nil {
		return nil, err
	}
	out := make([]int16, n)
	for i := range out {
		out[i], _ = s.ReadInt16()
	}
	return out, nil
}

// ReadUint16Array reads a length-prefixed array of UTF-16 code units.
func (s *Source) ReadUint16Array() ([]uint16, error) {
	n, err := s.ReadLen(2)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, n)
	for i := range out {
		out[i], _ = s.ReadUint16()
	}
	return out, nil
}

// ReadInt32Array reads a length-prefixed int32 array.
func (s *Source) ReadInt32Array() ([]int32, error) {
	n, err := s.ReadLen(4)
	if err != nil {
		return nil, err
	}
	out := make([]int32, n)
	for i := range out {
		out[i], _ = s.ReadInt32()
	}
	return out, nil
}

// ReadInt64Array reads a length-prefixed int64 array.
func (s *Source) ReadInt64Array() ([]int64, error) {
	n, err := s.ReadLen(8)
	if err != nil {
		return nil, err
	}
	out := make([]int64, n)
	for i := range out {
		out[i], _ = s.ReadInt64()
	}
	return out, nil
}

// ReadFloat32Array reads a length-prefixed float32 array.
func (s *Source) ReadFloat32Array() ([]float32, error) {
	n, err := s.ReadLen(4)
	if err != nil {
		return nil, err
	}
	out := make([]float32, n)
	for i := range out {
		out[i], _ = s.ReadFloat32()
	}
	return out, nil
}

// ReadFloat64Array reads a length-prefixed float64 array.
func (s *Source) ReadFloat64Array() ([]float64, error) {
	n, err := s.ReadLen(8)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i], _ = s.ReadFloat64()
	}
	return out, nil
}

// ReadBoolArray reads a length-prefixed boolean array.
func (s *Source) ReadBoolArray() ([]bool, error) {
	n, err := s.ReadLen(1)
	if err != nil {
		return nil, err
	}
	out := make([]bool, n)
	for i := range out {
		out[i], _ = s.ReadBool()
	}
	return out, nil
}
