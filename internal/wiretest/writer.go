// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// writer.go — minimal encoder used by tests to produce bit-exact wire
// bytes: scalars, strings, arrays, container headers and described-object
// records with footers.

// Package wiretest builds wire-format byte streams for tests.
package wiretest

import (
	"encoding/binary"
	"math"

	"github.com/AndrewDonelson/gridcodec/internal/wire"
)

var le = binary.LittleEndian

// Writer appends little-endian wire data to an in-memory buffer.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the encoded buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return len(w.buf) }

func (w *Writer) Raw(b []byte) *Writer  { w.buf = append(w.buf, b...); return w }
func (w *Writer) Byte(b byte) *Writer   { w.buf = append(w.buf, b); return w }
func (w *Writer) Int8(v int8) *Writer   { return w.Byte(byte(v)) }
func (w *Writer) Tag(t wire.Tag) *Writer { return w.Int8(int8(t)) }

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.Byte(1)
	}
	return w.Byte(0)
}

func (w *Writer) Int16(v int16) *Writer {
	w.buf = le.AppendUint16(w.buf, uint16(v))
	return w
}

func (w *Writer) Uint16(v uint16) *Writer {
	w.buf = le.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) Int32(v int32) *Writer {
	w.buf = le.AppendUint32(w.buf, uint32(v))
	return w
}

func (w *Writer) Int64(v int64) *Writer {
	w.buf = le.AppendUint64(w.buf, uint64(v))
	return w
}

func (w *Writer) Float32(v float32) *Writer {
	w.buf = le.AppendUint32(w.buf, math.Float32bits(v))
	return w
}

func (w *Writer) Float64(v float64) *Writer {
	w.buf = le.AppendUint64(w.buf, math.Float64bits(v))
	return w
}

// UTF writes an int32 byte length and the UTF-8 bytes of s.
func (w *Writer) UTF(s string) *Writer {
	w.Int32(int32(len(s)))
	w.buf = append(w.buf, s...)
	return w
}

// ── Tagged values ───────────────────────────────────────────────────────────

func (w *Writer) Null() *Writer            { return w.Tag(wire.TagNull) }
func (w *Writer) Handle(h int32) *Writer   { return w.Tag(wire.TagHandle).Int32(h) }
func (w *Writer) Str(s string) *Writer     { return w.Tag(wire.TagString).UTF(s) }
func (w *Writer) TInt(v int32) *Writer     { return w.Tag(wire.TagInt).Int32(v) }
func (w *Writer) TLong(v int64) *Writer    { return w.Tag(wire.TagLong).Int64(v) }
func (w *Writer) TBool(v bool) *Writer     { return w.Tag(wire.TagBoolean).Bool(v) }
func (w *Writer) TDouble(v float64) *Writer { return w.Tag(wire.TagDouble).Float64(v) }

// Date writes a date tag with epoch milliseconds.
func (w *Writer) Date(millis int64) *Writer { return w.Tag(wire.TagDate).Int64(millis) }

// UUID writes a uuid tag with its two halves.
func (w *Writer) UUID(msb, lsb int64) *Writer { return w.Tag(wire.TagUUID).Int64(msb).Int64(lsb) }

// ClassRef writes a type id, or zero followed by the inline name.
func (w *Writer) ClassRef(typeID int32, name string) *Writer {
	w.Int32(typeID)
	if typeID == 0 {
		w.UTF(name)
	}
	return w
}

// ListHeader writes an array-list or linked-list header.
func (w *Writer) ListHeader(t wire.Tag, size int32) *Writer {
	return w.Tag(t).Int32(size)
}

// MapHeader writes a hash or linked hash map/set header.
func (w *Writer) MapHeader(t wire.Tag, size int32, loadFactor float32, accessOrder bool) *Writer {
	w.Tag(t).Int32(size).Float32(loadFactor)
	if t == wire.TagLinkedHashMap || t == wire.TagLinkedHashSet {
		w.Bool(accessOrder)
	}
	return w
}

// Delegated writes a fallback-codec payload.
func (w *Writer) Delegated(payload []byte) *Writer {
	return w.Tag(wire.TagDelegated).Int32(int32(len(payload))).Raw(payload)
}

// ── Described-object records ────────────────────────────────────────────────

type footerEntry struct {
	variable bool
	length   int32
	handle   bool
	start    int32
	hlen     int32
}

// Record writes one described object and collects its footer entries.
type Record struct {
	w           *Writer
	start       int
	fieldsStart int
	entries     []footerEntry
}

// Begin writes the object header: tag, type id (or zero + inline name) and
// the class checksum.
func (w *Writer) Begin(tag wire.Tag, typeID int32, name string, checksum int16) *Record {
	r := &Record{w: w, start: w.Len()}
	w.Tag(tag).ClassRef(typeID, name).Int16(checksum)
	r.fieldsStart = w.Len()
	return r
}

// Start returns the absolute offset of the record's tag byte.
func (r *Record) Start() int { return r.start }

// FieldsStart returns the absolute offset of the first field byte.
func (r *Record) FieldsStart() int { return r.fieldsStart }

// Fixed writes a field whose length comes from footer metadata.
func (r *Record) Fixed(fn func(w *Writer)) *Record {
	fn(r.w)
	r.entries = append(r.entries, footerEntry{})
	return r
}

// Variable writes a field whose length is recorded in the footer. It
// returns the absolute offset the field started at.
func (r *Record) Variable(fn func(w *Writer)) int {
	at := r.w.Len()
	fn(r.w)
	r.entries = append(r.entries, footerEntry{variable: true, length: int32(r.w.Len() - at)})
	return at
}

// Indirect writes a variable field whose canonical bytes live at an
// absolute range elsewhere. The inline bytes span the recorded length plus
// the pair size, so fn must write at least eight bytes.
func (r *Record) Indirect(fn func(w *Writer), start, length int32) *Record {
	at := r.w.Len()
	fn(r.w)
	body := int32(r.w.Len()-at) - wire.FooterHandlePairSize
	if body < 0 {
		panic("wiretest: indirect field body shorter than the handle pair")
	}
	r.entries = append(r.entries, footerEntry{variable: true, length: body, handle: true, start: start, hlen: length})
	return r
}

// End writes the footer followed by the trailing length.
func (r *Record) End() *Writer {
	w := r.w
	var body Writer
	for _, e := range r.entries {
		if !e.variable {
			continue
		}
		word := e.length & wire.FooterBodyLenMask
		if e.handle {
			word |= wire.FooterIsHandleMask
		}
		body.Int32(word)
		if e.handle {
			body.Int32(e.start).Int32(e.hlen)
		}
	}
	total := int16(wire.FooterLenSize + body.Len() + wire.FooterLenSize)
	w.Int16(total).Raw(body.Bytes()).Int16(total)
	return w
}

// EndEmpty writes the empty-footer sentinel.
func (r *Record) EndEmpty() *Writer {
	return r.w.Int16(wire.EmptyFooter)
}

// EndBare writes nothing; used for types without footer metadata.
func (r *Record) EndBare() *Writer { return r.w }
