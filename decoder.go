// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// decoder.go — decode session: byte source, handle table and the top-level
// tag dispatch for scalars, primitive arrays, strings, dates, UUIDs, class
// references, back-references and delegated payloads.

package gridcodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AndrewDonelson/gridcodec/internal/clock"
	"github.com/AndrewDonelson/gridcodec/internal/codec"
	"github.com/AndrewDonelson/gridcodec/internal/handles"
	"github.com/AndrewDonelson/gridcodec/internal/wire"
)

// Decoder reads values from one serialized buffer. It is not safe for
// concurrent use; run independent sessions for parallel decodes.
type Decoder struct {
	cfg     Config
	src     *wire.Source
	handles *handles.Table
	start   int
	curType string
	closed  bool
}

// NewDecoder opens a session over data.
func NewDecoder(data []byte, cfg Config) (*Decoder, error) {
	return newDecoderWindow(data, 0, len(data), cfg)
}

func newDecoderWindow(data []byte, start, end int, cfg Config) (*Decoder, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("%w: Resolver is required", ErrInvalidConfig)
	}
	if start < 0 || end > len(data) || start > end {
		return nil, fmt.Errorf("%w: window [%d,%d) outside %d bytes", ErrInvalidConfig, start, end, len(data))
	}
	cfg.defaults()
	src := wire.NewSource(data[:end])
	if err := src.SetPosition(start); err != nil {
		return nil, err
	}
	return &Decoder{
		cfg:     cfg,
		src:     src,
		handles: handles.New(cfg.InitialHandles),
		start:   start,
	}, nil
}

// DecodeNext decodes the value at the current position. Handles assigned by
// earlier calls stay valid until Reset.
func (d *Decoder) DecodeNext() (any, error) {
	if d.closed {
		return nil, ErrClosed
	}
	began := d.cfg.Clock.Now()
	v, err := d.readValue()
	d.cfg.Metrics.RecordLatency("decoder", "decode", clock.Since(d.cfg.Clock, began))
	if err != nil {
		d.cfg.Metrics.RecordError("decoder", "decode")
		return nil, err
	}
	return v, nil
}

// More reports whether unread bytes remain.
func (d *Decoder) More() bool {
	return !d.closed && d.src.Remaining() > 0
}

// Position returns the current read offset.
func (d *Decoder) Position() int {
	if d.closed {
		return 0
	}
	return d.src.Position()
}

// HandledObjects returns the values bound to handles so far, in handle order.
func (d *Decoder) HandledObjects() []any {
	if d.closed {
		return nil
	}
	return d.handles.Snapshot()
}

// Reset rewinds to the start of the buffer and forgets all handles.
func (d *Decoder) Reset() error {
	if d.closed {
		return ErrClosed
	}
	d.handles.Reset()
	d.curType = ""
	return d.src.SetPosition(d.start)
}

// Close releases the session. Later calls return ErrClosed.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.src = nil
	d.handles = nil
	d.cfg.Resolver = nil
	return nil
}

// enter marks the class whose bytes are being read, for diagnostics.
func (d *Decoder) enter(name string) (restore func()) {
	prev := d.curType
	d.curType = name
	return func() { d.curType = prev }
}

// streamErr attaches position context to low-level failures.
func (d *Decoder) streamErr(at int, tag wire.Tag, err error) error {
	var se *StreamError
	var ue *UnknownTypeError
	var re *ReconstructionError
	if errors.As(err, &se) || errors.As(err, &ue) || errors.As(err, &re) ||
		errors.Is(err, ErrDelegatedDecodeFailed) {
		return err
	}
	return &StreamError{Offset: at, Tag: tag, Type: d.curType, Err: err}
}

func (d *Decoder) readValue() (any, error) {
	at := d.src.Position()
	tag, err := d.src.ReadTag()
	if err != nil {
		return nil, d.streamErr(at, wire.TagNull, err)
	}
	v, err := d.readTagged(tag)
	if err != nil {
		return nil, d.streamErr(at, tag, err)
	}
	return v, nil
}

// assign binds a leaf value to the next handle.
func (d *Decoder) assign(v any, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	d.handles.Assign(v)
	return v, nil
}

func (d *Decoder) readTagged(tag wire.Tag) (any, error) {
	s := d.src
	switch tag {
	case wire.TagNull:
		return nil, nil
	case wire.TagHandle:
		h, err := s.ReadInt32()
		if err != nil {
			return nil, err
		}
		return d.handles.Lookup(int(h))

	case wire.TagByte:
		return s.ReadInt8()
	case wire.TagShort:
		return s.ReadInt16()
	case wire.TagInt:
		return s.ReadInt32()
	case wire.TagLong:
		return s.ReadInt64()
	case wire.TagFloat:
		return s.ReadFloat32()
	case wire.TagDouble:
		return s.ReadFloat64()
	case wire.TagChar:
		c, err := s.ReadUint16()
		return Char(c), err
	case wire.TagBoolean:
		return s.ReadBool()

	case wire.TagByteArr:
		return d.assign(s.ReadByteArray())
	case wire.TagShortArr:
		return d.assign(s.ReadInt16Array())
	case wire.TagIntArr:
		return d.assign(s.ReadInt32Array())
	case wire.TagLongArr:
		return d.assign(s.ReadInt64Array())
	case wire.TagFloatArr:
		return d.assign(s.ReadFloat32Array())
	case wire.TagDoubleArr:
		return d.assign(s.ReadFloat64Array())
	case wire.TagCharArr:
		units, err := s.ReadUint16Array()
		if err != nil {
			return nil, err
		}
		chars := make([]Char, len(units))
		for i, u := range units {
			chars[i] = Char(u)
		}
		return d.assign(chars, nil)
	case wire.TagBooleanArr:
		return d.assign(s.ReadBoolArray())

	case wire.TagString:
		str, _, err := s.ReadUTF()
		return d.assign(str, err)
	case wire.TagUUID:
		return d.readUUID()
	case wire.TagDate:
		ms, err := s.ReadInt64()
		if err != nil {
			return nil, err
		}
		return d.assign(time.UnixMilli(ms).UTC(), nil)
	case wire.TagClass:
		return d.readClassRef()

	case wire.TagObjectArr:
		return d.readObjectArray()
	case wire.TagArrayList:
		return d.readArrayList()
	case wire.TagLinkedList:
		return d.readLinkedList()
	case wire.TagHashMap, wire.TagLinkedHashMap:
		return d.readMap(tag == wire.TagLinkedHashMap)
	case wire.TagHashSet, wire.TagLinkedHashSet:
		return d.readSet(tag == wire.TagLinkedHashSet)
	case wire.TagProperties:
		return d.readProperties()

	case wire.TagEnum, wire.TagExternalizable, wire.TagSerializable, wire.TagMarshalAware:
		return d.readDescribed(tag)
	case wire.TagDelegated:
		return d.readDelegated()
	}
	return nil, fmt.Errorf("unexpected tag %d; check that all nodes are running the same version", int8(tag))
}

func (d *Decoder) readUUID() (any, error) {
	msb, err := d.src.ReadInt64()
	if err != nil {
		return nil, err
	}
	lsb, err := d.src.ReadInt64()
	if err != nil {
		return nil, err
	}
	var u uuid.UUID
	for i := 0; i < 8; i++ {
		u[i] = byte(uint64(msb) >> (56 - 8*i))
		u[8+i] = byte(uint64(lsb) >> (56 - 8*i))
	}
	return d.assign(u, nil)
}

// readClassRef reads a type id, or zero and an inline name. Ids must
// resolve; inline names need not, since JDK classes are never registered.
func (d *Decoder) readClassRef() (*Class, error) {
	id, err := d.src.ReadInt32()
	if err != nil {
		return nil, err
	}
	if id == 0 {
		name, _, err := d.src.ReadUTF()
		if err != nil {
			return nil, err
		}
		c := &Class{Name: name, TypeID: TypeID(name)}
		if desc, err := d.cfg.Resolver.ResolveName(name); err == nil {
			c.TypeID = desc.TypeID
		}
		return c, nil
	}
	desc, err := d.cfg.Resolver.ResolveID(id)
	if err != nil {
		d.cfg.Logger.Warn("gridcodec: unknown class reference", "type_id", id)
		d.cfg.Metrics.RecordError("decoder", "resolve")
		var ue *UnknownTypeError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, &UnknownTypeError{TypeID: id, Err: err}
	}
	return &Class{Name: desc.Name, TypeID: id}, nil
}

// readDelegated hands a length-prefixed payload to the fallback codec.
// Delegated values take no handle.
func (d *Decoder) readDelegated() (any, error) {
	n, err := d.src.ReadLen(1)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if err := d.src.ReadFully(b); err != nil {
		return nil, err
	}
	v, err := codec.Decode(d.cfg.Fallback, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDelegatedDecodeFailed, err)
	}
	return v, nil
}
