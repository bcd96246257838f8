// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// footer.go — footer-indexed random access: locate one field's byte range
// in a footer-eligible record without decoding the record, then test for
// it, wrap it or decode just that field. Every lookup restores the read
// position before returning.

package gridcodec

import (
	"errors"
	"fmt"

	"github.com/AndrewDonelson/gridcodec/internal/handles"
	"github.com/AndrewDonelson/gridcodec/internal/metrics"
	"github.com/AndrewDonelson/gridcodec/internal/wire"
)

// FieldRange is an absolute byte range within the decoder's buffer.
type FieldRange struct {
	Start int
	Len   int
}

// fieldRange walks the footer of the record whose tag byte is at recStart.
// The record is taken to end where the buffer ends.
func (d *Decoder) fieldRange(name string, recStart int) (FieldRange, FooterField, error) {
	s := d.src
	var none FooterField
	if err := s.SetPosition(recStart); err != nil {
		return FieldRange{}, none, err
	}
	tag, err := s.ReadTag()
	if err != nil {
		return FieldRange{}, none, d.streamErr(recStart, wire.TagNull, err)
	}
	if !tag.FooterEligible() {
		return FieldRange{}, none, &FooterError{Field: name, Reason: fmt.Errorf("%w: %s record", ErrUnsupportedFooter, tag)}
	}
	fieldID := d.cfg.FieldIDs.FieldID(name)

	typeID, err := s.ReadInt32()
	if err != nil {
		return FieldRange{}, none, d.streamErr(recStart, tag, err)
	}
	nameLen := 0
	if typeID == 0 {
		cls, n, err := s.ReadUTF()
		if err != nil {
			return FieldRange{}, none, d.streamErr(recStart, tag, err)
		}
		nameLen = n
		desc, err := d.cfg.Resolver.ResolveName(cls)
		if err != nil {
			return FieldRange{}, none, &FooterError{Field: name, Reason: fmt.Errorf("%w: %w", ErrUnsupportedFooter, err)}
		}
		typeID = desc.TypeID
	}
	md, ok := d.cfg.Resolver.FooterMetadata(typeID)
	if !ok {
		return FieldRange{}, none, &FooterError{Field: name, TypeID: typeID, Reason: fmt.Errorf("%w: no footer metadata", ErrUnsupportedFooter)}
	}

	end := s.Size()
	header := wire.HeaderFixedSize + nameLen
	if end-recStart < header+wire.FooterLenSize {
		return FieldRange{}, none, d.streamErr(recStart, tag, fmt.Errorf("record of %d bytes has no room for a footer", end-recStart))
	}
	if err := s.SetPosition(end - wire.FooterLenSize); err != nil {
		return FieldRange{}, none, err
	}
	footerLen, err := s.ReadInt16()
	if err != nil {
		return FieldRange{}, none, d.streamErr(end-wire.FooterLenSize, tag, err)
	}
	if footerLen == wire.EmptyFooter {
		return FieldRange{}, none, &FooterError{Field: name, TypeID: typeID, Reason: fmt.Errorf("%w: empty footer", ErrUnsupportedFooter)}
	}
	if int(footerLen) < 2*wire.FooterLenSize || int(footerLen) > end-recStart-header {
		return FieldRange{}, none, d.streamErr(end-wire.FooterLenSize, tag, fmt.Errorf("footer length %d", footerLen))
	}
	if err := s.SetPosition(end - int(footerLen) + wire.FooterLenSize); err != nil {
		return FieldRange{}, none, err
	}

	offset := 0
	for _, f := range md {
		at := s.Position()
		length := int(f.Length)
		indirect := false
		if f.Length == wire.VariableLength {
			word, err := s.ReadInt32()
			if err != nil {
				return FieldRange{}, none, d.streamErr(at, tag, fmt.Errorf("footer entry %s: %w", f.Name, err))
			}
			length = int(word & wire.FooterBodyLenMask)
			indirect = word&wire.FooterIsHandleMask != 0
		}
		if f.ID != fieldID {
			offset += length
			if indirect {
				if err := s.Skip(wire.FooterHandlePairSize); err != nil {
					return FieldRange{}, none, d.streamErr(at, tag, err)
				}
				offset += wire.FooterHandlePairSize
			}
			continue
		}
		r := FieldRange{Start: recStart + header + offset, Len: length}
		if indirect {
			start, err := s.ReadInt32()
			if err != nil {
				return FieldRange{}, none, d.streamErr(at, tag, err)
			}
			n, err := s.ReadInt32()
			if err != nil {
				return FieldRange{}, none, d.streamErr(at, tag, err)
			}
			r = FieldRange{Start: int(start), Len: int(n)}
		}
		if r.Start < 0 || r.Len < 0 || r.Start+r.Len > end {
			return FieldRange{}, none, d.streamErr(at, tag, fmt.Errorf("field %s range [%d,+%d) outside record", f.Name, r.Start, r.Len))
		}
		return r, f, nil
	}
	return FieldRange{}, none, &FooterError{Field: name, TypeID: typeID, Reason: ErrFieldNotPresent}
}

// lookup runs fieldRange at the current position and restores it.
func (d *Decoder) lookup(name string, fn func(r FieldRange, f FooterField) (any, error)) (any, error) {
	if d.closed {
		return nil, ErrClosed
	}
	pos := d.src.Position()
	defer func() { _ = d.src.SetPosition(pos) }()

	r, f, err := d.fieldRange(name, pos)
	switch {
	case err == nil:
		d.cfg.Metrics.RecordFooter(metrics.FooterHit)
	case errors.Is(err, ErrFieldNotPresent):
		d.cfg.Metrics.RecordFooter(metrics.FooterAbsent)
		d.cfg.Logger.Debug("gridcodec: field not in footer", "field", name)
		return nil, err
	case errors.Is(err, ErrUnsupportedFooter):
		d.cfg.Metrics.RecordFooter(metrics.FooterUnsupported)
		d.cfg.Logger.Debug("gridcodec: footer lookup unsupported", "field", name, "reason", err)
		return nil, err
	default:
		return nil, err
	}
	return fn(r, f)
}

// FieldRange returns the byte range of a field of the record at the current
// position. It fails with ErrUnsupportedFooter when the record has no usable
// footer and ErrFieldNotPresent when the footer does not list the field.
func (d *Decoder) FieldRange(name string) (FieldRange, error) {
	v, err := d.lookup(name, func(r FieldRange, _ FooterField) (any, error) { return r, nil })
	if err != nil {
		return FieldRange{}, err
	}
	return v.(FieldRange), nil
}

// HasField reports whether the record at the current position carries the
// named field. Missing footers and unlisted fields report false.
func (d *Decoder) HasField(name string) (bool, error) {
	v, err := d.lookup(name, func(r FieldRange, _ FooterField) (any, error) { return r.Start > 0, nil })
	if errors.Is(err, ErrUnsupportedFooter) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// ReadField returns one field of the record at the current position. A
// field that is itself a footer-eligible record comes back as an
// *IndexedObject over the original bytes; anything else is decoded in place.
// Callers fall back to DecodeNext on ErrUnsupportedFooter.
//
// The field is decoded with an empty handle table, while the writer numbers
// handles across the whole stream. A field holding a back-reference, even
// one to a value inside the same field such as a list carrying one string
// twice, fails with ErrInvalidHandle; DecodeNext reads such records.
func (d *Decoder) ReadField(name string) (any, error) {
	return d.lookup(name, func(r FieldRange, f FooterField) (any, error) {
		if f.Kind == KindOther {
			if obj, ok, err := d.peekIndexed(r); err != nil || ok {
				return obj, err
			}
		}
		return d.decodeRange(r, f.Kind)
	})
}

// DecodeField is ReadField without the IndexedObject shortcut.
func (d *Decoder) DecodeField(name string) (any, error) {
	return d.lookup(name, func(r FieldRange, f FooterField) (any, error) {
		return d.decodeRange(r, f.Kind)
	})
}

// peekIndexed wraps r when it holds a serializable record with footer
// metadata or a self-describing record.
func (d *Decoder) peekIndexed(r FieldRange) (*IndexedObject, bool, error) {
	if r.Len < 1+4 {
		return nil, false, nil
	}
	if err := d.src.SetPosition(r.Start); err != nil {
		return nil, false, err
	}
	tag, err := d.src.ReadTag()
	if err != nil || !tag.FooterEligible() {
		return nil, false, nil
	}
	id, err := d.src.ReadInt32()
	if err != nil {
		return nil, false, nil
	}
	if tag == wire.TagSerializable {
		if _, ok := d.cfg.Resolver.FooterMetadata(id); !ok {
			return nil, false, nil
		}
	}
	return &IndexedObject{Tag: tag, TypeID: id, Start: r.Start, Len: r.Len, array: d.src.Array()}, true, nil
}

// decodeRange decodes the value at r with a scratch handle table; handles
// assigned outside the field are not visible to it.
func (d *Decoder) decodeRange(r FieldRange, k FieldKind) (any, error) {
	if err := d.src.SetPosition(r.Start); err != nil {
		return nil, err
	}
	saved := d.handles
	d.handles = handles.New(d.cfg.InitialHandles)
	defer func() { d.handles = saved }()
	return d.readField(k)
}
