// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// reconstruct.go — described objects: header and descriptor resolution,
// checksum verification, then one of the four reconstruction strategies.
// Every instance is bound to its handle before its fields are read, and
// rebound after identity substitution.

package gridcodec

import (
	"errors"
	"fmt"

	"github.com/AndrewDonelson/gridcodec/internal/wire"
)

// readDescribed decodes the object whose tag has just been consumed.
func (d *Decoder) readDescribed(tag wire.Tag) (any, error) {
	desc, err := d.readHeader(tag)
	if err != nil {
		return nil, err
	}
	if want := desc.Strategy.Tag(); want != tag {
		return nil, &ReconstructionError{Type: desc.Name,
			Cause: fmt.Errorf("written as %s but registered as %s", tag, desc.Strategy)}
	}
	defer d.enter(desc.Name)()

	switch tag {
	case wire.TagEnum:
		return d.readEnum(desc)
	case wire.TagExternalizable:
		return d.readExternalizable(desc)
	case wire.TagMarshalAware:
		return d.readSelfDescribing(desc)
	default:
		return d.readPlain(desc)
	}
}

// readHeader reads the type id (or inline name) and, for all but enums, the
// class checksum.
func (d *Decoder) readHeader(tag wire.Tag) (*ClassDescriptor, error) {
	id, err := d.src.ReadInt32()
	if err != nil {
		return nil, err
	}
	var desc *ClassDescriptor
	var name string
	if id == 0 {
		if name, _, err = d.src.ReadUTF(); err != nil {
			return nil, err
		}
		desc, err = d.cfg.Resolver.ResolveName(name)
	} else {
		desc, err = d.cfg.Resolver.ResolveID(id)
	}
	if err != nil {
		d.cfg.Logger.Warn("gridcodec: unknown type", "type_id", id, "name", name, "tag", tag.String())
		d.cfg.Metrics.RecordError("decoder", "resolve")
		var ue *UnknownTypeError
		if errors.As(err, &ue) {
			return nil, err
		}
		return nil, &UnknownTypeError{TypeID: id, Name: name, Err: err}
	}
	if tag == wire.TagEnum {
		return desc, nil
	}
	sum, err := d.src.ReadInt16()
	if err != nil {
		return nil, err
	}
	if desc.Checksum != 0 && sum != desc.Checksum {
		d.cfg.Logger.Warn("gridcodec: class checksum mismatch", "type", desc.Name, "stream", sum, "local", desc.Checksum)
		return nil, &ReconstructionError{Type: desc.Name,
			Cause: fmt.Errorf("%w: stream %d, local %d", ErrChecksumMismatch, sum, desc.Checksum)}
	}
	return desc, nil
}

func (d *Decoder) readEnum(desc *ClassDescriptor) (any, error) {
	ord, err := d.src.ReadInt32()
	if err != nil {
		return nil, err
	}
	if ord < 0 || int(ord) >= len(desc.Constants) {
		return nil, &ReconstructionError{Type: desc.Name,
			Cause: fmt.Errorf("ordinal %d outside %d constants", ord, len(desc.Constants))}
	}
	return desc.Constants[ord], nil
}

// allocate creates the instance and binds it to the next handle.
func (d *Decoder) allocate(desc *ClassDescriptor) (any, int, error) {
	if desc.New == nil {
		return nil, 0, &ReconstructionError{Type: desc.Name, Cause: errors.New("no allocator")}
	}
	obj, err := desc.New()
	if err != nil {
		return nil, 0, &ReconstructionError{Type: desc.Name, Cause: err}
	}
	return obj, d.handles.Assign(obj), nil
}

// finish applies identity substitution and rebinds the handle.
func (d *Decoder) finish(desc *ClassDescriptor, h int, obj any) (any, error) {
	if desc.ReadResolve == nil {
		return obj, nil
	}
	out, err := desc.ReadResolve(obj)
	if err != nil {
		return nil, &ReconstructionError{Type: desc.Name, Cause: fmt.Errorf("read resolve: %w", err)}
	}
	if err := d.handles.Rebind(h, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Decoder) readPlain(desc *ClassDescriptor) (any, error) {
	obj, h, err := d.allocate(desc)
	if err != nil {
		return nil, err
	}
	for i := range desc.Levels {
		lvl := &desc.Levels[i]
		if lvl.Hook != nil {
			in := d.newObjectInput(obj, lvl.Fields)
			err = lvl.Hook(obj, in)
			in.deactivate()
			if err != nil {
				return nil, reconstructErr(desc.Name, fmt.Errorf("%s read hook: %w", lvl.Name, err))
			}
			continue
		}
		if err := d.readFields(desc.Name, obj, lvl.Fields); err != nil {
			return nil, err
		}
	}
	out, err := d.finish(desc, h, obj)
	if err != nil {
		return nil, err
	}
	if err := d.skipFooter(desc); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Decoder) readExternalizable(desc *ClassDescriptor) (any, error) {
	obj, h, err := d.allocate(desc)
	if err != nil {
		return nil, err
	}
	ext, ok := obj.(Externalizable)
	if !ok {
		return nil, &ReconstructionError{Type: desc.Name, Cause: fmt.Errorf("%T does not implement Externalizable", obj)}
	}
	in := d.newObjectInput(nil, nil)
	err = ext.ReadExternal(in)
	in.deactivate()
	if err != nil {
		return nil, reconstructErr(desc.Name, fmt.Errorf("read external: %w", err))
	}
	return d.finish(desc, h, obj)
}

func (d *Decoder) readSelfDescribing(desc *ClassDescriptor) (any, error) {
	obj, h, err := d.allocate(desc)
	if err != nil {
		return nil, err
	}
	fu, ok := obj.(FieldsUnmarshaler)
	if !ok {
		return nil, &ReconstructionError{Type: desc.Name, Cause: fmt.Errorf("%T does not implement FieldsUnmarshaler", obj)}
	}
	r, err := d.readFieldReader(desc.Fields())
	if err != nil {
		return nil, err
	}
	if err := fu.UnmarshalFields(r); err != nil {
		return nil, reconstructErr(desc.Name, fmt.Errorf("unmarshal fields: %w", err))
	}
	out, err := d.finish(desc, h, obj)
	if err != nil {
		return nil, err
	}
	if err := d.skipFooter(desc); err != nil {
		return nil, err
	}
	return out, nil
}

// readFields decodes fields in schema order and injects them into obj.
func (d *Decoder) readFields(typ string, obj any, fields []FieldSchema) error {
	for i := range fields {
		f := &fields[i]
		v, err := d.readField(f.Kind)
		if err != nil {
			return err
		}
		if f.Set == nil {
			continue
		}
		if err := f.Set(obj, v); err != nil {
			return &ReconstructionError{Type: typ, Cause: fmt.Errorf("field %s: %w", f.Name, err)}
		}
	}
	return nil
}

// readField reads one schema field: primitives are bare fixed-width values,
// preceded by their tag when markers are on; other kinds are full values.
func (d *Decoder) readField(k FieldKind) (any, error) {
	if !k.Primitive() {
		return d.readValue()
	}
	at := d.src.Position()
	if d.cfg.FieldTypeMarkers {
		marker, err := d.src.ReadTag()
		if err != nil {
			return nil, d.streamErr(at, wire.TagNull, err)
		}
		if marker != k.Tag() {
			return nil, d.streamErr(at, marker, fmt.Errorf("field type marker %s, schema says %s", marker, k))
		}
	}
	v, err := d.readPrimitive(k)
	if err != nil {
		return nil, d.streamErr(at, k.Tag(), err)
	}
	return v, nil
}

func (d *Decoder) readPrimitive(k FieldKind) (any, error) {
	s := d.src
	switch k {
	case KindByte:
		return s.ReadInt8()
	case KindShort:
		return s.ReadInt16()
	case KindInt:
		return s.ReadInt32()
	case KindLong:
		return s.ReadInt64()
	case KindFloat:
		return s.ReadFloat32()
	case KindDouble:
		return s.ReadFloat64()
	case KindChar:
		c, err := s.ReadUint16()
		return Char(c), err
	case KindBoolean:
		return s.ReadBool()
	}
	return nil, fmt.Errorf("not a primitive kind: %s", k)
}

// skipFooter consumes the trailing footer of a footer-eligible record. Types
// without footer metadata are written without one.
func (d *Decoder) skipFooter(desc *ClassDescriptor) error {
	if _, ok := d.cfg.Resolver.FooterMetadata(desc.TypeID); !ok {
		return nil
	}
	at := d.src.Position()
	n, err := d.src.ReadInt16()
	if err != nil {
		return d.streamErr(at, wire.TagNull, fmt.Errorf("footer length: %w", err))
	}
	if n == wire.EmptyFooter {
		return nil
	}
	if n < 2*wire.FooterLenSize {
		return d.streamErr(at, wire.TagNull, fmt.Errorf("footer length %d", n))
	}
	if err := d.src.Skip(int(n) - wire.FooterLenSize); err != nil {
		return d.streamErr(at, wire.TagNull, fmt.Errorf("footer body: %w", err))
	}
	return nil
}
