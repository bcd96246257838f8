// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// objectinput.go — the raw-read capability handed to level hooks and
// externally managed types. It is valid only while the hook runs.

package gridcodec

// ObjectInput reads from the decoder on behalf of a custom read routine.
// Inside a level hook it is bound to the object and that level's fields.
type ObjectInput struct {
	d      *Decoder
	obj    any
	fields []FieldSchema
	active bool
}

func (d *Decoder) newObjectInput(obj any, fields []FieldSchema) *ObjectInput {
	return &ObjectInput{d: d, obj: obj, fields: fields, active: true}
}

func (in *ObjectInput) deactivate() { in.active = false }

func (in *ObjectInput) check() error {
	if !in.active {
		return ErrNotActive
	}
	return nil
}

func (in *ObjectInput) ReadByte() (int8, error) {
	if err := in.check(); err != nil {
		return 0, err
	}
	return in.d.src.ReadInt8()
}

func (in *ObjectInput) ReadShort() (int16, error) {
	if err := in.check(); err != nil {
		return 0, err
	}
	return in.d.src.ReadInt16()
}

func (in *ObjectInput) ReadInt() (int32, error) {
	if err := in.check(); err != nil {
		return 0, err
	}
	return in.d.src.ReadInt32()
}

func (in *ObjectInput) ReadLong() (int64, error) {
	if err := in.check(); err != nil {
		return 0, err
	}
	return in.d.src.ReadInt64()
}

func (in *ObjectInput) ReadFloat() (float32, error) {
	if err := in.check(); err != nil {
		return 0, err
	}
	return in.d.src.ReadFloat32()
}

func (in *ObjectInput) ReadDouble() (float64, error) {
	if err := in.check(); err != nil {
		return 0, err
	}
	return in.d.src.ReadFloat64()
}

func (in *ObjectInput) ReadChar() (Char, error) {
	if err := in.check(); err != nil {
		return 0, err
	}
	c, err := in.d.src.ReadUint16()
	return Char(c), err
}

func (in *ObjectInput) ReadBool() (bool, error) {
	if err := in.check(); err != nil {
		return false, err
	}
	return in.d.src.ReadBool()
}

// ReadUTF reads a length-prefixed string without a tag.
func (in *ObjectInput) ReadUTF() (string, error) {
	if err := in.check(); err != nil {
		return "", err
	}
	s, _, err := in.d.src.ReadUTF()
	return s, err
}

// ReadFully fills p.
func (in *ObjectInput) ReadFully(p []byte) error {
	if err := in.check(); err != nil {
		return err
	}
	return in.d.src.ReadFully(p)
}

// SkipBytes advances n bytes.
func (in *ObjectInput) SkipBytes(n int) error {
	if err := in.check(); err != nil {
		return err
	}
	return in.d.src.Skip(n)
}

// ReadObject decodes one tagged value, sharing the session's handles.
func (in *ObjectInput) ReadObject() (any, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	return in.d.readValue()
}

// DefaultReadObject decodes the current level's declared fields into the
// object. It fails with ErrNotActive outside a level hook.
func (in *ObjectInput) DefaultReadObject() error {
	if err := in.check(); err != nil {
		return err
	}
	if in.obj == nil {
		return ErrNotActive
	}
	return in.d.readFields(in.d.curType, in.obj, in.fields)
}

// ReadFields decodes the current level's declared fields into a FieldReader
// without touching the object.
func (in *ObjectInput) ReadFields() (*FieldReader, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	if in.obj == nil {
		return nil, ErrNotActive
	}
	return in.d.readFieldReader(in.fields)
}
