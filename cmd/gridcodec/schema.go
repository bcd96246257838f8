// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// schema.go — TOML type schemas for the command line. Each [[type]] becomes
// a generic descriptor (or an enum) in a Registry.

package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml"

	"github.com/AndrewDonelson/gridcodec"
)

type schemaFile struct {
	FieldTypeMarkers bool         `toml:"field_type_markers"`
	Types            []typeSchema `toml:"type"`
}

type typeSchema struct {
	Name      string        `toml:"name"`
	ID        int32         `toml:"id"`
	Checksum  int16         `toml:"checksum"`
	Kind      string        `toml:"kind"` // serializable (default), marshal_aware, enum
	Footer    *bool         `toml:"footer"`
	Constants []string      `toml:"constants"`
	Levels    []levelSchema `toml:"level"`
}

type levelSchema struct {
	Name   string        `toml:"name"`
	Fields []fieldSchema `toml:"fields"`
}

type fieldSchema struct {
	Name string `toml:"name"`
	Kind string `toml:"kind"`
}

func loadSchemaFile(path string) (*schemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sf := &schemaFile{}
	if err := toml.Unmarshal(data, sf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sf, nil
}

// register adds every type in sf to r.
func (sf *schemaFile) register(r *gridcodec.Registry) error {
	for _, ts := range sf.Types {
		var opts []gridcodec.TypeOption
		if ts.ID != 0 {
			opts = append(opts, gridcodec.WithTypeID(ts.ID))
		}
		if ts.Checksum != 0 {
			opts = append(opts, gridcodec.WithChecksum(ts.Checksum))
		}
		if ts.Footer != nil && !*ts.Footer {
			opts = append(opts, gridcodec.WithoutFooter())
		}

		switch ts.Kind {
		case "enum":
			consts := make([]any, len(ts.Constants))
			for i, c := range ts.Constants {
				consts[i] = c
			}
			if _, err := r.RegisterEnum(ts.Name, consts, opts...); err != nil {
				return fmt.Errorf("type %s: %w", ts.Name, err)
			}
			continue
		case "marshal_aware":
			opts = append(opts, gridcodec.WithStrategy(gridcodec.SelfDescribing),
				gridcodec.WithConstructor(func() any { return &objectFields{obj: gridcodec.NewObject(ts.Name)} }),
				gridcodec.WithReadResolve(func(v any) (any, error) { return v.(*objectFields).obj, nil }))
		case "", "serializable":
		default:
			return fmt.Errorf("type %s: unknown kind %q", ts.Name, ts.Kind)
		}

		levels := make([]gridcodec.GenericLevel, 0, len(ts.Levels))
		for _, ls := range ts.Levels {
			gl := gridcodec.GenericLevel{Name: ls.Name}
			for _, fs := range ls.Fields {
				k, err := gridcodec.ParseFieldKind(fs.Kind)
				if err != nil {
					return fmt.Errorf("type %s field %s: %w", ts.Name, fs.Name, err)
				}
				gl.Fields = append(gl.Fields, gridcodec.GenericField{Name: fs.Name, Kind: k})
			}
			levels = append(levels, gl)
		}
		if _, err := r.RegisterGeneric(ts.Name, levels, opts...); err != nil {
			return fmt.Errorf("type %s: %w", ts.Name, err)
		}
	}
	return nil
}

// objectFields receives self-describing records as a generic *Object.
type objectFields struct {
	obj *gridcodec.Object
}

func (o *objectFields) UnmarshalFields(r *gridcodec.FieldReader) error {
	for i := 0; i < r.Len(); i++ {
		o.obj.SetField(r.Name(i), r.At(i))
	}
	return nil
}
