// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// binding.go — struct introspection that turns a Go struct into a class
// descriptor: embedded structs become ancestor levels, `grid` tags name
// fields and override kinds, and each field gets a setter closure built
// once over its index path.

package gridcodec

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"unicode"
)

// TypeOption customizes a bound or generic descriptor.
type TypeOption func(*typeOptions)

type typeOptions struct {
	name     string
	id       int32
	checksum int16
	strategy *Strategy
	hooks    map[string]LevelHook
	resolve  func(any) (any, error)
	newFn    func() (any, error)
	noFooter bool
}

// WithName sets the class name. The default is the Go package path and type
// name joined with dots.
func WithName(name string) TypeOption { return func(o *typeOptions) { o.name = name } }

// WithTypeID sets the type id. The default is TypeID(name).
func WithTypeID(id int32) TypeOption { return func(o *typeOptions) { o.id = id } }

// WithChecksum enables header checksum verification.
func WithChecksum(sum int16) TypeOption { return func(o *typeOptions) { o.checksum = sum } }

// WithStrategy overrides the strategy inferred from the interfaces the type
// implements.
func WithStrategy(s Strategy) TypeOption { return func(o *typeOptions) { o.strategy = &s } }

// WithLevelHook installs a custom read routine for the named class level.
func WithLevelHook(level string, hook LevelHook) TypeOption {
	return func(o *typeOptions) {
		if o.hooks == nil {
			o.hooks = make(map[string]LevelHook)
		}
		o.hooks[level] = hook
	}
}

// WithReadResolve installs an identity substitution.
func WithReadResolve(fn func(obj any) (any, error)) TypeOption {
	return func(o *typeOptions) { o.resolve = fn }
}

// WithConstructor replaces zero-value allocation, e.g. for externally
// managed types whose constructor must run.
func WithConstructor(fn func() any) TypeOption {
	return func(o *typeOptions) { o.newFn = func() (any, error) { return fn(), nil } }
}

// WithoutFooter registers the type without footer metadata.
func WithoutFooter() TypeOption { return func(o *typeOptions) { o.noFooter = true } }

func applyTypeOptions(opts []TypeOption) typeOptions {
	var o typeOptions
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

var (
	charType           = reflect.TypeOf(Char(0))
	externalizableType = reflect.TypeOf((*Externalizable)(nil)).Elem()
	unmarshalerType    = reflect.TypeOf((*FieldsUnmarshaler)(nil)).Elem()
	readResolverType   = reflect.TypeOf((*ReadResolver)(nil)).Elem()
)

// Bind derives a descriptor from a pointer-to-struct model.
func Bind(model any, opts ...TypeOption) (*ClassDescriptor, error) {
	t := reflect.TypeOf(model)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidModel
	}
	st := t.Elem()
	o := applyTypeOptions(opts)

	levels, err := bindLevels(st, nil)
	if err != nil {
		return nil, err
	}
	for i := range levels {
		if h, ok := o.hooks[levels[i].Name]; ok {
			levels[i].Hook = h
		}
	}

	d := &ClassDescriptor{
		Strategy: PlainReflective,
		Name:     o.name,
		TypeID:   o.id,
		Checksum: o.checksum,
		Levels:   levels,
		New:      func() (any, error) { return reflect.New(st).Interface(), nil },
	}
	switch {
	case t.Implements(externalizableType):
		d.Strategy = ExternallyManaged
	case t.Implements(unmarshalerType):
		d.Strategy = SelfDescribing
	}
	if o.strategy != nil {
		d.Strategy = *o.strategy
	}
	if d.Name == "" {
		d.Name = strings.ReplaceAll(st.PkgPath(), "/", ".") + "." + st.Name()
	}
	if d.TypeID == 0 {
		d.TypeID = TypeID(d.Name)
	}
	if o.newFn != nil {
		d.New = o.newFn
	}
	switch {
	case o.resolve != nil:
		d.ReadResolve = o.resolve
	case t.Implements(readResolverType):
		d.ReadResolve = func(obj any) (any, error) { return obj.(ReadResolver).ReadResolve() }
	}
	return d, nil
}

// bindLevels flattens st into levels: embedded structs first, in field
// order, then st's own fields.
func bindLevels(st reflect.Type, path []int) ([]ClassLevel, error) {
	var levels []ClassLevel
	own := ClassLevel{Name: st.Name()}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		idx := append(slices.Clip(path), i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			sub, err := bindLevels(f.Type, idx)
			if err != nil {
				return nil, err
			}
			levels = append(levels, sub...)
			continue
		}
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("grid")
		if tag == "-" {
			continue
		}
		fs := FieldSchema{Name: javaFieldName(f.Name), Kind: kindOf(f.Type), Set: fieldSetter(idx)}
		for j, part := range strings.Split(tag, ",") {
			part = strings.TrimSpace(part)
			switch {
			case j == 0 && part != "":
				fs.Name = part
			case strings.HasPrefix(part, "kind="):
				k, err := ParseFieldKind(strings.TrimPrefix(part, "kind="))
				if err != nil {
					return nil, fmt.Errorf("%s.%s: %w", st.Name(), f.Name, err)
				}
				fs.Kind = k
			}
		}
		own.Fields = append(own.Fields, fs)
	}
	return append(levels, own), nil
}

// kindOf maps a Go field type to its wire kind.
func kindOf(t reflect.Type) FieldKind {
	if t == charType {
		return KindChar
	}
	switch t.Kind() {
	case reflect.Int8:
		return KindByte
	case reflect.Int16:
		return KindShort
	case reflect.Int32:
		return KindInt
	case reflect.Int64:
		return KindLong
	case reflect.Float32:
		return KindFloat
	case reflect.Float64:
		return KindDouble
	case reflect.Bool:
		return KindBoolean
	default:
		return KindOther
	}
}

// javaFieldName lower-cases the leading capital run of a Go field name:
// Name → name, ID → id, URLPath → urlPath.
func javaFieldName(s string) string {
	r := []rune(s)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	if n > 1 && n < len(r) && unicode.IsLower(r[n]) {
		n--
	}
	for i := 0; i < n; i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

func fieldSetter(path []int) func(obj, v any) error {
	return func(obj, v any) error {
		rv := reflect.ValueOf(obj)
		if rv.Kind() != reflect.Pointer || rv.IsNil() {
			return fmt.Errorf("cannot set field on %T", obj)
		}
		return assignValue(rv.Elem().FieldByIndex(path), v)
	}
}

// assignValue stores a decoded value into a struct field. Numbers and
// strings convert between compatible kinds; list and set containers fill
// slices; maps fill Go maps.
func assignValue(fv reflect.Value, v any) error {
	if v == nil {
		fv.SetZero()
		return nil
	}
	rv := reflect.ValueOf(v)
	ft := fv.Type()
	switch {
	case rv.Type().AssignableTo(ft):
		fv.Set(rv)
		return nil
	case isNumber(rv.Kind()) && isNumber(ft.Kind()),
		rv.Kind() == reflect.String && ft.Kind() == reflect.String:
		fv.Set(rv.Convert(ft))
		return nil
	case ft.Kind() == reflect.Slice:
		if elems, ok := sequence(v); ok {
			out := reflect.MakeSlice(ft, len(elems), len(elems))
			for i, e := range elems {
				if err := assignValue(out.Index(i), e); err != nil {
					return fmt.Errorf("element %d: %w", i, err)
				}
			}
			fv.Set(out)
			return nil
		}
	case ft.Kind() == reflect.Map:
		if m, ok := v.(*Map); ok {
			out := reflect.MakeMapWithSize(ft, m.Len())
			var err error
			m.Range(func(k, val any) bool {
				kv := reflect.New(ft.Key()).Elem()
				vv := reflect.New(ft.Elem()).Elem()
				if err = assignValue(kv, k); err != nil {
					return false
				}
				if kv.Kind() == reflect.Interface && !kv.IsNil() && !kv.Elem().Comparable() {
					err = fmt.Errorf("%w: %T", ErrUnhashableKey, k)
					return false
				}
				if err = assignValue(vv, val); err != nil {
					return false
				}
				out.SetMapIndex(kv, vv)
				return true
			})
			if err != nil {
				return err
			}
			fv.Set(out)
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T to %s", v, ft)
}

func sequence(v any) ([]any, bool) {
	switch c := v.(type) {
	case *ArrayList:
		return c.Elems, true
	case *LinkedList:
		return c.Values(), true
	case *Set:
		return c.Values(), true
	case *ObjectArray:
		return c.Elems, true
	}
	return nil, false
}

func isNumber(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Float64) && k != reflect.Uintptr
}
