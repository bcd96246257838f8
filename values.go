// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// values.go — Go representations of the wire's built-in value kinds: chars,
// class references, object arrays, lists, insertion-ordered maps and sets,
// string properties, schema-only objects and zero-copy indexed records.

package gridcodec

import (
	"container/list"
	"fmt"
	"reflect"
	"unicode/utf16"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/AndrewDonelson/gridcodec/internal/wire"
)

// Char is a single UTF-16 code unit.
type Char uint16

func (c Char) String() string {
	if utf16.IsSurrogate(rune(c)) {
		return string(utf16.DecodeRune(rune(c), 0))
	}
	return string(rune(c))
}

// Class is a decoded class reference. Name is empty when the type id could
// not be resolved locally.
type Class struct {
	Name   string
	TypeID int32
}

func (c *Class) String() string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("class#%d", c.TypeID)
}

// ObjectArray is an array of arbitrary values with its declared component
// class.
type ObjectArray struct {
	Component *Class
	Elems     []any
}

// ArrayList is a growable list in element order.
type ArrayList struct {
	Elems []any
}

// LinkedList is a doubly linked list in element order.
type LinkedList struct {
	l list.List
}

// NewLinkedList returns a list holding vs in order.
func NewLinkedList(vs ...any) *LinkedList {
	ll := &LinkedList{}
	for _, v := range vs {
		ll.l.PushBack(v)
	}
	return ll
}

// PushBack appends v.
func (ll *LinkedList) PushBack(v any) { ll.l.PushBack(v) }

// Len returns the number of elements.
func (ll *LinkedList) Len() int { return ll.l.Len() }

// Front returns the first element for iteration with Next.
func (ll *LinkedList) Front() *list.Element { return ll.l.Front() }

// Values copies the elements in order.
func (ll *LinkedList) Values() []any {
	out := make([]any, 0, ll.l.Len())
	for e := ll.l.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value)
	}
	return out
}

// Map is a hash or linked hash map. Entries always iterate in insertion
// order. Keys must be comparable Go values; decoded objects compare by
// identity.
type Map struct {
	Linked      bool
	LoadFactor  float32
	AccessOrder bool
	entries     *orderedmap.OrderedMap[any, any]
	arrays      map[arrayKey]any
}

// NewMap returns an empty map.
func NewMap(linked bool, loadFactor float32, accessOrder bool, capacity int) *Map {
	return &Map{
		Linked:      linked,
		LoadFactor:  loadFactor,
		AccessOrder: accessOrder,
		entries:     orderedmap.NewOrderedMapWithCapacity[any, any](capacity),
	}
}

// arrayKey stands in for a slice key. Arrays hash by identity on the wire,
// so two keys are equal only when they share a backing array of the same
// type and length. Empty arrays of one type share an identity.
type arrayKey struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

// key maps k to a comparable entry key.
func (m *Map) key(k any) (any, error) {
	if k == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(k)
	if rv.Comparable() {
		return k, nil
	}
	if rv.Kind() == reflect.Slice {
		return arrayKey{typ: rv.Type(), ptr: rv.Pointer(), n: rv.Len()}, nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnhashableKey, k)
}

// original undoes key.
func (m *Map) original(k any) any {
	if ak, ok := k.(arrayKey); ok {
		return m.arrays[ak]
	}
	return k
}

// Put stores k → v. A repeated key keeps its original position.
func (m *Map) Put(k, v any) error {
	ek, err := m.key(k)
	if err != nil {
		return err
	}
	if ak, ok := ek.(arrayKey); ok {
		if m.arrays == nil {
			m.arrays = make(map[arrayKey]any)
		}
		if _, seen := m.arrays[ak]; !seen {
			m.arrays[ak] = k
		}
	}
	m.entries.Set(ek, v)
	return nil
}

// Get returns the value stored under k.
func (m *Map) Get(k any) (any, bool) {
	ek, err := m.key(k)
	if err != nil {
		return nil, false
	}
	return m.entries.Get(ek)
}

// Len returns the number of entries.
func (m *Map) Len() int { return m.entries.Len() }

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	out := make([]any, 0, m.entries.Len())
	for el := m.entries.Front(); el != nil; el = el.Next() {
		out = append(out, m.original(el.Key))
	}
	return out
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map) Range(fn func(k, v any) bool) {
	for el := m.entries.Front(); el != nil; el = el.Next() {
		if !fn(m.original(el.Key), el.Value) {
			return
		}
	}
}

// Set is a hash or linked hash set backed by a Map whose values are unused.
type Set struct {
	m *Map
}

// NewSet returns an empty set.
func NewSet(linked bool, loadFactor float32, accessOrder bool, capacity int) *Set {
	return &Set{m: NewMap(linked, loadFactor, accessOrder, capacity)}
}

// Add inserts v.
func (s *Set) Add(v any) error { return s.m.Put(v, struct{}{}) }

// Contains reports whether v is a member.
func (s *Set) Contains(v any) bool {
	_, ok := s.m.Get(v)
	return ok
}

// Len returns the number of members.
func (s *Set) Len() int { return s.m.Len() }

// Values returns the members in insertion order.
func (s *Set) Values() []any { return s.m.Keys() }

// Linked reports whether the set was encoded as a linked hash set.
func (s *Set) Linked() bool { return s.m.Linked }

// Backing returns the map holding the members.
func (s *Set) Backing() *Map { return s.m }

// Properties is an insertion-ordered string table with optional defaults.
type Properties struct {
	Defaults *Properties
	entries  *orderedmap.OrderedMap[string, string]
}

// NewProperties returns an empty table.
func NewProperties(defaults *Properties) *Properties {
	return &Properties{Defaults: defaults, entries: orderedmap.NewOrderedMap[string, string]()}
}

// SetProperty stores key → value.
func (p *Properties) SetProperty(key, value string) { p.entries.Set(key, value) }

// Property looks key up here, then in the defaults chain.
func (p *Properties) Property(key string) (string, bool) {
	for cur := p; cur != nil; cur = cur.Defaults {
		if v, ok := cur.entries.Get(key); ok {
			return v, true
		}
	}
	return "", false
}

// Len returns the number of entries, excluding defaults.
func (p *Properties) Len() int { return p.entries.Len() }

// Keys returns the keys set directly on p in insertion order.
func (p *Properties) Keys() []string {
	out := make([]string, 0, p.entries.Len())
	for el := p.entries.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}

// Object is an instance of a type known only by its field list.
type Object struct {
	Class  string
	fields *orderedmap.OrderedMap[string, any]
}

// NewObject returns an object with no fields set.
func NewObject(class string) *Object {
	return &Object{Class: class, fields: orderedmap.NewOrderedMap[string, any]()}
}

// SetField stores a field value; later levels shadow earlier ones.
func (o *Object) SetField(name string, v any) { o.fields.Set(name, v) }

// Field returns a field value.
func (o *Object) Field(name string) (any, bool) { return o.fields.Get(name) }

// FieldNames returns the field names in schema order.
func (o *Object) FieldNames() []string {
	out := make([]string, 0, o.fields.Len())
	for el := o.fields.Front(); el != nil; el = el.Next() {
		out = append(out, el.Key)
	}
	return out
}

// IndexedObject is an undecoded footer-eligible record inside a larger
// buffer. Offsets are absolute so indirect footer entries stay valid.
type IndexedObject struct {
	Tag    wire.Tag
	TypeID int32
	Start  int
	Len    int
	array  []byte
}

// Bytes returns the record bytes without copying.
func (o *IndexedObject) Bytes() []byte { return o.array[o.Start : o.Start+o.Len] }

// Decoder opens a session over the record so it can be decoded in full or
// queried field by field.
func (o *IndexedObject) Decoder(cfg Config) (*Decoder, error) {
	return newDecoderWindow(o.array, o.Start, o.Start+o.Len, cfg)
}
