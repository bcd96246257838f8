// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// containers.go — object arrays, lists, maps, sets and properties. Each
// container takes its handle before its elements so children can refer
// back to it; sets own a handle-less backing map and properties take
// theirs after their entries.

package gridcodec

import (
	"fmt"

	"github.com/AndrewDonelson/gridcodec/internal/wire"
)

func (d *Decoder) readObjectArray() (any, error) {
	comp, err := d.readClassRef()
	if err != nil {
		return nil, err
	}
	n, err := d.src.ReadLen(1)
	if err != nil {
		return nil, err
	}
	arr := &ObjectArray{Component: comp, Elems: make([]any, n)}
	d.handles.Assign(arr)
	for i := range arr.Elems {
		if arr.Elems[i], err = d.readValue(); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

func (d *Decoder) readArrayList() (any, error) {
	n, err := d.src.ReadLen(1)
	if err != nil {
		return nil, err
	}
	l := &ArrayList{Elems: make([]any, 0, n)}
	d.handles.Assign(l)
	for i := 0; i < n; i++ {
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		l.Elems = append(l.Elems, v)
	}
	return l, nil
}

func (d *Decoder) readLinkedList() (any, error) {
	n, err := d.src.ReadLen(1)
	if err != nil {
		return nil, err
	}
	l := NewLinkedList()
	d.handles.Assign(l)
	for i := 0; i < n; i++ {
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		l.PushBack(v)
	}
	return l, nil
}

type mapHeader struct {
	size        int
	loadFactor  float32
	accessOrder bool
}

// readMapHeader reads size, load factor and, for linked variants, the
// access-order flag. minEntry bounds size against the remaining bytes.
func (d *Decoder) readMapHeader(linked bool, minEntry int) (mapHeader, error) {
	var h mapHeader
	var err error
	if h.size, err = d.src.ReadLen(minEntry); err != nil {
		return h, err
	}
	if h.loadFactor, err = d.src.ReadFloat32(); err != nil {
		return h, err
	}
	if linked {
		if h.accessOrder, err = d.src.ReadBool(); err != nil {
			return h, err
		}
	}
	return h, nil
}

func (d *Decoder) readMap(linked bool) (any, error) {
	h, err := d.readMapHeader(linked, 2)
	if err != nil {
		return nil, err
	}
	m := NewMap(linked, h.loadFactor, h.accessOrder, h.size)
	d.handles.Assign(m)
	for i := 0; i < h.size; i++ {
		k, err := d.readValue()
		if err != nil {
			return nil, err
		}
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		if err := m.Put(k, v); err != nil {
			return nil, &ReconstructionError{Type: mapTag(linked).String(), Cause: err}
		}
	}
	return m, nil
}

func (d *Decoder) readSet(linked bool) (any, error) {
	set := &Set{}
	d.handles.Assign(set)
	h, err := d.readMapHeader(linked, 1)
	if err != nil {
		return nil, err
	}
	set.m = NewMap(linked, h.loadFactor, h.accessOrder, h.size)
	for i := 0; i < h.size; i++ {
		k, err := d.readValue()
		if err != nil {
			return nil, err
		}
		if err := set.Add(k); err != nil {
			return nil, &ReconstructionError{Type: setTag(linked).String(), Cause: err}
		}
	}
	return set, nil
}

func (d *Decoder) readProperties() (any, error) {
	noDefaults, err := d.src.ReadBool()
	if err != nil {
		return nil, err
	}
	var defaults *Properties
	if !noDefaults {
		v, err := d.readValue()
		if err != nil {
			return nil, err
		}
		if v != nil {
			var ok bool
			if defaults, ok = v.(*Properties); !ok {
				return nil, fmt.Errorf("properties defaults decoded as %T", v)
			}
		}
	}
	n, err := d.src.ReadLen(8)
	if err != nil {
		return nil, err
	}
	p := NewProperties(defaults)
	for i := 0; i < n; i++ {
		k, _, err := d.src.ReadUTF()
		if err != nil {
			return nil, err
		}
		v, _, err := d.src.ReadUTF()
		if err != nil {
			return nil, err
		}
		p.SetProperty(k, v)
	}
	d.handles.Assign(p)
	return p, nil
}

func mapTag(linked bool) wire.Tag {
	if linked {
		return wire.TagLinkedHashMap
	}
	return wire.TagHashMap
}

func setTag(linked bool) wire.Tag {
	if linked {
		return wire.TagLinkedHashSet
	}
	return wire.TagHashSet
}
