// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// render.go — indented text rendering of decoded object graphs. Shared
// references print once; later occurrences print as a back-reference.

package main

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AndrewDonelson/gridcodec"
)

type renderer struct {
	w    io.Writer
	seen map[any]int
	next int
}

func render(w io.Writer, v any) {
	r := &renderer{w: w, seen: make(map[any]int)}
	r.value(v, 0)
	fmt.Fprintln(w)
}

func (r *renderer) line(depth int, format string, args ...any) {
	fmt.Fprintf(r.w, "\n%s", strings.Repeat("  ", depth))
	fmt.Fprintf(r.w, format, args...)
}

// ref reports whether v was printed before and otherwise numbers it.
func (r *renderer) ref(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return 0, false
	}
	key := rv.Pointer()
	if n, ok := r.seen[key]; ok {
		return n, true
	}
	r.next++
	r.seen[key] = r.next
	return r.next, false
}

func (r *renderer) value(v any, depth int) {
	switch x := v.(type) {
	case nil:
		fmt.Fprint(r.w, "null")
	case string:
		fmt.Fprintf(r.w, "%q", x)
	case gridcodec.Char:
		fmt.Fprintf(r.w, "'%s'", x)
	case time.Time:
		fmt.Fprint(r.w, x.Format(time.RFC3339Nano))
	case uuid.UUID:
		fmt.Fprint(r.w, x.String())
	case []byte:
		fmt.Fprintf(r.w, "bytes[%d] %x", len(x), x)
	case *gridcodec.Class:
		fmt.Fprintf(r.w, "class %s", x)
	case *gridcodec.IndexedObject:
		fmt.Fprintf(r.w, "indexed %s type=%d [%d,+%d)", x.Tag, x.TypeID, x.Start, x.Len)
	case *gridcodec.Object:
		r.composite(x, depth, fmt.Sprintf("%s {", x.Class), "}", func() {
			for _, name := range x.FieldNames() {
				f, _ := x.Field(name)
				r.line(depth+1, "%s: ", name)
				r.value(f, depth+1)
			}
		})
	case *gridcodec.ArrayList:
		r.list(x, depth, "ArrayList", x.Elems)
	case *gridcodec.LinkedList:
		r.list(x, depth, "LinkedList", x.Values())
	case *gridcodec.ObjectArray:
		r.list(x, depth, fmt.Sprintf("%s[]", x.Component), x.Elems)
	case *gridcodec.Set:
		name := "HashSet"
		if x.Linked() {
			name = "LinkedHashSet"
		}
		r.list(x, depth, name, x.Values())
	case *gridcodec.Map:
		name := "HashMap"
		if x.Linked {
			name = "LinkedHashMap"
		}
		r.composite(x, depth, name+" {", "}", func() {
			x.Range(func(k, val any) bool {
				r.line(depth+1, "")
				r.value(k, depth+1)
				fmt.Fprint(r.w, " => ")
				r.value(val, depth+1)
				return true
			})
		})
	case *gridcodec.Properties:
		r.composite(x, depth, "Properties {", "}", func() {
			for _, k := range x.Keys() {
				p, _ := x.Property(k)
				r.line(depth+1, "%q = %q", k, p)
			}
			if x.Defaults != nil {
				r.line(depth+1, "defaults: ")
				r.value(x.Defaults, depth+1)
			}
		})
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct {
			r.composite(v, depth, fmt.Sprintf("%s {", rv.Elem().Type()), "}", func() {
				st := rv.Elem()
				for i := 0; i < st.NumField(); i++ {
					if !st.Type().Field(i).IsExported() {
						continue
					}
					r.line(depth+1, "%s: ", st.Type().Field(i).Name)
					r.value(st.Field(i).Interface(), depth+1)
				}
			})
			return
		}
		fmt.Fprintf(r.w, "%v", v)
	}
}

func (r *renderer) composite(v any, depth int, open, closing string, body func()) {
	n, dup := r.ref(v)
	if dup {
		fmt.Fprintf(r.w, "@%d", n)
		return
	}
	fmt.Fprintf(r.w, "#%d %s", n, open)
	body()
	r.line(depth, "%s", closing)
}

func (r *renderer) list(v any, depth int, name string, elems []any) {
	r.composite(v, depth, fmt.Sprintf("%s(%d) [", name, len(elems)), "]", func() {
		for _, e := range elems {
			r.line(depth+1, "")
			r.value(e, depth+1)
		}
	})
}
