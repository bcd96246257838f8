// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// registry.go — the default SchemaResolver. Descriptors are registered
// once and read concurrently by decoder sessions; ids unknown locally are
// looked up by class name through an optional MappingStore.

package gridcodec

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Mappings resolves type ids this node has never seen to class names.
	Mappings *MappingStore
	// LookupTimeout bounds one Mappings lookup. Default 2s.
	LookupTimeout time.Duration
	// FieldTypeMarkers must match the decoder's Config so that footer
	// metadata carries the marker byte in primitive lengths.
	FieldTypeMarkers bool
	// IDs derives footer field ids. Default LowerCaseHashIDs.
	IDs    FieldIDResolver
	Logger Logger
}

func (o *RegistryOptions) defaults() {
	if o.LookupTimeout <= 0 {
		o.LookupTimeout = 2 * time.Second
	}
	if o.IDs == nil {
		o.IDs = LowerCaseHashIDs{}
	}
	if o.Logger == nil {
		o.Logger = noopLogger{}
	}
}

// Registry holds class descriptors and footer metadata by type id.
type Registry struct {
	mu      sync.RWMutex
	byID    map[int32]*ClassDescriptor
	byName  map[string]*ClassDescriptor
	footers map[int32]FooterMetadata
	opts    RegistryOptions
}

// NewRegistry returns an empty registry.
func NewRegistry(opts RegistryOptions) *Registry {
	opts.defaults()
	return &Registry{
		byID:    make(map[int32]*ClassDescriptor),
		byName:  make(map[string]*ClassDescriptor),
		footers: make(map[int32]FooterMetadata),
		opts:    opts,
	}
}

// Register adds a descriptor. Ids and names are unique.
func (r *Registry) Register(d *ClassDescriptor) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalidSchema)
	}
	if err := d.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byID[d.TypeID]; ok {
		return fmt.Errorf("%w: id %d already names %s", ErrTypeDuplicate, d.TypeID, prev.Name)
	}
	if _, ok := r.byName[d.Name]; ok {
		return fmt.Errorf("%w: %s", ErrTypeDuplicate, d.Name)
	}
	r.byID[d.TypeID] = d
	r.byName[d.Name] = d
	return nil
}

// SetFooterMetadata declares the footer layout of a registered type.
func (r *Registry) SetFooterMetadata(id int32, md FooterMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return &UnknownTypeError{TypeID: id}
	}
	r.footers[id] = md
	return nil
}

// register adds d and, when d is footer-eligible and has no custom level
// hooks, its derived footer metadata.
func (r *Registry) register(d *ClassDescriptor, o typeOptions) error {
	if err := r.Register(d); err != nil {
		return err
	}
	if o.noFooter || d.hasHooks() {
		return nil
	}
	if d.Strategy != PlainReflective && d.Strategy != SelfDescribing {
		return nil
	}
	return r.SetFooterMetadata(d.TypeID, BuildFooterMetadata(d, r.opts.IDs, r.opts.FieldTypeMarkers))
}

// RegisterType binds a pointer-to-struct model and registers it.
func (r *Registry) RegisterType(model any, opts ...TypeOption) (*ClassDescriptor, error) {
	d, err := Bind(model, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.register(d, applyTypeOptions(opts)); err != nil {
		return nil, err
	}
	return d, nil
}

// GenericField is one field of a schema-only type.
type GenericField struct {
	Name string
	Kind FieldKind
}

// GenericLevel is one class level of a schema-only type.
type GenericLevel struct {
	Name   string
	Fields []GenericField
}

// RegisterGeneric registers a type known only by its field layout. Its
// instances decode into *Object.
func (r *Registry) RegisterGeneric(name string, levels []GenericLevel, opts ...TypeOption) (*ClassDescriptor, error) {
	o := applyTypeOptions(opts)
	d := &ClassDescriptor{
		Strategy: PlainReflective,
		Name:     name,
		TypeID:   o.id,
		Checksum: o.checksum,
		New:      func() (any, error) { return NewObject(name), nil },
	}
	if o.strategy != nil {
		d.Strategy = *o.strategy
	}
	if d.TypeID == 0 {
		d.TypeID = TypeID(name)
	}
	for _, gl := range levels {
		lvl := ClassLevel{Name: gl.Name, Hook: o.hooks[gl.Name]}
		for _, gf := range gl.Fields {
			fname := gf.Name
			lvl.Fields = append(lvl.Fields, FieldSchema{
				Name: fname,
				Kind: gf.Kind,
				Set: func(obj, v any) error {
					o, ok := obj.(*Object)
					if !ok {
						return fmt.Errorf("want *Object, got %T", obj)
					}
					o.SetField(fname, v)
					return nil
				},
			})
		}
		d.Levels = append(d.Levels, lvl)
	}
	if o.newFn != nil {
		d.New = o.newFn
	}
	d.ReadResolve = o.resolve
	if err := r.register(d, o); err != nil {
		return nil, err
	}
	return d, nil
}

// RegisterEnum registers an enum whose ordinals index constants.
func (r *Registry) RegisterEnum(name string, constants []any, opts ...TypeOption) (*ClassDescriptor, error) {
	o := applyTypeOptions(opts)
	d := &ClassDescriptor{
		Strategy:  EnumConstant,
		Name:      name,
		TypeID:    o.id,
		Constants: constants,
	}
	if d.TypeID == 0 {
		d.TypeID = TypeID(name)
	}
	if err := r.Register(d); err != nil {
		return nil, err
	}
	return d, nil
}

// ResolveID implements SchemaResolver.
func (r *Registry) ResolveID(id int32) (*ClassDescriptor, error) {
	r.mu.RLock()
	d, ok := r.byID[id]
	r.mu.RUnlock()
	if ok {
		return d, nil
	}
	if r.opts.Mappings == nil {
		return nil, &UnknownTypeError{TypeID: id}
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.opts.LookupTimeout)
	defer cancel()
	name, err := r.opts.Mappings.Lookup(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			r.opts.Logger.Warn("gridcodec: mapping lookup failed", "type_id", id, "error", err)
		}
		return nil, &UnknownTypeError{TypeID: id, Err: err}
	}
	r.mu.RLock()
	d, ok = r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTypeError{TypeID: id, Name: name}
	}
	return d, nil
}

// ResolveName implements SchemaResolver.
func (r *Registry) ResolveName(name string) (*ClassDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.byName[name]; ok {
		return d, nil
	}
	return nil, &UnknownTypeError{Name: name}
}

// FooterMetadata implements SchemaResolver.
func (r *Registry) FooterMetadata(id int32) (FooterMetadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	md, ok := r.footers[id]
	return md, ok
}

// Descriptors returns every registered descriptor sorted by name.
func (r *Registry) Descriptors() []*ClassDescriptor {
	r.mu.RLock()
	out := make([]*ClassDescriptor, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Publish registers every local id → name mapping with the MappingStore.
// Conflicts are collected; the remaining mappings are still published.
func (r *Registry) Publish(ctx context.Context) error {
	if r.opts.Mappings == nil {
		return nil
	}
	var errs []error
	for _, d := range r.Descriptors() {
		if err := r.opts.Mappings.Register(ctx, d.TypeID, d.Name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
