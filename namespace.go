package bran

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// TagKey is the struct tag consulted by reflective field scanning. The tag
// value is used as the field's explicit string alias; "-" excludes the field.
const TagKey = "bran"

// typeOf returns the reflect.Type for T without allocating a value.
func typeOf[T any]() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

var (
	typeBool   = typeOf[bool]()
	typeInt    = typeOf[int]()
	typeFloat  = typeOf[float64]()
	typeString = typeOf[string]()
	typeBytes  = typeOf[[]byte]()
	typeSet    = typeOf[Set]()
	typeArray  = typeOf[[]any]()
	typeMap    = typeOf[map[any]any]()
)

// builtins are the wire types preregistered by NewNamespace so their type
// ids are stable across processes that register the same classes in the
// same order.
var builtins = []reflect.Type{
	typeBool, typeInt, typeFloat, typeString,
	typeBytes, typeSet, typeArray, typeMap,
}

// Schema is one registered class's field table (name to value type, in
// declaration order) and alias table (name to compact alias, mirrored so
// decoding can resolve an alias back to a name).
type Schema struct {
	Fields  *Registry[string, reflect.Type]
	Aliases *Registry[string, Alias]
}

func newSchema(aliasIDs *IDAllocator) *Schema {
	return &Schema{
		Fields: NewRegistry[string, reflect.Type](nil),
		Aliases: NewRegistry[string, Alias](func(string) Alias {
			return IntAlias(int(aliasIDs.Next()))
		}),
	}
}

// fieldSpec is one field discovered by scanning or supplied explicitly.
type fieldSpec struct {
	name  string
	typ   reflect.Type
	alias string // explicit alias from the struct tag, "" if none
}

// Namespace aggregates every registered class schema plus the global type
// table shared by all classes and primitive kinds. It is constructed
// explicitly and shared by reference; there is no ambient global instance.
type Namespace struct {
	mu       sync.Mutex // serializes registration and refresh
	classes  *Registry[reflect.Type, *Schema]
	types    *Registry[reflect.Type, int]
	typeIDs  IDAllocator
	aliasIDs IDAllocator
	order    []reflect.Type // classes in first-registration order
}

// NewNamespace creates a Namespace with the builtin wire types
// preregistered in the type table.
func NewNamespace() *Namespace {
	ns := &Namespace{}
	ns.classes = NewRegistry[reflect.Type, *Schema](func(reflect.Type) *Schema {
		return newSchema(&ns.aliasIDs)
	})
	ns.types = NewRegistry[reflect.Type, int](func(reflect.Type) int {
		return int(ns.typeIDs.Next())
	})
	for _, t := range builtins {
		_ = ns.types.Add(t)
	}
	return ns
}

// classOf normalizes a class argument: a reflect.Type is used as-is, any
// other value contributes its type. Pointers are dereferenced so T and *T
// name the same class.
func classOf(v any) (reflect.Type, error) {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: nil class", ErrBadValue)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, nil
}

// fieldTypeOf normalizes a field type argument the same way, but keeps
// pointer types intact.
func fieldTypeOf(v any) (reflect.Type, error) {
	if t, ok := v.(reflect.Type); ok {
		return t, nil
	}
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, fmt.Errorf("%w: nil field value", ErrBadValue)
	}
	return t, nil
}

// RegisterClass registers a class and its fields.
//
// When fields is nil the prototype's struct fields are scanned: exported
// fields become schema fields, embedded structs contribute their fields
// (fields declared on the outer struct win), the TagKey tag supplies an
// explicit alias, and names in ignore are dropped even when inherited.
//
// A non-nil fields map enumerates name to initial value (or reflect.Type)
// pairs explicitly; names are registered in sorted order so the field table
// is deterministic. The aliases map supplies explicit aliases (int, string
// or []byte) by field name; every other field receives an allocator-issued
// integer alias. Alias numbering restarts for each call, so aliases are
// unique within one class only.
//
// Re-registering a known class merges into its existing tables; it is not
// an error.
func (ns *Namespace) RegisterClass(prototype any, fields map[string]any, aliases map[string]any, ignore ...string) error {
	t, err := classOf(prototype)
	if err != nil {
		return err
	}

	var specs []fieldSpec
	if len(fields) == 0 {
		if t.Kind() == reflect.Struct {
			specs = scanFields(t, ignore)
		}
	} else {
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			ft, err := fieldTypeOf(fields[name])
			if err != nil {
				return err
			}
			specs = append(specs, fieldSpec{name: name, typ: ft})
		}
	}

	explicit := make(map[string]Alias, len(aliases))
	for name, v := range aliases {
		a, err := aliasOf(v)
		if err != nil {
			return err
		}
		explicit[name] = a
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.register(t, specs, explicit)
}

// register populates the tables for one registration call. Callers hold
// ns.mu. Registry locks are taken per mutation only, so codecs that
// autoregister types concurrently never deadlock against a registration.
func (ns *Namespace) register(t reflect.Type, specs []fieldSpec, explicit map[string]Alias) error {
	first := !ns.classes.Contains(t)
	sch, err := ns.classes.Get(t, true)
	if err != nil {
		return err
	}
	if first {
		ns.order = append(ns.order, t)
	}
	if err := ns.types.Add(t); err != nil {
		return err
	}

	// Alias numbering is local to one registration call.
	ns.aliasIDs.Reset()

	for _, f := range specs {
		if !sch.Aliases.Contains(f.name) {
			switch a, ok := explicit[f.name]; {
			case ok:
				sch.Aliases.Put(f.name, a)
			case f.alias != "":
				sch.Aliases.Put(f.name, StringAlias(f.alias))
			default:
				if err := sch.Aliases.Add(f.name); err != nil {
					return err
				}
			}
		}
		if err := ns.types.Add(f.typ); err != nil {
			return err
		}
		sch.Fields.Set(f.name, f.typ)
	}
	return nil
}

// scanFields collects the schema fields of a struct type. Fields declared
// on t itself are collected before fields promoted from embedded structs,
// and shadow them by name.
func scanFields(t reflect.Type, ignore []string) []fieldSpec {
	skip := make(map[string]bool, len(ignore))
	for _, name := range ignore {
		skip[name] = true
	}

	var specs []fieldSpec
	collected := make(map[string]bool)

	var walk func(t reflect.Type, embedded bool)
	walk = func(t reflect.Type, embedded bool) {
		var bases []reflect.Type
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.Tag.Get(TagKey) == "-" {
				continue
			}
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				bases = append(bases, f.Type)
				continue
			}
			if f.PkgPath != "" { // unexported
				continue
			}
			if skip[f.Name] || collected[f.Name] {
				continue
			}
			collected[f.Name] = true
			specs = append(specs, fieldSpec{name: f.Name, typ: f.Type, alias: f.Tag.Get(TagKey)})
		}
		for _, base := range bases {
			walk(base, true)
		}
	}
	walk(t, false)
	return specs
}

// RegisterField records one field on an already-registered class, ensuring
// the field's type and alias are registered too.
func (ns *Namespace) RegisterField(class any, name string, fieldType any) error {
	t, err := classOf(class)
	if err != nil {
		return err
	}
	ft, err := fieldTypeOf(fieldType)
	if err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	sch, err := ns.classes.Get(t, false)
	if err != nil {
		return err
	}
	sch.Fields.Set(name, ft)
	if err := ns.types.Add(ft); err != nil {
		return err
	}
	return sch.Aliases.Add(name)
}

// RegisterAlias sets or overwrites one field's alias without touching its
// field-type entry. A nil alias autogenerates the next integer alias.
func (ns *Namespace) RegisterAlias(class any, name string, alias any) error {
	t, err := classOf(class)
	if err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	sch, err := ns.classes.Get(t, false)
	if err != nil {
		return err
	}
	// Overwrite: pop the forward entry; the stale reverse entry remains so
	// streams written under the old alias still resolve.
	sch.Aliases.Remove(name)
	if alias == nil {
		return sch.Aliases.Add(name)
	}
	a, err := aliasOf(alias)
	if err != nil {
		return err
	}
	sch.Aliases.Put(name, a)
	return nil
}

// Schema returns the schema registered for a class.
func (ns *Namespace) Schema(class any) (*Schema, error) {
	t, err := classOf(class)
	if err != nil {
		return nil, err
	}
	return ns.classes.Get(t, false)
}

// TypeID resolves a type's global id, allocating one when autoregister is
// set.
func (ns *Namespace) TypeID(t reflect.Type, autoregister bool) (int, error) {
	return ns.types.Get(t, autoregister)
}

// TypeOf resolves a global type id back to its type.
func (ns *Namespace) TypeOf(id int) (reflect.Type, error) {
	return ns.types.Key(id)
}

// Classes returns the registered classes in first-registration order.
func (ns *Namespace) Classes() []reflect.Type {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return slices.Clone(ns.order)
}

// Refresh snapshots every class's field and alias tables, clears all
// registries, resets both allocators, and re-registers every class in its
// original registration order. Numeric ids are renumbered deterministically;
// the set of classes, fields and explicit aliases is unchanged. Used when
// the id-generation policy changes after classes were already registered.
func (ns *Namespace) Refresh() error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	type snapshot struct {
		class    reflect.Type
		specs    []fieldSpec
		explicit map[string]Alias
	}
	snaps := make([]snapshot, 0, len(ns.order))
	for _, t := range ns.order {
		sch, err := ns.classes.Get(t, false)
		if err != nil {
			return err
		}
		snap := snapshot{class: t, explicit: make(map[string]Alias)}
		for _, e := range sch.Fields.Items() {
			snap.specs = append(snap.specs, fieldSpec{name: e.Key, typ: e.Value})
		}
		for _, e := range sch.Aliases.Items() {
			// Integer aliases are renumbered; explicit ones survive.
			if e.Value.kind != aliasInt {
				snap.explicit[e.Key] = e.Value
			}
		}
		snaps = append(snaps, snap)
	}

	ns.classes.Clear()
	ns.types.Clear()
	ns.typeIDs.Reset()
	ns.aliasIDs.Reset()
	ns.order = ns.order[:0]

	// Builtin wire types keep their low ids across a refresh.
	for _, t := range builtins {
		if err := ns.types.Add(t); err != nil {
			return err
		}
	}

	for _, snap := range snaps {
		if err := ns.register(snap.class, snap.specs, snap.explicit); err != nil {
			return err
		}
	}
	return nil
}
