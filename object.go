package bran

import (
	"fmt"
	"reflect"
)

// structCodec is the reflective codec for registered classes. It walks the
// class's field table in declaration order, writing each field's alias
// immediately followed by the field's value. No field count or terminator
// is written.
type structCodec struct{}

func (structCodec) Encode(l *Loader, w *Writer, v any, opts Options) error {
	rv := reflect.Indirect(reflect.ValueOf(v))
	sch, err := l.ns.Schema(rv.Type())
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNoSchema, rv.Type())
	}
	for _, name := range sch.Fields.Keys() {
		alias, err := sch.Aliases.Get(name, false)
		if err != nil {
			return err
		}
		if err := l.encodeValue(w, alias.Value(), opts); err != nil {
			return err
		}
		field := rv.FieldByName(name)
		if !field.IsValid() {
			return fmt.Errorf("%w: %s has no field %s", ErrBadValue, rv.Type(), name)
		}
		if err := l.encodeValue(w, field.Interface(), opts); err != nil {
			return err
		}
	}
	return w.Err()
}

// Decode allocates the target as its zero value, then consumes (alias,
// value) pairs, assigning each through the alias table. It stops once
// fewer than 4 bytes remain: the format writes no terminator, and this
// size heuristic is preserved bit-for-bit for wire compatibility. It
// misfires if a final field encodes to fewer than 4 bytes.
func (structCodec) Decode(l *Loader, t reflect.Type, r *Reader, opts Options) (any, error) {
	ptr := t.Kind() == reflect.Pointer
	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	sch, err := l.ns.Schema(base)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSchema, base)
	}

	pv := reflect.New(base)
	elem := pv.Elem()
	for r.Available() >= 4 {
		// Aliases are always decoded as integers, the typical encoding.
		av, err := l.decodeValue(r, typeInt, opts)
		if err != nil {
			return nil, err
		}
		id, ok := av.(int)
		if !ok {
			return nil, fmt.Errorf("%w: alias decoded as %T", ErrBadValue, av)
		}
		name, err := sch.Aliases.Key(IntAlias(id))
		if err != nil {
			return nil, err
		}
		ftype, err := sch.Fields.Get(name, false)
		if err != nil {
			return nil, err
		}
		val, err := l.decodeValue(r, ftype, opts)
		if err != nil {
			return nil, err
		}
		field := elem.FieldByName(name)
		if !field.IsValid() || !field.CanSet() {
			return nil, fmt.Errorf("%w: %s has no settable field %s", ErrBadValue, base, name)
		}
		if err := assignValue(field, val); err != nil {
			return nil, err
		}
	}
	if ptr {
		return pv.Interface(), nil
	}
	return elem.Interface(), nil
}
