package bran

import (
	"fmt"
	"reflect"
)

// Set is an unordered collection of unique values. Elements must be
// comparable; heterogeneous element types are allowed because every
// element carries its own type id on the wire.
type Set map[any]struct{}

// NewSet creates a Set holding the given items.
func NewSet(items ...any) Set {
	s := make(Set, len(items))
	for _, v := range items {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts an item.
func (s Set) Add(v any) { s[v] = struct{}{} }

// Contains reports whether v is in the set.
func (s Set) Contains(v any) bool {
	_, ok := s[v]
	return ok
}

// Len returns the number of items.
func (s Set) Len() int { return len(s) }

// writeTypeID emits a 2-byte element type id.
func writeTypeID(w *Writer, id int) {
	if !fitsPrefix(id) {
		w.setError(fmt.Errorf("%w: type id %d", ErrTooLong, id))
		return
	}
	w.WriteInt16(int16(id))
}

// assignValue stores a decoded value into dst, converting when the types
// are convertible but not directly assignable.
func assignValue(dst reflect.Value, v any) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	if rv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}
	return fmt.Errorf("%w: cannot assign %s to %s", ErrBadValue, rv.Type(), dst.Type())
}

// setCodec encodes a Set as a 2-byte count followed by, per element, a
// 2-byte type id (autoregistering new types) and the element itself.
type setCodec struct{}

func (setCodec) Encode(l *Loader, w *Writer, v any, opts Options) error {
	s, ok := v.(Set)
	if !ok {
		return fmt.Errorf("%w: expected Set, got %T", ErrBadValue, v)
	}
	w.WriteLength(len(s))
	for item := range s {
		id, err := l.ns.TypeID(reflect.TypeOf(item), true)
		if err != nil {
			return err
		}
		writeTypeID(w, id)
		if err := l.encodeValue(w, item, opts); err != nil {
			return err
		}
	}
	return w.Err()
}

func (setCodec) Decode(l *Loader, _ reflect.Type, r *Reader, opts Options) (any, error) {
	n := r.ReadLength()
	if r.Err() != nil {
		return nil, r.Err()
	}
	s := make(Set, n)
	for i := 0; i < n; i++ {
		t, err := l.ns.TypeOf(int(r.ReadInt16()))
		if r.Err() != nil {
			return nil, r.Err()
		}
		if err != nil {
			return nil, err
		}
		item, err := l.decodeValue(r, t, opts)
		if err != nil {
			return nil, err
		}
		s[item] = struct{}{}
	}
	return s, nil
}

// arrayCodec encodes any slice or array as a 2-byte count followed by, per
// element, a 2-byte type id, a 2-byte element index and the element itself.
// The index makes element order explicit on the wire.
type arrayCodec struct{}

func (arrayCodec) Encode(l *Loader, w *Writer, v any, opts Options) error {
	rv := reflect.ValueOf(v)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return fmt.Errorf("%w: expected slice or array, got %T", ErrBadValue, v)
	}
	n := rv.Len()
	w.WriteLength(n)
	for i := 0; i < n; i++ {
		item := rv.Index(i).Interface()
		id, err := l.ns.TypeID(reflect.TypeOf(item), true)
		if err != nil {
			return err
		}
		writeTypeID(w, id)
		w.WriteInt16(int16(i))
		if err := l.encodeValue(w, item, opts); err != nil {
			return err
		}
	}
	return w.Err()
}

func (arrayCodec) Decode(l *Loader, t reflect.Type, r *Reader, opts Options) (any, error) {
	if t == nil || (t.Kind() != reflect.Slice && t.Kind() != reflect.Array) {
		t = typeArray
	}
	n := r.ReadLength()
	if r.Err() != nil {
		return nil, r.Err()
	}
	var rv reflect.Value
	if t.Kind() == reflect.Array {
		if n != t.Len() {
			return nil, fmt.Errorf("%w: %d elements for %s", ErrBadValue, n, t)
		}
		rv = reflect.New(t).Elem()
	} else {
		rv = reflect.MakeSlice(t, n, n)
	}
	for i := 0; i < n; i++ {
		elemType, err := l.ns.TypeOf(int(r.ReadInt16()))
		index := int(r.ReadInt16())
		if r.Err() != nil {
			return nil, r.Err()
		}
		if err != nil {
			return nil, err
		}
		item, err := l.decodeValue(r, elemType, opts)
		if err != nil {
			return nil, err
		}
		if index < 0 || index >= n {
			return nil, fmt.Errorf("%w: element index %d out of range", ErrBadValue, index)
		}
		if err := assignValue(rv.Index(index), item); err != nil {
			return nil, err
		}
	}
	return rv.Interface(), nil
}

// mapCodec encodes any map as a 2-byte count followed by, per entry, a
// 2-byte key type id, the key, a 2-byte value type id and the value.
type mapCodec struct{}

func (mapCodec) Encode(l *Loader, w *Writer, v any, opts Options) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return fmt.Errorf("%w: expected map, got %T", ErrBadValue, v)
	}
	w.WriteLength(rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key().Interface()
		val := iter.Value().Interface()

		id, err := l.ns.TypeID(reflect.TypeOf(key), true)
		if err != nil {
			return err
		}
		writeTypeID(w, id)
		if err := l.encodeValue(w, key, opts); err != nil {
			return err
		}

		id, err = l.ns.TypeID(reflect.TypeOf(val), true)
		if err != nil {
			return err
		}
		writeTypeID(w, id)
		if err := l.encodeValue(w, val, opts); err != nil {
			return err
		}
	}
	return w.Err()
}

func (mapCodec) Decode(l *Loader, t reflect.Type, r *Reader, opts Options) (any, error) {
	if t == nil || t.Kind() != reflect.Map {
		t = typeMap
	}
	n := r.ReadLength()
	if r.Err() != nil {
		return nil, r.Err()
	}
	rv := reflect.MakeMapWithSize(t, n)
	keySlot := reflect.New(t.Key()).Elem()
	valSlot := reflect.New(t.Elem()).Elem()
	for i := 0; i < n; i++ {
		keyType, err := l.ns.TypeOf(int(r.ReadInt16()))
		if r.Err() != nil {
			return nil, r.Err()
		}
		if err != nil {
			return nil, err
		}
		key, err := l.decodeValue(r, keyType, opts)
		if err != nil {
			return nil, err
		}

		valType, err := l.ns.TypeOf(int(r.ReadInt16()))
		if r.Err() != nil {
			return nil, r.Err()
		}
		if err != nil {
			return nil, err
		}
		val, err := l.decodeValue(r, valType, opts)
		if err != nil {
			return nil, err
		}

		if err := assignValue(keySlot, key); err != nil {
			return nil, err
		}
		if err := assignValue(valSlot, val); err != nil {
			return nil, err
		}
		rv.SetMapIndex(keySlot, valSlot)
	}
	return rv.Interface(), nil
}
