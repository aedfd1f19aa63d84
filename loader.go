package bran

import (
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"
)

// writerPool reuses scratch writers across Serialize calls to reduce GC
// pressure. 4KB covers common payload sizes without re-allocation.
var writerPool = sync.Pool{
	New: func() any {
		return &Writer{buf: make([]byte, 0, 4096)}
	},
}

// Loader binds concrete types to codecs and dispatches every encode and
// decode through those bindings, so nested and tagged values resolve
// uniformly. It also reads and writes whole payloads from files.
//
// A Loader is safe for concurrent use. Codec bindings live in a concurrent
// map and at most one instance exists per codec implementation; no lock is
// ever held across a recursive encode or decode, so codecs that trigger
// type autoregistration stay reentrant.
type Loader struct {
	ns        *Namespace
	codecs    *xsync.Map[reflect.Type, Codec] // value type -> codec instance
	instances *xsync.Map[reflect.Type, Codec] // codec implementation type -> shared instance
}

// Default codec instances, shared by every Loader's fallback paths.
var (
	defaultArray  Codec = arrayCodec{}
	defaultMap    Codec = mapCodec{}
	defaultSet    Codec = setCodec{}
	defaultStruct Codec = structCodec{}
)

// NewLoader creates a Loader over the given Namespace, with codecs bound
// for the builtin wire types. A nil namespace gets a fresh one.
func NewLoader(ns *Namespace) *Loader {
	if ns == nil {
		ns = NewNamespace()
	}
	l := &Loader{
		ns:        ns,
		codecs:    xsync.NewMap[reflect.Type, Codec](),
		instances: xsync.NewMap[reflect.Type, Codec](),
	}
	l.Register(typeBool, boolCodec{})
	l.Register(typeInt, intCodec{})
	l.Register(typeFloat, floatCodec{})
	l.Register(typeString, stringCodec{})
	l.Register(typeBytes, bytesCodec{})
	l.Register(typeSet, defaultSet)
	l.Register(typeArray, defaultArray)
	l.Register(typeMap, defaultMap)
	return l
}

// Namespace returns the schema namespace this Loader dispatches against.
func (l *Loader) Namespace() *Namespace { return l.ns }

// Register installs or overrides the codec binding for a type. Codecs are
// deduplicated per implementation type, so binding the same codec to many
// types shares one instance.
func (l *Loader) Register(t reflect.Type, c Codec) {
	shared, _ := l.instances.LoadOrStore(reflect.TypeOf(c), c)
	l.codecs.Store(t, shared)
}

// Codec resolves the codec bound to a type. Unbound slice and map types
// fall back to the generic collection codecs, and struct types with a
// registered schema fall back to the reflective struct codec; anything
// else fails with ErrNoCodec.
func (l *Loader) Codec(t reflect.Type) (Codec, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrNoCodec)
	}
	if c, ok := l.codecs.Load(t); ok {
		return c, nil
	}
	switch t.Kind() {
	case reflect.Pointer:
		return l.Codec(t.Elem())
	case reflect.Slice, reflect.Array:
		return defaultArray, nil
	case reflect.Map:
		return defaultMap, nil
	case reflect.Struct:
		if _, err := l.ns.Schema(t); err == nil {
			return defaultStruct, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoCodec, t)
}

// encodeValue dispatches one value, prepending its integer-encoded type id
// when tagging is on. Collection and struct codecs recurse through here so
// nested values are tagged consistently.
func (l *Loader) encodeValue(w *Writer, v any, opts Options) error {
	t := reflect.TypeOf(v)
	if t == nil {
		return fmt.Errorf("%w: nil value", ErrNoCodec)
	}
	if opts.Tagging {
		id, err := l.ns.TypeID(t, true)
		if err != nil {
			return err
		}
		w.WriteInt32(int32(id))
	}
	c, err := l.Codec(t)
	if err != nil {
		return err
	}
	return c.Encode(l, w, v, opts)
}

// decodeValue dispatches one value. With tagging on, the leading type id
// is resolved through the type table and overrides the caller-supplied
// target type.
func (l *Loader) decodeValue(r *Reader, target reflect.Type, opts Options) (any, error) {
	if opts.Tagging {
		id := int(r.ReadInt32())
		if err := r.Err(); err != nil {
			return nil, err
		}
		t, err := l.ns.TypeOf(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %d", ErrUnknownTypeTag, id)
		}
		target = t
	}
	c, err := l.Codec(target)
	if err != nil {
		return nil, err
	}
	return c.Decode(l, target, r, opts)
}

// Serialize encodes v into a fresh byte slice.
func (l *Loader) Serialize(v any, opts Options) ([]byte, error) {
	w := writerPool.Get().(*Writer)
	w.Reset()
	defer writerPool.Put(w)

	if err := l.encodeValue(w, v, opts); err != nil {
		return nil, err
	}
	if err := w.Err(); err != nil {
		return nil, err
	}
	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out, nil
}

// Deserialize decodes one value of the target type from data. With
// Options.Tagging set the target may be nil; the stream's leading type tag
// selects the type instead. A failed decode makes no guarantee about any
// partially constructed result.
func (l *Loader) Deserialize(data []byte, target reflect.Type, opts Options) (any, error) {
	return l.decodeValue(NewReader(data), target, opts)
}

// Deserialize decodes one value of type T from data using l.
func Deserialize[T any](l *Loader, data []byte, opts Options) (T, error) {
	var zero T
	v, err := l.Deserialize(data, typeOf[T](), opts)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: decoded %T, want %s", ErrBadValue, v, typeOf[T]())
	}
	return out, nil
}

// Read deserializes a value of the target type from the file at path. A
// missing or unreadable path fails with ErrFile.
func (l *Loader) Read(path string, target reflect.Type, opts Options) (any, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrFile, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFile, path, err)
	}
	return l.Deserialize(data, target, opts)
}

// Write serializes v to the file at path. An unwritable path fails with
// ErrFile.
func (l *Loader) Write(path string, v any, opts Options) error {
	data, err := l.Serialize(v, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFile, path, err)
	}
	return nil
}
