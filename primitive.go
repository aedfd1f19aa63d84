package bran

import (
	"fmt"
	"reflect"
	"unicode/utf8"
)

// boolCodec encodes a boolean as a single 0x00/0x01 byte.
type boolCodec struct{}

func (boolCodec) Encode(_ *Loader, w *Writer, v any, _ Options) error {
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("%w: expected bool, got %T", ErrBadValue, v)
	}
	w.WriteBool(b)
	return w.Err()
}

func (boolCodec) Decode(_ *Loader, _ reflect.Type, r *Reader, _ Options) (any, error) {
	return r.ReadBool(), r.Err()
}

// intCodec encodes an int as a 4-byte signed integer.
type intCodec struct{}

func (intCodec) Encode(_ *Loader, w *Writer, v any, _ Options) error {
	n, ok := v.(int)
	if !ok {
		return fmt.Errorf("%w: expected int, got %T", ErrBadValue, v)
	}
	w.WriteInt32(int32(n))
	return w.Err()
}

func (intCodec) Decode(_ *Loader, _ reflect.Type, r *Reader, _ Options) (any, error) {
	return int(r.ReadInt32()), r.Err()
}

// floatCodec encodes a float64 as 8 IEEE-754 bytes.
type floatCodec struct{}

func (floatCodec) Encode(_ *Loader, w *Writer, v any, _ Options) error {
	f, ok := v.(float64)
	if !ok {
		return fmt.Errorf("%w: expected float64, got %T", ErrBadValue, v)
	}
	w.WriteFloat64(f)
	return w.Err()
}

func (floatCodec) Decode(_ *Loader, _ reflect.Type, r *Reader, _ Options) (any, error) {
	return r.ReadFloat64(), r.Err()
}

// stringCodec encodes text as a 2-byte length prefix followed by UTF-8
// bytes. The prefix historically counts characters while the decoder
// consumes that many bytes, so multi-byte text does not round-trip unless
// Options.ByteLengthText is set.
type stringCodec struct{}

func (stringCodec) Encode(_ *Loader, w *Writer, v any, opts Options) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%w: expected string, got %T", ErrBadValue, v)
	}
	if opts.ByteLengthText {
		w.WriteLength(len(s))
	} else {
		w.WriteLength(utf8.RuneCountInString(s))
	}
	w.WriteRawString(s)
	return w.Err()
}

func (stringCodec) Decode(_ *Loader, _ reflect.Type, r *Reader, _ Options) (any, error) {
	n := r.ReadLength()
	return string(r.ReadRaw(n)), r.Err()
}

// bytesCodec encodes a raw byte slice with a 2-byte byte-count prefix.
type bytesCodec struct{}

func (bytesCodec) Encode(_ *Loader, w *Writer, v any, _ Options) error {
	b, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("%w: expected []byte, got %T", ErrBadValue, v)
	}
	w.WriteLength(len(b))
	w.WriteRaw(b)
	return w.Err()
}

func (bytesCodec) Decode(_ *Loader, _ reflect.Type, r *Reader, _ Options) (any, error) {
	n := r.ReadLength()
	b := r.ReadRaw(n)
	if r.Err() != nil {
		return nil, r.Err()
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}
