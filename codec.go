// Package bran is a schema-driven binary object serializer. Registered
// classes are encoded as compact streams of numeric aliases instead of
// field names; a shared type table makes self-describing ("tagged")
// streams possible for heterogeneous data.
package bran

import "reflect"

// Options control encoding and decoding behavior. The zero value is the
// default: untagged streams and character-counted text prefixes.
type Options struct {
	// Tagging prefixes every encoded value with its global type id,
	// making the stream self-describing. Both sides must agree.
	Tagging bool

	// ByteLengthText makes the text length prefix count encoded bytes
	// instead of characters. The default character count is kept for
	// compatibility with the historical format even though it under-counts
	// multi-byte text; enable this for correct round-trips of such text.
	ByteLengthText bool
}

// Codec encodes and decodes values of one kind. Codecs are stateless and
// reentrant: nested values are delegated back to the Loader so mixed and
// tagged content resolves uniformly, and a single instance may be shared
// by any number of goroutines.
type Codec interface {
	// Encode appends v to w. Errors latch on the writer; Encode returns
	// the first failure so callers can stop early.
	Encode(l *Loader, w *Writer, v any, opts Options) error

	// Decode consumes one value of type t from r.
	Decode(l *Loader, t reflect.Type, r *Reader, opts Options) (any, error)
}
