package bran

import "errors"

var (
	// ErrNotRegistered indicates a registry lookup for a key with no entry
	// and autoregistration disabled.
	ErrNotRegistered = errors.New("bran: no entry registered for key")

	// ErrNoCodec indicates that no codec is bound for a type.
	ErrNoCodec = errors.New("bran: no codec registered for type")

	// ErrUnknownTypeTag indicates that a tagged stream carries a type id
	// that is not present in the type table.
	ErrUnknownTypeTag = errors.New("bran: unknown type tag")

	// ErrNoSchema indicates that a type with no registered field table was
	// handed to the reflective struct codec.
	ErrNoSchema = errors.New("bran: no fields registered for type")

	// ErrBadValue indicates that a codec received a value of a type it
	// cannot encode, or decoded a value that cannot be assigned to its target.
	ErrBadValue = errors.New("bran: value does not match codec type")

	// ErrBadAlias indicates an explicit alias that is not an int, string or
	// byte slice.
	ErrBadAlias = errors.New("bran: alias must be an int, string or []byte")

	// ErrTooLong indicates a length that does not fit the 16-bit prefix
	// used by the wire format.
	ErrTooLong = errors.New("bran: length exceeds 16-bit prefix")

	// ErrFile indicates an invalid path on read, or a failed write.
	ErrFile = errors.New("bran: invalid file path")
)
