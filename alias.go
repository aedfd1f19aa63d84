package bran

import "fmt"

type aliasKind uint8

const (
	aliasInt aliasKind = iota
	aliasString
	aliasBytes
)

// Alias is the compact identifier substituted for a field name on the wire.
// Most aliases are allocator-issued integers; a field may instead declare an
// explicit string or raw byte alias. Alias is comparable so it can act as a
// mirrored registry value; byte aliases are held as strings for that reason.
type Alias struct {
	kind aliasKind
	num  int
	str  string
}

// IntAlias returns an integer alias.
func IntAlias(n int) Alias { return Alias{kind: aliasInt, num: n} }

// StringAlias returns an explicit string alias.
func StringAlias(s string) Alias { return Alias{kind: aliasString, str: s} }

// BytesAlias returns an explicit raw byte alias.
func BytesAlias(b []byte) Alias { return Alias{kind: aliasBytes, str: string(b)} }

// aliasOf converts a caller-supplied alias value.
func aliasOf(v any) (Alias, error) {
	switch a := v.(type) {
	case Alias:
		return a, nil
	case int:
		return IntAlias(a), nil
	case string:
		return StringAlias(a), nil
	case []byte:
		return BytesAlias(a), nil
	default:
		return Alias{}, fmt.Errorf("%w: %T", ErrBadAlias, v)
	}
}

// Value returns the alias as the value the wire codecs should encode:
// an int, string or []byte.
func (a Alias) Value() any {
	switch a.kind {
	case aliasString:
		return a.str
	case aliasBytes:
		return []byte(a.str)
	default:
		return a.num
	}
}

// String implements fmt.Stringer for diagnostics.
func (a Alias) String() string {
	switch a.kind {
	case aliasString:
		return a.str
	case aliasBytes:
		return fmt.Sprintf("%q", a.str)
	default:
		return fmt.Sprintf("%d", a.num)
	}
}
