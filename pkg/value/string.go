package value

// ObjString is ember's immutable, interned string cell. Equality of two
// ObjStrings by content is established once, at intern time (see
// gc.Interner in pkg/gc/intern.go); after that, pointer identity is content
// equality, which is what Equal (value.go) relies on.
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

// NewString constructs an un-interned ObjString. Production code should
// go through gc.Interner (pkg/gc/intern.go) instead of calling this directly,
// so that two equal-content strings become the same cell; it is exported
// for the interner and for tests that need a throwaway string cell.
func NewString(s string) *ObjString {
	return &ObjString{Header: Header{Kind: TypeString}, Chars: s, Hash: fnvHash32(s)}
}

func (s *ObjString) String() string { return s.Chars }

// fnvHash32 computes the FNV-1a hash stored in ObjString.Hash (spec.md §4.5
// names no particular hash; FNV-1a is the reference implementation's
// choice). Neither the interner (keyed by the Go string) nor the globals
// table (keyed by the *ObjString pointer) reads it.
func fnvHash32(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
