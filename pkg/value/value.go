// Package value implements ember's tagged Value union, its heap object
// model (strings, upvalues, functions, closures, classes, instances, bound
// methods, natives); the string interner lives in pkg/gc. Value and the heap cell
// types live in one package because they are mutually recursive (a Value
// may hold an *Obj, and most *Obj variants hold Values or other *Obj
// references in turn) — splitting them across packages would require an
// import cycle.
package value

import "fmt"

// Type discriminates the four kinds of Value described by spec.md §3.
type Type uint8

const (
	Nil Type = iota
	Bool
	Number
	ObjectRef
)

// Value is ember's tagged sum of {nil, bool, number, heap reference}. It is
// deliberately a small value type (not an interface) so that pushing and
// popping the VM's value stack never allocates — spec.md §9's design notes
// call NaN-boxing into a single word "a valid optimization variant"; this
// is the straightforward tagged-struct alternative it names as the
// baseline to preserve semantics against.
type Value struct {
	typ    Type
	b      bool
	n      float64
	object Obj
}

var (
	NilValue   = Value{typ: Nil}
	TrueValue  = Value{typ: Bool, b: true}
	FalseValue = Value{typ: Bool, b: false}
)

// NumberVal constructs a number Value.
func NumberVal(n float64) Value { return Value{typ: Number, n: n} }

// BoolVal constructs a boolean Value.
func BoolVal(b bool) Value {
	if b {
		return TrueValue
	}
	return FalseValue
}

// ObjVal constructs a Value wrapping a heap reference. obj must not be nil.
func ObjVal(obj Obj) Value { return Value{typ: ObjectRef, object: obj} }

func (v Value) IsNil() bool    { return v.typ == Nil }
func (v Value) IsBool() bool   { return v.typ == Bool }
func (v Value) IsNumber() bool { return v.typ == Number }
func (v Value) IsObj() bool    { return v.typ == ObjectRef }

func (v Value) AsBool() bool      { return v.b }
func (v Value) AsNumber() float64 { return v.n }
func (v Value) AsObj() Obj        { return v.object }

func (v Value) Type() Type { return v.typ }

// IsObjType reports whether v is a heap reference of the given ObjType.
func (v Value) IsObjType(t ObjType) bool {
	return v.typ == ObjectRef && v.object.ObjType() == t
}

// Truthy implements spec.md §3: nil and false are falsey, everything else
// (including 0 and the empty string) is truthy.
func (v Value) Truthy() bool {
	switch v.typ {
	case Nil:
		return false
	case Bool:
		return v.b
	default:
		return true
	}
}

func (v Value) Falsey() bool { return !v.Truthy() }

// Equal implements spec.md §3's equality rules: nil==nil; booleans by
// value; numbers by bitwise-numeric equality (so NaN != NaN, since Go's ==
// on float64 already has IEEE-754 semantics); strings by interned identity
// (which is why ObjString pointers, not contents, are compared here —
// interning guarantees identical content implies identical pointer); all
// other objects by reference identity.
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case Nil:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		return a.n == b.n
	case ObjectRef:
		return a.object == b.object
	default:
		return false
	}
}

// String renders v for `print` and diagnostics.
func (v Value) String() string {
	switch v.typ {
	case Nil:
		return "nil"
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(v.n)
	case ObjectRef:
		return v.object.String()
	default:
		return "<invalid value>"
	}
}

// AsString is a convenience accessor for the common case of expecting an
// ObjString value; it panics (like an unchecked type assertion) if v does
// not hold one. Callers that can't guarantee the type should check
// IsObjType(TypeString) first.
func (v Value) AsString() *ObjString { return v.object.(*ObjString) }

func formatNumber(n float64) string {
	if n != n { // NaN
		return "nan"
	}
	if n == float64(int64(n)) && n < 1e15 && n > -1e15 {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

// TypeName names v's runtime type for type-error messages.
func (v Value) TypeName() string {
	switch v.typ {
	case Nil:
		return "nil"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case ObjectRef:
		return v.object.ObjType().String()
	default:
		return "unknown"
	}
}
