package value

import "fmt"

// ObjFunction is a compiled function body: its arity, how many upvalues its
// closures must capture, its bytecode Chunk, and an optional name (nil for
// the implicit top-level script function). Functions are allocated once by
// the compiler; the VM's OpClosure handler wraps one in a new ObjClosure
// each time that instruction executes.
type ObjFunction struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString
}

// NewFunction allocates a function with an empty Chunk ready for the
// compiler to emit into.
func NewFunction() *ObjFunction {
	return &ObjFunction{Header: Header{Kind: TypeFunction}, Chunk: NewChunk()}
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// ObjNative wraps a Go function as a callable value (spec.md §6's native
// registry). Natives receive a slice of argument Values and must return a
// Value; they signal failure via the ok return rather than unwinding the
// VM (spec.md §7 "Native functions signal failure by returning a
// sentinel; they may not unwind the VM").
type ObjNative struct {
	Header
	Name string
	Fn   func(args []Value) (Value, bool)
}

func NewNative(name string, fn func(args []Value) (Value, bool)) *ObjNative {
	return &ObjNative{Header: Header{Kind: TypeNative}, Name: name, Fn: fn}
}

func (n *ObjNative) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
