package value

import "fmt"

// ObjClosure pairs a compiled ObjFunction with the upvalues it captured at
// the point it was created (spec.md's Closure variant: "reference to
// Function, array of upvalue references sized by the function's upvalue
// count" — invariant (4)).
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func NewClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{
		Header:   Header{Kind: TypeClosure},
		Function: fn,
		Upvalues: make([]*ObjUpvalue, fn.UpvalueCount),
	}
}

func (c *ObjClosure) String() string { return fmt.Sprintf("<fn %s>", c.Function.displayName()) }

func (f *ObjFunction) displayName() string {
	if f.Name == nil {
		return "script"
	}
	return f.Name.Chars
}
