package value

import "fmt"

// ObjClass is a class: a name and a mapping of method-name-string to the
// Closure implementing it (spec.md's Class variant). Single inheritance
// (spec.md §1, §4.3 Inherit) is implemented by copying the superclass's
// method table into the subclass at class-definition time (OpInherit),
// not by a parent pointer — this matches the reference semantics exactly:
// a method added to a superclass *after* a subclass was defined is not
// visible to the subclass.
type ObjClass struct {
	Header
	Name    *ObjString
	Methods map[*ObjString]*ObjClosure
}

func NewClass(name *ObjString) *ObjClass {
	return &ObjClass{
		Header:  Header{Kind: TypeClass},
		Name:    name,
		Methods: make(map[*ObjString]*ObjClosure),
	}
}

func (c *ObjClass) String() string { return c.Name.Chars }

// ObjInstance is an instance of a class: the class it was constructed from
// plus a mapping of field-name-string to Value (spec.md's Instance
// variant). Fields are created on first assignment; there is no fixed
// layout, matching the reference implementation's dynamically-typed
// instances.
type ObjInstance struct {
	Header
	Class  *ObjClass
	Fields map[*ObjString]Value
}

func NewInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{
		Header: Header{Kind: TypeInstance},
		Class:  class,
		Fields: make(map[*ObjString]Value),
	}
}

func (i *ObjInstance) String() string { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }

// ObjBoundMethod pairs a receiver Value with the Closure to invoke when
// the bound method is called, so that `var m = obj.method; m();` still
// dispatches with `this` bound to obj (spec.md's BoundMethod variant and
// the GetProperty/Call semantics in §4.4).
type ObjBoundMethod struct {
	Header
	Receiver Value
	Method   *ObjClosure
}

func NewBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	return &ObjBoundMethod{Header: Header{Kind: TypeBoundMethod}, Receiver: receiver, Method: method}
}

func (b *ObjBoundMethod) String() string { return fmt.Sprintf("<fn %s>", b.Method.Function.displayName()) }
