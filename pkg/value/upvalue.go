package value

// ObjUpvalue is a closure's reference to a variable captured from an
// enclosing function. While the variable's stack frame is still live, the
// upvalue is "open" and Location points directly at the stack slot; once
// that frame returns, VM.closeUpvalues copies the value into Closed and
// clears Location, making the upvalue "closed" (spec.md's Upvalue
// variant and the GLOSSARY entry for "Upvalue").
//
// NextOpen threads every currently-open upvalue onto the VM's intrusive,
// descending-stack-address linked list (spec.md §4.4's capture/close
// algorithm and invariant (2)); it is nil once the upvalue is closed.
type ObjUpvalue struct {
	Header
	Location *Value
	// Slot is the stack index Location currently points at while the
	// upvalue is open. Go pointers support only equality, not ordering, so
	// the VM's descending-stack-address list (invariant (2)) is threaded
	// and compared using Slot rather than Location itself.
	Slot     int
	Closed   Value
	NextOpen *ObjUpvalue
}

func NewUpvalue(location *Value, slot int) *ObjUpvalue {
	return &ObjUpvalue{Header: Header{Kind: TypeUpvalue}, Location: location, Slot: slot}
}

// Get returns the upvalue's current value, open or closed.
func (u *ObjUpvalue) Get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

// Set writes through to the stack slot if open, or to Closed if closed.
func (u *ObjUpvalue) Set(v Value) {
	if u.Location != nil {
		*u.Location = v
	} else {
		u.Closed = v
	}
}

// Close copies the current value into Closed and detaches from the stack,
// per spec.md §4.4 "Closing upvalues".
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = nil
}

func (u *ObjUpvalue) String() string { return "upvalue" }
