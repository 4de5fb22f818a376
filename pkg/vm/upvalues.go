package vm

import "github.com/kristofer/ember/pkg/value"

// captureUpvalue implements spec.md §4.4's capture algorithm: walk the
// open-upvalue list (ordered by descending stack address) while
// `upv.slot > slot`; reuse an existing upvalue whose slot already equals
// slot; otherwise splice a new one in before the successor, preserving
// descending order.
func (vm *VM) captureUpvalue(slot int) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	up := vm.openUpvalues
	for up != nil && up.Slot > slot {
		prev = up
		up = up.NextOpen
	}
	if up != nil && up.Slot == slot {
		return up
	}

	created := value.NewUpvalue(&vm.stack[slot], slot)
	vm.gcc.Track(created, 24)
	created.NextOpen = up
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvalues closes every open upvalue whose slot is at or above stack
// index last, copying the slot's current value into the upvalue and
// detaching it from the stack (spec.md §4.4).
func (vm *VM) closeUpvalues(last int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= last {
		up := vm.openUpvalues
		up.Close()
		vm.openUpvalues = up.NextOpen
		up.NextOpen = nil
	}
}
