package vm

import (
	"time"

	"github.com/kristofer/ember/pkg/value"
)

// defineNatives registers the native callables spec.md §6 requires at VM
// creation time, presently just `clock() -> number`.
func (vm *VM) defineNatives() {
	vm.DefineNative("clock", vm.clockNative)
}

// clockNative returns seconds elapsed since the VM was created, as a
// double, per spec.md §6: "clock() -> number, returning
// seconds-since-VM-start".
func (vm *VM) clockNative(_ []value.Value) (value.Value, bool) {
	return value.NumberVal(time.Since(vm.startTime).Seconds()), true
}
