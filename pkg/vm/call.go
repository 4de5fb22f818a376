package vm

import "github.com/kristofer/ember/pkg/value"

// callValue dispatches spec.md §4.4's `Call argc` instruction on the
// callee sitting at `peek(argCount)`: a Closure runs normally, a
// BoundMethod unwraps to its receiver and underlying Closure, a Class
// constructs an Instance (invoking `init` if present), and a Native is
// invoked synchronously. Anything else is "Can only call functions and
// classes."
func (vm *VM) callValue(callee value.Value, argCount int) error {
	if !callee.IsObj() {
		return vm.runtimeError(nil, "Can only call functions and classes.")
	}

	switch callee.AsObj().ObjType() {
	case value.TypeClosure:
		return vm.callClosure(callee.AsObj().(*value.ObjClosure), argCount)

	case value.TypeBoundMethod:
		bound := callee.AsObj().(*value.ObjBoundMethod)
		vm.stack[vm.stackTop-argCount-1] = bound.Receiver
		return vm.callClosure(bound.Method, argCount)

	case value.TypeClass:
		class := callee.AsObj().(*value.ObjClass)
		instance := value.NewInstance(class)
		vm.gcc.Track(instance, 48)
		vm.stack[vm.stackTop-argCount-1] = value.ObjVal(instance)
		if init, ok := class.Methods[vm.gcc.Strings().InitString()]; ok {
			return vm.callClosure(init, argCount)
		}
		if argCount != 0 {
			return vm.runtimeError(nil, "Expected 0 arguments but got %d.", argCount)
		}
		return nil

	case value.TypeNative:
		native := callee.AsObj().(*value.ObjNative)
		args := vm.stack[vm.stackTop-argCount : vm.stackTop]
		result, ok := native.Fn(args)
		if !ok {
			return vm.runtimeError(nil, "Native function '%s' failed.", native.Name)
		}
		vm.stackTop -= argCount + 1
		vm.push(result)
		return nil

	default:
		return vm.runtimeError(nil, "Can only call functions and classes.")
	}
}

// callClosure pushes a new CallFrame for closure, after checking arity and
// call-frame depth (spec.md §4.4's "Expected N arguments but got M"
// arity error, and "Stack overflow." at frame capacity).
func (vm *VM) callClosure(closure *value.ObjClosure, argCount int) error {
	if argCount != closure.Function.Arity {
		return vm.runtimeError(nil, "Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameCount == FramesMax {
		return vm.runtimeError(nil, "Stack overflow.")
	}

	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.base = vm.stackTop - argCount - 1
	return nil
}

// invoke implements the `Invoke name argc` fast path: it looks at the
// receiver without popping it. A field of that name takes priority (as in
// getProperty) and is called like a plain GetProperty+Call; only when no
// such field exists is the class method called directly.
func (vm *VM) invoke(name *value.ObjString, argCount int) error {
	receiver := vm.peek(argCount)
	if !receiver.IsObjType(value.TypeInstance) {
		return vm.runtimeError(nil, "Only instances have properties.")
	}
	instance := receiver.AsObj().(*value.ObjInstance)

	if field, ok := instance.Fields[name]; ok {
		vm.stack[vm.stackTop-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(instance.Class, name, argCount)
}

// invokeFromClass looks up name directly in class's method table and
// calls it, used both by invoke and by SuperInvoke.
func (vm *VM) invokeFromClass(class *value.ObjClass, name *value.ObjString, argCount int) error {
	method, ok := class.Methods[name]
	if !ok {
		return vm.runtimeError(nil, "Undefined property '%s'.", name.Chars)
	}
	return vm.callClosure(method, argCount)
}

// bindMethod looks up name on class, wraps it with the current receiver
// (left on the stack by the caller) into a BoundMethod, and replaces the
// receiver with that bound value.
func (vm *VM) bindMethod(frame *CallFrame, class *value.ObjClass, name *value.ObjString) error {
	method, ok := class.Methods[name]
	if !ok {
		return vm.runtimeError(frame, "Undefined property '%s'.", name.Chars)
	}
	bound := value.NewBoundMethod(vm.peek(0), method)
	vm.gcc.Track(bound, 32)
	vm.pop()
	vm.push(value.ObjVal(bound))
	return nil
}

// getProperty implements `GetProperty name`: a field read takes priority
// over a method lookup (spec.md §4.4), since ember allows instance fields
// to shadow class methods by name.
func (vm *VM) getProperty(frame *CallFrame) error {
	name := frame.readString()
	receiverVal := vm.peek(0)
	if !receiverVal.IsObjType(value.TypeInstance) {
		return vm.runtimeError(frame, "Only instances have properties.")
	}
	instance := receiverVal.AsObj().(*value.ObjInstance)

	if field, ok := instance.Fields[name]; ok {
		vm.pop()
		vm.push(field)
		return nil
	}
	return vm.bindMethod(frame, instance.Class, name)
}

// setProperty implements `SetProperty name`: instance only.
func (vm *VM) setProperty(frame *CallFrame) error {
	name := frame.readString()
	receiverVal := vm.peek(1)
	if !receiverVal.IsObjType(value.TypeInstance) {
		return vm.runtimeError(frame, "Only instances have fields.")
	}
	instance := receiverVal.AsObj().(*value.ObjInstance)

	v := vm.pop()
	instance.Fields[name] = v
	vm.pop() // instance
	vm.push(v)
	return nil
}

// defineMethod implements `Method name`: top of stack is the just-closed
// method Closure, and the Class it belongs to sits directly under it.
func (vm *VM) defineMethod(name *value.ObjString) {
	method := vm.pop().AsObj().(*value.ObjClosure)
	class := vm.peek(0).AsObj().(*value.ObjClass)
	class.Methods[name] = method
}
