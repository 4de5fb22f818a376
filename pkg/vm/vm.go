// Package vm generalizes the teacher's stack-machine interpreter loop
// (pkg/vm/vm.go in kristofer-smog drove a Smalltalk-style message-send
// VM over `interface{}` values and an OpSend/OpPushSelf opcode set) into
// spec.md §4.4's closures-and-classes VM: a fixed value stack of
// pkg/value.Value, a call-frame stack of Closures, a swiss-backed globals
// table, an open-upvalue list, and direct opcode dispatch in place of
// message sends. The teacher's push/pop/peek stack idiom, its
// sink-injected standard-output design, and its top-level Interpret entry
// point all carry over; what changes is the opcode catalogue executed and
// the value representation interpreted.
//
// Grounded secondarily on original_source/src/vm.rs for exact per-opcode
// semantics (this spec's VM is a close translation of that reference) and
// on other_examples/acaada3d_rami3l-golox for idiomatic Go call-frame and
// upvalue-list shapes.
package vm

import (
	"fmt"
	"io"
	"time"

	"github.com/dolthub/swiss"
	"github.com/sirupsen/logrus"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/value"
)

// FramesMax is spec.md §4.4's fixed call-frame stack capacity. StackMax is
// sized FramesMax * 256 rather than the bare 256 spec.md §4.4 names for the
// value stack alone: each frame can hold up to 256 locals (pkg/compiler's
// maxLocals) plus working temporaries, so a flat 256-slot array overruns
// long before the frame-count check ever fires, turning ordinary recursion
// into a Go index-out-of-range panic instead of a "Stack overflow."
// RuntimeError. Sizing the array to the frame budget — as the reference
// implementation does — makes the frame-count check in callClosure the one
// binding overflow guard, matching original_source's `FRAMES_MAX *
// UINT8_COUNT` sizing.
const (
	FramesMax   = 64
	framesSlots = 256
	StackMax    = FramesMax * framesSlots
)

// CallFrame holds a reference to the Closure being executed, an
// instruction pointer into its Chunk's code, and the stack offset of the
// frame's slot 0 — its receiver or callee (spec.md §4.4).
type CallFrame struct {
	closure *value.ObjClosure
	ip      int
	base    int
}

func (f *CallFrame) chunk() *value.Chunk { return f.closure.Function.Chunk }

func (f *CallFrame) readByte() byte {
	b := f.chunk().ReadByte(f.ip)
	f.ip++
	return b
}

func (f *CallFrame) readShort() int {
	hi := f.readByte()
	lo := f.readByte()
	return int(hi)<<8 | int(lo)
}

func (f *CallFrame) readConstant() value.Value {
	return f.chunk().Constants[f.readByte()]
}

func (f *CallFrame) readString() *value.ObjString {
	return f.readConstant().AsObj().(*value.ObjString)
}

// VM is one interpreter session: its value stack, its call-frame stack,
// the globals table, the open-upvalue list, the shared garbage collector,
// and the byte sinks standard output/error flow through (spec.md §6: "all
// diagnostics and print output flow through these sinks").
type VM struct {
	stack      [StackMax]value.Value
	stackTop   int
	frames     [FramesMax]CallFrame
	frameCount int

	globals      *swiss.Map[*value.ObjString, value.Value]
	openUpvalues *value.ObjUpvalue

	gcc       *gc.Collector
	startTime time.Time

	stdout io.Writer
	stderr io.Writer
	log    *logrus.Logger
}

// New creates a VM writing Print output to stdout and compile/runtime
// diagnostics to stderr, and registers the native `clock` function spec.md
// §6 requires ("at least one native clock() -> number"). log may be nil.
func New(stdout, stderr io.Writer, log *logrus.Logger) *VM {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel + 1)
	}
	vm := &VM{
		globals:   swiss.NewMap[*value.ObjString, value.Value](64),
		gcc:       gc.New(gc.DefaultInitialThreshold, log),
		startTime: time.Now(),
		stdout:    stdout,
		stderr:    stderr,
		log:       log,
	}
	vm.defineNatives()
	return vm
}

func (vm *VM) resetStack() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// Interpret compiles and runs source, per spec.md §6's
// `interpret(source) -> Ok | CompileError | RuntimeError`.
func (vm *VM) Interpret(source string) error {
	fn, err := compiler.Compile(source, vm.gcc, vm.stderr, vm.log)
	if err != nil {
		return err
	}

	vm.push(value.ObjVal(fn))
	closure := value.NewClosure(fn)
	vm.gcc.Track(closure, 48)
	vm.pop()
	vm.push(value.ObjVal(closure))
	vm.callClosure(closure, 0)

	return vm.run()
}

// DefineNative exposes spec.md §6's `define_native(name, fn)` embedding
// surface: fn receives the argument slice and returns a Value, and must
// not re-enter Interpret.
func (vm *VM) DefineNative(name string, fn func(args []value.Value) (value.Value, bool)) {
	nativeName := vm.gcc.Strings().Intern(name)
	native := value.NewNative(name, fn)
	vm.gcc.Track(native, 32)
	vm.globals.Put(nativeName, value.ObjVal(native))
}

// run is the interpreter's instruction cycle: read opcode at ip, advance
// ip, execute (spec.md §4.4).
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	for {
		op := bytecode.Op(frame.readByte())
		switch op {
		case bytecode.OpConstant:
			vm.push(frame.readConstant())

		case bytecode.OpNil:
			vm.push(value.NilValue)
		case bytecode.OpTrue:
			vm.push(value.TrueValue)
		case bytecode.OpFalse:
			vm.push(value.FalseValue)
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpGetLocal:
			slot := frame.readByte()
			vm.push(vm.stack[frame.base+int(slot)])
		case bytecode.OpSetLocal:
			slot := frame.readByte()
			vm.stack[frame.base+int(slot)] = vm.peek(0)

		case bytecode.OpGetGlobal:
			name := frame.readString()
			v, ok := vm.globals.Get(name)
			if !ok {
				return vm.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case bytecode.OpDefineGlobal:
			name := frame.readString()
			vm.globals.Put(name, vm.peek(0))
			vm.pop()
		case bytecode.OpSetGlobal:
			name := frame.readString()
			if _, ok := vm.globals.Get(name); !ok {
				return vm.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}
			vm.globals.Put(name, vm.peek(0))

		case bytecode.OpGetUpvalue:
			slot := frame.readByte()
			vm.push(frame.closure.Upvalues[slot].Get())
		case bytecode.OpSetUpvalue:
			slot := frame.readByte()
			frame.closure.Upvalues[slot].Set(vm.peek(0))

		case bytecode.OpGetProperty:
			if err := vm.getProperty(frame); err != nil {
				return err
			}
		case bytecode.OpSetProperty:
			if err := vm.setProperty(frame); err != nil {
				return err
			}
		case bytecode.OpGetSuper:
			name := frame.readString()
			superclass := vm.pop().AsObj().(*value.ObjClass)
			if err := vm.bindMethod(frame, superclass, name); err != nil {
				return err
			}

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolVal(value.Equal(a, b)))
		case bytecode.OpGreater:
			if err := vm.numberBinary(frame, "Operands must be numbers.", func(a, b float64) value.Value {
				return value.BoolVal(a > b)
			}); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.numberBinary(frame, "Operands must be numbers.", func(a, b float64) value.Value {
				return value.BoolVal(a < b)
			}); err != nil {
				return err
			}

		case bytecode.OpAdd:
			if err := vm.add(frame); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.numberBinary(frame, "Operands must be numbers.", func(a, b float64) value.Value {
				return value.NumberVal(a - b)
			}); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.numberBinary(frame, "Operands must be numbers.", func(a, b float64) value.Value {
				return value.NumberVal(a * b)
			}); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.numberBinary(frame, "Operands must be numbers.", func(a, b float64) value.Value {
				return value.NumberVal(a / b)
			}); err != nil {
				return err
			}

		case bytecode.OpNot:
			vm.push(value.BoolVal(vm.pop().Falsey()))
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError(frame, "Operand must be a number.")
			}
			vm.push(value.NumberVal(-vm.pop().AsNumber()))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.stdout, vm.pop().String())

		case bytecode.OpJump:
			offset := frame.readShort()
			frame.ip += offset
		case bytecode.OpJumpIfFalse:
			offset := frame.readShort()
			if vm.peek(0).Falsey() {
				frame.ip += offset
			}
		case bytecode.OpLoop:
			offset := frame.readShort()
			frame.ip -= offset

		case bytecode.OpCall:
			argCount := int(frame.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpInvoke:
			name := frame.readString()
			argCount := int(frame.readByte())
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpSuperInvoke:
			name := frame.readString()
			argCount := int(frame.readByte())
			superclass := vm.pop().AsObj().(*value.ObjClass)
			if err := vm.invokeFromClass(superclass, name, argCount); err != nil {
				return err
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpClosure:
			fn := frame.readConstant().AsObj().(*value.ObjFunction)
			closure := value.NewClosure(fn)
			vm.gcc.Track(closure, 48)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := frame.readByte()
				index := frame.readByte()
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.base + int(index))
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.push(value.ObjVal(closure))

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case bytecode.OpClass:
			name := frame.readString()
			class := value.NewClass(name)
			vm.gcc.Track(class, 64)
			vm.push(value.ObjVal(class))

		case bytecode.OpInherit:
			superVal := vm.peek(1)
			if !superVal.IsObjType(value.TypeClass) {
				return vm.runtimeError(frame, "Superclass must be a class.")
			}
			super := superVal.AsObj().(*value.ObjClass)
			sub := vm.peek(0).AsObj().(*value.ObjClass)
			for name, method := range super.Methods {
				sub.Methods[name] = method
			}
			vm.pop() // pop sub only; super stays on the stack as the "super" local

		case bytecode.OpMethod:
			name := frame.readString()
			vm.defineMethod(name)

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(frame.base)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.base
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		default:
			return vm.runtimeError(frame, "Unknown opcode %d.", byte(op))
		}

		if vm.gcc.ShouldCollect() {
			vm.collectGarbage()
		}
	}
}

// add implements spec.md §4.4's Add semantics: string+string concatenates,
// number+number adds, anything else is a type error.
func (vm *VM) add(frame *CallFrame) error {
	b := vm.peek(0)
	a := vm.peek(1)
	switch {
	case a.IsObjType(value.TypeString) && b.IsObjType(value.TypeString):
		bs := vm.pop().AsObj().(*value.ObjString)
		as := vm.pop().AsObj().(*value.ObjString)
		concat := vm.gcc.Strings().Intern(as.Chars + bs.Chars)
		vm.push(value.ObjVal(concat))
		return nil
	case a.IsNumber() && b.IsNumber():
		bn := vm.pop().AsNumber()
		an := vm.pop().AsNumber()
		vm.push(value.NumberVal(an + bn))
		return nil
	default:
		return vm.runtimeError(frame, "Operands must be two numbers or two strings.")
	}
}

func (vm *VM) numberBinary(frame *CallFrame, errMsg string, op func(a, b float64) value.Value) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError(frame, "%s", errMsg)
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	vm.push(op(a, b))
	return nil
}

// runtimeError builds a RuntimeError with a stack trace from the live
// call-frame stack (innermost first), writes it to stderr, and resets the
// stack, per spec.md §7.
func (vm *VM) runtimeError(_ *CallFrame, format string, args ...interface{}) *RuntimeError {
	rtErr := &RuntimeError{Message: fmt.Sprintf(format, args...)}
	for i := vm.frameCount - 1; i >= 0; i-- {
		f := &vm.frames[i]
		line := f.chunk().LineAt(f.ip)
		name := "script"
		if f.closure.Function.Name != nil {
			name = f.closure.Function.Name.Chars
		}
		rtErr.Frames = append(rtErr.Frames, Frame{FunctionName: name, Line: line})
	}
	rtErr.WriteTrace(vm.stderr)
	vm.resetStack()
	return rtErr
}

func (vm *VM) collectGarbage() {
	vm.gcc.Collect(vm)
}

// MarkRoots implements gc.RootMarker: every value reachable from the VM
// directly (spec.md §4.5 step 1) — stack slots up to stackTop, globals'
// keys and values, the closures held in active call frames, and the
// entire open-upvalue list.
func (vm *VM) MarkRoots(c *gc.Collector) {
	for i := 0; i < vm.stackTop; i++ {
		c.MarkValue(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		c.MarkObject(vm.frames[i].closure)
	}
	for up := vm.openUpvalues; up != nil; up = up.NextOpen {
		c.MarkObject(up)
	}
	vm.globals.Iter(func(k *value.ObjString, v value.Value) bool {
		c.MarkObject(k)
		c.MarkValue(v)
		return false
	})
}
