// Package compiler implements ember's single-pass Pratt compiler
// (spec.md §4.3): it parses tokens from pkg/lexer and emits bytecode
// directly into a pkg/value.Chunk, with no intermediate AST.
//
// This replaces the teacher's two-stage pipeline (pkg/parser built an AST;
// a separate pkg/compiler walked it into the teacher's
// Instruction/Bytecode pair) with one package, because a single-pass
// compiler never materializes a tree to walk — spec.md §4.3 is explicit
// that compile is one operation over the token stream. The teacher's
// pkg/ast is retired for the same reason (see DESIGN.md); what survives
// from the teacher here is its documentation density, its
// hadError/panic-mode error-recovery shape, and the general "one package
// owns parsing and emission" layout its own pkg/compiler already had.
//
// Grounded secondarily on original_source/src/compiler.rs (and its
// chapter-22 ancestor) for exact upvalue-resolution and class-compiler
// semantics, and on other_examples/acaada3d_rami3l-golox for idiomatic Go
// shapes of the same algorithm (a chained *Compiler via an enclosing
// pointer, Local{name, depth}, table-driven Pratt dispatch).
package compiler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/lexer"
	"github.com/kristofer/ember/pkg/token"
	"github.com/kristofer/ember/pkg/value"
)

// FunctionType distinguishes the four shapes of compiled function body
// spec.md §4.3 names: the implicit top-level script, a plain function, a
// method, and a class's init method (whose implicit return differs).
type FunctionType int

const (
	TypeScript FunctionType = iota
	TypeFunction
	TypeMethod
	TypeInitializer
)

const maxLocals = 256
const maxUpvalues = 256
const maxArgs = 255

// uninitializedDepth marks a Local whose initializer is still being
// compiled — spec.md's "Can't read local variable in its own
// initializer."
const uninitializedDepth = -1

// Local records one declared local variable's name, the scope depth it
// was declared at, and whether any nested function captures it as an
// upvalue (spec.md §4.3: "mark that local is_captured=true").
type Local struct {
	Name       string
	Depth      int
	IsCaptured bool
}

// upvalueRef is one entry of a function's upvalue table: either a direct
// reference to a local slot in the immediately enclosing function
// (IsLocal) or a reference to one of that enclosing function's own
// upvalues by index (spec.md §4.3's resolve_upvalue).
type upvalueRef struct {
	Index   byte
	IsLocal bool
}

// funcState is one function's worth of compiler state: its in-progress
// Chunk (via Function), its locals and upvalues, and a pointer to the
// enclosing function's funcState — the chained-compiler stack spec.md
// §4.3 and §9 describe ("chained compilers for nested functions... must
// be traversable by the GC as a root").
type funcState struct {
	enclosing *funcState

	function *value.ObjFunction
	fnType   FunctionType

	locals     [maxLocals]Local
	localCount int
	scopeDepth int

	upvalues [maxUpvalues]upvalueRef
}

// classState is one class declaration's compiler-time state, chained the
// same way as funcState so a nested class body knows whether an enclosing
// class exists (spec.md §4.3's "class compiler stack").
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// Compiler is a single compilation's state: the lexer it pulls tokens
// from, its current/previous token window (a Pratt parser wants one token
// of lookahead, hence both), sticky error state, and the chained
// function/class compiler stacks.
type Compiler struct {
	lex *lexer.Lexer

	previous token.Token
	current  token.Token

	hadError  bool
	panicMode bool
	errSink   io.Writer
	errs      *multierror.Error

	gc  *gc.Collector
	log *logrus.Logger

	fn    *funcState
	class *classState
}

// CompileError is returned by Compile when one or more diagnostics were
// written to errSink; its Error() summarizes the count, while the
// detailed, per-diagnostic text has already gone to errSink in the
// "[line L] Error...: message" form spec.md §7 requires.
type CompileError struct {
	Errors *multierror.Error
}

func (e *CompileError) Error() string {
	if e.Errors == nil {
		return "compile error"
	}
	return fmt.Sprintf("compile error: %d diagnostic(s)", e.Errors.Len())
}

// Compile parses source and emits a complete top-level script Function,
// per spec.md §4.3's compile(source, err_sink) -> Function | CompileError.
// gcCollector is shared with the eventual VM so strings and functions
// allocated here are tracked by the same heap. log may be nil.
func Compile(source string, gcCollector *gc.Collector, errSink io.Writer, log *logrus.Logger) (*value.ObjFunction, error) {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel + 1)
	}
	c := &Compiler{
		lex:     lexer.New(source),
		errSink: errSink,
		gc:      gcCollector,
		log:     log,
	}
	c.pushFunction(TypeScript, "")

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}

	fn := c.endFunction()
	if c.hadError {
		return nil, &CompileError{Errors: c.errs}
	}
	return fn, nil
}

// pushFunction opens a nested funcState for a new function body, reserving
// local slot 0 for the receiver/callee per spec.md §4.3 ("Functions"):
// named "this" inside methods/initializers, "" otherwise, so OpCall always
// places the callee (or, for methods, the instance) there.
func (c *Compiler) pushFunction(fnType FunctionType, name string) {
	fn := value.NewFunction()
	if name != "" {
		fn.Name = c.gc.Strings().Intern(name)
	}
	fs := &funcState{
		enclosing: c.fn,
		function:  fn,
		fnType:    fnType,
	}
	fs.localCount = 1
	slot0 := ""
	if fnType != TypeFunction && fnType != TypeScript {
		slot0 = "this"
	}
	fs.locals[0] = Local{Name: slot0, Depth: 0}
	c.fn = fs
}

// endFunction emits the implicit return, pops the funcState stack, and
// returns the finished Function.
func (c *Compiler) endFunction() *value.ObjFunction {
	c.emitReturn()
	fn := c.fn.function
	c.fn = c.fn.enclosing
	return fn
}

func (c *Compiler) currentChunk() *value.Chunk { return c.fn.function.Chunk }

// --- token stream -----------------------------------------------------

// advance pulls the next non-error token from the lexer into current,
// passing every Error token the scanner produces along the way to
// errorAtCurrent (spec.md §4.1: the scanner keeps going after an error).
// In panic mode errorAt suppresses all but the first of them.
func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Type != token.Error {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(t token.Type) bool { return c.current.Type == t }

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, message string) {
	if c.current.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// --- diagnostics --------------------------------------------------------

func (c *Compiler) errorAtCurrent(message string) { c.errorAt(c.current, message) }
func (c *Compiler) error(message string)          { c.errorAt(c.previous, message) }

// errorAt implements spec.md §7's panic-mode suppression: only the first
// diagnostic per statement is reported; subsequent ones are swallowed
// until synchronize() finds the next statement boundary.
func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true

	where := ""
	switch {
	case tok.Type == token.EOF:
		where = " at end"
	case tok.Type == token.Error:
		// no lexeme marker
	default:
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	line := fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, message)
	c.errs = multierror.Append(c.errs, fmt.Errorf("%s", line))
	if c.errSink != nil {
		fmt.Fprintln(c.errSink, line)
	}
	c.log.WithField("line", tok.Line).Trace(line)
}

// synchronize skips tokens until a likely statement boundary, per spec.md
// §4.3's panic-mode error recovery.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != token.EOF {
		if c.previous.Type == token.Semicolon {
			return
		}
		switch c.current.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If,
			token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// --- byte-level emission -------------------------------------------------

func (c *Compiler) emitByte(b byte) {
	c.currentChunk().Write(b, c.previous.Line)
}

func (c *Compiler) emitBytes(a, b byte) {
	c.emitByte(a)
	c.emitByte(b)
}

func (c *Compiler) emitReturn() {
	if c.fn.fnType == TypeInitializer {
		// `return;` in an initializer returns `this` (slot 0), per
		// spec.md §4.3.
		c.emitBytes(byte(bytecode.OpGetLocal), 0)
	} else {
		c.emitByte(byte(bytecode.OpNil))
	}
	c.emitByte(byte(bytecode.OpReturn))
}

// makeConstant appends v to the current chunk's constant pool, enforcing
// the 256-constant compile-time limit (spec.md §3 invariant (6): indices
// must fit a byte, so index 255 is the last legal one, but the pool itself
// holds 256 entries).
func (c *Compiler) makeConstant(v value.Value) byte {
	if len(c.currentChunk().Constants) >= value.MaxConstants {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return byte(c.currentChunk().AddConstant(v))
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitBytes(byte(bytecode.OpConstant), c.makeConstant(v))
}

// emitJump emits a two-byte placeholder operand after op and returns its
// offset, to be patched once the jump target is known.
func (c *Compiler) emitJump(op byte) int {
	c.emitByte(op)
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

// patchJump backfills the 16-bit big-endian forward offset at offset
// (spec.md §4.3: "16-bit forward offsets patched after the jumped-over
// code is emitted").
func (c *Compiler) patchJump(offset int) {
	jump := len(c.currentChunk().Code) - offset - 2
	if jump > 0xffff {
		c.error("Too much code to jump over.")
	}
	c.currentChunk().Code[offset] = byte((jump >> 8) & 0xff)
	c.currentChunk().Code[offset+1] = byte(jump & 0xff)
}

// emitLoop emits a backward Loop instruction to loopStart (spec.md §4.3:
// "loops use a 16-bit backward offset measured from the instruction after
// the Loop opcode").
func (c *Compiler) emitLoop(loopStart int) {
	c.emitByte(byte(bytecode.OpLoop))
	offset := len(c.currentChunk().Code) - loopStart + 2
	if offset > 0xffff {
		c.error("Loop body too large.")
	}
	c.emitByte(byte((offset >> 8) & 0xff))
	c.emitByte(byte(offset & 0xff))
}

// identifierConstant interns name and adds it to the constant pool,
// returning its index — used for global-variable and property names.
func (c *Compiler) identifierConstant(name string) byte {
	return c.makeConstant(value.ObjVal(c.gc.Strings().Intern(name)))
}

func parseNumber(lexeme string) float64 {
	n, _ := strconv.ParseFloat(lexeme, 64)
	return n
}
