package compiler

import (
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/token"
)

// beginScope opens a new block scope (spec.md §4.3: scopes are purely a
// compile-time concept — no Chunk byte is ever emitted for entering one).
func (c *Compiler) beginScope() { c.fn.scopeDepth++ }

// endScope closes the innermost block scope, popping every local declared
// in it off both the compiler's locals array and the runtime stack. A
// local that was captured by a nested closure is closed with
// OpCloseUpvalue instead of a plain OpPop, per spec.md §4.3/§4.4's upvalue
// close discipline.
func (c *Compiler) endScope() {
	c.fn.scopeDepth--
	for c.fn.localCount > 0 && c.fn.locals[c.fn.localCount-1].Depth > c.fn.scopeDepth {
		if c.fn.locals[c.fn.localCount-1].IsCaptured {
			c.emitByte(byte(bytecode.OpCloseUpvalue))
		} else {
			c.emitByte(byte(bytecode.OpPop))
		}
		c.fn.localCount--
	}
}

// declareVariable registers the identifier just consumed (c.previous) as a
// new local in the current scope, per spec.md §4.3's "Already a variable
// with this name in this scope." shadowing check. At global scope it
// returns without declaring anything; globals are defined by DefineGlobal.
func (c *Compiler) declareVariable() {
	if c.fn.scopeDepth == 0 {
		return
	}
	name := c.previous.Lexeme
	for i := c.fn.localCount - 1; i >= 0; i-- {
		local := &c.fn.locals[i]
		if local.Depth != uninitializedDepth && local.Depth < c.fn.scopeDepth {
			break
		}
		if local.Name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name string) {
	if c.fn.localCount >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.fn.locals[c.fn.localCount] = Local{Name: name, Depth: uninitializedDepth}
	c.fn.localCount++
}

// markInitialized makes the most recently declared local usable in
// subsequent expressions, per spec.md's split between declaration and
// initialization (a local is unreadable while Depth == uninitializedDepth).
func (c *Compiler) markInitialized() {
	if c.fn.scopeDepth == 0 {
		return
	}
	c.fn.locals[c.fn.localCount-1].Depth = c.fn.scopeDepth
}

// resolveLocal searches fs's locals innermost-first for name, returning its
// stack slot or -1 if not found.
func (c *Compiler) resolveLocal(fs *funcState, name string) int {
	for i := fs.localCount - 1; i >= 0; i-- {
		local := &fs.locals[i]
		if local.Name == name {
			if local.Depth == uninitializedDepth {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// parseVariable consumes an identifier token and, for a global, interns its
// name into the constant pool (returning that index); for a local, it only
// declares the binding and returns 0 (DefineGlobal/SetLocal branch on scope
// depth to decide which index matters, per spec.md §4.3).
func (c *Compiler) parseVariable(errMessage string) byte {
	c.consume(token.Identifier, errMessage)
	c.declareVariable()
	if c.fn.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous.Lexeme)
}

// defineVariable emits the global-definition opcode (skipped for locals,
// whose value already sits in the correct stack slot once markInitialized
// runs).
func (c *Compiler) defineVariable(global byte) {
	if c.fn.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(bytecode.OpDefineGlobal), global)
}
