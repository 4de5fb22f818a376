package compiler

import (
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/token"
	"github.com/kristofer/ember/pkg/value"
)

// declaration is the top of the statement grammar: a class, function, or
// var declaration, or else a plain statement. A synchronize() call after
// any parse error here implements spec.md §4.3's panic-mode recovery, so
// one bad statement doesn't cascade into spurious errors for the rest of
// the file.
func (c *Compiler) declaration() {
	switch {
	case c.match(token.Class):
		c.classDeclaration()
	case c.match(token.Fun):
		c.funDeclaration()
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitByte(byte(bytecode.OpNil))
	}
	c.consume(token.Semicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) funDeclaration() {
	global := c.parseVariable("Expect function name.")
	c.markInitialized()
	c.function(TypeFunction)
	c.defineVariable(global)
}

// function compiles one function body (shared by top-level `fun`
// declarations and class methods): a fresh funcState, its parameter list,
// its block body, and — once closed — a Closure instruction carrying the
// compiled Function plus its upvalue capture table (spec.md §4.3/§4.4).
func (c *Compiler) function(fnType FunctionType) {
	c.pushFunction(fnType, c.previous.Lexeme)
	c.beginScope()

	c.consume(token.LeftParen, "Expect '(' after function name.")
	if !c.check(token.RightParen) {
		for {
			c.fn.function.Arity++
			if c.fn.function.Arity > maxArgs {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := c.parseVariable("Expect parameter name.")
			c.defineVariable(constant)
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after parameters.")
	c.consume(token.LeftBrace, "Expect '{' before function body.")
	c.block()

	fs := c.fn
	fn := c.endFunction()

	constant := c.makeConstant(value.ObjVal(fn))
	c.emitBytes(byte(bytecode.OpClosure), constant)
	for i := 0; i < fn.UpvalueCount; i++ {
		up := fs.upvalues[i]
		c.emitByte(boolByte(up.IsLocal))
		c.emitByte(up.Index)
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func (c *Compiler) classDeclaration() {
	c.consume(token.Identifier, "Expect class name.")
	nameTok := c.previous
	nameConstant := c.identifierConstant(nameTok.Lexeme)
	c.declareVariable()

	c.emitBytes(byte(bytecode.OpClass), nameConstant)
	c.defineVariable(nameConstant)

	cs := &classState{enclosing: c.class}
	c.class = cs

	if c.match(token.Less) {
		c.consume(token.Identifier, "Expect superclass name.")
		c.variable(false)
		if nameTok.Lexeme == c.previous.Lexeme {
			c.error("A class can't inherit from itself.")
		}

		c.beginScope()
		c.addLocal("super")
		c.defineVariable(0)

		c.namedVariable(nameTok.Lexeme, false)
		c.emitByte(byte(bytecode.OpInherit))
		cs.hasSuperclass = true
	}

	c.namedVariable(nameTok.Lexeme, false)
	c.consume(token.LeftBrace, "Expect '{' before class body.")
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RightBrace, "Expect '}' after class body.")
	c.emitByte(byte(bytecode.OpPop))

	if cs.hasSuperclass {
		c.endScope()
	}
	c.class = c.class.enclosing
}

// method compiles one method definition inside a class body, dispatching
// TypeInitializer for a method literally named "init" so emitReturn knows
// to return `this` rather than nil (spec.md §4.3/§4.5's "init-string
// interning").
func (c *Compiler) method() {
	c.consume(token.Identifier, "Expect method name.")
	name := c.previous.Lexeme
	constant := c.identifierConstant(name)

	fnType := TypeMethod
	if name == "init" {
		fnType = TypeInitializer
	}
	c.function(fnType)
	c.emitBytes(byte(bytecode.OpMethod), constant)
}

// --- statements -----------------------------------------------------

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.Return):
		c.returnStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.For):
		c.forStatement()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RightBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after value.")
	c.emitByte(byte(bytecode.OpPrint))
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after expression.")
	c.emitByte(byte(bytecode.OpPop))
}

func (c *Compiler) returnStatement() {
	if c.fn.fnType == TypeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.Semicolon) {
		c.emitReturn()
		return
	}
	if c.fn.fnType == TypeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after return value.")
	c.emitByte(byte(bytecode.OpReturn))
}

func (c *Compiler) ifStatement() {
	c.consume(token.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(byte(bytecode.OpJumpIfFalse))
	c.emitByte(byte(bytecode.OpPop))
	c.statement()

	elseJump := c.emitJump(byte(bytecode.OpJump))
	c.patchJump(thenJump)
	c.emitByte(byte(bytecode.OpPop))

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	c.consume(token.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(byte(bytecode.OpJumpIfFalse))
	c.emitByte(byte(bytecode.OpPop))
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitByte(byte(bytecode.OpPop))
}

// forStatement desugars entirely to while-loop bytecode at compile time
// (spec.md §4.3: "for is sugar — no dedicated opcode"), wrapping the whole
// thing in its own scope so a `var` initializer clause is block-scoped.
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LeftParen, "Expect '(' after 'for'.")

	switch {
	case c.match(token.Semicolon):
		// no initializer
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.match(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(byte(bytecode.OpJumpIfFalse))
		c.emitByte(byte(bytecode.OpPop))
	}

	if !c.match(token.RightParen) {
		bodyJump := c.emitJump(byte(bytecode.OpJump))
		incrementStart := len(c.currentChunk().Code)
		c.expression()
		c.emitByte(byte(bytecode.OpPop))
		c.consume(token.RightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitByte(byte(bytecode.OpPop))
	}
	c.endScope()
}
