package compiler

import (
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/token"
	"github.com/kristofer/ember/pkg/value"
)

// number compiles a numeric literal token directly into a Value constant,
// per spec.md §3 (numbers are IEEE-754 doubles, no separate int/float
// kinds).
func (c *Compiler) number(_ bool) {
	c.emitConstant(value.NumberVal(parseNumber(c.previous.Lexeme)))
}

// stringLiteral interns the literal's contents (the lexer's String token
// already carries the lexeme with its delimiting quotes stripped) so that
// spec.md §3's "two strings are equal iff they are the same cell"
// invariant holds from the moment a literal is compiled.
func (c *Compiler) stringLiteral(_ bool) {
	str := c.gc.Strings().Intern(c.previous.Lexeme)
	c.emitConstant(value.ObjVal(str))
}

// literal compiles the three keyword literals to their dedicated opcodes.
func (c *Compiler) literal(_ bool) {
	switch c.previous.Type {
	case token.False:
		c.emitByte(byte(bytecode.OpFalse))
	case token.Nil:
		c.emitByte(byte(bytecode.OpNil))
	case token.True:
		c.emitByte(byte(bytecode.OpTrue))
	}
}

// grouping compiles a parenthesized expression; parentheses carry no
// runtime representation of their own.
func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression.")
}

// unary compiles a prefix `-` or `!`, recursing at precUnary so that
// `-a.b` binds the `.b` tighter than the negation, per spec.md §4.3.
func (c *Compiler) unary(_ bool) {
	opType := c.previous.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case token.Bang:
		c.emitByte(byte(bytecode.OpNot))
	case token.Minus:
		c.emitByte(byte(bytecode.OpNegate))
	}
}

// binary compiles one infix arithmetic/comparison operator, parsing its
// right operand one precedence level tighter than itself so the operators
// are left-associative (spec.md §4.3).
func (c *Compiler) binary(_ bool) {
	opType := c.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)

	switch opType {
	case token.BangEqual:
		c.emitBytes(byte(bytecode.OpEqual), byte(bytecode.OpNot))
	case token.EqualEqual:
		c.emitByte(byte(bytecode.OpEqual))
	case token.Greater:
		c.emitByte(byte(bytecode.OpGreater))
	case token.GreaterEqual:
		// a >= b  <=>  !(a < b), encoded as OpLess followed by OpNot
		// (not OpNegate, which would be wrong for a boolean).
		c.emitBytes(byte(bytecode.OpLess), byte(bytecode.OpNot))
	case token.Less:
		c.emitByte(byte(bytecode.OpLess))
	case token.LessEqual:
		c.emitBytes(byte(bytecode.OpGreater), byte(bytecode.OpNot))
	case token.Plus:
		c.emitByte(byte(bytecode.OpAdd))
	case token.Minus:
		c.emitByte(byte(bytecode.OpSubtract))
	case token.Star:
		c.emitByte(byte(bytecode.OpMultiply))
	case token.Slash:
		c.emitByte(byte(bytecode.OpDivide))
	}
}

// and_ short-circuits: if the left operand is falsey, its value (still on
// the stack) becomes the result and the right operand is skipped.
func (c *Compiler) and_(_ bool) {
	endJump := c.emitJump(byte(bytecode.OpJumpIfFalse))
	c.emitByte(byte(bytecode.OpPop))
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

// or_ short-circuits the other way: a truthy left operand skips the right
// operand entirely.
func (c *Compiler) or_(_ bool) {
	elseJump := c.emitJump(byte(bytecode.OpJumpIfFalse))
	endJump := c.emitJump(byte(bytecode.OpJump))

	c.patchJump(elseJump)
	c.emitByte(byte(bytecode.OpPop))

	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

// call compiles the `(args...)` suffix of a call expression, or folds it
// into a single Invoke instruction when the callee is itself a `.method(`
// get-property (spec.md §4.3/§4.4's "Invoke fast path" — see dot below for
// the actual folding decision).
func (c *Compiler) call(_ bool) {
	argCount := c.argumentList()
	c.emitBytes(byte(bytecode.OpCall), argCount)
}

// argumentList parses a comma-separated `(expr, expr, ...)` list already
// positioned just after the opening paren (consumed by the caller's
// prefix/infix rule), enforcing the 255-argument ceiling spec.md §4.3
// names.
func (c *Compiler) argumentList() byte {
	var count int
	if !c.check(token.RightParen) {
		for {
			c.expression()
			if count == maxArgs {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after arguments.")
	return byte(count)
}

// dot compiles `.name`, folding a trailing call into OpInvoke (super_
// does the same for OpSuperInvoke) (spec.md §4.4's fast path for the common "call a method by name"
// pattern, skipping the separate GetProperty + bound-method allocation).
func (c *Compiler) dot(canAssign bool) {
	c.consume(token.Identifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous.Lexeme)

	switch {
	case canAssign && c.match(token.Equal):
		c.expression()
		c.emitBytes(byte(bytecode.OpSetProperty), name)
	case c.match(token.LeftParen):
		argCount := c.argumentList()
		c.emitBytes(byte(bytecode.OpInvoke), name)
		c.emitByte(argCount)
	default:
		c.emitBytes(byte(bytecode.OpGetProperty), name)
	}
}

// variable compiles an identifier reference, resolving it as a local, an
// upvalue, or (failing both) a global by name — spec.md §4.3's three-tier
// resolution order.
func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	var getOp, setOp bytecode.Op
	var arg int

	if slot := c.resolveLocal(c.fn, name); slot != -1 {
		arg = slot
		getOp, setOp = bytecode.OpGetLocal, bytecode.OpSetLocal
	} else if up := c.resolveUpvalue(c.fn, name); up != -1 {
		arg = up
		getOp, setOp = bytecode.OpGetUpvalue, bytecode.OpSetUpvalue
	} else {
		arg = int(c.identifierConstant(name))
		getOp, setOp = bytecode.OpGetGlobal, bytecode.OpSetGlobal
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitBytes(byte(setOp), byte(arg))
	} else {
		c.emitBytes(byte(getOp), byte(arg))
	}
}

// this_ treats `this` as a read-only local named "this" in slot 0 of any
// method or initializer (pushFunction seeds that local), rejecting use
// outside a class body.
func (c *Compiler) this_(_ bool) {
	if c.class == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.namedVariable("this", false)
}

// super_ compiles `super.method` (a bare lookup) or `super.method(args)`
// (folded into SuperInvoke), per spec.md §4.3/§4.4. Both forms push the
// instance (via the "this" local) and the superclass (via the "super"
// upvalue the enclosing class body's method wrapper captures) so the VM
// can walk the superclass's method table directly.
func (c *Compiler) super_(_ bool) {
	switch {
	case c.class == nil:
		c.error("Can't use 'super' outside of a class.")
	case !c.class.hasSuperclass:
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.Dot, "Expect '.' after 'super'.")
	c.consume(token.Identifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous.Lexeme)

	c.namedVariable("this", false)
	if c.match(token.LeftParen) {
		argCount := c.argumentList()
		c.namedVariable("super", false)
		c.emitBytes(byte(bytecode.OpSuperInvoke), name)
		c.emitByte(argCount)
	} else {
		c.namedVariable("super", false)
		c.emitBytes(byte(bytecode.OpGetSuper), name)
	}
}
