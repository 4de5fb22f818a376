package compiler

import "github.com/kristofer/ember/pkg/token"

// precedence is spec.md §4.3's precedence ladder, lowest first, used by
// parsePrecedence's Pratt climbing loop.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// parseFn is a single Pratt grammar production: a prefix or infix parser
// bound to a token type. canAssign tells a variable/property production
// whether a following `=` may be consumed as an assignment target (spec.md
// §4.3's "Invalid assignment target." check), which is only true at
// precAssignment or looser.
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// rules is the full Pratt table spec.md §4.3 names. Method expressions
// ((*Compiler).foo) are plain *Compiler->bool functions, so they satisfy
// parseFn directly with no wrapping closures.
var rules = map[token.Type]parseRule{
	token.LeftParen:    {prefix: (*Compiler).grouping, infix: (*Compiler).call, precedence: precCall},
	token.Dot:          {infix: (*Compiler).dot, precedence: precCall},
	token.Minus:        {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: precTerm},
	token.Plus:         {infix: (*Compiler).binary, precedence: precTerm},
	token.Slash:        {infix: (*Compiler).binary, precedence: precFactor},
	token.Star:         {infix: (*Compiler).binary, precedence: precFactor},
	token.Bang:         {prefix: (*Compiler).unary},
	token.BangEqual:    {infix: (*Compiler).binary, precedence: precEquality},
	token.EqualEqual:   {infix: (*Compiler).binary, precedence: precEquality},
	token.Greater:      {infix: (*Compiler).binary, precedence: precComparison},
	token.GreaterEqual: {infix: (*Compiler).binary, precedence: precComparison},
	token.Less:         {infix: (*Compiler).binary, precedence: precComparison},
	token.LessEqual:    {infix: (*Compiler).binary, precedence: precComparison},
	token.Identifier:   {prefix: (*Compiler).variable},
	token.String:       {prefix: (*Compiler).stringLiteral},
	token.Number:       {prefix: (*Compiler).number},
	token.And:          {infix: (*Compiler).and_, precedence: precAnd},
	token.Or:           {infix: (*Compiler).or_, precedence: precOr},
	token.False:        {prefix: (*Compiler).literal},
	token.Nil:          {prefix: (*Compiler).literal},
	token.True:         {prefix: (*Compiler).literal},
	token.This:         {prefix: (*Compiler).this_},
	token.Super:        {prefix: (*Compiler).super_},
}

func getRule(t token.Type) parseRule { return rules[t] }

// expression parses a full expression at the loosest precedence.
func (c *Compiler) expression() { c.parsePrecedence(precAssignment) }

// parsePrecedence is the Pratt climbing loop: it runs the prefix rule for
// c.current once, then repeatedly consumes infix operators whose
// precedence is at least prec (spec.md §4.3).
func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := getRule(c.previous.Type).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= getRule(c.current.Type).precedence {
		c.advance()
		infix := getRule(c.previous.Type).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.error("Invalid assignment target.")
	}
}
