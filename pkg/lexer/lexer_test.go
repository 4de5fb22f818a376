package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/lexer"
	"github.com/kristofer/ember/pkg/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	l := lexer.New(src)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

func TestPunctuationAndOperators(t *testing.T) {
	toks := scanAll(t, "(){},.-+;/*! != = == > >= < <=")
	want := []token.Type{
		token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace,
		token.Comma, token.Dot, token.Minus, token.Plus, token.Semicolon,
		token.Slash, token.Star, token.Bang, token.BangEqual, token.Equal,
		token.EqualEqual, token.Greater, token.GreaterEqual, token.Less,
		token.LessEqual, token.EOF,
	}
	require.Len(t, toks, len(want))
	for i, typ := range want {
		require.Equalf(t, typ, toks[i].Type, "token %d (%q)", i, toks[i].Lexeme)
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := scanAll(t, "class fun notAKeyword this")
	require.Equal(t, token.Class, toks[0].Type)
	require.Equal(t, token.Fun, toks[1].Type)
	require.Equal(t, token.Identifier, toks[2].Type)
	require.Equal(t, "notAKeyword", toks[2].Lexeme)
	require.Equal(t, token.This, toks[3].Type)
}

func TestNumberTrailingDotNotConsumed(t *testing.T) {
	toks := scanAll(t, "123.")
	require.Equal(t, token.Number, toks[0].Type)
	require.Equal(t, "123", toks[0].Lexeme)
	require.Equal(t, token.Dot, toks[1].Type)
}

func TestNumberWithFraction(t *testing.T) {
	toks := scanAll(t, "3.14")
	require.Equal(t, token.Number, toks[0].Type)
	require.Equal(t, "3.14", toks[0].Lexeme)
}

func TestStringWithEmbeddedNewlineIncrementsLine(t *testing.T) {
	toks := scanAll(t, "\"a\nb\" 1")
	require.Equal(t, token.String, toks[0].Type)
	require.Equal(t, "a\nb", toks[0].Lexeme)
	require.Equal(t, 2, toks[1].Line)
}

func TestUnterminatedStringProducesErrorTokenAndContinues(t *testing.T) {
	toks := scanAll(t, "\"oops")
	require.Equal(t, token.Error, toks[0].Type)
	require.Equal(t, "Unterminated string.", toks[0].Lexeme)
	require.Equal(t, token.EOF, toks[1].Type)
}

func TestUnknownCharacterProducesErrorTokenAndContinues(t *testing.T) {
	toks := scanAll(t, "@ 1")
	require.Equal(t, token.Error, toks[0].Type)
	require.Equal(t, token.Number, toks[1].Type)
}

func TestCommentsAreSkipped(t *testing.T) {
	toks := scanAll(t, "// a comment\n1")
	require.Equal(t, token.Number, toks[0].Type)
	require.Equal(t, 2, toks[0].Line)
}
