package compiler_test

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/compiler"
	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/value"
)

func compile(t *testing.T, src string) (*value.ObjFunction, *bytes.Buffer) {
	t.Helper()
	var errSink bytes.Buffer
	fn, err := compiler.Compile(src, gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.NoError(t, err)
	return fn, &errSink
}

func TestCompileSimpleExpressionStatement(t *testing.T) {
	fn, errSink := compile(t, "print 1 + 2;")
	require.Empty(t, errSink.String())
	require.Contains(t, fn.Chunk.Code, byte(bytecode.OpAdd))
	require.Contains(t, fn.Chunk.Code, byte(bytecode.OpPrint))
}

func TestCompileSyntaxErrorReportsLineAndLexeme(t *testing.T) {
	var errSink bytes.Buffer
	_, err := compiler.Compile("print 1 +;", gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.Error(t, err)
	var compileErr *compiler.CompileError
	require.ErrorAs(t, err, &compileErr)
	require.Contains(t, errSink.String(), "[line 1] Error at ';'")
}

func TestCompileUnterminatedBlockReportsAtEnd(t *testing.T) {
	var errSink bytes.Buffer
	_, err := compiler.Compile("fun f() {", gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.Error(t, err)
	require.Contains(t, errSink.String(), "at end")
}

func TestGreaterEqualCompilesToLessNot(t *testing.T) {
	fn, _ := compile(t, "print 1 >= 2;")
	code := fn.Chunk.Code
	found := false
	for i := 0; i+1 < len(code); i++ {
		if bytecode.Op(code[i]) == bytecode.OpLess && bytecode.Op(code[i+1]) == bytecode.OpNot {
			found = true
		}
	}
	require.True(t, found, ">= must compile to Less,Not per the corrected encoding")
}

func TestLessEqualCompilesToGreaterNot(t *testing.T) {
	fn, _ := compile(t, "print 1 <= 2;")
	code := fn.Chunk.Code
	found := false
	for i := 0; i+1 < len(code); i++ {
		if bytecode.Op(code[i]) == bytecode.OpGreater && bytecode.Op(code[i+1]) == bytecode.OpNot {
			found = true
		}
	}
	require.True(t, found, "<= must compile to Greater,Not per the corrected encoding")
}

func TestThisOutsideClassIsCompileError(t *testing.T) {
	var errSink bytes.Buffer
	_, err := compiler.Compile("print this;", gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.Error(t, err)
	require.Contains(t, errSink.String(), "Can't use 'this' outside of a class.")
}

func TestSuperOutsideClassIsCompileError(t *testing.T) {
	var errSink bytes.Buffer
	_, err := compiler.Compile("super.foo();", gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.Error(t, err)
	require.Contains(t, errSink.String(), "Can't use 'super' outside of a class.")
}

func TestSuperWithNoSuperclassIsCompileError(t *testing.T) {
	var errSink bytes.Buffer
	_, err := compiler.Compile("class A { m() { super.m(); } }", gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.Error(t, err)
	require.Contains(t, errSink.String(), "Can't use 'super' in a class with no superclass.")
}

func TestReadingLocalInItsOwnInitializerIsCompileError(t *testing.T) {
	var errSink bytes.Buffer
	_, err := compiler.Compile("{ var a = a; }", gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.Error(t, err)
	require.Contains(t, errSink.String(), "Can't read local variable in its own initializer.")
}

func TestShadowingLocalInSameScopeIsCompileError(t *testing.T) {
	var errSink bytes.Buffer
	_, err := compiler.Compile("{ var a = 1; var a = 2; }", gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.Error(t, err)
	require.Contains(t, errSink.String(), "Already a variable with this name in this scope.")
}

func TestTopLevelReturnIsCompileError(t *testing.T) {
	var errSink bytes.Buffer
	_, err := compiler.Compile("return 1;", gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.Error(t, err)
	require.Contains(t, errSink.String(), "Can't return from top-level code.")
}

func TestInitializerReturningValueIsCompileError(t *testing.T) {
	var errSink bytes.Buffer
	_, err := compiler.Compile("class A { init() { return 1; } }", gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.Error(t, err)
	require.Contains(t, errSink.String(), "Can't return a value from an initializer.")
}

func TestClosureCapturesEnclosingLocal(t *testing.T) {
	fn, errSink := compile(t, `
		fun outer() {
			var x = 1;
			fun inner() { return x; }
			return inner;
		}
	`)
	require.Empty(t, errSink.String())
	require.Contains(t, fn.Chunk.Code, byte(bytecode.OpClosure))
}

func manyParams(n int) string {
	var b bytes.Buffer
	b.WriteString("fun f(")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "p%d", i)
	}
	b.WriteString(") {}")
	return b.String()
}

func TestTooManyParametersIsCompileError(t *testing.T) {
	var errSink bytes.Buffer
	_, err := compiler.Compile(manyParams(256), gc.New(gc.DefaultInitialThreshold, nil), &errSink, nil)
	require.Error(t, err)
	require.Contains(t, errSink.String(), "Can't have more than 255 parameters.")
}

func TestExactly255ParametersSucceeds(t *testing.T) {
	_, errSink := compile(t, manyParams(255))
	require.Empty(t, errSink.String())
}
