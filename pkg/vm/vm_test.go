package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/vm"
)

func run(t *testing.T, src string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errBuf bytes.Buffer
	machine := vm.New(&out, &errBuf, nil)
	err = machine.Interpret(src)
	return out.String(), errBuf.String(), err
}

func TestArithmeticPrint(t *testing.T) {
	out, errs, err := run(t, "print 1 + 2;")
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Equal(t, "3\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, _, err := run(t, `var a = "st"; var b = "r"; print a + b + "ing";`)
	require.NoError(t, err)
	require.Equal(t, "string\n", out)
}

func TestFibonacci(t *testing.T) {
	out, _, err := run(t, `
		fun fib(n) { if (n < 2) return n; return fib(n - 1) + fib(n - 2); }
		print fib(10);
	`)
	require.NoError(t, err)
	require.Equal(t, "55\n", out)
}

func TestClassMethodCall(t *testing.T) {
	out, _, err := run(t, `class A { greet() { print "hi"; } } A().greet();`)
	require.NoError(t, err)
	require.Equal(t, "hi\n", out)
}

func TestInheritanceAndSuperInit(t *testing.T) {
	out, _, err := run(t, `
		class A { init(x) { this.x = x; } }
		class B < A { init(x) { super.init(x); this.y = x + 1; } }
		var b = B(2);
		print b.x;
		print b.y;
	`)
	require.NoError(t, err)
	require.Equal(t, "2\n3\n", out)
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, errs, err := run(t, "var x; x = undefined;")
	require.Error(t, err)
	require.Contains(t, errs, "Undefined variable 'undefined'.")
	require.Contains(t, errs, "[line 1] in script")
}

func TestNegateNonNumberIsRuntimeError(t *testing.T) {
	_, errs, err := run(t, "-true;")
	require.Error(t, err)
	require.Contains(t, errs, "Operand must be a number.")
}

func TestAddMismatchedTypesIsRuntimeError(t *testing.T) {
	_, errs, err := run(t, `"a" + 1;`)
	require.Error(t, err)
	require.Contains(t, errs, "Operands must be two numbers or two strings.")
}

func TestClosureCapturesLocalAcrossCalls(t *testing.T) {
	out, _, err := run(t, `
		fun makeCounter() {
			var i = 0;
			fun count() {
				i = i + 1;
				print i;
			}
			return count;
		}
		var counter = makeCounter();
		counter();
		counter();
	`)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n", out)
}

func TestClockNativeIsRegistered(t *testing.T) {
	out, errs, err := run(t, "print clock() >= 0;")
	require.NoError(t, err)
	require.Empty(t, errs)
	require.Equal(t, "true\n", out)
}

func TestArityMismatchIsRuntimeError(t *testing.T) {
	_, errs, err := run(t, "fun f(a) { return a; } f();")
	require.Error(t, err)
	require.Contains(t, errs, "Expected 1 arguments but got 0.")
}

func TestFieldShadowsMethod(t *testing.T) {
	out, _, err := run(t, `
		class A { m() { print "method"; } }
		var a = A();
		a.m = 1;
		print a.m;
	`)
	require.NoError(t, err)
	require.Equal(t, "1\n", out)
}

func TestOnlyInstancesHaveProperties(t *testing.T) {
	_, errs, err := run(t, `var n = 1; n.x;`)
	require.Error(t, err)
	require.Contains(t, errs, "Only instances have properties.")
}
