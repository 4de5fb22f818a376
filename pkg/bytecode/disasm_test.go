package bytecode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/value"
)

func TestDisassembleSimpleConstant(t *testing.T) {
	c := value.NewChunk()
	idx := c.AddConstant(value.NumberVal(42))
	c.Write(byte(bytecode.OpConstant), 1)
	c.Write(byte(idx), 1)
	c.Write(byte(bytecode.OpReturn), 1)

	out := bytecode.Disassemble(c, "test")
	require.Contains(t, out, "== test ==")
	require.Contains(t, out, "CONSTANT")
	require.Contains(t, out, "'42'")
	require.Contains(t, out, "RETURN")
}

func TestDisassembleJumpShowsTarget(t *testing.T) {
	c := value.NewChunk()
	c.Write(byte(bytecode.OpJump), 1)
	c.Write(0, 1)
	c.Write(1, 1)
	c.Write(byte(bytecode.OpNil), 1)

	out := bytecode.Disassemble(c, "test")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.True(t, strings.Contains(lines[1], "JUMP"))
	require.Contains(t, lines[1], "-> 4")
}

func TestOpStringNames(t *testing.T) {
	require.Equal(t, "RETURN", bytecode.OpReturn.String())
	require.Equal(t, "GET_PROPERTY", bytecode.OpGetProperty.String())
}
