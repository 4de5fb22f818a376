package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/value"
)

func TestChunkWriteTracksLines(t *testing.T) {
	c := value.NewChunk()
	c.Write(1, 10)
	c.Write(2, 11)
	require.Equal(t, []byte{1, 2}, c.Code)
	require.Equal(t, 10, c.LineAt(1))
	require.Equal(t, 11, c.LineAt(2))
}

func TestChunkAddConstantReturnsIndex(t *testing.T) {
	c := value.NewChunk()
	idx := c.AddConstant(value.NumberVal(42))
	require.Equal(t, 0, idx)
	idx = c.AddConstant(value.NumberVal(43))
	require.Equal(t, 1, idx)
	require.Equal(t, float64(43), c.Constants[idx].AsNumber())
}

func TestChunkLineAtOutOfRangeReturnsZero(t *testing.T) {
	c := value.NewChunk()
	require.Equal(t, 0, c.LineAt(0))
}
