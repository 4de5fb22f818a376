package value_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/value"
)

func TestTruthy(t *testing.T) {
	require.False(t, value.NilValue.Truthy())
	require.False(t, value.FalseValue.Truthy())
	require.True(t, value.TrueValue.Truthy())
	require.True(t, value.NumberVal(0).Truthy())
	require.True(t, value.ObjVal(value.NewString("")).Truthy())
}

func TestEqualNumbers(t *testing.T) {
	require.True(t, value.Equal(value.NumberVal(1), value.NumberVal(1)))
	require.False(t, value.Equal(value.NumberVal(1), value.NumberVal(2)))
}

func TestEqualNaNIsFalse(t *testing.T) {
	nan := value.NumberVal(math.NaN())
	require.False(t, value.Equal(nan, nan))
}

func TestEqualDifferentTypes(t *testing.T) {
	require.False(t, value.Equal(value.NumberVal(0), value.FalseValue))
	require.False(t, value.Equal(value.NilValue, value.FalseValue))
}

func TestEqualStringsByIdentity(t *testing.T) {
	a := value.NewString("hi")
	b := value.NewString("hi")
	require.True(t, value.Equal(value.ObjVal(a), value.ObjVal(a)))
	require.False(t, value.Equal(value.ObjVal(a), value.ObjVal(b)), "un-interned cells with equal content are still distinct")
}

func TestStringRendering(t *testing.T) {
	require.Equal(t, "nil", value.NilValue.String())
	require.Equal(t, "true", value.TrueValue.String())
	require.Equal(t, "3", value.NumberVal(3).String())
	require.Equal(t, "3.5", value.NumberVal(3.5).String())
}

func TestIsObjType(t *testing.T) {
	s := value.ObjVal(value.NewString("x"))
	require.True(t, s.IsObjType(value.TypeString))
	require.False(t, s.IsObjType(value.TypeClass))
	require.False(t, value.NumberVal(1).IsObjType(value.TypeString))
}

func TestTypeName(t *testing.T) {
	require.Equal(t, "nil", value.NilValue.TypeName())
	require.Equal(t, "boolean", value.TrueValue.TypeName())
	require.Equal(t, "number", value.NumberVal(1).TypeName())
	require.Equal(t, "string", value.ObjVal(value.NewString("x")).TypeName())
}
