package gc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/value"
)

func TestInternReturnsSameCellForEqualContent(t *testing.T) {
	c := gc.New(gc.DefaultInitialThreshold, nil)
	a := c.Strings().Intern("hello")
	b := c.Strings().Intern("hello")
	require.Same(t, a, b)
}

func TestInternDistinctContentDistinctCells(t *testing.T) {
	c := gc.New(gc.DefaultInitialThreshold, nil)
	a := c.Strings().Intern("hello")
	b := c.Strings().Intern("world")
	require.NotSame(t, a, b)
}

func TestInitStringIsInterned(t *testing.T) {
	c := gc.New(gc.DefaultInitialThreshold, nil)
	init := c.Strings().Intern("init")
	require.Same(t, c.Strings().InitString(), init)
}

// noopMarker implements gc.RootMarker without marking anything, simulating
// a VM whose roots have all gone out of scope.
type noopMarker struct{}

func (noopMarker) MarkRoots(c *gc.Collector) {}

func TestCollectSweepsUnreachableStrings(t *testing.T) {
	c := gc.New(gc.DefaultInitialThreshold, nil)
	c.Strings().Intern("orphan")
	require.Equal(t, 2, c.Strings().Count()) // "init" + "orphan"

	c.Collect(noopMarker{})

	require.Equal(t, 1, c.Strings().Count(), "only the always-rooted init string should survive")
}

// rootedMarker keeps a single object alive across a collection.
type rootedMarker struct{ obj value.Obj }

func (r rootedMarker) MarkRoots(c *gc.Collector) { c.MarkObject(r.obj) }

func TestCollectSpareRootedObject(t *testing.T) {
	c := gc.New(gc.DefaultInitialThreshold, nil)
	str := c.Strings().Intern("kept")
	c.Collect(rootedMarker{obj: str})
	require.Same(t, str, c.Strings().Intern("kept"))
}

func TestShouldCollectCrossesThreshold(t *testing.T) {
	// A new collector already tracks the interned "init" string (4 bytes of
	// content + 16 bytes of overhead = 20), so the threshold sits above it.
	c := gc.New(32, nil)
	require.False(t, c.ShouldCollect())
	c.Track(value.NewString("x"), 16)
	require.True(t, c.ShouldCollect())
}
