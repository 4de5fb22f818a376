package gc

import (
	"github.com/dolthub/swiss"
	"github.com/josharian/intern"

	"github.com/kristofer/ember/pkg/value"
)

// Interner canonicalizes strings into single heap cells, per spec.md §3
// invariant (3): "two strings are equal iff they are the same cell", and
// §4.5's "weak interning" (the collector may still collect an interned
// string once nothing else references it).
//
// Two libraries do the work: github.com/josharian/intern canonicalizes the
// underlying Go string bytes (so two calls with equal content never
// allocate two separate string headers), and a
// github.com/dolthub/swiss-backed table maps that canonical content to the
// single *value.ObjString heap cell the GC tracks and can sweep — plain
// intern.String alone is insufficient because its cache is a permanent,
// unsweepable process-global; layering a GC-owned table on top restores
// the "weak" half of weak interning.
type Interner struct {
	gc    *Collector
	table *swiss.Map[string, *value.ObjString]
	init  *value.ObjString
}

func newInterner(gc *Collector) *Interner {
	i := &Interner{gc: gc, table: swiss.NewMap[string, *value.ObjString](64)}
	i.init = i.Intern("init")
	return i
}

// Intern returns the canonical *value.ObjString for s, allocating and
// tracking a new cell on the first call for a given content and reusing it
// on every subsequent call (spec.md §4.5's "init-string interning" applies
// this same mechanism to make constructor dispatch a pointer comparison).
func (i *Interner) Intern(s string) *value.ObjString {
	canonical := intern.String(s)
	if existing, ok := i.table.Get(canonical); ok {
		return existing
	}
	str := value.NewString(canonical)
	i.table.Put(canonical, str)
	i.gc.Track(str, len(canonical)+16)
	return str
}

// InitString returns the precomputed, always-rooted "init" string used for
// constructor-method dispatch (spec.md §4.5 step 1, §9).
func (i *Interner) InitString() *value.ObjString { return i.init }

// pruneUnmarked removes every interned string whose mark bit is clear from
// the lookup table, ahead of the heap-list sweep (spec.md §4.5 step 3), so
// that a later Intern call for the same content allocates a fresh cell
// instead of resurrecting one about to be freed. The cell itself is still
// threaded onto the heap list and is freed — and bytesAllocated decremented
// by its tracked size — by the heap-list walk in Collector.sweep, the same
// as any other object kind; pruneUnmarked does not double-account it.
func (i *Interner) pruneUnmarked() {
	var stale []string
	i.table.Iter(func(k string, v *value.ObjString) bool {
		if !v.Marked() {
			stale = append(stale, k)
		}
		return false
	})
	for _, k := range stale {
		i.table.Delete(k)
	}
}

// Count returns the number of live interned strings, for tests.
func (i *Interner) Count() int { return i.table.Count() }
