package compiler

// resolveUpvalue implements spec.md §4.3's upvalue resolution: it looks
// for name as a local in the immediately enclosing function first: if
// found, that local is marked captured (so endScope closes it properly)
// and a direct (IsLocal=true) upvalue is recorded. Otherwise it recurses
// into the enclosing function's own upvalue table, chaining intermediate
// functions that merely forward a captured variable without referencing
// it themselves — exactly the "upvalues may themselves be upvalues of the
// enclosing function" case the spec calls out.
func (c *Compiler) resolveUpvalue(fs *funcState, name string) int {
	if fs.enclosing == nil {
		return -1
	}
	if local := c.resolveLocal(fs.enclosing, name); local != -1 {
		fs.enclosing.locals[local].IsCaptured = true
		return c.addUpvalue(fs, byte(local), true)
	}
	if up := c.resolveUpvalue(fs.enclosing, name); up != -1 {
		return c.addUpvalue(fs, byte(up), false)
	}
	return -1
}

// addUpvalue appends (or reuses) one entry in fs's upvalue table and keeps
// fs.function.UpvalueCount in lockstep, since the VM sizes each Closure's
// Upvalues slice from that count (spec.md §4.3/§4.4).
func (c *Compiler) addUpvalue(fs *funcState, index byte, isLocal bool) int {
	count := fs.function.UpvalueCount
	for i := 0; i < count; i++ {
		up := &fs.upvalues[i]
		if int(up.Index) == int(index) && up.IsLocal == isLocal {
			return i
		}
	}
	if count >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	fs.upvalues[count] = upvalueRef{Index: index, IsLocal: isLocal}
	fs.function.UpvalueCount++
	return count
}
