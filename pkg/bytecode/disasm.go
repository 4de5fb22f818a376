package bytecode

import (
	"fmt"
	"strings"

	"github.com/kristofer/ember/pkg/value"
)

// Disassemble renders every instruction in chunk as human-readable text,
// one line per instruction, labeled with name. This is the developer
// convenience the teacher's pkg/bytecode/format.go provided (there, for a
// persisted .sg file); here it operates purely on an in-memory Chunk just
// produced by the compiler, since spec.md §6 rules out any persisted
// bytecode format for the core ("Persisted state: none").
func Disassemble(chunk *value.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = disassembleInstruction(&b, chunk, offset)
	}
	return b.String()
}

func disassembleInstruction(b *strings.Builder, chunk *value.Chunk, offset int) int {
	fmt.Fprintf(b, "%04d %4d ", offset, chunk.Lines[offset])
	op := Op(chunk.Code[offset])
	switch op {
	case OpConstant, OpGetGlobal, OpDefineGlobal, OpSetGlobal, OpGetProperty,
		OpSetProperty, OpGetSuper, OpClass, OpMethod:
		return constantInstruction(b, op, chunk, offset)
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue, OpCall:
		return byteInstruction(b, op, chunk, offset)
	case OpJump, OpJumpIfFalse:
		return jumpInstruction(b, op, chunk, offset, 1)
	case OpLoop:
		return jumpInstruction(b, op, chunk, offset, -1)
	case OpInvoke, OpSuperInvoke:
		return invokeInstruction(b, op, chunk, offset)
	case OpClosure:
		return closureInstruction(b, chunk, offset)
	default:
		fmt.Fprintf(b, "%s\n", op)
		return offset + 1
	}
}

func constantInstruction(b *strings.Builder, op Op, chunk *value.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d '%s'\n", op, idx, chunk.Constants[idx].String())
	return offset + 2
}

func byteInstruction(b *strings.Builder, op Op, chunk *value.Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
	return offset + 2
}

func jumpInstruction(b *strings.Builder, op Op, chunk *value.Chunk, offset int, sign int) int {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	target := offset + 3 + sign*jump
	fmt.Fprintf(b, "%-16s %4d -> %d\n", op, offset, target)
	return offset + 3
}

func invokeInstruction(b *strings.Builder, op Op, chunk *value.Chunk, offset int) int {
	nameIdx := chunk.Code[offset+1]
	argCount := chunk.Code[offset+2]
	fmt.Fprintf(b, "%-16s (%d args) %4d '%s'\n", op, argCount, nameIdx, chunk.Constants[nameIdx].String())
	return offset + 3
}

func closureInstruction(b *strings.Builder, chunk *value.Chunk, offset int) int {
	offset++
	constIdx := chunk.Code[offset]
	offset++
	fmt.Fprintf(b, "%-16s %4d '%s'\n", OpClosure, constIdx, chunk.Constants[constIdx].String())

	fn := chunk.Constants[constIdx].AsObj().(*value.ObjFunction)
	for j := 0; j < fn.UpvalueCount; j++ {
		isLocal := chunk.Code[offset]
		offset++
		index := chunk.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(b, "%04d      |                     %s %d\n", offset-2, kind, index)
	}
	return offset
}
