package compiler

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Disassemble renders an artifact's constant pool, function table, and
// code section in a human-readable form.
func Disassemble(a *Artifact) string {
	var b strings.Builder

	fmt.Fprintf(&b, "version: %d, flags: %d\n", a.Version, a.Flags)

	fmt.Fprintf(&b, "constants (%d):\n", len(a.Constants))
	for i, cst := range a.Constants {
		switch cst.Tag {
		case ConstNumber:
			fmt.Fprintf(&b, "  %4d: number %g\n", i, cst.Number)
		case ConstString:
			fmt.Fprintf(&b, "  %4d: string %q\n", i, cst.Str)
		}
	}

	fmt.Fprintf(&b, "functions (%d):\n", len(a.Functions))
	for i, fn := range a.Functions {
		name := "?"
		if int(fn.NameConstIdx) < len(a.Constants) && a.Constants[fn.NameConstIdx].Tag == ConstString {
			name = a.Constants[fn.NameConstIdx].Str
		}
		fmt.Fprintf(&b, "  %4d: %s arity=%d locals=%d offset=%d\n", i+2, name, fn.Arity, fn.LocalCount, fn.CodeOffset)
	}

	b.WriteString("code:\n")
	b.WriteString(disassembleCode(a.Code, a.Version < 4))
	return b.String()
}

func disassembleCode(code []byte, legacyPrint bool) string {
	var b strings.Builder
	ip := 0
	for ip < len(code) {
		op := Opcode(code[ip])

		if op == OP_CALL && legacyPrint {
			fmt.Fprintf(&b, "  %6d  PRINT_NO_NEWLINE\n", ip)
			ip++
			continue
		}

		def, err := Get(op)
		if err != nil {
			fmt.Fprintf(&b, "  %6d  ?? (0x%02X)\n", ip, byte(op))
			ip++
			continue
		}

		fmt.Fprintf(&b, "  %6d  %s", ip, def.Name)
		operandPos := ip + 1
		for _, width := range def.OperandWidths {
			var operand uint64
			switch width {
			case 1:
				operand = uint64(code[operandPos])
			case 2:
				operand = uint64(binary.LittleEndian.Uint16(code[operandPos : operandPos+2]))
			case 4:
				operand = uint64(binary.LittleEndian.Uint32(code[operandPos : operandPos+4]))
			}
			fmt.Fprintf(&b, " %d", operand)
			operandPos += width
		}
		b.WriteByte('\n')
		ip += InstructionWidth(op)
	}
	return b.String()
}
