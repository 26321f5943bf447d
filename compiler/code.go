// Package compiler lowers an AST program to the versioned bytecode
// artifact the virtual machine executes: a constant pool, a function
// table, and a linear code section with backpatched jump targets.
package compiler

import "fmt"

// Opcode is a single bytecode instruction tag.
type Opcode byte

const (
	OP_HALT          Opcode = 0x01
	OP_LOAD_CONST    Opcode = 0x02
	OP_LOAD_GLOBAL   Opcode = 0x03
	OP_STORE_GLOBAL  Opcode = 0x04
	OP_ADD           Opcode = 0x05
	OP_SUB           Opcode = 0x06
	OP_MUL           Opcode = 0x07
	OP_DIV           Opcode = 0x08
	OP_PRINT         Opcode = 0x09
	OP_INPUT         Opcode = 0x0A
	OP_JUMP          Opcode = 0x0B
	OP_JUMP_IF_FALSE Opcode = 0x0C
	OP_CALL          Opcode = 0x0D
	OP_RETURN        Opcode = 0x0E
	OP_LOAD_LOCAL    Opcode = 0x0F
	OP_STORE_LOCAL   Opcode = 0x10
	OP_DROP          Opcode = 0x11
	OP_HALT_ALT      Opcode = 0x12
)

// OpCodeDefinition names an opcode and the byte width of each of its
// operands, in order. Shared by the compiler's emitter and the
// disassembler.
type OpCodeDefinition struct {
	Name          string
	OperandWidths []int
}

var definitions = map[Opcode]*OpCodeDefinition{
	OP_HALT:          {Name: "HALT", OperandWidths: nil},
	OP_LOAD_CONST:    {Name: "LOAD_CONST", OperandWidths: []int{4}},
	OP_LOAD_GLOBAL:   {Name: "LOAD_GLOBAL", OperandWidths: []int{1}},
	OP_STORE_GLOBAL:  {Name: "STORE_GLOBAL", OperandWidths: []int{1}},
	OP_ADD:           {Name: "ADD", OperandWidths: nil},
	OP_SUB:           {Name: "SUB", OperandWidths: nil},
	OP_MUL:           {Name: "MUL", OperandWidths: nil},
	OP_DIV:           {Name: "DIV", OperandWidths: nil},
	OP_PRINT:         {Name: "PRINT", OperandWidths: nil},
	OP_INPUT:         {Name: "INPUT", OperandWidths: nil},
	OP_JUMP:          {Name: "JUMP", OperandWidths: []int{4}},
	OP_JUMP_IF_FALSE: {Name: "JUMP_IF_FALSE", OperandWidths: []int{4}},
	OP_CALL:          {Name: "CALL", OperandWidths: []int{4}},
	OP_RETURN:        {Name: "RETURN", OperandWidths: nil},
	OP_LOAD_LOCAL:    {Name: "LOAD_LOCAL", OperandWidths: []int{2}},
	OP_STORE_LOCAL:   {Name: "STORE_LOCAL", OperandWidths: []int{2}},
	OP_DROP:          {Name: "DROP", OperandWidths: nil},
	OP_HALT_ALT:      {Name: "HALT_ALT", OperandWidths: nil},
}

// String renders an opcode's mnemonic name, falling back to UNKNOWN for
// unrecognized bytes.
func (op Opcode) String() string {
	def, err := Get(op)
	if err != nil {
		return "UNKNOWN"
	}
	return def.Name
}

// Get looks up an opcode's definition.
func Get(op Opcode) (*OpCodeDefinition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode 0x%02X undefined", byte(op))
	}
	return def, nil
}

// InstructionWidth returns 1 (the opcode byte) plus the total width of
// its operands.
func InstructionWidth(op Opcode) int {
	def, err := Get(op)
	if err != nil {
		return 1
	}
	width := 1
	for _, w := range def.OperandWidths {
		width += w
	}
	return width
}
