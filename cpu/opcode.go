package cpu

import (
	"fmt"
)

// Opcode is a single LS-8 instruction byte.
//
//	bits 7-6: operand count
//	bit  5:   ALU operation
//	bit  4:   instruction sets PC
//	bits 3-0: instruction identifier
type Opcode uint8

const (
	OP_HLT  = Opcode(0b00000001) // hlt
	OP_LDI  = Opcode(0b10000010) // ldi
	OP_PRN  = Opcode(0b01000111) // prn
	OP_ADD  = Opcode(0b10100000) // add
	OP_MUL  = Opcode(0b10100010) // mul
	OP_PUSH = Opcode(0b01000101) // push
	OP_POP  = Opcode(0b01000110) // pop
	OP_CALL = Opcode(0b01010000) // call
	OP_RET  = Opcode(0b00010001) // ret
	OP_CMP  = Opcode(0b10100111) // cmp
	OP_JMP  = Opcode(0b01010100) // jmp
	OP_JEQ  = Opcode(0b01010101) // jeq
	OP_JNE  = Opcode(0b01010110) // jne
)

// Opcode field positions.
const (
	OPCODE_OPERANDS_SHIFT = 6
	OPCODE_ALU_BIT        = 5
	OPCODE_SETS_PC_BIT    = 4
)

// opcodeNames is the closed set of implemented instructions.
var opcodeNames = map[Opcode]string{
	OP_HLT:  "HLT",
	OP_LDI:  "LDI",
	OP_PRN:  "PRN",
	OP_ADD:  "ADD",
	OP_MUL:  "MUL",
	OP_PUSH: "PUSH",
	OP_POP:  "POP",
	OP_CALL: "CALL",
	OP_RET:  "RET",
	OP_CMP:  "CMP",
	OP_JMP:  "JMP",
	OP_JEQ:  "JEQ",
	OP_JNE:  "JNE",
}

// Operands returns the number of operand bytes following the opcode.
func (op Opcode) Operands() int {
	return int(op >> OPCODE_OPERANDS_SHIFT)
}

// IsAlu returns true if the opcode is routed to the ALU.
func (op Opcode) IsAlu() bool {
	return (op>>OPCODE_ALU_BIT)&1 == 1
}

// SetsPc returns true if the instruction handler moves PC itself.
func (op Opcode) SetsPc() bool {
	return (op>>OPCODE_SETS_PC_BIT)&1 == 1
}

// Width returns the size in bytes of the instruction, including operands.
func (op Opcode) Width() int {
	return 1 + op.Operands()
}

// Known returns true if the opcode is part of the instruction set.
func (op Opcode) Known() bool {
	_, ok := opcodeNames[op]
	return ok
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	name, ok := opcodeNames[op]
	if !ok {
		return fmt.Sprintf("0x%02x", uint8(op))
	}

	return name
}

// LookupOpcode finds an opcode by mnemonic. Mnemonics are upper case.
func LookupOpcode(name string) (op Opcode, ok bool) {
	for code, mnemonic := range opcodeNames {
		if mnemonic == name {
			return code, true
		}
	}

	return
}
