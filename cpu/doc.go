// Package cpu implements the LS-8 microprocessor, its program loader, and
// an assembler for the LS-8 instruction set.
//
// The CPU consists of 256 bytes of RAM, eight 8-bit registers (R7 doubles as
// the stack pointer), a program counter (PC), an instruction register (IR),
// and a flags register (FL) written by comparisons. Each opcode byte carries
// its own operand count and routing in its upper bits, so decoding needs no
// lookup table.
//
// Programs are loaded from the .ls8 text format (one binary byte per line),
// or assembled from mnemonics, with $(...) compile-time expressions evaluated
// by starlark.
package cpu
