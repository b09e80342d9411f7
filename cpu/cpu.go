package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/ls8/io"
)

// Channel is an output channel interface.
type Channel io.Channel

// Source is a boot image interface.
type Source io.Source

const (
	RAM_SIZE       = 256  // Bytes of RAM.
	REGISTER_COUNT = 8    // General purpose registers.
	REG_SP         = 7    // Register used as the stack pointer.
	STACK_TOP      = 0xF4 // Initial stack pointer; the stack grows down.
)

// Flag register bits, set by CMP.
const (
	FL_EQ = uint8(0b001) // Equal
	FL_GT = uint8(0b010) // Greater than
	FL_LT = uint8(0b100) // Less than
)

var _cpu_defines = map[string]string{
	"SP":        fmt.Sprintf("R%d", REG_SP),
	"STACK_TOP": fmt.Sprintf("%#x", STACK_TOP),
	"RAM_SIZE":  fmt.Sprintf("%d", RAM_SIZE),
}

// Cpu is the simulation context for the LS-8 processor.
type Cpu struct {
	Verbose bool // Set to enable per-cycle trace logging.

	Ram      [RAM_SIZE]uint8       // Main memory.
	Register [REGISTER_COUNT]uint8 // Register bank, R7 is SP.
	Pc       int                   // Program counter.
	Ir       Opcode                // Instruction register.
	Fl       uint8                 // Flags, see FL_*.
	Halted   bool                  // Set once HLT is fetched.

	Ticks int // Instructions executed since reset.

	Output Channel // Destination of PRN.

	codeEnd int // Length of the boot image; the stack may not grow below it.
}

// NewCpu creates a new CPU in its reset state, with an empty program.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	_ = cpu.Reset(nil)

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Reset the CPU state.
// - Clears RAM, registers, and flags.
// - Rewinds the output channel.
// - Copies the boot image, if any, to address 0.
// - Sets SP to STACK_TOP and PC to 0.
func (cpu *Cpu) Reset(boot Source) (err error) {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Ram[:])
	clear(cpu.Register[:])
	cpu.Pc = 0
	cpu.Ir = 0
	cpu.Fl = 0
	cpu.Halted = false
	cpu.Ticks = 0
	cpu.codeEnd = 0

	if cpu.Output != nil {
		cpu.Output.Rewind()
	}

	if boot != nil {
		addr := 0
		for value := range boot.Receive() {
			if addr >= RAM_SIZE {
				err = ErrProgramTooLarge
				return
			}
			cpu.Ram[addr] = value
			addr++
		}
		cpu.codeEnd = addr

		if cpu.Verbose {
			log.Printf("cpu: boot image %d bytes", addr)
		}
	}

	cpu.Register[REG_SP] = STACK_TOP

	return
}

// RamRead returns the byte at addr.
func (cpu *Cpu) RamRead(addr int) (value uint8, err error) {
	if addr < 0 || addr >= RAM_SIZE {
		err = ErrAddress(addr)
		return
	}

	value = cpu.Ram[addr]
	return
}

// RamWrite stores value at addr.
func (cpu *Cpu) RamWrite(addr int, value uint8) (err error) {
	if addr < 0 || addr >= RAM_SIZE {
		err = ErrAddress(addr)
		return
	}

	cpu.Ram[addr] = value
	return
}

// String returns the trace line for the current CPU state:
// PC, FL, the three bytes at PC, then R0 through R7.
func (cpu *Cpu) String() (text string) {
	peek := func(addr int) string {
		value, err := cpu.RamRead(addr)
		if err != nil {
			return "--"
		}
		return fmt.Sprintf("%02X", value)
	}

	text = fmt.Sprintf("TRACE: %02X | %02X %v %v %v |",
		cpu.Pc, cpu.Fl, peek(cpu.Pc), peek(cpu.Pc+1), peek(cpu.Pc+2))

	for _, reg := range cpu.Register {
		text += fmt.Sprintf(" %02X", reg)
	}

	return
}

// Tick executes a single fetch-decode-execute cycle.
// Returns ErrHalt once HLT has been fetched.
func (cpu *Cpu) Tick() (err error) {
	if cpu.Halted {
		err = ErrHalt
		return
	}

	value, err := cpu.RamRead(cpu.Pc)
	if err != nil {
		return
	}
	cpu.Ir = Opcode(value)

	if cpu.Verbose {
		log.Print(cpu.String())
	}

	if cpu.Ir == OP_HLT {
		cpu.Halted = true
		err = ErrHalt
		return
	}

	err = cpu.Execute(cpu.Ir)
	if err != nil {
		return
	}

	cpu.Ticks++

	return
}

// Execute executes a single instruction whose opcode is at PC.
func (cpu *Cpu) Execute(op Opcode) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(op), err)
		}
	}()

	if op.IsAlu() {
		var reg_a, reg_b uint8
		reg_a, err = cpu.operand(1)
		if err != nil {
			return
		}
		reg_b, err = cpu.operand(2)
		if err != nil {
			return
		}
		err = cpu.Alu(op, reg_a, reg_b)
	} else {
		err = cpu.dispatch(op)
	}
	if err != nil {
		return
	}

	if !op.SetsPc() {
		cpu.Pc += op.Width()
	}

	return
}

// Alu performs an ALU operation on registers reg_a and reg_b.
// Results are stored in reg_a, and wrap at 8 bits.
func (cpu *Cpu) Alu(op Opcode, reg_a, reg_b uint8) (err error) {
	if reg_a >= REGISTER_COUNT || reg_b >= REGISTER_COUNT {
		err = ErrRegisterInvalid
		return
	}

	a := &cpu.Register[reg_a]
	b := cpu.Register[reg_b]

	switch op {
	case OP_ADD:
		*a += b
	case OP_MUL:
		*a *= b
	case OP_CMP:
		switch {
		case *a < b:
			cpu.Fl = FL_LT
		case *a > b:
			cpu.Fl = FL_GT
		default:
			cpu.Fl = FL_EQ
		}
	default:
		err = ErrAluUnsupported
	}

	return
}

// dispatch routes a non-ALU opcode to its handler.
func (cpu *Cpu) dispatch(op Opcode) (err error) {
	switch op {
	case OP_HLT:
		cpu.Halted = true
		err = ErrHalt
	case OP_LDI:
		err = cpu.ldi()
	case OP_PRN:
		err = cpu.prn()
	case OP_PUSH:
		err = cpu.push()
	case OP_POP:
		err = cpu.pop()
	case OP_CALL:
		err = cpu.call()
	case OP_RET:
		err = cpu.ret()
	case OP_JMP:
		err = cpu.jmp()
	case OP_JEQ:
		err = cpu.jeq()
	case OP_JNE:
		err = cpu.jne()
	default:
		err = ErrOpcodeUnknown
	}

	return
}

// operand reads the n'th operand byte of the current instruction.
func (cpu *Cpu) operand(n int) (value uint8, err error) {
	return cpu.RamRead(cpu.Pc + n)
}

// register reads the n'th operand byte as a register index.
func (cpu *Cpu) register(n int) (reg int, err error) {
	value, err := cpu.operand(n)
	if err != nil {
		return
	}

	if value >= REGISTER_COUNT {
		err = ErrRegisterInvalid
		return
	}

	reg = int(value)
	return
}

func (cpu *Cpu) ldi() (err error) {
	reg, err := cpu.register(1)
	if err != nil {
		return
	}

	value, err := cpu.operand(2)
	if err != nil {
		return
	}

	cpu.Register[reg] = value
	return
}

func (cpu *Cpu) prn() (err error) {
	reg, err := cpu.register(1)
	if err != nil {
		return
	}

	if cpu.Output == nil {
		err = ErrChannelInvalid
		return
	}

	return cpu.Output.Send(cpu.Register[reg])
}

// push follows the LS-8 order: SP is decremented before the register is
// read, so PUSH R7 stores the new SP.
func (cpu *Cpu) push() (err error) {
	reg, err := cpu.register(1)
	if err != nil {
		return
	}

	err = cpu.reserve()
	if err != nil {
		return
	}

	return cpu.RamWrite(int(cpu.Register[REG_SP]), cpu.Register[reg])
}

// pop stores the value before SP is incremented, so POP R7 leaves
// the popped value plus one in R7.
func (cpu *Cpu) pop() (err error) {
	reg, err := cpu.register(1)
	if err != nil {
		return
	}

	value, err := cpu.Peek()
	if err != nil {
		return
	}

	cpu.Register[reg] = value
	cpu.Register[REG_SP]++

	return
}

// call validates the target register before pushing the return address.
// The target is read after the push, so CALL R7 jumps to the new SP.
func (cpu *Cpu) call() (err error) {
	_, err = cpu.register(1)
	if err != nil {
		return
	}

	next_pc := cpu.Pc + OP_CALL.Width()
	if next_pc >= RAM_SIZE {
		err = ErrAddress(next_pc)
		return
	}

	err = cpu.Push(uint8(next_pc))
	if err != nil {
		return
	}

	return cpu.jmp()
}

func (cpu *Cpu) ret() (err error) {
	value, err := cpu.Pop()
	if err != nil {
		return
	}

	cpu.Pc = int(value)
	return
}

func (cpu *Cpu) jmp() (err error) {
	reg, err := cpu.register(1)
	if err != nil {
		return
	}

	cpu.Pc = int(cpu.Register[reg])
	return
}

func (cpu *Cpu) jeq() (err error) {
	if cpu.Fl&FL_EQ != 0 {
		return cpu.jmp()
	}

	cpu.Pc += 2
	return
}

func (cpu *Cpu) jne() (err error) {
	if cpu.Fl&FL_EQ == 0 {
		return cpu.jmp()
	}

	cpu.Pc += 2
	return
}
