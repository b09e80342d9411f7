package cpu

import (
	"errors"
)

// The LS-8 stack lives in RAM, between the end of the boot image and
// STACK_TOP, addressed by R7.

// StackEmpty returns true if nothing has been pushed below STACK_TOP.
func (cpu *Cpu) StackEmpty() bool {
	return cpu.Register[REG_SP] >= STACK_TOP
}

// StackFull returns true if another push would overwrite the program.
func (cpu *Cpu) StackFull() bool {
	return int(cpu.Register[REG_SP])-1 < cpu.codeEnd
}

// stackError qualifies a stack fault with the address, when the address
// is outside of RAM.
func stackError(err error, addr int) error {
	if addr < 0 || addr >= RAM_SIZE {
		return errors.Join(err, ErrAddress(addr))
	}

	return err
}

// reserve decrements SP, making room for one value.
func (cpu *Cpu) reserve() (err error) {
	if cpu.StackFull() {
		err = stackError(ErrStackFull, int(cpu.Register[REG_SP])-1)
		return
	}

	cpu.Register[REG_SP]--
	return
}

// Push decrements SP and stores value at the new top of stack.
func (cpu *Cpu) Push(value uint8) (err error) {
	err = cpu.reserve()
	if err != nil {
		return
	}

	return cpu.RamWrite(int(cpu.Register[REG_SP]), value)
}

// Peek returns the value at the top of stack.
func (cpu *Cpu) Peek() (value uint8, err error) {
	if cpu.StackEmpty() {
		err = stackError(ErrStackEmpty, int(cpu.Register[REG_SP]))
		return
	}

	return cpu.RamRead(int(cpu.Register[REG_SP]))
}

// Pop returns the value at the top of stack, and increments SP.
func (cpu *Cpu) Pop() (value uint8, err error) {
	value, err = cpu.Peek()
	if err != nil {
		return
	}

	cpu.Register[REG_SP]++
	return
}
