package emulator

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/ls8/cpu"
)

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	assert.False(emu.Verbose)
	assert.False(emu.Capture)
	assert.NotNil(emu.Cpu)
	assert.Equal(TEMP_SIZE, emu.Temporary.Capacity)
	assert.Equal(uint8(cpu.STACK_TOP), emu.Cpu.Register[cpu.REG_SP])
}

func doAssemble(emu *Emulator, program []string, t *testing.T) {
	asm := &cpu.Assembler{}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	assert.NoError(t, err)
	if err != nil {
		t.FailNow()
	}
	emu.Program = prog
}

func doRun(emu *Emulator, program []string, t *testing.T) (output []uint8) {
	assert := assert.New(t)

	doAssemble(emu, program, t)

	emu.Capture = true
	err := emu.Reset()
	assert.NoError(err)

	err = emu.Run()
	assert.NoError(err)

	output = emu.Captured()
	return
}

func TestEmulatorMultiply(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0,8",
		"LDI R1,9",
		"MUL R0,R1",
		"PRN R0",
		"HLT",
	}

	output := doRun(emu, program, t)

	assert.Equal([]uint8{72}, output)
	assert.Equal(4, emu.Ticks())
}

func TestEmulatorBranch(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0,5",
		"LDI R1,5",
		"LDI R2,TEST",
		"LDI R3,1",
		"LDI R4,2",
		"CMP R0,R1",
		"JEQ R2",
		"PRN R3",
		"TEST: PRN R4",
		"HLT",
	}

	output := doRun(emu, program, t)

	assert.Equal([]uint8{2}, output)
}

func TestEmulatorHalt(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(emu, []string{"HLT", "LDI R0,1", "PRN R0"}, t)
	emu.Capture = true
	assert.NoError(emu.Reset())

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)

	done, err = emu.Tick()
	assert.NoError(err)
	assert.True(done)

	assert.Equal(0, emu.Cpu.Pc)
	assert.Equal(uint8(0), emu.Cpu.Register[0])
	assert.Empty(emu.Captured())
}

func TestEmulatorFactorial(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"    LDI R0, 5",
		"    LDI R1, FACT",
		"    CALL R1",
		"    PRN R2          ; 5!",
		"    HLT",
		"",
		"FACT:               ; R2 = R0!",
		"    LDI R3, 1",
		"    CMP R0, R3",
		"    LDI R4, RECURSE",
		"    JNE R4",
		"    LDI R2, 1",
		"    RET",
		"RECURSE:",
		"    PUSH R0",
		"    LDI R3, -1",
		"    ADD R0, R3      ; R0 - 1",
		"    CALL R1",
		"    POP R0",
		"    MUL R2, R0",
		"    RET",
	}

	output := doRun(emu, program, t)

	assert.Equal([]uint8{120}, output)
	assert.Equal(uint8(cpu.STACK_TOP), emu.Cpu.Register[cpu.REG_SP])
	assert.Equal(5, emu.LineNo())
}

func TestEmulatorStackDiscipline(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	program := []string{
		"LDI R0, 0x11",
		"LDI R1, 0x22",
		"PUSH R0",
		"PUSH R1",
		"POP R2",
		"POP R3",
		"PRN R2",
		"PRN R3",
		"HLT",
	}

	output := doRun(emu, program, t)

	assert.Equal([]uint8{0x22, 0x11}, output)
	assert.Equal(uint8(cpu.STACK_TOP), emu.Cpu.Register[cpu.REG_SP])
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(emu, []string{
		"LDI R0, 1",
		"; the stack is empty",
		"POP R1",
		"HLT",
	}, t)
	emu.Capture = true
	assert.NoError(emu.Reset())

	err := emu.Run()
	assert.ErrorIs(err, cpu.ErrStackEmpty)
	assert.ErrorIs(err, cpu.ErrOpcode(cpu.OP_POP))

	var runtime *ErrRuntime
	if assert.True(errors.As(err, &runtime)) {
		assert.Equal(3, runtime.Pc)
		assert.Equal(3, runtime.LineNo)
	}
}

func TestEmulatorTape(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	doAssemble(emu, []string{
		"LDI R0, 1",
		"LDI R1, 1",
		"LDI R2, 3",
		"LOOP:",
		"LDI R3, LOOP",
		"PRN R0",
		"CMP R0, R2",
		"ADD R0, R1",
		"JNE R3",
		"HLT",
	}, t)

	tape_output := &bytes.Buffer{}
	emu.Tape.Output = tape_output

	assert.NoError(emu.Reset())
	assert.NoError(emu.Run())

	assert.Equal("1\n2\n3\n", tape_output.String())
	assert.Equal(3, emu.Tape.Written)
	assert.Empty(emu.Captured())

	// Reset rewinds the tape counter.
	assert.NoError(emu.Reset())
	assert.Equal(0, emu.Tape.Written)
}

func TestEmulatorBinary(t *testing.T) {
	assert := assert.New(t)

	source := strings.Join([]string{
		"# print8.ls8: print the number 8",
		"10000010 # LDI R0,8",
		"00000000",
		"00001000",
		"01000111 # PRN R0",
		"00000000",
		"00000001 # HLT",
	}, "\n")

	prog, err := cpu.ParseBinary(strings.NewReader(source))
	assert.NoError(err)

	emu := NewEmulator()
	emu.Program = prog
	emu.Capture = true
	assert.NoError(emu.Reset())
	assert.NoError(emu.Run())

	assert.Equal([]uint8{8}, emu.Captured())
}

func TestEmulatorDefines(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()

	defines := map[string]string{}
	for key, value := range emu.Defines() {
		defines[key] = value
	}

	assert.Equal("1024", defines["TEMP_SIZE"])
	assert.Equal("R7", defines["SP"])
	assert.Equal(4, len(defines))
}
