package cpu

import (
	"errors"

	"github.com/ezrec/ls8/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrHalt            = errors.New(f("halted"))
	ErrMemoryBounds    = errors.New(f("memory out of bounds"))
	ErrStackFull       = errors.New(f("stack full"))
	ErrStackEmpty      = errors.New(f("stack empty"))
	ErrRegisterInvalid = errors.New(f("register invalid"))
	ErrChannelInvalid  = errors.New(f("channel invalid"))
	ErrProgramTooLarge = errors.New(f("program too large"))

	// Instruction decode errors
	ErrOpcodeUnknown  = errors.New(f("unknown opcode"))
	ErrAluUnsupported = errors.New(f("unsupported alu operation"))

	// Loader errors
	ErrParseBinary = errors.New(f("not a binary byte"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrInstructionInvalid = errors.New(f("instruction invalid"))
	ErrOperandCount       = errors.New(f("wrong number of operands"))
	ErrImmediateRange     = errors.New(f("immediate out of range"))
)

// ErrOpcode tags an execution failure with the offending opcode.
type ErrOpcode Opcode

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%02x %v", uint8(eo), Opcode(eo).String())
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrAddress is an access outside of RAM.
type ErrAddress int

func (ea ErrAddress) Error() string {
	return f("address 0x%x out of bounds", int(ea))
}

func (ea ErrAddress) Is(err error) bool {
	return err == ErrMemoryBounds
}

type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseRegister string

func (err ErrParseRegister) Error() string {
	return f("'%v' is not a register", string(err))
}

func (err ErrParseRegister) Is(target error) bool {
	return target == ErrRegisterInvalid
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
