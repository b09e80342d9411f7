// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass assembler for LS-8 mnemonics.
//
//	; comment
//	.equ NAME VALUE
//	LABEL: MNEMONIC R0, R1
//	LDI R2, LABEL
//	LDI R3, $(NAME * 2)
//	DB 1, 2, 0x10
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Line    []Line // List of generated lines.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of labels to addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var reParen = regexp.MustCompile(`\$\([^\$]*\)`)

// valueOf returns the value of a simple numeric word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	return
}

// immediateOf converts a word to an 8-bit immediate.
// Negative values down to -128 are stored as two's complement.
func (asm *Assembler) immediateOf(word string) (imm uint8, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if value < -128 || value > 0xff {
		err = ErrImmediateRange
		return
	}

	imm = uint8(value)
	return
}

// registerOf converts a word of the form R0..R7 to a register index.
func (asm *Assembler) registerOf(word string) (reg uint8, err error) {
	if len(word) != 2 || (word[0] != 'R' && word[0] != 'r') {
		err = ErrParseRegister(word)
		return
	}

	n := word[1] - '0'
	if n >= REGISTER_COUNT {
		err = ErrParseRegister(word)
		return
	}

	reg = n
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var equ int64
		equ, err = asm.valueOf(str)
		if err != nil {
			// Only integer equates are visible to expressions.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(equ)
	}
	for key, addr := range asm.Label {
		pred[key] = starlark.MakeInt(addr)
	}

	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}

	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}

	return
}

// splitWords breaks a line into words at spaces, tabs, and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// parseLine expands expressions, equates, and labels in a single line.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	line = reParen.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil && err == nil {
			err = _err
		}
		return fmt.Sprintf("%d", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)
	if len(words) == 0 {
		return
	}

	// .equ NAME VALUE
	if strings.EqualFold(words[0], ".equ") {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = nil
		return
	}

	for len(words) > 0 && strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}
		asm.Label[label] = asm.currentAddr()
		words = words[1:]
	}

	for n, word := range words {
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	return
}

// currentAddr gets the address of the next generated byte.
func (asm *Assembler) currentAddr() int {
	if len(asm.Line) == 0 {
		return 0
	}

	last := asm.Line[len(asm.Line)-1]

	return last.Addr + len(last.Codes)
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Line = asm.Line[:0]
	asm.Label = make(map[string]int)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text, _, _ = strings.Cut(text, ";")
		line = strings.TrimSpace(text)

		var words []string
		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	// Final linking of labels.
	for n := range asm.Line {
		op := &asm.Line[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		addr, ok := asm.Label[op.LinkLabel]
		if !ok {
			err = ErrLabelMissing(op.LinkLabel)
			return
		}
		if addr > 0xff {
			err = ErrImmediateRange
			return
		}
		op.Codes[len(op.Codes)-1] = uint8(addr)
	}

	if asm.currentAddr() > RAM_SIZE {
		err = ErrProgramTooLarge
		return
	}

	prog = &Program{
		Lines: slices.Clone(asm.Line),
	}

	return
}

// parseWords generates code for the words of a single line.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []uint8
	var label string

	if len(words) == 0 {
		return
	}

	initial_words := slices.Clone(words)

	defer func() {
		if err != nil || len(codes) == 0 {
			return
		}
		asm.Line = append(asm.Line, Line{
			LineNo:    lineno,
			Addr:      asm.currentAddr(),
			Words:     initial_words,
			Codes:     codes,
			LinkLabel: label,
		})
	}()

	mnemonic := strings.ToUpper(words[0])
	args := words[1:]

	if mnemonic == "DB" {
		if len(args) == 0 {
			err = ErrOperandCount
			return
		}
		for _, arg := range args {
			var imm uint8
			imm, err = asm.immediateOf(arg)
			if err != nil {
				return
			}
			codes = append(codes, imm)
		}
		return
	}

	op, ok := LookupOpcode(mnemonic)
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	if len(args) != op.Operands() {
		err = ErrOperandCount
		return
	}

	codes = append(codes, uint8(op))
	for n, arg := range args {
		var value uint8
		if op == OP_LDI && n == 1 {
			// Immediate, or a label to link later.
			_, is_label := asm.Label[arg]
			value, err = asm.immediateOf(arg)
			if err != nil && (is_label || isIdentifier(arg)) {
				err = nil
				label = arg
				value = 0
			}
		} else {
			value, err = asm.registerOf(arg)
		}
		if err != nil {
			return
		}
		codes = append(codes, value)
	}

	return
}

// isIdentifier returns true for words that could name a label.
func isIdentifier(word string) bool {
	if len(word) == 0 {
		return false
	}

	for n, r := range word {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case n > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return true
}
