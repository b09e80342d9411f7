package cpu

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Line is one source line of a program, and the bytes it produced.
type Line struct {
	LineNo    int      // Source line number, 1-based.
	Addr      int      // Address of the first code byte.
	Words     []string // Source words, for listings.
	Codes     []uint8  // Generated bytes.
	LinkLabel string   // Label whose address patches the last byte.
}

// Program is a loaded or assembled LS-8 program.
type Program struct {
	Lines []Line
}

type Debug struct {
	*Line
	Index int
}

// Debug returns the source line that generated the byte at addr.
func (prog *Program) Debug(addr int) (dbg Debug) {
	for n, line := range prog.Lines {
		if addr >= line.Addr && addr < line.Addr+len(line.Codes) {
			dbg = Debug{
				Line:  &prog.Lines[n],
				Index: addr - line.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the RAM image of the program, starting at address 0.
func (prog *Program) Binary() (bins []uint8) {
	for _, code := range prog.Codes() {
		bins = append(bins, code)
	}

	return
}

// Codes iterates over every generated byte and its address.
func (prog *Program) Codes() iter.Seq2[int, uint8] {
	return func(yield func(addr int, code uint8) bool) {
		for _, line := range prog.Lines {
			for n, code := range line.Codes {
				if !yield(line.Addr+n, code) {
					return
				}
			}
		}
	}
}

// Write emits the program in the .ls8 text format: one binary byte per
// line, with the source words as a comment on each line's first byte.
func (prog *Program) Write(w io.Writer) (err error) {
	out := bufio.NewWriter(w)

	for _, line := range prog.Lines {
		for n, code := range line.Codes {
			if n == 0 && len(line.Words) > 0 {
				_, err = fmt.Fprintf(out, "%08b # %v\n", code, strings.Join(line.Words, " "))
			} else {
				_, err = fmt.Fprintf(out, "%08b\n", code)
			}
			if err != nil {
				return
			}
		}
	}

	return out.Flush()
}

// ParseBinary reads the .ls8 text format.
//
// Each line is cut at its first '#'. If what remains starts with '0' or
// '1', its first 8 characters are a binary byte; any other line is
// ignored.
func ParseBinary(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var text string
	var lineno int

	defer func() {
		if err != nil {
			prog = nil
			err = ErrSyntax{LineNo: lineno, Line: text, Err: err}
		}
	}()

	prog = &Program{}
	addr := 0

	for scanner.Scan() {
		text = scanner.Text()
		lineno++

		line, _, _ := strings.Cut(text, "#")
		if len(line) == 0 || (line[0] != '0' && line[0] != '1') {
			continue
		}

		word := strings.TrimSpace(line[:min(len(line), 8)])

		var value uint64
		value, err = strconv.ParseUint(word, 2, 8)
		if err != nil {
			err = ErrParseBinary
			return
		}

		prog.Lines = append(prog.Lines, Line{
			LineNo: lineno,
			Addr:   addr,
			Words:  []string{word},
			Codes:  []uint8{uint8(value)},
		})
		addr++
	}

	err = scanner.Err()
	return
}
