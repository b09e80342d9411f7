// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ezrec/ls8/cpu"
	"github.com/ezrec/ls8/emulator"
)

func main() {
	os.Exit(run(os.Args[0], os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line, and returns the process exit status.
// PRN output and saved binaries go to stdout; usage and diagnostics to stderr.
func run(name string, args []string, stdout io.Writer, stderr io.Writer) int {
	var assemble bool
	var save bool
	var output string
	var verbose bool

	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.BoolVar(&assemble, "a", false, "Assemble program from mnemonics (default for .asm files)")
	flags.BoolVar(&save, "s", false, "Save program as .ls8 binary, do not execute")
	flags.StringVar(&output, "o", "-", "Output for -s")
	flags.BoolVar(&verbose, "v", false, "Trace every cycle")
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: %v [options] program.ls8\n", name)
		flags.PrintDefaults()
	}

	err := flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	} else if err != nil {
		return 2
	}

	// A missing program is not an error; show how to run one.
	if flags.NArg() != 1 {
		flags.Usage()
		return 0
	}

	logger := log.New(stderr, "", log.LstdFlags)

	path := flags.Arg(0)
	if strings.EqualFold(filepath.Ext(path), ".asm") {
		assemble = true
	}

	inf, err := os.Open(path)
	if err != nil {
		logger.Printf("%v: %v", name, err)
		return 1
	}
	defer inf.Close()

	emu := emulator.NewEmulator()
	emu.Verbose = verbose

	var prog *cpu.Program
	if assemble {
		asm := &cpu.Assembler{Verbose: verbose}
		for equ, value := range emu.Defines() {
			asm.Predefine(equ, value)
		}
		prog, err = asm.Parse(inf)
	} else {
		prog, err = cpu.ParseBinary(inf)
	}
	if err != nil {
		logger.Printf("%v: %v", path, err)
		return 1
	}

	if save {
		ouf := stdout
		if output != "-" {
			var file *os.File
			file, err = os.Create(output)
			if err != nil {
				logger.Printf("%v: %v", output, err)
				return 1
			}
			defer file.Close()
			ouf = file
		}
		err = prog.Write(ouf)
		if err != nil {
			logger.Printf("%v: %v", output, err)
			return 1
		}
		return 0
	}

	emu.Program = prog
	emu.Tape.Output = stdout

	err = emu.Reset()
	if err != nil {
		logger.Printf("%v: %v", path, err)
		return 1
	}

	err = emu.Run()
	if err != nil {
		logger.Printf("%v: %v", path, err)
		return 1
	}

	return 0
}
