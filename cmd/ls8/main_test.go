package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeProgram(t *testing.T, name string, lines ...string) (path string) {
	path = filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644)
	assert.NoError(t, err)
	return
}

func TestRunUsage(t *testing.T) {
	assert := assert.New(t)

	var stdout, stderr bytes.Buffer
	rc := run("ls8", nil, &stdout, &stderr)

	assert.Equal(0, rc)
	assert.Empty(stdout.String())
	assert.Contains(stderr.String(), "usage: ls8")
}

func TestRunMissingFile(t *testing.T) {
	assert := assert.New(t)

	var stdout, stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "missing.ls8")
	rc := run("ls8", []string{missing}, &stdout, &stderr)

	assert.Equal(1, rc)
	assert.Empty(stdout.String())
	assert.Contains(stderr.String(), "missing.ls8")
}

func TestRunBinary(t *testing.T) {
	assert := assert.New(t)

	path := writeProgram(t, "print8.ls8",
		"# print the number 8",
		"10000010 # LDI R0,8",
		"00000000",
		"00001000",
		"01000111 # PRN R0",
		"00000000",
		"00000001 # HLT",
	)

	var stdout, stderr bytes.Buffer
	rc := run("ls8", []string{path}, &stdout, &stderr)

	assert.Equal(0, rc)
	assert.Equal("8\n", stdout.String())
}

func TestRunAssemble(t *testing.T) {
	assert := assert.New(t)

	path := writeProgram(t, "mult.asm",
		"LDI R0,8",
		"LDI R1,9",
		"MUL R0,R1",
		"PRN R0",
		"HLT",
	)

	var stdout, stderr bytes.Buffer
	rc := run("ls8", []string{path}, &stdout, &stderr)
	assert.Equal(0, rc)
	assert.Equal("72\n", stdout.String())

	stdout.Reset()
	rc = run("ls8", []string{"-s", path}, &stdout, &stderr)
	assert.Equal(0, rc)
	assert.True(strings.HasPrefix(stdout.String(), "10000010 # LDI R0 8\n"), stdout.String())
}

func TestRunRuntimeError(t *testing.T) {
	assert := assert.New(t)

	path := writeProgram(t, "pop.asm",
		"POP R0",
		"HLT",
	)

	var stdout, stderr bytes.Buffer
	rc := run("ls8", []string{path}, &stdout, &stderr)

	assert.Equal(1, rc)
	assert.Contains(stderr.String(), "stack empty")
}

func TestRunBadFlag(t *testing.T) {
	assert := assert.New(t)

	var stdout, stderr bytes.Buffer
	rc := run("ls8", []string{"-x"}, &stdout, &stderr)

	assert.Equal(2, rc)
}
