// Package io provides the channels the LS-8 CPU talks to.
// A Channel accepts bytes from the CPU (PRN output), and a Source
// supplies the boot image that is copied into RAM on reset.
package io

import (
	"iter"
)

// Channel is a byte sink attached to the CPU.
type Channel interface {
	// Rewind resets the channel to its initial state.
	Rewind()
	// Send writes a single value to the channel.
	Send(value uint8) error
}

// Source is a byte stream read by the CPU.
type Source interface {
	// Receive returns an iterator that yields values from the source.
	Receive() iter.Seq[uint8]
}
