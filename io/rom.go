package io

import (
	"iter"
)

// Rom holds a read-only boot image.
type Rom struct {
	Data []uint8
}

var _ Channel = (*Rom)(nil)
var _ Source = (*Rom)(nil)

// Rewind does nothing; a ROM has no position.
func (rc *Rom) Rewind() {
}

// Receive yields the image from its first byte.
func (rc *Rom) Receive() iter.Seq[uint8] {
	return func(yield func(value uint8) bool) {
		for _, data := range rc.Data {
			if !yield(data) {
				return
			}
		}
	}
}

func (rc *Rom) Send(value uint8) error {
	return ErrChannelFull
}
