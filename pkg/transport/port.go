// Package transport provides byte streams to the camera.
package transport

import (
	"context"
	"io"
)

// Port is a byte-oriented, full-duplex link to the camera.
type Port interface {
	io.Writer
	// Buffered returns the number of bytes readable without blocking.
	Buffered() int
	// ReadByte blocks until a byte is available or ctx is done.
	ReadByte(ctx context.Context) (byte, error)
	// Discard drops all pending input.
	Discard() error
}

// inputResetter is implemented by serial ports which can drop the
// driver-level receive buffer.
type inputResetter interface {
	ResetInputBuffer() error
}
