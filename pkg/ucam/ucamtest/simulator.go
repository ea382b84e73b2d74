// Package ucamtest provides a simulated camera for testing code built on
// the ucam package.
package ucamtest

import (
	"context"
	"io"
	"sync"

	"github.com/robotalks/ucam.go/pkg/ucam/protocol"
)

// DefaultChunkSize is the package payload size assumed until the camera
// is told otherwise.
const DefaultChunkSize = 64

// Simulator implements transport.Port and answers commands the way the
// camera does. Replies are queued synchronously in Write, so reads never
// block: an empty input reads as io.EOF.
type Simulator struct {
	lock    sync.Mutex
	image   []byte
	chunk   int
	asleep  bool
	rx      []byte
	frames  []protocol.Frame
	acks    byte
	packets int
}

// NewSimulator creates a Simulator returning image for every snapshot.
func NewSimulator(image []byte) *Simulator {
	return &Simulator{image: image, chunk: DefaultChunkSize}
}

// SetImage replaces the image returned by following snapshots.
func (s *Simulator) SetImage(image []byte) {
	s.lock.Lock()
	s.image = image
	s.lock.Unlock()
}

// Frames returns the command frames received.
func (s *Simulator) Frames() []protocol.Frame {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]protocol.Frame(nil), s.frames...)
}

// Packets returns the number of data packages sent.
func (s *Simulator) Packets() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.packets
}

// Asleep tells whether the camera was put to sleep and not synchronized since.
func (s *Simulator) Asleep() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.asleep
}

// Write implements io.Writer.
func (s *Simulator) Write(p []byte) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for in := p; len(in) >= protocol.FrameSize; in = in[protocol.FrameSize:] {
		var frame protocol.Frame
		copy(frame[:], in)
		s.handle(frame)
	}
	return len(p), nil
}

func (s *Simulator) handle(frame protocol.Frame) {
	s.frames = append(s.frames, frame)
	switch op := frame.Opcode(); op {
	case protocol.OpSync:
		s.asleep = false
		s.reply(s.ack(op), protocol.Sync)
	case protocol.OpInitial, protocol.OpSnapshot:
		s.reply(s.ack(op))
	case protocol.OpSleep:
		s.asleep = true
		s.reply(s.ack(op))
	case protocol.OpSetPackageSize:
		if size := int(frame[3]) | int(frame[4])<<8; size > protocol.PackageOverhead {
			s.chunk = size - protocol.PackageOverhead
		}
		s.reply(s.ack(op))
	case protocol.OpGetPicture:
		size := len(s.image)
		s.reply(s.ack(op), protocol.Frame{protocol.Marker, protocol.OpData, protocol.PictureTypeJPEG,
			byte(size), byte(size >> 8), byte(size >> 16)})
	case protocol.OpAck:
		if frame != protocol.FinalSync && !frame.IsChunkTerminate() {
			s.sendPackage(int(frame[4]) | int(frame[5])<<8)
		}
	}
}

func (s *Simulator) ack(op byte) protocol.Frame {
	s.acks++
	return protocol.Frame{protocol.Marker, protocol.OpAck, op, s.acks, 0x00, 0x00}
}

func (s *Simulator) reply(frames ...protocol.Frame) {
	for _, frame := range frames {
		s.rx = append(s.rx, frame[:]...)
	}
}

func (s *Simulator) sendPackage(index int) {
	start := index * s.chunk
	if start >= len(s.image) {
		return
	}
	end := start + s.chunk
	if end > len(s.image) {
		end = len(s.image)
	}
	payload := s.image[start:end]
	s.rx = append(s.rx, byte(index), byte(index>>8), byte(len(payload)), byte(len(payload)>>8))
	s.rx = append(s.rx, payload...)
	// verification bytes, not checked by the driver.
	s.rx = append(s.rx, 0x00, 0x00)
	s.packets++
}

// Buffered implements transport.Port.
func (s *Simulator) Buffered() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.rx)
}

// ReadByte implements transport.Port.
func (s *Simulator) ReadByte(ctx context.Context) (byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.rx) == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	b := s.rx[0]
	s.rx = s.rx[1:]
	return b, nil
}

// Discard implements transport.Port.
func (s *Simulator) Discard() error {
	s.lock.Lock()
	s.rx = nil
	s.lock.Unlock()
	return nil
}

// Close implements io.Closer.
func (s *Simulator) Close() error {
	return nil
}

// Image returns a deterministic image of size bytes starting with the
// JPEG SOI marker.
func Image(size int) []byte {
	img := make([]byte, size)
	for i := range img {
		img[i] = byte(i*13 + 1)
	}
	if size >= 2 {
		img[0], img[1] = 0xFF, 0xD8
	}
	return img
}
