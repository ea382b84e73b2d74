package ucam

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ucam.go/pkg/ucam/protocol"
)

// fakeCamera implements transport.Port and answers commands the way the
// camera does, synchronously in Write.
type fakeCamera struct {
	t *testing.T

	image       []byte
	chunkSize   int
	ignoreSyncs int           // SYNCs left unanswered before answering
	noAck       map[byte]bool // opcodes never acknowledged
	noise       []byte        // prepended to every reply
	late        bool          // replies only become visible on a blocking read
	truncate    int           // drop data after this many package bytes, 0 disables
	noSize      bool          // ack GET PICTURE without the size record
	failEnd     error         // returned when writing CHUNK_TERMINATE

	rx        []byte
	pending   []byte
	written   []protocol.Frame
	syncs     int
	discards  int
	requests  []uint16
	terminals int
	ackCount  byte
	sent      int
}

func newFakeCamera(t *testing.T, image []byte) *fakeCamera {
	return &fakeCamera{t: t, image: image, chunkSize: DefaultChunkSize}
}

func (f *fakeCamera) Write(p []byte) (int, error) {
	require.Len(f.t, p, protocol.FrameSize)
	var frame protocol.Frame
	copy(frame[:], p)
	if frame.IsChunkTerminate() && f.failEnd != nil {
		return 0, f.failEnd
	}
	f.written = append(f.written, frame)
	switch op := frame.Opcode(); op {
	case protocol.OpSync:
		if f.syncs++; f.syncs > f.ignoreSyncs {
			f.reply(f.ack(protocol.OpSync))
			f.reply(protocol.Sync)
		}
	case protocol.OpInitial, protocol.OpSetPackageSize, protocol.OpSnapshot, protocol.OpSleep:
		if !f.noAck[op] {
			f.reply(f.ack(op))
		}
	case protocol.OpGetPicture:
		if !f.noAck[op] {
			size := len(f.image)
			f.reply(f.ack(op))
			if f.noSize {
				break
			}
			f.reply(protocol.Frame{protocol.Marker, protocol.OpData, protocol.PictureTypeJPEG,
				byte(size), byte(size >> 8), byte(size >> 16)})
		}
	case protocol.OpAck:
		switch {
		case frame == protocol.FinalSync:
		case frame.IsChunkTerminate():
			f.terminals++
		default:
			f.sendPackage(uint16(frame[4]) | uint16(frame[5])<<8)
		}
	}
	return len(p), nil
}

func (f *fakeCamera) ack(op byte) protocol.Frame {
	f.ackCount++
	return protocol.Frame{protocol.Marker, protocol.OpAck, op, f.ackCount, 0x00, 0x00}
}

func (f *fakeCamera) reply(frame protocol.Frame) {
	out := append(append([]byte{}, f.noise...), frame[:]...)
	if f.late {
		f.pending = append(f.pending, out...)
	} else {
		f.rx = append(f.rx, out...)
	}
}

func (f *fakeCamera) sendPackage(index uint16) {
	f.requests = append(f.requests, index)
	start := int(index) * f.chunkSize
	if start >= len(f.image) {
		return
	}
	end := start + f.chunkSize
	if end > len(f.image) {
		end = len(f.image)
	}
	payload := f.image[start:end]
	pkt := []byte{byte(index), byte(index >> 8), byte(len(payload)), byte(len(payload) >> 8)}
	pkt = append(pkt, payload...)
	pkt = append(pkt, 0x5A, 0x00)
	if f.truncate > 0 {
		if remains := f.truncate - f.sent; remains < len(pkt) {
			if remains < 0 {
				remains = 0
			}
			pkt = pkt[:remains]
		}
	}
	f.sent += len(pkt)
	f.rx = append(f.rx, pkt...)
}

func (f *fakeCamera) Buffered() int {
	return len(f.rx)
}

func (f *fakeCamera) ReadByte(ctx context.Context) (byte, error) {
	if len(f.rx) == 0 && len(f.pending) > 0 {
		f.rx, f.pending = f.pending, nil
	}
	if len(f.rx) == 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return 0, io.EOF
	}
	b := f.rx[0]
	f.rx = f.rx[1:]
	return b, nil
}

func (f *fakeCamera) Discard() error {
	f.discards++
	f.rx, f.pending = nil, nil
	return nil
}

func (f *fakeCamera) opcodesWritten() []byte {
	ops := make([]byte, len(f.written))
	for n, frame := range f.written {
		ops[n] = frame.Opcode()
	}
	return ops
}

func (f *fakeCamera) countWritten(frame protocol.Frame) int {
	var count int
	for _, w := range f.written {
		if w == frame {
			count++
		}
	}
	return count
}

func testConfig() *Config {
	return &Config{
		SyncAttempts: DefaultSyncAttempts,
		ChunkSize:    DefaultChunkSize,
	}
}

func newTestCamera(t *testing.T, f *fakeCamera) *Camera {
	cam, err := testConfig().NewCamera(f)
	require.NoError(t, err)
	return cam
}

func testImage(size int) []byte {
	img := make([]byte, size)
	for i := range img {
		img[i] = byte(i*7 + 3)
	}
	return img
}

// blockingPort blocks reads on an empty input until ctx is done, like a
// real port does.
type blockingPort struct {
	*fakeCamera
}

func (p blockingPort) ReadByte(ctx context.Context) (byte, error) {
	if len(p.rx) == 0 && len(p.pending) == 0 {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return p.fakeCamera.ReadByte(ctx)
}

// wrappingPort wraps read errors the way some transports do.
type wrappingPort struct {
	blockingPort
}

func (p wrappingPort) ReadByte(ctx context.Context) (byte, error) {
	b, err := p.blockingPort.ReadByte(ctx)
	if err != nil {
		return 0, fmt.Errorf("read port: %w", err)
	}
	return b, nil
}
