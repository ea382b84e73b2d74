package ucam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/robotalks/ucam.go/pkg/transport"
	"github.com/robotalks/ucam.go/pkg/ucam/protocol"
)

// State is the protocol state of a Camera.
type State int

// States
const (
	StateIdle State = iota
	StateSyncSent
	StateAck1Received
	StateAck2Received
	StateSynchronized
	StateCapturing
	StateTransferring
)

var stateNames = [...]string{
	"idle",
	"sync-sent",
	"ack1-received",
	"ack2-received",
	"synchronized",
	"capturing",
	"transferring",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session is the progress of the current capture.
type Session struct {
	// ImageSize is the number of image bytes reported by the camera.
	ImageSize uint32
	// RemainingBytes counts down to 0 as image bytes are received.
	RemainingBytes uint32
	// PackageIndex is the index of the next data package to request.
	PackageIndex uint16
}

// Camera drives one camera over a Port.
type Camera struct {
	Port   transport.Port
	Tracer Tracer
	Config Config

	state   State
	session Session
	chunk   []byte
	chunkN  int
}

// NewCamera creates a Camera using default config.
func NewCamera(port transport.Port) *Camera {
	cam, err := NewConfig().NewCamera(port)
	if err != nil {
		panic(err)
	}
	return cam
}

// State gets the protocol state.
func (c *Camera) State() State {
	return c.state
}

// Session gets the capture progress.
func (c *Camera) Session() Session {
	return c.session
}

// NumberOfPackages returns the number of data packages of the captured image.
func (c *Camera) NumberOfPackages() int {
	size, chunk := int(c.session.ImageSize), len(c.chunk)
	if chunk == 0 {
		return 0
	}
	return (size + chunk - 1) / chunk
}

// Chunk returns the payload of the last fetched data package.
// It's overwritten by the next FetchChunk.
func (c *Camera) Chunk() []byte {
	return c.chunk[:c.chunkN]
}

// Snap runs a complete capture and writes the image to w.
func (c *Camera) Snap(ctx context.Context, w io.Writer) (int64, error) {
	if err := c.Sync(ctx); err != nil {
		return 0, err
	}
	if err := c.TakePicture(ctx); err != nil {
		return 0, err
	}
	return c.ReadImage(ctx, w)
}

// prepare validates the config and sizes the package buffer, so a
// Camera built as a literal works like one from NewCamera.
func (c *Camera) prepare() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if len(c.chunk) != c.Config.ChunkSize {
		c.chunk = make([]byte, c.Config.ChunkSize)
	}
	return nil
}

func (c *Camera) send(frame protocol.Frame) error {
	c.tracef("SEND %s", frame)
	if _, err := c.Port.Write(frame.Bytes()); err != nil {
		return fmt.Errorf("send %s: %w", frame, err)
	}
	return nil
}

// waitFor consumes input until the reply template matches. It returns
// false once the input runs dry, after waiting up to ReplyWait for
// more bytes. Everything read is dropped.
func (c *Camera) waitFor(ctx context.Context, pattern protocol.Frame) (bool, error) {
	m := protocol.NewMatcher(pattern)
	var got []byte
	defer func() {
		c.tracef("WAIT %s GOT %s", pattern, hexBytes(got))
	}()
	for {
		if c.Port.Buffered() == 0 && c.Config.ReplyWait <= 0 {
			return false, nil
		}
		b, err := c.readByteWithin(ctx, c.Config.ReplyWait)
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		got = append(got, b)
		if m.Feed(b) {
			return true, nil
		}
	}
}

func (c *Camera) readByteWithin(ctx context.Context, timeout time.Duration) (byte, error) {
	if timeout <= 0 || c.Port.Buffered() > 0 {
		return c.Port.ReadByte(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.Port.ReadByte(ctx)
}

// readContext applies ReadTimeout to blocking data reads.
func (c *Camera) readContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Config.ReadTimeout > 0 {
		return context.WithTimeout(ctx, c.Config.ReadTimeout)
	}
	return context.WithCancel(ctx)
}

func (c *Camera) readFrame(ctx context.Context) (frame protocol.Frame, err error) {
	ctx, cancel := c.readContext(ctx)
	defer cancel()
	for i := range frame {
		if frame[i], err = c.Port.ReadByte(ctx); err != nil {
			return
		}
	}
	return
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
