package ucam

import (
	"context"
	"fmt"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/ucam.go/pkg/ucam/protocol"
)

// FetchChunk requests the next data package and stores its payload,
// available from Chunk. It returns the payload size, 0 once the whole
// image has been received.
//
// There's no resume: when reading fails the transfer is abandoned and
// the image must be captured again.
func (c *Camera) FetchChunk(ctx context.Context) (int, error) {
	c.chunkN = 0
	if c.session.RemainingBytes == 0 {
		return 0, nil
	}
	index := c.session.PackageIndex
	if err := c.send(protocol.ChunkRequest(index)); err != nil {
		c.abortTransfer()
		return 0, err
	}

	payload := c.session.RemainingBytes
	if capacity := uint32(len(c.chunk)); payload > capacity {
		payload = capacity
	}
	length := int(payload) + protocol.PackageOverhead
	rctx, cancel := c.readContext(ctx)
	defer cancel()
	for i := 0; i < length; i++ {
		b, err := c.Port.ReadByte(rctx)
		if err != nil {
			c.abortTransfer()
			return 0, fmt.Errorf("read package %d: %w", index, err)
		}
		if i >= protocol.PackageHeaderSize && i < length-protocol.PackageTrailerSize {
			c.chunk[i-protocol.PackageHeaderSize] = b
			c.session.RemainingBytes--
		}
	}
	c.chunkN = length - protocol.PackageOverhead
	c.session.PackageIndex++
	c.tracef("PACKAGE %d: %d bytes, %d remaining", index, c.chunkN, c.session.RemainingBytes)

	if c.session.RemainingBytes == 0 {
		c.state = StateIdle
		if err := c.send(protocol.ChunkTerminate()); err != nil {
			return c.chunkN, err
		}
		glog.V(1).Infof("image received: %d bytes", c.session.ImageSize)
	} else {
		glog.V(2).Infof("package %d received, %d bytes remaining", index, c.session.RemainingBytes)
	}
	return c.chunkN, nil
}

// ReadImage fetches all remaining data packages into w.
func (c *Camera) ReadImage(ctx context.Context, w io.Writer) (int64, error) {
	var total int64
	for {
		n, err := c.FetchChunk(ctx)
		if n > 0 {
			// the last payload is complete even if terminating failed.
			written, werr := w.Write(c.Chunk())
			total += int64(written)
			if werr != nil {
				if c.session.RemainingBytes > 0 {
					c.abortTransfer()
				}
				return total, werr
			}
		}
		if err != nil || n == 0 {
			return total, err
		}
	}
}

func (c *Camera) abortTransfer() {
	glog.Warningf("transfer abandoned at package %d, %d bytes remaining",
		c.session.PackageIndex, c.session.RemainingBytes)
	c.session.RemainingBytes = 0
	c.chunkN = 0
	c.state = StateIdle
}
