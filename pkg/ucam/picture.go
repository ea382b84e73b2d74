package ucam

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/ucam.go/pkg/ucam/protocol"
)

type captureStep struct {
	name    string
	command protocol.Frame
	ack     protocol.Frame
	discard bool
}

func (c *Camera) captureSteps() []captureStep {
	return []captureStep{
		{name: "initial", command: protocol.Initial, ack: protocol.GenericAck, discard: true},
		{name: "package size", command: protocol.SetPackageSize(len(c.chunk)), ack: protocol.Ack(protocol.OpSetPackageSize)},
		{name: "snapshot", command: protocol.Snapshot, ack: protocol.Ack(protocol.OpSnapshot)},
		{name: "get picture", command: protocol.GetPicture, ack: protocol.Ack(protocol.OpGetPicture)},
	}
}

// TakePicture configures the camera, takes a snapshot and retrieves the
// image size. The camera must be synchronized, and the synchronization is
// consumed whether the capture succeeds or not.
func (c *Camera) TakePicture(ctx context.Context) error {
	if c.state != StateSynchronized {
		return ErrNotSynced
	}
	if err := c.prepare(); err != nil {
		return err
	}
	c.state = StateCapturing
	c.session, c.chunkN = Session{}, 0
	size, err := c.takePicture(ctx)
	if err != nil {
		c.state = StateIdle
		glog.Warningf("capture failed: %v", err)
		return err
	}
	c.session = Session{ImageSize: size, RemainingBytes: size}
	c.state = StateTransferring
	glog.V(1).Infof("image captured: %d bytes in %d packages", size, c.NumberOfPackages())
	return nil
}

func (c *Camera) takePicture(ctx context.Context) (uint32, error) {
	for _, step := range c.captureSteps() {
		if err := c.runStep(ctx, step); err != nil {
			return 0, err
		}
	}
	reply, err := c.readFrame(ctx)
	if err != nil {
		return 0, fmt.Errorf("read image size: %w", err)
	}
	c.tracef("SIZE %s", reply)
	size := reply.ImageSize()
	if size == 0 {
		return 0, ErrZeroImage
	}
	if packages := (int(size) + len(c.chunk) - 1) / len(c.chunk); packages > MaxPackages {
		return 0, &ImageTooLargeError{Size: size, Packages: packages}
	}
	return size, nil
}

func (c *Camera) runStep(ctx context.Context, step captureStep) error {
	if step.discard {
		if err := c.Port.Discard(); err != nil {
			return fmt.Errorf("discard input: %w", err)
		}
	}
	if err := pause(ctx, c.Config.StepSettle); err != nil {
		return err
	}
	if err := c.send(step.command); err != nil {
		return err
	}
	if err := pause(ctx, c.Config.StepResponseDelay); err != nil {
		return err
	}
	ok, err := c.waitFor(ctx, step.ack)
	if err != nil {
		return fmt.Errorf("%s: %w", step.name, err)
	}
	if !ok {
		return &StepAckError{Step: step.name, Ack: step.ack}
	}
	glog.V(1).Infof("%s acknowledged", step.name)
	return nil
}

// Sleep puts the camera to sleep. It must be synchronized again afterwards.
func (c *Camera) Sleep(ctx context.Context) error {
	c.state = StateIdle
	c.session, c.chunkN = Session{}, 0
	return c.runStep(ctx, captureStep{name: "sleep", command: protocol.Sleep, ack: protocol.Ack(protocol.OpSleep)})
}
