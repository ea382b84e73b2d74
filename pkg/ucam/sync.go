package ucam

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/ucam.go/pkg/ucam/protocol"
)

// Sync synchronizes with the camera.
//
// The camera only answers once it's out of power-on, so SYNC is sent
// repeatedly, up to Config.SyncAttempts times, until both acks come back.
func (c *Camera) Sync(ctx context.Context) error {
	for attempt := 1; attempt <= c.Config.SyncAttempts; attempt++ {
		ok, err := c.attemptSync(ctx, attempt)
		if err != nil {
			c.state = StateIdle
			return err
		}
		if ok {
			glog.V(1).Infof("synchronized after %d attempts", attempt)
			return nil
		}
	}
	c.state = StateIdle
	glog.Warningf("no reply to SYNC after %d attempts", c.Config.SyncAttempts)
	return ErrSyncFailed
}

func (c *Camera) attemptSync(ctx context.Context, attempt int) (bool, error) {
	c.state = StateIdle
	if err := c.Port.Discard(); err != nil {
		return false, fmt.Errorf("discard input: %w", err)
	}
	if err := pause(ctx, c.Config.SyncSettle); err != nil {
		return false, err
	}
	c.tracef("SYNC attempt %d", attempt)
	if err := c.send(protocol.Sync); err != nil {
		return false, err
	}
	c.state = StateSyncSent
	if ok, err := c.waitFor(ctx, protocol.SyncAck); !ok || err != nil {
		return false, err
	}
	c.state = StateAck1Received
	if ok, err := c.waitFor(ctx, protocol.SyncAckExt); !ok || err != nil {
		return false, err
	}
	c.state = StateAck2Received
	if err := pause(ctx, c.Config.FinalSyncSettle); err != nil {
		return false, err
	}
	if err := c.send(protocol.FinalSync); err != nil {
		return false, err
	}
	c.state = StateSynchronized
	return true, nil
}
