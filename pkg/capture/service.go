// Package capture runs a camera as a service: images are captured
// periodically or on request, saved to a directory and published to MQTT.
package capture

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"

	"github.com/robotalks/ucam.go/pkg/msgs"
	"github.com/robotalks/ucam.go/pkg/mqtt"
	"github.com/robotalks/ucam.go/pkg/ucam"
)

// Topics under <prefix><id>/.
const (
	// TopicImage receives a msgs.Snapshot after each capture.
	TopicImage = "image"
	// TopicSnap triggers a capture on any message.
	TopicSnap = "snap"
	// TopicMeta holds the retained msgs.Meta while the service runs.
	TopicMeta = "meta"
)

// FileExt is the extension of saved images.
const FileExt = ".jpg"

// ErrLinkLost indicates the camera port stopped receiving.
var ErrLinkLost = errors.New("camera link lost")

// linkWatcher is implemented by ports which report a dropped link, like
// transport.Stream.
type linkWatcher interface {
	Done() <-chan struct{}
}

// Service captures images from a Camera.
type Service struct {
	Config Config
	Camera *ucam.Camera
	// Queue is set when MQTT is configured.
	Queue *mqtt.Queue
	// OnShot is called after every capture attempt.
	OnShot func(*msgs.Snapshot, error)

	lock      sync.Mutex
	closer    io.Closer
	triggerCh chan struct{}
	now       func() time.Time
}

func (s *Service) topic(name string) string {
	return s.Config.ID + "/" + name
}

func (s *Service) meta() *msgs.Meta {
	m := &msgs.Meta{
		ID:        s.Config.ID,
		Port:      s.Config.PortURL,
		ChunkSize: s.Camera.Config.ChunkSize,
	}
	if s.Config.Interval > 0 {
		m.Interval = s.Config.Interval.String()
	}
	return m
}

// Shoot captures one image, then saves and publishes it as configured.
// Captures are serialized.
func (s *Service) Shoot(ctx context.Context) (*msgs.Snapshot, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	takenAt := s.now()
	id, err := ulid.New(ulid.Timestamp(takenAt), rand.Reader)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := s.Camera.Snap(ctx, &buf); err != nil {
		return nil, err
	}
	snapshot := &msgs.Snapshot{
		Id:       id.String(),
		CameraId: s.Config.ID,
		TakenAt:  takenAt.UnixNano(),
		Size:     uint32(buf.Len()),
		Packages: uint32(s.Camera.NumberOfPackages()),
		Data:     buf.Bytes(),
	}
	glog.V(1).Infof("snapshot %s: %d bytes", snapshot.Id, snapshot.Size)
	if s.Config.OutDir != "" {
		if err := s.save(snapshot); err != nil {
			return snapshot, err
		}
	}
	if s.Queue != nil {
		payload, err := msgs.EncodeSnapshot(snapshot)
		if err != nil {
			return snapshot, err
		}
		if err := mqtt.Wait(ctx, s.Queue.Pub(s.topic(TopicImage), payload)); err != nil {
			return snapshot, fmt.Errorf("publish %s: %w", snapshot.Id, err)
		}
	}
	return snapshot, nil
}

// save writes to a temporary file first so readers never see a partial
// image.
func (s *Service) save(snapshot *msgs.Snapshot) error {
	f, err := os.CreateTemp(s.Config.OutDir, "."+snapshot.Id+"-*")
	if err != nil {
		return err
	}
	_, err = f.Write(snapshot.Data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(f.Name(), filepath.Join(s.Config.OutDir, snapshot.Id+FileExt))
	}
	if err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("save %s: %w", snapshot.Id, err)
	}
	return nil
}

// Trigger requests a capture from Run. Requests arriving during a
// capture are merged into one.
func (s *Service) Trigger() {
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

// Run implements framework.Runnable.
func (s *Service) Run(ctx context.Context) error {
	if s.Queue != nil {
		meta := s.meta().Encode()
		s.Queue.OnConnect = func(q *mqtt.Queue) {
			q.PubWith(s.topic(TopicMeta), meta, 1, true)
		}
		if err := s.Queue.Connect(ctx); err != nil {
			return fmt.Errorf("connect MQTT: %w", err)
		}
		sub := s.Queue.Sub(s.topic(TopicSnap), func(string, []byte) { s.Trigger() })
		defer func() {
			sub.Close()
			s.Queue.PubWith(s.topic(TopicMeta), nil, 1, true).WaitTimeout(time.Second)
			s.Queue.Close()
		}()
	}

	var tick <-chan time.Time
	if s.Config.Interval > 0 {
		ticker := time.NewTicker(s.Config.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	var linkDone <-chan struct{}
	if w, ok := s.closer.(linkWatcher); ok {
		linkDone = w.Done()
	}
	glog.Infof("camera %s ready on %s", s.Config.ID, s.Config.PortURL)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-linkDone:
			return ErrLinkLost
		case <-tick:
		case <-s.triggerCh:
		}
		snapshot, err := s.Shoot(ctx)
		if err != nil && ctx.Err() == nil {
			glog.Errorf("capture failed: %v", err)
		}
		if s.OnShot != nil {
			s.OnShot(snapshot, err)
		}
	}
}

// dropTriggers forgets a pending trigger. Requests made before the
// broker connection dropped are stale once it's back.
func (s *Service) dropTriggers(*mqtt.Queue) {
	select {
	case <-s.triggerCh:
		glog.Warningf("camera %s: MQTT disconnected, pending capture request dropped", s.Config.ID)
	default:
	}
}

// Close closes the camera port.
func (s *Service) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
