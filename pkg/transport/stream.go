package transport

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"
)

// Stream implements Port over an io.ReadWriter.
// Bytes are pulled in the background so Buffered reports what
// has arrived without blocking.
type Stream struct {
	ReadWriter io.ReadWriter

	buf       []byte
	err       error
	lock      sync.Mutex
	writeLock sync.Mutex
	notifyCh  chan struct{}
	doneCh    chan struct{}
}

const readBufferSize = 256

// NewStream creates a Stream and starts receiving.
func NewStream(rw io.ReadWriter) *Stream {
	s := &Stream{
		ReadWriter: rw,
		notifyCh:   make(chan struct{}, 1),
		doneCh:     make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	s.writeLock.Lock()
	defer s.writeLock.Unlock()
	return s.ReadWriter.Write(p)
}

// Buffered implements Port.
func (s *Stream) Buffered() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.buf)
}

// ReadByte implements Port.
func (s *Stream) ReadByte(ctx context.Context) (byte, error) {
	for {
		s.lock.Lock()
		if len(s.buf) > 0 {
			b := s.buf[0]
			s.buf = s.buf[1:]
			s.lock.Unlock()
			return b, nil
		}
		err := s.err
		s.lock.Unlock()
		if err != nil {
			return 0, err
		}
		select {
		case <-s.notifyCh:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

// Discard implements Port.
func (s *Stream) Discard() error {
	var err error
	if r, ok := s.ReadWriter.(inputResetter); ok {
		err = r.ResetInputBuffer()
	}
	s.lock.Lock()
	if n := len(s.buf); n > 0 {
		glog.V(3).Infof("discard %d bytes", n)
	}
	s.buf = s.buf[:0]
	s.lock.Unlock()
	return err
}

// Done is closed when the underlying reader fails, e.g. it's closed.
func (s *Stream) Done() <-chan struct{} {
	return s.doneCh
}

// Close implements io.Closer.
func (s *Stream) Close() error {
	if closer, ok := s.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *Stream) readLoop() {
	defer close(s.doneCh)
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.ReadWriter.Read(buf)
		if err != nil && os.IsTimeout(err) {
			err = nil
		}
		if n == 0 && err == nil {
			continue
		}
		s.lock.Lock()
		s.buf = append(s.buf, buf[:n]...)
		s.err = err
		s.lock.Unlock()
		select {
		case s.notifyCh <- struct{}{}:
		default:
		}
		if err != nil {
			glog.V(2).Infof("stream stopped: %v", err)
			return
		}
	}
}
