package transport

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newPipeStream(t *testing.T) (*Stream, net.Conn) {
	local, peer := net.Pipe()
	s := NewStream(local)
	t.Cleanup(func() {
		peer.Close()
		s.Close()
	})
	return s, peer
}

func readByte(t *testing.T, s *Stream) byte {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	b, err := s.ReadByte(ctx)
	require.NoError(t, err)
	return b
}

func TestStreamRead(t *testing.T) {
	s, peer := newPipeStream(t)
	go peer.Write([]byte{0xAA, 0x0E, 0x0D})
	require.Equal(t, byte(0xAA), readByte(t, s))
	require.Equal(t, byte(0x0E), readByte(t, s))
	require.Equal(t, byte(0x0D), readByte(t, s))
	require.Equal(t, 0, s.Buffered())
}

func TestStreamBuffered(t *testing.T) {
	s, peer := newPipeStream(t)
	go peer.Write([]byte{1, 2, 3, 4})
	require.Equal(t, byte(1), readByte(t, s))
	require.Equal(t, 3, s.Buffered())
}

func TestStreamDiscard(t *testing.T) {
	s, peer := newPipeStream(t)
	go peer.Write([]byte{1, 2, 3, 4})
	require.Equal(t, byte(1), readByte(t, s))
	require.NoError(t, s.Discard())
	require.Equal(t, 0, s.Buffered())

	go peer.Write([]byte{5})
	require.Equal(t, byte(5), readByte(t, s))
}

func TestStreamWrite(t *testing.T) {
	s, peer := newPipeStream(t)
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Write([]byte{0xAA, 0x0D, 0, 0, 0, 0})
		errCh <- err
	}()
	buf := make([]byte, 6)
	_, err := io.ReadFull(peer, buf)
	require.NoError(t, err)
	require.Equal(t, []byte{0xAA, 0x0D, 0, 0, 0, 0}, buf)
	require.NoError(t, <-errCh)
}

func TestStreamReadCanceled(t *testing.T) {
	s, _ := newPipeStream(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.ReadByte(ctx)
	require.Equal(t, context.Canceled, err)
}

func TestStreamReadAfterClose(t *testing.T) {
	s, peer := newPipeStream(t)
	go func() {
		peer.Write([]byte{7})
		peer.Close()
	}()
	require.Equal(t, byte(7), readByte(t, s))
	select {
	case <-s.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("stream not stopped")
	}
	_, err := s.ReadByte(context.Background())
	require.Equal(t, io.EOF, err)
}

func TestParseTarget(t *testing.T) {
	testCases := []struct {
		url    string
		expect Target
	}{
		{"/dev/ttyUSB0", Target{Scheme: "serial", Address: "/dev/ttyUSB0", BaudRate: DefaultBaudRate}},
		{"COM3", Target{Scheme: "serial", Address: "COM3", BaudRate: DefaultBaudRate}},
		{"serial:///dev/ttyS1?baud=57600", Target{Scheme: "serial", Address: "/dev/ttyS1", BaudRate: 57600}},
		{"serial://COM4", Target{Scheme: "serial", Address: "COM4", BaudRate: DefaultBaudRate}},
		{"tcp://bridge:4001", Target{Scheme: "tcp", Address: "bridge:4001"}},
		{"ws://bridge/cam", Target{Scheme: "ws", Address: "ws://bridge/cam"}},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			target, err := ParseTarget(tc.url)
			require.NoError(t, err)
			require.Equal(t, tc.expect, *target)
		})
	}
}

func TestParseTargetErrors(t *testing.T) {
	for _, u := range []string{"", "serial://", "serial:///dev/ttyS1?baud=fast", "tcp://", "http://host/"} {
		_, err := ParseTarget(u)
		require.Errorf(t, err, "%q", u)
	}
}
