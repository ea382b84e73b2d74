package ucamtest_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ucam.go/pkg/ucam"
	"github.com/robotalks/ucam.go/pkg/ucam/protocol"
	"github.com/robotalks/ucam.go/pkg/ucam/ucamtest"
)

func TestSimulatorSnap(t *testing.T) {
	testCases := []struct {
		name      string
		size      int
		chunkSize int
		packets   int
	}{
		{"default chunk", 1000, 64, 16},
		{"large chunk", 1000, 506, 2},
		{"tiny image", 1, 64, 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			image := ucamtest.Image(tc.size)
			sim := ucamtest.NewSimulator(image)
			cam, err := (&ucam.Config{SyncAttempts: 1, ChunkSize: tc.chunkSize}).NewCamera(sim)
			require.NoError(t, err)
			var buf bytes.Buffer
			n, err := cam.Snap(context.Background(), &buf)
			require.NoError(t, err)
			require.Equal(t, int64(tc.size), n)
			require.Equal(t, image, buf.Bytes())
			require.Equal(t, tc.packets, sim.Packets())
			frames := sim.Frames()
			require.True(t, frames[len(frames)-1].IsChunkTerminate())
		})
	}
}

func TestSimulatorSleep(t *testing.T) {
	sim := ucamtest.NewSimulator(nil)
	cam, err := (&ucam.Config{SyncAttempts: 1, ChunkSize: 64}).NewCamera(sim)
	require.NoError(t, err)
	require.NoError(t, cam.Sleep(context.Background()))
	require.True(t, sim.Asleep())
	require.NoError(t, cam.Sync(context.Background()))
	require.False(t, sim.Asleep())
	require.Equal(t, protocol.FinalSync, sim.Frames()[len(sim.Frames())-1])
}
