package sh

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ucam.go/pkg/ucam"
	"github.com/robotalks/ucam.go/pkg/ucam/ucamtest"
)

func newTestShell(image []byte) (*Shell, *ucamtest.Simulator) {
	sim := ucamtest.NewSimulator(image)
	s := &Shell{
		Config: &ucam.Config{SyncAttempts: 1, ChunkSize: 16},
		Dial: func(url string) (Port, error) {
			if url != "sim" {
				return nil, errors.New("unknown port")
			}
			return sim, nil
		},
	}
	return s, sim
}

func TestOpenClose(t *testing.T) {
	s, _ := newTestShell(nil)
	require.Error(t, s.Open("other"))
	require.Nil(t, s.Camera)
	require.NoError(t, s.Open("sim"))
	require.NotNil(t, s.Camera)
	require.Equal(t, "idle", Status(s.Camera))
	s.Close()
	require.Nil(t, s.Camera)
}

func TestStepByStep(t *testing.T) {
	image := ucamtest.Image(40)
	s, _ := newTestShell(image)
	require.NoError(t, s.Open("sim"))
	cam, ctx := s.Camera, context.Background()

	_, err := FetchChunk(ctx, cam)
	require.Error(t, err)

	require.NoError(t, cam.Sync(ctx))
	require.NoError(t, cam.TakePicture(ctx))
	require.Equal(t, "transferring: package 0/3, 40 of 40 bytes remaining", Status(cam))

	out, err := FetchChunk(ctx, cam)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "package 0: 16 bytes\n00000000  ff d8"))
	require.Equal(t, "transferring: package 1/3, 24 of 40 bytes remaining", Status(cam))

	name := filepath.Join(t.TempDir(), "image.jpg")
	n, err := WriteFile(name, func(w io.Writer) (int64, error) {
		return cam.ReadImage(ctx, w)
	})
	require.NoError(t, err)
	require.Equal(t, int64(24), n)
	saved, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, image[16:], saved)
	require.Equal(t, "idle", Status(cam))
}

func TestShootToFile(t *testing.T) {
	image := ucamtest.Image(100)
	s, sim := newTestShell(image)
	require.NoError(t, s.Open("sim"))
	name := filepath.Join(t.TempDir(), "image.jpg")
	n, err := WriteFile(name, func(w io.Writer) (int64, error) {
		return s.Camera.Snap(context.Background(), w)
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), n)
	saved, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, image, saved)
	require.Equal(t, 7, sim.Packets())

	_, err = WriteFile(filepath.Join(name, "not-a-dir"), func(io.Writer) (int64, error) {
		return 0, nil
	})
	require.Error(t, err)
}
