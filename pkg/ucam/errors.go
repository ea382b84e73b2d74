package ucam

import (
	"errors"
	"fmt"

	"github.com/robotalks/ucam.go/pkg/ucam/protocol"
)

var (
	// ErrSyncFailed indicates the camera never acknowledged SYNC within
	// the allowed attempts.
	ErrSyncFailed = errors.New("sync failed")
	// ErrNotSynced indicates a capture was requested without a preceding
	// successful Sync. Each capture consumes the synchronization.
	ErrNotSynced = errors.New("not synchronized")
	// ErrZeroImage indicates the camera acknowledged all steps but reported
	// an empty image.
	ErrZeroImage = errors.New("empty image")
)

// StepAckError indicates a capture step was not acknowledged.
type StepAckError struct {
	Step string
	Ack  protocol.Frame
}

// Error implements error.
func (e *StepAckError) Error() string {
	return fmt.Sprintf("%s not acknowledged, expected %s", e.Step, e.Ack)
}

// ImageTooLargeError indicates the image needs more data packages than
// the 16-bit package index can address.
type ImageTooLargeError struct {
	Size     uint32
	Packages int
}

// Error implements error.
func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("image of %d bytes needs %d packages, at most %d allowed", e.Size, e.Packages, MaxPackages)
}
