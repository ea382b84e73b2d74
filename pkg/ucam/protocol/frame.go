package protocol

import (
	"fmt"
	"strings"
)

// FrameSize is the length of every command/reply frame.
const FrameSize = 6

// Marker is the first byte of every frame.
const Marker byte = 0xAA

// Opcodes
const (
	OpInitial        byte = 0x01
	OpGetPicture     byte = 0x04
	OpSnapshot       byte = 0x05
	OpSetPackageSize byte = 0x06
	OpData           byte = 0x0A
	OpSync           byte = 0x0D
	OpAck            byte = 0x0E
	OpSleep          byte = 0x15
)

// Image parameters, fixed for this driver.
const (
	FormatJPEG       byte = 0x07
	RawResolution    byte = 0x03 // 160x120
	JPEGResolution   byte = 0x07 // 640x480
	SnapshotJPEG     byte = 0x00
	PictureTypeJPEG  byte = 0x05
	packageSizeParam byte = 0x08
)

// Data package framing.
const (
	PackageHeaderSize  = 4
	PackageTrailerSize = 2
	// PackageOverhead is the number of non-payload bytes in a data package.
	PackageOverhead = PackageHeaderSize + PackageTrailerSize
)

// Frame is a fixed 6-byte command or reply.
type Frame [FrameSize]byte

// Opcode returns the command/reply id.
func (f Frame) Opcode() byte {
	return f[1]
}

// Bytes returns a copy of the frame as a slice for writing.
func (f Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	copy(b, f[:])
	return b
}

// String formats the frame as hex bytes.
func (f Frame) String() string {
	parts := make([]string, FrameSize)
	for n, b := range f {
		parts[n] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}

// Commands and replies.
var (
	Sync          = Frame{Marker, OpSync, 0x00, 0x00, 0x00, 0x00}
	SyncAck       = Frame{Marker, OpAck, OpSync, 0x00, 0x00, 0x00}
	SyncAckExt    = Frame{Marker, OpSync, 0x00, 0x00, 0x00, 0x00}
	FinalSync     = Frame{Marker, OpAck, 0x00, 0x00, 0xF5, 0x00}
	Initial       = Frame{Marker, OpInitial, 0x00, FormatJPEG, RawResolution, JPEGResolution}
	GenericAck    = Frame{Marker, OpAck, 0x00, 0x00, 0x00, 0x00}
	Snapshot      = Frame{Marker, OpSnapshot, SnapshotJPEG, 0x00, 0x00, 0x00}
	GetPicture    = Frame{Marker, OpGetPicture, PictureTypeJPEG, 0x00, 0x00, 0x00}
	Sleep         = Frame{Marker, OpSleep, 0x00, 0x00, 0x00, 0x00}
	terminateTail = [2]byte{0xF0, 0xF0}
)

// Ack creates the reply template acknowledging the opcode.
// Parameter bytes are wildcards.
func Ack(opcode byte) Frame {
	return Frame{Marker, OpAck, opcode, 0x00, 0x00, 0x00}
}

// SetPackageSize creates the command requesting data packages carrying
// up to capacity payload bytes.
func SetPackageSize(capacity int) Frame {
	size := uint16(capacity + PackageOverhead)
	return Frame{Marker, OpSetPackageSize, packageSizeParam, byte(size), byte(size >> 8), 0x00}
}

// ChunkRequest creates the ack requesting data package index.
func ChunkRequest(index uint16) Frame {
	return Frame{Marker, OpAck, 0x00, 0x00, byte(index), byte(index >> 8)}
}

// ChunkTerminate creates the ack telling the camera all packages are received.
func ChunkTerminate() Frame {
	return Frame{Marker, OpAck, 0x00, 0x00, terminateTail[0], terminateTail[1]}
}

// IsChunkTerminate checks if the frame is the terminating ack.
func (f Frame) IsChunkTerminate() bool {
	return f == ChunkTerminate()
}

// ImageSize decodes the 24-bit little-endian size from a DATA reply.
func (f Frame) ImageSize() uint32 {
	return uint32(f[3]) | uint32(f[4])<<8 | uint32(f[5])<<16
}
