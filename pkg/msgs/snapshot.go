package msgs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"
)

// Snapshot is a captured image.
type Snapshot struct {
	Id                   string   `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	CameraId             string   `protobuf:"bytes,2,opt,name=camera_id,json=cameraId,proto3" json:"camera_id,omitempty"`
	TakenAt              int64    `protobuf:"varint,3,opt,name=taken_at,json=takenAt,proto3" json:"taken_at,omitempty"`
	Size                 uint32   `protobuf:"varint,4,opt,name=size,proto3" json:"size,omitempty"`
	Packages             uint32   `protobuf:"varint,5,opt,name=packages,proto3" json:"packages,omitempty"`
	Data                 []byte   `protobuf:"bytes,6,opt,name=data,proto3" json:"data,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

// Reset implements proto.Message.
func (m *Snapshot) Reset() { *m = Snapshot{} }

// String implements proto.Message.
func (m *Snapshot) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Snapshot) ProtoMessage() {}

// Time returns TakenAt as time.Time.
func (m *Snapshot) Time() time.Time {
	return time.Unix(0, m.TakenAt)
}

// EncodeSnapshot encodes the snapshot for publishing.
func EncodeSnapshot(m *Snapshot) ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeSnapshot decodes a published snapshot.
func DecodeSnapshot(payload []byte) (*Snapshot, error) {
	m := &Snapshot{}
	if err := proto.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return m, nil
}

// Meta describes a camera. It's published retained so subscribers can
// discover cameras.
type Meta struct {
	ID        string `json:"id"`
	Port      string `json:"port"`
	ChunkSize int    `json:"chunk-size"`
	// Interval is the period of automatic captures, 0 if disabled.
	Interval string `json:"interval,omitempty"`
}

// Encode encodes Meta as JSON.
func (m *Meta) Encode() []byte {
	data, err := json.Marshal(m)
	if err != nil {
		panic(err)
	}
	return data
}
