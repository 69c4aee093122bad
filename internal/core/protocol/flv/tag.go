// FLV tag creation and encoding.

package flv

import (
	"encoding/binary"
)

// Tag represents an FLV tag (audio, video, or script).
type Tag struct {
	Type      byte
	Timestamp uint32
	Data      []byte
}

// NewTag creates a new FLV tag from type, timestamp, and data.
func NewTag(tagType byte, timestamp uint32, data []byte) *Tag {
	return &Tag{
		Type:      tagType,
		Timestamp: timestamp,
		Data:      data,
	}
}

// Bytes encodes the tag as FLV tag bytes.
// Format: tag type (1) + data size (3) + timestamp lower (3) + timestamp
// upper (1) + stream id (3, always 0) + data (N) + previous tag size (4).
// The trailer equals 11 + len(data) so readers can seek backwards.
func (t *Tag) Bytes() []byte {
	dataSize := uint32(len(t.Data))

	totalSize := TagHeaderSize + len(t.Data) + 4
	result := make([]byte, totalSize)

	result[0] = t.Type

	result[1] = byte(dataSize >> 16)
	result[2] = byte(dataSize >> 8)
	result[3] = byte(dataSize)

	// Timestamp: lower 24 bits in bytes 4-6, upper 8 bits in byte 7.
	result[4] = byte(t.Timestamp >> 16)
	result[5] = byte(t.Timestamp >> 8)
	result[6] = byte(t.Timestamp)
	result[7] = byte(t.Timestamp >> 24)

	// Stream id, always 0.
	result[8] = 0
	result[9] = 0
	result[10] = 0

	copy(result[TagHeaderSize:], t.Data)

	prevSize := uint32(TagHeaderSize + len(t.Data))
	binary.BigEndian.PutUint32(result[TagHeaderSize+len(t.Data):], prevSize)

	return result
}
