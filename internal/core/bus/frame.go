// Package bus carries encoded frames from an external encoder to the
// publisher through a bounded ring, so a slow network cannot block frame
// production.
package bus

import (
	"time"
)

// FrameType discriminates audio and video frames.
type FrameType uint8

const (
	// FrameTypeAudio is an encoded AAC frame.
	FrameTypeAudio FrameType = iota
	// FrameTypeVideo is an encoded H.264 frame.
	FrameTypeVideo
)

// Frame is an externally produced encoded media frame. The engine treats it
// as read-only input: payload and parameter sets are never mutated and no
// ownership is taken beyond the publish call.
type Frame struct {
	Type     FrameType
	PTS      time.Duration // presentation timestamp
	Payload  []byte        // raw NALU (video) or raw AAC (audio)
	Keyframe bool          // video only

	// Codec parameter sets, present only at configuration boundaries.
	SPS                 []byte // video
	PPS                 []byte // video
	AudioSpecificConfig []byte // audio
}

// ConfigBearing reports whether the frame carries codec configuration that
// must reach the server, making it exempt from pressure drops.
func (f *Frame) ConfigBearing() bool {
	switch f.Type {
	case FrameTypeVideo:
		return len(f.SPS) > 0 && len(f.PPS) > 0
	case FrameTypeAudio:
		return len(f.AudioSpecificConfig) > 0
	}
	return false
}

// TimestampMs returns the frame's presentation time in milliseconds, the
// unit FLV tags carry.
func (f *Frame) TimestampMs() uint32 {
	return uint32(f.PTS / time.Millisecond)
}

// String returns a human-readable representation of the frame type.
func (t FrameType) String() string {
	switch t {
	case FrameTypeAudio:
		return "audio"
	case FrameTypeVideo:
		return "video"
	default:
		return "unknown"
	}
}
