// Package flv builds and reads FLV tags, the container framing RTMP uses
// for media payloads.
package flv

// FLV file signature.
const Signature = "FLV"

// FLV version.
const Version = 1

// FLV header size.
const HeaderSize = 9

// FLV tag header size (type + data size + timestamp + stream id).
const TagHeaderSize = 11

// Tag types.
const (
	TagTypeAudio  = 8
	TagTypeVideo  = 9
	TagTypeScript = 18
)

// Audio format constants (upper nibble of the sound header byte).
const (
	AudioFormatAAC = 10
)

// Audio rate/size/channel bits (lower nibble of the sound header byte).
// AAC is always signalled as 44kHz 16-bit stereo; the real parameters live
// in the AudioSpecificConfig.
const (
	AudioRate44kHz      = 3 << 2
	AudioSize16Bit      = 1 << 1
	AudioChannelsStereo = 1
)

// Video codec ids (lower nibble of the video header byte).
const (
	VideoCodecAVC = 7
)

// Video frame types (upper nibble of the video header byte).
const (
	VideoFrameKey   = 1
	VideoFrameInter = 2
)

// AVC packet types.
const (
	AVCPacketSequenceHeader = 0
	AVCPacketNALU           = 1
	AVCPacketEndOfSequence  = 2
)

// AAC packet types.
const (
	AACPacketSequenceHeader = 0
	AACPacketRaw            = 1
)

// IsVideoKeyframe reports whether an FLV video payload is a keyframe.
// The upper nibble of the first byte carries the frame type.
func IsVideoKeyframe(payload []byte) bool {
	return len(payload) >= 1 && (payload[0]>>4) == VideoFrameKey
}
