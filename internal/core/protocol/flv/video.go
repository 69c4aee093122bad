// FLV video tag payloads for AVC/H.264: sequence headers carrying the
// decoder configuration, NALU packets, and end-of-sequence markers.

package flv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrInvalidSampleBuffer indicates a frame with missing or garbled
	// sample data. Per-frame and recoverable: drop the frame, keep going.
	ErrInvalidSampleBuffer = errors.New("flv: invalid sample buffer")
	// ErrBufferAccess indicates payload bytes could not be read in full.
	ErrBufferAccess = errors.New("flv: buffer access failed")
	// ErrFormatDescription indicates codec parameter sets were required but
	// missing or too short to describe the stream.
	ErrFormatDescription = errors.New("flv: format description failed")
)

// DecoderConfigurationRecord is the AVCDecoderConfigurationRecord carried in
// a video sequence header, built from out-of-band SPS/PPS.
type DecoderConfigurationRecord struct {
	Profile       byte
	Compatibility byte
	Level         byte
	SPS           [][]byte
	PPS           [][]byte
}

// NewDecoderConfigurationRecord builds a record from a single SPS/PPS pair.
// Profile, compatibility, and level come from SPS bytes 1-3.
func NewDecoderConfigurationRecord(sps, pps []byte) (*DecoderConfigurationRecord, error) {
	if len(sps) < 4 {
		return nil, fmt.Errorf("%w: SPS too short (%d bytes)", ErrFormatDescription, len(sps))
	}
	if len(pps) == 0 {
		return nil, fmt.Errorf("%w: missing PPS", ErrFormatDescription)
	}
	return &DecoderConfigurationRecord{
		Profile:       sps[1],
		Compatibility: sps[2],
		Level:         sps[3],
		SPS:           [][]byte{sps},
		PPS:           [][]byte{pps},
	}, nil
}

// Bytes encodes the record: version 1, profile, compatibility, level,
// 0xFF (4-byte NALU lengths), SPS count + length-prefixed SPS, then PPS.
func (r *DecoderConfigurationRecord) Bytes() []byte {
	size := 6
	for _, sps := range r.SPS {
		size += 2 + len(sps)
	}
	size++ // PPS count
	for _, pps := range r.PPS {
		size += 2 + len(pps)
	}

	out := make([]byte, 0, size)
	out = append(out, 1, r.Profile, r.Compatibility, r.Level)
	out = append(out, 0xFF)                        // reserved + lengthSizeMinusOne=3
	out = append(out, 0xE0|byte(len(r.SPS)))       // reserved + SPS count
	for _, sps := range r.SPS {
		out = binary.BigEndian.AppendUint16(out, uint16(len(sps)))
		out = append(out, sps...)
	}
	out = append(out, byte(len(r.PPS)))
	for _, pps := range r.PPS {
		out = binary.BigEndian.AppendUint16(out, uint16(len(pps)))
		out = append(out, pps...)
	}
	return out
}

// ParseDecoderConfigurationRecord parses a record from a sequence header
// payload (the bytes after the 5-byte FLV video tag prefix).
func ParseDecoderConfigurationRecord(data []byte) (*DecoderConfigurationRecord, error) {
	if len(data) < 7 {
		return nil, fmt.Errorf("%w: record too short (%d bytes)", ErrFormatDescription, len(data))
	}
	r := &DecoderConfigurationRecord{
		Profile:       data[1],
		Compatibility: data[2],
		Level:         data[3],
	}

	pos := 5
	numSPS := int(data[pos] & 0x1F)
	pos++
	for i := 0; i < numSPS; i++ {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated SPS length", ErrFormatDescription)
		}
		spsLen := int(binary.BigEndian.Uint16(data[pos:]))
		pos += 2
		if pos+spsLen > len(data) {
			return nil, fmt.Errorf("%w: truncated SPS data", ErrFormatDescription)
		}
		r.SPS = append(r.SPS, data[pos:pos+spsLen])
		pos += spsLen
	}

	if pos >= len(data) {
		return nil, fmt.Errorf("%w: missing PPS count", ErrFormatDescription)
	}
	numPPS := int(data[pos])
	pos++
	for i := 0; i < numPPS; i++ {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("%w: truncated PPS length", ErrFormatDescription)
		}
		ppsLen := int(binary.BigEndian.Uint16(data[pos:]))
		pos += 2
		if pos+ppsLen > len(data) {
			return nil, fmt.Errorf("%w: truncated PPS data", ErrFormatDescription)
		}
		r.PPS = append(r.PPS, data[pos:pos+ppsLen])
		pos += ppsLen
	}

	if len(r.SPS) == 0 || len(r.PPS) == 0 {
		return nil, fmt.Errorf("%w: record carries no parameter sets", ErrFormatDescription)
	}
	return r, nil
}

// VideoSequenceHeader builds the payload of an AVC sequence header tag:
// keyframe + AVC marker, packet type 0, zero composition time, then the
// decoder configuration record built from SPS and PPS.
func VideoSequenceHeader(sps, pps []byte) ([]byte, error) {
	record, err := NewDecoderConfigurationRecord(sps, pps)
	if err != nil {
		return nil, err
	}
	body := record.Bytes()
	out := make([]byte, 0, 5+len(body))
	out = append(out, videoTagPrefix(true, AVCPacketSequenceHeader)...)
	out = append(out, body...)
	return out, nil
}

// VideoPayload builds the payload of an AVC NALU tag. Composition time is
// always zero: live streams carry no B-frames.
func VideoPayload(nalu []byte, keyframe bool) ([]byte, error) {
	if len(nalu) == 0 {
		return nil, fmt.Errorf("%w: empty NALU", ErrInvalidSampleBuffer)
	}
	out := make([]byte, 0, 5+len(nalu))
	out = append(out, videoTagPrefix(keyframe, AVCPacketNALU)...)
	out = append(out, nalu...)
	return out, nil
}

// VideoEndOfSequence builds the payload signalling the end of the AVC stream.
func VideoEndOfSequence() []byte {
	return videoTagPrefix(true, AVCPacketEndOfSequence)
}

// videoTagPrefix returns the 5-byte video tag prefix: frame type + codec id,
// AVC packet type, and a u24 composition time of zero.
func videoTagPrefix(keyframe bool, packetType byte) []byte {
	frameType := byte(VideoFrameInter)
	if keyframe {
		frameType = VideoFrameKey
	}
	return []byte{frameType<<4 | VideoCodecAVC, packetType, 0, 0, 0}
}

// SplitVideoPayload splits an FLV video tag payload into its prefix fields
// and the carried bytes. Used when demuxing recorded FLV back into frames.
func SplitVideoPayload(payload []byte) (keyframe bool, packetType byte, data []byte, err error) {
	if len(payload) < 5 {
		return false, 0, nil, fmt.Errorf("%w: video payload too short (%d bytes)", ErrInvalidSampleBuffer, len(payload))
	}
	if payload[0]&0x0F != VideoCodecAVC {
		return false, 0, nil, fmt.Errorf("%w: codec id %d is not AVC", ErrInvalidSampleBuffer, payload[0]&0x0F)
	}
	return payload[0]>>4 == VideoFrameKey, payload[1], payload[5:], nil
}
