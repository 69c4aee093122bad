// FLV audio tag payloads for AAC. The sound header byte always signals
// 44kHz 16-bit stereo; real parameters are described by the
// AudioSpecificConfig in the sequence header.

package flv

import (
	"fmt"
)

// aacSoundHeader is the constant first byte of every AAC audio payload.
const aacSoundHeader = AudioFormatAAC<<4 | AudioRate44kHz | AudioSize16Bit | AudioChannelsStereo

// AudioSequenceHeader builds the payload of an AAC sequence header tag
// carrying the AudioSpecificConfig.
func AudioSequenceHeader(audioSpecificConfig []byte) ([]byte, error) {
	if len(audioSpecificConfig) < 2 {
		return nil, fmt.Errorf("%w: AudioSpecificConfig too short (%d bytes)", ErrFormatDescription, len(audioSpecificConfig))
	}
	out := make([]byte, 0, 2+len(audioSpecificConfig))
	out = append(out, aacSoundHeader, AACPacketSequenceHeader)
	out = append(out, audioSpecificConfig...)
	return out, nil
}

// AudioPayload builds the payload of a raw AAC frame tag.
func AudioPayload(aac []byte) ([]byte, error) {
	if len(aac) == 0 {
		return nil, fmt.Errorf("%w: empty AAC frame", ErrInvalidSampleBuffer)
	}
	out := make([]byte, 0, 2+len(aac))
	out = append(out, aacSoundHeader, AACPacketRaw)
	out = append(out, aac...)
	return out, nil
}

// SplitAudioPayload splits an FLV audio tag payload into its AAC packet type
// and the carried bytes.
func SplitAudioPayload(payload []byte) (packetType byte, data []byte, err error) {
	if len(payload) < 2 {
		return 0, nil, fmt.Errorf("%w: audio payload too short (%d bytes)", ErrInvalidSampleBuffer, len(payload))
	}
	if payload[0]>>4 != AudioFormatAAC {
		return 0, nil, fmt.Errorf("%w: sound format %d is not AAC", ErrInvalidSampleBuffer, payload[0]>>4)
	}
	return payload[1], payload[2:], nil
}
