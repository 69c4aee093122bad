package flv

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
)

func TestFileHeaderBytes(t *testing.T) {
	want := []byte{0x46, 0x4C, 0x56, 0x01, 0x05, 0x00, 0x00, 0x00, 0x09, 0x00, 0x00, 0x00, 0x00}
	got := NewHeader(true, true).FileBytes()
	if !bytes.Equal(got, want) {
		t.Errorf("FileBytes mismatch:\n got %x\nwant %x", got, want)
	}
}

func TestHeaderFlags(t *testing.T) {
	cases := []struct {
		audio, video bool
		flags        byte
	}{
		{true, true, 0x05},
		{true, false, 0x04},
		{false, true, 0x01},
		{false, false, 0x00},
	}
	for _, c := range cases {
		h := NewHeader(c.audio, c.video).Bytes()
		if h[4] != c.flags {
			t.Errorf("audio=%v video=%v: expected flags 0x%02x, got 0x%02x", c.audio, c.video, c.flags, h[4])
		}
	}
}

func TestTagTrailerInvariant(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x01},
		bytes.Repeat([]byte{0xAB}, 200),
		bytes.Repeat([]byte{0xCD}, 70000),
	}
	for _, payload := range payloads {
		encoded := NewTag(TagTypeVideo, 1234, payload).Bytes()
		trailer := binary.BigEndian.Uint32(encoded[len(encoded)-4:])
		if trailer != uint32(TagHeaderSize+len(payload)) {
			t.Errorf("payload len %d: trailer %d, want %d", len(payload), trailer, TagHeaderSize+len(payload))
		}
	}
}

func TestTagTimestampLayout(t *testing.T) {
	// 0x01234567 splits into 3 low bytes and 1 extended byte.
	encoded := NewTag(TagTypeAudio, 0x01234567, nil).Bytes()
	if encoded[4] != 0x23 || encoded[5] != 0x45 || encoded[6] != 0x67 {
		t.Errorf("low timestamp bytes wrong: % x", encoded[4:7])
	}
	if encoded[7] != 0x01 {
		t.Errorf("extended timestamp byte wrong: 0x%02x", encoded[7])
	}
}

func TestVideoSequenceHeader(t *testing.T) {
	sps := []byte{0x67, 0x64, 0x00, 0x1F, 0xAC}
	pps := []byte{0x68, 0xEE, 0x3C, 0x80}

	payload, err := VideoSequenceHeader(sps, pps)
	if err != nil {
		t.Fatalf("VideoSequenceHeader failed: %v", err)
	}

	if payload[0] != (VideoFrameKey<<4 | VideoCodecAVC) {
		t.Errorf("header byte: got 0x%02x, want 0x17", payload[0])
	}
	if payload[1] != AVCPacketSequenceHeader {
		t.Errorf("packet type: got %d, want 0", payload[1])
	}
	if !bytes.Equal(payload[2:5], []byte{0, 0, 0}) {
		t.Errorf("composition time not zero: % x", payload[2:5])
	}

	record := payload[5:]
	if record[0] != 1 {
		t.Errorf("configuration version: got %d, want 1", record[0])
	}
	if record[1] != 0x64 || record[2] != 0x00 || record[3] != 0x1F {
		t.Errorf("profile/compat/level: got % x, want 64 00 1f", record[1:4])
	}
	if record[4] != 0xFF {
		t.Errorf("length size flag: got 0x%02x, want 0xFF", record[4])
	}

	parsed, err := ParseDecoderConfigurationRecord(record)
	if err != nil {
		t.Fatalf("ParseDecoderConfigurationRecord failed: %v", err)
	}
	if len(parsed.SPS) != 1 || !bytes.Equal(parsed.SPS[0], sps) {
		t.Errorf("SPS round trip mismatch: %x", parsed.SPS)
	}
	if len(parsed.PPS) != 1 || !bytes.Equal(parsed.PPS[0], pps) {
		t.Errorf("PPS round trip mismatch: %x", parsed.PPS)
	}
}

func TestVideoSequenceHeaderMissingParameterSets(t *testing.T) {
	if _, err := VideoSequenceHeader(nil, []byte{0x68}); !errors.Is(err, ErrFormatDescription) {
		t.Errorf("missing SPS: expected ErrFormatDescription, got %v", err)
	}
	if _, err := VideoSequenceHeader([]byte{0x67, 0x64, 0x00, 0x1F}, nil); !errors.Is(err, ErrFormatDescription) {
		t.Errorf("missing PPS: expected ErrFormatDescription, got %v", err)
	}
}

func TestVideoPayload(t *testing.T) {
	nalu := []byte{0x00, 0x00, 0x00, 0x02, 0x65, 0x88}

	payload, err := VideoPayload(nalu, true)
	if err != nil {
		t.Fatalf("VideoPayload failed: %v", err)
	}
	if payload[0] != 0x17 || payload[1] != AVCPacketNALU {
		t.Errorf("keyframe prefix wrong: % x", payload[:2])
	}
	if !bytes.Equal(payload[5:], nalu) {
		t.Errorf("NALU bytes not preserved")
	}

	payload, err = VideoPayload(nalu, false)
	if err != nil {
		t.Fatalf("VideoPayload failed: %v", err)
	}
	if payload[0] != 0x27 {
		t.Errorf("interframe prefix wrong: 0x%02x", payload[0])
	}

	if _, err := VideoPayload(nil, true); !errors.Is(err, ErrInvalidSampleBuffer) {
		t.Errorf("empty NALU: expected ErrInvalidSampleBuffer, got %v", err)
	}
}

func TestSplitVideoPayload(t *testing.T) {
	payload, err := VideoPayload([]byte{0x65, 0x88, 0x84}, true)
	if err != nil {
		t.Fatalf("VideoPayload failed: %v", err)
	}
	keyframe, packetType, data, err := SplitVideoPayload(payload)
	if err != nil {
		t.Fatalf("SplitVideoPayload failed: %v", err)
	}
	if !keyframe || packetType != AVCPacketNALU {
		t.Errorf("keyframe=%v packetType=%d", keyframe, packetType)
	}
	if !bytes.Equal(data, []byte{0x65, 0x88, 0x84}) {
		t.Errorf("data mismatch: %x", data)
	}

	if _, _, _, err := SplitVideoPayload([]byte{0x17}); !errors.Is(err, ErrInvalidSampleBuffer) {
		t.Errorf("short payload: expected ErrInvalidSampleBuffer, got %v", err)
	}
}

func TestAudioPayloads(t *testing.T) {
	asc := []byte{0x12, 0x10}
	seq, err := AudioSequenceHeader(asc)
	if err != nil {
		t.Fatalf("AudioSequenceHeader failed: %v", err)
	}
	if seq[0] != 0xAF {
		t.Errorf("sound header: got 0x%02x, want 0xAF", seq[0])
	}
	if seq[1] != AACPacketSequenceHeader || !bytes.Equal(seq[2:], asc) {
		t.Errorf("sequence header layout wrong: % x", seq)
	}

	raw, err := AudioPayload([]byte{0x21, 0x22})
	if err != nil {
		t.Fatalf("AudioPayload failed: %v", err)
	}
	if raw[1] != AACPacketRaw {
		t.Errorf("packet type: got %d, want 1", raw[1])
	}

	packetType, data, err := SplitAudioPayload(raw)
	if err != nil {
		t.Fatalf("SplitAudioPayload failed: %v", err)
	}
	if packetType != AACPacketRaw || !bytes.Equal(data, []byte{0x21, 0x22}) {
		t.Errorf("split mismatch: type=%d data=%x", packetType, data)
	}

	if _, err := AudioSequenceHeader(nil); !errors.Is(err, ErrFormatDescription) {
		t.Errorf("missing config: expected ErrFormatDescription, got %v", err)
	}
	if _, err := AudioPayload(nil); !errors.Is(err, ErrInvalidSampleBuffer) {
		t.Errorf("empty frame: expected ErrInvalidSampleBuffer, got %v", err)
	}
}

func TestReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(NewHeader(true, true).FileBytes())
	buf.Write(NewTag(TagTypeVideo, 0, []byte{0x17, 0x00, 0, 0, 0, 0x01}).Bytes())
	buf.Write(NewTag(TagTypeAudio, 23, []byte{0xAF, 0x01, 0x21}).Bytes())
	buf.Write(NewTag(TagTypeVideo, 0x01000040, []byte{0x27, 0x01, 0, 0, 0, 0x41}).Bytes())

	r := NewReader(&buf)
	header, err := r.ReadHeader()
	if err != nil {
		t.Fatalf("ReadHeader failed: %v", err)
	}
	if !header.HasAudio || !header.HasVideo {
		t.Errorf("header flags lost: %+v", header)
	}

	wantTypes := []byte{TagTypeVideo, TagTypeAudio, TagTypeVideo}
	wantTimestamps := []uint32{0, 23, 0x01000040}
	for i := range wantTypes {
		tag, err := r.ReadTag()
		if err != nil {
			t.Fatalf("ReadTag %d failed: %v", i, err)
		}
		if tag.Type != wantTypes[i] {
			t.Errorf("tag %d: type %d, want %d", i, tag.Type, wantTypes[i])
		}
		if tag.Timestamp != wantTimestamps[i] {
			t.Errorf("tag %d: timestamp %d, want %d", i, tag.Timestamp, wantTimestamps[i])
		}
	}

	if _, err := r.ReadTag(); err != io.EOF {
		t.Errorf("expected io.EOF at end of stream, got %v", err)
	}
}

func TestReaderRejectsBadSignature(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte("MP4 1234567890123")))
	if _, err := r.ReadHeader(); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}
