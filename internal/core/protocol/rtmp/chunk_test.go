package rtmp

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestWriteMessageType0Header(t *testing.T) {
	var buf bytes.Buffer
	body := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if err := WriteMessage(&buf, ChunkStreamCommand, MessageTypeCommandAMF0, 0x112233, 7, body, 4096); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	out := buf.Bytes()
	if out[0] != 0x03 { // fmt 0, csid 3
		t.Errorf("basic header: got 0x%02x, want 0x03", out[0])
	}
	if out[1] != 0x11 || out[2] != 0x22 || out[3] != 0x33 {
		t.Errorf("timestamp bytes: % x", out[1:4])
	}
	if out[4] != 0 || out[5] != 0 || out[6] != byte(len(body)) {
		t.Errorf("length bytes: % x", out[4:7])
	}
	if out[7] != MessageTypeCommandAMF0 {
		t.Errorf("message type: got %d", out[7])
	}
	if binary.LittleEndian.Uint32(out[8:12]) != 7 {
		t.Errorf("stream id not little-endian 7: % x", out[8:12])
	}
	if !bytes.Equal(out[12:], body) {
		t.Errorf("payload mismatch")
	}
}

func TestWriteMessageSplitsAtChunkSize(t *testing.T) {
	var buf bytes.Buffer
	body := bytes.Repeat([]byte{0xAA}, 300)
	if err := WriteMessage(&buf, ChunkStreamVideo, MessageTypeVideo, 0, 1, body, 128); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	// 1 basic + 11 header + 128, then (1 basic + 128), then (1 basic + 44).
	want := 12 + 128 + 1 + 128 + 1 + 44
	if buf.Len() != want {
		t.Fatalf("wire length %d, want %d", buf.Len(), want)
	}
	out := buf.Bytes()
	if out[12+128] != 0xC0|ChunkStreamVideo {
		t.Errorf("continuation basic header: got 0x%02x", out[12+128])
	}
}

func TestMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	body := bytes.Repeat([]byte{0x42}, 1000)
	if err := WriteMessage(&buf, ChunkStreamAudio, MessageTypeAudio, 90, 1, body, 128); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	mr := NewMessageReader(&buf)
	msg, err := mr.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if msg.Type != MessageTypeAudio || msg.Timestamp != 90 || msg.StreamID != 1 {
		t.Errorf("header mismatch: %+v", msg)
	}
	if !bytes.Equal(msg.Body, body) {
		t.Errorf("body mismatch: %d bytes", len(msg.Body))
	}
}

func TestExtendedTimestampRepeatsOnContinuations(t *testing.T) {
	var buf bytes.Buffer
	body := bytes.Repeat([]byte{0xAB}, 300)
	ts := uint32(0x01234567) // past the 24-bit field
	if err := WriteMessage(&buf, ChunkStreamVideo, MessageTypeVideo, ts, 1, body, 128); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	out := buf.Bytes()
	// Type-0 header: 24-bit field saturated, extended timestamp follows.
	if out[1] != 0xFF || out[2] != 0xFF || out[3] != 0xFF {
		t.Errorf("timestamp field not saturated: % x", out[1:4])
	}
	if binary.BigEndian.Uint32(out[12:16]) != ts {
		t.Errorf("extended timestamp after header: % x", out[12:16])
	}
	// First continuation: basic header, then the extended timestamp again.
	cont := 16 + 128
	if out[cont] != 0xC0|ChunkStreamVideo {
		t.Fatalf("continuation basic header: got 0x%02x", out[cont])
	}
	if binary.BigEndian.Uint32(out[cont+1:cont+5]) != ts {
		t.Errorf("extended timestamp on continuation: % x", out[cont+1:cont+5])
	}

	mr := NewMessageReader(&buf)
	msg, err := mr.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if msg.Timestamp != ts {
		t.Errorf("timestamp %d, want %d", msg.Timestamp, ts)
	}
	if !bytes.Equal(msg.Body, body) {
		t.Errorf("body mismatch: %d bytes", len(msg.Body))
	}
}

func TestMessageReaderHonorsChunkSize(t *testing.T) {
	var buf bytes.Buffer
	body := bytes.Repeat([]byte{0x17}, 5000)
	if err := WriteMessage(&buf, ChunkStreamVideo, MessageTypeVideo, 33, 1, body, 4096); err != nil {
		t.Fatalf("WriteMessage failed: %v", err)
	}

	mr := NewMessageReader(&buf)
	mr.SetChunkSize(4096)
	msg, err := mr.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if len(msg.Body) != len(body) {
		t.Errorf("body length %d, want %d", len(msg.Body), len(body))
	}
}

func TestMessageReaderInterleavedStreams(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, ChunkStreamCommand, MessageTypeCommandAMF0, 0, 0, []byte{0x01}, 128); err != nil {
		t.Fatal(err)
	}
	if err := WriteMessage(&buf, ChunkStreamControl, MessageTypeSetChunkSize, 0, 0, CreateSetChunkSize(4096), 128); err != nil {
		t.Fatal(err)
	}

	mr := NewMessageReader(&buf)
	first, err := mr.ReadMessage()
	if err != nil {
		t.Fatalf("first ReadMessage failed: %v", err)
	}
	if first.Type != MessageTypeCommandAMF0 {
		t.Errorf("first message type %d", first.Type)
	}
	second, err := mr.ReadMessage()
	if err != nil {
		t.Fatalf("second ReadMessage failed: %v", err)
	}
	size, err := ParseSetChunkSize(second.Body)
	if err != nil || size != 4096 {
		t.Errorf("set chunk size: %d, %v", size, err)
	}
}

func TestParseSetChunkSizeRejectsOversize(t *testing.T) {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, 0x7FFFFFFF)
	if _, err := ParseSetChunkSize(body); err != ErrChunkTooLarge {
		t.Errorf("expected ErrChunkTooLarge, got %v", err)
	}
}

func TestWriteMessageRejectsReservedChunkStream(t *testing.T) {
	var buf bytes.Buffer
	err := WriteMessage(&buf, 0, MessageTypeCommandAMF0, 0, 0, []byte{0x01}, 128)
	if err == nil {
		t.Error("expected error for reserved chunk stream id")
	}
}
