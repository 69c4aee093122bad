package filesource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arkavo-org/streampush/internal/config"
	"github.com/arkavo-org/streampush/internal/core/bus"
	"github.com/arkavo-org/streampush/internal/core/protocol/flv"
)

var (
	testSPS = []byte{0x67, 0x64, 0x00, 0x1F, 0xAC}
	testPPS = []byte{0x68, 0xEE, 0x3C, 0x80}
	testASC = []byte{0x12, 0x10}
)

// writeTestFLV builds a small recording: sequence headers, a video
// keyframe, an interframe, and an audio frame.
func writeTestFLV(t *testing.T) string {
	t.Helper()

	header := &flv.Header{HasAudio: true, HasVideo: true}
	out := header.FileBytes()

	videoSeq, err := flv.VideoSequenceHeader(testSPS, testPPS)
	if err != nil {
		t.Fatalf("building video sequence header: %v", err)
	}
	audioSeq, err := flv.AudioSequenceHeader(testASC)
	if err != nil {
		t.Fatalf("building audio sequence header: %v", err)
	}
	key, err := flv.VideoPayload([]byte{0x00, 0x00, 0x00, 0x02, 0x65, 0x88}, true)
	if err != nil {
		t.Fatalf("building keyframe payload: %v", err)
	}
	inter, err := flv.VideoPayload([]byte{0x00, 0x00, 0x00, 0x02, 0x41, 0x9A}, false)
	if err != nil {
		t.Fatalf("building interframe payload: %v", err)
	}
	aac, err := flv.AudioPayload([]byte{0x21, 0x11, 0x45})
	if err != nil {
		t.Fatalf("building audio payload: %v", err)
	}

	tags := []*flv.Tag{
		flv.NewTag(flv.TagTypeVideo, 0, videoSeq),
		flv.NewTag(flv.TagTypeAudio, 0, audioSeq),
		flv.NewTag(flv.TagTypeVideo, 0, key),
		flv.NewTag(flv.TagTypeAudio, 12, aac),
		flv.NewTag(flv.TagTypeVideo, 40, inter),
	}
	for _, tag := range tags {
		out = append(out, tag.Bytes()...)
	}

	path := filepath.Join(t.TempDir(), "test.flv")
	if err := os.WriteFile(path, out, 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	return path
}

func drainRing(ring *bus.RingBuffer) []*bus.Frame {
	var frames []*bus.Frame
	for {
		frame, ok := ring.Read()
		if !ok {
			return frames
		}
		frames = append(frames, frame)
	}
}

func TestRunDemuxesFile(t *testing.T) {
	path := writeTestFLV(t)
	ring := bus.NewRingBuffer(16, bus.DropNonKeyframes)
	src := New(config.InputConfig{Path: path}, ring)

	if err := src.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	frames := drainRing(ring)
	if len(frames) != 3 {
		t.Fatalf("got %d frames, want 3 (sequence headers are not frames)", len(frames))
	}

	key := frames[0]
	if key.Type != bus.FrameTypeVideo || !key.Keyframe {
		t.Errorf("first frame = %+v, want video keyframe", key)
	}
	if string(key.SPS) != string(testSPS) || string(key.PPS) != string(testPPS) {
		t.Error("keyframe is missing the captured SPS/PPS")
	}
	if !key.ConfigBearing() {
		t.Error("keyframe should be config bearing")
	}

	audio := frames[1]
	if audio.Type != bus.FrameTypeAudio {
		t.Errorf("second frame type = %v, want audio", audio.Type)
	}
	if string(audio.AudioSpecificConfig) != string(testASC) {
		t.Error("audio frame is missing the AudioSpecificConfig")
	}
	if audio.TimestampMs() != 12 {
		t.Errorf("audio timestamp = %d, want 12", audio.TimestampMs())
	}

	inter := frames[2]
	if inter.Keyframe {
		t.Error("third frame should be an interframe")
	}
	if inter.SPS != nil {
		t.Error("interframes should not carry SPS")
	}
	if inter.TimestampMs() != 40 {
		t.Errorf("interframe timestamp = %d, want 40", inter.TimestampMs())
	}
}

func TestRunLoopShiftsTimestamps(t *testing.T) {
	path := writeTestFLV(t)
	ring := bus.NewRingBuffer(64, bus.DropOldest)
	src := New(config.InputConfig{Path: path, Realtime: true, Loop: true}, ring)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx) }()

	// Wait for at least two passes over the 40ms file.
	deadline := time.Now().Add(2 * time.Second)
	var frames []*bus.Frame
	for time.Now().Before(deadline) && len(frames) < 5 {
		frames = append(frames, drainRing(ring)...)
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if len(frames) < 5 {
		t.Fatalf("got %d frames, want at least 5 across two loops", len(frames))
	}

	// Timestamps never move backwards across the loop boundary.
	var prev uint32
	for i, frame := range frames {
		if ts := frame.TimestampMs(); ts < prev {
			t.Fatalf("frame %d timestamp %d is behind %d", i, ts, prev)
		} else {
			prev = ts
		}
	}
}

func TestRunMissingFile(t *testing.T) {
	ring := bus.NewRingBuffer(4, bus.DropOldest)
	src := New(config.InputConfig{Path: "/does/not/exist.flv"}, ring)
	if err := src.Run(context.Background()); err == nil {
		t.Fatal("Run succeeded on a missing file")
	}
}
