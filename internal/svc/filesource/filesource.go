// FLV file source. Demuxes a recorded FLV file back into encoded frames
// and feeds them to the ring buffer, standing in for a live encoder.

package filesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/arkavo-org/streampush/internal/config"
	"github.com/arkavo-org/streampush/internal/core/bus"
	"github.com/arkavo-org/streampush/internal/core/protocol/flv"
)

// loopGapMs is the timestamp gap inserted between loop iterations so the
// outgoing clock never goes backwards.
const loopGapMs = 33

// Source replays an FLV file into a frame ring.
type Source struct {
	cfg  config.InputConfig
	ring *bus.RingBuffer

	// Last seen codec configuration, attached to frames so the publisher
	// can emit sequence headers.
	sps []byte
	pps []byte
	asc []byte

	offset uint32 // timestamp shift accumulated across loops
}

// New creates a source for the configured input file.
func New(cfg config.InputConfig, ring *bus.RingBuffer) *Source {
	return &Source{cfg: cfg, ring: ring}
}

// Run replays the file until EOF, or forever when looping. Returns nil on
// a clean end of input and ctx.Err() on cancellation.
func (s *Source) Run(ctx context.Context) error {
	for {
		lastTS, err := s.playFile(ctx)
		if err != nil {
			return err
		}
		if !s.cfg.Loop {
			return nil
		}
		s.offset += lastTS + loopGapMs
	}
}

// playFile streams one pass over the file, returning the last media
// timestamp seen.
func (s *Source) playFile(ctx context.Context) (uint32, error) {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	r := flv.NewReader(f)
	if _, err := r.ReadHeader(); err != nil {
		return 0, err
	}

	start := time.Now()
	var lastTS uint32
	for {
		tag, err := r.ReadTag()
		if errors.Is(err, io.EOF) {
			return lastTS, nil
		}
		if err != nil {
			return lastTS, err
		}

		frame := s.frameFromTag(tag)
		if frame == nil {
			continue
		}
		lastTS = tag.Timestamp

		if s.cfg.Realtime {
			if err := s.pace(ctx, start, tag.Timestamp); err != nil {
				return lastTS, err
			}
		} else if ctx.Err() != nil {
			return lastTS, ctx.Err()
		}

		s.ring.Write(frame)
	}
}

// frameFromTag converts one FLV tag into a frame, capturing codec
// configuration as a side effect. Returns nil for tags that carry no
// media payload.
func (s *Source) frameFromTag(tag *flv.Tag) *bus.Frame {
	switch tag.Type {
	case flv.TagTypeVideo:
		keyframe, packetType, data, err := flv.SplitVideoPayload(tag.Data)
		if err != nil {
			log.Printf("filesource: skipping video tag at %dms: %v", tag.Timestamp, err)
			return nil
		}
		if packetType == flv.AVCPacketSequenceHeader {
			rec, err := flv.ParseDecoderConfigurationRecord(data)
			if err != nil {
				log.Printf("filesource: bad decoder configuration: %v", err)
				return nil
			}
			// Parse guarantees at least one entry of each; the publisher
			// rebuilds the record from a single SPS/PPS pair.
			s.sps, s.pps = rec.SPS[0], rec.PPS[0]
			return nil
		}
		if packetType != flv.AVCPacketNALU {
			return nil
		}
		frame := &bus.Frame{
			Type:     bus.FrameTypeVideo,
			PTS:      time.Duration(tag.Timestamp+s.offset) * time.Millisecond,
			Payload:  data,
			Keyframe: keyframe,
		}
		if keyframe {
			frame.SPS, frame.PPS = s.sps, s.pps
		}
		return frame

	case flv.TagTypeAudio:
		packetType, data, err := flv.SplitAudioPayload(tag.Data)
		if err != nil {
			log.Printf("filesource: skipping audio tag at %dms: %v", tag.Timestamp, err)
			return nil
		}
		if packetType == flv.AACPacketSequenceHeader {
			s.asc = data
			return nil
		}
		return &bus.Frame{
			Type:                bus.FrameTypeAudio,
			PTS:                 time.Duration(tag.Timestamp+s.offset) * time.Millisecond,
			Payload:             data,
			AudioSpecificConfig: s.asc,
		}

	default:
		// Script data and anything else is not replayed.
		return nil
	}
}

// pace sleeps until the wall clock catches up with the tag timestamp.
func (s *Source) pace(ctx context.Context, start time.Time, ts uint32) error {
	due := time.Duration(ts) * time.Millisecond
	wait := due - time.Since(start)
	if wait <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
