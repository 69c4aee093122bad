// Pump moves frames from the ring buffer into the publisher. One pump
// goroutine per publisher; sources write into the ring from their own
// goroutines and never touch the transport.

package publisher

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/arkavo-org/streampush/internal/core/bus"
	"github.com/arkavo-org/streampush/internal/metrics"
)

// pollInterval is how long the pump sleeps on an empty ring. Short enough
// to add no visible latency at normal frame rates.
const pollInterval = 5 * time.Millisecond

// Pump drains a frame ring into a publisher.
type Pump struct {
	ring    *bus.RingBuffer
	pub     *Publisher
	metrics *metrics.Metrics
}

// NewPump wires a ring buffer to a publisher.
func NewPump(ring *bus.RingBuffer, pub *Publisher, m *metrics.Metrics) *Pump {
	return &Pump{ring: ring, pub: pub, metrics: m}
}

// Run forwards frames until ctx is cancelled or the session fails. Per-frame
// mux errors are logged and skipped; transport errors end the run.
func (p *Pump) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, ok := p.ring.Read()
		if !ok {
			p.metrics.SetQueueStats(p.ring.Len(), p.ring.Dropped())
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollInterval):
			}
			continue
		}

		var err error
		switch frame.Type {
		case bus.FrameTypeVideo:
			err = p.pub.PublishVideo(frame)
		case bus.FrameTypeAudio:
			err = p.pub.PublishAudio(frame)
		}

		switch {
		case err == nil:
		case errors.Is(err, ErrConnectionFailed), errors.Is(err, ErrNotConnected):
			return err
		default:
			// Bad frame, not a bad connection. Drop it and keep going.
			log.Printf("pump: dropping %s frame: %v", frame.Type, err)
		}
		p.metrics.SetQueueStats(p.ring.Len(), p.ring.Dropped())
	}
}
