// Stream statistics: monotone counters for one publishing session, reset to
// zero by Disconnect.

package publisher

import (
	"io"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time statistics snapshot.
type Stats struct {
	State      string        `json:"state"`
	BytesSent  uint64        `json:"bytes_sent"`
	FramesSent uint64        `json:"frames_sent"`
	Duration   time.Duration `json:"duration_ns"`
	BitrateBps float64       `json:"bitrate_bps"`
}

// countingWriter counts bytes written through it to the transport.
// The counter is atomic so Stats can read it without the operation lock.
type countingWriter struct {
	w io.Writer
	n uint64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	atomic.AddUint64(&cw.n, uint64(n))
	return n, err
}

func (cw *countingWriter) count() uint64 {
	return atomic.LoadUint64(&cw.n)
}

func (cw *countingWriter) reset() {
	atomic.StoreUint64(&cw.n, 0)
}

// Stats returns a snapshot of the current session statistics.
// While Publishing the duration keeps growing; after a transport error it
// freezes at the failure time; Disconnect zeroes everything.
func (p *Publisher) Stats() Stats {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()

	s := Stats{
		State:      p.state.String(),
		FramesSent: atomic.LoadUint64(&p.framesSent),
	}
	if p.counter != nil {
		s.BytesSent = p.counter.count()
	}

	if !p.startTime.IsZero() {
		end := time.Now()
		if !p.endTime.IsZero() {
			end = p.endTime
		}
		s.Duration = end.Sub(p.startTime)
	}
	if secs := s.Duration.Seconds(); secs > 0 {
		s.BitrateBps = float64(s.BytesSent) * 8 / secs
	}
	return s
}
