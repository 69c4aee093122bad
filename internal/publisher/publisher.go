// Publisher state machine. Owns one transport connection, drives
// handshake -> application connect -> stream creation -> publish, and
// forwards muxed tags. All transport I/O is serialized through one
// operation mutex so tags never interleave on the wire.

package publisher

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arkavo-org/streampush/internal/core/bus"
	"github.com/arkavo-org/streampush/internal/core/protocol/amf0"
	"github.com/arkavo-org/streampush/internal/core/protocol/flv"
	"github.com/arkavo-org/streampush/internal/core/protocol/rtmp"
	"github.com/arkavo-org/streampush/internal/metrics"
)

// DialFunc opens the transport connection. Injectable for tests.
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

// Options configures a Publisher.
type Options struct {
	Metrics *metrics.Metrics // optional
	Dial    DialFunc         // optional, defaults to TCP
}

// Publisher publishes encoded frames to one RTMP ingest endpoint.
//
// Lock order: opMu before stateMu, never the reverse. opMu serializes
// Connect/Publish*/Disconnect; stateMu guards the fields Stats and State
// read so queries never block behind transport I/O.
type Publisher struct {
	dial    DialFunc
	metrics *metrics.Metrics

	opMu sync.Mutex

	stateMu   sync.RWMutex
	state     State
	lastErr   error
	startTime time.Time
	endTime   time.Time
	closing   bool

	// Connection fields, touched only under opMu (plus the drain goroutine
	// holding its own reader over conn).
	conn            net.Conn
	counter         *countingWriter
	bw              *bufio.Writer
	chunkSize       uint32
	nextTx          float64
	streamKey       string
	tsBase          uint32
	tsBaseSet       bool
	videoConfigSent bool
	audioConfigSent bool
	drainDone       chan struct{}

	framesSent uint64 // atomic, video frames delivered this session
}

// New creates a publisher in the Disconnected state.
func New(opts Options) *Publisher {
	p := &Publisher{
		dial:    opts.Dial,
		metrics: opts.Metrics,
		state:   StateDisconnected,
		nextTx:  2, // transaction 1 is the connect command
	}
	if p.dial == nil {
		p.dial = func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		}
	}
	return p
}

// State returns the current connection state.
func (p *Publisher) State() State {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.state
}

// LastError returns the error that moved the publisher into StateError.
func (p *Publisher) LastError() error {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	return p.lastErr
}

// Connect dials the destination, performs the RTMP handshake, and runs the
// publish command sequence. On success the publisher is Publishing. There
// is no internal timeout: bound the attempt through ctx — cancellation
// aborts the whole attempt, including a server that accepts the dial and
// then goes mute — and call Disconnect afterwards to reset the state.
func (p *Publisher) Connect(ctx context.Context, dest Destination, streamKey string) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.State() != StateDisconnected {
		return ErrAlreadyConnected
	}

	ep, err := dest.Parse()
	if err != nil {
		return err
	}
	key := streamKey
	if key == "" {
		key = ep.Key
	}
	if key == "" {
		return fmt.Errorf("%w: missing stream key", ErrInvalidURL)
	}

	p.metrics.RecordConnectAttempt()
	p.setState(StateConnecting)
	log.Printf("publisher: connecting to %s (platform=%s app=%s)", ep.Addr(), dest.Platform, ep.App)

	conn, err := p.dial(ctx, ep.Addr())
	if err != nil {
		return p.failConnect(fmt.Errorf("%w: dialing %s: %v", ErrConnectionFailed, ep.Addr(), err))
	}
	p.conn = conn
	p.counter = &countingWriter{w: conn}
	p.bw = bufio.NewWriterSize(p.counter, 16*1024)
	p.chunkSize = rtmp.DefaultChunkSize
	p.nextTx = 2
	p.streamKey = key
	p.tsBaseSet = false
	p.videoConfigSent = false
	p.audioConfigSent = false

	// Watchdog: a cancelled context closes the socket, failing whichever
	// handshake read or command write is in flight, so Connect never
	// outlives its context and never wedges opMu against Disconnect.
	watchdogDone := make(chan struct{})
	defer close(watchdogDone)
	go func() {
		select {
		case <-ctx.Done():
			select {
			case <-watchdogDone:
				// Attempt already settled; the socket is not ours to kill.
				// Callers cancel their connect context right after Connect
				// returns, which must not touch the live session.
			default:
				conn.Close()
			}
		case <-watchdogDone:
		}
	}()

	// fail reports the context error when the watchdog killed the socket;
	// the transport error it caused is just noise.
	fail := func(err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: connect aborted: %v", ErrConnectionFailed, ctxErr)
		}
		return p.failConnect(err)
	}

	if err := rtmp.PerformClientHandshake(conn); err != nil {
		return fail(fmt.Errorf("connect: %w", err))
	}

	// Raise the outgoing chunk size first so commands and media are not
	// sliced into 128-byte chunks.
	if err := p.writeMessage(rtmp.ChunkStreamControl, rtmp.MessageTypeSetChunkSize, 0, 0, rtmp.CreateSetChunkSize(rtmp.PublishChunkSize)); err != nil {
		return fail(fmt.Errorf("%w: set chunk size: %v", ErrConnectionFailed, err))
	}
	p.chunkSize = rtmp.PublishChunkSize

	// The command sequence, strictly in order. Responses are not awaited;
	// the drain loop surfaces any _error the server sends back.
	steps := []struct {
		name string
		body func() ([]byte, error)
	}{
		{"connect", func() ([]byte, error) { return rtmp.ConnectCommand(ep.App, ep.TCURL()) }},
		{"releaseStream", func() ([]byte, error) { return rtmp.ReleaseStreamCommand(p.txID(), key) }},
		{"FCPublish", func() ([]byte, error) { return rtmp.FCPublishCommand(p.txID(), key) }},
		{"createStream", func() ([]byte, error) { return rtmp.CreateStreamCommand(p.txID()) }},
	}
	for _, step := range steps {
		body, err := step.body()
		if err != nil {
			return fail(fmt.Errorf("%w: building %s: %v", ErrConnectionFailed, step.name, err))
		}
		if err := p.writeMessage(rtmp.ChunkStreamCommand, rtmp.MessageTypeCommandAMF0, 0, 0, body); err != nil {
			return fail(fmt.Errorf("%w: sending %s: %v", ErrConnectionFailed, step.name, err))
		}
	}

	p.setState(StateConnected)

	body, err := rtmp.PublishCommand(p.txID(), key)
	if err != nil {
		return fail(fmt.Errorf("%w: building publish: %v", ErrConnectionFailed, err))
	}
	if err := p.writeMessage(rtmp.ChunkStreamCommand, rtmp.MessageTypeCommandAMF0, 0, rtmp.PublishMessageStreamID, body); err != nil {
		return fail(fmt.Errorf("%w: sending publish: %v", ErrConnectionFailed, err))
	}

	// Session statistics start at the moment publishing begins.
	p.counter.reset()
	atomic.StoreUint64(&p.framesSent, 0)
	p.stateMu.Lock()
	p.startTime = time.Now()
	p.endTime = time.Time{}
	p.closing = false
	p.stateMu.Unlock()
	p.setState(StatePublishing)

	p.drainDone = make(chan struct{})
	go p.drainLoop(conn, p.drainDone)

	log.Printf("publisher: publishing to %s", ep.TCURL())
	return nil
}

// PublishVideo muxes an encoded video frame into an FLV tag and writes it
// as one chunked message. A sequence header is sent first when the frame
// carries SPS/PPS and none has been sent this session.
func (p *Publisher) PublishVideo(frame *bus.Frame) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.State() != StatePublishing {
		return ErrNotConnected
	}
	if frame == nil || frame.Type != bus.FrameTypeVideo {
		p.metrics.RecordFrameDropped("video", "invalid")
		return fmt.Errorf("%w: not a video frame", flv.ErrInvalidSampleBuffer)
	}

	ts := p.rebase(frame.TimestampMs())

	if !p.videoConfigSent {
		if !frame.ConfigBearing() {
			p.metrics.RecordFrameDropped("video", "no_config")
			return fmt.Errorf("%w: no SPS/PPS before first video tag", flv.ErrFormatDescription)
		}
		seq, err := flv.VideoSequenceHeader(frame.SPS, frame.PPS)
		if err != nil {
			p.metrics.RecordFrameDropped("video", "config")
			return err
		}
		if err := p.writeMedia(rtmp.ChunkStreamVideo, rtmp.MessageTypeVideo, ts, seq); err != nil {
			return err
		}
		p.videoConfigSent = true
	}

	payload, err := flv.VideoPayload(frame.Payload, frame.Keyframe)
	if err != nil {
		p.metrics.RecordFrameDropped("video", "mux")
		return err
	}
	if err := p.writeMedia(rtmp.ChunkStreamVideo, rtmp.MessageTypeVideo, ts, payload); err != nil {
		return err
	}

	atomic.AddUint64(&p.framesSent, 1)
	p.metrics.RecordFrameSent("video", frame.Keyframe)
	return nil
}

// PublishAudio muxes an encoded audio frame into an FLV tag and writes it
// as one chunked message. The AudioSpecificConfig goes out first.
func (p *Publisher) PublishAudio(frame *bus.Frame) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.State() != StatePublishing {
		return ErrNotConnected
	}
	if frame == nil || frame.Type != bus.FrameTypeAudio {
		p.metrics.RecordFrameDropped("audio", "invalid")
		return fmt.Errorf("%w: not an audio frame", flv.ErrInvalidSampleBuffer)
	}

	ts := p.rebase(frame.TimestampMs())

	if !p.audioConfigSent {
		if !frame.ConfigBearing() {
			p.metrics.RecordFrameDropped("audio", "no_config")
			return fmt.Errorf("%w: no AudioSpecificConfig before first audio tag", flv.ErrFormatDescription)
		}
		seq, err := flv.AudioSequenceHeader(frame.AudioSpecificConfig)
		if err != nil {
			p.metrics.RecordFrameDropped("audio", "config")
			return err
		}
		if err := p.writeMedia(rtmp.ChunkStreamAudio, rtmp.MessageTypeAudio, ts, seq); err != nil {
			return err
		}
		p.audioConfigSent = true
	}

	payload, err := flv.AudioPayload(frame.Payload)
	if err != nil {
		p.metrics.RecordFrameDropped("audio", "mux")
		return err
	}
	if err := p.writeMedia(rtmp.ChunkStreamAudio, rtmp.MessageTypeAudio, ts, payload); err != nil {
		return err
	}

	p.metrics.RecordFrameSent("audio", false)
	return nil
}

// PublishMetadata sends an @setDataFrame/onMetaData script message.
func (p *Publisher) PublishMetadata(meta amf0.Object) error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	if p.State() != StatePublishing {
		return ErrNotConnected
	}
	body, err := rtmp.SetDataFrameCommand(meta)
	if err != nil {
		return err
	}
	return p.writeMedia(rtmp.ChunkStreamCommand, rtmp.MessageTypeDataAMF0, 0, body)
}

// Disconnect closes the transport from any state, zeroes statistics, and
// returns the publisher to Disconnected.
func (p *Publisher) Disconnect() error {
	p.opMu.Lock()
	defer p.opMu.Unlock()

	p.stateMu.Lock()
	p.closing = true
	wasPublishing := p.state == StatePublishing
	p.stateMu.Unlock()

	if p.conn != nil {
		if wasPublishing {
			// Best-effort courtesy to the server; the socket closes anyway.
			if body, err := rtmp.FCUnpublishCommand(p.txID(), p.streamKey); err == nil {
				_ = p.writeMessage(rtmp.ChunkStreamCommand, rtmp.MessageTypeCommandAMF0, 0, 0, body)
			}
		}
		p.conn.Close()
		if p.drainDone != nil {
			<-p.drainDone
		}
		p.metrics.RecordDisconnect()
		log.Printf("publisher: disconnected")
	}

	p.conn = nil
	p.bw = nil
	p.drainDone = nil
	p.streamKey = ""
	if p.counter != nil {
		p.counter.reset()
	}
	atomic.StoreUint64(&p.framesSent, 0)
	p.tsBaseSet = false
	p.videoConfigSent = false
	p.audioConfigSent = false
	p.nextTx = 2

	p.stateMu.Lock()
	p.state = StateDisconnected
	p.lastErr = nil
	p.startTime = time.Time{}
	p.endTime = time.Time{}
	p.closing = false
	p.stateMu.Unlock()
	p.metrics.SetConnectionState(int(StateDisconnected))
	return nil
}

// writeMessage writes one message through the buffered, counted writer.
func (p *Publisher) writeMessage(csID uint32, msgType byte, timestamp uint32, streamID uint32, body []byte) error {
	return rtmp.WriteMessage(p.bw, csID, msgType, timestamp, streamID, body, p.chunkSize)
}

// writeMedia writes one media/data message; a transport failure here is
// fatal to the session.
func (p *Publisher) writeMedia(csID uint32, msgType byte, timestamp uint32, body []byte) error {
	before := p.counter.count()
	if err := p.writeMessage(csID, msgType, timestamp, rtmp.PublishMessageStreamID, body); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrConnectionFailed, err)
		p.setError(wrapped)
		return wrapped
	}
	p.metrics.RecordBytes(p.counter.count() - before)
	return nil
}

// rebase shifts frame timestamps so the first media tag goes out at 0.
func (p *Publisher) rebase(ms uint32) uint32 {
	if !p.tsBaseSet {
		p.tsBase = ms
		p.tsBaseSet = true
	}
	if ms < p.tsBase {
		return 0
	}
	return ms - p.tsBase
}

// txID returns the next command transaction id.
func (p *Publisher) txID() float64 {
	id := p.nextTx
	p.nextTx++
	return id
}

func (p *Publisher) setState(s State) {
	p.stateMu.Lock()
	p.state = s
	p.stateMu.Unlock()
	p.metrics.SetConnectionState(int(s))
}

// setError moves the publisher into StateError unless a Disconnect is
// already tearing the session down.
func (p *Publisher) setError(err error) {
	p.stateMu.Lock()
	if p.closing {
		p.stateMu.Unlock()
		return
	}
	p.state = StateError
	p.lastErr = err
	if !p.startTime.IsZero() && p.endTime.IsZero() {
		p.endTime = time.Now()
	}
	p.stateMu.Unlock()
	p.metrics.SetConnectionState(int(StateError))
	log.Printf("publisher: session failed: %v", err)
}

// failConnect records a failed connection attempt and surfaces the error.
func (p *Publisher) failConnect(err error) error {
	p.metrics.RecordConnectFailure()
	if p.conn != nil {
		p.conn.Close()
	}
	p.setError(err)
	return err
}
