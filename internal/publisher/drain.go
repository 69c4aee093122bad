// Server message drain. Ingest servers send window acknowledgements,
// SetChunkSize, and command results back on the same connection; leaving
// them unread eventually stalls the socket. The drain goroutine consumes
// everything, honors incoming SetChunkSize, and surfaces rejections.

package publisher

import (
	"bufio"
	"bytes"
	"io"
	"log"

	"github.com/arkavo-org/streampush/internal/core/protocol/amf0"
	"github.com/arkavo-org/streampush/internal/core/protocol/rtmp"
)

// drainLoop reads server messages until the connection closes. It runs for
// the lifetime of one session; Disconnect closes the socket and waits on
// done before reusing the publisher.
func (p *Publisher) drainLoop(conn io.Reader, done chan struct{}) {
	defer close(done)

	mr := rtmp.NewMessageReader(bufio.NewReader(conn))
	for {
		msg, err := mr.ReadMessage()
		if err != nil {
			p.stateMu.RLock()
			closing := p.closing
			publishing := p.state == StatePublishing
			p.stateMu.RUnlock()
			if !closing && publishing {
				p.setError(ErrConnectionFailed)
			}
			return
		}

		switch msg.Type {
		case rtmp.MessageTypeSetChunkSize:
			size, err := rtmp.ParseSetChunkSize(msg.Body)
			if err != nil {
				log.Printf("publisher: ignoring bad SetChunkSize: %v", err)
				continue
			}
			mr.SetChunkSize(size)
		case rtmp.MessageTypeCommandAMF0:
			p.handleServerCommand(msg.Body)
		default:
			// Acknowledgements, bandwidth hints, user control: consume and move on.
		}
	}
}

// handleServerCommand inspects a command from the server. Only rejections
// matter; _result and success-level onStatus messages need no action since
// the command sequence is sent without awaiting them.
func (p *Publisher) handleServerCommand(body []byte) {
	values, err := amf0.DecodeAll(bytes.NewReader(body))
	if err != nil || len(values) == 0 {
		return
	}
	name, ok := values[0].(string)
	if !ok {
		return
	}

	switch name {
	case "_error":
		log.Printf("publisher: server returned _error: %s", describeStatus(values))
		p.setError(ErrPublishFailed)
	case "onStatus":
		// onStatus carries tx id, a null, then the info object.
		for _, v := range values[1:] {
			info, ok := v.(amf0.Object)
			if !ok {
				continue
			}
			if info.GetString("level") == "error" {
				log.Printf("publisher: server rejected publish: %s", describeStatus(values))
				p.setError(ErrPublishFailed)
			}
			return
		}
	}
}

// describeStatus extracts code/description from the first info object for
// logging.
func describeStatus(values []amf0.Value) string {
	for _, v := range values {
		info, ok := v.(amf0.Object)
		if !ok {
			continue
		}
		code := info.GetString("code")
		desc := info.GetString("description")
		if desc != "" {
			return code + ": " + desc
		}
		return code
	}
	return "no status info"
}
