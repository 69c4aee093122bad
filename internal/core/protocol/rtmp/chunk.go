// RTMP chunk framing: writing messages as Type-0 chunks with Type-3
// continuations, and reading/reassembling inbound messages.

package rtmp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrChunkTooLarge indicates a peer announced a chunk size beyond the
	// protocol maximum.
	ErrChunkTooLarge = errors.New("rtmp: chunk size too large")
	// ErrInvalidChunkHeader indicates a malformed chunk header.
	ErrInvalidChunkHeader = errors.New("rtmp: invalid chunk header")
)

// Message is a complete RTMP message reassembled from chunks.
type Message struct {
	Type      byte
	Timestamp uint32
	StreamID  uint32
	Body      []byte
}

// WriteMessage writes a message as one Type-0 chunk followed by Type-3
// continuation chunks when the body exceeds chunkSize. One call produces
// one contiguous message on the wire; callers serialize access to w.
func WriteMessage(w io.Writer, csID uint32, msgType byte, timestamp uint32, streamID uint32, body []byte, chunkSize uint32) error {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	bodyLen := uint32(len(body))
	offset := uint32(0)
	extended := timestamp >= 0xFFFFFF

	for offset == 0 || offset < bodyLen {
		format := byte(ChunkFmt0)
		if offset > 0 {
			format = ChunkFmt3
		}
		if err := writeBasicHeader(w, format, csID); err != nil {
			return err
		}

		// An extended timestamp repeats on every continuation chunk.
		if format == ChunkFmt3 && extended {
			if err := binary.Write(w, binary.BigEndian, timestamp); err != nil {
				return err
			}
		}

		if format == ChunkFmt0 {
			ts := timestamp
			if ts >= 0xFFFFFF {
				ts = 0xFFFFFF
			}
			header := make([]byte, 11)
			header[0] = byte(ts >> 16)
			header[1] = byte(ts >> 8)
			header[2] = byte(ts)
			header[3] = byte(bodyLen >> 16)
			header[4] = byte(bodyLen >> 8)
			header[5] = byte(bodyLen)
			header[6] = msgType
			// Message stream id is the one little-endian field in RTMP.
			binary.LittleEndian.PutUint32(header[7:11], streamID)
			if _, err := w.Write(header); err != nil {
				return err
			}
			if extended {
				if err := binary.Write(w, binary.BigEndian, timestamp); err != nil {
					return err
				}
			}
		}

		chunkLen := chunkSize
		if offset+chunkLen > bodyLen {
			chunkLen = bodyLen - offset
		}
		if chunkLen > 0 {
			if _, err := w.Write(body[offset : offset+chunkLen]); err != nil {
				return err
			}
		}
		offset += chunkLen
		if bodyLen == 0 {
			break
		}
	}

	if flusher, ok := w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// writeBasicHeader writes the 1-3 byte basic header for a chunk stream id.
func writeBasicHeader(w io.Writer, format byte, csID uint32) error {
	switch {
	case csID < 2:
		return fmt.Errorf("%w: reserved chunk stream id %d", ErrInvalidChunkHeader, csID)
	case csID < 64:
		_, err := w.Write([]byte{format<<6 | byte(csID)})
		return err
	case csID < 320:
		_, err := w.Write([]byte{format << 6, byte(csID - 64)})
		return err
	default:
		buf := []byte{format<<6 | 1, 0, 0}
		binary.LittleEndian.PutUint16(buf[1:], uint16(csID-64))
		_, err := w.Write(buf)
		return err
	}
}

// chunkStream carries per-chunk-stream reassembly state.
type chunkStream struct {
	timestamp      uint32
	timestampDelta uint32
	messageLength  uint32
	messageType    byte
	streamID       uint32
	extended       bool // last header carried an extended timestamp
	buf            []byte
}

// MessageReader reads chunks and reassembles complete messages. It is the
// read-side complement of WriteMessage, used to drain and interpret what
// the server sends back during a publish session.
type MessageReader struct {
	r         io.Reader
	chunkSize uint32
	streams   map[uint32]*chunkStream
}

// NewMessageReader creates a reader starting at the protocol default chunk
// size. Call SetChunkSize when the peer announces a new one.
func NewMessageReader(r io.Reader) *MessageReader {
	return &MessageReader{
		r:         r,
		chunkSize: DefaultChunkSize,
		streams:   make(map[uint32]*chunkStream),
	}
}

// SetChunkSize sets the chunk size used to slice inbound message bodies.
func (mr *MessageReader) SetChunkSize(size uint32) {
	if size > 0 && size <= MaxChunkSize {
		mr.chunkSize = size
	}
}

// ReadMessage reads chunks until one message is complete and returns it.
func (mr *MessageReader) ReadMessage() (*Message, error) {
	for {
		msg, err := mr.readChunk()
		if err != nil {
			return nil, err
		}
		if msg != nil {
			return msg, nil
		}
	}
}

// readChunk consumes one chunk, returning a message when it completes one.
func (mr *MessageReader) readChunk() (*Message, error) {
	format, csID, err := mr.readBasicHeader()
	if err != nil {
		return nil, err
	}

	cs, ok := mr.streams[csID]
	if !ok {
		cs = &chunkStream{}
		mr.streams[csID] = cs
	}

	if err := mr.readMessageHeader(cs, format); err != nil {
		return nil, err
	}

	remaining := cs.messageLength - uint32(len(cs.buf))
	payloadLen := mr.chunkSize
	if payloadLen > remaining {
		payloadLen = remaining
	}
	if payloadLen > 0 {
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(mr.r, payload); err != nil {
			return nil, err
		}
		cs.buf = append(cs.buf, payload...)
	}

	if uint32(len(cs.buf)) < cs.messageLength {
		return nil, nil
	}

	body := cs.buf
	cs.buf = nil
	return &Message{
		Type:      cs.messageType,
		Timestamp: cs.timestamp,
		StreamID:  cs.streamID,
		Body:      body,
	}, nil
}

func (mr *MessageReader) readBasicHeader() (format byte, csID uint32, err error) {
	var first [1]byte
	if _, err = io.ReadFull(mr.r, first[:]); err != nil {
		return 0, 0, err
	}
	format = first[0] >> 6
	csID = uint32(first[0] & 0x3F)

	switch csID {
	case 0:
		var ext [1]byte
		if _, err = io.ReadFull(mr.r, ext[:]); err != nil {
			return 0, 0, err
		}
		csID = uint32(ext[0]) + 64
	case 1:
		var ext [2]byte
		if _, err = io.ReadFull(mr.r, ext[:]); err != nil {
			return 0, 0, err
		}
		csID = uint32(binary.LittleEndian.Uint16(ext[:])) + 64
	}
	return format, csID, nil
}

func (mr *MessageReader) readMessageHeader(cs *chunkStream, format byte) error {
	switch format {
	case ChunkFmt0:
		var header [11]byte
		if _, err := io.ReadFull(mr.r, header[:]); err != nil {
			return err
		}
		ts := uint32(header[0])<<16 | uint32(header[1])<<8 | uint32(header[2])
		cs.messageLength = uint32(header[3])<<16 | uint32(header[4])<<8 | uint32(header[5])
		cs.messageType = header[6]
		cs.streamID = binary.LittleEndian.Uint32(header[7:11])
		cs.timestampDelta = 0
		cs.extended = ts == 0xFFFFFF
		if cs.extended {
			if err := binary.Read(mr.r, binary.BigEndian, &ts); err != nil {
				return err
			}
		}
		cs.timestamp = ts
		cs.buf = cs.buf[:0]

	case ChunkFmt1:
		var header [7]byte
		if _, err := io.ReadFull(mr.r, header[:]); err != nil {
			return err
		}
		delta := uint32(header[0])<<16 | uint32(header[1])<<8 | uint32(header[2])
		cs.messageLength = uint32(header[3])<<16 | uint32(header[4])<<8 | uint32(header[5])
		cs.messageType = header[6]
		cs.extended = delta == 0xFFFFFF
		if cs.extended {
			if err := binary.Read(mr.r, binary.BigEndian, &delta); err != nil {
				return err
			}
		}
		cs.timestampDelta = delta
		cs.timestamp += delta
		cs.buf = cs.buf[:0]

	case ChunkFmt2:
		var header [3]byte
		if _, err := io.ReadFull(mr.r, header[:]); err != nil {
			return err
		}
		delta := uint32(header[0])<<16 | uint32(header[1])<<8 | uint32(header[2])
		cs.extended = delta == 0xFFFFFF
		if cs.extended {
			if err := binary.Read(mr.r, binary.BigEndian, &delta); err != nil {
				return err
			}
		}
		cs.timestampDelta = delta
		cs.timestamp += delta
		cs.buf = cs.buf[:0]

	case ChunkFmt3:
		// Continuation: no message header, but the extended timestamp
		// field repeats when the preceding header carried one.
		if cs.extended {
			var ext uint32
			if err := binary.Read(mr.r, binary.BigEndian, &ext); err != nil {
				return err
			}
		}
		// A fmt-3 chunk that starts a fresh message (empty buffer)
		// repeats the previous delta.
		if len(cs.buf) == 0 && cs.timestampDelta > 0 {
			cs.timestamp += cs.timestampDelta
		}
	}
	return nil
}

// ParseSetChunkSize parses a Set Chunk Size message body.
func ParseSetChunkSize(body []byte) (uint32, error) {
	if len(body) < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	size := binary.BigEndian.Uint32(body[0:4]) & 0x7FFFFFFF
	if size > MaxChunkSize {
		return 0, ErrChunkTooLarge
	}
	return size, nil
}

// CreateSetChunkSize creates a Set Chunk Size message body.
func CreateSetChunkSize(size uint32) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, size)
	return body
}
