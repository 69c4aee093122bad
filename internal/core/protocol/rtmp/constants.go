// Package rtmp implements the client side of the RTMP wire protocol:
// handshake, chunked message framing, and AMF0 command construction.
package rtmp

// RTMP version constant.
const RTMPVersion = 3

// Handshake sizes.
const (
	HandshakeRandomSize = 1528
	HandshakeBlockSize  = 1536 // C1/C2/S1/S2
)

// Default chunk size peers start with before any Set Chunk Size message.
const DefaultChunkSize = 128

// PublishChunkSize is the outgoing chunk size this client switches to after
// the handshake, so media tags are not sliced into 128-byte chunks.
const PublishChunkSize = 4096

// Maximum chunk size a peer may announce.
const MaxChunkSize = 16777215 // 2^24 - 1

// Message type ids.
const (
	MessageTypeSetChunkSize     = 1
	MessageTypeAbortMessage     = 2
	MessageTypeAck              = 3
	MessageTypeUserCtrl         = 4
	MessageTypeWinAckSize       = 5
	MessageTypeSetPeerBandwidth = 6
	MessageTypeAudio            = 8
	MessageTypeVideo            = 9
	MessageTypeDataAMF0         = 18
	MessageTypeSharedObjectAMF0 = 19
	MessageTypeCommandAMF0      = 20
)

// Chunk basic header format types.
const (
	ChunkFmt0 = 0 // 11-byte message header
	ChunkFmt1 = 1 // 7-byte message header
	ChunkFmt2 = 2 // 3-byte message header
	ChunkFmt3 = 3 // no message header
)

// Chunk stream ids this client writes on.
const (
	ChunkStreamControl = 2
	ChunkStreamCommand = 3
	ChunkStreamAudio   = 4
	ChunkStreamVideo   = 6
)

// PublishMessageStreamID is the message stream id used for publish and
// media messages. The command sequence is sent without awaiting the
// createStream response, and every surveyed ingest server assigns 1 first.
const PublishMessageStreamID = 1
