// Package publisher owns one RTMP connection and drives it through
// handshake, application connect, stream creation, and publishing.
package publisher

import (
	"errors"

	"github.com/arkavo-org/streampush/internal/core/protocol/rtmp"
)

var (
	// ErrInvalidURL indicates a malformed destination URL.
	ErrInvalidURL = errors.New("publisher: invalid destination URL")
	// ErrConnectionFailed indicates a transport-level failure. Fatal to the
	// session: the caller must Disconnect and Connect again.
	ErrConnectionFailed = errors.New("publisher: connection failed")
	// ErrHandshakeFailed indicates the RTMP handshake did not complete.
	ErrHandshakeFailed = rtmp.ErrHandshakeFailed
	// ErrPublishFailed indicates the server rejected the publish sequence.
	ErrPublishFailed = errors.New("publisher: publish failed")
	// ErrNotConnected indicates a publish call outside the Publishing state.
	// No I/O is performed and no counters move.
	ErrNotConnected = errors.New("publisher: not connected")
	// ErrAlreadyConnected indicates Connect was called while a connection
	// attempt or session is still active.
	ErrAlreadyConnected = errors.New("publisher: connection already active")
)
