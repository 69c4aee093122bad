// Client side of the RTMP handshake: C0/C1 out, S0/S1/S2 in, C2 out.
// The handshake must complete before any chunked traffic is sent.

package rtmp

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

var (
	// ErrHandshakeFailed classifies every handshake failure, transport or
	// protocol level.
	ErrHandshakeFailed = errors.New("rtmp: handshake failed")
	// ErrInvalidVersion indicates the peer answered with an S0 byte other
	// than RTMP version 3. Wraps ErrHandshakeFailed.
	ErrInvalidVersion = fmt.Errorf("%w: invalid version", ErrHandshakeFailed)
)

// PerformClientHandshake performs the client side of the RTMP handshake.
// Sends C0+C1, reads exactly S0+S1+S2, validates the version, echoes S1
// back as C2. Never retries internally; any failure surfaces to the caller.
func PerformClientHandshake(conn io.ReadWriter) error {
	// C0 (version) + C1 (time, zero, random fill) in one write.
	c0c1 := make([]byte, 1+HandshakeBlockSize)
	c0c1[0] = RTMPVersion
	binary.BigEndian.PutUint32(c0c1[1:5], uint32(time.Now().Unix()))
	if _, err := rand.Read(c0c1[9:]); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	if _, err := conn.Write(c0c1); err != nil {
		return fmt.Errorf("%w: writing C0+C1: %v", ErrHandshakeFailed, err)
	}

	// Exactly S0 + S1 + S2.
	s0s1s2 := make([]byte, 1+2*HandshakeBlockSize)
	if _, err := io.ReadFull(conn, s0s1s2); err != nil {
		return fmt.Errorf("%w: reading S0+S1+S2: %v", ErrHandshakeFailed, err)
	}
	if s0s1s2[0] != RTMPVersion {
		return fmt.Errorf("%w: S0 is 0x%02x", ErrInvalidVersion, s0s1s2[0])
	}

	// C2 echoes S1.
	s1 := s0s1s2[1 : 1+HandshakeBlockSize]
	if _, err := conn.Write(s1); err != nil {
		return fmt.Errorf("%w: writing C2: %v", ErrHandshakeFailed, err)
	}

	return nil
}
