// Server side of the RTMP handshake, the peer of client_handshake.go.
// Kept for loopback testing of the client path against a local ingest stub.

package rtmp

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// PerformServerHandshake performs the server side of the RTMP handshake.
// Reads C0+C1, sends S0+S1+S2 (S2 echoes C1), reads C2.
func PerformServerHandshake(conn io.ReadWriter) error {
	c0c1 := make([]byte, 1+HandshakeBlockSize)
	if _, err := io.ReadFull(conn, c0c1); err != nil {
		return fmt.Errorf("%w: reading C0+C1: %v", ErrHandshakeFailed, err)
	}
	if c0c1[0] != RTMPVersion {
		return fmt.Errorf("%w: C0 is 0x%02x", ErrInvalidVersion, c0c1[0])
	}

	s0s1s2 := make([]byte, 1+2*HandshakeBlockSize)
	s0s1s2[0] = RTMPVersion
	s1 := s0s1s2[1 : 1+HandshakeBlockSize]
	binary.BigEndian.PutUint32(s1[0:4], uint32(time.Now().Unix()))
	if _, err := rand.Read(s1[8:]); err != nil {
		return fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	copy(s0s1s2[1+HandshakeBlockSize:], c0c1[1:]) // S2 echoes C1
	if _, err := conn.Write(s0s1s2); err != nil {
		return fmt.Errorf("%w: writing S0+S1+S2: %v", ErrHandshakeFailed, err)
	}

	c2 := make([]byte, HandshakeBlockSize)
	if _, err := io.ReadFull(conn, c2); err != nil {
		return fmt.Errorf("%w: reading C2: %v", ErrHandshakeFailed, err)
	}

	return nil
}
