// FLV file header generation. The header is written once at the start of a
// stream or file, followed by a zero previous-tag-size field.

package flv

// Header represents an FLV file header.
type Header struct {
	HasAudio bool
	HasVideo bool
}

// NewHeader creates a new FLV header with the specified audio/video flags.
func NewHeader(hasAudio, hasVideo bool) *Header {
	return &Header{
		HasAudio: hasAudio,
		HasVideo: hasVideo,
	}
}

// Bytes returns the 9-byte FLV header.
func (h *Header) Bytes() []byte {
	header := make([]byte, HeaderSize)

	copy(header[0:3], Signature)
	header[3] = Version

	flags := byte(0)
	if h.HasAudio {
		flags |= 0x04
	}
	if h.HasVideo {
		flags |= 0x01
	}
	header[4] = flags

	// Data offset points at the first tag, which follows the header and the
	// 4-byte zero previous-tag-size field.
	offset := uint32(HeaderSize)
	header[5] = byte(offset >> 24)
	header[6] = byte(offset >> 16)
	header[7] = byte(offset >> 8)
	header[8] = byte(offset)

	return header
}

// FileBytes returns the header plus the 4-byte zero previous-tag-size
// placeholder, the 13 bytes that open every FLV stream.
func (h *Header) FileBytes() []byte {
	out := make([]byte, HeaderSize+4)
	copy(out, h.Bytes())
	return out
}
