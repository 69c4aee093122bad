// AMF0 decoding. RTMP packs several values back to back with no outer
// length, so callers use Decode for one value, DecodeN for a known count,
// and DecodeAll to drain a command body.

package amf0

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var (
	// ErrInsufficientData indicates the input ended before the value it
	// declared was complete.
	ErrInsufficientData = errors.New("amf0: insufficient data")
	// ErrInvalidMarker indicates an unrecognized type marker byte.
	ErrInvalidMarker = errors.New("amf0: invalid type marker")
	// ErrInvalidString indicates a string span that is not valid UTF-8.
	ErrInvalidString = errors.New("amf0: string is not valid UTF-8")
)

// Decode reads and decodes a single AMF0 value from the reader.
func Decode(r io.Reader) (Value, error) {
	marker, err := readByte(r)
	if err != nil {
		return nil, err
	}

	switch marker {
	case TypeNumber:
		return decodeNumber(r)
	case TypeBoolean:
		return decodeBoolean(r)
	case TypeString:
		return decodeString(r)
	case TypeNull:
		return nil, nil
	case TypeUndefined:
		return Undefined{}, nil
	case TypeObject:
		return decodeObject(r)
	case TypeECMAArray:
		// ECMA arrays carry an advisory count, then object-style pairs.
		var count uint32
		if err := binary.Read(r, binary.BigEndian, &count); err != nil {
			return nil, truncated(err)
		}
		return decodeObject(r)
	case TypeStrictArray:
		return decodeStrictArray(r)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidMarker, marker)
	}
}

// DecodeN decodes exactly n consecutive values.
func DecodeN(r io.Reader, n int) ([]Value, error) {
	values := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		v, err := Decode(r)
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}

// DecodeAll decodes values until the reader is exhausted.
// A clean EOF between values is not an error.
func DecodeAll(r io.Reader) ([]Value, error) {
	var values []Value
	for {
		marker, err := readByte(r)
		if err != nil {
			if errors.Is(err, ErrInsufficientData) {
				return values, nil
			}
			return values, err
		}
		v, err := decodeBody(r, marker)
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
}

// Skip advances past one value without materializing it.
func Skip(r io.Reader) error {
	marker, err := readByte(r)
	if err != nil {
		return err
	}
	return skipBody(r, marker)
}

// decodeBody decodes the value following an already-consumed marker.
func decodeBody(r io.Reader, marker byte) (Value, error) {
	switch marker {
	case TypeNumber:
		return decodeNumber(r)
	case TypeBoolean:
		return decodeBoolean(r)
	case TypeString:
		return decodeString(r)
	case TypeNull:
		return nil, nil
	case TypeUndefined:
		return Undefined{}, nil
	case TypeObject:
		return decodeObject(r)
	case TypeECMAArray:
		var count uint32
		if err := binary.Read(r, binary.BigEndian, &count); err != nil {
			return nil, truncated(err)
		}
		return decodeObject(r)
	case TypeStrictArray:
		return decodeStrictArray(r)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrInvalidMarker, marker)
	}
}

func decodeNumber(r io.Reader) (float64, error) {
	var num float64
	if err := binary.Read(r, binary.BigEndian, &num); err != nil {
		return 0, truncated(err)
	}
	return num, nil
}

func decodeBoolean(r io.Reader) (bool, error) {
	b, err := readByte(r)
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// decodeString reads a u16 byte-length-prefixed UTF-8 string.
// The length counts bytes, not characters.
func decodeString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", truncated(err)
	}
	if length == 0 {
		return "", nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", truncated(err)
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidString
	}
	return string(buf), nil
}

// decodeObject reads name/value pairs until the empty-name + object-end
// marker, consuming exactly the bytes the encoding declares.
func decodeObject(r io.Reader) (Object, error) {
	var obj Object
	for {
		var nameLen uint16
		if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
			return nil, truncated(err)
		}
		if nameLen == 0 {
			end, err := readByte(r)
			if err != nil {
				return nil, err
			}
			if end != TypeObjectEnd {
				return nil, fmt.Errorf("%w: expected object end, got 0x%02x", ErrInvalidMarker, end)
			}
			if obj == nil {
				obj = Object{}
			}
			return obj, nil
		}
		nameBuf := make([]byte, nameLen)
		if _, err := io.ReadFull(r, nameBuf); err != nil {
			return nil, truncated(err)
		}
		if !utf8.Valid(nameBuf) {
			return nil, ErrInvalidString
		}
		value, err := Decode(r)
		if err != nil {
			return nil, err
		}
		obj = append(obj, Property{Name: string(nameBuf), Value: value})
	}
}

func decodeStrictArray(r io.Reader) (Array, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, truncated(err)
	}
	arr := make(Array, 0, count)
	for i := uint32(0); i < count; i++ {
		v, err := Decode(r)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

// skipBody advances past the value following an already-consumed marker.
func skipBody(r io.Reader, marker byte) error {
	switch marker {
	case TypeNumber:
		return discard(r, 8)
	case TypeBoolean:
		return discard(r, 1)
	case TypeString:
		var length uint16
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return truncated(err)
		}
		return discard(r, int64(length))
	case TypeNull, TypeUndefined:
		return nil
	case TypeObject:
		return skipObject(r)
	case TypeECMAArray:
		if err := discard(r, 4); err != nil {
			return err
		}
		return skipObject(r)
	case TypeStrictArray:
		var count uint32
		if err := binary.Read(r, binary.BigEndian, &count); err != nil {
			return truncated(err)
		}
		for i := uint32(0); i < count; i++ {
			if err := Skip(r); err != nil {
				return err
			}
		}
		return nil
	case TypeLongString:
		var length uint32
		if err := binary.Read(r, binary.BigEndian, &length); err != nil {
			return truncated(err)
		}
		return discard(r, int64(length))
	default:
		return fmt.Errorf("%w: 0x%02x", ErrInvalidMarker, marker)
	}
}

func skipObject(r io.Reader) error {
	for {
		var nameLen uint16
		if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
			return truncated(err)
		}
		if nameLen == 0 {
			_, err := readByte(r)
			return err
		}
		if err := discard(r, int64(nameLen)); err != nil {
			return err
		}
		if err := Skip(r); err != nil {
			return err
		}
	}
}

func readByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, truncated(err)
	}
	return buf[0], nil
}

func discard(r io.Reader, n int64) error {
	if n == 0 {
		return nil
	}
	if _, err := io.CopyN(io.Discard, r, n); err != nil {
		return truncated(err)
	}
	return nil
}

// truncated maps reader exhaustion onto ErrInsufficientData so callers can
// distinguish short input from malformed input.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrInsufficientData
	}
	return err
}
