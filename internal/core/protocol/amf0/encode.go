// AMF0 encoding. Command bodies are written as back-to-back values with no
// outer framing; the first byte on the wire is the first value's marker.

package amf0

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrUnsupportedType indicates a Go value with no AMF0 representation.
var ErrUnsupportedType = errors.New("amf0: unsupported value type")

// Encode writes a single AMF0 value to the writer.
func Encode(w io.Writer, val Value) error {
	switch v := val.(type) {
	case float64:
		return encodeNumber(w, v)
	case int:
		return encodeNumber(w, float64(v))
	case uint32:
		return encodeNumber(w, float64(v))
	case bool:
		return encodeBoolean(w, v)
	case string:
		return encodeString(w, v)
	case nil:
		return writeMarker(w, TypeNull)
	case Undefined:
		return writeMarker(w, TypeUndefined)
	case Object:
		return encodeObject(w, v)
	case Array:
		return encodeArray(w, v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, val)
	}
}

// EncodeAll writes several values back to back, the layout RTMP commands use.
func EncodeAll(w io.Writer, vals ...Value) error {
	for _, v := range vals {
		if err := Encode(w, v); err != nil {
			return err
		}
	}
	return nil
}

// EncodeBytes encodes several values into a fresh byte slice.
func EncodeBytes(vals ...Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeAll(&buf, vals...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeMarker(w io.Writer, marker byte) error {
	_, err := w.Write([]byte{marker})
	return err
}

func encodeNumber(w io.Writer, num float64) error {
	if err := writeMarker(w, TypeNumber); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, num)
}

func encodeBoolean(w io.Writer, b bool) error {
	if err := writeMarker(w, TypeBoolean); err != nil {
		return err
	}
	var val byte
	if b {
		val = 1
	}
	_, err := w.Write([]byte{val})
	return err
}

func encodeString(w io.Writer, s string) error {
	if len(s) > 0xFFFF {
		return fmt.Errorf("%w: string longer than 65535 bytes", ErrUnsupportedType)
	}
	if err := writeMarker(w, TypeString); err != nil {
		return err
	}
	return writeUTF8(w, s)
}

// writeUTF8 writes a u16 byte-length-prefixed string without a marker,
// the form object property names use.
func writeUTF8(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func encodeObject(w io.Writer, obj Object) error {
	if err := writeMarker(w, TypeObject); err != nil {
		return err
	}
	for _, p := range obj {
		if err := writeUTF8(w, p.Name); err != nil {
			return err
		}
		if err := Encode(w, p.Value); err != nil {
			return err
		}
	}
	// Empty name + end marker terminates the object.
	if err := binary.Write(w, binary.BigEndian, uint16(0)); err != nil {
		return err
	}
	return writeMarker(w, TypeObjectEnd)
}

func encodeArray(w io.Writer, arr Array) error {
	if err := writeMarker(w, TypeStrictArray); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(arr))); err != nil {
		return err
	}
	for _, v := range arr {
		if err := Encode(w, v); err != nil {
			return err
		}
	}
	return nil
}
