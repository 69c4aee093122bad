// Package amf0 implements the AMF0 value encoding used by RTMP command
// and data messages. Only the types RTMP publishing needs are supported.
package amf0

// AMF0 type markers.
const (
	TypeNumber      = 0x00
	TypeBoolean     = 0x01
	TypeString      = 0x02
	TypeObject      = 0x03
	TypeNull        = 0x05
	TypeUndefined   = 0x06
	TypeReference   = 0x07
	TypeECMAArray   = 0x08
	TypeObjectEnd   = 0x09
	TypeStrictArray = 0x0A
	TypeDate        = 0x0B
	TypeLongString  = 0x0C
)

// Value represents a decoded AMF0 value: float64, bool, string, nil (null),
// Undefined, Object, or Array.
type Value interface{}

// Undefined is the AMF0 undefined marker value, kept distinct from nil so
// null and undefined survive a round trip.
type Undefined struct{}

// Property is a single name/value pair inside an Object.
type Property struct {
	Name  string
	Value Value
}

// Object represents an AMF0 object as an ordered property list.
// RTMP peers are order-sensitive in practice, so insertion order is
// preserved through encode/decode.
type Object []Property

// Get returns the value for name and whether it was present.
func (o Object) Get(name string) (Value, bool) {
	for _, p := range o {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// GetString returns the string value for name, or "" if absent or not a string.
func (o Object) GetString(name string) string {
	v, ok := o.Get(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Array represents an AMF0 strict array.
type Array []Value
