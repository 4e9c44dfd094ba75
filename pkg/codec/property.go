package codec

import "encoding/binary"

// LengthPrefixSize is the width of every length or element-count prefix.
const LengthPrefixSize = 4

var byteOrder = binary.LittleEndian

// Property is the contract every field of a record implements.
//
// Serialize writes exactly SerialLength() bytes at the start of buf and
// returns that count. Deserialize replaces the current value from the start
// of buf and returns the number of bytes consumed, which equals the
// SerialLength() of the resulting value.
type Property interface {
	// Reset restores the zero value of the property
	Reset()
	Serialize(buf []byte) (int, error)
	Deserialize(buf []byte) (int, error)
	// SerialLength is the encoded size of the current value
	SerialLength() int
	// MaxSerialLength is the encoded size with every variable part at capacity
	MaxSerialLength() int
}

// CopyProperty replaces the value of dst with the value of src by passing it
// through the wire encoding. dst and src must be of the same field type.
func CopyProperty(dst, src Property) error {
	buf := make([]byte, src.SerialLength())
	if _, err := src.Serialize(buf); err != nil {
		return err
	}
	_, err := dst.Deserialize(buf)
	return err
}

func putLengthPrefix(buf []byte, n int) {
	byteOrder.PutUint32(buf, uint32(n))
}

func readLengthPrefix(buf []byte) (uint32, error) {
	if len(buf) < LengthPrefixSize {
		return 0, shortBuffer(LengthPrefixSize, len(buf))
	}
	return byteOrder.Uint32(buf), nil
}
