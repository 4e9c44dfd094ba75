// Package codec provides schema-driven binary serialization of records.
//
// A record is an ordered, fixed list of properties. Every property knows how
// to reset itself, write itself into a caller-supplied buffer, read itself
// back, and report its current and worst-case encoded length. A record
// implements the same operations by walking its properties in declared
// order, so records nest inside records and inside collections.
//
// # Wire Format
//
// All integers, including length prefixes, are little-endian.
//
//	Scalar         native width (bool/int8/uint8: 1, 16-bit: 2, 32-bit: 4, 64-bit: 8)
//	FixedBuffer    raw bytes, exactly the declared capacity
//	DynamicBuffer  [Length(4)][Bytes]
//	Reference      the nested record's own encoding, no framing
//	Collection     [Count(4)][Element 0][Element 1]...
//	Record         concatenation of its properties in declared order
//
// There is no record header, no type tag and no checksum. The field order of
// a record is the single source of truth for its layout.
//
// # Declaring Records
//
// A record type implements Schema by returning pointers to its fields:
//
//	type Point struct {
//	    X, Y  codec.Int32
//	    Label *codec.DynamicBuffer
//	}
//
//	func NewPoint() *Point {
//	    return &Point{Label: codec.NewDynamicBuffer(16)}
//	}
//
//	func (p *Point) Properties() []codec.Property {
//	    return []codec.Property{&p.X, &p.Y, p.Label}
//	}
//
// The package-level functions Serialize, Deserialize, SerialLength,
// MaxSerialLength and Reset operate on any Schema; AsProperty turns a record
// into a Property.
//
// # Usage
//
//	p := NewPoint()
//	p.X.Set(3)
//	if err := p.Label.SetString("origin"); err != nil {
//	    return err // ErrLengthExceeded
//	}
//
//	buf := make([]byte, codec.MaxSerialLength(p))
//	n, err := codec.Serialize(p, buf)
//
//	out := NewPoint()
//	_, err = codec.Deserialize(out, buf[:n])
//
// # Error Handling
//
//   - ErrLengthExceeded: a buffer's requested or decoded length, or a bounded
//     collection's element count, is above its declared capacity
//   - ErrIndexOutOfRange: collection access outside [0, Len)
//   - ErrShortBuffer: the buffer handed to Serialize or Deserialize is smaller
//     than the encoding requires
//   - ErrInvalidBool: a boolean byte other than 0 or 1
//
// Mutations validate before they modify: a rejected Set or Deserialize on a
// buffer or collection leaves its previous value in place. Deserializing a
// record stops at the first failing property; properties before it keep
// their new values.
//
// # Thread Safety
//
// Properties and records hold no shared state. Distinct instances may be
// used from different goroutines; a single instance needs external locking
// when mutated concurrently.
package codec
