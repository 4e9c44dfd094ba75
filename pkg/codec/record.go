package codec

import "bytes"

// Schema is implemented by record types. Properties returns the record's
// fields in wire order; the set and order of fields must not change for a
// given record type.
type Schema interface {
	Properties() []Property
}

// Reset resets every property of s in declared order.
func Reset(s Schema) {
	for _, p := range s.Properties() {
		p.Reset()
	}
}

// Serialize writes each property of s consecutively from the start of buf
// and returns the total number of bytes written.
func Serialize(s Schema, buf []byte) (int, error) {
	pos := 0
	for _, p := range s.Properties() {
		n, err := p.Serialize(buf[pos:])
		if err != nil {
			return pos, err
		}
		pos += n
	}
	return pos, nil
}

// Deserialize reads each property of s consecutively from the start of buf
// and returns the total number of bytes consumed. A failing property stops
// the walk: earlier properties keep their new values and later ones are not
// read.
func Deserialize(s Schema, buf []byte) (int, error) {
	pos := 0
	for _, p := range s.Properties() {
		n, err := p.Deserialize(buf[pos:])
		if err != nil {
			return pos, err
		}
		pos += n
	}
	return pos, nil
}

// SerialLength sums the current encoded size of every property of s.
func SerialLength(s Schema) int {
	total := 0
	for _, p := range s.Properties() {
		total += p.SerialLength()
	}
	return total
}

// MaxSerialLength sums the worst-case encoded size of every property of s.
func MaxSerialLength(s Schema) int {
	total := 0
	for _, p := range s.Properties() {
		total += p.MaxSerialLength()
	}
	return total
}

// NumProperties returns the number of fields declared by s.
func NumProperties(s Schema) int {
	return len(s.Properties())
}

// PropertyAt returns the field at position i of s.
func PropertyAt(s Schema, i int) (Property, error) {
	props := s.Properties()
	if i < 0 || i >= len(props) {
		return nil, &IndexError{Index: i, Len: len(props)}
	}
	return props[i], nil
}

// Marshal encodes s into a newly allocated buffer of SerialLength(s) bytes.
func Marshal(s Schema) ([]byte, error) {
	buf := make([]byte, SerialLength(s))
	n, err := Serialize(s, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// Unmarshal decodes data into s and returns the number of bytes consumed.
func Unmarshal(data []byte, s Schema) (int, error) {
	return Deserialize(s, data)
}

// Equal reports whether a and b hold the same field values. Encoding is
// deterministic, so two records of the same type are equal exactly when
// their encodings are.
func Equal(a, b Schema) bool {
	ab, err := Marshal(a)
	if err != nil {
		return false
	}
	bb, err := Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// Copy replaces the field values of dst with those of src.
func Copy(dst, src Schema) error {
	return CopyProperty(AsProperty(dst), AsProperty(src))
}

// AsProperty adapts a record so it can be used wherever a Property is
// expected, for example as the element of a Collection.
func AsProperty(s Schema) Property {
	if p, ok := s.(Property); ok {
		return p
	}
	return record{schema: s}
}

type record struct {
	schema Schema
}

func (r record) Reset()                              { Reset(r.schema) }
func (r record) Serialize(buf []byte) (int, error)   { return Serialize(r.schema, buf) }
func (r record) Deserialize(buf []byte) (int, error) { return Deserialize(r.schema, buf) }
func (r record) SerialLength() int                   { return SerialLength(r.schema) }
func (r record) MaxSerialLength() int                { return MaxSerialLength(r.schema) }
