package codec

// ScalarValue lists the fixed-width values a Scalar can hold.
type ScalarValue interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64
}

// Scalar is a fixed-width property. It is encoded in its native width with
// no prefix. The zero value holds the zero of T.
type Scalar[T ScalarValue] struct {
	value T
}

type (
	Bool   = Scalar[bool]
	Int8   = Scalar[int8]
	Uint8  = Scalar[uint8]
	Int16  = Scalar[int16]
	Uint16 = Scalar[uint16]
	Int32  = Scalar[int32]
	Uint32 = Scalar[uint32]
	Int64  = Scalar[int64]
	Uint64 = Scalar[uint64]
)

// NewScalar returns a scalar holding v.
func NewScalar[T ScalarValue](v T) *Scalar[T] {
	return &Scalar[T]{value: v}
}

// Get returns the current value.
func (s *Scalar[T]) Get() T {
	return s.value
}

// Set replaces the current value.
func (s *Scalar[T]) Set(v T) {
	s.value = v
}

func (s *Scalar[T]) Reset() {
	var zero T
	s.value = zero
}

func (s *Scalar[T]) SerialLength() int {
	return scalarWidth[T]()
}

func (s *Scalar[T]) MaxSerialLength() int {
	return scalarWidth[T]()
}

func (s *Scalar[T]) Serialize(buf []byte) (int, error) {
	n := scalarWidth[T]()
	if len(buf) < n {
		return 0, shortBuffer(n, len(buf))
	}
	switch v := any(s.value).(type) {
	case bool:
		buf[0] = 0
		if v {
			buf[0] = 1
		}
	case int8:
		buf[0] = byte(v)
	case uint8:
		buf[0] = v
	case int16:
		byteOrder.PutUint16(buf, uint16(v))
	case uint16:
		byteOrder.PutUint16(buf, v)
	case int32:
		byteOrder.PutUint32(buf, uint32(v))
	case uint32:
		byteOrder.PutUint32(buf, v)
	case int64:
		byteOrder.PutUint64(buf, uint64(v))
	case uint64:
		byteOrder.PutUint64(buf, v)
	}
	return n, nil
}

func (s *Scalar[T]) Deserialize(buf []byte) (int, error) {
	n := scalarWidth[T]()
	if len(buf) < n {
		return 0, shortBuffer(n, len(buf))
	}
	var decoded any
	switch any(s.value).(type) {
	case bool:
		switch buf[0] {
		case 0:
			decoded = false
		case 1:
			decoded = true
		default:
			return 0, ErrInvalidBool
		}
	case int8:
		decoded = int8(buf[0])
	case uint8:
		decoded = buf[0]
	case int16:
		decoded = int16(byteOrder.Uint16(buf))
	case uint16:
		decoded = byteOrder.Uint16(buf)
	case int32:
		decoded = int32(byteOrder.Uint32(buf))
	case uint32:
		decoded = byteOrder.Uint32(buf)
	case int64:
		decoded = int64(byteOrder.Uint64(buf))
	case uint64:
		decoded = byteOrder.Uint64(buf)
	}
	s.value = decoded.(T)
	return n, nil
}

func scalarWidth[T ScalarValue]() int {
	var zero T
	switch any(zero).(type) {
	case bool, int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32:
		return 4
	default:
		return 8
	}
}
