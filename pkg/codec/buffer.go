package codec

// FixedBuffer is a byte sequence whose length always equals its capacity.
// It is encoded as raw bytes with no prefix.
type FixedBuffer struct {
	value []byte
}

// NewFixedBuffer returns a zero-filled buffer of the given capacity.
func NewFixedBuffer(capacity int) *FixedBuffer {
	return &FixedBuffer{value: make([]byte, capacity)}
}

// Capacity returns the declared length of the buffer.
func (b *FixedBuffer) Capacity() int {
	return len(b.value)
}

// Get returns the buffer contents. The returned slice must not be modified.
func (b *FixedBuffer) Get() []byte {
	return b.value
}

// Set copies data into the buffer. Data longer than the capacity is rejected
// with ErrLengthExceeded and leaves the buffer unchanged; shorter data is
// copied and the remaining bytes are zeroed.
func (b *FixedBuffer) Set(data []byte) error {
	if len(data) > len(b.value) {
		return &LengthError{Length: len(data), Max: len(b.value)}
	}
	n := copy(b.value, data)
	clear(b.value[n:])
	return nil
}

func (b *FixedBuffer) Reset() {
	clear(b.value)
}

func (b *FixedBuffer) SerialLength() int {
	return len(b.value)
}

func (b *FixedBuffer) MaxSerialLength() int {
	return len(b.value)
}

func (b *FixedBuffer) Serialize(buf []byte) (int, error) {
	if len(buf) < len(b.value) {
		return 0, shortBuffer(len(b.value), len(buf))
	}
	return copy(buf, b.value), nil
}

func (b *FixedBuffer) Deserialize(buf []byte) (int, error) {
	if len(buf) < len(b.value) {
		return 0, shortBuffer(len(b.value), len(buf))
	}
	return copy(b.value, buf), nil
}

// DynamicBuffer is a byte sequence of at most maxLength bytes, encoded as a
// 4-byte length prefix followed by the contents. The zero value is an
// empty buffer of capacity zero; use NewDynamicBuffer to declare a capacity.
type DynamicBuffer struct {
	maxLength int
	value     []byte
}

// NewDynamicBuffer returns an empty buffer bounded by maxLength bytes.
func NewDynamicBuffer(maxLength int) *DynamicBuffer {
	return &DynamicBuffer{maxLength: maxLength}
}

// NewDynamicBufferFrom returns a buffer bounded by maxLength holding a copy
// of data, or ErrLengthExceeded if data does not fit.
func NewDynamicBufferFrom(maxLength int, data []byte) (*DynamicBuffer, error) {
	b := NewDynamicBuffer(maxLength)
	if err := b.Set(data); err != nil {
		return nil, err
	}
	return b, nil
}

// Capacity returns the declared maximum length.
func (b *DynamicBuffer) Capacity() int {
	return b.maxLength
}

// Len returns the current content length.
func (b *DynamicBuffer) Len() int {
	return len(b.value)
}

// Get returns the buffer contents. The returned slice must not be modified.
func (b *DynamicBuffer) Get() []byte {
	return b.value
}

// String returns the contents as text.
func (b *DynamicBuffer) String() string {
	return string(b.value)
}

// Set replaces the contents with a copy of data. Data longer than the
// capacity is rejected with ErrLengthExceeded and leaves the buffer unchanged.
func (b *DynamicBuffer) Set(data []byte) error {
	if len(data) > b.maxLength {
		return &LengthError{Length: len(data), Max: b.maxLength}
	}
	b.value = append(make([]byte, 0, len(data)), data...)
	return nil
}

// SetString replaces the contents with the bytes of s.
func (b *DynamicBuffer) SetString(s string) error {
	return b.Set([]byte(s))
}

func (b *DynamicBuffer) Reset() {
	b.value = nil
}

func (b *DynamicBuffer) SerialLength() int {
	return LengthPrefixSize + len(b.value)
}

func (b *DynamicBuffer) MaxSerialLength() int {
	return LengthPrefixSize + b.maxLength
}

func (b *DynamicBuffer) Serialize(buf []byte) (int, error) {
	n := b.SerialLength()
	if len(buf) < n {
		return 0, shortBuffer(n, len(buf))
	}
	putLengthPrefix(buf, len(b.value))
	copy(buf[LengthPrefixSize:], b.value)
	return n, nil
}

// Deserialize reads the length prefix and rejects it with ErrLengthExceeded
// before touching the payload when it is above the capacity. On any error the
// previous contents are kept.
func (b *DynamicBuffer) Deserialize(buf []byte) (int, error) {
	length, err := readLengthPrefix(buf)
	if err != nil {
		return 0, err
	}
	if uint64(length) > uint64(b.maxLength) {
		return 0, &LengthError{Length: int(length), Max: b.maxLength}
	}
	n := int(length)
	if len(buf)-LengthPrefixSize < n {
		return 0, shortBuffer(LengthPrefixSize+n, len(buf))
	}
	b.value = append(make([]byte, 0, n), buf[LengthPrefixSize:LengthPrefixSize+n]...)
	return LengthPrefixSize + n, nil
}
