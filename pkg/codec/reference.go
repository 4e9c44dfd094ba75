package codec

// Reference owns exactly one instance of another record type and inlines
// its encoding with no extra framing. The zero value holds no record and is
// not usable; build references with NewReference.
type Reference[T Schema] struct {
	value    T
	newValue func() T
}

// NewReference returns a reference holding a value built by newValue.
// newValue is kept to rebuild the value after it has been moved out.
func NewReference[T Schema](newValue func() T) *Reference[T] {
	return &Reference[T]{value: newValue(), newValue: newValue}
}

// Get returns the owned record. Mutations through it change the reference.
func (r *Reference[T]) Get() T {
	return r.value
}

// Set replaces the owned record's values with a copy of v's.
func (r *Reference[T]) Set(v T) error {
	return Copy(r.value, v)
}

// Move takes ownership of v. The caller must not use v afterwards.
func (r *Reference[T]) Move(v T) {
	r.value = v
}

// CopyFrom replaces the owned record's values with a copy of other's.
func (r *Reference[T]) CopyFrom(other *Reference[T]) error {
	return Copy(r.value, other.value)
}

// MoveFrom takes other's record; other is left holding a freshly built one.
func (r *Reference[T]) MoveFrom(other *Reference[T]) {
	if r == other {
		return
	}
	r.value = other.value
	other.value = other.newValue()
}

func (r *Reference[T]) Properties() []Property {
	return r.value.Properties()
}

func (r *Reference[T]) Reset() {
	Reset(r.value)
}

func (r *Reference[T]) Serialize(buf []byte) (int, error) {
	return Serialize(r.value, buf)
}

func (r *Reference[T]) Deserialize(buf []byte) (int, error) {
	return Deserialize(r.value, buf)
}

func (r *Reference[T]) SerialLength() int {
	return SerialLength(r.value)
}

func (r *Reference[T]) MaxSerialLength() int {
	return MaxSerialLength(r.value)
}
