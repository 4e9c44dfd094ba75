package codec

// MaxZeroWidthItems bounds the element count Deserialize accepts for an
// unbounded collection whose elements encode to zero bytes. Such counts are
// not limited by the input size.
const MaxZeroWidthItems = 1 << 16

// Collection is an ordered, growable sequence of one element type, encoded
// as a 4-byte element count followed by each element's own encoding. The
// zero value is not usable; build collections with NewCollection or one of
// its typed variants.
type Collection[T Property] struct {
	newItem  func() T
	items    []T
	maxItems int
}

// NewCollection returns an empty collection whose new slots are built by
// newItem.
func NewCollection[T Property](newItem func() T) *Collection[T] {
	return &Collection[T]{newItem: newItem}
}

// NewScalarCollection returns an empty collection of V scalars.
func NewScalarCollection[V ScalarValue]() *Collection[*Scalar[V]] {
	return NewCollection(func() *Scalar[V] { return &Scalar[V]{} })
}

// NewRecordCollection returns an empty collection of nested records built by
// newValue.
func NewRecordCollection[T Schema](newValue func() T) *Collection[*Reference[T]] {
	return NewCollection(func() *Reference[T] { return NewReference(newValue) })
}

// WithMaxItems bounds the collection to n elements; zero means unbounded.
func (c *Collection[T]) WithMaxItems(n int) *Collection[T] {
	c.maxItems = n
	return c
}

// MaxItems returns the element bound, or zero when unbounded.
func (c *Collection[T]) MaxItems() int {
	return c.maxItems
}

// Len returns the number of elements.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// Items returns the elements in order. The slice must not be modified.
func (c *Collection[T]) Items() []T {
	return c.items
}

// At returns the element at position i.
func (c *Collection[T]) At(i int) (T, error) {
	if i < 0 || i >= len(c.items) {
		var zero T
		return zero, &IndexError{Index: i, Len: len(c.items)}
	}
	return c.items[i], nil
}

// SetAt replaces the element at position i with v, taking ownership of v.
func (c *Collection[T]) SetAt(i int, v T) error {
	if i < 0 || i >= len(c.items) {
		return &IndexError{Index: i, Len: len(c.items)}
	}
	c.items[i] = v
	return nil
}

// Append adds vs at the end, taking ownership of each element. Nothing is
// appended if the result would exceed MaxItems.
func (c *Collection[T]) Append(vs ...T) error {
	if err := c.checkCount(len(c.items) + len(vs)); err != nil {
		return err
	}
	c.items = append(c.items, vs...)
	return nil
}

// AppendCopy adds a new element holding a copy of v's value.
func (c *Collection[T]) AppendCopy(v T) error {
	if err := c.checkCount(len(c.items) + 1); err != nil {
		return err
	}
	item := c.newItem()
	if err := CopyProperty(item, v); err != nil {
		return err
	}
	c.items = append(c.items, item)
	return nil
}

// Set replaces every element with vs, taking ownership of each.
func (c *Collection[T]) Set(vs []T) error {
	if err := c.checkCount(len(vs)); err != nil {
		return err
	}
	c.items = append(make([]T, 0, len(vs)), vs...)
	return nil
}

// Resize grows or shrinks the collection to n elements. New slots hold
// freshly built elements.
func (c *Collection[T]) Resize(n int) error {
	if n < 0 {
		return &IndexError{Index: n, Len: len(c.items)}
	}
	if err := c.checkCount(n); err != nil {
		return err
	}
	if n <= len(c.items) {
		clear(c.items[n:])
		c.items = c.items[:n]
		return nil
	}
	for len(c.items) < n {
		c.items = append(c.items, c.newItem())
	}
	return nil
}

func (c *Collection[T]) Reset() {
	c.items = nil
}

func (c *Collection[T]) SerialLength() int {
	total := LengthPrefixSize
	for _, item := range c.items {
		total += item.SerialLength()
	}
	return total
}

// MaxSerialLength bounds the collection as currently sized. A bounded
// collection also counts its free slots at the size of a fresh element.
func (c *Collection[T]) MaxSerialLength() int {
	total := LengthPrefixSize
	for _, item := range c.items {
		total += item.MaxSerialLength()
	}
	if free := c.maxItems - len(c.items); free > 0 {
		total += free * c.newItem().MaxSerialLength()
	}
	return total
}

func (c *Collection[T]) Serialize(buf []byte) (int, error) {
	if len(buf) < LengthPrefixSize {
		return 0, shortBuffer(LengthPrefixSize, len(buf))
	}
	putLengthPrefix(buf, len(c.items))
	pos := LengthPrefixSize
	for _, item := range c.items {
		n, err := item.Serialize(buf[pos:])
		if err != nil {
			return pos, err
		}
		pos += n
	}
	return pos, nil
}

// Deserialize decodes into a new element list and only replaces the current
// elements once every element decoded.
func (c *Collection[T]) Deserialize(buf []byte) (int, error) {
	count, err := readLengthPrefix(buf)
	if err != nil {
		return 0, err
	}
	if c.maxItems > 0 && uint64(count) > uint64(c.maxItems) {
		return 0, &LengthError{Length: int(count), Max: c.maxItems}
	}
	pos := LengthPrefixSize
	// A fresh element has the smallest encoding its type allows.
	minLen := c.newItem().SerialLength()
	switch {
	case minLen > 0 && uint64(count)*uint64(minLen) > uint64(len(buf)-pos):
		return 0, shortBuffer(pos+int(count)*minLen, len(buf))
	case minLen == 0 && c.maxItems == 0 && count > MaxZeroWidthItems:
		return 0, &LengthError{Length: int(count), Max: MaxZeroWidthItems}
	}

	items := make([]T, 0, min(int(count), 1024))
	for i := uint32(0); i < count; i++ {
		item := c.newItem()
		n, err := item.Deserialize(buf[pos:])
		if err != nil {
			return 0, err
		}
		pos += n
		items = append(items, item)
	}
	c.items = items
	return pos, nil
}

func (c *Collection[T]) checkCount(n int) error {
	if c.maxItems > 0 && n > c.maxItems {
		return &LengthError{Length: n, Max: c.maxItems}
	}
	return nil
}

// AppendScalars appends raw values to a scalar collection.
func AppendScalars[V ScalarValue](c *Collection[*Scalar[V]], vs ...V) error {
	items := make([]*Scalar[V], len(vs))
	for i, v := range vs {
		items[i] = NewScalar(v)
	}
	return c.Append(items...)
}

// ScalarAt returns the raw value at position i of a scalar collection.
func ScalarAt[V ScalarValue](c *Collection[*Scalar[V]], i int) (V, error) {
	item, err := c.At(i)
	if err != nil {
		var zero V
		return zero, err
	}
	return item.Get(), nil
}

// SetScalarAt overwrites the raw value at position i of a scalar collection.
func SetScalarAt[V ScalarValue](c *Collection[*Scalar[V]], i int, v V) error {
	item, err := c.At(i)
	if err != nil {
		return err
	}
	item.Set(v)
	return nil
}

// ScalarValues returns the raw values of a scalar collection.
func ScalarValues[V ScalarValue](c *Collection[*Scalar[V]]) []V {
	out := make([]V, len(c.items))
	for i, item := range c.items {
		out[i] = item.Get()
	}
	return out
}

// AppendRecords appends copies of vs to a collection of nested records.
func AppendRecords[T Schema](c *Collection[*Reference[T]], vs ...T) error {
	if err := c.checkCount(len(c.items) + len(vs)); err != nil {
		return err
	}
	items := make([]*Reference[T], len(vs))
	for i, v := range vs {
		item := c.newItem()
		if err := item.Set(v); err != nil {
			return err
		}
		items[i] = item
	}
	c.items = append(c.items, items...)
	return nil
}
