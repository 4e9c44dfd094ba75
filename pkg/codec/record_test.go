package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_SerializeOneBool(t *testing.T) {
	in := NewOneBool()
	in.Boolean.Set(true)

	buf := make([]byte, MaxSerialLength(in))
	n, err := Serialize(in, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := NewOneBool()
	n, err = Deserialize(out, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, Equal(in, out))
}

func TestRecord_SerializeSimple(t *testing.T) {
	in := NewSimpleTest()
	populateSimpleTest(in)

	buf := make([]byte, MaxSerialLength(in))
	n, err := Serialize(in, buf)
	require.NoError(t, err)
	assert.Equal(t, SerialLength(in), n)
	assert.Equal(t, simpleTestLength, n)

	out := NewSimpleTest()
	n, err = Deserialize(out, buf)
	require.NoError(t, err)
	assert.Equal(t, simpleTestLength, n)

	assert.True(t, Equal(in, out))
	assert.Equal(t, "Yo", out.String.String())
	assert.Equal(t, int64(-22231214), out.Int64.Get())
	assert.Equal(t, []bool{true, false, true}, ScalarValues(out.SetOfBools))
	assert.True(t, out.Reference.Get().Boolean.Get())
}

func TestRecord_SerializeNested(t *testing.T) {
	in := NewNesting()
	in.BoolRef.Get().Boolean.Set(true)
	populateSimpleTest(in.SimpleRef.Get())

	require.NoError(t, in.SetOfBool.Resize(2))
	first, err := in.SetOfBool.At(0)
	require.NoError(t, err)
	first.Get().Boolean.Set(false)
	second, err := in.SetOfBool.At(1)
	require.NoError(t, err)
	second.Get().Boolean.Set(true)

	require.NoError(t, in.SetOfSimple.Resize(2))
	for _, ref := range in.SetOfSimple.Items() {
		populateSimpleTest(ref.Get())
	}

	buf := make([]byte, MaxSerialLength(in))
	n, err := Serialize(in, buf)
	require.NoError(t, err)
	assert.Equal(t, SerialLength(in), n)
	// 3 simples, 3 bools and 2 element counts
	assert.Equal(t, simpleTestLength*3+3+4*2, n)

	out := NewNesting()
	n, err = Deserialize(out, buf)
	require.NoError(t, err)
	assert.Equal(t, simpleTestLength*3+3+4*2, n)
	assert.True(t, Equal(in, out))
}

type boolStringNested struct {
	Flag   Bool
	Text   *DynamicBuffer
	Nested *Reference[*OneBool]
}

func newBoolStringNested() *boolStringNested {
	return &boolStringNested{
		Text:   NewDynamicBuffer(stringMaxLength),
		Nested: NewReference(NewOneBool),
	}
}

func (r *boolStringNested) Properties() []Property {
	return []Property{&r.Flag, r.Text, r.Nested}
}

func TestRecord_CompositionLength(t *testing.T) {
	in := newBoolStringNested()
	in.Flag.Set(true)
	require.NoError(t, in.Text.SetString("Yo"))
	in.Nested.Get().Boolean.Set(true)

	assert.Equal(t, 1+6+1, SerialLength(in))

	data, err := Marshal(in)
	require.NoError(t, err)
	assert.Len(t, data, 8)
	assert.Equal(t, []byte{1, 2, 0, 0, 0, 'Y', 'o', 1}, data)

	out := newBoolStringNested()
	n, err := Unmarshal(data, out)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.True(t, out.Flag.Get())
	assert.Equal(t, "Yo", out.Text.String())
	assert.True(t, out.Nested.Get().Boolean.Get())
}

func TestRecord_LengthExactness(t *testing.T) {
	in := NewSimpleTest()
	populateSimpleTest(in)

	before := SerialLength(in)
	// Oversized buffer so a write past SerialLength would be visible.
	buf := bytes.Repeat([]byte{0xAB}, before+16)
	n, err := Serialize(in, buf)
	require.NoError(t, err)
	assert.Equal(t, before, n)
	assert.Equal(t, before, SerialLength(in))
	assert.Equal(t, bytes.Repeat([]byte{0xAB}, 16), buf[before:])

	out := NewSimpleTest()
	consumed, err := Deserialize(out, buf)
	require.NoError(t, err)
	assert.Equal(t, SerialLength(out), consumed)
}

func TestRecord_MaxSerialLengthIsUpperBound(t *testing.T) {
	st := NewSimpleTest()
	assert.LessOrEqual(t, SerialLength(st), MaxSerialLength(st))

	populateSimpleTest(st)
	assert.LessOrEqual(t, SerialLength(st), MaxSerialLength(st))

	nest := NewNesting()
	require.NoError(t, nest.SetOfSimple.Resize(2))
	for _, ref := range nest.SetOfSimple.Items() {
		populateSimpleTest(ref.Get())
	}
	assert.LessOrEqual(t, SerialLength(nest), MaxSerialLength(nest))
}

func TestRecord_ResetIdempotence(t *testing.T) {
	st := NewSimpleTest()
	populateSimpleTest(st)

	Reset(st)
	once, err := Marshal(st)
	require.NoError(t, err)

	Reset(st)
	twice, err := Marshal(st)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.True(t, Equal(st, NewSimpleTest()))

	// 10 scalars, string prefix, dynamic buffer prefix, const buffer,
	// nested bool and three empty collections
	want := 31 + 4 + 4 + constBufferLength + 1 + 3*4
	assert.Equal(t, want, SerialLength(st))
}

func TestRecord_DeserializeStopsAtFailingField(t *testing.T) {
	in := NewSimpleTest()
	populateSimpleTest(in)
	data, err := Marshal(in)
	require.NoError(t, err)

	// Corrupt the string prefix (offset 1) to claim more than its capacity.
	binary.LittleEndian.PutUint32(data[1:], stringMaxLength+1)

	out := NewSimpleTest()
	require.NoError(t, out.String.SetString("keep"))
	out.Uint8.Set(9)

	n, err := Deserialize(out, data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLengthExceeded))

	var lengthErr *LengthError
	require.True(t, errors.As(err, &lengthErr))
	assert.Equal(t, stringMaxLength+1, lengthErr.Length)
	assert.Equal(t, stringMaxLength, lengthErr.Max)

	// The boolean before the failing field was read, the field itself and
	// everything after it were not.
	assert.Equal(t, 1, n)
	assert.True(t, out.Boolean.Get())
	assert.Equal(t, "keep", out.String.String())
	assert.Equal(t, uint8(9), out.Uint8.Get())
}

func TestRecord_ShortBuffer(t *testing.T) {
	st := NewSimpleTest()
	populateSimpleTest(st)

	_, err := Serialize(st, make([]byte, simpleTestLength-1))
	assert.ErrorIs(t, err, ErrShortBuffer)

	data, err := Marshal(st)
	require.NoError(t, err)
	_, err = Deserialize(NewSimpleTest(), data[:len(data)-1])
	assert.ErrorIs(t, err, ErrShortBuffer)
}

func TestRecord_PropertyAt(t *testing.T) {
	st := NewSimpleTest()
	assert.Equal(t, 16, NumProperties(st))

	p, err := PropertyAt(st, 1)
	require.NoError(t, err)
	assert.Same(t, st.String, p)

	_, err = PropertyAt(st, 16)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = PropertyAt(st, -1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestRecord_CopyIsIndependent(t *testing.T) {
	src := NewSimpleTest()
	populateSimpleTest(src)

	dst := NewSimpleTest()
	require.NoError(t, Copy(dst, src))
	assert.True(t, Equal(dst, src))

	require.NoError(t, src.String.SetString("changed"))
	assert.Equal(t, "Yo", dst.String.String())
}

func TestRecord_AsProperty(t *testing.T) {
	st := NewSimpleTest()
	populateSimpleTest(st)

	p := AsProperty(st)
	assert.Equal(t, simpleTestLength, p.SerialLength())
	assert.Equal(t, MaxSerialLength(st), p.MaxSerialLength())

	ref := NewReference(NewOneBool)
	assert.Same(t, ref, AsProperty(ref))

	p.Reset()
	assert.Equal(t, "", st.String.String())
}
