package codec

import "bytes"

const (
	dynamicBufferMaxLength = 32
	constBufferLength      = 16
	setBufferLength        = 23
	stringMaxLength        = 10
)

type OneBool struct {
	Boolean Bool
}

func NewOneBool() *OneBool {
	return &OneBool{}
}

func (o *OneBool) Properties() []Property {
	return []Property{&o.Boolean}
}

type SimpleTest struct {
	Boolean             Bool
	String              *DynamicBuffer
	Uint8               Uint8
	Int8                Int8
	Uint16              Uint16
	Int16               Int16
	Uint32              Uint32
	Int32               Int32
	Uint64              Uint64
	Int64               Int64
	DynamicLengthBuffer *DynamicBuffer
	ConstLengthBuffer   *FixedBuffer
	Reference           *Reference[*OneBool]
	SetOfBools          *Collection[*Bool]
	SetOfReferences     *Collection[*Reference[*OneBool]]
	SetOfBuffers        *Collection[*FixedBuffer]
}

func NewSimpleTest() *SimpleTest {
	return &SimpleTest{
		String:              NewDynamicBuffer(stringMaxLength),
		DynamicLengthBuffer: NewDynamicBuffer(dynamicBufferMaxLength),
		ConstLengthBuffer:   NewFixedBuffer(constBufferLength),
		Reference:           NewReference(NewOneBool),
		SetOfBools:          NewScalarCollection[bool](),
		SetOfReferences:     NewRecordCollection(NewOneBool),
		SetOfBuffers: NewCollection(func() *FixedBuffer {
			return NewFixedBuffer(setBufferLength)
		}),
	}
}

func (s *SimpleTest) Properties() []Property {
	return []Property{
		&s.Boolean,
		s.String,
		&s.Uint8,
		&s.Int8,
		&s.Uint16,
		&s.Int16,
		&s.Uint32,
		&s.Int32,
		&s.Uint64,
		&s.Int64,
		s.DynamicLengthBuffer,
		s.ConstLengthBuffer,
		s.Reference,
		s.SetOfBools,
		s.SetOfReferences,
		s.SetOfBuffers,
	}
}

type Nesting struct {
	BoolRef     *Reference[*OneBool]
	SimpleRef   *Reference[*SimpleTest]
	SetOfBool   *Collection[*Reference[*OneBool]]
	SetOfSimple *Collection[*Reference[*SimpleTest]]
}

func NewNesting() *Nesting {
	return &Nesting{
		BoolRef:     NewReference(NewOneBool),
		SimpleRef:   NewReference(NewSimpleTest),
		SetOfBool:   NewRecordCollection(NewOneBool),
		SetOfSimple: NewRecordCollection(NewSimpleTest),
	}
}

func (n *Nesting) Properties() []Property {
	return []Property{n.BoolRef, n.SimpleRef, n.SetOfBool, n.SetOfSimple}
}

// simpleTestLength is the encoded size of a SimpleTest filled by
// populateSimpleTest.
const simpleTestLength = 177

func populateSimpleTest(st *SimpleTest) {
	buff := bytes.Repeat([]byte{0xcc}, 100)

	obTrue := NewOneBool()
	obTrue.Boolean.Set(true)
	obFalse := NewOneBool()
	obFalse.Boolean.Set(false)

	mustNoErr(st.String.SetString("Yo"))
	st.Boolean.Set(true)
	st.Uint8.Set(22)
	st.Int8.Set(-22)
	st.Uint16.Set(288)
	st.Int16.Set(-288)
	st.Uint32.Set(22231)
	st.Int32.Set(-22231)
	st.Uint64.Set(22231214)
	st.Int64.Set(-22231214)

	mustNoErr(st.DynamicLengthBuffer.Set(buff[:dynamicBufferMaxLength]))
	mustNoErr(st.ConstLengthBuffer.Set(buff[:constBufferLength]))

	st.Reference.Get().Boolean.Set(true)

	mustNoErr(AppendScalars(st.SetOfBools, true, false, true))
	mustNoErr(AppendRecords(st.SetOfReferences, obTrue, obFalse, obTrue))

	mustNoErr(st.SetOfBuffers.Resize(3))
	for _, b := range st.SetOfBuffers.Items() {
		mustNoErr(b.Set(buff[:setBufferLength]))
	}
}

func mustNoErr(err error) {
	if err != nil {
		panic(err)
	}
}
