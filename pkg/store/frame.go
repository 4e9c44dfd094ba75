package store

import (
	"fmt"
	"hash/crc32"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/crunchybytes/pkg/codec"
)

const (
	// IDSize is the encoded size of a record id
	IDSize = 20
	// MaxSchemaNameLength bounds the schema name stored in a frame
	MaxSchemaNameLength = 255
	// FlagTombstone marks a frame that deletes its id
	FlagTombstone uint8 = 1 << 0

	crcSize = 4
)

// Frame is one entry of a record log. It is itself a codec record:
//
//	crc32 u32 | timestamp u64 | flags u8 | id [20]byte | schema dyn<=255 | payload dyn<=max
//
// The CRC32 (IEEE) covers every byte after the CRC field.
type Frame struct {
	CRC32     codec.Uint32
	Timestamp codec.Uint64
	Flags     codec.Uint8
	ID        *codec.FixedBuffer
	Schema    *codec.DynamicBuffer
	Payload   *codec.DynamicBuffer
}

// NewFrame returns an empty frame accepting payloads of up to maxPayload bytes.
func NewFrame(maxPayload int) *Frame {
	return &Frame{
		ID:      codec.NewFixedBuffer(IDSize),
		Schema:  codec.NewDynamicBuffer(MaxSchemaNameLength),
		Payload: codec.NewDynamicBuffer(maxPayload),
	}
}

func (f *Frame) Properties() []codec.Property {
	return []codec.Property{&f.CRC32, &f.Timestamp, &f.Flags, f.ID, f.Schema, f.Payload}
}

// NewRecordFrame builds a frame storing payload under id.
func NewRecordFrame(id ksuid.KSUID, schema string, payload []byte, maxPayload int) (*Frame, error) {
	f := NewFrame(maxPayload)
	f.Timestamp.Set(uint64(time.Now().UnixNano()))
	if err := f.ID.Set(id.Bytes()); err != nil {
		return nil, err
	}
	if err := f.Schema.SetString(schema); err != nil {
		return nil, fmt.Errorf("schema name: %w", err)
	}
	if err := f.Payload.Set(payload); err != nil {
		return nil, fmt.Errorf("payload: %w", err)
	}
	return f, nil
}

// NewTombstoneFrame builds a frame deleting id.
func NewTombstoneFrame(id ksuid.KSUID, maxPayload int) (*Frame, error) {
	f, err := NewRecordFrame(id, "", nil, maxPayload)
	if err != nil {
		return nil, err
	}
	f.Flags.Set(FlagTombstone)
	return f, nil
}

// Key returns the frame's record id.
func (f *Frame) Key() ksuid.KSUID {
	id, err := ksuid.FromBytes(f.ID.Get())
	if err != nil {
		return ksuid.Nil
	}
	return id
}

func (f *Frame) Tombstone() bool {
	return f.Flags.Get()&FlagTombstone != 0
}

// Time returns the frame's write time.
func (f *Frame) Time() time.Time {
	return time.Unix(0, int64(f.Timestamp.Get()))
}

// Encode computes the checksum and returns the encoded frame.
func (f *Frame) Encode() ([]byte, error) {
	data, err := codec.Marshal(f)
	if err != nil {
		return nil, err
	}
	f.CRC32.Set(crc32.ChecksumIEEE(data[crcSize:]))
	if _, err := f.CRC32.Serialize(data); err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeFrame decodes exactly one frame from data and verifies its checksum.
func DecodeFrame(data []byte, maxPayload int) (*Frame, error) {
	f := NewFrame(maxPayload)
	n, err := codec.Deserialize(f, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruption, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: frame uses %d of %d bytes", ErrCorruption, n, len(data))
	}
	if sum := crc32.ChecksumIEEE(data[crcSize:]); sum != f.CRC32.Get() {
		return nil, fmt.Errorf("%w: checksum %08x, want %08x", ErrCorruption, sum, f.CRC32.Get())
	}
	return f, nil
}

// DecodeStoredFrame decodes a frame read back from storage. The payload is
// bounded only by the entry itself, so a record written before the payload
// limit was lowered still decodes.
func DecodeStoredFrame(data []byte) (*Frame, error) {
	return DecodeFrame(data, len(data))
}

// Record converts a live frame to the record it stores.
func (f *Frame) Record() *Record {
	return &Record{
		ID:        f.Key(),
		Schema:    f.Schema.String(),
		Payload:   append([]byte{}, f.Payload.Get()...),
		Timestamp: f.Time(),
	}
}

// MaxFrameSize is the largest encoded frame for a payload bound.
func MaxFrameSize(maxPayload int) int {
	return codec.MaxSerialLength(NewFrame(maxPayload))
}
