package schema

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/crunchybytes/pkg/codec"
)

// simpleTestJSON fills test::SimpleTest with the same values the codec
// package fixtures use, which encode to 177 bytes.
func simpleTestJSON() string {
	b64 := func(n int) string {
		return base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xcc}, n))
	}
	return `{
		"boolean": true,
		"string": "Yo",
		"uint8": 22, "int8": -22,
		"uint16": 288, "int16": -288,
		"uint32": 22231, "int32": -22231,
		"uint64": 22231214, "int64": -22231214,
		"dynamic_length_buffer": "` + b64(32) + `",
		"const_length_buffer": "` + b64(16) + `",
		"reference": {"boolean": true},
		"set_of_bools": [true, false, true],
		"set_of_references": [{"boolean": true}, {"boolean": false}, {"boolean": true}],
		"set_of_buffers": ["` + b64(23) + `", "` + b64(23) + `", "` + b64(23) + `"]
	}`
}

func decodeJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	require.NoError(t, dec.Decode(&m))
	return m
}

func TestRecord_EncodeDecode(t *testing.T) {
	r := loadTestRegistry(t)

	data, err := r.Encode("test::SimpleTest", decodeJSON(t, simpleTestJSON()))
	require.NoError(t, err)
	assert.Len(t, data, 177)

	// boolean first, then the "Yo" string.
	assert.Equal(t, []byte{1, 2, 0, 0, 0, 'Y', 'o', 22, 0xEA}, data[:9])

	rec, err := r.Decode("test::SimpleTest", data)
	require.NoError(t, err)
	assert.Equal(t, 177, codec.SerialLength(rec))

	got := rec.ToMap()
	assert.Equal(t, true, got["boolean"])
	assert.Equal(t, "Yo", got["string"])
	assert.Equal(t, int8(-22), got["int8"])
	assert.Equal(t, uint64(22231214), got["uint64"])
	assert.Equal(t, bytes.Repeat([]byte{0xcc}, 16), got["const_length_buffer"])
	if diff := cmp.Diff(map[string]any{"boolean": true}, got["reference"]); diff != "" {
		t.Errorf("reference mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]any{true, false, true}, got["set_of_bools"]); diff != "" {
		t.Errorf("set_of_bools mismatch (-want +got):\n%s", diff)
	}

	again, err := r.Encode("test::SimpleTest", got)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	r := loadTestRegistry(t)
	rec, err := r.New("test::SimpleTest")
	require.NoError(t, err)
	require.NoError(t, rec.FromMap(decodeJSON(t, simpleTestJSON())))

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	back, err := r.New("test::SimpleTest")
	require.NoError(t, err)
	require.NoError(t, back.FromMap(decodeJSON(t, string(out))))
	assert.True(t, codec.Equal(rec, back))
}

func TestRecord_Nesting(t *testing.T) {
	r := loadTestRegistry(t)

	in := `{
		"bool_ref": {"boolean": true},
		"simple_ref": ` + simpleTestJSON() + `,
		"set_of_bool": [{"boolean": true}, {"boolean": false}],
		"set_of_simple": [` + simpleTestJSON() + `]
	}`
	data, err := r.Encode("test::Nesting", decodeJSON(t, in))
	require.NoError(t, err)
	assert.Len(t, data, 1+177+(4+2)+(4+177))

	rec, err := r.Decode("test::Nesting", data)
	require.NoError(t, err)

	f, err := rec.Field("set_of_simple")
	require.NoError(t, err)
	set, ok := f.(*codec.Collection[codec.Property])
	require.True(t, ok)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 2, set.MaxItems())
}

func TestRecord_FromMapErrors(t *testing.T) {
	r := loadTestRegistry(t)

	tests := []struct {
		name    string
		values  string
		wantErr error
	}{
		{"unknown field", `{"nope": 1}`, ErrUnknownField},
		{"wrong bool type", `{"boolean": 1}`, ErrInvalidValue},
		{"int8 overflow", `{"int8": 200}`, ErrInvalidValue},
		{"negative unsigned", `{"uint16": -1}`, ErrInvalidValue},
		{"fraction", `{"int32": 1.5}`, ErrInvalidValue},
		{"string too long", `{"string": "more than ten"}`, codec.ErrLengthExceeded},
		{"buffer too long", `{"const_length_buffer": "` + base64.StdEncoding.EncodeToString(make([]byte, 17)) + `"}`, codec.ErrLengthExceeded},
		{"bad base64", `{"dynamic_length_buffer": "%%%"}`, ErrInvalidValue},
		{"too many items", `{"set_of_bools": [true, true, true, true]}`, codec.ErrLengthExceeded},
		{"bad item", `{"set_of_bools": [true, "no"]}`, ErrInvalidValue},
		{"reference not object", `{"reference": true}`, ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := r.New("test::SimpleTest")
			require.NoError(t, err)
			require.NoError(t, rec.FromMap(map[string]any{"uint8": 7}))

			err = rec.FromMap(decodeJSON(t, tt.values))
			assert.ErrorIs(t, err, tt.wantErr)

			// A failed FromMap leaves the record unchanged.
			assert.Equal(t, uint8(7), rec.ToMap()["uint8"])
		})
	}
}

func TestRecord_FromMapResetsMissing(t *testing.T) {
	r := loadTestRegistry(t)
	rec, err := r.New("test::SimpleTest")
	require.NoError(t, err)

	require.NoError(t, rec.FromMap(map[string]any{"uint8": 7, "string": "hi"}))
	require.NoError(t, rec.FromMap(map[string]any{"string": "yo"}))

	got := rec.ToMap()
	assert.Equal(t, uint8(0), got["uint8"])
	assert.Equal(t, "yo", got["string"])
}

func TestRecord_Field(t *testing.T) {
	r := loadTestRegistry(t)
	rec, err := r.New("test::SimpleTest")
	require.NoError(t, err)

	f, err := rec.Field("string")
	require.NoError(t, err)
	buf, ok := f.(*codec.DynamicBuffer)
	require.True(t, ok)
	assert.Equal(t, 10, buf.Capacity())

	f, err = rec.Field("reference")
	require.NoError(t, err)
	ref, ok := f.(*codec.Reference[*Record])
	require.True(t, ok)
	assert.Equal(t, "test::OneBool", ref.Get().Name())

	_, err = rec.Field("missing")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestRegistry_DecodeErrors(t *testing.T) {
	r := loadTestRegistry(t)

	_, err := r.Decode("test::OneBool", []byte{1, 0})
	assert.ErrorIs(t, err, ErrTrailingBytes)

	_, err = r.Decode("test::OneBool", []byte{2})
	assert.ErrorIs(t, err, codec.ErrInvalidBool)

	_, err = r.Decode("test::OneBool", nil)
	assert.ErrorIs(t, err, codec.ErrShortBuffer)
}
