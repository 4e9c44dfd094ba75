package schema

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/ssargent/crunchybytes/pkg/codec"
)

// ToMap returns the record's values keyed by property name. Scalars map to
// Go integers or bools, strings to text, buffers to []byte (base64 once
// marshaled to JSON), references to nested maps and sets to slices.
func (r *Record) ToMap() map[string]any {
	out := make(map[string]any, len(r.fields))
	for i, p := range r.def.Props {
		out[p.Name] = toValue(p, r.fields[i])
	}
	return out
}

// FromMap replaces every value of the record with values. Properties missing
// from values are reset. On error the record is left unchanged.
func (r *Record) FromMap(values map[string]any) error {
	fresh := r.reg.newRecord(r.def)
	if err := fresh.assign(values); err != nil {
		return err
	}
	return codec.Copy(r, fresh)
}

// MarshalJSON encodes the record as the JSON object of ToMap.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

func (r *Record) assign(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		i, err := r.index(k)
		if err != nil {
			return err
		}
		if err := assignValue(r.def.Props[i], r.fields[i], values[k]); err != nil {
			return err
		}
	}
	return nil
}

func toValue(p *Prop, f codec.Property) any {
	switch v := f.(type) {
	case *codec.Bool:
		return v.Get()
	case *codec.Int8:
		return v.Get()
	case *codec.Uint8:
		return v.Get()
	case *codec.Int16:
		return v.Get()
	case *codec.Uint16:
		return v.Get()
	case *codec.Int32:
		return v.Get()
	case *codec.Uint32:
		return v.Get()
	case *codec.Int64:
		return v.Get()
	case *codec.Uint64:
		return v.Get()
	case *codec.DynamicBuffer:
		if p.Type == TypeString {
			return v.String()
		}
		return append([]byte{}, v.Get()...)
	case *codec.FixedBuffer:
		return append([]byte{}, v.Get()...)
	case *codec.Reference[*Record]:
		return v.Get().ToMap()
	case *codec.Collection[codec.Property]:
		items := make([]any, v.Len())
		for i, item := range v.Items() {
			items[i] = toValue(p.Item, item)
		}
		return items
	}
	return nil
}

func assignValue(p *Prop, f codec.Property, v any) error {
	name := p.Name
	if name == "" {
		name = "item"
	}

	switch field := f.(type) {
	case *codec.Bool:
		b, ok := v.(bool)
		if !ok {
			return invalidValue(name, "expected bool, got %T", v)
		}
		field.Set(b)
		return nil
	case *codec.Int8:
		return setInt(field, name, v)
	case *codec.Int16:
		return setInt(field, name, v)
	case *codec.Int32:
		return setInt(field, name, v)
	case *codec.Int64:
		return setInt(field, name, v)
	case *codec.Uint8:
		return setUint(field, name, v)
	case *codec.Uint16:
		return setUint(field, name, v)
	case *codec.Uint32:
		return setUint(field, name, v)
	case *codec.Uint64:
		return setUint(field, name, v)
	case *codec.DynamicBuffer:
		var data []byte
		if p.Type == TypeString {
			s, ok := v.(string)
			if !ok {
				return invalidValue(name, "expected string, got %T", v)
			}
			data = []byte(s)
		} else {
			b, err := toBytes(name, v)
			if err != nil {
				return err
			}
			data = b
		}
		if err := field.Set(data); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	case *codec.FixedBuffer:
		b, err := toBytes(name, v)
		if err != nil {
			return err
		}
		if err := field.Set(b); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	case *codec.Reference[*Record]:
		m, ok := v.(map[string]any)
		if !ok {
			return invalidValue(name, "expected object, got %T", v)
		}
		return field.Get().assign(m)
	case *codec.Collection[codec.Property]:
		items, ok := v.([]any)
		if !ok {
			return invalidValue(name, "expected array, got %T", v)
		}
		if err := field.Resize(len(items)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for i, item := range field.Items() {
			if err := assignValue(p.Item, item, items[i]); err != nil {
				return fmt.Errorf("%s[%d]: %w", name, i, err)
			}
		}
		return nil
	}
	return invalidValue(name, "unsupported field %T", f)
}

func setInt[T int8 | int16 | int32 | int64](s *codec.Scalar[T], name string, v any) error {
	n, err := toInt64(v)
	if err != nil {
		return invalidValue(name, "%v", err)
	}
	if int64(T(n)) != n {
		return invalidValue(name, "%d overflows %T", n, T(0))
	}
	s.Set(T(n))
	return nil
}

func setUint[T uint8 | uint16 | uint32 | uint64](s *codec.Scalar[T], name string, v any) error {
	n, err := toUint64(v)
	if err != nil {
		return invalidValue(name, "%v", err)
	}
	if uint64(T(n)) != n {
		return invalidValue(name, "%d overflows %T", n, T(0))
	}
	s.Set(T(n))
	return nil
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return 0, fmt.Errorf("%v is not a 64-bit integer", x)
		}
		return int64(x), nil
	case json.Number:
		return strconv.ParseInt(x.String(), 10, 64)
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toUint64(v any) (uint64, error) {
	switch x := v.(type) {
	case uint:
		return uint64(x), nil
	case uint8:
		return uint64(x), nil
	case uint16:
		return uint64(x), nil
	case uint32:
		return uint64(x), nil
	case uint64:
		return x, nil
	case json.Number:
		return strconv.ParseUint(x.String(), 10, 64)
	case float64:
		if x != math.Trunc(x) || x < 0 || x >= math.MaxUint64 {
			return 0, fmt.Errorf("%v is not an unsigned 64-bit integer", x)
		}
		return uint64(x), nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return uint64(n), nil
}

// toBytes accepts raw bytes or base64 text.
func toBytes(name string, v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		b, err := base64.StdEncoding.DecodeString(x)
		if err != nil {
			return nil, invalidValue(name, "bad base64: %v", err)
		}
		return b, nil
	}
	return nil, invalidValue(name, "expected base64 string, got %T", v)
}
