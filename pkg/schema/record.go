package schema

import (
	"fmt"

	"github.com/ssargent/crunchybytes/pkg/codec"
)

// Record is a record whose fields are built at runtime from a Definition. It
// implements codec.Schema, so every codec record function applies to it.
type Record struct {
	def    *Definition
	reg    *Registry
	fields []codec.Property
}

// Properties returns the record's fields in wire order.
func (r *Record) Properties() []codec.Property {
	return r.fields
}

// Definition returns the schema the record was built from.
func (r *Record) Definition() *Definition {
	return r.def
}

// Name returns the full name of the record's schema.
func (r *Record) Name() string {
	return r.def.FullName
}

// Names returns the property names in wire order.
func (r *Record) Names() []string {
	names := make([]string, len(r.def.Props))
	for i, p := range r.def.Props {
		names[i] = p.Name
	}
	return names
}

// Field returns the field called name. The concrete type follows the
// property type: *codec.Scalar for scalars, *codec.DynamicBuffer for strings
// and dynamic buffers, *codec.FixedBuffer for const buffers,
// *codec.Reference[*Record] for references and
// *codec.Collection[codec.Property] for sets.
func (r *Record) Field(name string) (codec.Property, error) {
	i, err := r.index(name)
	if err != nil {
		return nil, err
	}
	return r.fields[i], nil
}

func (r *Record) index(name string) (int, error) {
	for i, p := range r.def.Props {
		if p.Name == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s has no property %q", ErrUnknownField, r.def.FullName, name)
}
