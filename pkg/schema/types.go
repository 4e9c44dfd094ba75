package schema

import "github.com/ssargent/crunchybytes/pkg/codec"

// Type names a property type as written in a schema file.
type Type string

const (
	TypeBool                Type = "bool"
	TypeInt8                Type = "int8"
	TypeUint8               Type = "uint8"
	TypeInt16               Type = "int16"
	TypeUint16              Type = "uint16"
	TypeInt32               Type = "int32"
	TypeUint32              Type = "uint32"
	TypeInt64               Type = "int64"
	TypeUint64              Type = "uint64"
	TypeString              Type = "string"
	TypeDynamicLengthBuffer Type = "dynamic_length_buffer"
	TypeConstLengthBuffer   Type = "const_length_buffer"
	TypeReference           Type = "reference"
	TypeSet                 Type = "set"
)

// scalarWidths holds the encoded width of every scalar type.
var scalarWidths = map[Type]int{
	TypeBool:   1,
	TypeInt8:   1,
	TypeUint8:  1,
	TypeInt16:  2,
	TypeUint16: 2,
	TypeInt32:  4,
	TypeUint32: 4,
	TypeInt64:  8,
	TypeUint64: 8,
}

// Known reports whether t is a supported property type.
func (t Type) Known() bool {
	switch t {
	case TypeString, TypeDynamicLengthBuffer, TypeConstLengthBuffer, TypeReference, TypeSet:
		return true
	}
	_, ok := scalarWidths[t]
	return ok
}

// Scalar reports whether t is a fixed-width scalar type.
func (t Type) Scalar() bool {
	_, ok := scalarWidths[t]
	return ok
}

// variableLength reports whether t carries a length prefix and a max_length.
func (t Type) variableLength() bool {
	return t == TypeString || t == TypeDynamicLengthBuffer
}

// Prop is one resolved property of a schema.
type Prop struct {
	Name      string `json:"name,omitempty"`
	Type      Type   `json:"type"`
	Length    int    `json:"length,omitempty"` // const buffer length, or max_length of a string or dynamic buffer
	Reference string `json:"reference,omitempty"`
	MaxItems  int    `json:"max_items,omitempty"`
	Item      *Prop  `json:"item,omitempty"`

	// MaxSerialLength is the worst-case encoded size of the property.
	MaxSerialLength int `json:"max_serial_length"`
}

// Definition is a validated schema: a named, ordered list of properties.
type Definition struct {
	File      string  `json:"file"`
	Name      string  `json:"name"`
	Namespace string  `json:"namespace,omitempty"`
	FullName  string  `json:"full_name"`
	Props     []*Prop `json:"props"`

	MaxSerialLength int `json:"max_serial_length"`
}

// Prop returns the property called name.
func (d *Definition) Prop(name string) (*Prop, bool) {
	for _, p := range d.Props {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// References returns the full names of every schema d refers to, directly or
// through a set item.
func (d *Definition) References() []string {
	var refs []string
	seen := make(map[string]bool)
	for _, p := range d.Props {
		ref := p.Reference
		if p.Item != nil {
			ref = p.Item.Reference
		}
		if ref != "" && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	return refs
}

// staticLength returns the encoded size of a property type that does not
// depend on another schema, or false for references.
func staticLength(p *Prop) (int, bool) {
	switch {
	case p.Type.Scalar():
		return scalarWidths[p.Type], true
	case p.Type == TypeConstLengthBuffer:
		return p.Length, true
	case p.Type.variableLength():
		return codec.LengthPrefixSize + p.Length, true
	}
	return 0, false
}
