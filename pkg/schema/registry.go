package schema

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/ssargent/crunchybytes/pkg/codec"
)

// Registry holds a validated set of schemas whose references all resolve.
type Registry struct {
	defs    map[string]*Definition
	globals *Globals
	logger  zerolog.Logger
}

// Load parses the globals file and every schema file, resolves references
// between them and computes each schema's max serial length.
func Load(files []string, globalsFile string, logger zerolog.Logger) (*Registry, error) {
	if len(files) == 0 {
		return nil, ErrNoSchemaFiles
	}

	g, err := ParseGlobals(globalsFile)
	if err != nil {
		return nil, err
	}

	r := &Registry{
		defs:    make(map[string]*Definition, len(files)),
		globals: g,
		logger:  logger.With().Str("component", "schema").Logger(),
	}
	if len(g.Undecoded) > 0 {
		r.logger.Warn().Str("file", globalsFile).Strs("keys", g.Undecoded).Msg("ignoring unknown keys")
	}

	for _, file := range files {
		def, undecoded, err := parseDefinition(file, g)
		if err != nil {
			return nil, err
		}
		if existing, ok := r.defs[def.FullName]; ok {
			return nil, errorf(def.File, "schema has same name as %q", existing.File)
		}
		if len(undecoded) > 0 {
			r.logger.Warn().Str("file", file).Strs("keys", undecoded).Msg("ignoring unknown keys")
		}
		r.defs[def.FullName] = def
	}

	for _, name := range r.Names() {
		def := r.defs[name]
		for _, ref := range def.References() {
			if _, ok := r.defs[ref]; !ok {
				return nil, errorf(def.File, "unable to resolve reference to %q", ref)
			}
		}
	}

	state := make(map[string]resolveState, len(r.defs))
	for _, name := range r.Names() {
		def := r.defs[name]
		if err := r.resolve(def, state); err != nil {
			return nil, err
		}
		if g.MaxSerialLength > 0 && def.MaxSerialLength > g.MaxSerialLength {
			return nil, errorf(def.File, "schema exceeds max length defined in %q: %d > %d",
				g.File, def.MaxSerialLength, g.MaxSerialLength)
		}
		r.logger.Debug().
			Str("schema", name).
			Int("props", len(def.Props)).
			Int("max_serial_length", def.MaxSerialLength).
			Msg("schema loaded")
	}

	r.logger.Info().Int("schemas", len(r.defs)).Msg("schemas loaded")
	return r, nil
}

// ExpandFiles resolves glob patterns into a de-duplicated file list in
// pattern order.
func ExpandFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad schema pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, errorf(pattern, "no schema files match")
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

type resolveState int

const (
	unresolved resolveState = iota
	resolving
	resolved
)

// resolve fills in the max lengths that depend on other schemas.
func (r *Registry) resolve(def *Definition, state map[string]resolveState) error {
	switch state[def.FullName] {
	case resolved:
		return nil
	case resolving:
		return errorf(def.File, "unable to resolve references due to circular reference")
	}
	state[def.FullName] = resolving

	total := 0
	for _, p := range def.Props {
		target := p
		if p.Item != nil {
			target = p.Item
		}
		if target.Reference != "" {
			ref := r.defs[target.Reference]
			if err := r.resolve(ref, state); err != nil {
				return err
			}
			target.MaxSerialLength = ref.MaxSerialLength
		}
		if p.Item != nil {
			p.MaxSerialLength = codec.LengthPrefixSize + p.MaxItems*p.Item.MaxSerialLength
		}
		total += p.MaxSerialLength
	}
	def.MaxSerialLength = total
	state[def.FullName] = resolved
	return nil
}

// Names returns the full names of every schema, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definitions returns every schema sorted by full name.
func (r *Registry) Definitions() []*Definition {
	names := r.Names()
	defs := make([]*Definition, len(names))
	for i, name := range names {
		defs[i] = r.defs[name]
	}
	return defs
}

// Globals returns the values shared by every loaded schema.
func (r *Registry) Globals() *Globals {
	return r.globals
}

// Lookup returns the schema with the given full name.
func (r *Registry) Lookup(name string) (*Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return def, nil
}

// MaxLength returns the max serial length of the named schema.
func (r *Registry) MaxLength(name string) (int, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return 0, err
	}
	return def.MaxSerialLength, nil
}

// New builds an empty record of the named schema.
func (r *Registry) New(name string) (*Record, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return r.newRecord(def), nil
}

// Encode builds a record of the named schema from values and returns its
// encoding.
func (r *Registry) Encode(name string, values map[string]any) ([]byte, error) {
	rec, err := r.New(name)
	if err != nil {
		return nil, err
	}
	if err := rec.FromMap(values); err != nil {
		return nil, err
	}
	return codec.Marshal(rec)
}

// Decode reads one record of the named schema. data must hold exactly one
// encoded record.
func (r *Registry) Decode(name string, data []byte) (*Record, error) {
	rec, err := r.New(name)
	if err != nil {
		return nil, err
	}
	n, err := codec.Deserialize(rec, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s at byte %d: %w", name, n, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d of %d bytes used", ErrTrailingBytes, n, len(data))
	}
	return rec, nil
}

func (r *Registry) newRecord(def *Definition) *Record {
	rec := &Record{
		def:    def,
		reg:    r,
		fields: make([]codec.Property, len(def.Props)),
	}
	for i, p := range def.Props {
		rec.fields[i] = r.newField(p)
	}
	return rec
}

func (r *Registry) newField(p *Prop) codec.Property {
	switch p.Type {
	case TypeBool:
		return new(codec.Bool)
	case TypeInt8:
		return new(codec.Int8)
	case TypeUint8:
		return new(codec.Uint8)
	case TypeInt16:
		return new(codec.Int16)
	case TypeUint16:
		return new(codec.Uint16)
	case TypeInt32:
		return new(codec.Int32)
	case TypeUint32:
		return new(codec.Uint32)
	case TypeInt64:
		return new(codec.Int64)
	case TypeUint64:
		return new(codec.Uint64)
	case TypeString, TypeDynamicLengthBuffer:
		return codec.NewDynamicBuffer(p.Length)
	case TypeConstLengthBuffer:
		return codec.NewFixedBuffer(p.Length)
	case TypeReference:
		def := r.defs[p.Reference]
		return codec.NewReference(func() *Record { return r.newRecord(def) })
	case TypeSet:
		item := p.Item
		return codec.NewCollection(func() codec.Property { return r.newField(item) }).WithMaxItems(p.MaxItems)
	}
	panic(fmt.Sprintf("schema: unsupported property type %q", p.Type))
}
