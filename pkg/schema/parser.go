package schema

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ssargent/crunchybytes/pkg/codec"
)

var (
	nameRe      = regexp.MustCompile(`^\w+$`)
	namespaceRe = regexp.MustCompile(`^\w+(::\w+)*$`)
)

// NamespaceSeparator joins a namespace and a schema name.
const NamespaceSeparator = "::"

// Globals keys for the cap on every schema's max serial length.
const (
	maxSerialLengthKey      = "max_crunchy_bytes_serial_length"
	maxSerialLengthAliasKey = "max_serial_length"
)

// Globals holds the values shared by every schema file.
type Globals struct {
	File    string
	Lengths map[string]uint32
	// MaxSerialLength caps every schema's max length; zero means no cap
	MaxSerialLength int
	// Undecoded lists keys the file defines but the loader ignores
	Undecoded []string
}

type globalsFile struct {
	Lengths              map[string]int64 `toml:"lengths"`
	MaxSerialLength      int64            `toml:"max_crunchy_bytes_serial_length"`
	MaxSerialLengthAlias int64            `toml:"max_serial_length"`
}

type schemaFile struct {
	Name      string              `toml:"name"`
	Namespace string              `toml:"namespace"`
	Order     []string            `toml:"order"`
	Props     map[string]*rawProp `toml:"props"`
}

type rawProp struct {
	Type      string   `toml:"type"`
	Length    any      `toml:"length"`
	MaxLength any      `toml:"max_length"`
	Reference string   `toml:"reference"`
	MaxItems  any      `toml:"max_items"`
	Item      *rawProp `toml:"item"`
}

// ParseGlobals reads a globals file. An empty path yields empty globals.
func ParseGlobals(path string) (*Globals, error) {
	g := &Globals{File: path, Lengths: make(map[string]uint32)}
	if path == "" {
		return g, nil
	}

	var raw globalsFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errorf(path, "TOML decode error: %v", err)
	}

	for name, val := range raw.Lengths {
		if !nameRe.MatchString(name) {
			return nil, errorf(path, "length name %q must only use alphanumeric characters and underscore", name)
		}
		if val < 0 || val > math.MaxUint32 {
			return nil, errorf(path, "length %s must be an unsigned 32-bit integer, %d given", name, val)
		}
		g.Lengths[name] = uint32(val)
	}

	key, limit := maxSerialLengthKey, raw.MaxSerialLength
	switch {
	case meta.IsDefined(maxSerialLengthKey) && meta.IsDefined(maxSerialLengthAliasKey):
		return nil, errorf(path, "define only one of %q and %q", maxSerialLengthKey, maxSerialLengthAliasKey)
	case meta.IsDefined(maxSerialLengthAliasKey):
		key, limit = maxSerialLengthAliasKey, raw.MaxSerialLengthAlias
	}
	if meta.IsDefined(key) {
		if limit <= 0 || limit > math.MaxUint32 {
			return nil, errorf(path, "%q must be a positive 32-bit integer, %d given", key, limit)
		}
		g.MaxSerialLength = int(limit)
	}

	for _, k := range meta.Undecoded() {
		g.Undecoded = append(g.Undecoded, k.String())
	}
	return g, nil
}

// parseDefinition reads one schema file. References are left unresolved and
// the returned keys are the ones the file defines but the parser ignores.
func parseDefinition(path string, g *Globals) (*Definition, []string, error) {
	var raw schemaFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, nil, errorf(path, "TOML decode error: %v", err)
	}

	if !meta.IsDefined("name") {
		return nil, nil, errorf(path, `top level field "name" not found`)
	}
	if !meta.IsDefined("props") {
		return nil, nil, errorf(path, `top level field "props" not found`)
	}
	if !nameRe.MatchString(raw.Name) {
		return nil, nil, errorf(path, `"name" must only contain alphanumeric and underscore characters`)
	}

	def := &Definition{File: path, Name: raw.Name, FullName: raw.Name}
	if meta.IsDefined("namespace") {
		if !namespaceRe.MatchString(raw.Namespace) {
			return nil, nil, errorf(path, `"namespace" must only contain alphanumeric and underscore characters, and "::"`)
		}
		def.Namespace = raw.Namespace
		def.FullName = raw.Namespace + NamespaceSeparator + raw.Name
	}

	props := make(map[string]*Prop, len(raw.Props))
	for _, name := range propOrder(meta, raw.Props) {
		if !nameRe.MatchString(name) {
			return nil, nil, errorf(path, `in property %q: name of property must only use alphanumeric characters and underscore`, name)
		}
		p, err := buildProp(path, name, raw.Props[name], g, fmt.Sprintf("in property %q:", name))
		if err != nil {
			return nil, nil, err
		}
		props[name] = p
	}

	seen := make(map[string]bool, len(raw.Order))
	for _, o := range raw.Order {
		if _, ok := props[o]; !ok {
			return nil, nil, errorf(path, "order array contains %q which is not a property in this schema", o)
		}
		if seen[o] {
			return nil, nil, errorf(path, "order array contains duplicates")
		}
		seen[o] = true
		def.Props = append(def.Props, props[o])
	}
	for _, name := range propOrder(meta, raw.Props) {
		if !seen[name] {
			def.Props = append(def.Props, props[name])
		}
	}

	var undecoded []string
	for _, key := range meta.Undecoded() {
		undecoded = append(undecoded, key.String())
	}
	return def, undecoded, nil
}

// propOrder returns the property names in the order the file first mentions
// them. Dotted keys such as flag.type = "bool" only appear as longer key
// paths, so any props key path counts. Props the metadata misses entirely
// follow in name order.
func propOrder(meta toml.MetaData, props map[string]*rawProp) []string {
	order := make([]string, 0, len(props))
	seen := make(map[string]bool, len(props))
	for _, key := range meta.Keys() {
		if len(key) < 2 || key[0] != "props" || seen[key[1]] {
			continue
		}
		if _, ok := props[key[1]]; ok {
			seen[key[1]] = true
			order = append(order, key[1])
		}
	}

	var missed []string
	for name := range props {
		if !seen[name] {
			missed = append(missed, name)
		}
	}
	sort.Strings(missed)
	return append(order, missed...)
}

func buildProp(file, name string, raw *rawProp, g *Globals, errIn string) (*Prop, error) {
	if raw == nil || raw.Type == "" {
		return nil, errorf(file, `%s "type" not defined`, errIn)
	}
	t := Type(raw.Type)
	if !t.Known() {
		return nil, errorf(file, "%s unknown property type %q", errIn, raw.Type)
	}

	p := &Prop{Name: name, Type: t}
	switch {
	case t == TypeReference:
		if raw.Reference == "" {
			return nil, errorf(file, `%s reference property must contain a "reference"`, errIn)
		}
		p.Reference = raw.Reference
	case t == TypeSet:
		if raw.Item == nil {
			return nil, errorf(file, `%s set property must contain an "item"`, errIn)
		}
		if raw.MaxItems == nil {
			return nil, errorf(file, `%s set property must contain a "max_items"`, errIn)
		}
		n, ok := resolveLength(raw.MaxItems, g)
		if !ok {
			return nil, errorf(file, `%s set property must contain an integer "max_items"`, errIn)
		}
		if n == 0 {
			return nil, errorf(file, `%s "max_items" must be greater than zero`, errIn)
		}
		if Type(raw.Item.Type) == TypeSet {
			return nil, errorf(file, `%s item of set property cannot be of type "set"`, errIn)
		}
		item, err := buildProp(file, "", raw.Item, g, errIn+` in "item" definition:`)
		if err != nil {
			return nil, err
		}
		p.MaxItems = n
		p.Item = item
		if item.Reference == "" {
			p.MaxSerialLength = codec.LengthPrefixSize + n*item.MaxSerialLength
		}
	case t == TypeConstLengthBuffer:
		if raw.Length == nil {
			return nil, errorf(file, `%s %s property must contain a "length"`, errIn, t)
		}
		n, ok := resolveLength(raw.Length, g)
		if !ok {
			return nil, errorf(file, `%s %s property must contain an integer "length"`, errIn, t)
		}
		p.Length = n
	case t.variableLength():
		if raw.MaxLength == nil {
			return nil, errorf(file, `%s %s property must contain a "max_length"`, errIn, t)
		}
		n, ok := resolveLength(raw.MaxLength, g)
		if !ok {
			return nil, errorf(file, `%s %s property must contain an integer "max_length"`, errIn, t)
		}
		p.Length = n
	}

	if n, ok := staticLength(p); ok {
		p.MaxSerialLength = n
	}
	return p, nil
}

// resolveLength accepts an integer, a numeric string or the name of a global
// length.
func resolveLength(v any, g *Globals) (int, bool) {
	switch x := v.(type) {
	case int64:
		if x < 0 || x > math.MaxUint32 {
			return 0, false
		}
		return int(x), true
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseUint(s, 10, 32); err == nil {
			return int(n), true
		}
		if g != nil {
			if n, ok := g.Lengths[s]; ok {
				return int(n), true
			}
		}
	}
	return 0, false
}
