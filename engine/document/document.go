// Package document exposes a read-only hierarchical document tree with typed leaves,
// queried by index or by name. Object members keep their document order.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind identifies the type of a document node.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// ErrEmptyDocument is returned when the source holds no value at all.
var ErrEmptyDocument = errors.New("document is empty")

// yamlNode is the implementation of the Node interface on top of a yaml.v3 node tree.
// A nil inner node represents null, which is also what absent members resolve to.
type yamlNode struct {
	n *yaml.Node
}

// Node defines the public-facing interface for one value in a parsed document.
// Lookups never return nil: a missing child is a null node, so getters can be chained
// and fall back to their explicit defaults.
type Node interface {
	// Kind returns the type of this node.
	//
	// Returns:
	//   - Kind: the node type, KindNull for absent members
	Kind() Kind

	// IsNull reports whether the node is null or absent.
	IsNull() bool

	// IsBool reports whether the node is a boolean.
	IsBool() bool

	// IsNumber reports whether the node is an integer or floating point number.
	IsNumber() bool

	// IsString reports whether the node is a string.
	IsString() bool

	// IsArray reports whether the node is an array.
	IsArray() bool

	// IsObject reports whether the node is an object.
	IsObject() bool

	// ChildCount returns the number of elements of an array or members of an object.
	//
	// Returns:
	//   - int: the child count, 0 for leaves
	ChildCount() int

	// Child returns the child at the given position. For objects this is the member value
	// in document order.
	//
	// Parameters:
	//   - i: the child position
	//
	// Returns:
	//   - Node: the child, or a null node if out of range
	Child(i int) Node

	// ChildByName returns the value of the object member with the given name.
	//
	// Parameters:
	//   - name: the member name
	//
	// Returns:
	//   - Node: the member value, or a null node if absent or if this node is not an object
	ChildByName(name string) Node

	// Name returns the member name of the child at position i of an object.
	//
	// Parameters:
	//   - i: the child position
	//
	// Returns:
	//   - string: the member name, or an empty string for arrays, leaves and out-of-range positions
	Name(i int) string

	// Bool returns the boolean value, or def if the node is absent or not a boolean.
	Bool(def bool) bool

	// Int returns the value as an integer, or def if the node is absent or not a number.
	// Floating point values are truncated.
	Int(def int) int

	// Float returns the value as a float64, or def if the node is absent or not a number.
	Float(def float64) float64

	// String returns the string value, or def if the node is absent or not a string.
	String(def string) string

	// Floats reads an array of numbers into dst. Elements that are absent or not numbers
	// leave the destination untouched.
	//
	// Parameters:
	//   - dst: the destination, read up to len(dst) elements
	//
	// Returns:
	//   - int: the number of elements read
	Floats(dst []float32) int
}

var _ Node = &yamlNode{}

var null Node = &yamlNode{}

// Parse parses a JSON or YAML document into a Node tree.
//
// Parameters:
//   - data: the document bytes
//
// Returns:
//   - Node: the root value of the document
//   - error: error if the bytes are not a valid document
func Parse(data []byte) (Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(unescapeSolidus(data), &root); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if root.Kind == 0 || (root.Kind == yaml.DocumentNode && len(root.Content) == 0) {
		return nil, ErrEmptyDocument
	}
	return wrap(&root), nil
}

// unescapeSolidus rewrites the JSON escape \/ to / inside double-quoted strings, since
// YAML has no such escape. Other escapes are left for the YAML decoder.
func unescapeSolidus(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\/`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	quoted := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case !quoted:
			quoted = c == '"'
		case c == '"':
			quoted = false
		case c == '\\' && i+1 < len(data):
			i++
			if data[i] != '/' {
				out = append(out, c)
			}
			c = data[i]
		}
		out = append(out, c)
	}
	return out
}

// wrap resolves document and alias indirections so that every yamlNode holds a value node.
func wrap(n *yaml.Node) Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return null
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return &yamlNode{n: n}
		}
	}
	return null
}

func (y *yamlNode) Kind() Kind {
	if y.n == nil {
		return KindNull
	}
	switch y.n.Kind {
	case yaml.SequenceNode:
		return KindArray
	case yaml.MappingNode:
		return KindObject
	case yaml.ScalarNode:
		switch y.n.ShortTag() {
		case "!!bool":
			return KindBool
		case "!!int", "!!float":
			return KindNumber
		case "!!null":
			return KindNull
		default:
			return KindString
		}
	}
	return KindNull
}

func (y *yamlNode) IsNull() bool   { return y.Kind() == KindNull }
func (y *yamlNode) IsBool() bool   { return y.Kind() == KindBool }
func (y *yamlNode) IsNumber() bool { return y.Kind() == KindNumber }
func (y *yamlNode) IsString() bool { return y.Kind() == KindString }
func (y *yamlNode) IsArray() bool  { return y.Kind() == KindArray }
func (y *yamlNode) IsObject() bool { return y.Kind() == KindObject }

func (y *yamlNode) ChildCount() int {
	switch y.Kind() {
	case KindArray:
		return len(y.n.Content)
	case KindObject:
		return len(y.n.Content) / 2
	default:
		return 0
	}
}

func (y *yamlNode) Child(i int) Node {
	if i < 0 || i >= y.ChildCount() {
		return null
	}
	if y.Kind() == KindObject {
		return wrap(y.n.Content[i*2+1])
	}
	return wrap(y.n.Content[i])
}

func (y *yamlNode) ChildByName(name string) Node {
	if y.Kind() != KindObject {
		return null
	}
	for i := 0; i+1 < len(y.n.Content); i += 2 {
		if y.n.Content[i].Value == name {
			return wrap(y.n.Content[i+1])
		}
	}
	return null
}

func (y *yamlNode) Name(i int) string {
	if y.Kind() != KindObject || i < 0 || i >= y.ChildCount() {
		return ""
	}
	return y.n.Content[i*2].Value
}

func (y *yamlNode) Bool(def bool) bool {
	if y.Kind() != KindBool {
		return def
	}
	v, err := strconv.ParseBool(y.n.Value)
	if err != nil {
		return def
	}
	return v
}

func (y *yamlNode) Int(def int) int {
	if y.Kind() != KindNumber {
		return def
	}
	if v, err := strconv.ParseInt(y.n.Value, 0, 64); err == nil {
		return int(v)
	}
	if v, err := strconv.ParseFloat(y.n.Value, 64); err == nil {
		return int(v)
	}
	return def
}

func (y *yamlNode) Float(def float64) float64 {
	if y.Kind() != KindNumber {
		return def
	}
	if v, err := strconv.ParseFloat(y.n.Value, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseInt(y.n.Value, 0, 64); err == nil {
		return float64(v)
	}
	return def
}

func (y *yamlNode) String(def string) string {
	if y.Kind() != KindString {
		return def
	}
	return y.n.Value
}

func (y *yamlNode) Floats(dst []float32) int {
	count := min(len(dst), y.ChildCount())
	if y.Kind() != KindArray {
		return 0
	}
	read := 0
	for i := 0; i < count; i++ {
		c := y.Child(i)
		if !c.IsNumber() {
			continue
		}
		dst[i] = float32(c.Float(0))
		read++
	}
	return read
}
