package binfmt

import (
	"encoding/binary"
	"fmt"
)

// byteOrder is the byte order shared by the decoder and the encoder. It
// follows the host, so encoded streams are not portable across byte orders.
var byteOrder = binary.NativeEndian

// Primitive format codes.
const (
	Int8    byte = 'b'
	Uint8   byte = 'B'
	Int16   byte = 'h'
	Uint16  byte = 'H'
	Int32   byte = 'i'
	Uint32  byte = 'I'
	Int64   byte = 'q'
	Uint64  byte = 'Q'
	Float32 byte = 'f'
	Float64 byte = 'd'

	// StringElem is a single one-byte string element. On its own it
	// decodes one byte to a one-character string; inside an array section
	// ("[s]") the elements join to a single string.
	StringElem byte = 's'
)

// primitiveWidth maps every primitive code to its encoded width in bytes.
var primitiveWidth = map[byte]int{
	Int8:       1,
	Uint8:      1,
	Int16:      2,
	Uint16:     2,
	Int32:      4,
	Uint32:     4,
	Int64:      8,
	Uint64:     8,
	Float32:    4,
	Float64:    8,
	StringElem: 1,
}

type nodeKind uint8

const (
	kindPrimitive nodeKind = iota
	kindArray
	kindComposite
)

// node is one parsed token of a format string. Format strings are parsed
// once per call into a []node and both engines walk the tree instead of
// re-scanning the string.
type node struct {
	kind nodeKind

	// Primitive.
	code byte

	// Array. coalesce marks an inner format of exactly "s", whose decoded
	// elements join to one string.
	inner    []node
	coalesce bool

	// Composite: the registered type and its parsed layout.
	typ    Type
	layout []node
}

// parseFormat parses format into its token tree, resolving registered tags
// against reg. visiting holds the tags on the current resolution path so a
// layout that refers back to itself is rejected instead of recursing
// forever.
func parseFormat(format string, reg *Registry, visiting map[byte]bool) ([]node, error) {
	nodes := make([]node, 0, len(format))
	for i := 0; i < len(format); i++ {
		switch c := format[i]; c {
		case '[':
			end, err := matchBracket(format, i)
			if err != nil {
				return nil, err
			}
			inner, err := parseFormat(format[i+1:end], reg, visiting)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node{
				kind:     kindArray,
				inner:    inner,
				coalesce: len(inner) == 1 && inner[0].kind == kindPrimitive && inner[0].code == StringElem,
			})
			i = end
		case ']':
			return nil, fmt.Errorf("%w: unmatched ']' at position %d", ErrFormat, i)
		default:
			n, err := resolveCode(c, reg, visiting)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// resolveCode classifies a single format character. A registered tag takes
// precedence over a primitive code with the same character.
func resolveCode(c byte, reg *Registry, visiting map[byte]bool) (node, error) {
	if reg != nil {
		if typ, ok := reg.Lookup(c); ok {
			if visiting[c] {
				return node{}, fmt.Errorf("%w: layout of type %q refers back to itself", ErrFormat, c)
			}
			visiting[c] = true
			layout, err := parseFormat(typ.Layout, reg, visiting)
			delete(visiting, c)
			if err != nil {
				return node{}, fmt.Errorf("layout of type %q: %w", c, err)
			}
			return node{kind: kindComposite, typ: typ, layout: layout}, nil
		}
	}
	if _, ok := primitiveWidth[c]; ok {
		return node{kind: kindPrimitive, code: c}, nil
	}
	return node{}, fmt.Errorf("%w: unknown format code %q", ErrFormat, c)
}

// matchBracket returns the index of the ']' closing the '[' at open.
func matchBracket(format string, open int) (int, error) {
	depth := 0
	for i := open; i < len(format); i++ {
		switch format[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unmatched '[' at position %d", ErrFormat, open)
}

// checkBalanced verifies bracket balance without resolving any codes. It is
// what Register can check about a layout whose tags may not exist yet.
func checkBalanced(format string) error {
	depth := 0
	for i := 0; i < len(format); i++ {
		switch format[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unmatched ']' at position %d", ErrFormat, i)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %d unclosed '['", ErrFormat, depth)
	}
	return nil
}
