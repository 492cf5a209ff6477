package binfmt

import "fmt"

// BuildFunc constructs an instance of a registered type from its decoded
// field values, given in layout order.
type BuildFunc func(fields []any) (any, error)

// ExtractFunc returns the field values of an instance in layout order,
// symmetric to its BuildFunc.
type ExtractFunc func(v any) ([]any, error)

// Type is one registered composite type.
type Type struct {
	Tag     byte
	Layout  string
	Build   BuildFunc
	Extract ExtractFunc
}

// Registry maps single-character tags to composite types. It is an
// explicit value rather than process state so tests and independent codecs
// can use fresh registries. The registry does no locking: complete all
// Register calls before the first concurrent Decode or Encode.
type Registry struct {
	types map[byte]Type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[byte]Type)}
}

// Register binds tag to a layout and its build/extract pair. The first
// registration wins: registering a tag twice fails with ErrConfiguration
// even when the layouts match. The tag must be a printable character other
// than the brackets, and both functions are required.
func (r *Registry) Register(tag byte, layout string, build BuildFunc, extract ExtractFunc) error {
	if tag == '[' || tag == ']' || tag <= ' ' || tag > '~' {
		return fmt.Errorf("%w: tag %q is not a printable non-bracket character", ErrConfiguration, tag)
	}
	if build == nil || extract == nil {
		return fmt.Errorf("%w: type %q needs both a build and an extract function", ErrConfiguration, tag)
	}
	if err := checkBalanced(layout); err != nil {
		return fmt.Errorf("layout of type %q: %w", tag, err)
	}
	if _, ok := r.types[tag]; ok {
		return fmt.Errorf("%w: tag %q is already registered", ErrConfiguration, tag)
	}
	r.types[tag] = Type{Tag: tag, Layout: layout, Build: build, Extract: extract}
	return nil
}

// Lookup returns the type registered under tag.
func (r *Registry) Lookup(tag byte) (Type, bool) {
	t, ok := r.types[tag]
	return t, ok
}
