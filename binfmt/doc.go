// Package binfmt implements a format-string driven binary codec. A format
// string describes the layout of a value one character per field, and the
// same string drives both decoding from a byte stream and encoding back to
// one, guaranteeing exact byte-level round-trips.
//
// Primitive codes cover the fixed-width integer and float types plus a
// one-byte string element:
//
//	b/B  int8/uint8      h/H  int16/uint16
//	i/I  int32/uint32    q/Q  int64/uint64
//	f    float32         d    float64
//	s    one-byte string element
//
// Bracketed sections describe length-prefixed arrays: "[d]" is a float64
// array stored as a uint32 count followed by that many elements. An array
// whose inner format is exactly "s" decodes to a joined string instead of
// a list of one-character strings.
//
// Application types are registered on a Registry under a single-character
// tag together with their layout and a build/extract function pair, and can
// then appear in format strings like any primitive:
//
//	reg := binfmt.NewRegistry()
//	err := reg.Register('P', "q[s]d",
//		func(fields []any) (any, error) {
//			return Point{fields[0].(int64), fields[1].(string), fields[2].(float64)}, nil
//		},
//		func(v any) ([]any, error) {
//			p := v.(Point)
//			return []any{p.ID, p.Name, p.Weight}, nil
//		})
//
//	var buf bytes.Buffer
//	err = binfmt.Encode(reg, "P", []any{p1, p2, p3}, &buf)
//	points, err := binfmt.DecodeAll(reg, "P", bytes.NewReader(buf.Bytes()))
//
// Encoding cycles the format: when more values are supplied than the format
// has tokens, the token index wraps around, so a one-token format writes an
// arbitrarily long flat list of records with no outer framing. DecodeAll is
// the symmetric read side, re-running the format until the source is
// exhausted.
//
// The byte stream carries no tags or separators; the reading side must know
// the format out of band. All multi-byte values use the host byte order, so
// streams are not portable across byte orders.
//
// Calls are synchronous and single-threaded: each Decode or Encode owns its
// source or sink for the full call, and all Register calls must complete
// before the first concurrent Decode or Encode.
package binfmt
