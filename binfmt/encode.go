package binfmt

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Encode writes value to w according to format. A value that is neither a
// string nor a []any is treated as a one-element sequence. The format
// index wraps around when the sequence is longer than the format, so a
// one-token format encodes an arbitrarily long flat list of records and a
// multi-token format encodes interleaved tuple fields.
//
// A value whose shape does not match the expected primitive, array or
// composite kind fails with ErrTypeMismatch; the sink is then left in an
// undefined state and must be discarded.
func Encode(reg *Registry, format string, value any, w io.Writer) error {
	nodes, err := parseFormat(format, reg, map[byte]bool{})
	if err != nil {
		return err
	}
	return encodeSeq(nodes, value, w)
}

func encodeSeq(nodes []node, value any, w io.Writer) error {
	var seq []any
	switch v := value.(type) {
	case []any:
		seq = v
	case string:
		return encodeString(nodes, v, w)
	default:
		seq = []any{value}
	}

	if len(seq) > 0 && len(nodes) == 0 {
		return fmt.Errorf("%w: empty format with %d values", ErrFormat, len(seq))
	}
	for i, elem := range seq {
		if err := encodeNode(nodes[i%len(nodes)], elem, w); err != nil {
			return err
		}
	}
	return nil
}

// encodeString feeds the bytes of s through the format as one-byte string
// elements, so "[s]" array bodies and bare "s" runs share one path.
func encodeString(nodes []node, s string, w io.Writer) error {
	if len(s) > 0 && len(nodes) == 0 {
		return fmt.Errorf("%w: empty format with %d values", ErrFormat, len(s))
	}
	for i := 0; i < len(s); i++ {
		if err := encodeNode(nodes[i%len(nodes)], s[i:i+1], w); err != nil {
			return err
		}
	}
	return nil
}

func encodeNode(n node, elem any, w io.Writer) error {
	switch n.kind {
	case kindArray:
		return encodeArray(n, elem, w)
	case kindComposite:
		fields, err := n.typ.Extract(elem)
		if err != nil {
			return fmt.Errorf("%w: extracting type %q: %v", ErrTypeMismatch, n.typ.Tag, err)
		}
		return encodeSeq(n.layout, fields, w)
	default:
		return encodePrimitive(n.code, elem, w)
	}
}

func encodeArray(n node, elem any, w io.Writer) error {
	var length int
	switch v := elem.(type) {
	case []any:
		length = len(v)
	case string:
		length = len(v)
	default:
		return fmt.Errorf("%w: array section needs a sequence or string, got %T", ErrTypeMismatch, elem)
	}
	if err := binary.Write(w, byteOrder, uint32(length)); err != nil {
		return fmt.Errorf("binfmt: writing array length: %w", err)
	}
	return encodeSeq(n.inner, elem, w)
}

func encodePrimitive(code byte, elem any, w io.Writer) error {
	if s, ok := elem.(string); ok {
		if code != StringElem {
			return fmt.Errorf("%w: string element for numeric code %q", ErrTypeMismatch, code)
		}
		if _, err := io.WriteString(w, s); err != nil {
			return fmt.Errorf("binfmt: writing string element: %w", err)
		}
		return nil
	}

	switch code {
	case Int8:
		n, ok := intValue(elem, math.MinInt8, math.MaxInt8)
		if !ok {
			return mismatch(code, elem)
		}
		return writeValue(w, int8(n))
	case Int16:
		n, ok := intValue(elem, math.MinInt16, math.MaxInt16)
		if !ok {
			return mismatch(code, elem)
		}
		return writeValue(w, int16(n))
	case Int32:
		n, ok := intValue(elem, math.MinInt32, math.MaxInt32)
		if !ok {
			return mismatch(code, elem)
		}
		return writeValue(w, int32(n))
	case Int64:
		n, ok := intValue(elem, math.MinInt64, math.MaxInt64)
		if !ok {
			return mismatch(code, elem)
		}
		return writeValue(w, n)
	case Uint8:
		n, ok := uintValue(elem, math.MaxUint8)
		if !ok {
			return mismatch(code, elem)
		}
		return writeValue(w, uint8(n))
	case Uint16:
		n, ok := uintValue(elem, math.MaxUint16)
		if !ok {
			return mismatch(code, elem)
		}
		return writeValue(w, uint16(n))
	case Uint32:
		n, ok := uintValue(elem, math.MaxUint32)
		if !ok {
			return mismatch(code, elem)
		}
		return writeValue(w, uint32(n))
	case Uint64:
		n, ok := uintValue(elem, math.MaxUint64)
		if !ok {
			return mismatch(code, elem)
		}
		return writeValue(w, n)
	case Float32:
		f, ok := floatValue(elem)
		if !ok {
			return mismatch(code, elem)
		}
		return writeValue(w, float32(f))
	case Float64:
		f, ok := floatValue(elem)
		if !ok {
			return mismatch(code, elem)
		}
		return writeValue(w, f)
	case StringElem:
		// Non-string element for the string code.
		return mismatch(code, elem)
	default:
		return fmt.Errorf("%w: unknown format code %q", ErrFormat, code)
	}
}

func writeValue(w io.Writer, v any) error {
	if err := binary.Write(w, byteOrder, v); err != nil {
		return fmt.Errorf("binfmt: writing value: %w", err)
	}
	return nil
}

func mismatch(code byte, elem any) error {
	return fmt.Errorf("%w: cannot encode %T as code %q", ErrTypeMismatch, elem, code)
}

// intValue converts any built-in integer to int64, reporting false when
// elem is not an integer or falls outside [lo, hi].
func intValue(elem any, lo, hi int64) (int64, bool) {
	var n int64
	switch v := elem.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		n = int64(v)
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		n = int64(v)
	default:
		return 0, false
	}
	if n < lo || n > hi {
		return 0, false
	}
	return n, true
}

// uintValue converts any built-in integer to uint64, reporting false when
// elem is not an integer, is negative, or exceeds hi.
func uintValue(elem any, hi uint64) (uint64, bool) {
	var n uint64
	switch v := elem.(type) {
	case int:
		if v < 0 {
			return 0, false
		}
		n = uint64(v)
	case int8:
		if v < 0 {
			return 0, false
		}
		n = uint64(v)
	case int16:
		if v < 0 {
			return 0, false
		}
		n = uint64(v)
	case int32:
		if v < 0 {
			return 0, false
		}
		n = uint64(v)
	case int64:
		if v < 0 {
			return 0, false
		}
		n = uint64(v)
	case uint:
		n = uint64(v)
	case uint8:
		n = uint64(v)
	case uint16:
		n = uint64(v)
	case uint32:
		n = uint64(v)
	case uint64:
		n = v
	default:
		return 0, false
	}
	if n > hi {
		return 0, false
	}
	return n, true
}

// floatValue converts a float or integer element to float64.
func floatValue(elem any) (float64, bool) {
	switch v := elem.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return 0, false
	}
}
