package binfmt

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Decode runs format once against r. The result is the decoded value
// itself when the format has exactly one top-level token, otherwise the
// ordered []any of one value per token. A source that runs out of bytes
// mid-field fails with ErrTruncated and no partial value is returned.
func Decode(reg *Registry, format string, r io.Reader) (any, error) {
	nodes, err := parseFormat(format, reg, map[byte]bool{})
	if err != nil {
		return nil, err
	}
	vals, err := decodeNodes(nodes, r)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 1 {
		return vals[0], nil
	}
	return vals, nil
}

// DecodeAll re-runs format against rs until no bytes remain, collecting
// one entry per run as Decode would return it. An empty source yields an
// empty slice; a source whose length is not an exact multiple of the
// format's encoding fails with ErrTruncated.
func DecodeAll(reg *Registry, format string, rs io.ReadSeeker) ([]any, error) {
	nodes, err := parseFormat(format, reg, map[byte]bool{})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: empty format cannot be repeated", ErrFormat)
	}

	var out []any
	for {
		left, err := Remaining(rs)
		if err != nil {
			return nil, fmt.Errorf("binfmt: probing remaining length: %w", err)
		}
		if left <= 0 {
			return out, nil
		}
		vals, err := decodeNodes(nodes, rs)
		if err != nil {
			return nil, err
		}
		if len(nodes) == 1 {
			out = append(out, vals[0])
		} else {
			out = append(out, vals)
		}
	}
}

// Remaining reports how many unread bytes are left in s. The current
// position is restored before returning.
func Remaining(s io.Seeker) (int64, error) {
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return 0, err
	}
	return end - cur, nil
}

func decodeNodes(nodes []node, r io.Reader) ([]any, error) {
	vals := make([]any, 0, len(nodes))
	for _, n := range nodes {
		v, err := decodeNode(n, r)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func decodeNode(n node, r io.Reader) (any, error) {
	switch n.kind {
	case kindArray:
		return decodeArray(n, r)
	case kindComposite:
		fields, err := decodeNodes(n.layout, r)
		if err != nil {
			return nil, err
		}
		v, err := n.typ.Build(fields)
		if err != nil {
			return nil, fmt.Errorf("binfmt: building type %q: %w", n.typ.Tag, err)
		}
		return v, nil
	default:
		return decodePrimitive(n.code, r)
	}
}

func decodeArray(n node, r io.Reader) (any, error) {
	var count uint32
	if err := binary.Read(r, byteOrder, &count); err != nil {
		return nil, truncated("array length", err)
	}

	// An inner format of exactly "s" joins to a string, so the elements
	// are just the next count bytes.
	if n.coalesce {
		buf := make([]byte, count)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, truncated("string array", err)
		}
		return string(buf), nil
	}

	elems := make([]any, 0, count)
	for i := uint32(0); i < count; i++ {
		vals, err := decodeNodes(n.inner, r)
		if err != nil {
			return nil, err
		}
		if len(n.inner) == 1 {
			elems = append(elems, vals[0])
		} else {
			elems = append(elems, vals)
		}
	}
	return elems, nil
}

func decodePrimitive(code byte, r io.Reader) (any, error) {
	switch code {
	case Int8:
		var v int8
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, truncated("int8", err)
		}
		return v, nil
	case Uint8:
		var v uint8
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, truncated("uint8", err)
		}
		return v, nil
	case Int16:
		var v int16
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, truncated("int16", err)
		}
		return v, nil
	case Uint16:
		var v uint16
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, truncated("uint16", err)
		}
		return v, nil
	case Int32:
		var v int32
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, truncated("int32", err)
		}
		return v, nil
	case Uint32:
		var v uint32
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, truncated("uint32", err)
		}
		return v, nil
	case Int64:
		var v int64
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, truncated("int64", err)
		}
		return v, nil
	case Uint64:
		var v uint64
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, truncated("uint64", err)
		}
		return v, nil
	case Float32:
		var v float32
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, truncated("float32", err)
		}
		return v, nil
	case Float64:
		var v float64
		if err := binary.Read(r, byteOrder, &v); err != nil {
			return nil, truncated("float64", err)
		}
		return v, nil
	case StringElem:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return nil, truncated("string element", err)
		}
		return string(b[:]), nil
	default:
		return nil, fmt.Errorf("%w: unknown format code %q", ErrFormat, code)
	}
}

func truncated(what string, err error) error {
	return fmt.Errorf("%w: reading %s: %w", ErrTruncated, what, err)
}
