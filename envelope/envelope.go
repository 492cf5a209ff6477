package envelope

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/record"
)

var (
	Uint64Size = int64(binary.Size(uint64(0)))
	Int64Size  = int64(binary.Size(int64(0)))
	// MagicBytes identify a valid envelope frame (BRC).
	MagicBytes           = []byte{0x42, 0x52, 0x43}
	ErrInvalidMagicBytes = errors.New("envelope: invalid magic bytes - not a valid frame")
)

// byteOrder matches the binfmt codec so frames and payloads share one
// encoding convention.
var byteOrder = binary.NativeEndian

// BinaryWriter handles writing binary data with error handling.
type BinaryWriter struct {
	w io.Writer
}

func NewBinaryWriter(w io.Writer) BinaryWriter {
	return BinaryWriter{w: w}
}

func (bw BinaryWriter) WriteString(s string) (int64, error) {
	if err := binary.Write(bw.w, byteOrder, uint64(len(s))); err != nil {
		return 0, fmt.Errorf("error writing string length: %w", err)
	}

	n, err := io.WriteString(bw.w, s)
	if err != nil {
		return Uint64Size, fmt.Errorf("error writing string content: %w", err)
	}

	return Uint64Size + int64(n), nil
}

func (bw BinaryWriter) WriteInt64(i int64) (int64, error) {
	if err := binary.Write(bw.w, byteOrder, i); err != nil {
		return 0, err
	}
	return Int64Size, nil
}

func (bw BinaryWriter) WriteUint8(b byte) (int64, error) {
	if _, err := bw.w.Write([]byte{b}); err != nil {
		return 0, err
	}
	return 1, nil
}

func (bw BinaryWriter) WriteBytes(b []byte) (int64, error) {
	if err := binary.Write(bw.w, byteOrder, uint64(len(b))); err != nil {
		return 0, fmt.Errorf("error writing bytes length: %w", err)
	}

	n, err := bw.w.Write(b)
	if err != nil {
		return Uint64Size, fmt.Errorf("error writing bytes content: %w", err)
	}

	return Uint64Size + int64(n), nil
}

// BinaryReader handles reading binary data with error handling.
type BinaryReader struct {
	r io.Reader
}

func NewBinaryReader(r io.Reader) BinaryReader {
	return BinaryReader{r: r}
}

func (br BinaryReader) ReadString() (string, error) {
	var length uint64
	if err := binary.Read(br.r, byteOrder, &length); err != nil {
		return "", fmt.Errorf("error reading string length: %w", err)
	}

	b := make([]byte, length)
	if _, err := io.ReadFull(br.r, b); err != nil {
		return "", fmt.Errorf("error reading string content: %w", err)
	}
	return string(b), nil
}

func (br BinaryReader) ReadInt64() (int64, error) {
	var value int64
	err := binary.Read(br.r, byteOrder, &value)
	return value, err
}

func (br BinaryReader) ReadUint8() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(br.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (br BinaryReader) ReadBytes() ([]byte, error) {
	var length uint64
	if err := binary.Read(br.r, byteOrder, &length); err != nil {
		return nil, fmt.Errorf("error reading bytes length: %w", err)
	}

	b := make([]byte, length)
	if _, err := io.ReadFull(br.r, b); err != nil {
		return nil, fmt.Errorf("error reading bytes content: %w", err)
	}
	return b, nil
}

// Write writes a single framed record to the writer. The payload is the
// binfmt encoding of rec.Value under rec.Tag's layout.
func Write(w io.Writer, reg *binfmt.Registry, rec record.Record) (int64, error) {
	var payload bytes.Buffer
	if err := binfmt.Encode(reg, string(rec.Tag), rec.Value, &payload); err != nil {
		return 0, fmt.Errorf("error encoding payload: %w", err)
	}

	var (
		totalBytes int64
		n          int64
	)

	mn, err := w.Write(MagicBytes)
	if err != nil {
		return int64(mn), fmt.Errorf("failed to write magic bytes: %w", err)
	}
	totalBytes += int64(mn)

	bw := NewBinaryWriter(w)

	n, err = bw.WriteUint8(rec.Tag)
	if err != nil {
		return totalBytes, fmt.Errorf("error writing tag: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteString(rec.ID)
	if err != nil {
		return totalBytes, fmt.Errorf("error writing ID: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteString(rec.Group)
	if err != nil {
		return totalBytes, fmt.Errorf("error writing group: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteInt64(rec.Time.UnixNano())
	if err != nil {
		return totalBytes, fmt.Errorf("error writing timestamp: %w", err)
	}
	totalBytes += n

	n, err = bw.WriteBytes(payload.Bytes())
	if err != nil {
		return totalBytes, fmt.Errorf("error writing payload: %w", err)
	}
	totalBytes += n

	return totalBytes, nil
}

// Read reads a single framed record from the reader, decoding its payload
// through reg.
func Read(r io.Reader, reg *binfmt.Registry) (record.Record, error) {
	magicBytes := make([]byte, len(MagicBytes))
	if _, err := io.ReadFull(r, magicBytes); err != nil {
		return record.Record{}, fmt.Errorf("failed to read magic bytes: %w", err)
	}
	if !bytes.Equal(magicBytes, MagicBytes) {
		return record.Record{}, ErrInvalidMagicBytes
	}

	br := NewBinaryReader(r)

	tag, err := br.ReadUint8()
	if err != nil {
		return record.Record{}, fmt.Errorf("error reading tag: %w", err)
	}

	id, err := br.ReadString()
	if err != nil {
		return record.Record{}, fmt.Errorf("error reading ID: %w", err)
	}

	group, err := br.ReadString()
	if err != nil {
		return record.Record{}, fmt.Errorf("error reading group: %w", err)
	}

	unixNano, err := br.ReadInt64()
	if err != nil {
		return record.Record{}, fmt.Errorf("error reading timestamp: %w", err)
	}

	payload, err := br.ReadBytes()
	if err != nil {
		return record.Record{}, fmt.Errorf("error reading payload: %w", err)
	}

	value, err := binfmt.Decode(reg, string(tag), bytes.NewReader(payload))
	if err != nil {
		return record.Record{}, fmt.Errorf("error decoding payload: %w", err)
	}

	return record.Record{
		ID:    id,
		Group: group,
		Time:  time.Unix(0, unixNano).UTC(),
		Tag:   tag,
		Value: value,
	}, nil
}

// Seq creates an iterator over framed records, stopping at the first read
// error or end of stream.
func Seq(r io.Reader, reg *binfmt.Registry) iter.Seq[record.Record] {
	return func(yield func(record.Record) bool) {
		for {
			rec, err := Read(r, reg)
			if err != nil {
				return
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// ReadAll reads all framed records into a slice.
func ReadAll(r io.Reader, reg *binfmt.Registry) []record.Record {
	records := make([]record.Record, 0, 1)
	for rec := range Seq(r, reg) {
		records = append(records, rec)
	}
	return records
}
