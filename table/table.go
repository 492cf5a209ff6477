// Package table implements a sorted record table: an append-only file of
// envelope frames ordered by record ID, followed by an ID index and a
// footer. Reads load the index into memory and binary search it, so point
// lookups cost a single seek while sequential scans stream the data
// section front to back.
package table

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"sort"
	"sync"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/envelope"
	"github.com/penguinmenac3/binrec/record"
)

// Common errors that can be returned by table operations.
var (
	ErrTableClosed    = errors.New("table: table already closed")
	ErrInvalidRecord  = errors.New("table: invalid record")
	ErrKeyNotFound    = errors.New("table: key not found")
	ErrCorruptedTable = errors.New("table: corrupted table data")
	ErrReadOnlyTable  = errors.New("table: cannot write to read-only table")
	ErrWriteOrder     = errors.New("table: records must be written in sorted order")
	headerSize        = int64(binary.Size(magicHeader) + binary.Size(formatVersion))
)

// File format constants.
const (
	magicHeader      = int64(0x5242544C) // "RBTL" in hex
	magicFooter      = int64(0x454E4454) // "ENDT" in hex
	formatVersion    = int64(1)
	defaultBufSize   = 52 * 1024
	defaultIndexSize = 1024
)

var byteOrder = binary.NativeEndian

// Options configures the behavior of a table.
type Options struct {
	// ReadOnly opens the table in read-only mode if true.
	ReadOnly bool

	// BufferSize is the size of the read/write buffer.
	BufferSize int
}

// indexEntry maps a record ID to its frame offset in the data section.
type indexEntry struct {
	id     string
	offset int64
}

// Reader represents the reading component of a table.
type Reader struct {
	mu      sync.RWMutex
	reg     *binfmt.Registry
	buf     *bufferedReadSeeker
	br      envelope.BinaryReader
	opts    Options
	closed  bool
	index   []indexEntry
	dataEnd int64
}

// Writer represents the writing component of a table.
type Writer struct {
	mu      sync.Mutex
	reg     *binfmt.Registry
	buf     *bufio.Writer
	bw      envelope.BinaryWriter
	opts    Options
	closed  bool
	index   []indexEntry
	dataEnd int64
}

// OpenWriter initializes a new table writer on the provided writer.
// Payloads are encoded through reg.
func OpenWriter(w io.Writer, reg *binfmt.Registry, opts *Options) (*Writer, error) {
	if w == nil {
		return nil, errors.New("table: writer cannot be nil")
	}

	if opts == nil {
		opts = &Options{}
	}

	if opts.ReadOnly {
		return nil, ErrReadOnlyTable
	}

	if opts.BufferSize == 0 {
		opts.BufferSize = defaultBufSize
	}

	buf := bufio.NewWriterSize(w, opts.BufferSize)
	writer := &Writer{
		reg:   reg,
		opts:  *opts,
		index: make([]indexEntry, 0, defaultIndexSize),
		bw:    envelope.NewBinaryWriter(buf),
		buf:   buf,
	}

	if err := writer.writeHeader(); err != nil {
		return nil, fmt.Errorf("table: failed to write header: %w", err)
	}

	writer.dataEnd = headerSize

	return writer, nil
}

// OpenReader initializes a new table reader on the provided ReadSeeker.
// Payloads are decoded through reg.
func OpenReader(rs io.ReadSeeker, reg *binfmt.Registry, opts *Options) (*Reader, error) {
	if rs == nil {
		return nil, errors.New("table: ReadSeeker cannot be nil")
	}

	if opts == nil {
		opts = &Options{}
	}

	if opts.BufferSize == 0 {
		opts.BufferSize = defaultBufSize
	}

	buf := newBufferedReadSeeker(rs, opts.BufferSize)
	reader := &Reader{
		reg:   reg,
		opts:  *opts,
		index: make([]indexEntry, 0, defaultIndexSize),
		buf:   buf,
		br:    envelope.NewBinaryReader(buf),
	}

	if size, err := rs.Seek(0, io.SeekEnd); err == nil && size > headerSize {
		if err := reader.loadTable(); err != nil {
			return nil, fmt.Errorf("table: failed to load table: %w", err)
		}
	} else {
		return nil, errors.New("table: file is empty or corrupted")
	}

	return reader, nil
}

// OpenWriterFile opens or creates a table writer at the given path.
func OpenWriterFile(path string, reg *binfmt.Registry, opts *Options) (*Writer, error) {
	if opts == nil {
		opts = &Options{}
	}

	if opts.ReadOnly {
		return nil, ErrReadOnlyTable
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("table: failed to open file for writing: %w", err)
	}

	writer, err := OpenWriter(file, reg, opts)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("table: failed to initialize writer: %w", err)
	}

	return writer, nil
}

// OpenReaderFile opens an existing table reader at the given path.
func OpenReaderFile(path string, reg *binfmt.Registry, opts *Options) (*Reader, error) {
	if opts == nil {
		opts = &Options{}
	}

	file, err := os.OpenFile(path, os.O_RDONLY, 0o666)
	if err != nil {
		return nil, fmt.Errorf("table: failed to open file for reading: %w", err)
	}

	reader, err := OpenReader(file, reg, opts)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("table: failed to initialize reader: %w", err)
	}

	return reader, nil
}

// Close writes the index and footer and marks the writer closed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.closed = true

	return w.writeIndex()
}

// Close closes the reader component.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	return nil
}

func (r *Reader) loadTable() error {
	if err := r.checkHeader(); err != nil {
		return err
	}

	indexOffset, err := r.extractIndexOffset()
	if err != nil {
		return err
	}

	return r.readIndex(indexOffset)
}

func (r *Reader) readIndex(indexOffset int64) error {
	r.dataEnd = indexOffset
	if _, err := r.buf.Seek(indexOffset, io.SeekStart); err != nil {
		return err
	}

	count, err := r.br.ReadInt64()
	if err != nil {
		return fmt.Errorf("table: invalid index count: %w", err)
	}

	r.index = make([]indexEntry, 0, count)
	for i := int64(0); i < count; i++ {
		id, err := r.br.ReadString()
		if err != nil {
			return fmt.Errorf("table: invalid index id: %w", err)
		}

		offset, err := r.br.ReadInt64()
		if err != nil {
			return fmt.Errorf("table: invalid index offset: %w", err)
		}

		r.index = append(r.index, indexEntry{
			id:     id,
			offset: offset,
		})
	}
	return nil
}

func (r *Reader) checkHeader() error {
	var (
		header  int64
		version int64
		err     error
	)
	if _, err = r.buf.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if header, err = r.br.ReadInt64(); err != nil {
		return fmt.Errorf("table: invalid header: %w", err)
	}
	if header != magicHeader {
		return ErrCorruptedTable
	}

	if version, err = r.br.ReadInt64(); err != nil {
		return fmt.Errorf("table: invalid version: %w", err)
	}
	if version != formatVersion {
		return fmt.Errorf("table: unsupported version %d", version)
	}

	return nil
}

// extractIndexOffset reads the index offset from the footer.
func (r *Reader) extractIndexOffset() (int64, error) {
	var indexOffset int64
	var err error

	footerSize := int64(binary.Size(indexOffset) + binary.Size(magicFooter))
	if _, err = r.buf.Seek(-footerSize, io.SeekEnd); err != nil {
		return 0, err
	}

	if indexOffset, err = r.br.ReadInt64(); err != nil {
		return 0, err
	}

	var footer int64
	if footer, err = r.br.ReadInt64(); err != nil {
		return 0, err
	}
	if footer != magicFooter {
		return 0, ErrCorruptedTable
	}

	return indexOffset, nil
}

// Get retrieves a record by its ID.
func (r *Reader) Get(id string) (record.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return record.Record{}, ErrTableClosed
	}

	offset, ok := r.idOffset(id)
	if !ok {
		return record.Record{}, ErrKeyNotFound
	}

	if _, err := r.buf.Seek(offset, io.SeekStart); err != nil {
		return record.Record{}, fmt.Errorf("table: seek error: %w", err)
	}

	rec, err := envelope.Read(r.buf, r.reg)
	if err != nil {
		return record.Record{}, fmt.Errorf("table: record parse error: %w", err)
	}

	return rec, nil
}

// idOffset performs a binary search over the index to find the ID's offset.
func (r *Reader) idOffset(id string) (int64, bool) {
	i := sort.Search(len(r.index), func(i int) bool {
		return r.index[i].id >= id
	})
	if i < len(r.index) && r.index[i].id == id {
		return r.index[i].offset, true
	}
	return 0, false
}

// All returns an iterator over all records in the data section.
func (r *Reader) All() (iter.Seq[record.Record], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrTableClosed
	}

	if _, err := r.buf.Seek(headerSize, io.SeekStart); err != nil {
		return nil, err
	}

	data := io.LimitReader(r.buf, r.dataEnd-headerSize)
	return envelope.Seq(data, r.reg), nil
}

// Len returns the number of records in the table.
func (r *Reader) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.index)
}

// writeHeader writes the table header.
func (w *Writer) writeHeader() error {
	if err := binary.Write(w.buf, byteOrder, magicHeader); err != nil {
		return err
	}
	return binary.Write(w.buf, byteOrder, formatVersion)
}

// writeRecord writes a single record to the table.
func (w *Writer) writeRecord(rec record.Record) error {
	if w.closed {
		return ErrTableClosed
	}

	// Ensure records are written in sorted ID order.
	if len(w.index) > 0 {
		lastID := w.index[len(w.index)-1].id
		if rec.ID < lastID {
			return ErrWriteOrder
		}
	}

	n, err := envelope.Write(w.buf, w.reg, rec)
	if err != nil {
		return err
	}

	w.index = append(w.index, indexEntry{
		id:     rec.ID,
		offset: w.dataEnd,
	})

	w.dataEnd += n

	return nil
}

// Write writes a single record to the table. Records must arrive in
// non-decreasing ID order.
func (w *Writer) Write(rec record.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.writeRecord(rec)
}

// BatchWriter creates a new BatchWriter instance.
func (w *Writer) BatchWriter() *BatchWriter {
	return &BatchWriter{
		writer: w,
	}
}

// Flush flushes buffered frames to the underlying writer.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// writeIndex writes the index and footer.
func (w *Writer) writeIndex() error {
	if _, err := w.bw.WriteInt64(int64(len(w.index))); err != nil {
		return err
	}

	for _, v := range w.index {
		if _, err := w.bw.WriteString(v.id); err != nil {
			return err
		}
		if _, err := w.bw.WriteInt64(v.offset); err != nil {
			return err
		}
	}

	// Footer carries the index offset and the magic number.
	if _, err := w.bw.WriteInt64(w.dataEnd); err != nil {
		return err
	}
	if _, err := w.bw.WriteInt64(magicFooter); err != nil {
		return err
	}

	return w.buf.Flush()
}

// BatchWriter provides functionality to write multiple records in batches.
type BatchWriter struct {
	writer *Writer
}

// Add adds a record to the batch.
func (bw *BatchWriter) Add(rec record.Record) error {
	if rec.ID == "" {
		return ErrInvalidRecord
	}

	bw.writer.mu.Lock()
	defer bw.writer.mu.Unlock()

	return bw.writer.writeRecord(rec)
}

// AddAll adds multiple records to the batch.
func (bw *BatchWriter) AddAll(records []record.Record) error {
	for _, rec := range records {
		if err := bw.Add(rec); err != nil {
			return fmt.Errorf("table: batch add error: %w", err)
		}
	}
	return nil
}

// Flush writes all buffered records to the underlying writer.
func (bw *BatchWriter) Flush() error {
	return bw.writer.Flush()
}

// Close flushes any remaining records and finalizes the table.
func (bw *BatchWriter) Close() error {
	return bw.writer.Close()
}
