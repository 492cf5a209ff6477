package journal

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/btree"
	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/envelope"
	"github.com/penguinmenac3/binrec/record"
)

var (
	ErrInvalidMaxRecords = errors.New("journal: maxRecords must be greater than 0")
	ErrClosed            = errors.New("journal: already closed")
)

// Writer appends records to a segmented journal. Records are buffered in a
// btree so every flushed segment is sorted, and segments rotate after
// maxRecords records.
type Writer struct {
	reg            *binfmt.Registry
	wc             io.WriteCloser
	maxRecords     int
	currentOffset  atomic.Int64
	currentSegment atomic.Pointer[segment]
	closed         atomic.Bool
	mu             sync.Mutex
}

type segment struct {
	records *btree.BTreeG[record.Record]
}

func newSegment() *segment {
	return &segment{
		records: btree.NewG[record.Record](2, func(a, b record.Record) bool {
			return a.Less(b)
		}),
	}
}

// NewWriter creates a journal writer on wc. Records are encoded through
// reg, so every tag written must be registered there.
func NewWriter(wc io.WriteCloser, reg *binfmt.Registry, maxRecords int) (*Writer, error) {
	if maxRecords <= 0 {
		return nil, ErrInvalidMaxRecords
	}

	w := &Writer{
		reg:        reg,
		wc:         wc,
		maxRecords: maxRecords,
	}
	w.currentSegment.Store(newSegment())

	return w, nil
}

// Write adds a record to the current segment, flushing it once it holds
// maxRecords records.
func (w *Writer) Write(rec record.Record) error {
	if w.closed.Load() {
		return ErrClosed
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	seg := w.currentSegment.Load()
	seg.records.ReplaceOrInsert(rec)

	if seg.records.Len() >= w.maxRecords {
		if err := w.flushSegment(seg.records); err != nil {
			return err
		}
		w.currentSegment.Store(newSegment())
	}

	return nil
}

// flushSegment writes one sorted segment: its total length including the
// length header itself, then the record envelopes.
func (w *Writer) flushSegment(s *btree.BTreeG[record.Record]) error {
	var (
		buf      bytes.Buffer
		writeErr error
	)

	s.Ascend(func(rec record.Record) bool {
		if _, err := envelope.Write(&buf, w.reg, rec); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return writeErr
	}

	totalSize := envelope.Int64Size + int64(buf.Len())

	bw := envelope.NewBinaryWriter(w.wc)
	if _, err := bw.WriteInt64(totalSize); err != nil {
		return err
	}
	if _, err := io.Copy(w.wc, &buf); err != nil {
		return err
	}

	w.currentOffset.Add(totalSize)
	return nil
}

// Close flushes the open segment and closes the underlying writer.
func (w *Writer) Close() error {
	if w.closed.Swap(true) {
		return ErrClosed
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	seg := w.currentSegment.Load()
	if seg.records.Len() > 0 {
		if err := w.flushSegment(seg.records); err != nil {
			return err
		}
	}

	return w.wc.Close()
}
