package journal

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/envelope"
	"github.com/penguinmenac3/binrec/merge"
	"github.com/penguinmenac3/binrec/record"
)

var ErrCorruptSegment = errors.New("journal: corrupt segment header")

// Reader reads a journal back as one globally sorted sequence by merging
// its sorted segments.
type Reader struct {
	r        io.ReaderAt
	reg      *binfmt.Registry
	segments []segmentInfo
}

type segmentInfo struct {
	offset int64
	length int64
}

func NewReader(r io.ReaderAt, reg *binfmt.Registry) *Reader {
	return &Reader{
		r:   r,
		reg: reg,
	}
}

// All returns an iterator over every record in the journal in sorted
// order.
func (r *Reader) All() (iter.Seq[record.Record], error) {
	if err := r.readExistingSegments(); err != nil {
		return nil, err
	}

	sequences := make([]merge.Sequence[record.Record], 0, len(r.segments))
	for _, seg := range r.segments {
		sequences = append(sequences, &segmentReader{
			reader: r.r,
			reg:    r.reg,
			offset: seg.offset,
			length: seg.length,
		})
	}

	return merge.Merge(record.Record.Less, sequences...), nil
}

func (r *Reader) readExistingSegments() error {
	r.segments = r.segments[:0]

	offset := int64(0)
	for {
		br := envelope.NewBinaryReader(io.NewSectionReader(r.r, offset, envelope.Int64Size))
		length, err := br.ReadInt64()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("journal: reading segment header: %w", err)
		}
		if length < envelope.Int64Size {
			return fmt.Errorf("%w: length %d at offset %d", ErrCorruptSegment, length, offset)
		}

		r.segments = append(r.segments, segmentInfo{offset: offset, length: length})
		offset += length
	}
}

type segmentReader struct {
	reader io.ReaderAt
	reg    *binfmt.Registry
	offset int64
	length int64
}

func (sr *segmentReader) All() iter.Seq[record.Record] {
	section := io.NewSectionReader(sr.reader, sr.offset+envelope.Int64Size, sr.length-envelope.Int64Size)
	return envelope.Seq(section, sr.reg)
}
