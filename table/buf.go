package table

import (
	"bufio"
	"io"
)

// bufferedReadSeeker is a bufio.Reader that stays valid across seeks on
// the underlying [io.ReadSeeker] by resetting its buffer after each seek.
type bufferedReadSeeker struct {
	reader *bufio.Reader
	rs     io.ReadSeeker
}

func newBufferedReadSeeker(rs io.ReadSeeker, size int) *bufferedReadSeeker {
	return &bufferedReadSeeker{
		reader: bufio.NewReaderSize(rs, size),
		rs:     rs,
	}
}

func (r *bufferedReadSeeker) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}

func (r *bufferedReadSeeker) Seek(offset int64, whence int) (int64, error) {
	pos, err := r.rs.Seek(offset, whence)
	if err != nil {
		return pos, err
	}

	r.reader.Reset(r.rs)
	return pos, nil
}
