package compactor

import (
	"fmt"
	"io"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/merge"
	"github.com/penguinmenac3/binrec/record"
	"github.com/penguinmenac3/binrec/table"
)

// Compact performs a streaming k-way merge of the sequences and writes the
// surviving records to a table on w. Inputs must be sorted by ID; when the
// same ID appears in several sequences the record from the later sequence
// wins.
func Compact(w io.Writer, reg *binfmt.Registry, sequences ...merge.Sequence[record.Record]) error {
	if len(sequences) == 0 {
		return nil
	}

	tbl, err := table.OpenWriter(w, reg, nil)
	if err != nil {
		return fmt.Errorf("compactor: failed to open table: %w", err)
	}

	less := func(a, b record.Record) bool { return a.ID < b.ID }

	var (
		bw   = tbl.BatchWriter()
		last record.Record
		seen bool
	)

	for current := range merge.Merge(less, sequences...) {
		if !seen {
			last = current
			seen = true
			continue
		}
		if current.ID != last.ID {
			if err := bw.Add(last); err != nil {
				return err
			}
		}
		last = current
	}

	if seen {
		if err := bw.Add(last); err != nil {
			return err
		}
	}

	return bw.Close()
}
