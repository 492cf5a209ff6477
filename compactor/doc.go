// Package compactor implements streaming compaction of multiple sorted
// record sequences into a single table. It merges the sequences with a
// k-way heap merge while deduplicating records by ID, keeping only the
// latest version of each record.
//
// The compaction process:
//   - Merges multiple ID-sorted sequences into a single sorted sequence
//   - Deduplicates records with the same ID, keeping the version from the
//     latest input sequence
//   - Writes the result as a table for indexed access
//
// Basic usage:
//
//	reg := binfmt.NewRegistry()
//
//	seq1 := merge.Slice[record.Record]{
//	    {ID: "1", Tag: 'i', Value: int32(1)},
//	    {ID: "2", Tag: 'i', Value: int32(2)},
//	}
//	seq2 := merge.Slice[record.Record]{
//	    {ID: "1", Tag: 'i', Value: int32(3)},
//	    {ID: "3", Tag: 'i', Value: int32(4)},
//	}
//
//	file, err := os.Create("output.tbl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer file.Close()
//
//	err = compactor.Compact(file, reg, seq1, seq2)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Memory usage stays constant regardless of input size: records stream
// through the merge one at a time and directly into the table writer.
package compactor
