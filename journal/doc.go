// Package journal implements a segmented, sorted record log. Records are
// buffered per segment in a btree and flushed in sorted order; reading
// back merges all segments into one globally sorted sequence.
//
// Basic usage:
//
//	file, err := os.Create("records.jrn")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	writer, err := journal.NewWriter(file, reg, 1000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := writer.Write(rec); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := writer.Close(); err != nil {
//	    log.Fatal(err)
//	}
//
//	file, err = os.Open("records.jrn")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	all, err := journal.NewReader(file, reg).All()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for rec := range all {
//	    // Process rec.
//	}
//
// File format: each segment is an 8-byte total length (counting the header
// itself) followed by that many bytes of record envelopes. Segments rotate
// after the configured maximum number of records.
package journal
