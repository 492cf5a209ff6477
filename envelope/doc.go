// Package envelope implements the framed on-disk representation of a
// record.Record. The binfmt byte stream is deliberately not self-describing,
// so the envelope adds the out-of-band context a reader needs: magic bytes
// for format validation, the type tag, the record identity and group, the
// event time, and a length-prefixed binfmt payload.
//
// Basic usage:
//
//	rec := record.Record{
//	    ID:    "record1",
//	    Group: "sensors",
//	    Time:  time.Now(),
//	    Tag:   'M',
//	    Value: measurement,
//	}
//
//	var buf bytes.Buffer
//	n, err := envelope.Write(&buf, reg, rec)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for rec := range envelope.Seq(&buf, reg) {
//	    fmt.Printf("read record: %s\n", rec.ID)
//	}
//
// The tag must be registered on the same registry on both sides; an unknown
// tag surfaces binfmt.ErrFormat from the payload decode.
package envelope
