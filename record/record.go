// Package record defines the typed record flowing through the pipeline: an
// identity, a grouping key, an event time, and a payload value belonging to
// a type registered on a binfmt.Registry under Tag.
package record

import (
	"cmp"
	"time"
)

var (
	// Create a string with the maximum Unicode code point (U+10FFFF).
	maxPossibleString = "\U0010FFFF"
	// The max time that can be represented.
	maxTime = time.Date(292277026596, 12, 4, 15, 30, 7, 999999999, time.UTC)

	// Max orders after every real record; merges use it as the sentinel.
	Max = Record{
		ID:    maxPossibleString,
		Group: maxPossibleString,
		Time:  maxTime,
	}
)

// Record is one pipeline record. Value holds the decoded payload; Tag names
// the registered binfmt type that encodes it.
type Record struct {
	ID    string
	Group string
	Time  time.Time
	Tag   byte
	Value any
}

// Less orders records by group, then id, then time.
func (r Record) Less(o Record) bool {
	if c := cmp.Compare(r.Group, o.Group); c != 0 {
		return c < 0
	}
	if c := cmp.Compare(r.ID, o.ID); c != 0 {
		return c < 0
	}
	return r.Time.Before(o.Time)
}

// Information describes the state of one group's active output.
type Information struct {
	Group       string
	RecordCount int
	FirstTime   time.Time
}

// Strategy decides when a group's active output should be rotated.
type Strategy interface {
	ShouldRotate(information Information, watermark time.Time) bool
}
