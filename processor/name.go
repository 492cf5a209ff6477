package processor

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// JournalKey identifies one journal file: the group it holds and the event
// time of the record that opened it.
type JournalKey struct {
	Group string
	Time  time.Time
}

// Serialize renders the key as a journal file name.
func Serialize(k JournalKey) string {
	return fmt.Sprintf("%s_%d.jrn", k.Group, k.Time.UnixNano())
}

// Deserialize parses a journal file name back into its key. Group names may
// contain underscores; the timestamp starts after the last one.
func Deserialize(name string) (JournalKey, error) {
	name = strings.TrimSuffix(name, ".jrn")

	i := strings.LastIndex(name, "_")
	if i < 0 {
		return JournalKey{}, fmt.Errorf("invalid journal file name format")
	}

	nanos, err := strconv.ParseInt(name[i+1:], 10, 64)
	if err != nil {
		return JournalKey{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	return JournalKey{
		Group: name[:i],
		Time:  time.Unix(0, nanos).UTC(),
	}, nil
}
