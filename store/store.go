// Package store provides a durable key-value view over records, backed by
// Pebble. Records are keyed by (group, ID) and stored as envelope frames,
// so the same registry that drives journals and tables decodes them here.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/envelope"
	"github.com/penguinmenac3/binrec/record"
)

// Common errors returned by store operations.
var (
	ErrNotFound   = errors.New("store: record not found")
	ErrInvalidKey = errors.New("store: group and id must be non-empty and free of NUL bytes")
)

// keySeparator splits group from ID inside a key. Groups and IDs must not
// contain it.
const keySeparator = byte(0x00)

// Options configures a Store.
type Options struct {
	// CacheSize is the Pebble block cache size in bytes.
	CacheSize int64

	// MaxOpenFiles bounds the number of open file descriptors.
	MaxOpenFiles int
}

// Store is a Pebble-backed record store.
type Store struct {
	db  *pebble.DB
	reg *binfmt.Registry
}

// Open opens or creates a store at the given path. Payloads are encoded
// and decoded through reg.
func Open(path string, reg *binfmt.Registry, opts *Options) (*Store, error) {
	if opts == nil {
		opts = &Options{}
	}

	pebbleOpts := &pebble.Options{
		MaxOpenFiles: opts.MaxOpenFiles,
	}
	if opts.CacheSize > 0 {
		pebbleOpts.Cache = pebble.NewCache(opts.CacheSize)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database: %w", err)
	}

	return &Store{db: db, reg: reg}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a record under its (group, ID) key, replacing any previous
// version.
func (s *Store) Put(rec record.Record) error {
	key, err := makeKey(rec.Group, rec.ID)
	if err != nil {
		return err
	}

	value, err := encodeValue(s.reg, rec)
	if err != nil {
		return err
	}

	return s.db.Set(key, value, pebble.Sync)
}

// PutAll stores multiple records in a single atomic batch.
func (s *Store) PutAll(records []record.Record) error {
	batch := s.db.NewBatch()
	defer batch.Close()

	for _, rec := range records {
		key, err := makeKey(rec.Group, rec.ID)
		if err != nil {
			return err
		}

		value, err := encodeValue(s.reg, rec)
		if err != nil {
			return err
		}

		if err := batch.Set(key, value, nil); err != nil {
			return err
		}
	}

	return batch.Commit(pebble.Sync)
}

// Get retrieves the record stored under (group, id).
func (s *Store) Get(group, id string) (record.Record, error) {
	key, err := makeKey(group, id)
	if err != nil {
		return record.Record{}, err
	}

	value, closer, err := s.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return record.Record{}, ErrNotFound
		}
		return record.Record{}, fmt.Errorf("store: get failed: %w", err)
	}
	defer closer.Close()

	return decodeValue(s.reg, value)
}

// Delete removes the record stored under (group, id). Deleting a missing
// record is not an error.
func (s *Store) Delete(group, id string) error {
	key, err := makeKey(group, id)
	if err != nil {
		return err
	}

	return s.db.Delete(key, pebble.Sync)
}

// DeleteGroup removes every record in the group.
func (s *Store) DeleteGroup(group string) error {
	lower, upper, err := groupBounds(group)
	if err != nil {
		return err
	}

	return s.db.DeleteRange(lower, upper, pebble.Sync)
}

// Group returns an iterator over all records in the group, in ID order.
func (s *Store) Group(group string) (iter.Seq[record.Record], error) {
	lower, upper, err := groupBounds(group)
	if err != nil {
		return nil, err
	}

	return s.scan(lower, upper), nil
}

// All returns an iterator over every record in the store, ordered by group
// then ID.
func (s *Store) All() iter.Seq[record.Record] {
	return s.scan(nil, nil)
}

// Groups returns the distinct group names present in the store.
func (s *Store) Groups() ([]string, error) {
	it, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, fmt.Errorf("store: failed to iterate: %w", err)
	}
	defer it.Close()

	var groups []string
	for it.First(); it.Valid(); {
		group, _, ok := splitKey(it.Key())
		if !ok {
			it.Next()
			continue
		}
		groups = append(groups, group)

		// Jump past the group's key range.
		_, upper, err := groupBounds(group)
		if err != nil {
			return nil, err
		}
		if !it.SeekGE(upper) {
			break
		}
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("store: iteration failed: %w", err)
	}
	return groups, nil
}

// Information summarizes a group without materializing its records.
func (s *Store) Information(group string) (record.Information, error) {
	info := record.Information{Group: group}

	seq, err := s.Group(group)
	if err != nil {
		return info, err
	}

	for rec := range seq {
		if info.RecordCount == 0 || rec.Time.Before(info.FirstTime) {
			info.FirstTime = rec.Time
		}
		info.RecordCount++
	}
	return info, nil
}

func (s *Store) scan(lower, upper []byte) iter.Seq[record.Record] {
	return func(yield func(record.Record) bool) {
		it, err := s.db.NewIter(&pebble.IterOptions{
			LowerBound: lower,
			UpperBound: upper,
		})
		if err != nil {
			return
		}
		defer it.Close()

		for it.First(); it.Valid(); it.Next() {
			rec, err := decodeValue(s.reg, it.Value())
			if err != nil {
				return
			}
			if !yield(rec) {
				return
			}
		}
	}
}

func makeKey(group, id string) ([]byte, error) {
	if group == "" || id == "" ||
		strings.ContainsRune(group, rune(keySeparator)) ||
		strings.ContainsRune(id, rune(keySeparator)) {
		return nil, ErrInvalidKey
	}

	key := make([]byte, 0, len(group)+1+len(id))
	key = append(key, group...)
	key = append(key, keySeparator)
	key = append(key, id...)
	return key, nil
}

func splitKey(key []byte) (group, id string, ok bool) {
	i := bytes.IndexByte(key, keySeparator)
	if i < 0 {
		return "", "", false
	}
	return string(key[:i]), string(key[i+1:]), true
}

// groupBounds returns the key range [lower, upper) covering a group.
func groupBounds(group string) (lower, upper []byte, err error) {
	if group == "" || strings.ContainsRune(group, rune(keySeparator)) {
		return nil, nil, ErrInvalidKey
	}

	lower = append([]byte(group), keySeparator)
	upper = append([]byte(group), keySeparator+1)
	return lower, upper, nil
}

func encodeValue(reg *binfmt.Registry, rec record.Record) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := envelope.Write(&buf, reg, rec); err != nil {
		return nil, fmt.Errorf("store: failed to encode record: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeValue(reg *binfmt.Registry, value []byte) (record.Record, error) {
	rec, err := envelope.Read(bytes.NewReader(value), reg)
	if err != nil {
		return record.Record{}, fmt.Errorf("store: failed to decode record: %w", err)
	}
	return rec, nil
}
