package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/record"
	"github.com/penguinmenac3/binrec/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "db"), binfmt.NewRegistry(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func newRecord(group, id string, v float64) record.Record {
	return record.Record{
		ID:    id,
		Group: group,
		Time:  time.Now().UTC(),
		Tag:   'd',
		Value: v,
	}
}

func TestStorePutGet(t *testing.T) {
	s := newTestStore(t)

	want := newRecord("sensors", "temp-1", 21.5)
	require.NoError(t, s.Put(want))

	got, err := s.Get("sensors", "temp-1")
	require.NoError(t, err)
	assert.Equal(t, want.Value, got.Value)
	assert.Equal(t, want.Group, got.Group)
	assert.Equal(t, want.ID, got.ID)
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get("sensors", "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStorePutReplaces(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put(newRecord("sensors", "temp-1", 1.0)))
	require.NoError(t, s.Put(newRecord("sensors", "temp-1", 2.0)))

	got, err := s.Get("sensors", "temp-1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got.Value)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Put(newRecord("sensors", "temp-1", 1.0)))
	require.NoError(t, s.Delete("sensors", "temp-1"))

	_, err := s.Get("sensors", "temp-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting again is not an error.
	assert.NoError(t, s.Delete("sensors", "temp-1"))
}

func TestStoreInvalidKeys(t *testing.T) {
	s := newTestStore(t)

	assert.ErrorIs(t, s.Put(newRecord("", "id", 1.0)), store.ErrInvalidKey)
	assert.ErrorIs(t, s.Put(newRecord("group", "", 1.0)), store.ErrInvalidKey)
	assert.ErrorIs(t, s.Put(newRecord("gr\x00up", "id", 1.0)), store.ErrInvalidKey)

	_, err := s.Get("group", "i\x00d")
	assert.ErrorIs(t, err, store.ErrInvalidKey)
}

func TestStorePutAll(t *testing.T) {
	s := newTestStore(t)

	records := []record.Record{
		newRecord("a", "1", 1.0),
		newRecord("a", "2", 2.0),
		newRecord("b", "1", 3.0),
	}
	require.NoError(t, s.PutAll(records))

	for _, want := range records {
		got, err := s.Get(want.Group, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Value, got.Value)
	}
}

func TestStoreGroupScan(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutAll([]record.Record{
		newRecord("a", "2", 2.0),
		newRecord("a", "1", 1.0),
		newRecord("b", "1", 3.0),
	}))

	seq, err := s.Group("a")
	require.NoError(t, err)

	var ids []string
	for rec := range seq {
		assert.Equal(t, "a", rec.Group)
		ids = append(ids, rec.ID)
	}
	assert.Equal(t, []string{"1", "2"}, ids)
}

func TestStoreGroupPrefixIsolation(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutAll([]record.Record{
		newRecord("ab", "1", 1.0),
		newRecord("abc", "1", 2.0),
	}))

	seq, err := s.Group("ab")
	require.NoError(t, err)

	var got []record.Record
	for rec := range seq {
		got = append(got, rec)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "ab", got[0].Group)
}

func TestStoreAll(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutAll([]record.Record{
		newRecord("b", "1", 1.0),
		newRecord("a", "1", 2.0),
		newRecord("a", "2", 3.0),
	}))

	var keys [][2]string
	for rec := range s.All() {
		keys = append(keys, [2]string{rec.Group, rec.ID})
	}
	assert.Equal(t, [][2]string{{"a", "1"}, {"a", "2"}, {"b", "1"}}, keys)
}

func TestStoreGroups(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutAll([]record.Record{
		newRecord("b", "1", 1.0),
		newRecord("a", "1", 2.0),
		newRecord("a", "2", 3.0),
		newRecord("c", "9", 4.0),
	}))

	groups, err := s.Groups()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, groups)
}

func TestStoreDeleteGroup(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutAll([]record.Record{
		newRecord("a", "1", 1.0),
		newRecord("a", "2", 2.0),
		newRecord("b", "1", 3.0),
	}))

	require.NoError(t, s.DeleteGroup("a"))

	groups, err := s.Groups()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, groups)
}

func TestStoreInformation(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.PutAll([]record.Record{
		{ID: "1", Group: "a", Time: base.Add(time.Hour), Tag: 'd', Value: 1.0},
		{ID: "2", Group: "a", Time: base, Tag: 'd', Value: 2.0},
	}))

	info, err := s.Information("a")
	require.NoError(t, err)
	assert.Equal(t, "a", info.Group)
	assert.Equal(t, 2, info.RecordCount)
	assert.Equal(t, base, info.FirstTime)
}

func TestStoreRegisteredType(t *testing.T) {
	reg := binfmt.NewRegistry()
	type reading struct {
		Seq  int32
		Vals []any
	}
	err := reg.Register('R', "i[d]",
		func(fields []any) (any, error) {
			return reading{Seq: fields[0].(int32), Vals: fields[1].([]any)}, nil
		},
		func(v any) ([]any, error) {
			r := v.(reading)
			return []any{r.Seq, r.Vals}, nil
		})
	require.NoError(t, err)

	s, err := store.Open(filepath.Join(t.TempDir(), "db"), reg, nil)
	require.NoError(t, err)
	defer s.Close()

	want := record.Record{
		ID:    "r1",
		Group: "readings",
		Time:  time.Now().UTC(),
		Tag:   'R',
		Value: reading{Seq: 7, Vals: []any{1.5, 2.5}},
	}
	require.NoError(t, s.Put(want))

	got, err := s.Get("readings", "r1")
	require.NoError(t, err)
	assert.Equal(t, want.Value, got.Value)
}
