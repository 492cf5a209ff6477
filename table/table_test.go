package table_test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/penguinmenac3/binrec/binfmt"
	"github.com/penguinmenac3/binrec/record"
	"github.com/penguinmenac3/binrec/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRecord creates a record carrying a single int32 payload.
func newTestRecord(id string, v int32) record.Record {
	return record.Record{
		ID:    id,
		Group: "test-group",
		Time:  time.Now().UTC(),
		Tag:   'i',
		Value: v,
	}
}

// setupWriter initializes a new table writer for testing and returns the
// writer and a cleanup function.
func setupWriter(t *testing.T) (writer *table.Writer, path string, cleanup func()) {
	t.Helper()
	tmpFile, err := os.CreateTemp(t.TempDir(), "table-*.tbl")
	require.NoError(t, err)
	writer, err = table.OpenWriter(tmpFile, binfmt.NewRegistry(), nil)
	require.NoError(t, err)

	cleanup = func() {
		require.NoError(t, writer.Close())
		os.Remove(tmpFile.Name())
	}

	return writer, tmpFile.Name(), cleanup
}

// setupReader initializes a new table reader for testing and returns the
// reader and a cleanup function.
func setupReader(t *testing.T, path string) (reader *table.Reader, cleanup func()) {
	t.Helper()

	file, err := os.OpenFile(path, os.O_RDONLY, 0o666)
	require.NoError(t, err)
	reader, err = table.OpenReader(file, binfmt.NewRegistry(), nil)
	require.NoError(t, err)

	cleanup = func() {
		require.NoError(t, reader.Close())
		file.Close()
		os.Remove(path)
	}

	return reader, cleanup
}

func TestTableBasicOperations(t *testing.T) {
	writer, path, cleanupWriter := setupWriter(t)
	defer cleanupWriter()

	rec := newTestRecord("key1", 42)
	err := writer.Write(rec)
	assert.NoError(t, err)

	require.NoError(t, writer.Close())

	reader, cleanupReader := setupReader(t, path)
	defer cleanupReader()

	got, err := reader.Get("key1")
	assert.NoError(t, err)
	assert.Equal(t, rec.Value, got.Value)
	assert.Equal(t, rec.Group, got.Group)
	assert.Equal(t, 1, reader.Len())
}

func TestTableGetMissingKey(t *testing.T) {
	writer, path, cleanupWriter := setupWriter(t)
	defer cleanupWriter()

	require.NoError(t, writer.Write(newTestRecord("key1", 1)))
	require.NoError(t, writer.Close())

	reader, cleanupReader := setupReader(t, path)
	defer cleanupReader()

	_, err := reader.Get("missing")
	assert.ErrorIs(t, err, table.ErrKeyNotFound)
}

func TestTableWriteOrder(t *testing.T) {
	writer, _, cleanup := setupWriter(t)
	defer cleanup()

	require.NoError(t, writer.Write(newTestRecord("b", 1)))
	err := writer.Write(newTestRecord("a", 2))
	assert.ErrorIs(t, err, table.ErrWriteOrder)
}

func TestTableWriteAfterClose(t *testing.T) {
	writer, _, cleanup := setupWriter(t)
	defer cleanup()

	require.NoError(t, writer.Close())
	err := writer.Write(newTestRecord("a", 1))
	assert.ErrorIs(t, err, table.ErrTableClosed)
}

func TestTableAll(t *testing.T) {
	writer, path, cleanupWriter := setupWriter(t)
	defer cleanupWriter()

	const n = 25
	for i := range n {
		id := fmt.Sprintf("key-%03d", i)
		require.NoError(t, writer.Write(newTestRecord(id, int32(i))))
	}
	require.NoError(t, writer.Close())

	reader, cleanupReader := setupReader(t, path)
	defer cleanupReader()

	seq, err := reader.All()
	require.NoError(t, err)

	var got []record.Record
	for rec := range seq {
		got = append(got, rec)
	}

	require.Len(t, got, n)
	for i, rec := range got {
		assert.Equal(t, fmt.Sprintf("key-%03d", i), rec.ID)
		assert.Equal(t, int32(i), rec.Value)
	}
}

func TestTableBatchWriter(t *testing.T) {
	writer, path, cleanupWriter := setupWriter(t)
	defer cleanupWriter()

	batch := writer.BatchWriter()
	records := []record.Record{
		newTestRecord("a", 1),
		newTestRecord("b", 2),
		newTestRecord("c", 3),
	}
	require.NoError(t, batch.AddAll(records))
	require.NoError(t, batch.Close())

	reader, cleanupReader := setupReader(t, path)
	defer cleanupReader()

	for _, want := range records {
		got, err := reader.Get(want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Value, got.Value)
	}
}

func TestTableBatchWriterEmptyID(t *testing.T) {
	writer, _, cleanup := setupWriter(t)
	defer cleanup()

	batch := writer.BatchWriter()
	err := batch.Add(record.Record{Tag: 'i', Value: int32(1)})
	assert.ErrorIs(t, err, table.ErrInvalidRecord)
}

func TestTableRegisteredType(t *testing.T) {
	reg := binfmt.NewRegistry()
	type point struct {
		X, Y int32
	}
	err := reg.Register('P', "ii",
		func(fields []any) (any, error) {
			return point{X: fields[0].(int32), Y: fields[1].(int32)}, nil
		},
		func(v any) ([]any, error) {
			p := v.(point)
			return []any{p.X, p.Y}, nil
		})
	require.NoError(t, err)

	tmpFile, err := os.CreateTemp(t.TempDir(), "table-*.tbl")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	writer, err := table.OpenWriter(tmpFile, reg, nil)
	require.NoError(t, err)

	want := record.Record{
		ID:    "p1",
		Group: "points",
		Time:  time.Now().UTC(),
		Tag:   'P',
		Value: point{X: 3, Y: 4},
	}
	require.NoError(t, writer.Write(want))
	require.NoError(t, writer.Close())

	file, err := os.Open(tmpFile.Name())
	require.NoError(t, err)
	defer file.Close()

	reader, err := table.OpenReader(file, reg, nil)
	require.NoError(t, err)
	defer reader.Close()

	got, err := reader.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, want.Value, got.Value)
}

func TestHandleInvalidFile(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "table-*.tbl")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString("not a table file at all")
	require.NoError(t, err)

	_, err = table.OpenReader(tmpFile, binfmt.NewRegistry(), nil)
	assert.Error(t, err)
}

func TestHandleEmptyFile(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "table-*.tbl")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = table.OpenReader(tmpFile, binfmt.NewRegistry(), nil)
	assert.Error(t, err)
}

func TestOpenReadOnlyWriter(t *testing.T) {
	tmpFile, err := os.CreateTemp(t.TempDir(), "table-*.tbl")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = table.OpenWriter(tmpFile, binfmt.NewRegistry(), &table.Options{ReadOnly: true})
	assert.ErrorIs(t, err, table.ErrReadOnlyTable)
}

func TestOpenFileHelpers(t *testing.T) {
	path := t.TempDir() + "/helper.tbl"
	reg := binfmt.NewRegistry()

	writer, err := table.OpenWriterFile(path, reg, nil)
	require.NoError(t, err)
	require.NoError(t, writer.Write(newTestRecord("x", 7)))
	require.NoError(t, writer.Close())

	reader, err := table.OpenReaderFile(path, reg, nil)
	require.NoError(t, err)
	defer reader.Close()

	got, err := reader.Get("x")
	require.NoError(t, err)
	assert.Equal(t, int32(7), got.Value)
}
