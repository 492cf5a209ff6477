package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (s *Storage, pendingDir, publishingDir string) {
	t.Helper()

	pendingDir = t.TempDir()
	publishingDir = t.TempDir()
	return NewLocalStorage(pendingDir, publishingDir), pendingDir, publishingDir
}

func TestStorageCreate(t *testing.T) {
	s, pendingDir, _ := newTestStorage(t)

	w, err := s.Create(context.Background(), "sensors_100.jrn")
	require.NoError(t, err)

	_, err = io.WriteString(w, "payload")
	assert.NoError(t, err)
	assert.NoError(t, w.Close())

	content, err := os.ReadFile(filepath.Join(pendingDir, "sensors_100.jrn"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

func TestStorageCreateAppends(t *testing.T) {
	s, pendingDir, _ := newTestStorage(t)

	for _, chunk := range []string{"first", "second"} {
		w, err := s.Create(context.Background(), "sensors_100.jrn")
		require.NoError(t, err)
		_, err = io.WriteString(w, chunk)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	content, err := os.ReadFile(filepath.Join(pendingDir, "sensors_100.jrn"))
	require.NoError(t, err)
	assert.Equal(t, "firstsecond", string(content))
}

func TestStoragePublish(t *testing.T) {
	s, pendingDir, publishingDir := newTestStorage(t)

	require.NoError(t, os.WriteFile(filepath.Join(pendingDir, "sensors_100.jrn"), []byte("content"), 0o600))

	err := s.Publish(context.Background(), "sensors_100.jrn")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(pendingDir, "sensors_100.jrn"))
	assert.True(t, os.IsNotExist(err))

	content, err := os.ReadFile(filepath.Join(publishingDir, "sensors_100.jrn"))
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))
}

func TestStoragePublishMissing(t *testing.T) {
	s, _, _ := newTestStorage(t)

	err := s.Publish(context.Background(), "nonexistent.jrn")
	assert.Error(t, err)
}

func TestStorageList(t *testing.T) {
	s, pendingDir, _ := newTestStorage(t)

	files, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)

	require.NoError(t, os.WriteFile(filepath.Join(pendingDir, "a.jrn"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(pendingDir, "b.jrn"), []byte("b"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(pendingDir, "subdir"), 0o700))

	files, err = s.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.jrn", "b.jrn"}, files)
}

func TestStorageOpen(t *testing.T) {
	s, _, publishingDir := newTestStorage(t)

	content := "hello world"
	require.NoError(t, os.WriteFile(filepath.Join(publishingDir, "pub.jrn"), []byte(content), 0o600))

	reader, err := s.Open(context.Background(), "pub.jrn")
	require.NoError(t, err)
	defer reader.Close()

	buf := make([]byte, 5)
	n, err := reader.ReadAt(buf, 0)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, content[:5], string(buf))

	n, err = reader.ReadAt(buf, 6)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, content[6:11], string(buf))

	buf = make([]byte, 20)
	n, err = reader.ReadAt(buf, 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, content, string(buf[:n]))
}

func TestStorageOpenMissing(t *testing.T) {
	s, _, _ := newTestStorage(t)

	_, err := s.Open(context.Background(), "nonexistent.jrn")
	assert.Error(t, err)
}

func TestStorageListPublished(t *testing.T) {
	s, _, publishingDir := newTestStorage(t)

	require.NoError(t, os.WriteFile(filepath.Join(publishingDir, "a.jrn"), []byte("a"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(publishingDir, "subdir"), 0o700))

	files, err := s.ListPublished(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jrn"}, files)
}

func TestStorageDelete(t *testing.T) {
	s, _, publishingDir := newTestStorage(t)

	require.NoError(t, os.WriteFile(filepath.Join(publishingDir, "a.jrn"), []byte("a"), 0o600))

	require.NoError(t, s.Delete(context.Background(), "a.jrn"))

	_, err := os.Stat(filepath.Join(publishingDir, "a.jrn"))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, s.Delete(context.Background(), "a.jrn"))
}
