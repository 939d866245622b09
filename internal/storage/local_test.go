package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestProvider(t *testing.T) (*LocalProvider, string) {
	t.Helper()
	dir := t.TempDir()
	provider, err := NewLocalProvider(dir)
	require.NoError(t, err)
	return provider, dir
}

func TestLocalProvider_PutObject(t *testing.T) {
	provider, baseDir := setupTestProvider(t)

	bucket := "test-bucket"
	key := "nested/test-file.txt"
	content := []byte("Test content")

	err := provider.PutObject(context.Background(), bucket, key, bytes.NewReader(content))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(baseDir, bucket, key))
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestLocalProvider_GetObject(t *testing.T) {
	provider, baseDir := setupTestProvider(t)

	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, "bucket"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "bucket", "a.txt"), []byte("hello"), 0644))

	data, err := provider.GetObject(context.Background(), "bucket", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = provider.GetObject(context.Background(), "bucket", "missing.txt")
	assert.Error(t, err)
}

func TestLocalProvider_ObjectSize(t *testing.T) {
	provider, baseDir := setupTestProvider(t)

	require.NoError(t, os.MkdirAll(filepath.Join(baseDir, "bucket", "dir"), os.ModePerm))
	require.NoError(t, os.WriteFile(filepath.Join(baseDir, "bucket", "a.txt"), []byte("hello"), 0644))

	size, err := provider.ObjectSize(context.Background(), "bucket", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	_, err = provider.ObjectSize(context.Background(), "bucket", "missing.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = provider.ObjectSize(context.Background(), "bucket", "dir")
	assert.Error(t, err)
}

func TestLocalProvider_ListObjects(t *testing.T) {
	provider, _ := setupTestProvider(t)
	ctx := context.Background()

	for _, key := range []string{"docs/a.txt", "docs/sub/b.html", "other/c.pdf"} {
		require.NoError(t, provider.PutObject(ctx, "bucket", key, bytes.NewReader([]byte(key))))
	}

	objects, err := provider.ListObjects(ctx, "bucket", "docs")
	require.NoError(t, err)

	names := make([]string, 0, len(objects))
	for _, obj := range objects {
		names = append(names, obj.Name)
		assert.Equal(t, int64(len(obj.Name)), obj.Size)
	}
	assert.ElementsMatch(t, []string{"docs/a.txt", "docs/sub/b.html"}, names)

	_, err = provider.ListObjects(ctx, "bucket", "missing")
	assert.Error(t, err)
}
