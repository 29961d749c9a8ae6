package backup

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStorage_Write(t *testing.T) {
	ctx := context.Background()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	err = storage.Write(ctx, "test-key", []byte("test-data"))
	require.NoError(t, err)

	data, err := storage.Read(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("test-data"), data)
}

func TestFilesystemStorage_Write_Overwrite(t *testing.T) {
	ctx := context.Background()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, storage.Write(ctx, "test-key", []byte("original")))
	require.NoError(t, storage.Write(ctx, "test-key", []byte("updated")))

	data, err := storage.Read(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), data)
}

func TestFilesystemStorage_Read_NotFound(t *testing.T) {
	ctx := context.Background()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	_, err = storage.Read(ctx, "nonexistent-key")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestFilesystemStorage_List(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	storage, err := NewFilesystemStorage(dir)
	require.NoError(t, err)

	require.NoError(t, storage.Write(ctx, "prefix-a", []byte("a")))
	require.NoError(t, storage.Write(ctx, "prefix-b", []byte("b")))
	require.NoError(t, storage.Write(ctx, "prefix-c", []byte("c")))
	require.NoError(t, storage.Write(ctx, "other-key", []byte("other")))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "prefix-dir"), 0o755))

	keys, err := storage.List(ctx, "prefix-")
	require.NoError(t, err)
	// Should be sorted descending, directories skipped
	assert.Equal(t, []string{"prefix-c", "prefix-b", "prefix-a"}, keys)
}

func TestFilesystemStorage_List_Empty(t *testing.T) {
	ctx := context.Background()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	keys, err := storage.List(ctx, "nonexistent-")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFilesystemStorage_Delete(t *testing.T) {
	ctx := context.Background()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, storage.Write(ctx, "test-key", []byte("test-data")))
	require.NoError(t, storage.Delete(ctx, "test-key"))

	_, err = storage.Read(ctx, "test-key")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestFilesystemStorage_Delete_NotFound(t *testing.T) {
	ctx := context.Background()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	// Delete should be idempotent - no error for non-existent key
	require.NoError(t, storage.Delete(ctx, "nonexistent-key"))
}

func TestFilesystemStorage_ConcurrentOperations(t *testing.T) {
	ctx := context.Background()
	storage, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = storage.Write(ctx, "concurrent-key", []byte("data"))
			_, _ = storage.Read(ctx, "concurrent-key")
			_, _ = storage.List(ctx, "concurrent-")
		}()
	}
	wg.Wait()

	data, err := storage.Read(ctx, "concurrent-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)
}
