package backup

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
)

func newTestBlobStorage(t *testing.T, prefix string) *BlobStorage {
	t.Helper()
	ctx := context.Background()
	bucket, err := blob.OpenBucket(ctx, "mem://")
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })
	return NewBlobStorageFromBucket(bucket, prefix)
}

func TestNewBlobStorage_UnsupportedScheme(t *testing.T) {
	for _, u := range []string{"gs://bucket", "s3://bucket", "azblob://bucket", "/tmp/records"} {
		_, err := NewBlobStorage(context.Background(), u, "")
		assert.Error(t, err, u)
	}
}

func TestNewBlobStorage_File(t *testing.T) {
	ctx := context.Background()
	storage, err := NewBlobStorage(ctx, "file://"+t.TempDir(), "records")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	require.NoError(t, storage.Write(ctx, "test-key", []byte("test-data")))
	data, err := storage.Read(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("test-data"), data)
}

func TestBlobStorage_Write_Overwrite(t *testing.T) {
	ctx := context.Background()
	storage := newTestBlobStorage(t, "")

	require.NoError(t, storage.Write(ctx, "test-key", []byte("original")))
	require.NoError(t, storage.Write(ctx, "test-key", []byte("updated")))

	data, err := storage.Read(ctx, "test-key")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), data)
}

func TestBlobStorage_Read_NotFound(t *testing.T) {
	ctx := context.Background()
	storage := newTestBlobStorage(t, "")

	_, err := storage.Read(ctx, "nonexistent-key")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestBlobStorage_ListWithPrefix(t *testing.T) {
	ctx := context.Background()
	storage := newTestBlobStorage(t, "bucket-prefix/")

	require.NoError(t, storage.Write(ctx, "prefix-a", []byte("a")))
	require.NoError(t, storage.Write(ctx, "prefix-b", []byte("b")))
	require.NoError(t, storage.Write(ctx, "other-key", []byte("other")))

	keys, err := storage.List(ctx, "prefix-")
	require.NoError(t, err)
	// Keys should not include the bucket prefix
	assert.Equal(t, []string{"prefix-b", "prefix-a"}, keys)
}

func TestBlobStorage_Delete_WithPrefix(t *testing.T) {
	ctx := context.Background()
	storage := newTestBlobStorage(t, "my-prefix")

	require.NoError(t, storage.Write(ctx, "test-key", []byte("test-data")))
	require.NoError(t, storage.Delete(ctx, "test-key"))

	_, err := storage.Read(ctx, "test-key")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))

	// Delete should be idempotent - no error for non-existent key
	require.NoError(t, storage.Delete(ctx, "test-key"))
}
