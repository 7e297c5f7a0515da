package images

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, uploadsPath, name string, data []byte) {
	t.Helper()
	dir := filepath.Join(uploadsPath, "images")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestUpload_RejectsNonImage(t *testing.T) {
	rdc, _ := redismock.NewClientMock()
	svc := NewImageService(rdc, t.TempDir())

	_, err := svc.Upload(context.Background(), []byte("plain"), "text/plain")
	assert.ErrorIs(t, err, ErrInvalidFileType)
}

func TestUpload_StoresFile(t *testing.T) {
	// cache fill is best-effort, so no expectations are pinned on it here:
	// the generated id is not predictable
	rdc, _ := redismock.NewClientMock()
	uploads := t.TempDir()
	svc := NewImageService(rdc, uploads)

	id, err := svc.Upload(context.Background(), []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	data, err := os.ReadFile(filepath.Join(uploads, "images", id+".png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestCollect_CacheHitSkipsFilesystem(t *testing.T) {
	rdc, mock := redismock.NewClientMock()
	// no file on disk: a result can only come from the cache
	svc := NewImageService(rdc, t.TempDir())

	mock.ExpectHGetAll("img:abc").SetVal(map[string]string{
		"data": "cached-bytes",
		"mime": "image/jpeg",
	})

	data, contentType, err := svc.Collect(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("cached-bytes"), data)
	assert.Equal(t, "image/jpeg", contentType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollect_MissReadsFileAndFillsCache(t *testing.T) {
	rdc, mock := redismock.NewClientMock()
	uploads := t.TempDir()
	writeTestImage(t, uploads, "abc.png", []byte("disk-bytes"))
	svc := NewImageService(rdc, uploads)

	mock.ExpectHGetAll("img:abc").SetVal(map[string]string{})
	mock.ExpectTxPipeline()
	mock.ExpectHSet("img:abc", "data", []byte("disk-bytes"), "mime", "image/png").SetVal(2)
	mock.ExpectExpire("img:abc", cacheTTL).SetVal(true)
	mock.ExpectTxPipelineExec()

	data, contentType, err := svc.Collect(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("disk-bytes"), data)
	assert.Equal(t, "image/png", contentType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollect_NotFound(t *testing.T) {
	rdc, mock := redismock.NewClientMock()
	svc := NewImageService(rdc, t.TempDir())

	mock.ExpectHGetAll("img:nope").SetVal(map[string]string{})

	_, _, err := svc.Collect(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestDelete_PurgesCacheAndFile(t *testing.T) {
	rdc, mock := redismock.NewClientMock()
	uploads := t.TempDir()
	writeTestImage(t, uploads, "abc.png", []byte("disk-bytes"))
	svc := NewImageService(rdc, uploads)

	mock.ExpectDel("img:abc").SetVal(1)
	require.NoError(t, svc.Delete(context.Background(), "abc"))
	assert.NoFileExists(t, filepath.Join(uploads, "images", "abc.png"))

	// deleting again is a no-op
	mock.ExpectDel("img:abc").SetVal(0)
	assert.NoError(t, svc.Delete(context.Background(), "abc"))
}
