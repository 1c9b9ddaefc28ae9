package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reelify/clip-engine/config"
	"github.com/reelify/clip-engine/errors"
	"github.com/stretchr/testify/require"
)

func withChunkSize(t *testing.T, n int64) {
	t.Helper()
	old := config.ChunkSize
	config.ChunkSize = n
	t.Cleanup(func() { config.ChunkSize = old })
}

func withMaxVideoSizeMB(t *testing.T, mb int64) {
	t.Helper()
	old := config.MaxVideoSizeMB
	config.MaxVideoSizeMB = mb
	t.Cleanup(func() { config.MaxVideoSizeMB = old })
}

func TestCheckFreeDiskPassesForTempDir(t *testing.T) {
	err := CheckFreeDisk("req-1", t.TempDir())
	require.NoError(t, err)
}

func TestCheckFreeDiskFailsWhenFloorUnreasonablyHigh(t *testing.T) {
	old := config.MinFreeDiskBytes
	config.MinFreeDiskBytes = 1 << 62
	t.Cleanup(func() { config.MinFreeDiskBytes = old })

	err := CheckFreeDisk("req-1", t.TempDir())
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.DownloadError))
}

func TestDownloadWritesFileInChunks(t *testing.T) {
	withChunkSize(t, 4)
	body := "this is test content spanning several chunks"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	var progressCalls []int64
	path, err := Download(context.Background(), "req-1", srv.URL, dest, func(n int64) {
		progressCalls = append(progressCalls, n)
	})
	require.NoError(t, err)
	require.Equal(t, dest, path)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, body, string(got))
	require.NotEmpty(t, progressCalls)
	require.Equal(t, int64(len(body)), progressCalls[len(progressCalls)-1])
}

func TestDownloadAbortsWhenContentLengthExceedsLimit(t *testing.T) {
	withMaxVideoSizeMB(t, 0) // 0 MB limit: any declared length trips it
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1024")
		_, _ = w.Write(make([]byte, 1024))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	_, err := Download(context.Background(), "req-1", srv.URL, dest, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.DownloadError))
	require.True(t, errors.IsUnretriable(err))

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr))
}

func TestDownloadSurfacesNonRetriableClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	_, err := Download(context.Background(), "req-1", srv.URL, dest, nil)
	require.Error(t, err)
	require.True(t, errors.IsUnretriable(err))
}

func TestDownloadUnlinksPartialFileOnMidStreamFailure(t *testing.T) {
	withChunkSize(t, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		flusher, ok := w.(http.Flusher)
		_, _ = w.Write([]byte("abcd"))
		if ok {
			flusher.Flush()
		}
		// Close the underlying connection early without writing the
		// remaining declared bytes, simulating a mid-stream I/O failure.
		hijacker, ok := w.(http.Hijacker)
		if ok {
			conn, _, err := hijacker.Hijack()
			if err == nil {
				conn.Close()
			}
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.bin")

	_, err := Download(context.Background(), "req-1", srv.URL, dest, nil)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "download failed after"))

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr))
}
