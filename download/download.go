// Package download implements the Download Manager (§4.5): preflight disk
// and size checks, a chunked streaming HTTP GET, and typed failure surfaces
// for a Job's downloading state.
package download

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/reelify/clip-engine/config"
	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/log"
)

// OnProgress is called after every chunk with the cumulative byte count
// written so far; may be nil.
type OnProgress func(bytesWritten int64)

// logEveryBytes controls how often progress is logged (§4.5 "log progress
// every N MB").
const logEveryBytes = 10 * 1024 * 1024

var retryableClient = newRetryableClient()

func newRetryableClient() *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 5
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return (&net.Dialer{Timeout: config.DownloadTimeout}).DialContext(ctx, network, addr)
	}
	client.HTTPClient = &http.Client{
		Timeout:   0, // §4.5 "no read timeout (long videos)"; connecting is capped by config.DownloadTimeout
		Transport: transport,
	}
	client.Logger = nil
	return client.StandardClient()
}

// CheckFreeDisk implements the §4.5 preflight: free disk space at dir must
// be at least config.MinFreeDiskBytes.
func CheckFreeDisk(requestID, dir string) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		return clipErrors.New(clipErrors.DownloadError, "failed to stat free disk space", err)
	}
	log.Log(requestID, "preflight disk check", "dir", dir, "free_bytes", usage.Free)
	if usage.Free < config.MinFreeDiskBytes {
		return clipErrors.Newf(clipErrors.DownloadError, nil,
			"insufficient free disk space: have %d bytes, need at least %d", usage.Free, config.MinFreeDiskBytes)
	}
	return nil
}

// Download streams srcURL to destPath in config.ChunkSize chunks, flushing
// after each one, and returns destPath on success. It aborts immediately if
// the server reports a Content-Length exceeding config.MaxVideoSizeMB, and
// unlinks the partial file on any mid-stream I/O failure, surfacing the byte
// offset at which the failure occurred.
func Download(ctx context.Context, requestID, srcURL, destPath string, onProgress OnProgress) (string, error) {
	if err := CheckFreeDisk(requestID, filepath.Dir(destPath)); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return "", clipErrors.New(clipErrors.DownloadError, "failed to build download request", clipErrors.Unretriable(err))
	}

	resp, err := retryableClient.Do(req)
	if err != nil {
		return "", clipErrors.New(clipErrors.DownloadError, "download request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		cause := fmt.Errorf("unexpected status %d %s", resp.StatusCode, resp.Status)
		if resp.StatusCode < 500 {
			cause = clipErrors.Unretriable(cause)
		}
		return "", clipErrors.New(clipErrors.DownloadError, "download request returned an error status", cause)
	}

	maxBytes := config.MaxVideoSizeMB * 1024 * 1024
	if resp.ContentLength > 0 && resp.ContentLength > maxBytes {
		cause := clipErrors.Unretriable(fmt.Errorf("content-length %d exceeds %d MB limit", resp.ContentLength, config.MaxVideoSizeMB))
		return "", clipErrors.New(clipErrors.DownloadError, "source file is too large", cause)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return "", clipErrors.New(clipErrors.DownloadError, "failed to create destination file", err)
	}

	written, err := copyChunked(requestID, out, resp.Body, onProgress)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && resp.ContentLength > 0 && written < resp.ContentLength {
		err = fmt.Errorf("connection closed after %d of %d declared bytes", written, resp.ContentLength)
	}
	if err != nil {
		os.Remove(destPath)
		return "", clipErrors.Newf(clipErrors.DownloadError, err, "download failed after %d bytes", written)
	}

	log.Log(requestID, "download complete", "dest", destPath, "bytes", written)
	return destPath, nil
}

// copyChunked reads body in config.ChunkSize pieces, writing and flushing
// each to out in turn so a crash mid-transfer never leaves more than one
// chunk unaccounted for.
func copyChunked(requestID string, out *os.File, body io.Reader, onProgress OnProgress) (int64, error) {
	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1024 * 1024
	}
	buf := make([]byte, chunkSize)

	var written int64
	var sinceLastLog int64
	for {
		n, readErr := io.ReadFull(body, buf)
		if n > 0 {
			if _, writeErr := out.Write(buf[:n]); writeErr != nil {
				return written, writeErr
			}
			if syncErr := out.Sync(); syncErr != nil {
				return written, syncErr
			}
			written += int64(n)
			sinceLastLog += int64(n)
			if onProgress != nil {
				onProgress(written)
			}
			if sinceLastLog >= logEveryBytes {
				log.Log(requestID, "download progress", "bytes", written)
				sinceLastLog = 0
			}
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			return written, nil
		}
		if readErr != nil {
			return written, readErr
		}
	}
}
