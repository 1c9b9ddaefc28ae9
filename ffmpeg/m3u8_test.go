package ffmpeg

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePlaylist = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:10
#EXTINF:10.0,
seg0.ts
#EXTINF:8.5,
seg1.ts
#EXT-X-ENDLIST
`

func TestManifestDurationSumsSegments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(samplePlaylist))
	}))
	defer srv.Close()

	d := manifestDuration(context.Background(), srv.URL)
	require.InDelta(t, 18.5, d, 0.01)
}

func TestManifestDurationToleratesUnreachableHost(t *testing.T) {
	d := manifestDuration(context.Background(), "http://127.0.0.1:0/playlist.m3u8")
	require.Zero(t, d)
}

func TestConvertM3U8ToMP4RunsAndChecksSuccess(t *testing.T) {
	withFakeRunner(t, &fakeRunner{writeOut: true})
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp4")

	err := ConvertM3U8ToMP4(context.Background(), "req-1", "http://example.invalid/playlist.m3u8", out, nil)
	require.NoError(t, err)
	_, statErr := os.Stat(out)
	require.NoError(t, statErr)
}

func TestConvertM3U8ToMP3DefaultsBitrate(t *testing.T) {
	fr := &fakeRunner{writeOut: true}
	withFakeRunner(t, fr)
	dir := t.TempDir()
	out := filepath.Join(dir, "out.mp3")

	err := ConvertM3U8ToMP3(context.Background(), "req-1", "http://example.invalid/playlist.m3u8", out, 0, nil)
	require.NoError(t, err)
	require.Contains(t, joinArgs(fr.lastArgs), "192k")
}
