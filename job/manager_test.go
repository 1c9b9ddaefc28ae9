package job

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/reelify/clip-engine/config"
	"github.com/reelify/clip-engine/download"
	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/ffmpeg"
	"github.com/reelify/clip-engine/video"
)

// fakeDownloader/fakeProber/fakeConverter mirror ffmpeg's fakeRunner pattern:
// record the call and report a scripted outcome instead of touching the
// network or a subprocess.
type fakeDownloader struct {
	mu       sync.Mutex
	calls    int
	err      error
	written  int64
}

func (f *fakeDownloader) Download(_ context.Context, _, _, _ string, onProgress download.OnProgress) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if onProgress != nil {
		onProgress(f.written)
	}
	return "", f.err
}

type fakeProber struct {
	info video.Info
	err  error
}

func (f *fakeProber) Probe(string, string) (video.Info, error) {
	return f.info, f.err
}

type fakeConverter struct {
	mu             sync.Mutex
	simpleCalls    int
	splitCalls     int
	fallbackCalls  int
	err            error
}

func (f *fakeConverter) ConvertVerticalSimple(context.Context, string, string, string, ffmpeg.OnProgress) error {
	f.mu.Lock()
	f.simpleCalls++
	f.mu.Unlock()
	return f.err
}

func (f *fakeConverter) ConvertSplit(context.Context, string, string, string, ffmpeg.FilterOptions, ffmpeg.OnProgress) error {
	f.mu.Lock()
	f.splitCalls++
	f.mu.Unlock()
	return f.err
}

func (f *fakeConverter) FallbackLadder(context.Context, string, string, string, ffmpeg.FilterOptions, ffmpeg.OnProgress) error {
	f.mu.Lock()
	f.fallbackCalls++
	f.mu.Unlock()
	return f.err
}

func newTestManager(t *testing.T) (*Manager, *fakeDownloader, *fakeProber, *fakeConverter) {
	t.Helper()
	config.TempDir = t.TempDir()
	dl := &fakeDownloader{}
	pr := &fakeProber{info: video.Info{Width: 1080, Height: 1920, DurationS: 10}}
	cv := &fakeConverter{}
	m := &Manager{
		Downloader:   dl,
		Prober:       pr,
		Converter:    cv,
		LookupFFmpeg: func() error { return nil },
	}
	m.cache = newJobCache(time.Hour, time.Hour, m.onEvicted)
	return m, dl, pr, cv
}

func waitForState(t *testing.T, m *Manager, publicID string, want State) Status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		st, ok := m.Status(publicID)
		if ok && (st.State == want || st.State == StateError) {
			return st
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for state %s", want)
	return Status{}
}

func TestSubmitRejectsUnknownQuality(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	_, err := m.Submit(TransformRequest{VideoURL: "https://x/a.mp4", Quality: "bogus", Platform: "general"})
	require.Error(t, err)
	require.True(t, clipErrors.Is(err, clipErrors.InvalidInput))
}

func TestSubmitRejectsUnknownPlatform(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	_, err := m.Submit(TransformRequest{VideoURL: "https://x/a.mp4", Quality: "medium", Platform: "bogus"})
	require.Error(t, err)
	require.True(t, clipErrors.Is(err, clipErrors.InvalidInput))
}

func TestSubmitRejectsWhenFfmpegUnavailable(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	m.LookupFFmpeg = func() error { return fmt.Errorf("not found") }
	_, err := m.Submit(TransformRequest{VideoURL: "https://x/a.mp4", Quality: "medium", Platform: "general"})
	require.Error(t, err)
	require.True(t, clipErrors.Is(err, clipErrors.UnavailableDependency))
}

func TestSubmitDedupesIdenticalRequest(t *testing.T) {
	m, dl, _, cv := newTestManager(t)
	cv.err = nil
	req := TransformRequest{VideoURL: "https://x/a.mp4?token=abc", Quality: "medium", Platform: "general"}

	res1, err := m.Submit(req)
	require.NoError(t, err)
	waitForState(t, m, res1.PublicID, StateCompleted)

	res2, err := m.Submit(req)
	require.NoError(t, err)
	require.Equal(t, res1.PublicID, res2.PublicID)

	dl.mu.Lock()
	calls := dl.calls
	dl.mu.Unlock()
	require.Equal(t, 1, calls, "second identical submit should not re-download")
}

func TestRunWorkerHappyPathSimplePipeline(t *testing.T) {
	m, _, _, cv := newTestManager(t)
	res, err := m.Submit(TransformRequest{VideoURL: "https://x/video.mp4", Quality: "medium", Platform: "general"})
	require.NoError(t, err)

	st := waitForState(t, m, res.PublicID, StateCompleted)
	require.Equal(t, StateCompleted, st.State)
	require.True(t, st.Ready)
	require.Equal(t, 1, cv.simpleCalls)
	require.Equal(t, 0, cv.splitCalls)
	require.Equal(t, 0, cv.fallbackCalls)
}

func TestRunWorkerUsesSplitPipelineWhenRequested(t *testing.T) {
	m, _, _, cv := newTestManager(t)
	res, err := m.Submit(TransformRequest{
		VideoURL: "https://x/video.mp4", Quality: "medium", Platform: "general",
		Options: TransformOptions{Split: true},
	})
	require.NoError(t, err)
	waitForState(t, m, res.PublicID, StateCompleted)
	require.Equal(t, 1, cv.splitCalls)
}

func TestRunWorkerUsesFallbackLadderForFilterOptions(t *testing.T) {
	m, _, _, cv := newTestManager(t)
	res, err := m.Submit(TransformRequest{
		VideoURL: "https://x/video.mp4", Quality: "medium", Platform: "general",
		Options: TransformOptions{Denoise: true},
	})
	require.NoError(t, err)
	waitForState(t, m, res.PublicID, StateCompleted)
	require.Equal(t, 1, cv.fallbackCalls)
}

func TestRunWorkerFailsJobOnDownloadError(t *testing.T) {
	m, dl, _, _ := newTestManager(t)
	dl.err = fmt.Errorf("connection reset")
	res, err := m.Submit(TransformRequest{VideoURL: "https://x/video.mp4", Quality: "medium", Platform: "general"})
	require.NoError(t, err)

	st := waitForState(t, m, res.PublicID, StateError)
	require.Equal(t, StateError, st.State)
	require.NotEmpty(t, st.Error)
}

func TestRunWorkerFailsJobOnConvertError(t *testing.T) {
	m, _, _, cv := newTestManager(t)
	cv.err = fmt.Errorf("ffmpeg exited 1")
	res, err := m.Submit(TransformRequest{VideoURL: "https://x/video.mp4", Quality: "medium", Platform: "general"})
	require.NoError(t, err)

	st := waitForState(t, m, res.PublicID, StateError)
	require.Equal(t, StateError, st.State)
}

func TestInFlightCountTracksActiveWorkers(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	require.Equal(t, 0, m.InFlightCount())
	res, err := m.Submit(TransformRequest{VideoURL: "https://x/video.mp4", Quality: "medium", Platform: "general"})
	require.NoError(t, err)
	waitForState(t, m, res.PublicID, StateCompleted)
	m.wg.Wait()
	require.Equal(t, 0, m.InFlightCount())
}

func TestDownloadReturnsNotFoundErrorWhileInProgress(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	j := Job{Fingerprint: "fp1", PublicID: "pub1", State: StateConverting, CreatedAt: config.Clock.Now()}
	m.cache.Insert("fp1", j)

	_, _, err := m.Download("pub1")
	require.Error(t, err)
	require.True(t, clipErrors.Is(err, clipErrors.NotFound))
}

func TestDownloadReturnsOutputPathWhenCompleted(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	j := Job{Fingerprint: "fp1", PublicID: "pub1", State: StateCompleted, OutputPath: "/tmp/out.mp4"}
	m.cache.Insert("fp1", j)

	path, filename, err := m.Download("pub1")
	require.NoError(t, err)
	require.Equal(t, "/tmp/out.mp4", path)
	require.Contains(t, filename, "pub1")
}

func TestInlineRefusesNonCompletedJob(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	j := Job{Fingerprint: "fp1", PublicID: "pub1", State: StateDownloading}
	m.cache.Insert("fp1", j)

	_, err := m.Inline("pub1")
	require.Error(t, err)
	require.True(t, clipErrors.Is(err, clipErrors.NotFound))
}

func TestClockIsUsedForJobTimestamps(t *testing.T) {
	mock := clock.NewMock()
	orig := config.Clock
	config.Clock = mock
	defer func() { config.Clock = orig }()

	m, _, _, _ := newTestManager(t)
	res, err := m.Submit(TransformRequest{VideoURL: "https://x/video.mp4", Quality: "medium", Platform: "general"})
	require.NoError(t, err)
	waitForState(t, m, res.PublicID, StateCompleted)

	st, ok := m.Status(res.PublicID)
	require.True(t, ok)
	require.Equal(t, mock.Now(), st.CreatedAt)
}
