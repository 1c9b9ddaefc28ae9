package job

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/reelify/clip-engine/config"
	"github.com/reelify/clip-engine/download"
	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/ffmpeg"
	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/metrics"
	"github.com/reelify/clip-engine/video"
)

// SubtitleGenerator is the optional dependency that turns a converted
// source into a burned-in-ready SRT file; left unset, add_subtitles
// requests are honored at the API level but never populate opts.SubtitlePath,
// so the FFmpeg Driver simply never finds a subtitle branch to add.
type SubtitleGenerator interface {
	GenerateSRT(ctx context.Context, requestID, videoPath, language string) (srtPath string, err error)
}

// Downloader abstracts the Download Manager entry point so the worker's
// pipeline can be driven end-to-end in tests with a fake, the same way
// ffmpeg.Runner decouples convert_* from a real subprocess.
type Downloader interface {
	Download(ctx context.Context, requestID, url, dest string, onProgress download.OnProgress) (string, error)
}

type realDownloader struct{}

func (realDownloader) Download(ctx context.Context, requestID, url, dest string, onProgress download.OnProgress) (string, error) {
	return download.Download(ctx, requestID, url, dest, onProgress)
}

// Prober abstracts the FFmpeg Driver's probe step.
type Prober interface {
	Probe(requestID, path string) (video.Info, error)
}

type realProber struct{}

func (realProber) Probe(requestID, path string) (video.Info, error) {
	return ffmpeg.Probe(requestID, path)
}

// Converter abstracts the FFmpeg Driver's three top-level conversion entry
// points (§4.2's pipeline selection dispatches to exactly one of these).
type Converter interface {
	ConvertVerticalSimple(ctx context.Context, in, out, quality string, onProgress ffmpeg.OnProgress) error
	ConvertSplit(ctx context.Context, in, out, quality string, opts ffmpeg.FilterOptions, onProgress ffmpeg.OnProgress) error
	FallbackLadder(ctx context.Context, in, out, quality string, opts ffmpeg.FilterOptions, onProgress ffmpeg.OnProgress) error
}

type realConverter struct{}

func (realConverter) ConvertVerticalSimple(ctx context.Context, in, out, quality string, onProgress ffmpeg.OnProgress) error {
	return ffmpeg.ConvertVerticalSimple(ctx, in, out, quality, onProgress)
}

func (realConverter) ConvertSplit(ctx context.Context, in, out, quality string, opts ffmpeg.FilterOptions, onProgress ffmpeg.OnProgress) error {
	return ffmpeg.ConvertSplit(ctx, in, out, quality, opts, onProgress)
}

func (realConverter) FallbackLadder(ctx context.Context, in, out, quality string, opts ffmpeg.FilterOptions, onProgress ffmpeg.OnProgress) error {
	return ffmpeg.FallbackLadder(ctx, in, out, quality, opts, onProgress)
}

// Manager is the Job Manager (§4.1): public submit/status/download/inline/
// purge operations backed by the TTL-swept jobCache, one background worker
// goroutine per admitted submission.
type Manager struct {
	cache        *jobCache
	inFlight     atomic.Int64
	wg           sync.WaitGroup
	Subtitles    SubtitleGenerator
	Downloader   Downloader
	Prober       Prober
	Converter    Converter
	LookupFFmpeg func() error
}

// NewManager constructs a Manager whose cache TTL/sweep interval come from
// config.CacheExpiry/config.CleanupInterval, wired to the real download/
// ffmpeg/probe implementations.
func NewManager() *Manager {
	m := &Manager{
		Downloader:   realDownloader{},
		Prober:       realProber{},
		Converter:    realConverter{},
		LookupFFmpeg: func() error { _, err := exec.LookPath("ffmpeg"); return err },
	}
	m.cache = newJobCache(config.CacheExpiry, config.CleanupInterval, m.onEvicted)
	return m
}

func (m *Manager) onEvicted(fingerprint string, j Job) {
	if j.TempDir == "" {
		return
	}
	if err := os.RemoveAll(j.TempDir); err != nil {
		log.LogNoRequestID("failed to remove expired job temp dir", "fingerprint", fingerprint, "temp_dir", j.TempDir, "err", err)
	}
}

// InFlightCount satisfies middleware.InFlightCounter: the number of Jobs
// currently downloading or converting, used by the capacity middleware to
// bound concurrently admitted submissions (§5).
func (m *Manager) InFlightCount() int {
	return int(m.inFlight.Load())
}

// CacheSize reports the current Job cache occupancy for metrics.JobCacheSize.
func (m *Manager) CacheSize() int {
	return m.cache.Len()
}

// Purge implements the optional admin purge() op (§4.1).
func (m *Manager) Purge() {
	m.cache.Purge()
}

// Submit implements submit(req) (§4.1): validates quality/platform, computes
// the platform-adjusted quality and fingerprint, returns the existing Job on
// a cache hit, otherwise inserts a queued Job and dispatches its worker.
func (m *Manager) Submit(req TransformRequest) (SubmitResult, error) {
	if !video.IsValidQuality(req.Quality) {
		return SubmitResult{}, clipErrors.New(clipErrors.InvalidInput, "unknown quality: "+req.Quality, nil)
	}
	if !video.IsValidPlatform(req.Platform) {
		return SubmitResult{}, clipErrors.New(clipErrors.InvalidInput, "unknown platform: "+req.Platform, nil)
	}
	if m.LookupFFmpeg != nil && m.LookupFFmpeg() != nil {
		return SubmitResult{}, clipErrors.New(clipErrors.UnavailableDependency, "ffmpeg is not runnable", nil)
	}

	quality := video.AdjustQualityForPlatform(req.Quality, req.Platform)
	fp := Fingerprint(req.VideoURL, quality, req.Options)

	if existing, ok := m.cache.Get(fp); ok {
		return SubmitResult{PublicID: existing.PublicID, State: existing.State}, nil
	}

	publicID := PublicID(req.VideoURL)
	j := Job{
		Fingerprint: fp,
		PublicID:    publicID,
		SourceURL:   req.VideoURL,
		Quality:     quality,
		Platform:    req.Platform,
		Options:     req.Options,
		State:       StateQueued,
		CreatedAt:   config.Clock.Now(),
	}
	m.cache.Insert(fp, j)
	metrics.Metrics.JobsSubmittedTotal.WithLabelValues(quality, req.Platform).Inc()
	metrics.Metrics.JobCacheSize.Set(float64(m.cache.Len()))

	m.wg.Add(1)
	m.inFlight.Add(1)
	metrics.Metrics.JobsInFlight.Set(float64(m.inFlight.Load()))
	go func() {
		defer m.wg.Done()
		defer func() {
			m.inFlight.Add(-1)
			metrics.Metrics.JobsInFlight.Set(float64(m.inFlight.Load()))
		}()
		m.runWorker(publicID, fp)
	}()

	return SubmitResult{PublicID: publicID, State: StateQueued}, nil
}

// Status implements status(public_id) (§4.1): direct fingerprint lookup
// first (the public id happens to equal the fingerprint's source-derived
// portion far less often than it equals itself, so this is mostly a
// same-request-options fast path), then a linear scan for the public id.
func (m *Manager) Status(publicID string) (Status, bool) {
	j, ok := m.cache.FindByPublicIDOrFingerprint(publicID)
	if !ok {
		return Status{}, false
	}
	return statusOf(j), true
}

func statusOf(j Job) Status {
	s := Status{
		PublicID:  j.PublicID,
		State:     j.State,
		Quality:   j.Quality,
		CreatedAt: j.CreatedAt,
	}
	switch j.State {
	case StateCompleted:
		s.Ready = true
		s.FileSizeBytes = j.OutputSize
		s.ConversionTime = j.ConversionTime()
		s.Message = "conversion complete"
	case StateError:
		s.Error = j.ErrorMessage
	case StateQueued:
		s.Message = "waiting for a worker"
	case StateDownloading:
		s.Message = "downloading source video"
	case StateConverting:
		s.Message = "converting video"
	}
	return s
}

// Download implements download(public_id) (§4.1): streams the output file,
// refusing any non-completed state with a typed error: ConversionError for an
// errored job, NotFound for an unknown or still in-flight one. The download
// handler checks Status first and answers 400 (error) or 202 (in-flight).
func (m *Manager) Download(publicID string) (path string, filename string, err error) {
	j, ok := m.cache.FindByPublicIDOrFingerprint(publicID)
	if !ok {
		return "", "", clipErrors.New(clipErrors.NotFound, "unknown video id", nil)
	}
	switch j.State {
	case StateCompleted:
		return j.OutputPath, "vertical_video_" + j.PublicID + ".mp4", nil
	case StateError:
		return "", "", clipErrors.New(clipErrors.ConversionError, j.ErrorMessage, nil)
	default:
		return "", "", clipErrors.New(clipErrors.NotFound, "conversion still in progress", nil)
	}
}

// Inline implements inline(public_id) (§4.1): same file as Download, but
// refuses with 404 on any non-completed state to hide partial state from
// unauthenticated players (§7).
func (m *Manager) Inline(publicID string) (path string, err error) {
	j, ok := m.cache.FindByPublicIDOrFingerprint(publicID)
	if !ok || j.State != StateCompleted {
		return "", clipErrors.New(clipErrors.NotFound, "video not ready", nil)
	}
	return j.OutputPath, nil
}

func (m *Manager) runWorker(requestID, fingerprint string) {
	startedAt := config.Clock.Now()
	tempDir := filepath.Join(config.TempDir, uuid.NewString())
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		m.failJob(requestID, fingerprint, clipErrors.New(clipErrors.DownloadError, "failed to create job temp dir", err))
		return
	}

	m.cache.Update(fingerprint, func(j *Job) {
		j.State = StateDownloading
		j.StartedAt = startedAt
		j.TempDir = tempDir
	})

	j, ok := m.cache.Get(fingerprint)
	if !ok {
		return
	}

	inputPath := filepath.Join(tempDir, "input")
	downloadStart := config.Clock.Now()
	var bytesWritten int64
	_, err := m.Downloader.Download(context.Background(), requestID, j.SourceURL, inputPath, func(n int64) { bytesWritten = n })
	metrics.Metrics.DownloadDurationSec.WithLabelValues(successLabel(err)).Observe(time.Since(downloadStart).Seconds())
	metrics.Metrics.DownloadBytesTotal.Add(float64(bytesWritten))
	if err != nil {
		m.failJob(requestID, fingerprint, err)
		return
	}

	probeStart := config.Clock.Now()
	originalInfo, err := m.Prober.Probe(requestID, inputPath)
	metrics.Metrics.ProbeDurationSec.WithLabelValues(successLabel(err)).Observe(time.Since(probeStart).Seconds())
	if err != nil {
		m.failJob(requestID, fingerprint, clipErrors.New(clipErrors.ConversionError, "failed to probe source video", err))
		return
	}
	m.cache.Update(fingerprint, func(j *Job) {
		j.OriginalInfo = originalInfo
		j.State = StateConverting
	})

	outputPath := filepath.Join(tempDir, j.PublicID+".mp4")
	convertStart := config.Clock.Now()
	pipeline, err := m.convert(context.Background(), requestID, inputPath, outputPath, j)
	metrics.Metrics.ConversionDurationSec.
		WithLabelValues(j.Quality, j.Platform, pipeline, successLabel(err)).
		Observe(time.Since(convertStart).Seconds())
	if err != nil {
		m.failJob(requestID, fingerprint, err)
		return
	}

	probeStart = config.Clock.Now()
	finalInfo, err := m.Prober.Probe(requestID, outputPath)
	metrics.Metrics.ProbeDurationSec.WithLabelValues(successLabel(err)).Observe(time.Since(probeStart).Seconds())
	if err != nil {
		m.failJob(requestID, fingerprint, clipErrors.New(clipErrors.ConversionError, "failed to probe output video", err))
		return
	}
	fi, statErr := os.Stat(outputPath)
	var size int64
	if statErr == nil {
		size = fi.Size()
	}

	completedAt := config.Clock.Now()
	m.cache.Update(fingerprint, func(j *Job) {
		j.State = StateCompleted
		j.OutputPath = outputPath
		j.OutputSize = size
		j.FinalInfo = finalInfo
		j.CompletedAt = completedAt
	})
	metrics.Metrics.JobsCompletedTotal.WithLabelValues(j.Quality, j.Platform).Inc()
	log.Log(requestID, "job completed", "fingerprint", fingerprint, "output_size", size, "duration_s", completedAt.Sub(startedAt).Seconds())
}

// convert selects the pipeline per §4.1 "Pipeline selection" and dispatches
// to the FFmpeg Driver, returning a label for the conversion_duration_seconds
// metric.
func (m *Manager) convert(ctx context.Context, requestID, in, out string, j Job) (pipeline string, err error) {
	opts := m.filterOptions(ctx, requestID, in, j)

	switch {
	case j.Options.Split:
		return "split", m.Converter.ConvertSplit(ctx, in, out, j.Quality, opts, nil)
	case j.Options.UsesAdvancedPipeline():
		return "optimized", m.Converter.FallbackLadder(ctx, in, out, j.Quality, opts, nil)
	default:
		return "simple", m.Converter.ConvertVerticalSimple(ctx, in, out, j.Quality, nil)
	}
}

func (m *Manager) filterOptions(ctx context.Context, requestID, in string, j Job) ffmpeg.FilterOptions {
	opts := ffmpeg.FilterOptions{
		Denoise:          j.Options.Denoise,
		SharpenStrength:  j.Options.SharpenStrength,
		Brightness:       j.Options.Brightness,
		Contrast:         j.Options.Contrast,
		Saturation:       j.Options.Saturation,
		Gamma:            j.Options.Gamma,
		AudioEnhancement: j.Options.AudioEnhancement,
		TargetFPS:        j.Options.TargetFPS,
		CustomBitrate:    j.Options.CustomBitrate,
	}
	if j.Options.AddSubtitles && config.SubtitlesEnabled && m.Subtitles != nil {
		srtPath, err := m.Subtitles.GenerateSRT(ctx, requestID, in, j.Options.SubtitleLanguage)
		if err != nil {
			log.LogError(requestID, "subtitle generation failed, proceeding without burn-in", err)
		} else {
			opts.SubtitlePath = srtPath
		}
	}
	return opts
}

func (m *Manager) failJob(requestID, fingerprint string, err error) {
	short := userVisibleMessage(err)
	m.cache.Update(fingerprint, func(j *Job) {
		j.State = StateError
		j.ErrorMessage = short
		j.errDetail = err
		j.CompletedAt = config.Clock.Now()
	})
	if j, ok := m.cache.Get(fingerprint); ok {
		metrics.Metrics.JobsErroredTotal.WithLabelValues(errorKind(err)).Inc()
		if j.TempDir != "" {
			os.RemoveAll(j.TempDir)
		}
	}
	log.LogError(requestID, "job failed", err, "fingerprint", fingerprint)
}

func userVisibleMessage(err error) string {
	if pe, ok := err.(*clipErrors.PipelineError); ok {
		return pe.Msg
	}
	return err.Error()
}

func errorKind(err error) string {
	if pe, ok := err.(*clipErrors.PipelineError); ok {
		return string(pe.Kind)
	}
	return "unknown"
}

func successLabel(err error) string {
	if err == nil {
		return "true"
	}
	return "false"
}

// StreamOutput opens the output file at path for a handler to copy into an
// HTTP response body.
func StreamOutput(path string) (io.ReadCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, clipErrors.New(clipErrors.NotFound, "output file missing", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, clipErrors.New(clipErrors.NotFound, "output file missing", err)
	}
	return f, fi.Size(), nil
}
