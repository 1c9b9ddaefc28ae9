// Package config holds the recognized configuration keys (§6) as package
// vars with their documented defaults, set once at process start by
// cmd/clip-engine's flag/env parsing and read everywhere else.
package config

import (
	"time"

	"github.com/benbjohnson/clock"
)

var Version string

// Clock lets tests substitute a fake clock; production uses the real one.
var Clock = clock.New()

// temp_dir: base of per-job temp trees.
var TempDir = "/tmp/clip-engine"

// cache_expiry_seconds: Job cache TTL.
var CacheExpiry = 3600 * time.Second

// cleanup_interval_seconds: TTL sweeper period.
var CleanupInterval = 300 * time.Second

// default_quality, default_platform, default_fps: fallback request fields.
var (
	DefaultQuality  = "medium"
	DefaultPlatform = "general"
	DefaultFPS      = 30
)

// ffmpeg_timeout: per-subprocess wall-clock cap.
var FfmpegTimeout = 10 * time.Minute

// download_timeout: connection-establish cap; read itself is unbounded.
var DownloadTimeout = 30 * time.Second

// chunk_size: bytes per read/write.
var ChunkSize int64 = 1 * 1024 * 1024

// max_video_size_mb: preflight upper bound.
var MaxVideoSizeMB int64 = 2048

// MinFreeDiskBytes is the preflight free-disk-space floor the Download
// Manager checks before starting a transfer (§4.5).
var MinFreeDiskBytes uint64 = 1 * 1024 * 1024 * 1024

// whisper_model, whisper_timeout: speech-to-text settings.
var (
	WhisperModel   = "small"
	WhisperTimeout = 180 * time.Second
)

// RemoteReasoningTimeout bounds the external reasoning call (§5).
var RemoteReasoningTimeout = 60 * time.Second

// ReasoningBaseURL/ReasoningAPIKey/ReasoningModel configure the remote
// highlight-candidate reasoning endpoint (§4.3 Phase 3); empty BaseURL/APIKey
// makes clients.ReasoningClient.Analyze fail fast so callers fall back to
// FallbackHighlights instead of hanging on an unconfigured dependency.
var (
	ReasoningBaseURL = ""
	ReasoningAPIKey  = ""
	ReasoningModel   = "deepseek-chat"
)

// SpeechBaseURL is the speech-to-text endpoint transcribe.Transcriber submits
// extracted audio windows to (§4.3 Phase 2).
var SpeechBaseURL = ""

// SubtitlesEnabled gates whether convert_vertical_optimized's subtitle
// branch is ever attempted, independent of a per-job request flag.
var SubtitlesEnabled = true

// Highlight Analyzer tuning (§6 "analyzer tuning").
var (
	ViralScoreThreshold      = 0.6
	MinClipSeparationSeconds = 5.0
	OptimalViralDurationMin  = 15.0
	OptimalViralDurationMax  = 45.0
	AbsoluteMinClipDuration  = 5.0
	AbsoluteMaxClipDuration  = 90.0
	MaxClipsPerVideo         = 10
	ForceFullCoverage        = false
	AnalysisSegmentDuration  = 60.0
	MaxAnalysisSegments      = 30
)

// MaxJobsInFlight bounds concurrently-admitted transform submissions (§5).
var MaxJobsInFlight = 8
