// Package job implements the Job Manager (§4.1): request dedup by
// fingerprint, a TTL-swept job cache, and one background worker per
// admitted submission driving download → probe → convert → probe.
package job

import (
	"time"

	"github.com/reelify/clip-engine/video"
)

// State is the Job lifecycle enum (§3 JobState). Transitions are strictly
// monotonic: queued -> downloading -> converting -> completed|error.
type State string

const (
	StateQueued      State = "queued"
	StateDownloading State = "downloading"
	StateConverting  State = "converting"
	StateCompleted   State = "completed"
	StateError       State = "error"
)

// TransformOptions carries every processing-affecting knob a TransformRequest
// may set, mirroring ffmpeg.FilterOptions plus the knobs that live above the
// FFmpeg Driver (split, subtitles, custom bitrate).
type TransformOptions struct {
	Split            bool
	Denoise          bool
	SharpenStrength  float64
	Brightness       float64
	Contrast         float64
	Saturation       float64
	Gamma            float64
	AddSubtitles     bool
	SubtitleLanguage string
	AudioEnhancement bool
	CustomBitrate    int64
	TargetFPS        int64
}

// UsesAdvancedPipeline implements §4.1's pipeline selection: any requested
// filter, subtitles, or split routes through convert_vertical_optimized (or
// convert_split) instead of the single-pass simple pipeline.
func (o TransformOptions) UsesAdvancedPipeline() bool {
	return o.Split || o.AddSubtitles || o.Denoise ||
		o.SharpenStrength != 0 || o.Brightness != 0 || o.Contrast != 0 || o.Saturation != 0 || o.Gamma != 0
}

// TransformRequest is the data model's TransformRequest (§3): an inbound
// adapter's ask for one video transformation, immutable once created.
type TransformRequest struct {
	VideoURL string
	Quality  string
	Platform string
	Options  TransformOptions
}

// Job is the data model's Job (§3): the unit of async work tracked in the
// cache, mutated only through jobCache.Update's whole-entry merge.
type Job struct {
	Fingerprint string
	PublicID    string
	SourceURL   string
	Quality     string
	Platform    string
	Options     TransformOptions

	State       State
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time

	TempDir       string
	OutputPath    string
	OutputSize    int64
	OriginalInfo  video.Info
	FinalInfo     video.Info

	// ErrorMessage is the short, user-visible failure reason (§7); errDetail
	// holds the full typed error for logging only, never serialized.
	ErrorMessage string
	errDetail    error
}

// ConversionTime reports the worker's wall-clock duration once completed;
// zero before then.
func (j Job) ConversionTime() time.Duration {
	if j.CompletedAt.IsZero() || j.StartedAt.IsZero() {
		return 0
	}
	return j.CompletedAt.Sub(j.StartedAt)
}

// Status is the payload for the "poll status" operation (§6).
type Status struct {
	PublicID       string
	State          State
	Quality        string
	CreatedAt      time.Time
	Ready          bool
	Message        string
	Error          string
	FileSizeBytes  int64
	ConversionTime time.Duration
}

// SubmitResult is the payload for the "submit transform" operation (§6),
// short of the URL fields an inbound adapter derives from routing.
type SubmitResult struct {
	PublicID string
	State    State
}
