package highlight

import (
	"context"
	"fmt"

	"github.com/reelify/clip-engine/clients"
	"github.com/reelify/clip-engine/config"
	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/metrics"
	"github.com/reelify/clip-engine/transcribe"
)

// Transcriber abstracts transcribe.Transcriber so Analyze can be tested
// without extracting real audio. Segments are transcribed one at a time
// (rather than via the batch TranscribeSegments helper) so a failed segment
// can be dropped without losing the original-segment index of the ones that
// succeeded.
type Transcriber interface {
	TranscribeSegment(ctx context.Context, requestID, videoPath string, start, end float64, language string) (transcribe.Result, error)
}

// Reasoner abstracts clients.ReasoningClient so Analyze can be tested without
// a live remote-reasoning endpoint.
type Reasoner interface {
	Analyze(ctx context.Context, requestID, prompt string) ([]clients.ReasoningCandidate, error)
}

// Options collects the tuning knobs §4.3 reads from config, so callers (and
// tests) can override them per call instead of reaching into the config
// package directly.
type Options struct {
	SegmentDuration     float64
	MaxSegments         int
	ForceFullCoverage   bool
	AbsoluteMinDuration float64
	AbsoluteMaxDuration float64
	OptimalDurationMin  float64
	OptimalDurationMax  float64
	ScoreThreshold      float64
	MinClipSeparation   float64
	MaxClipsPerVideo    int
	Language            string
}

// DefaultOptions reads the package-level config.* tuning values (§7
// "Configuration").
func DefaultOptions() Options {
	return Options{
		SegmentDuration:     config.AnalysisSegmentDuration,
		MaxSegments:         config.MaxAnalysisSegments,
		ForceFullCoverage:   config.ForceFullCoverage,
		AbsoluteMinDuration: config.AbsoluteMinClipDuration,
		AbsoluteMaxDuration: config.AbsoluteMaxClipDuration,
		OptimalDurationMin:  config.OptimalViralDurationMin,
		OptimalDurationMax:  config.OptimalViralDurationMax,
		ScoreThreshold:      config.ViralScoreThreshold,
		MinClipSeparation:   config.MinClipSeparationSeconds,
		MaxClipsPerVideo:    config.MaxClipsPerVideo,
		Language:            "es",
	}
}

// Analyze runs the whole of §4.3's five phases against a source video and
// returns the accepted highlights plus the segment transcript joined for
// logging/debugging. A candidate pool is always produced even when the
// remote reasoning endpoint is unavailable, via FallbackHighlights.
func Analyze(ctx context.Context, requestID, videoPath string, videoDuration float64, tr Transcriber, reasoner Reasoner, opts Options) ([]Highlight, error) {
	segments := createSegments(videoDuration, opts.SegmentDuration, opts.MaxSegments, opts.ForceFullCoverage)
	if len(segments) == 0 {
		return nil, nil
	}

	// Segments are transcribed one at a time so a failure can be dropped
	// (§4.3 Phase 2 "collect successful transcripts only") while keeping
	// each surviving transcript keyed by its original segment index; the
	// remote model is told the same index in the prompt's segment listing,
	// so Phase 3 can map a returned segment_index straight back to its
	// window and transcript.
	segmentsByIndex := make(map[int][2]float64, len(segments))
	resultByIndex := make(map[int]transcribe.Result, len(segments))
	lines := make([]string, 0, len(segments))
	for i, seg := range segments {
		r, err := tr.TranscribeSegment(ctx, requestID, videoPath, seg[0], seg[1], opts.Language)
		if err != nil || r.Text == "" {
			continue
		}
		segmentsByIndex[i] = seg
		resultByIndex[i] = r
		lines = append(lines, formatSegmentLine(i, r))
	}

	if len(lines) == 0 {
		log.Log(requestID, "no transcribable segments, falling back to distributed selection")
		fallback := FallbackHighlights(videoDuration, opts.MaxClipsPerVideo, opts.OptimalDurationMin, opts.OptimalDurationMax, opts.AbsoluteMinDuration, opts.AbsoluteMaxDuration)
		metrics.Metrics.HighlightCandidatesTotal.Add(float64(len(fallback)))
		metrics.Metrics.HighlightSelectedTotal.Add(float64(len(fallback)))
		return fallback, nil
	}

	prompt := buildPrompt(lines)
	candidatesRaw, err := reasoner.Analyze(ctx, requestID, prompt)
	if err != nil {
		log.LogError(requestID, "remote reasoning unavailable, falling back to distributed selection", err)
		fallback := FallbackHighlights(videoDuration, opts.MaxClipsPerVideo, opts.OptimalDurationMin, opts.OptimalDurationMax, opts.AbsoluteMinDuration, opts.AbsoluteMaxDuration)
		metrics.Metrics.HighlightCandidatesTotal.Add(float64(len(fallback)))
		metrics.Metrics.HighlightSelectedTotal.Add(float64(len(fallback)))
		return fallback, nil
	}

	pool := make([]Candidate, 0, len(candidatesRaw)*4)
	for _, rc := range candidatesRaw {
		seg, ok := segmentsByIndex[rc.SegmentIndex]
		if !ok {
			continue
		}
		r, ok := resultByIndex[rc.SegmentIndex]
		if !ok {
			continue
		}

		c := mapCandidate(rc, seg, videoDuration, opts.AbsoluteMinDuration)
		c.Transcription = r.Text
		start, end := assignDuration(c, opts.AbsoluteMinDuration, opts.AbsoluteMaxDuration, opts.OptimalDurationMin, opts.OptimalDurationMax, videoDuration)
		c.Start, c.End = start, end
		Score(&c, opts.OptimalDurationMin, opts.OptimalDurationMax)
		pool = append(pool, c)

		for _, v := range generateVariants(c, opts.AbsoluteMinDuration, opts.AbsoluteMaxDuration) {
			Score(&v, opts.OptimalDurationMin, opts.OptimalDurationMax)
			pool = append(pool, v)
		}
	}

	metrics.Metrics.HighlightCandidatesTotal.Add(float64(len(pool)))
	if len(pool) == 0 {
		fallback := FallbackHighlights(videoDuration, opts.MaxClipsPerVideo, opts.OptimalDurationMin, opts.OptimalDurationMax, opts.AbsoluteMinDuration, opts.AbsoluteMaxDuration)
		metrics.Metrics.HighlightSelectedTotal.Add(float64(len(fallback)))
		return fallback, nil
	}

	selected := SelectHighlights(pool, opts.ScoreThreshold, opts.MaxClipsPerVideo, opts.MinClipSeparation)
	metrics.Metrics.HighlightSelectedTotal.Add(float64(len(selected)))

	highlights := make([]Highlight, 0, len(selected))
	for _, c := range selected {
		highlights = append(highlights, toHighlight(c))
	}
	return highlights, nil
}

func formatSegmentLine(index int, r transcribe.Result) string {
	return fmt.Sprintf("[%d] %s", index, r.Text)
}

func toHighlight(c Candidate) Highlight {
	return Highlight{
		Start:         c.Start,
		End:           c.End,
		FinalScore:    c.FinalScore,
		Reason:        c.Reason,
		Transcription: c.Transcription,
		Metadata: Metadata{
			BaseScore:          c.BaseScore,
			EmotionalIntensity: c.EmotionalIntensity,
			SpeechClarity:      c.SpeechClarity,
			ConversationFlow:   c.ConversationFlow,
			KeywordDensity:     c.KeywordDensity,
			Confidence:         c.Confidence,
			ViralCategory:      c.ViralCategory,
			DurationRationale:  c.DurationReason,
		},
	}
}
