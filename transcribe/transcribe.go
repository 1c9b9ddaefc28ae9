// Package transcribe implements the Transcriber (§2): extracts a short PCM
// audio window from a source video via ffmpeg and submits it to a
// speech-to-text model, returning time-aligned text.
package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/reelify/clip-engine/clients"
	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/ffmpeg"
	"github.com/reelify/clip-engine/log"
)

// sampleRateHz/audioChannel implement §4.3 Phase 2's "PCM 16-bit mono
// 16 kHz" extraction target; the 16-bit depth comes from the pcm_s16le codec.
const (
	sampleRateHz = 16000
	audioChannel = 1
)

// Segment is a time-aligned transcript window, re-exported from clients so
// callers in highlight/ and viral/ don't need to import clients directly.
type Segment = clients.SpeechSegment

// Result carries the transcript plus the language the model detected.
type Result struct {
	Text     string
	Language string
	Segments []Segment
}

// SpeechBackend abstracts the external speech-to-text call so Transcribe can
// be tested without a real model server.
type SpeechBackend interface {
	Transcribe(ctx context.Context, audioPath, language string) (clients.SpeechResult, error)
}

// AudioExtractor abstracts the ffmpeg subprocess invocation that extracts a
// video segment's audio track, so Transcribe can be tested without a real
// ffmpeg binary.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath string, start, end float64, destPath string) error
}

type ffmpegAudioExtractor struct{}

// ExtractAudio shells out to ffmpeg with a fixed filter (-ss/-to window,
// pcm_s16le codec, mono, 16kHz), retrying the subprocess per §4.3 Phase 2
// "with a subprocess-level retry".
func (ffmpegAudioExtractor) ExtractAudio(ctx context.Context, videoPath string, start, end float64, destPath string) error {
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.3f", start),
		"-to", fmt.Sprintf("%.3f", end),
		"-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", sampleRateHz),
		"-ac", fmt.Sprintf("%d", audioChannel),
		destPath,
	}

	return clients.RetryWithBackoff(func() error {
		return ffmpeg.DefaultRunner.Run(ctx, args, nil)
	}, 2)
}

// Transcriber extracts and transcribes source-video windows (§4.3 Phase 2).
type Transcriber struct {
	Extractor AudioExtractor
	Speech    SpeechBackend
	TempDir   string
}

// New wires the real ffmpeg-subprocess extractor and a speech backend
// talking to baseURL.
func New(speechBaseURL, tempDir string) *Transcriber {
	return &Transcriber{
		Extractor: ffmpegAudioExtractor{},
		Speech:    clients.NewSpeechClient(speechBaseURL),
		TempDir:   tempDir,
	}
}

// TranscribeSegment extracts [start, end) from videoPath and submits it to
// the speech backend with the language hint (§4.3 "`es`" by default). The
// extracted audio file is always removed before returning.
func (t *Transcriber) TranscribeSegment(ctx context.Context, requestID, videoPath string, start, end float64, language string) (Result, error) {
	if language == "" {
		language = "es"
	}
	audioPath := filepath.Join(t.TempDir, "audio_"+uuid.NewString()+".wav")
	defer os.Remove(audioPath)

	if err := t.Extractor.ExtractAudio(ctx, videoPath, start, end, audioPath); err != nil {
		return Result{}, clipErrors.New(clipErrors.TranscriptionError, "failed to extract audio segment", err)
	}

	resp, err := t.Speech.Transcribe(ctx, audioPath, language)
	if err != nil {
		log.LogError(requestID, "segment transcription failed", err, "start", start, "end", end)
		return Result{}, err
	}

	return Result{Text: resp.Text, Language: resp.Language, Segments: resp.Segments}, nil
}

// TranscribeSegments transcribes each window, collecting only the successful
// results; §4.3 Phase 2 "collect successful transcripts only" — a failed
// segment is logged and dropped rather than aborting the batch.
func (t *Transcriber) TranscribeSegments(ctx context.Context, requestID, videoPath string, windows [][2]float64, language string) []Result {
	results := make([]Result, 0, len(windows))
	for _, w := range windows {
		r, err := t.TranscribeSegment(ctx, requestID, videoPath, w[0], w[1], language)
		if err != nil {
			continue
		}
		if r.Text == "" {
			continue
		}
		results = append(results, r)
	}
	return results
}
