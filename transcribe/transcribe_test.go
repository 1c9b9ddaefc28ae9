package transcribe

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reelify/clip-engine/clients"
)

type fakeExtractor struct {
	err   error
	calls int
}

func (f *fakeExtractor) ExtractAudio(context.Context, string, float64, float64, string) error {
	f.calls++
	return f.err
}

type fakeSpeech struct {
	result clients.SpeechResult
	err    error
}

func (f *fakeSpeech) Transcribe(context.Context, string, string) (clients.SpeechResult, error) {
	return f.result, f.err
}

func TestTranscribeSegmentReturnsTextAndSegments(t *testing.T) {
	ex := &fakeExtractor{}
	sp := &fakeSpeech{result: clients.SpeechResult{
		Text:     "hola",
		Language: "es",
		Segments: []clients.SpeechSegment{{Start: 0, End: 1, Text: "hola"}},
	}}
	tr := &Transcriber{Extractor: ex, Speech: sp, TempDir: t.TempDir()}

	res, err := tr.TranscribeSegment(context.Background(), "req1", "/tmp/video.mp4", 10, 20, "")
	require.NoError(t, err)
	require.Equal(t, "hola", res.Text)
	require.Equal(t, "es", res.Language)
	require.Equal(t, 1, ex.calls)
}

func TestTranscribeSegmentDefaultsLanguageToSpanish(t *testing.T) {
	ex := &fakeExtractor{}
	var capturedLang string
	sp := speechCapture{fn: func(_ context.Context, _ string, lang string) (clients.SpeechResult, error) {
		capturedLang = lang
		return clients.SpeechResult{Text: "x"}, nil
	}}
	tr := &Transcriber{Extractor: ex, Speech: sp, TempDir: t.TempDir()}

	_, err := tr.TranscribeSegment(context.Background(), "req1", "/tmp/video.mp4", 0, 5, "")
	require.NoError(t, err)
	require.Equal(t, "es", capturedLang)
}

type speechCapture struct {
	fn func(context.Context, string, string) (clients.SpeechResult, error)
}

func (s speechCapture) Transcribe(ctx context.Context, audioPath, lang string) (clients.SpeechResult, error) {
	return s.fn(ctx, audioPath, lang)
}

func TestTranscribeSegmentPropagatesExtractionError(t *testing.T) {
	ex := &fakeExtractor{err: fmt.Errorf("ffmpeg exited 1")}
	sp := &fakeSpeech{}
	tr := &Transcriber{Extractor: ex, Speech: sp, TempDir: t.TempDir()}

	_, err := tr.TranscribeSegment(context.Background(), "req1", "/tmp/video.mp4", 0, 5, "es")
	require.Error(t, err)
}

func TestTranscribeSegmentsDropsFailuresAndEmptyText(t *testing.T) {
	ex := &fakeExtractor{}
	calls := 0
	sp := speechCapture{fn: func(context.Context, string, string) (clients.SpeechResult, error) {
		calls++
		switch calls {
		case 1:
			return clients.SpeechResult{Text: "good segment"}, nil
		case 2:
			return clients.SpeechResult{}, fmt.Errorf("model unavailable")
		default:
			return clients.SpeechResult{Text: ""}, nil
		}
	}}
	tr := &Transcriber{Extractor: ex, Speech: sp, TempDir: t.TempDir()}

	windows := [][2]float64{{0, 10}, {10, 20}, {20, 30}}
	results := tr.TranscribeSegments(context.Background(), "req1", "/tmp/video.mp4", windows, "es")
	require.Len(t, results, 1)
	require.Equal(t, "good segment", results[0].Text)
}
