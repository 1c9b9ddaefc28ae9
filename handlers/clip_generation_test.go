package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reelify/clip-engine/clients"
	"github.com/reelify/clip-engine/highlight"
	"github.com/reelify/clip-engine/transcribe"
	"github.com/reelify/clip-engine/video"
)

// fakeTranscriber/fakeReasoner let clip-generation and viral-selection tests
// exercise the Highlight Analyzer and Viral Scorer without a live speech-to-
// text or remote-reasoning endpoint.
type fakeTranscriber struct {
	result transcribe.Result
	err    error
}

func (f fakeTranscriber) TranscribeSegment(context.Context, string, string, float64, float64, string) (transcribe.Result, error) {
	return f.result, f.err
}

type fakeReasoner struct {
	candidates []clients.ReasoningCandidate
	err        error
}

func (f fakeReasoner) Analyze(context.Context, string, string) ([]clients.ReasoningCandidate, error) {
	return f.candidates, f.err
}

func stubDownloadClip(t *testing.T) func(requestID, url string) (string, func(), error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not a real mp4 but probe is faked"), 0o644))
	return func(string, string) (string, func(), error) {
		return path, func() {}, nil
	}
}

func TestClipGenerationRejectsMissingVideoURL(t *testing.T) {
	h := &Handlers{DownloadClip: stubDownloadClip(t)}
	body := bytes.NewBufferString(`{}`)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/clips/generate", body)

	h.ClipGeneration()(resp, req, nil)

	require.Equal(t, 400, resp.Code)
}

func TestClipGenerationReturns500WhenNotConfigured(t *testing.T) {
	h := &Handlers{}
	body := bytes.NewBufferString(`{"video_url": "https://example.com/a.mp4"}`)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/clips/generate", body)

	h.ClipGeneration()(resp, req, nil)

	require.Equal(t, 500, resp.Code)
}

func TestClipGenerationFallsBackWithoutAnalyzerDeps(t *testing.T) {
	h := &Handlers{
		DownloadClip: stubDownloadClip(t),
		ClipOptions:  highlight.DefaultOptions(),
		Prober:       fakeProber{info: video.Info{DurationS: 60}},
	}
	body := bytes.NewBufferString(`{"video_url": "https://example.com/a.mp4"}`)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/clips/generate", body)

	h.ClipGeneration()(resp, req, nil)

	require.Equal(t, 200, resp.Code)
	var out ClipGenerationResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Equal(t, "fallback_distribution", out.AnalysisMethod)
	require.NotEmpty(t, out.Clips)
}

func TestClipGenerationUsesRemoteReasoningWhenConfigured(t *testing.T) {
	opts := highlight.DefaultOptions()
	h := &Handlers{
		DownloadClip: stubDownloadClip(t),
		Transcriber:  fakeTranscriber{result: transcribe.Result{Text: "mira esto! no vas a creer lo que pasa"}},
		Reasoner: fakeReasoner{candidates: []clients.ReasoningCandidate{
			{SegmentIndex: 0, Score: 0.9, Reason: "strong hook", StartTime: 0.0, EndTime: 20.0},
		}},
		ClipOptions: opts,
		Prober:      fakeProber{info: video.Info{DurationS: 60}},
	}
	body := bytes.NewBufferString(`{"video_url": "https://example.com/a.mp4"}`)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/clips/generate", body)

	h.ClipGeneration()(resp, req, nil)

	require.Equal(t, 200, resp.Code)
	var out ClipGenerationResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Equal(t, "remote_reasoning", out.AnalysisMethod)
}
