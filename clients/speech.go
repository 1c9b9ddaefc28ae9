package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/reelify/clip-engine/config"
	clipErrors "github.com/reelify/clip-engine/errors"
)

// SpeechSegment is one time-aligned piece of a transcription (§3 groundwork
// for HighlightCandidate.transcription), grounded on whisper_service.py's
// segment shape.
type SpeechSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SpeechResult is the full response from a transcription call.
type SpeechResult struct {
	Text     string          `json:"text"`
	Language string          `json:"language"`
	Segments []SpeechSegment `json:"segments"`
}

type speechClientResponse struct {
	Text     string          `json:"text"`
	Language string          `json:"language"`
	Segments []SpeechSegment `json:"segments"`
	Error    string          `json:"error"`
}

// SpeechClient submits an audio file to a speech-to-text HTTP endpoint,
// standing in for whisper_service.py's local model load + transcribe call:
// the origin service ran Whisper in-process, but an idiomatic Go service
// treats model inference as an external dependency behind a retryable HTTP
// call, exactly like the reasoning client.
type SpeechClient struct {
	BaseURL    string
	Model      string
	httpClient *http.Client
}

// NewSpeechClient builds a client bounded by config.WhisperTimeout, using the
// same retryablehttp backoff profile as the reasoning client.
func NewSpeechClient(baseURL string) *SpeechClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 3 * time.Second
	client.HTTPClient = &http.Client{Timeout: config.WhisperTimeout}
	client.Logger = nil
	return &SpeechClient{
		BaseURL:    baseURL,
		Model:      config.WhisperModel,
		httpClient: client.StandardClient(),
	}
}

// Transcribe posts audioPath's contents as multipart form data with a
// language hint (§4.3 Phase 2 submits `es` by default) and returns the
// model's time-aligned transcription. The model field carries
// config.WhisperModel so a remote server can lazy-load it on first use,
// mirroring whisper_service.py's lazy _load_model.
func (c *SpeechClient) Transcribe(ctx context.Context, audioPath, language string) (SpeechResult, error) {
	if c.BaseURL == "" {
		return SpeechResult{}, clipErrors.New(clipErrors.UnavailableDependency, "speech-to-text endpoint is not configured", nil)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return SpeechResult{}, clipErrors.New(clipErrors.TranscriptionError, "failed to open audio segment", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "segment.wav")
	if err != nil {
		return SpeechResult{}, clipErrors.New(clipErrors.TranscriptionError, "failed to build transcription request", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return SpeechResult{}, clipErrors.New(clipErrors.TranscriptionError, "failed to read audio segment", err)
	}
	_ = writer.WriteField("model", c.Model)
	_ = writer.WriteField("language", language)
	if err := writer.Close(); err != nil {
		return SpeechResult{}, clipErrors.New(clipErrors.TranscriptionError, "failed to finalize transcription request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/transcribe", &buf)
	if err != nil {
		return SpeechResult{}, clipErrors.New(clipErrors.TranscriptionError, "failed to build transcription request", clipErrors.Unretriable(err))
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SpeechResult{}, clipErrors.New(clipErrors.TranscriptionError, "transcription request failed", err)
	}
	defer resp.Body.Close()

	var parsed speechClientResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return SpeechResult{}, clipErrors.New(clipErrors.TranscriptionError, "failed to decode transcription response", err)
	}
	if resp.StatusCode != http.StatusOK || parsed.Error != "" {
		return SpeechResult{}, clipErrors.Newf(clipErrors.TranscriptionError, nil, "transcription failed: %s", parsed.Error)
	}

	return SpeechResult{Text: parsed.Text, Language: parsed.Language, Segments: parsed.Segments}, nil
}
