// Package clients holds the outbound HTTP clients the core calls into: the
// remote reasoning model that identifies highlight candidates and the
// speech-to-text model the Transcriber submits audio windows to.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/reelify/clip-engine/config"
	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/log"
)

// ReasoningCandidate is one highlight candidate as returned by the remote
// model, grounded on deepseek_analyzer.py's "highlights" schema. Times are
// whatever format the model chose to use (hh:mm:ss, mm:ss, seconds, or a
// bare duration); ParseTimeToSeconds resolves them.
type ReasoningCandidate struct {
	SegmentIndex      int     `json:"segment_index"`
	Score             float64 `json:"score"`
	Reason            string  `json:"reason"`
	StartTime         any     `json:"start_time"`
	EndTime           any     `json:"end_time"`
	OptimalDuration   any     `json:"optimal_duration"`
	Duration          any     `json:"duration"`
	ViralCategory     string  `json:"viral_category"`
	DurationRationale string  `json:"duration_rationale"`
}

type reasoningResponse struct {
	Highlights []ReasoningCandidate `json:"highlights"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// ReasoningClient submits segment transcripts to an OpenAI-chat-compatible
// endpoint and parses the model's highlight candidates (§4.3 Phase 3).
type ReasoningClient struct {
	BaseURL    string
	APIKey     string
	Model      string
	httpClient *http.Client
}

// NewReasoningClient builds a client with the teacher's retryablehttp
// backoff profile, bounded by config.RemoteReasoningTimeout.
func NewReasoningClient(baseURL, apiKey, model string) *ReasoningClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 3 * time.Second
	client.HTTPClient = &http.Client{Timeout: config.RemoteReasoningTimeout}
	client.Logger = nil
	return &ReasoningClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		httpClient: client.StandardClient(),
	}
}

// Analyze sends prompt (already rendered with the segment transcripts) and
// returns the model's parsed highlight candidates.
func (c *ReasoningClient) Analyze(ctx context.Context, requestID, prompt string) ([]ReasoningCandidate, error) {
	if c.BaseURL == "" || c.APIKey == "" {
		return nil, clipErrors.New(clipErrors.UnavailableDependency, "remote reasoning endpoint is not configured", nil)
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.3,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, clipErrors.New(clipErrors.RemoteReasoningError, "failed to encode reasoning request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, clipErrors.New(clipErrors.RemoteReasoningError, "failed to build reasoning request", clipErrors.Unretriable(err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, clipErrors.New(clipErrors.RemoteReasoningError, "reasoning request failed", err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, clipErrors.New(clipErrors.RemoteReasoningError, "failed to decode reasoning response", err)
	}
	if resp.StatusCode != http.StatusOK || len(parsed.Choices) == 0 {
		return nil, clipErrors.Newf(clipErrors.RemoteReasoningError, nil, "reasoning endpoint returned status %d", resp.StatusCode)
	}

	content := parsed.Choices[0].Message.Content
	jsonText := ExtractJSONObject(content)
	if jsonText == "" {
		return nil, clipErrors.New(clipErrors.RemoteReasoningError, "reasoning response had no parseable JSON", nil)
	}

	var result reasoningResponse
	if err := json.Unmarshal([]byte(jsonText), &result); err != nil {
		return nil, clipErrors.New(clipErrors.RemoteReasoningError, "failed to parse reasoning highlights", err)
	}
	log.Log(requestID, "reasoning model returned candidates", "count", len(result.Highlights))
	return result.Highlights, nil
}

var codeFenceRe = regexp.MustCompile("(?s)```.*?```")

// ExtractJSONObject implements the lenient reasoning-JSON parser (§4.3 Phase
// 3 / Open Questions): try the outermost `{...}` in the raw text first, then
// retry after stripping Markdown code fences.
func ExtractJSONObject(text string) string {
	if candidate := outermostBraces(text); candidate != "" {
		return candidate
	}
	cleaned := strings.TrimSpace(codeFenceRe.ReplaceAllString(text, ""))
	return outermostBraces(cleaned)
}

func outermostBraces(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// ParseTimeToSeconds accepts a number, a numeric JSON value, or a string in
// "hh:mm:ss", "mm:ss", or plain-seconds form, grounded on
// deepseek_analyzer.py#_parse_time_to_seconds. Returns ok=false when value is
// nil or unparseable.
func ParseTimeToSeconds(value any) (seconds float64, ok bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		return parseTimeString(v)
	default:
		return 0, false
	}
}

func parseTimeString(raw string) (float64, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, false
	}
	parts := strings.Split(v, ":")
	switch len(parts) {
	case 3:
		h, errH := strconv.ParseFloat(parts[0], 64)
		m, errM := strconv.ParseFloat(parts[1], 64)
		s, errS := strconv.ParseFloat(parts[2], 64)
		if errH != nil || errM != nil || errS != nil {
			return 0, false
		}
		return h*3600 + m*60 + s, true
	case 2:
		m, errM := strconv.ParseFloat(parts[0], 64)
		s, errS := strconv.ParseFloat(parts[1], 64)
		if errM != nil || errS != nil {
			return 0, false
		}
		return m*60 + s, true
	default:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
}

// RetryWithBackoff runs op once and retries it up to maxRetries more times,
// until it succeeds, using the teacher's
// exponential-backoff profile (video/probe.go), for callers that need a
// retry loop around something that isn't itself idempotent-HTTP (e.g. a
// locally-spawned subprocess, per §4.3 Phase 2's "subprocess-level retry").
func RetryWithBackoff(op func() error, maxRetries uint64) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0
	return backoff.Retry(op, backoff.WithMaxRetries(b, maxRetries))
}
