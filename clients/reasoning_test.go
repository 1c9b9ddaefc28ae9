package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSONObjectFromPlainText(t *testing.T) {
	text := `Here is my answer: {"highlights": [{"score": 0.9}]} -- thanks`
	got := ExtractJSONObject(text)
	require.JSONEq(t, `{"highlights": [{"score": 0.9}]}`, got)
}

func TestExtractJSONObjectStripsMarkdownFences(t *testing.T) {
	text := "```json\n{\"highlights\": []}\n```"
	got := ExtractJSONObject(text)
	require.JSONEq(t, `{"highlights": []}`, got)
}

func TestExtractJSONObjectReturnsEmptyWhenNoBraces(t *testing.T) {
	require.Equal(t, "", ExtractJSONObject("no json here at all"))
}

func TestParseTimeToSecondsAcceptsNumber(t *testing.T) {
	s, ok := ParseTimeToSeconds(125.5)
	require.True(t, ok)
	require.Equal(t, 125.5, s)
}

func TestParseTimeToSecondsAcceptsHHMMSS(t *testing.T) {
	s, ok := ParseTimeToSeconds("01:02:03")
	require.True(t, ok)
	require.Equal(t, 3723.0, s)
}

func TestParseTimeToSecondsAcceptsMMSS(t *testing.T) {
	s, ok := ParseTimeToSeconds("02:03")
	require.True(t, ok)
	require.Equal(t, 123.0, s)
}

func TestParseTimeToSecondsAcceptsPlainSecondsString(t *testing.T) {
	s, ok := ParseTimeToSeconds("42.5")
	require.True(t, ok)
	require.Equal(t, 42.5, s)
}

func TestParseTimeToSecondsRejectsNilAndGarbage(t *testing.T) {
	_, ok := ParseTimeToSeconds(nil)
	require.False(t, ok)
	_, ok = ParseTimeToSeconds("not-a-time")
	require.False(t, ok)
}

func TestReasoningClientAnalyzeParsesHighlights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{Choices: []chatChoice{{Message: chatMessage{
			Content: "```json\n{\"highlights\": [{\"segment_index\": 0, \"score\": 0.8, \"start_time\": \"01:00\", \"end_time\": 90}]}\n```",
		}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewReasoningClient(srv.URL, "test-key", "test-model")
	candidates, err := c.Analyze(context.Background(), "req1", "prompt text")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, 0.8, candidates[0].Score)
	start, ok := ParseTimeToSeconds(candidates[0].StartTime)
	require.True(t, ok)
	require.Equal(t, 60.0, start)
}

func TestReasoningClientRejectsWhenUnconfigured(t *testing.T) {
	c := NewReasoningClient("", "", "")
	_, err := c.Analyze(context.Background(), "req1", "prompt")
	require.Error(t, err)
}

func TestReasoningClientErrorsOnNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatResponse{Choices: []chatChoice{{Message: chatMessage{Content: "no json at all here"}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewReasoningClient(srv.URL, "key", "model")
	_, err := c.Analyze(context.Background(), "req1", "prompt")
	require.Error(t, err)
}
