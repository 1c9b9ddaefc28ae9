package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reelify/clip-engine/job"
)

func TestSubmitTransformRejectsMissingVideoURL(t *testing.T) {
	h := &Handlers{Manager: newTestManager(t)}
	body := bytes.NewBufferString(`{"quality": "medium"}`)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/transform", body)

	h.SubmitTransform()(resp, req, nil)

	require.Equal(t, 400, resp.Code)
}

func TestSubmitTransformRejectsMalformedJSON(t *testing.T) {
	h := &Handlers{Manager: newTestManager(t)}
	body := bytes.NewBufferString(`not json`)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/transform", body)

	h.SubmitTransform()(resp, req, nil)

	require.Equal(t, 400, resp.Code)
}

func TestSubmitTransformAppliesDefaultsAndReturnsURLs(t *testing.T) {
	h := &Handlers{Manager: newTestManager(t)}
	body := bytes.NewBufferString(`{"video_url": "https://example.com/a.mp4"}`)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/transform", body)

	h.SubmitTransform()(resp, req, nil)

	require.Equal(t, 200, resp.Code)

	var out SubmitTransformResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.True(t, out.Success)
	require.NotEmpty(t, out.VideoID)
	require.Equal(t, job.StateQueued, out.State)
	require.Contains(t, out.DownloadURL, "/api/download/"+out.VideoID)
	require.Contains(t, out.VideoURL, "/api/video/"+out.VideoID)
	require.Contains(t, out.StatusURL, "/api/status/"+out.VideoID)
	require.Equal(t, 30, out.EstimatedTime)
}

func TestSubmitTransformUsesAdvancedPipelineEstimate(t *testing.T) {
	h := &Handlers{Manager: newTestManager(t)}
	body := bytes.NewBufferString(`{"video_url": "https://example.com/a.mp4", "denoise": true}`)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/transform", body)

	h.SubmitTransform()(resp, req, nil)

	require.Equal(t, 200, resp.Code)
	var out SubmitTransformResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Equal(t, 90, out.EstimatedTime)
}

func TestSubmitTransformRejectsUnknownQuality(t *testing.T) {
	h := &Handlers{Manager: newTestManager(t)}
	body := bytes.NewBufferString(`{"video_url": "https://example.com/a.mp4", "quality": "bogus"}`)
	resp := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/transform", body)

	h.SubmitTransform()(resp, req, nil)

	require.Equal(t, 400, resp.Code)
}
