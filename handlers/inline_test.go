package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/require"

	"github.com/reelify/clip-engine/job"
)

func TestInlineReturns404WhenNotReady(t *testing.T) {
	m := newTestManager(t)
	m.Downloader = blockingDownloader{}
	h := &Handlers{Manager: m}

	res, err := m.Submit(job.TransformRequest{VideoURL: "https://example.com/a.mp4", Quality: "medium", Platform: "general"})
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/video/"+res.PublicID, nil)
	params := httprouter.Params{{Key: "video_id", Value: res.PublicID}}

	h.Inline()(resp, req, params)

	require.Equal(t, 404, resp.Code)
}

func TestInlineStreamsCompletedOutput(t *testing.T) {
	m := newTestManager(t)
	m.Converter = fakeConverter{content: []byte("inline mp4 bytes")}
	h := &Handlers{Manager: m}

	res, err := m.Submit(job.TransformRequest{VideoURL: "https://example.com/a.mp4", Quality: "medium", Platform: "general"})
	require.NoError(t, err)
	waitForState(t, m, res.PublicID, job.StateCompleted)

	resp := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/video/"+res.PublicID, nil)
	params := httprouter.Params{{Key: "video_id", Value: res.PublicID}}

	h.Inline()(resp, req, params)

	require.Equal(t, 200, resp.Code)
	require.Equal(t, "inline mp4 bytes", resp.Body.String())
	require.Equal(t, "bytes", resp.Header().Get("Accept-Ranges"))
}
