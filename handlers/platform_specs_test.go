package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reelify/clip-engine/video"
)

func TestPlatformSpecsReturnsFullCatalog(t *testing.T) {
	h := &Handlers{}
	resp := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/platform-specs", nil)

	h.PlatformSpecs()(resp, req, nil)

	require.Equal(t, 200, resp.Code)

	var body PlatformSpecsResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))

	require.Len(t, body.Qualities, len(video.QualityCatalog))
	for name, profile := range video.QualityCatalog {
		spec, ok := body.Qualities[name]
		require.True(t, ok, "missing quality %s", name)
		require.Equal(t, profile.CRF, spec.CRF)
		require.Equal(t, profile.Width, spec.Width)
		require.Equal(t, profile.Height, spec.Height)
	}

	require.Equal(t, video.QualityTikTok, body.PlatformMapping[video.PlatformTikTok])
	require.Equal(t, video.QualityInstagram, body.PlatformMapping[video.PlatformFacebook])
	require.Equal(t, "unchanged", body.PlatformMapping[video.PlatformGeneral])
}
