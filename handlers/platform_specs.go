package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/requests"
	"github.com/reelify/clip-engine/video"
)

// QualitySpec is one row of the §6 quality catalog payload.
type QualitySpec struct {
	Name         string `json:"name"`
	CRF          int    `json:"crf"`
	Preset       string `json:"preset"`
	Width        int64  `json:"width"`
	Height       int64  `json:"height"`
	Bitrate      int64  `json:"bitrate"`
	MaxBitrate   int64  `json:"max_bitrate"`
	BufSize      int64  `json:"buf_size"`
	AudioBitrate int64  `json:"audio_bitrate"`
}

// PlatformSpecsResponse is the §6 "get platform specs" payload: the static
// quality catalog plus the platform-to-quality mapping job.Manager.Submit
// applies via video.AdjustQualityForPlatform.
type PlatformSpecsResponse struct {
	Qualities       map[string]QualitySpec `json:"qualities"`
	PlatformMapping map[string]string      `json:"platform_mapping"`
}

// platformMapping mirrors video.AdjustQualityForPlatform's behavior for
// documentation purposes: "unchanged" means the requested quality passes
// through rather than being forced to a platform-named profile.
var platformMapping = map[string]string{
	video.PlatformTikTok:    video.QualityTikTok,
	video.PlatformInstagram: video.QualityInstagram,
	video.PlatformFacebook:  video.QualityInstagram,
	video.PlatformYouTube:   video.QualityYouTube,
	video.PlatformGeneral:   "unchanged",
}

// PlatformSpecs implements "get platform specs" (§6): no inputs, no error
// response, a static payload derived from video.QualityCatalog.
func (h *Handlers) PlatformSpecs() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		requestID := requests.GetRequestId(req)

		qualities := make(map[string]QualitySpec, len(video.QualityCatalog))
		for name, p := range video.QualityCatalog {
			qualities[name] = QualitySpec{
				Name:         p.Name,
				CRF:          p.CRF,
				Preset:       p.Preset,
				Width:        p.Width,
				Height:       p.Height,
				Bitrate:      p.Bitrate,
				MaxBitrate:   p.MaxBitrate,
				BufSize:      p.BufSize,
				AudioBitrate: p.AudioBitrate,
			}
		}

		resp := PlatformSpecsResponse{
			Qualities:       qualities,
			PlatformMapping: platformMapping,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.LogError(requestID, "failed to encode platform specs response", err)
		}
	}
}
