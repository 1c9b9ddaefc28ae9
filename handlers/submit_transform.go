package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/xeipuuv/gojsonschema"

	"github.com/reelify/clip-engine/config"
	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/job"
	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/requests"
)

// SubmitTransformRequest is the wire shape of the "submit transform"
// operation's body (§6): video_url is mandatory, everything else falls back
// to config.Default*/zero.
type SubmitTransformRequest struct {
	VideoURL string `json:"video_url"`
	Quality  string `json:"quality"`
	Platform string `json:"platform"`

	Split bool `json:"split"`

	Denoise          bool    `json:"denoise"`
	SharpenStrength  float64 `json:"sharpen_strength"`
	Brightness       float64 `json:"brightness"`
	Contrast         float64 `json:"contrast"`
	Saturation       float64 `json:"saturation"`
	Gamma            float64 `json:"gamma"`
	AudioEnhancement bool    `json:"audio_enhancement"`

	AddSubtitles     bool   `json:"add_subtitles"`
	SubtitleLanguage string `json:"subtitle_language"`

	CustomBitrate int64 `json:"custom_bitrate"`
	TargetFPS     int64 `json:"target_fps"`
}

// SubmitTransformResponse is the §6 success payload.
type SubmitTransformResponse struct {
	Success       bool      `json:"success"`
	VideoID       string    `json:"video_id"`
	State         job.State `json:"state"`
	DownloadURL   string    `json:"download_url"`
	VideoURL      string    `json:"video_url"`
	StatusURL     string    `json:"status_url"`
	EstimatedTime int       `json:"estimated_time"`
}

// SubmitTransform implements "submit transform" (§6): validates the body
// against its JSON schema, fills in defaults, and hands the request to the
// Job Manager.
func (h *Handlers) SubmitTransform() httprouter.Handle {
	schema := inputSchemasCompiled["SubmitTransform"]

	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		requestID := requests.GetRequestId(req)

		payload, err := io.ReadAll(req.Body)
		if err != nil {
			clipErrors.WriteHTTPBadRequest(w, "cannot read body", err)
			return
		}
		result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
		if err != nil {
			clipErrors.WriteHTTPInternalServerError(w, "body schema validation failed", err)
			return
		}
		if !result.Valid() {
			clipErrors.WriteHTTPBadBodySchema("SubmitTransform", w, result.Errors())
			return
		}

		var body SubmitTransformRequest
		if err := json.Unmarshal(payload, &body); err != nil {
			clipErrors.WriteHTTPBadRequest(w, "invalid request payload", err)
			return
		}

		quality := body.Quality
		if quality == "" {
			quality = config.DefaultQuality
		}
		platform := body.Platform
		if platform == "" {
			platform = config.DefaultPlatform
		}
		targetFPS := body.TargetFPS
		if targetFPS == 0 {
			targetFPS = int64(config.DefaultFPS)
		}

		tr := job.TransformRequest{
			VideoURL: body.VideoURL,
			Quality:  quality,
			Platform: platform,
			Options: job.TransformOptions{
				Split:            body.Split,
				Denoise:          body.Denoise,
				SharpenStrength:  body.SharpenStrength,
				Brightness:       body.Brightness,
				Contrast:         body.Contrast,
				Saturation:       body.Saturation,
				Gamma:            body.Gamma,
				AddSubtitles:     body.AddSubtitles,
				SubtitleLanguage: body.SubtitleLanguage,
				AudioEnhancement: body.AudioEnhancement,
				CustomBitrate:    body.CustomBitrate,
				TargetFPS:        targetFPS,
			},
		}

		result2, err := h.Manager.Submit(tr)
		if err != nil {
			log.LogError(requestID, "submit transform rejected", err, "video_url", body.VideoURL)
			clipErrors.WriteHTTPPipelineError(w, err)
			return
		}

		base := requestBaseURL(req)
		resp := SubmitTransformResponse{
			Success:       true,
			VideoID:       result2.PublicID,
			State:         result2.State,
			DownloadURL:   base + "/api/download/" + result2.PublicID,
			VideoURL:      base + "/api/video/" + result2.PublicID,
			StatusURL:     base + "/api/status/" + result2.PublicID,
			EstimatedTime: estimatedSeconds(tr),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.LogError(requestID, "failed to encode submit transform response", err)
		}
	}
}

// estimatedSeconds is a rough, non-authoritative duration hint (§6
// "estimated_time"): the advanced pipeline runs a fallback ladder of passes
// and costs more than the single-pass simple pipeline.
func estimatedSeconds(tr job.TransformRequest) int {
	if tr.Options.UsesAdvancedPipeline() {
		return 90
	}
	return 30
}

// requestBaseURL reconstructs scheme://host from req, honoring a reverse
// proxy's X-Forwarded-Proto when present.
func requestBaseURL(req *http.Request) string {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + req.Host
}
