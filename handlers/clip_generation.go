package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/xeipuuv/gojsonschema"

	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/highlight"
	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/requests"
)

// ClipGenerationRequest is the optional initial-clip-generation body (§6).
type ClipGenerationRequest struct {
	VideoURL string `json:"video_url"`
}

// ClipPayload is one entry of the §6 "clips" response array.
type ClipPayload struct {
	URL      string  `json:"url,omitempty"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
	AIScore  float64 `json:"ai_score"`
	AIReason string  `json:"ai_reason"`
}

// ClipGenerationResponse is the §6 "initial-clip generation" payload.
type ClipGenerationResponse struct {
	Status             string        `json:"status"`
	Clips              []ClipPayload `json:"clips"`
	AnalysisMethod     string        `json:"analysis_method"`
	TotalVideoDuration float64       `json:"total_video_duration"`
}

// ClipGeneration implements the optional "initial-clip generation" operation
// (§6): downloads the source video, runs the Highlight Analyzer (§4.3), and
// returns the accepted windows. With no Transcriber/Reasoner configured this
// degrades to the no-remote-endpoint fallback distribution.
func (h *Handlers) ClipGeneration() httprouter.Handle {
	schema := inputSchemasCompiled["ClipGeneration"]

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
			clipErrors.WriteHTTPBadBodySchema("ClipGeneration", w, result.Errors())
			return
		}

		var body ClipGenerationRequest
		if err := json.Unmarshal(payload, &body); err != nil {
			clipErrors.WriteHTTPBadRequest(w, "invalid request payload", err)
			return
		}
		if h.DownloadClip == nil {
			clipErrors.WriteHTTPInternalServerError(w, "clip generation is not configured", nil)
			return
		}

		videoPath, cleanup, err := h.DownloadClip(requestID, body.VideoURL)
		if err != nil {
			clipErrors.WriteHTTPBadRequest(w, "could not fetch video_url", err)
			return
		}
		if cleanup != nil {
			defer cleanup()
		}

		info, err := h.Prober.Probe(requestID, videoPath)
		if err != nil {
			clipErrors.WriteHTTPInternalServerError(w, "failed to probe downloaded video", err)
			return
		}

		analysisMethod := "fallback_distribution"
		var highlights []highlight.Highlight
		if h.Transcriber != nil && h.Reasoner != nil {
			highlights, err = highlight.Analyze(req.Context(), requestID, videoPath, info.DurationS, h.Transcriber, h.Reasoner, h.ClipOptions)
			if err != nil {
				clipErrors.WriteHTTPInternalServerError(w, "highlight analysis failed", err)
				return
			}
			analysisMethod = "remote_reasoning"
		} else {
			highlights = highlight.FallbackHighlights(info.DurationS, h.ClipOptions.MaxClipsPerVideo,
				h.ClipOptions.OptimalDurationMin, h.ClipOptions.OptimalDurationMax,
				h.ClipOptions.AbsoluteMinDuration, h.ClipOptions.AbsoluteMaxDuration)
		}

		clips := make([]ClipPayload, 0, len(highlights))
		for _, hl := range highlights {
			clips = append(clips, ClipPayload{
				Start:    hl.Start,
				End:      hl.End,
				Duration: hl.Duration(),
				AIScore:  hl.FinalScore,
				AIReason: hl.Reason,
			})
		}

		resp := ClipGenerationResponse{
			Status:             "completed",
			Clips:              clips,
			AnalysisMethod:     analysisMethod,
			TotalVideoDuration: info.DurationS,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.LogError(requestID, "failed to encode clip generation response", err)
		}
	}
}
