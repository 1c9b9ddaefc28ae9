package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/xeipuuv/gojsonschema"

	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/requests"
	"github.com/reelify/clip-engine/viral"
)

// ViralSelectionRequest is the optional viral-selection body (§6): a list of
// already-cut clip URLs to grade.
type ViralSelectionRequest struct {
	Clips []struct {
		URL string `json:"url"`
	} `json:"clips"`
}

// ViralClipPayload is one entry of the §6 "viral_clips" response array.
type ViralClipPayload struct {
	URL        string   `json:"url"`
	Keywords   []string `json:"keywords"`
	Duration   float64  `json:"duration"`
	ViralScore float64  `json:"viral_score"`
	Transcript string   `json:"transcript"`
}

// ViralSelectionResponse is the §6 "viral selection" payload.
type ViralSelectionResponse struct {
	Status     string             `json:"status"`
	ViralClips []ViralClipPayload `json:"viral_clips"`
}

// ViralSelection implements the optional "viral selection" operation (§6):
// downloads each candidate clip, transcribes it whole, grades it with the
// Viral Scorer (§4.4), and returns every clip graded (clips that fail to
// download or probe are dropped rather than failing the whole request,
// since one bad URL in a batch shouldn't sink the rest).
func (h *Handlers) ViralSelection() httprouter.Handle {
	schema := inputSchemasCompiled["ViralSelection"]

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
			clipErrors.WriteHTTPBadBodySchema("ViralSelection", w, result.Errors())
			return
		}

		var body ViralSelectionRequest
		if err := json.Unmarshal(payload, &body); err != nil {
			clipErrors.WriteHTTPBadRequest(w, "invalid request payload", err)
			return
		}
		if h.DownloadClip == nil {
			clipErrors.WriteHTTPInternalServerError(w, "viral selection is not configured", nil)
			return
		}

		viralClips := make([]ViralClipPayload, 0, len(body.Clips))
		for _, c := range body.Clips {
			graded, ok := h.gradeOneClip(req, requestID, c.URL)
			if ok {
				viralClips = append(viralClips, graded)
			}
		}

		resp := ViralSelectionResponse{
			Status:     "completed",
			ViralClips: viralClips,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.LogError(requestID, "failed to encode viral selection response", err)
		}
	}
}

func (h *Handlers) gradeOneClip(req *http.Request, requestID, url string) (ViralClipPayload, bool) {
	path, cleanup, err := h.DownloadClip(requestID, url)
	if err != nil {
		log.LogError(requestID, "viral selection: could not fetch clip", err, "url", url)
		return ViralClipPayload{}, false
	}
	if cleanup != nil {
		defer cleanup()
	}

	info, err := h.Prober.Probe(requestID, path)
	if err != nil {
		log.LogError(requestID, "viral selection: could not probe clip", err, "url", url)
		return ViralClipPayload{}, false
	}

	var transcript string
	var segments []viral.Segment
	if h.Transcriber != nil {
		r, err := h.Transcriber.TranscribeSegment(req.Context(), requestID, path, 0, info.DurationS, h.ClipOptions.Language)
		if err == nil && r.Text != "" {
			transcript = r.Text
			segments = append(segments, viral.Segment{Start: 0, End: info.DurationS, Text: r.Text})
		}
	}

	m := viral.Score(segments, info.DurationS)

	return ViralClipPayload{
		URL:        url,
		Keywords:   viral.ExtractKeywords(transcript),
		Duration:   info.DurationS,
		ViralScore: m.ViralityCoefficient,
		Transcript: transcript,
	}, true
}
