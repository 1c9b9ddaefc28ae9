package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/requests"
)

// StatusResponse is the §6 "poll status" payload.
type StatusResponse struct {
	VideoID        string  `json:"video_id"`
	State          string  `json:"state"`
	Quality        string  `json:"quality"`
	CreatedAt      string  `json:"created_at"`
	Ready          bool    `json:"ready"`
	Message        string  `json:"message,omitempty"`
	Error          string  `json:"error,omitempty"`
	FileSizeBytes  int64   `json:"file_size,omitempty"`
	ConversionTime float64 `json:"conversion_time,omitempty"`
}

// Status implements "poll status" (§6): direct lookup by video_id, 404 when
// unknown.
func (h *Handlers) Status() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		requestID := requests.GetRequestId(req)
		videoID := params.ByName("video_id")

		s, ok := h.Manager.Status(videoID)
		if !ok {
			clipErrors.WriteHTTPNotFound(w, "unknown video id", nil)
			return
		}

		resp := StatusResponse{
			VideoID:        s.PublicID,
			State:          string(s.State),
			Quality:        s.Quality,
			CreatedAt:      s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Ready:          s.Ready,
			Message:        s.Message,
			Error:          s.Error,
			FileSizeBytes:  s.FileSizeBytes,
			ConversionTime: s.ConversionTime.Seconds(),
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.LogError(requestID, "failed to encode status response", err)
		}
	}
}
