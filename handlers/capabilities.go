package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/reelify/clip-engine/ffmpeg"
	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/requests"
)

// Capabilities implements "get FFmpeg capabilities" (§6): no error response,
// binary absence only downgrades availability flags.
func (h *Handlers) Capabilities() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		requestID := requests.GetRequestId(req)

		c := ffmpeg.ProbeCapabilities(req.Context())

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(c); err != nil {
			log.LogError(requestID, "failed to encode capabilities response", err)
		}
	}
}
