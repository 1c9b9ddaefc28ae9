package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/job"
	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/requests"
)

// Inline implements "inline output" (§6): 404 for any non-completed state,
// so an unauthenticated player never observes a partial job; Accept-Ranges/
// Cache-Control headers let browsers seek and cache the finished clip.
func (h *Handlers) Inline() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		requestID := requests.GetRequestId(req)
		videoID := params.ByName("video_id")

		path, err := h.Manager.Inline(videoID)
		if err != nil {
			clipErrors.WriteHTTPNotFound(w, "video not ready", err)
			return
		}

		f, size, err := job.StreamOutput(path)
		if err != nil {
			clipErrors.WriteHTTPNotFound(w, "video not ready", err)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		if _, err := io.Copy(w, f); err != nil {
			log.LogError(requestID, "failed streaming inline output", err, "video_id", videoID)
		}
	}
}
