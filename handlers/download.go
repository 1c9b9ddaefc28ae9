package handlers

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	clipErrors "github.com/reelify/clip-engine/errors"
	"github.com/reelify/clip-engine/job"
	"github.com/reelify/clip-engine/log"
	"github.com/reelify/clip-engine/requests"
)

// Download implements "download output" (§6): 400 when the job errored, 202
// while it's still in flight, 404 when the id or its output file is
// missing, octet stream with a Content-Disposition attachment header
// otherwise.
func (h *Handlers) Download() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, params httprouter.Params) {
		requestID := requests.GetRequestId(req)
		videoID := params.ByName("video_id")

		s, ok := h.Manager.Status(videoID)
		if !ok {
			clipErrors.WriteHTTPNotFound(w, "unknown video id", nil)
			return
		}
		switch s.State {
		case job.StateError:
			clipErrors.WriteHTTPBadRequest(w, s.Error, nil)
			return
		case job.StateCompleted:
			// fall through to streaming below
		default:
			w.WriteHeader(http.StatusAccepted)
			return
		}

		path, filename, err := h.Manager.Download(videoID)
		if err != nil {
			clipErrors.WriteHTTPNotFound(w, "output file missing", err)
			return
		}

		f, size, err := job.StreamOutput(path)
		if err != nil {
			clipErrors.WriteHTTPNotFound(w, "output file missing", err)
			return
		}
		defer f.Close()

		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		if _, err := io.Copy(w, f); err != nil {
			log.LogError(requestID, "failed streaming download output", err, "video_id", videoID)
		}
	}
}
