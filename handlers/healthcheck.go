package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/reelify/clip-engine/log"
)

type HealthcheckResponse struct {
	Status string `json:"status"`
}

// Healthcheck returns an HTTP 200 if the process is up; used by a load
// balancer to decide whether to route to this node.
func (h *Handlers) Healthcheck() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		responseObject := HealthcheckResponse{
			Status: "healthy",
		}

		b, err := json.Marshal(responseObject)
		if err != nil {
			log.LogNoRequestID("Failed to marshal healthcheck status: " + err.Error())
			b = []byte(`{"status": "marshalling status failed"}`)
		}

		if _, err := w.Write(b); err != nil {
			log.LogNoRequestID("Failed to write HTTP response for " + req.URL.RawPath)
		}
	}
}
