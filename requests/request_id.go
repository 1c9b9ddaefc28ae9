package requests

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const requestIDParam = "requestID"

func GetRequestId(req *http.Request) string {
	requestID := req.Header.Get(requestIDParam)
	if requestID != "" {
		return requestID
	}
	requestID = strings.Split(uuid.NewString(), "-")[0]
	req.Header.Set(requestIDParam, requestID)
	return requestID
}
