// Package errors defines the typed error taxonomy used throughout the
// transformation pipeline (§7 of the design). Every error kind implements
// error and carries the HTTP status an inbound adapter should map it to.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/reelify/clip-engine/log"
	"github.com/xeipuuv/gojsonschema"
)

// Kind is the closed set of error categories a pipeline operation can fail with.
type Kind string

const (
	UnavailableDependency Kind = "unavailable_dependency"
	InvalidInput          Kind = "invalid_input"
	NotFound              Kind = "not_found"
	DownloadError         Kind = "download_error"
	ConversionError       Kind = "conversion_error"
	TranscriptionError    Kind = "transcription_error"
	RemoteReasoningError  Kind = "remote_reasoning_error"
	TimeoutError          Kind = "timeout_error"
)

// httpStatus is the default HTTP status for each kind; individual operations
// may override it (e.g. the download handler answers an errored job with 400).
var httpStatus = map[Kind]int{
	UnavailableDependency: http.StatusInternalServerError,
	InvalidInput:          http.StatusBadRequest,
	NotFound:              http.StatusNotFound,
	DownloadError:         http.StatusInternalServerError,
	ConversionError:       http.StatusInternalServerError,
	TranscriptionError:    http.StatusInternalServerError,
	RemoteReasoningError:  http.StatusInternalServerError,
	TimeoutError:          http.StatusGatewayTimeout,
}

// PipelineError is the typed error returned from any pipeline stage. The Job
// Manager's single choke point translates it into a Job's terminal `error`
// state and a short/long message pair; inbound adapters translate it into an
// HTTP response.
type PipelineError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

func (e *PipelineError) Status() int {
	if s, ok := httpStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(kind Kind, msg string, cause error) *PipelineError {
	return &PipelineError{Kind: kind, Msg: msg, Err: cause}
}

func Newf(kind Kind, cause error, format string, args ...interface{}) *PipelineError {
	return &PipelineError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// Is reports whether err is a PipelineError of the given kind.
func Is(err error, kind Kind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

type APIError struct {
	Msg    string `json:"message"`
	Status int    `json:"status"`
	Err    error  `json:"-"`
}

func writeHttpError(w http.ResponseWriter, msg string, status int, err error) APIError {
	w.WriteHeader(status)

	var errorDetail string
	if err != nil {
		errorDetail = err.Error()
	}

	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg, "error_detail": errorDetail}); err != nil {
		log.LogNoRequestID("error writing HTTP error", "http_error_msg", msg, "error", err)
	}
	return APIError{msg, status, err}
}

func WriteHTTPBadRequest(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusBadRequest, err)
}

func WriteHTTPUnsupportedMediaType(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusUnsupportedMediaType, err)
}

func WriteHTTPNotFound(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusNotFound, err)
}

func WriteHTTPTooManyRequests(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusTooManyRequests, err)
}

func WriteHTTPInternalServerError(w http.ResponseWriter, msg string, err error) APIError {
	return writeHttpError(w, msg, http.StatusInternalServerError, err)
}

// WriteHTTPPipelineError maps a PipelineError (or any error) to its HTTP
// representation via the status table above, falling back to 500.
func WriteHTTPPipelineError(w http.ResponseWriter, err error) APIError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return writeHttpError(w, pe.Msg, pe.Status(), pe.Err)
	}
	return writeHttpError(w, err.Error(), http.StatusInternalServerError, nil)
}

func WriteHTTPBadBodySchema(where string, w http.ResponseWriter, errs []gojsonschema.ResultError) APIError {
	sb := strings.Builder{}
	sb.WriteString("Body validation error in ")
	sb.WriteString(where)
	sb.WriteString(" ")
	for i := 0; i < len(errs); i++ {
		sb.WriteString(errs[i].String())
		sb.WriteString(" ")
	}
	return writeHttpError(w, sb.String(), http.StatusBadRequest, nil)
}

// UnretriableError wraps an error that should never be retried by the
// Download Manager (oversized payload, malformed URL) as opposed to a
// transient network failure.
type UnretriableError struct{ error }

func Unretriable(err error) error {
	return UnretriableError{err}
}

func (e UnretriableError) Unwrap() error {
	return e.error
}

func IsUnretriable(err error) bool {
	return errors.As(err, &UnretriableError{})
}
