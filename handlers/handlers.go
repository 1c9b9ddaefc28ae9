// Package handlers binds the §6 public operations to thin net/http +
// httprouter handlers, grounded on the teacher's handlers.go (empty
// collection struct + pointer-receiver handle methods + inline
// gojsonschema validation).
package handlers

import (
	"mime"
	"net/http"
	"strings"

	"github.com/reelify/clip-engine/ffmpeg"
	"github.com/reelify/clip-engine/highlight"
	"github.com/reelify/clip-engine/job"
	"github.com/reelify/clip-engine/video"
)

// Prober abstracts the FFmpeg Driver's probe step for the two optional
// clip-AI operations, the same way job.Prober decouples the Job Manager's
// worker from a real ffprobe subprocess in tests.
type Prober interface {
	Probe(requestID, path string) (video.Info, error)
}

type realProber struct{}

func (realProber) Probe(requestID, path string) (video.Info, error) {
	return ffmpeg.Probe(requestID, path)
}

// Handlers is the process-wide handler collection, holding exactly the
// dependencies the §6 operations need: the Job Manager for submit/status/
// download/inline, and the analyzer wiring for the two optional clip-AI
// operations.
type Handlers struct {
	Manager *job.Manager

	Transcriber highlight.Transcriber
	Reasoner    highlight.Reasoner
	ClipOptions highlight.Options
	Prober      Prober

	// DownloadClip fetches url to a temp file and returns its path; used by
	// the optional clip-generation and viral-selection operations, which
	// take a source URL directly rather than an already-submitted job.
	DownloadClip func(requestID, url string) (path string, cleanup func(), err error)
}

// New constructs a Handlers bound to m and the optional analyzer
// dependencies; Transcriber/Reasoner may be nil when the deployment has no
// speech-to-text/reasoning backend configured, in which case the optional
// clip-generation operation degrades to FallbackHighlights.
func New(m *job.Manager, tr highlight.Transcriber, reasoner highlight.Reasoner, downloadClip func(requestID, url string) (string, func(), error)) *Handlers {
	return &Handlers{
		Manager:      m,
		Transcriber:  tr,
		Reasoner:     reasoner,
		ClipOptions:  highlight.DefaultOptions(),
		Prober:       realProber{},
		DownloadClip: downloadClip,
	}
}

// HasContentType reports whether req carries mimetype among its
// Content-Type header values (teacher's handlers.go helper).
func HasContentType(r *http.Request, mimetype string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return mimetype == "application/octet-stream"
	}
	for _, v := range strings.Split(contentType, ",") {
		t, _, err := mime.ParseMediaType(v)
		if err != nil {
			break
		}
		if t == mimetype {
			return true
		}
	}
	return false
}
