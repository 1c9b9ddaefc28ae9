package ffmpeg

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/reelify/clip-engine/config"
)

// Capabilities is the payload for the "get FFmpeg capabilities" operation
// (§6): whether the ffmpeg/whisper binaries are reachable, the codec/filter
// names this driver relies on, a flattened capability map, and a short list
// of human-readable recommendations (e.g. "install libx264" when missing).
type Capabilities struct {
	FFmpegAvailable  bool            `json:"ffmpeg_available"`
	WhisperAvailable bool            `json:"whisper_available"`
	Codecs           map[string]bool `json:"codecs"`
	Filters          map[string]bool `json:"filters"`
	Capabilities     map[string]bool `json:"capabilities"`
	Recommendations  []string        `json:"recommendations"`
}

// requiredCodecs and requiredFilters are the names this driver's convert_*
// operations depend on; ProbeCapabilities reports which are actually present in the
// local ffmpeg build so a deployment missing one can be flagged early
// instead of failing on the first real job.
var (
	requiredCodecs  = []string{"libx264", "aac", "libmp3lame"}
	requiredFilters = []string{"scale", "gblur", "overlay", "hqdn3d", "unsharp", "eq", "subtitles", "acompressor", "alimiter"}
)

// ProbeCapabilities shells out to `ffmpeg -encoders` / `ffmpeg -filters` and
// checks for a binary named "whisper" on PATH, assembling the Capabilities
// payload. Binary absence downgrades
// availability flags rather than erroring — this operation has no error
// response per §6.
func ProbeCapabilities(ctx context.Context) Capabilities {
	c := Capabilities{
		Codecs:       map[string]bool{},
		Filters:      map[string]bool{},
		Capabilities: map[string]bool{},
	}

	encodersOut, err := runCapabilityProbe(ctx, "-hide_banner", "-encoders")
	c.FFmpegAvailable = err == nil
	for _, codec := range requiredCodecs {
		c.Codecs[codec] = c.FFmpegAvailable && strings.Contains(encodersOut, codec)
	}

	filtersOut, _ := runCapabilityProbe(ctx, "-hide_banner", "-filters")
	for _, filter := range requiredFilters {
		c.Filters[filter] = c.FFmpegAvailable && strings.Contains(filtersOut, filter)
	}

	_, whisperErr := exec.LookPath("whisper")
	c.WhisperAvailable = whisperErr == nil

	c.Capabilities["vertical_simple"] = c.Codecs["libx264"] && c.Codecs["aac"]
	c.Capabilities["vertical_optimized"] = c.Capabilities["vertical_simple"] && c.Filters["gblur"] && c.Filters["overlay"]
	c.Capabilities["subtitles"] = c.Filters["subtitles"]
	c.Capabilities["audio_enhancement"] = c.Filters["acompressor"] && c.Filters["alimiter"]
	c.Capabilities["highlight_analysis"] = c.WhisperAvailable

	if !c.FFmpegAvailable {
		c.Recommendations = append(c.Recommendations, "ffmpeg was not found on PATH; no conversion operation can run")
	}
	if c.FFmpegAvailable && !c.Filters["subtitles"] {
		c.Recommendations = append(c.Recommendations, "ffmpeg build lacks libass; subtitle burn-in requests will be dropped")
	}
	if !c.WhisperAvailable {
		c.Recommendations = append(c.Recommendations, "whisper backend (model "+config.WhisperModel+") was not found; highlight analysis falls back to timeline distribution")
	}

	return c
}

func runCapabilityProbe(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "ffmpeg", args...).Output()
	return string(out), err
}

