package job

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
)

// normalizeURL drops the query string and fragment before fingerprinting or
// deriving a public id, so tracking/signed-URL decoration (utm_* campaign
// tags, CDN tokens) never produces a second Job for the same source video.
// Mirrors extract_filename_from_url's unconditional `.split('?')[0]`.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// PublicID derives the externally visible id (§3 "Public id stability"): a
// clean, deterministic hash of the normalized source URL, independent of any
// processing options.
func PublicID(videoURL string) string {
	sum := sha256.Sum256([]byte(normalizeURL(videoURL)))
	return hex.EncodeToString(sum[:])[:16]
}

// SafeFilename extracts a filesystem-safe basename from a URL, grounded on
// file_utils.py's extract_filename_from_url: use the final path segment with
// its query/fragment and extension stripped, falling back to a hash of the
// normalized URL when the path has no usable basename (root path, trailing
// slash, empty segment).
func SafeFilename(videoURL string) string {
	u, err := url.Parse(videoURL)
	if err == nil && u.Path != "" && u.Path != "/" {
		base := path.Base(u.Path)
		if base != "" && base != "." && base != "/" {
			if ext := path.Ext(base); ext != "" {
				base = strings.TrimSuffix(base, ext)
			}
			if base != "" {
				return base
			}
		}
	}
	return "video_" + PublicID(videoURL)[:12]
}

// optionTokens flattens every processing-affecting field into a sorted,
// stable token set (§9 Open Questions: the cache key is widened to include
// every numeric option that affects the ffmpeg invocation, not just the
// boolean flags the origin service keyed on).
func optionTokens(quality string, opts TransformOptions) []string {
	tokens := []string{"quality=" + quality}
	if opts.Split {
		tokens = append(tokens, "split=1")
	}
	if opts.Denoise {
		tokens = append(tokens, "denoise=1")
	}
	if opts.SharpenStrength != 0 {
		tokens = append(tokens, "sharpen="+formatFloat(opts.SharpenStrength))
	}
	if opts.Brightness != 0 {
		tokens = append(tokens, "brightness="+formatFloat(opts.Brightness))
	}
	if opts.Contrast != 0 {
		tokens = append(tokens, "contrast="+formatFloat(opts.Contrast))
	}
	if opts.Saturation != 0 {
		tokens = append(tokens, "saturation="+formatFloat(opts.Saturation))
	}
	if opts.Gamma != 0 {
		tokens = append(tokens, "gamma="+formatFloat(opts.Gamma))
	}
	if opts.AddSubtitles {
		tokens = append(tokens, "subtitles=1")
		if opts.SubtitleLanguage != "" {
			tokens = append(tokens, "subtitle_language="+opts.SubtitleLanguage)
		}
	}
	if opts.AudioEnhancement {
		tokens = append(tokens, "audio_enhancement=1")
	}
	if opts.CustomBitrate != 0 {
		tokens = append(tokens, "custom_bitrate="+strconv.FormatInt(opts.CustomBitrate, 10))
	}
	if opts.TargetFPS != 0 {
		tokens = append(tokens, "target_fps="+strconv.FormatInt(opts.TargetFPS, 10))
	}
	sort.Strings(tokens)
	return tokens
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// Fingerprint derives the data model's JobFingerprint (§3): the normalized
// source URL joined with the sorted option-token set, so two requests for
// the same video with identical processing options collide on one Job while
// different options (even a different crop/filter) dedupe independently.
func Fingerprint(videoURL, quality string, opts TransformOptions) string {
	base := normalizeURL(videoURL)
	tokens := optionTokens(quality, opts)
	sum := sha256.Sum256([]byte(base + "|" + strings.Join(tokens, ",")))
	return hex.EncodeToString(sum[:])
}
