package ffmpeg

import "strings"

// subtitleStyle mirrors the fixed burn-in style required by §4.2: Arial 16,
// white primary, black outline 2, shadow 1, bottom-centered, margin 40.
const subtitleStyle = "FontName=Arial,FontSize=16,PrimaryColour=&HFFFFFF&,OutlineColour=&H000000&,Outline=2,Shadow=1,Alignment=2,MarginV=40"

// subtitlesFilterArg normalizes an SRT path into the subtitles filter's
// quoted, forward-slash, colon-escaped argument form. Per the filter-graph
// invariant, if normalization can't produce a safe argument (empty or
// contains a single quote that would break escaping), ok is false and the
// caller drops the subtitle branch rather than emit a haphazardly-escaped one.
func subtitlesFilterArg(srtPath string) (arg string, ok bool) {
	if srtPath == "" {
		return "", false
	}
	if strings.ContainsRune(srtPath, '\'') {
		return "", false
	}
	normalized := strings.ReplaceAll(srtPath, "\\", "/")
	// FFmpeg filter arguments use ':' as a kv separator, so a literal ':' in
	// a Windows drive letter (or elsewhere) must be escaped.
	normalized = strings.ReplaceAll(normalized, ":", "\\:")
	return "subtitles='" + normalized + "':force_style='" + subtitleStyle + "'", true
}
