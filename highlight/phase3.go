package highlight

import (
	"math"
	"strings"

	"github.com/reelify/clip-engine/clients"
)

// promptPreamble is the Spanish-language instruction template submitted to
// the configured reasoning endpoint, grounded on
// deepseek_analyzer.py#_analyze_with_deepseek's prompt: it enumerates each
// transcribed segment and demands a strict JSON object back.
const promptPreamble = `Eres un analista de contenido viral. A continuación se listan fragmentos transcritos de un video, cada uno identificado por su índice de segmento y ventana de tiempo.

Identifica los momentos con mayor potencial de "highlight" y responde ÚNICAMENTE con un objeto JSON de la forma:
{"highlights": [{"segment_index": <int>, "score": <0-1>, "reason": "<texto>", "start_time": <segundos o "mm:ss">, "end_time": <segundos o "mm:ss">, "optimal_duration": <segundos, opcional>, "viral_category": "<texto>", "duration_rationale": "<texto>"}]}

Segmentos:
`

func buildPrompt(lines []string) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	return b.String()
}

// optimalOrDuration resolves whichever of optimal_duration/duration the
// reasoning model populated, preferring optimal_duration.
func optimalOrDuration(rc clients.ReasoningCandidate) float64 {
	if d, ok := clients.ParseTimeToSeconds(rc.OptimalDuration); ok && d > 0 {
		return d
	}
	if d, ok := clients.ParseTimeToSeconds(rc.Duration); ok && d > 0 {
		return d
	}
	return 0
}

// mapCandidate implements §4.3 Phase 3's time-mapping: direct start/end when
// both parse, else a duration centered on the segment midpoint, else the
// segment's own bounds; clamps to [0, videoDuration] and symmetrically
// expands windows under the absolute minimum.
func mapCandidate(rc clients.ReasoningCandidate, segment [2]float64, videoDuration, absMinDuration float64) Candidate {
	start, hasStart := clients.ParseTimeToSeconds(rc.StartTime)
	end, hasEnd := clients.ParseTimeToSeconds(rc.EndTime)

	optimalDuration := optimalOrDuration(rc)

	switch {
	case hasStart && hasEnd && end > start:
		// direct mapping, nothing further to derive.
	case optimalDuration > 0:
		mid := (segment[0] + segment[1]) / 2
		start = mid - optimalDuration/2
		end = mid + optimalDuration/2
	default:
		start, end = segment[0], segment[1]
	}

	start = math.Max(0, start)
	end = math.Min(videoDuration, end)
	if end <= start {
		end = math.Min(videoDuration, start+absMinDuration)
	}
	if end-start < absMinDuration {
		deficit := absMinDuration - (end - start)
		start = math.Max(0, start-deficit/2)
		end = math.Min(videoDuration, start+absMinDuration)
		start = math.Max(0, end-absMinDuration)
	}

	return Candidate{
		Start:           start,
		End:             end,
		BaseScore:       rc.Score,
		Reason:          rc.Reason,
		ViralCategory:   rc.ViralCategory,
		DurationReason:  rc.DurationRationale,
		SegmentIndex:    rc.SegmentIndex,
		OptimalDuration: optimalDuration,
	}
}
