package highlight

import (
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// deterministicJitter implements deepseek_analyzer.py#_deterministic_jitter's
// linear congruential generator, seeded from index so the same candidate
// index always produces the same jitter across a run (§8 "Duration jitter").
func deterministicJitter(index int) float64 {
	const a, c = uint64(1664525), uint64(1013904223)
	const m = uint64(1) << 32
	seed := uint64(index+1) * 9781 % m
	seed = (a*seed + c) % m
	return float64(seed) / float64(m)
}

// hashJitterPct derives a deterministic ±maxAbs/100 jitter fraction from an
// arbitrary set of float inputs, standing in for the source analyzer's
// `hash(tuple(...)) % span` offsets: a stable, repeatable spread rather than
// a bit-exact replica of Python's string/tuple hash.
func hashJitterPct(maxAbs int, values ...float64) float64 {
	h := fnv.New64a()
	for _, v := range values {
		fmt.Fprintf(h, "%.3f|", v)
	}
	span := 2*maxAbs + 1
	n := int(h.Sum64()%uint64(span)) - maxAbs
	return float64(n) / 100.0
}

var suggestedDurationRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:s|seg(?:undos)?)\b`)

// extractSuggestedDuration pulls an explicit duration out of a candidate's
// reason text when the reasoning model embedded one there instead of (or in
// addition to) the dedicated duration field.
func extractSuggestedDuration(reason string) (float64, bool) {
	m := suggestedDurationRe.FindStringSubmatch(reason)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// computeCandidateDuration implements _compute_candidate_duration: prefer a
// duration suggested in the candidate's own reason text, else normalize its
// words-per-second to a ~3.0 target, else fall back to the optimal range's
// midpoint; applies a deterministic ±5% jitter for output diversity.
func computeCandidateDuration(c Candidate, optimalMin, optimalMax, absMin, absMax float64) float64 {
	target, ok := extractSuggestedDuration(c.Reason)
	if !ok {
		words := len(strings.Fields(c.Transcription))
		if words > 0 {
			target = float64(words) / 3.0
		} else {
			target = (optimalMin + optimalMax) / 2
		}
	}

	jitter := hashJitterPct(5, c.Start, c.End)
	target *= 1 + jitter
	return math.Max(absMin, math.Min(absMax, target))
}

// assignDuration implements the §4.3 "Duration assignment" step: when the
// remote model supplied optimal_duration, center and clamp it (with a
// separate ±8% jitter); otherwise derive a target via
// computeCandidateDuration. Final bounds are clamped to [0, videoDuration].
func assignDuration(c Candidate, absMin, absMax, optimalMin, optimalMax, videoDuration float64) (start, end float64) {
	mid := (c.Start + c.End) / 2

	var duration float64
	if c.OptimalDuration > 0 {
		duration = c.OptimalDuration
		jitter := (deterministicJitter(int(mid*1000)) - 0.5) * 0.16
		duration = math.Max(absMin, math.Min(absMax, duration*(1+jitter)))
	} else {
		duration = computeCandidateDuration(c, optimalMin, optimalMax, absMin, absMax)
	}

	start = mid - duration/2
	end = mid + duration/2
	start = math.Max(0, start)
	end = math.Min(videoDuration, end)
	if end-start < absMin {
		deficit := absMin - (end - start)
		start = math.Max(0, start-deficit/2)
		end = math.Min(videoDuration, start+absMin)
		start = math.Max(0, end-absMin)
	}
	return start, end
}
