package viral

import (
	"math"
	"strings"

	"github.com/reelify/clip-engine/metrics"
)

// Segment is one time-aligned transcript window a clip is broken into for
// grading — the same shape the Highlight Analyzer's Phase 2 produces, kept
// separate here so viral/ has no import-time dependency on highlight/.
type Segment struct {
	Start, End float64
	Text       string
}

// Score implements §4.4's whole Viral Scorer: six orthogonal factors, their
// weighted virality_coefficient, a recommendation tier, and optimal_cut_points
// from the segment energy curve.
func Score(segments []Segment, duration float64) Metrics {
	fullText := joinSegments(segments)
	words := strings.Fields(fullText)
	wordCount := len(words)

	m := Metrics{}
	m.EmotionalImpact = emotionalImpact(fullText, wordCount, segments)
	m.Memorability = memorability(fullText, wordCount)
	m.Shareability = shareability(fullText, wordCount)
	m.EngagementPotential = engagementPotential(fullText, wordCount)
	m.HookStrength = hookStrength(segments)
	m.RetentionProbability = retentionProbability(segments, duration)

	m.ViralityCoefficient = viralityCoefficient(m)
	m.Recommendation = classifyTier(m.ViralityCoefficient)
	m.OptimalCutPoints = identifyOptimalCuts(segments)

	metrics.Metrics.ViralScoreDistribution.Observe(m.ViralityCoefficient)
	return m
}

func joinSegments(segments []Segment) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = s.Text
	}
	return strings.Join(parts, " ")
}

func density(matches, wordCount int) float64 {
	if wordCount == 0 {
		return 0
	}
	return math.Min(1.0, float64(matches)/float64(wordCount)*10)
}

// emotionalImpact: intensity-pattern density normalized by word count,
// boosted by how much the per-segment energy varies (high variance means the
// clip swings between flat and intense, a stronger signal than uniform
// intensity).
func emotionalImpact(text string, wordCount int, segments []Segment) float64 {
	base := density(matchCount(intensityPatterns, text), wordCount)
	variance := energyVariance(segments)
	return math.Min(1.0, base*(1+variance*0.5))
}

func energyVariance(segments []Segment) float64 {
	if len(segments) < 2 {
		return 0
	}
	energies := make([]float64, len(segments))
	var sum float64
	for i, s := range segments {
		energies[i] = segmentEnergy(s.Text)
		sum += energies[i]
	}
	mean := sum / float64(len(energies))
	var variance float64
	for _, e := range energies {
		d := e - mean
		variance += d * d
	}
	variance /= float64(len(energies))
	return math.Min(1.0, variance*4)
}

func memorability(text string, wordCount int) float64 {
	return density(matchCount(memorabilityPatterns, text), wordCount)
}

func shareability(text string, wordCount int) float64 {
	return density(matchCount(shareTriggerPatterns, text), wordCount)
}

func engagementPotential(text string, wordCount int) float64 {
	base := density(matchCount(engagementPatterns, text), wordCount)
	if conversationalStructureCount(text) >= 2 {
		base = math.Min(1.0, base*1.3)
	}
	return base
}

func conversationalStructureCount(text string) int {
	hits := 0
	for _, re := range conversationalStructurePatterns {
		if re.MatchString(text) {
			hits++
		}
	}
	return hits
}

// hookStrength grades only the first five seconds of transcript against the
// hook + curiosity-booster families (§4.4 "hook_strength from first-5-seconds
// text").
func hookStrength(segments []Segment) float64 {
	firstFive := textWithinWindow(segments, 0, 5)
	words := strings.Fields(firstFive)
	if len(words) == 0 {
		return 0
	}
	hooks := matchCount(hookPatterns, firstFive)
	curiosity := matchCount(curiosityBoosterPatterns, firstFive)
	return math.Min(1.0, float64(hooks)*0.4+float64(curiosity)*0.3)
}

func textWithinWindow(segments []Segment, start, end float64) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Start < end && s.End > start {
			b.WriteString(s.Text)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

// retentionProbability combines how close the clip sits to the optimal
// duration band, what fraction of its segments carry above-average energy,
// and narrative-tension density (§4.4 "duration ..., distribution of
// interesting segments, and narrative-tension density").
func retentionProbability(segments []Segment, duration float64) float64 {
	durationScore := durationRetentionScore(duration)
	interesting := interestingSegmentRatio(segments)
	tension := density(matchCount(tensionPatterns, joinSegments(segments)), countWords(segments))
	return math.Min(1.0, durationScore*0.5+interesting*0.3+tension*0.2)
}

func countWords(segments []Segment) int {
	return len(strings.Fields(joinSegments(segments)))
}

const (
	optimalRetentionMin = 15.0
	optimalRetentionMax = 45.0
)

func durationRetentionScore(duration float64) float64 {
	switch {
	case duration >= optimalRetentionMin && duration <= optimalRetentionMax:
		return 1.0
	case duration < optimalRetentionMin:
		if optimalRetentionMin <= 0 {
			return 0
		}
		return math.Max(0, duration/optimalRetentionMin)
	default:
		excess := duration - optimalRetentionMax
		return math.Max(0, 1.0-excess/optimalRetentionMax)
	}
}

func interestingSegmentRatio(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	interesting := 0
	for _, s := range segments {
		if segmentEnergy(s.Text) > 0.4 {
			interesting++
		}
	}
	return float64(interesting) / float64(len(segments))
}

// viralityCoefficient implements §4.4's weighted sum and synergy multipliers.
func viralityCoefficient(m Metrics) float64 {
	weighted := 0.25*m.HookStrength + 0.20*m.EmotionalImpact + 0.20*m.Shareability +
		0.15*m.EngagementPotential + 0.10*m.Memorability + 0.10*m.RetentionProbability

	if m.HookStrength > 0.7 && m.EmotionalImpact > 0.6 {
		weighted *= 1.3
	}
	if m.Shareability > 0.6 && m.EngagementPotential > 0.6 {
		weighted *= 1.2
	}

	below := 0
	for _, v := range []float64{m.HookStrength, m.EmotionalImpact, m.Shareability} {
		if v < 0.3 {
			below++
		}
	}
	if below >= 2 {
		weighted *= 0.7
	}

	return math.Min(1.0, weighted)
}
