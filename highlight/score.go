package highlight

import (
	"math"
	"strings"
)

// Score computes Phase 4's multi-factor scoring in place: emotional_intensity
// and confidence from the weighted regex families, speech_clarity from
// words-per-second plus a vocabulary-diversity bonus, conversation_flow from
// connector density, keyword_density, and the weighted final_score.
func Score(c *Candidate, optimalMin, optimalMax float64) {
	text := c.Transcription
	words := strings.Fields(text)

	emotional, confidence := analyzeEmotionalContent(text)
	c.EmotionalIntensity = emotional
	c.Confidence = confidence
	c.SpeechClarity = speechClarityScore(words, c.duration())
	c.ConversationFlow = conversationFlowScore(text, len(words))
	if c.duration() > 0 {
		c.KeywordDensity = float64(len(words)) / c.duration()
	}

	durationScore := durationOptimalityScore(c.duration(), optimalMin, optimalMax)
	weighted := 0.35*c.BaseScore + 0.25*c.EmotionalIntensity + 0.15*c.SpeechClarity +
		0.15*c.ConversationFlow + 0.10*durationScore
	c.FinalScore = math.Min(1.0, weighted*(1+0.2*c.Confidence))
}

// analyzeEmotionalContent implements deepseek_analyzer.py#_analyze_viral_content:
// a per-category match-and-diversity score, weighted-averaged across
// categories, penalized by anti-viral pattern hits.
func analyzeEmotionalContent(text string) (score, confidence float64) {
	if text == "" {
		return 0, 0
	}

	var weightedScore, totalWeight float64
	var totalMatches int
	for _, cat := range emotionalPatternTable {
		distinct := 0
		raw := 0
		for _, re := range cat.Patterns {
			n := len(re.FindAllStringIndex(text, -1))
			if n > 0 {
				distinct++
				raw += n
			}
		}
		if raw == 0 {
			totalWeight += cat.Weight
			continue
		}
		diversity := float64(distinct) / float64(len(cat.Patterns))
		categoryScore := math.Min(float64(raw)*(1+diversity), 5.0)
		weightedScore += cat.Weight * categoryScore
		totalWeight += cat.Weight
		totalMatches += raw
	}

	var base float64
	if totalWeight > 0 {
		base = weightedScore / totalWeight
	}

	var penalty float64
	for _, re := range antiViralPatterns {
		penalty += float64(len(re.FindAllStringIndex(text, -1))) * 0.3
	}

	score = math.Max(0, base-penalty)
	confidence = math.Min(float64(totalMatches)/3.0, 1.0)
	return score, confidence
}

// speechClarityScore implements deepseek_analyzer.py#_analyze_speech_clarity:
// a taper around the [2.0, 4.0] words-per-second optimum, plus a vocabulary-
// diversity bonus of at most 0.2 added to the base, with the total capped at
// 1.0 (the source's bonus branch
// was unreachable dead code after an early return; this port makes it real,
// per §4.3 Phase 4's explicit "plus a vocabulary-diversity bonus").
func speechClarityScore(words []string, duration float64) float64 {
	if duration <= 0 || len(words) == 0 {
		return 0
	}
	const minWPS, maxWPS = 2.0, 4.0
	wps := float64(len(words)) / duration

	var base float64
	switch {
	case wps >= minWPS && wps <= maxWPS:
		base = 1.0
	case wps < minWPS:
		base = math.Max(0, wps/minWPS)
	default:
		excess := wps - maxWPS
		base = math.Max(0, 1.0-excess/maxWPS)
	}

	return math.Min(1.0, base+vocabularyDiversityBonus(words))
}

func vocabularyDiversityBonus(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	unique := make(map[string]struct{}, len(words))
	for _, w := range words {
		unique[strings.ToLower(w)] = struct{}{}
	}
	ratio := float64(len(unique)) / float64(len(words))
	return math.Min(0.2, ratio*0.2)
}

// conversationFlowScore implements _analyze_conversation_flow: density of
// connector/causal/sequence/question/attention-grabber patterns, scaled ×20
// and capped at 1.0.
func conversationFlowScore(text string, wordCount int) float64 {
	if text == "" || wordCount == 0 {
		return 0
	}
	var matches int
	for _, re := range conversationFlowPatterns {
		matches += len(re.FindAllStringIndex(text, -1))
	}
	density := float64(matches) / float64(wordCount)
	return math.Min(1.0, density*20)
}

// durationOptimalityScore is 1.0 inside [optimalMin, optimalMax], tapering
// linearly to 0 outside it.
func durationOptimalityScore(duration, optimalMin, optimalMax float64) float64 {
	switch {
	case duration >= optimalMin && duration <= optimalMax:
		return 1.0
	case duration < optimalMin:
		if optimalMin <= 0 {
			return 0
		}
		return math.Max(0, duration/optimalMin)
	default:
		if optimalMax <= 0 {
			return 0
		}
		excess := duration - optimalMax
		return math.Max(0, 1.0-excess/optimalMax)
	}
}
