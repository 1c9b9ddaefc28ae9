package highlight

import (
	"math"
	"sort"
	"strings"
)

const punctuationTrim = ".,!?;:()\"'"

// tokenize implements _text_similarity's token normalization: lowercase,
// whitespace-split, punctuation-stripped word set.
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, punctuationTrim)
		if w != "" {
			tokens[w] = struct{}{}
		}
	}
	return tokens
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if _, ok := b[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// compatible implements §4.3 Phase 5's compatibility definition: two windows
// are compatible if their overlap ratio stays under the Jaccard-scaled
// allowance, or if they're separated by at least min_clip_separation.
func compatible(a, b Candidate, minSeparation float64) bool {
	if a.Start > b.Start {
		a, b = b, a
	}
	overlap := math.Min(a.End, b.End) - math.Max(a.Start, b.Start)
	longer := math.Max(a.duration(), b.duration())
	var overlapRatio float64
	if longer > 0 {
		overlapRatio = math.Max(0, overlap) / longer
	}

	allowedOverlap := 0.5
	if jaccard(tokenize(a.Transcription), tokenize(b.Transcription)) >= 0.6 {
		allowedOverlap = 0.35
	}

	separationOK := (b.Start - a.End) >= minSeparation
	return overlapRatio <= allowedOverlap || separationOK
}

func allCompatible(c Candidate, list []Candidate, minSeparation float64) bool {
	for _, l := range list {
		if !compatible(l, c, minSeparation) {
			return false
		}
	}
	return true
}

func totalScore(cs []Candidate) float64 {
	var sum float64
	for _, c := range cs {
		sum += c.FinalScore
	}
	return sum
}

func filterByThreshold(candidates []Candidate, threshold float64) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.FinalScore >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// relaxedThresholds is the fallback ladder Phase 5 descends when the
// configured threshold yields nothing.
var relaxedThresholds = []float64{0.55, 0.5, 0.45, 0.4, 0.35}

// selectAboveThreshold implements Phase 5's threshold filter, relax ladder,
// and final top-N-by-score fallback. N uses a ceiling (⌈0.5·|candidates|⌉)
// per the spec's literal formula — see DESIGN.md's Open Question decision on
// this, since the grounding source's own top-N fallback truncates instead.
func selectAboveThreshold(all []Candidate, threshold float64) []Candidate {
	if filtered := filterByThreshold(all, threshold); len(filtered) > 0 {
		return filtered
	}
	for _, relaxed := range relaxedThresholds {
		if filtered := filterByThreshold(all, relaxed); len(filtered) > 0 {
			return filtered
		}
	}

	n := len(all)+1
	n = n / 2 // ceil(0.5 * len(all))
	if n < 5 {
		n = 5
	}
	if n > len(all) {
		n = len(all)
	}

	sorted := append([]Candidate(nil), all...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FinalScore > sorted[j].FinalScore })
	return append([]Candidate(nil), sorted[:n]...)
}

// greedySelect implements Phase 5's greedy pass: sort by final_score desc,
// admit any candidate compatible with everything already selected, up to a
// dynamic cap.
func greedySelect(candidates []Candidate, maxClips int, minSeparation float64) ([]Candidate, float64) {
	sorted := append([]Candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].FinalScore > sorted[j].FinalScore })

	limit := len(candidates)
	if limit < 5 {
		limit = 5
	}
	if limit > maxClips {
		limit = maxClips
	}

	selected := make([]Candidate, 0, limit)
	for _, c := range sorted {
		if len(selected) >= limit {
			break
		}
		if allCompatible(c, selected, minSeparation) {
			selected = append(selected, c)
		}
	}
	sort.Slice(selected, func(i, j int) bool { return selected[i].Start < selected[j].Start })
	return selected, totalScore(selected)
}

type dpCell struct {
	score float64
	list  []Candidate
}

// dpOptimalSelection implements Phase 5's DP pass: dp[i][k] is the best
// (score, list) achievable using the first i chronologically-sorted
// candidates while selecting at most k, where the transition score subtracts
// a similarity penalty against every already-selected clip and adds a
// diversity bonus for the new clip's unseen vocabulary.
func dpOptimalSelection(candidates []Candidate, maxClips int, minSeparation float64) ([]Candidate, float64) {
	n := len(candidates)
	sorted := append([]Candidate(nil), candidates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	dp := make([][]dpCell, n+1)
	for i := range dp {
		dp[i] = make([]dpCell, maxClips+1)
	}

	for i := 1; i <= n; i++ {
		cand := sorted[i-1]
		for k := 0; k <= maxClips; k++ {
			best := dp[i-1][k]
			if k > 0 {
				prev := dp[i-1][k-1]
				if allCompatible(cand, prev.list, minSeparation) {
					score := prev.score + cand.FinalScore - 0.15*sumSimilarity(cand, prev.list) + diversityBonus(cand, prev.list)
					if score > best.score {
						newList := append(append([]Candidate(nil), prev.list...), cand)
						best = dpCell{score: score, list: newList}
					}
				}
			}
			dp[i][k] = best
		}
	}

	best := dp[n][0]
	for k := 1; k <= maxClips; k++ {
		if dp[n][k].score > best.score {
			best = dp[n][k]
		}
	}

	result := append([]Candidate(nil), best.list...)
	sort.Slice(result, func(i, j int) bool { return result[i].Start < result[j].Start })
	return result, best.score
}

func sumSimilarity(c Candidate, list []Candidate) float64 {
	ct := tokenize(c.Transcription)
	var sum float64
	for _, l := range list {
		sum += jaccard(tokenize(l.Transcription), ct)
	}
	return sum
}

func diversityBonus(c Candidate, list []Candidate) float64 {
	ct := tokenize(c.Transcription)
	union := make(map[string]struct{})
	for _, l := range list {
		for t := range tokenize(l.Transcription) {
			union[t] = struct{}{}
		}
	}
	newTokens := 0
	for t := range ct {
		if _, ok := union[t]; !ok {
			newTokens++
		}
	}
	current := len(ct)
	if current == 0 {
		current = 1
	}
	return math.Min(0.2, float64(newTokens)/float64(current))
}

// SelectHighlights implements the whole of Phase 5: threshold filtering, a
// greedy pass, and a DP pass used only when it beats the greedy score.
func SelectHighlights(candidates []Candidate, threshold float64, maxClipsPerVideo int, minSeparation float64) []Candidate {
	pool := selectAboveThreshold(candidates, threshold)
	if len(pool) == 0 {
		return nil
	}

	greedy, greedyScore := greedySelect(pool, maxClipsPerVideo, minSeparation)
	if len(greedy) >= maxClipsPerVideo {
		return greedy
	}

	dp, dpScore := dpOptimalSelection(pool, maxClipsPerVideo, minSeparation)
	if dpScore > greedyScore {
		return dp
	}
	return greedy
}
