package viral

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// intensityWordsRe matches the "wow/increíble/amazing/brutal" family
// contributing +0.4 to segment energy (viral_analyzer.py's
// _calculate_segment_energy).
var intensityWordsRe = regexp.MustCompile(`(?i)\b(wow|incre[ií]ble|amazing|brutal)\b`)

// urgencyWordsRe matches "rápido/urgente", contributing +0.3.
var urgencyWordsRe = regexp.MustCompile(`(?i)\b(r[aá]pido|urgente)\b`)

var allCapsWordRe = regexp.MustCompile(`\b[A-ZÁÉÍÓÚÑ]{3,}\b`)

// segmentEnergy implements _calculate_segment_energy: punctuation and
// keyword cues accumulate energy, normalized by sqrt(word_count) so longer
// segments don't win purely on length, capped at 1.0.
func segmentEnergy(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}

	energy := float64(strings.Count(text, "!")) * 0.3
	energy += float64(strings.Count(text, "?")) * 0.2
	energy += float64(len(intensityWordsRe.FindAllString(text, -1))) * 0.4
	energy += float64(len(urgencyWordsRe.FindAllString(text, -1))) * 0.3
	energy += float64(len(allCapsWordRe.FindAllString(text, -1))) * 0.2

	energy /= math.Sqrt(float64(len(words)))
	return math.Min(1.0, energy)
}

// identifyOptimalCuts implements §4.4's energy-curve cut-point detection:
// local-maximum segments above 0.5 yield a peak_end cut at the segment's end
// time; local minima whose neighbors rise and whose next segment exceeds 0.4
// yield a valley_start cut at the segment's start time. Only the top 10 by
// confidence survive.
func identifyOptimalCuts(segments []Segment) []CutPoint {
	if len(segments) < 3 {
		return nil
	}

	energies := make([]float64, len(segments))
	for i, s := range segments {
		energies[i] = segmentEnergy(s.Text)
	}

	var cuts []CutPoint
	for i := 1; i < len(segments)-1; i++ {
		prev, cur, next := energies[i-1], energies[i], energies[i+1]

		if cur > prev && cur > next && cur > 0.5 {
			cuts = append(cuts, CutPoint{
				TimeSeconds: segments[i].End,
				Kind:        "peak_end",
				Confidence:  cur,
			})
		}

		if cur < prev && cur < next && next > 0.4 {
			cuts = append(cuts, CutPoint{
				TimeSeconds: segments[i].Start,
				Kind:        "valley_start",
				Confidence:  next,
			})
		}
	}

	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Confidence > cuts[j].Confidence })
	if len(cuts) > 10 {
		cuts = cuts[:10]
	}
	return cuts
}
