package highlight

import "math"

// durationVariantFactors mirrors deepseek_analyzer.py#_filter_overlapping_clips's
// three duration variants generated per accepted candidate before selection.
var durationVariantFactors = []float64{1.25, 0.85, 1.0}

// generateVariants implements Phase 4's "for each accepted candidate,
// additionally emit three variants by duration factors {1.25, 0.85, 1.0}
// recentered on the candidate, each clamped to the absolute bounds".
func generateVariants(c Candidate, absMin, absMax float64) []Candidate {
	mid := (c.Start + c.End) / 2
	base := c.duration()

	variants := make([]Candidate, 0, len(durationVariantFactors))
	for _, factor := range durationVariantFactors {
		target := base * factor
		offset := hashJitterPct(4, c.Start, target, factor*100)
		target = math.Max(absMin, math.Min(absMax, target*(1+offset)))

		start := mid - target/2
		end := mid + target/2
		if end-start < absMin {
			continue
		}

		scoreFactor := 0.95
		if factor == 1.0 {
			scoreFactor = 0.98
		}

		v := c
		v.Start = start
		v.End = end
		v.BaseScore = c.BaseScore * scoreFactor
		v.Reason = c.Reason + " (variante)"
		v.IsVariant = true
		variants = append(variants, v)
	}
	return variants
}
