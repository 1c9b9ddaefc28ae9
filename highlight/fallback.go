package highlight

import (
	"fmt"
	"math"
)

// clipsPerHourFallback is the density target for the no-remote-endpoint
// fallback's strategically-distributed clips (deepseek_analyzer.py's
// `clips_per_hour = 4`).
const clipsPerHourFallback = 4.0

// FallbackHighlights implements §4.3's "Fallback (no remote endpoint)":
// chooses N = min(max_clips_per_video, max(2, ⌈D/3600·4⌉)) clips distributed
// across the timeline, each duration interpolated center-weighted from the
// optimal range via computeBackupSegmentDuration.
func FallbackHighlights(videoDuration float64, maxClipsPerVideo int, optimalMin, optimalMax, absMin, absMax float64) []Highlight {
	if videoDuration <= 0 || videoDuration < absMin {
		return nil
	}
	if videoDuration <= absMax {
		return []Highlight{{
			Start:      0,
			End:        videoDuration,
			FinalScore: 0.6,
			Reason:     "full video - duration already fits the output window",
			Metadata:   Metadata{BaseScore: 0.6},
		}}
	}

	totalClips := maxIntOf(2, int(math.Ceil(videoDuration/3600*clipsPerHourFallback)))
	if totalClips > maxClipsPerVideo {
		totalClips = maxClipsPerVideo
	}

	highlights := make([]Highlight, 0, totalClips)
	for i := 0; i < totalClips; i++ {
		position := (float64(i) + 0.5) / float64(totalClips)
		duration := computeBackupSegmentDuration(position, i, totalClips, optimalMin, optimalMax)

		center := position * videoDuration
		start := math.Max(0, center-duration/2)
		end := math.Min(videoDuration, start+duration)
		start = math.Max(0, end-duration)

		if end-start < absMin {
			continue
		}
		score := 0.5 + float64(i)*0.05
		highlights = append(highlights, Highlight{
			Start:      start,
			End:        end,
			FinalScore: score,
			Reason:     fmt.Sprintf("strategic segment %d - distributed fallback selection (duration %.1fs)", i+1, end-start),
			Metadata:   Metadata{BaseScore: score},
		})
	}
	return highlights
}

// computeBackupSegmentDuration implements _compute_backup_segment_duration:
// longer clips near the video's center, shorter ones at the edges, with a
// deterministic ±7.5% jitter.
func computeBackupSegmentDuration(position float64, index, total int, minD, maxD float64) float64 {
	centerDistance := math.Abs(position-0.5) * 2
	interpolated := maxD - centerDistance*(maxD-minD)

	edgeFactor := 1.0
	switch {
	case index == 0 || index == total-1:
		edgeFactor = 0.65
	case index == 1 || index == total-2:
		edgeFactor = 0.85
	}

	duration := interpolated * edgeFactor
	jitter := (deterministicJitter(index) - 0.5) * 0.15
	duration *= 1 + jitter
	return math.Max(minD, math.Min(maxD, duration))
}

func maxIntOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}
