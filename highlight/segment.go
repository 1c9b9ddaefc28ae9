package highlight

import "math"

// forceFullCoverageSafetyCap bounds how many contiguous segments Phase 1 will
// ever emit under force_full_coverage, independent of max_segments, so a
// multi-hour source can't produce an unbounded transcription fan-out.
const forceFullCoverageSafetyCap = 300

// createSegments implements §4.3 Phase 1: contiguous W-length windows when
// the source fits within segmentDuration*maxSegments, otherwise exactly
// maxSegments windows evenly distributed across the duration. Under
// forceFullCoverage, the cap is forceFullCoverageSafetyCap instead of
// maxSegments, both for the contiguous form and for the evenly-distributed
// fallback.
func createSegments(duration, segmentDuration float64, maxSegments int, forceFullCoverage bool) [][2]float64 {
	if duration <= 0 || segmentDuration <= 0 || maxSegments <= 0 {
		return nil
	}

	limit := maxSegments
	if forceFullCoverage {
		limit = forceFullCoverageSafetyCap
	}

	if duration <= segmentDuration*float64(limit) {
		return contiguousSegments(duration, segmentDuration)
	}
	return evenlyDistributedSegments(duration, segmentDuration, limit)
}

func contiguousSegments(duration, segmentDuration float64) [][2]float64 {
	count := int(math.Ceil(duration / segmentDuration))
	segments := make([][2]float64, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * segmentDuration
		end := math.Min(duration, start+segmentDuration)
		if end-start < 0.01 {
			continue
		}
		segments = append(segments, [2]float64{start, end})
	}
	return segments
}

func evenlyDistributedSegments(duration, segmentDuration float64, count int) [][2]float64 {
	step := duration / float64(count)
	windowLen := math.Min(segmentDuration, step)
	segments := make([][2]float64, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * step
		end := math.Min(duration, start+windowLen)
		if end-start < 0.01 {
			continue
		}
		segments = append(segments, [2]float64{start, end})
	}
	return segments
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
