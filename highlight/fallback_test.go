package highlight

import "testing"

func TestFallbackHighlightsShortVideoIsEmpty(t *testing.T) {
	if h := FallbackHighlights(3, 10, 15, 45, 5, 90); h != nil {
		t.Fatalf("expected no highlights below the absolute minimum duration, got %v", h)
	}
}

func TestFallbackHighlightsVideoFitsOutputWindow(t *testing.T) {
	h := FallbackHighlights(60, 10, 15, 45, 5, 90)
	if len(h) != 1 {
		t.Fatalf("expected a single full-video highlight, got %d", len(h))
	}
	if h[0].Start != 0 || h[0].End != 60 {
		t.Fatalf("expected the full video window, got [%f,%f]", h[0].Start, h[0].End)
	}
}

func TestFallbackHighlightsLongVideoDistributesClips(t *testing.T) {
	h := FallbackHighlights(7200, 10, 15, 45, 5, 90)
	if len(h) == 0 {
		t.Fatal("expected distributed fallback clips for a long video")
	}
	if len(h) > 10 {
		t.Fatalf("expected fallback clips capped at max_clips_per_video=10, got %d", len(h))
	}
	for i := 1; i < len(h); i++ {
		if h[i].Start < h[i-1].Start {
			t.Fatalf("expected fallback clips in chronological order: %v", h)
		}
	}
}

func TestComputeBackupSegmentDurationStaysWithinBounds(t *testing.T) {
	for i := 0; i < 5; i++ {
		d := computeBackupSegmentDuration(float64(i)/5, i, 5, 15, 45)
		if d < 15 || d > 45 {
			t.Fatalf("expected duration within [15,45], got %f at index %d", d, i)
		}
	}
}
