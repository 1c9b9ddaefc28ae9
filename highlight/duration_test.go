package highlight

import "testing"

func TestDeterministicJitterIsStableAndBounded(t *testing.T) {
	a := deterministicJitter(5)
	b := deterministicJitter(5)
	if a != b {
		t.Fatalf("expected deterministic jitter to be stable for the same index: %f vs %f", a, b)
	}
	if a < 0 || a >= 1 {
		t.Fatalf("expected jitter in [0,1), got %f", a)
	}
}

func TestHashJitterPctIsStableAndBounded(t *testing.T) {
	a := hashJitterPct(5, 10.0, 20.0)
	b := hashJitterPct(5, 10.0, 20.0)
	if a != b {
		t.Fatalf("expected hash jitter to be stable for the same inputs: %f vs %f", a, b)
	}
	if a < -0.05 || a > 0.05 {
		t.Fatalf("expected jitter within ±5%%, got %f", a)
	}
}

func TestExtractSuggestedDuration(t *testing.T) {
	d, ok := extractSuggestedDuration("Este momento dura unos 12 segundos de alto impacto")
	if !ok || d != 12 {
		t.Fatalf("expected to extract 12s, got %f ok=%v", d, ok)
	}
	if _, ok := extractSuggestedDuration("sin duración mencionada"); ok {
		t.Fatal("expected no duration to be extracted from text without one")
	}
}

func TestComputeCandidateDurationClampsToAbsoluteBounds(t *testing.T) {
	c := Candidate{Start: 10, End: 11, Reason: "no duration here", Transcription: ""}
	d := computeCandidateDuration(c, 15, 45, 5, 90)
	if d < 5 || d > 90 {
		t.Fatalf("expected duration clamped to [5,90], got %f", d)
	}
}

func TestAssignDurationUsesOptimalDurationWhenPresent(t *testing.T) {
	c := Candidate{Start: 100, End: 110, OptimalDuration: 20}
	start, end := assignDuration(c, 5, 90, 15, 45, 1000)
	d := end - start
	if d < 15 || d > 25 {
		t.Fatalf("expected duration near the 20s optimal suggestion (±8%% jitter), got %f", d)
	}
}

func TestAssignDurationClampsToVideoBounds(t *testing.T) {
	c := Candidate{Start: 2, End: 4, OptimalDuration: 20}
	start, end := assignDuration(c, 5, 90, 15, 45, 10)
	if start < 0 || end > 10 {
		t.Fatalf("expected window clamped within [0,10], got [%f,%f]", start, end)
	}
}
