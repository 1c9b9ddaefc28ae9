package highlight

import "testing"

func TestGenerateVariantsProducesDistinctDurations(t *testing.T) {
	c := Candidate{Start: 100, End: 130, BaseScore: 0.8, Reason: "momento clave", Transcription: "texto de prueba"}
	variants := generateVariants(c, 5, 90)
	if len(variants) == 0 {
		t.Fatal("expected at least one variant")
	}
	seen := map[float64]bool{}
	for _, v := range variants {
		if seen[v.duration()] {
			t.Fatalf("expected distinct variant durations, got %f twice", v.duration())
		}
		seen[v.duration()] = true
		if !v.IsVariant {
			t.Fatal("expected generated variants to be flagged IsVariant")
		}
		if v.duration() < 5 || v.duration() > 90 {
			t.Fatalf("variant duration out of absolute bounds: %f", v.duration())
		}
		if v.BaseScore >= c.BaseScore {
			t.Fatalf("expected variant score to be discounted from the original, got %f >= %f", v.BaseScore, c.BaseScore)
		}
	}
}

func TestGenerateVariantsRecentersOnOriginalMidpoint(t *testing.T) {
	c := Candidate{Start: 100, End: 130}
	mid := (c.Start + c.End) / 2
	for _, v := range generateVariants(c, 5, 90) {
		vmid := (v.Start + v.End) / 2
		if diff := vmid - mid; diff > 0.01 || diff < -0.01 {
			t.Fatalf("expected variant to stay centered on %f, got %f", mid, vmid)
		}
	}
}
