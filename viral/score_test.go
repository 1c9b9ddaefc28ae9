package viral

import "testing"

func TestScoreProducesBoundedMetrics(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 5, Text: "No vas a creer esto, espera, wow increíble lo que pasó!!"},
		{Start: 5, End: 15, Text: "De repente todo cambió y comparte esto si te gustó."},
		{Start: 15, End: 25, Text: "Coméntame abajo qué opinas, sabías que esto es polémico?"},
	}
	m := Score(segments, 25)

	for name, v := range map[string]float64{
		"emotional_impact":      m.EmotionalImpact,
		"memorability":          m.Memorability,
		"shareability":          m.Shareability,
		"engagement_potential":  m.EngagementPotential,
		"hook_strength":         m.HookStrength,
		"retention_probability": m.RetentionProbability,
		"virality_coefficient":  m.ViralityCoefficient,
	} {
		if v < 0 || v > 1 {
			t.Fatalf("%s out of [0,1] bounds: %f", name, v)
		}
	}
	if m.Recommendation == "" {
		t.Fatal("expected a non-empty recommendation tier")
	}
}

func TestClassifyTierThresholds(t *testing.T) {
	cases := []struct {
		coefficient float64
		want        string
	}{
		{0.9, TierMustPost},
		{0.7, TierHighPotential},
		{0.5, TierWorthTrying},
		{0.3, TierMarginal},
		{0.1, TierSkip},
	}
	for _, c := range cases {
		if got := classifyTier(c.coefficient); got != c.want {
			t.Errorf("classifyTier(%f) = %q, want %q", c.coefficient, got, c.want)
		}
	}
}

func TestViralityCoefficientSynergyBoost(t *testing.T) {
	high := Metrics{HookStrength: 0.8, EmotionalImpact: 0.7, Shareability: 0.2, EngagementPotential: 0.2, Memorability: 0.2, RetentionProbability: 0.2}
	plain := high
	plain.HookStrength, plain.EmotionalImpact = 0.4, 0.4

	if viralityCoefficient(high) <= viralityCoefficient(plain) {
		t.Fatal("expected the hook+emotional synergy multiplier to raise the coefficient")
	}
}

func TestViralityCoefficientLowFactorPenalty(t *testing.T) {
	weak := Metrics{HookStrength: 0.1, EmotionalImpact: 0.1, Shareability: 0.1, EngagementPotential: 0.5, Memorability: 0.5, RetentionProbability: 0.5}
	if c := viralityCoefficient(weak); c >= 0.5 {
		t.Fatalf("expected the ≥2-weak-factors penalty to suppress the coefficient, got %f", c)
	}
}

func TestHookStrengthOnlyLooksAtFirstFiveSeconds(t *testing.T) {
	segments := []Segment{
		{Start: 0, End: 5, Text: "mira esto no vas a creer lo que pasó"},
		{Start: 5, End: 30, Text: "texto neutro sin ganchos de ningún tipo"},
	}
	withHook := hookStrength(segments)

	noHookSegments := []Segment{
		{Start: 0, End: 5, Text: "texto neutro sin ganchos"},
		{Start: 5, End: 30, Text: "mira esto no vas a creer lo que pasó"},
	}
	withoutHook := hookStrength(noHookSegments)

	if withHook <= withoutHook {
		t.Fatal("expected a hook phrase in the first five seconds to score higher than one later")
	}
}
