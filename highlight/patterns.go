package highlight

import "regexp"

// patternCategory is one weighted regex family in the emotional-intensity
// table, grounded on deepseek_analyzer.py's ViralContentDetector.viral_patterns:
// each category contributes to the weighted average in proportion to Weight,
// scaled by how many of its own distinct patterns actually matched.
type patternCategory struct {
	Name     string
	Weight   float64
	Patterns []*regexp.Regexp
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile("(?i)"+e))
	}
	return out
}

// emotionalPatternTable is precompiled once at package init (§9 "Regex-heavy
// text analysis" design note): category keyed, each weighted per the source
// analyzer's tuning.
var emotionalPatternTable = []patternCategory{
	{Name: "emociones_fuertes", Weight: 2.5, Patterns: compile(
		`incre[ií]ble`, `impactante`, `asombroso`, `alucinante`,
	)},
	{Name: "reacciones_autenticas", Weight: 2.0, Patterns: compile(
		`no puedo creer`, `me qued[eé] sin palabras`, `en shock`, `literal(?:mente)?`,
	)},
	{Name: "humor_engagement", Weight: 1.8, Patterns: compile(
		`jaja+`, `muri[oó] de risa`, `qu[eé] gracioso`, `me mat[oó]`,
	)},
	{Name: "contenido_controversial", Weight: 1.5, Patterns: compile(
		`pol[eé]mico`, `controversia`, `no (?:est[aá]n|todos est[aá]n) de acuerdo`, `opini[oó]n impopular`,
	)},
	{Name: "urgencia_accion", Weight: 1.3, Patterns: compile(
		`urgente`, `ahora mismo`, `no te lo pierdas`, `[uú]ltima oportunidad`,
	)},
	{Name: "valor_informativo", Weight: 1.2, Patterns: compile(
		`dato curioso`, `sab[ií]as que`, `importante saber`, `consejo`,
	)},
}

// antiViralPatterns are penalty-only: each match subtracts 0.3 from the base
// emotional_intensity score (deepseek_analyzer.py's anti_viral_patterns).
var antiViralPatterns = compile(
	`complicado|t[eé]cnico`,
	`aburrido|mon[oó]tono`,
	`demasiado largo|extenso`,
	`normal|t[ií]pico`,
)

// conversationFlowPatterns are the six connector/causal/sequence/question/
// attention-grabber families whose combined density (×20, capped at 1.0)
// yields conversation_flow (deepseek_analyzer.py#_analyze_conversation_flow).
var conversationFlowPatterns = compile(
	`\b(y|pero|adem[aá]s|tambi[eé]n)\b`,
	`\b(porque|ya que|debido a)\b`,
	`\b(primero|despu[eé]s|luego|finalmente)\b`,
	`\b(esto significa|es decir|en otras palabras)\b`,
	`\?`,
	`\b(mira|escucha|fij[aá]te|atenci[oó]n)\b`,
)
