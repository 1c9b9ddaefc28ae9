// Package viral implements the Viral Scorer (§4.4): a standalone per-clip
// grader applied after clip creation, independent of the Highlight Analyzer's
// own emotional-intensity table.
package viral

import "regexp"

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile("(?i)"+e))
	}
	return out
}

// intensityPatterns feed emotional_impact: multiple exclamation marks,
// love/hate superlatives, disbelief idioms (viral_analyzer.py's
// "emociones_extremas" family).
var intensityPatterns = compile(
	`!{2,}`,
	`(?:amo|odio|detesto) (?:esto|esta|este)`,
	`no puedo creerlo`,
	`es lo mejor|es lo peor`,
)

// memorabilityPatterns feed memorability: number-tip phrases and recurring
// content-word cues ("hooks_inmediatos"-adjacent signal patterns).
var memorabilityPatterns = compile(
	`\d+\s*(?:consejos|tips|formas|razones|trucos)`,
	`"[^"]{10,50}"`,
	`recuerda (?:esto|que)`,
	`nunca olvides`,
)

// shareTriggerPatterns feed shareability: share triggers, tasteful
// controversy, informational value, public questions
// ("exclusividad_urgencia" + "contraste_social" families).
var shareTriggerPatterns = compile(
	`comparte (?:esto|si)`,
	`etiqueta a`,
	`pol[eé]mico|controvers`,
	`sab[ií]as que`,
	`\?`,
)

// engagementPatterns feed engagement_potential: direct engagement triggers
// and relatable templates ("llamadas_accion" family).
var engagementPatterns = compile(
	`coment(?:a|en) (?:abajo|aqu[ií])`,
	`d[ií]me (?:qu[eé]|si)`,
	`a qui[eé]n le ha pasado`,
	`s[ií]guenos? para m[aá]s`,
)

// conversationalStructurePatterns detect the ×1.3 engagement boost's
// "conversational structure": contrast, causal, additive, question→statement.
var conversationalStructurePatterns = compile(
	`\b(pero|sin embargo|aunque)\b`,       // contrast
	`\b(porque|ya que|debido a)\b`,        // causal
	`\b(y|adem[aá]s|tambi[eé]n)\b`,        // additive
	`\?[^?]{0,40}\.`,                      // question followed by a statement
)

// hookPatterns feed hook_strength against the clip's first five seconds of
// transcript ("hooks_inmediatos" family).
var hookPatterns = compile(
	`^(?:mira|escucha|atenci[oó]n|espera)`,
	`no vas a creer`,
	`esto (?:cambi[oó]|va a cambiar)`,
	`nadie (?:te dice|habla de) esto`,
)

// curiosityBoosterPatterns feed hook_strength alongside hookPatterns.
var curiosityBoosterPatterns = compile(
	`el secreto (?:de|para)`,
	`lo que nadie sabe`,
	`la verdad (?:detr[aá]s|sobre)`,
)

// tensionPatterns feed retention_probability's narrative-tension density
// ("tension_dramatica" family).
var tensionPatterns = compile(
	`de repente`,
	`todo cambi[oó]`,
	`hasta que`,
	`en ese momento`,
)

func matchCount(patterns []*regexp.Regexp, text string) int {
	total := 0
	for _, re := range patterns {
		total += len(re.FindAllStringIndex(text, -1))
	}
	return total
}

// allKeywordFamilies is every pattern family ExtractKeywords scans, in the
// same spirit as _extract_legacy_keywords' flat found-keywords list.
var allKeywordFamilies = [][]*regexp.Regexp{
	intensityPatterns, memorabilityPatterns, shareTriggerPatterns,
	engagementPatterns, hookPatterns, curiosityBoosterPatterns, tensionPatterns,
}

// ExtractKeywords returns the distinct substrings across all viral pattern
// families that matched text, in first-seen order (§6 viral selection's
// "keywords[]").
func ExtractKeywords(text string) []string {
	seen := make(map[string]bool)
	var found []string
	for _, family := range allKeywordFamilies {
		for _, re := range family {
			for _, m := range re.FindAllString(text, -1) {
				if !seen[m] {
					seen[m] = true
					found = append(found, m)
				}
			}
		}
	}
	return found
}
