package matching

import "strings"

// dangerTerms are the negation/exclusion/modal-constraint words whose
// differing counts between two rule texts warrant a warning on the match —
// they tend to mark resolution conditions that silently diverge even when
// the surrounding prose overlaps heavily.
var dangerTerms = []string{"not", "except", "only", "void", "cancel", "must", "exclude"}

// resolutionResult is the resolution sub-score plus an optional warning
// surfaced in the match's reason text.
type resolutionResult struct {
	Score   float64
	Warning string
}

// resolutionScore implements §4.E.4: token-overlap scoring over the
// resolution-rules text, with a danger-term-count mismatch and a
// missing-rules case both downgrading confidence and attaching a warning.
func resolutionScore(rulesA, rulesB string) resolutionResult {
	if strings.TrimSpace(rulesA) == "" || strings.TrimSpace(rulesB) == "" {
		return resolutionResult{Score: 0.4, Warning: "resolution rules missing on one side"}
	}

	tokensA, tokensB := Tokenize(rulesA), Tokenize(rulesB)
	setA, setB := tokenSet(tokensA), tokenSet(tokensB)

	inter := 0
	for t := range setA {
		if setB[t] {
			inter++
		}
	}
	max := len(setA)
	if len(setB) > max {
		max = len(setB)
	}

	overlap := 0.0
	if max > 0 {
		overlap = float64(inter) / float64(max)
	}
	score := overlap
	if score < 0.2 {
		score = 0.2
	}

	result := resolutionResult{Score: score}
	if countDangerTerms(rulesA) != countDangerTerms(rulesB) {
		result.Warning = "resolution rules differ in exclusion/modal language"
	}
	return result
}

func countDangerTerms(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, term := range dangerTerms {
		count += strings.Count(lower, term)
	}
	return count
}
