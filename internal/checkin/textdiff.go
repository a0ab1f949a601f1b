package checkin

import "strings"

// significantChangeRatio is the fraction of a question's text that must
// differ before a reword counts as a new variant. Below it, capitalization,
// punctuation and minor edits are treated as the same question.
const significantChangeRatio = 0.2

// normalizeText lowercases, trims and collapses internal whitespace so that
// cosmetic edits compare equal.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// changeRatio measures how different two normalized strings are: index-wise
// rune mismatches over the shared prefix plus the length difference, scaled
// by the longer length. Cheap by intent; question text is short and the
// threshold is coarse.
func changeRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	shared := len(ra)
	if len(rb) < shared {
		shared = len(rb)
	}

	diffs := 0
	for i := 0; i < shared; i++ {
		if ra[i] != rb[i] {
			diffs++
		}
	}
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	diffs += longest - shared
	if longest == 0 {
		return 0
	}
	return float64(diffs) / float64(longest)
}

// SignificantChange reports whether newText is a substantive rewrite of
// oldText rather than a cosmetic edit.
func SignificantChange(oldText, newText string) bool {
	a, b := normalizeText(oldText), normalizeText(newText)
	if a == b {
		return false
	}
	return changeRatio(a, b) > significantChangeRatio
}
