package cleaner

import "unicode/utf8"

// EstimateTokens approximates the token count of text as runes / 3, a middle
// ground between English (~4 runes/token) and CJK (~1.5 runes/token).
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	if est := n / 3; est > 0 {
		return est
	}
	return 1
}

// TruncateToTokens cuts text so that EstimateTokens(result) <= budget,
// preferring to end on a line break.
func TruncateToTokens(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if EstimateTokens(text) <= budget {
		return text
	}
	maxRunes := budget * 3
	runes := []rune(text)
	cut := string(runes[:maxRunes])
	for i := len(cut) - 1; i > len(cut)/2; i-- {
		if cut[i] == '\n' {
			return cut[:i]
		}
	}
	return cut
}
