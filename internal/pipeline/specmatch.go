package pipeline

import (
	"math"
	"strings"
)

// specMatches counts how many required specs appear in the candidate's
// combined descriptive text. A spec matches when its leading token occurs
// anywhere in the text; spec phrasing ("Voice control") rarely appears
// verbatim on a product page, but the head noun usually does.
func specMatches(text string, requiredSpecs []string) int {
	lower := strings.ToLower(text)
	matches := 0
	for _, spec := range requiredSpecs {
		words := strings.Fields(strings.ToLower(spec))
		if len(words) > 0 && strings.Contains(lower, words[0]) {
			matches++
		}
	}
	return matches
}

// minSpecMatches returns the acceptance threshold for n required specs at
// the given ratio: ceil(n*ratio), never below one.
func minSpecMatches(n int, ratio float64) int {
	if n == 0 {
		return 0
	}
	min := int(math.Ceil(float64(n) * ratio))
	if min < 1 {
		min = 1
	}
	return min
}
