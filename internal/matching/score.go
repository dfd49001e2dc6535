package matching

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// DefaultMinSimilarity is the Jaro-Winkler similarity at which a pair is
// considered comparable at all.
const DefaultMinSimilarity = 0.80

// Score compares a normalized query against a normalized target. It returns
// false when the pair is not comparable: the target does not contain the
// query, the Jaro-Winkler similarity is below minSimilarity, and the words do
// not sound alike. Otherwise the score is the Levenshtein distance divided by
// the longer string's length: 0 means identical, lower is better.
func Score(query, target string, minSimilarity float64) (float64, bool) {
	if query == "" || target == "" {
		return 0, false
	}
	if !strings.Contains(target, query) &&
		matchr.JaroWinkler(query, target, false) < minSimilarity &&
		!soundsAlike(query, target) {
		return 0, false
	}

	return distance(query, target), true
}

// distance is the Levenshtein distance of a and b divided by the longer length.
func distance(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return float64(matchr.Levenshtein(a, b)) / float64(longest)
}

// containsWords reports whether the words of sub appear contiguously in s.
func containsWords(s, sub string) bool {
	return sub != "" && strings.Contains(" "+s+" ", " "+sub+" ")
}

// soundsAlike reports whether every query word shares a Double Metaphone code
// with some target word.
func soundsAlike(query, target string) bool {
	targetCodes := make(map[string]struct{})
	for _, w := range strings.Fields(target) {
		p, s := matchr.DoubleMetaphone(w)
		if p != "" {
			targetCodes[p] = struct{}{}
		}
		if s != "" {
			targetCodes[s] = struct{}{}
		}
	}
	if len(targetCodes) == 0 {
		return false
	}

	words := strings.Fields(query)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		p, s := matchr.DoubleMetaphone(w)
		_, okP := targetCodes[p]
		_, okS := targetCodes[s]
		if !(p != "" && okP) && !(s != "" && okS) {
			return false
		}
	}
	return true
}
