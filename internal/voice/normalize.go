// Package voice turns dictated inventory counts into structured quantities.
// Normalize canonicalizes a raw transcript and ExtractQuantities splits the
// normalized text into a bottle count, a partial bottle and a product name.
package voice

import (
	"strings"
	"unicode"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// phrase rewrites a token sequence into replacement tokens.
type phrase struct {
	match   []string
	replace []string
}

// Longest phrases first at each position; fillers rewrite to nothing.
var phrases = []phrase{
	{[]string{"three", "quarters"}, []string{"0.75"}},
	{[]string{"three", "quarter"}, []string{"0.75"}},
	{[]string{"half", "a"}, []string{"0.5"}},
	{[]string{"a", "half"}, []string{"0.5"}},
	{[]string{"a", "quarter"}, []string{"0.25"}},
	{[]string{"a", "bottle"}, []string{"1", "full"}},
	{[]string{"one", "bottle"}, []string{"1", "full"}},
	{[]string{"half"}, []string{"0.5"}},
	{[]string{"quarter"}, []string{"0.25"}},

	{[]string{"we", "have"}, nil},
	{[]string{"we", "got"}, nil},
	{[]string{"there", "is"}, nil},
	{[]string{"there", "are"}, nil},
	{[]string{"i", "have"}, nil},
	{[]string{"i", "got"}, nil},
	{[]string{"um"}, nil},
	{[]string{"umm"}, nil},
	{[]string{"uh"}, nil},
	{[]string{"uhm"}, nil},
	{[]string{"er"}, nil},
	{[]string{"like"}, nil},
	{[]string{"please"}, nil},
	{[]string{"about"}, nil},
}

// Normalize canonicalizes a raw transcript: diacritics are stripped, text is
// lower-cased, punctuation becomes whitespace (except decimal points and
// in-word apostrophes), filler words are dropped and spoken quantities are
// rewritten to a fixed vocabulary ("a bottle" becomes "1 full", "half"
// becomes "0.5", "point two five" becomes "0.25").
func Normalize(raw string) string {
	text := strings.ToLower(domain.FoldDiacritics(raw))
	tokens := strings.Fields(stripPunctuation(text))
	if len(tokens) == 0 {
		return ""
	}

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if tokens[i] == "point" {
			if v, n, ok := parsePointValue(tokens, i+1); ok {
				out = append(out, formatPartial(v))
				i += 1 + n
				continue
			}
		}
		if p, ok := matchPhrase(tokens, i, out); ok {
			out = append(out, p.replace...)
			i += len(p.match)
			continue
		}
		out = append(out, tokens[i])
		i++
	}
	return strings.Join(out, " ")
}

func matchPhrase(tokens []string, i int, emitted []string) (phrase, bool) {
	for _, p := range phrases {
		if i+len(p.match) > len(tokens) {
			continue
		}
		// "twenty one bottle" is a compound count, not "twenty 1 full".
		if p.match[0] == "one" && len(emitted) > 0 {
			if _, ok := tens[emitted[len(emitted)-1]]; ok {
				continue
			}
		}
		ok := true
		for j, w := range p.match {
			if tokens[i+j] != w {
				ok = false
				break
			}
		}
		if ok {
			return p, true
		}
	}
	return phrase{}, false
}

// stripPunctuation replaces punctuation with spaces. A '.' is kept when a
// digit follows it, an apostrophe when it sits between letters, and a hyphen
// between two number words is removed so "twenty-two" reads "twentytwo".
func stripPunctuation(text string) string {
	rs := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i, r := range rs {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1]):
			b.WriteRune(r)
		case r == '\'' && i > 0 && i+1 < len(rs) && unicode.IsLetter(rs[i-1]) && unicode.IsLetter(rs[i+1]):
			b.WriteRune(r)
		case r == '-' && joinsNumberWords(rs, i):
			// dropped
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func joinsNumberWords(rs []rune, i int) bool {
	start := i
	for start > 0 && unicode.IsLetter(rs[start-1]) {
		start--
	}
	end := i + 1
	for end < len(rs) && unicode.IsLetter(rs[end]) {
		end++
	}
	left, right := string(rs[start:i]), string(rs[i+1:end])
	_, isTens := tens[left]
	un, isUnit := units[right]
	return isTens && isUnit && un > 0
}
