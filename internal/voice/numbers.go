package voice

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var units = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
}

var teens = map[string]int{
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tens = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

// numberWords maps every single-token spoken number, including joined
// compounds such as "twentytwo", to its value.
var numberWords = buildNumberWords()

func buildNumberWords() map[string]int {
	m := make(map[string]int, 110)
	for w, n := range units {
		m[w] = n
	}
	for w, n := range teens {
		m[w] = n
	}
	for tw, tn := range tens {
		m[tw] = tn
		for uw, un := range units {
			if un > 0 {
				m[tw+uw] = tn + un
			}
		}
	}
	m["hundred"] = 100
	m["onehundred"] = 100
	return m
}

// maxLiteralCount bounds digit tokens read as bottle counts, so that numbers
// inside product names ("1800 silver") stay part of the name.
const maxLiteralCount = 999

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseCount reads a whole-number phrase starting at tokens[i] and returns
// its value and the number of tokens it spans.
func parseCount(tokens []string, i int) (int, int, bool) {
	if i >= len(tokens) {
		return 0, 0, false
	}
	tok := tokens[i]

	if isDigits(tok) {
		n, err := strconv.Atoi(tok)
		if err != nil || n > maxLiteralCount {
			return 0, 0, false
		}
		return n, 1, true
	}

	if tok == "one" && i+1 < len(tokens) && tokens[i+1] == "hundred" {
		return 100, 2, true
	}
	if tn, ok := tens[tok]; ok && i+1 < len(tokens) {
		if un, ok := units[tokens[i+1]]; ok && un > 0 {
			return tn + un, 2, true
		}
	}
	if n, ok := numberWords[tok]; ok {
		return n, 1, true
	}
	return 0, 0, false
}

// parsePointValue reads the fraction spoken after "point", starting at
// tokens[i]. Digits may be spoken one by one ("two five" is 0.25), as a
// decimal word ("fifteen" is 0.15) or written ("8" is 0.8). Values up to nine
// are tenths, larger ones hundredths.
func parsePointValue(tokens []string, i int) (float64, int, bool) {
	if i >= len(tokens) {
		return 0, 0, false
	}
	tok := tokens[i]

	if isDigits(tok) {
		v, err := decimal.NewFromString("0." + tok)
		if err != nil {
			return 0, 0, false
		}
		return roundPartial(v.InexactFloat64()), 1, true
	}

	if d, ok := units[tok]; ok {
		digits := strconv.Itoa(d)
		consumed := 1
		if i+1 < len(tokens) {
			if d2, ok := units[tokens[i+1]]; ok {
				digits += strconv.Itoa(d2)
				consumed++
			}
		}
		v, err := decimal.NewFromString("0." + digits)
		if err != nil {
			return 0, 0, false
		}
		return roundPartial(v.InexactFloat64()), consumed, true
	}

	n, consumed, ok := parseCount(tokens, i)
	if !ok || n >= 100 {
		return 0, 0, false
	}
	divisor := int64(100)
	if n <= 9 {
		divisor = 10
	}
	v := decimal.NewFromInt(int64(n)).Div(decimal.NewFromInt(divisor))
	return roundPartial(v.InexactFloat64()), consumed, true
}

// parseDecimalLiteral accepts "0.8", ".8" and "0.25"; only values below one
// are partial quantities.
func parseDecimalLiteral(tok string) (float64, bool) {
	if !strings.Contains(tok, ".") {
		return 0, false
	}
	if strings.HasPrefix(tok, ".") {
		tok = "0" + tok
	}
	v, err := decimal.NewFromString(tok)
	if err != nil || v.IsNegative() || v.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return 0, false
	}
	return roundPartial(v.InexactFloat64()), true
}

// roundPartial rounds to two decimal places and clamps to [0,1].
func roundPartial(v float64) float64 {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return 0
	}
	if d.GreaterThan(decimal.NewFromInt(1)) {
		return 1
	}
	return d.InexactFloat64()
}

func formatPartial(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
