package voice

import (
	"strings"

	"github.com/heartmarshall/barcount-backend/internal/domain"
)

// Extraction is the structured reading of one normalized transcript.
type Extraction struct {
	ProductName     string
	QuantityFull    int
	QuantityPartial float64
	HasFull         bool
	HasPartial      bool
}

// Quantities returns the detected amounts.
func (e Extraction) Quantities() domain.Quantities {
	return domain.Quantities{Full: e.QuantityFull, Partial: e.QuantityPartial}
}

var unitWords = map[string]bool{
	"full":    true,
	"fulls":   true,
	"bottle":  true,
	"bottles": true,
}

// connectorWords are dropped from the residual product name.
var connectorWords = map[string]bool{
	"full":    true,
	"fulls":   true,
	"bottle":  true,
	"bottles": true,
	"and":     true,
	"of":      true,
	"a":       true,
	"point":   true,
}

// ExtractQuantities pulls a full-bottle count and a partial bottle out of a
// normalized transcript and returns the remaining words as the product name.
// The partial is read first ("point ..." phrases, then decimal tokens below
// one), then the count (a number followed by a unit word, else a number at
// the start or end of the text), then the bare phrase "a bottle". A
// transcript without any quantity yields zeros, not an error.
func ExtractQuantities(normalized string) Extraction {
	tokens := strings.Fields(normalized)
	used := make([]bool, len(tokens))
	var ex Extraction

	// 1. "point <digits>".
	for i := 0; i < len(tokens) && !ex.HasPartial; i++ {
		if tokens[i] != "point" {
			continue
		}
		if v, n, ok := parsePointValue(tokens, i+1); ok {
			ex.QuantityPartial, ex.HasPartial = v, true
			markUsed(used, i, 1+n)
		}
	}

	// 2. Fraction and decimal tokens: "0.5", ".8".
	for i := 0; i < len(tokens) && !ex.HasPartial; i++ {
		if used[i] {
			continue
		}
		if v, ok := parseDecimalLiteral(tokens[i]); ok {
			ex.QuantityPartial, ex.HasPartial = v, true
			used[i] = true
		}
	}

	// 3. Count phrase.
	if n, at, span, ok := findCount(tokens, used); ok {
		ex.QuantityFull, ex.HasFull = n, true
		markUsed(used, at, span)
		if next := at + span; next < len(tokens) && unitWords[tokens[next]] {
			used[next] = true
		}
	}

	// 4. "a bottle" without a number.
	if !ex.HasFull {
		for i := 0; i+1 < len(tokens); i++ {
			if !used[i] && !used[i+1] && tokens[i] == "a" && (tokens[i+1] == "bottle" || tokens[i+1] == "full") {
				ex.QuantityFull, ex.HasFull = 1, true
				markUsed(used, i, 2)
				break
			}
		}
	}

	// 5. Whatever is left names the product.
	name := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if used[i] || connectorWords[tok] {
			continue
		}
		name = append(name, tok)
	}
	ex.ProductName = strings.Join(name, " ")
	ex.QuantityPartial = roundPartial(ex.QuantityPartial)
	return ex
}

// findCount locates the bottle count. A number directly followed by a unit
// word wins; otherwise a number opening or closing the free tokens is used.
func findCount(tokens []string, used []bool) (value, at, span int, ok bool) {
	for i := range tokens {
		if used[i] {
			continue
		}
		n, sp, found := parseCount(tokens, i)
		if !found || anyUsed(used, i, sp) {
			continue
		}
		if next := i + sp; next < len(tokens) && !used[next] && unitWords[tokens[next]] {
			return n, i, sp, true
		}
	}

	first, last := -1, -1
	for i := range tokens {
		if !used[i] {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0, 0, 0, false
	}
	if n, sp, found := parseCount(tokens, first); found && !anyUsed(used, first, sp) {
		return n, first, sp, true
	}
	// A trailing compound ("grey goose twenty two") starts one token earlier.
	for _, start := range []int{last - 1, last} {
		if start < first {
			continue
		}
		if n, sp, found := parseCount(tokens, start); found && start+sp-1 == last && !anyUsed(used, start, sp) {
			return n, start, sp, true
		}
	}
	return 0, 0, 0, false
}

func markUsed(used []bool, from, n int) {
	for i := from; i < from+n && i < len(used); i++ {
		used[i] = true
	}
}

func anyUsed(used []bool, from, n int) bool {
	for i := from; i < from+n && i < len(used); i++ {
		if used[i] {
			return true
		}
	}
	return false
}
