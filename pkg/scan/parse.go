package scan

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Candidate is one amount-like token together with the receipt line it came
// from; the line supplies keyword context for scoring.
type Candidate struct {
	Line  string
	Match string
}

var amountRE = regexp.MustCompile(`\$\s?\d{1,6}(?:,\d{3})*(?:\.\d{2})?|\d{1,3}(?:,\d{3})*\.\d{2}`)

// maxPlausible guards against OCR noise like phone numbers read as money.
var maxPlausible = decimal.NewFromInt(100000)

// FindAmounts scans OCR output line by line for dollar-amount tokens.
func FindAmounts(text string) []Candidate {
	var out []Candidate
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		for _, m := range amountRE.FindAllString(trimmed, -1) {
			out = append(out, Candidate{Line: trimmed, Match: m})
		}
	}
	return out
}

// ParseAmount normalizes a matched token into a positive decimal amount.
func ParseAmount(match string) (decimal.Decimal, error) {
	s := strings.TrimSpace(match)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", match, err)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("non-positive amount %q", match)
	}
	if d.GreaterThan(maxPlausible) {
		return decimal.Zero, fmt.Errorf("implausible amount %q", match)
	}
	return d, nil
}

// BestAmount picks the most likely receipt total from the candidates.
// TOTAL-context lines outrank larger bare numbers; subtotal lines are
// penalized so they do not beat the final total. Ties resolve to the larger
// amount and then the lexicographically smaller token, so the pick is
// deterministic for a given OCR output.
func BestAmount(cands []Candidate) (decimal.Decimal, string, bool) {
	type scored struct {
		amount decimal.Decimal
		raw    string
		score  int
	}
	scoreFor := func(c Candidate) int {
		s := 0
		line := strings.ToLower(c.Line)
		switch {
		case strings.Contains(line, "subtotal") || strings.Contains(line, "sub-total"):
			s -= 4
		case strings.Contains(line, "grand total"):
			s += 10
		case strings.Contains(line, "total"):
			s += 8
		}
		if strings.Contains(line, "amount due") || strings.Contains(line, "balance due") {
			s += 6
		}
		if strings.Contains(c.Match, "$") {
			s += 2
		}
		if strings.Contains(c.Match, ".") {
			s += 3
		}
		return s
	}

	var best *scored
	for _, c := range cands {
		amount, err := ParseAmount(c.Match)
		if err != nil {
			continue
		}
		cur := scored{amount: amount, raw: c.Match, score: scoreFor(c)}
		if best == nil {
			b := cur
			best = &b
			continue
		}
		replace := cur.score > best.score
		if cur.score == best.score {
			if cur.amount.GreaterThan(best.amount) {
				replace = true
			} else if cur.amount.Equal(best.amount) && cur.raw < best.raw {
				replace = true
			}
		}
		if replace {
			*best = cur
		}
	}
	if best == nil {
		return decimal.Zero, "", false
	}
	return best.amount, best.raw, true
}
