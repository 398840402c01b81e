package matcher

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePrice recovers a single monetary value from an untrusted price string
// and returns it formatted with two decimals, or "" when no number can be
// recovered. Vignette prices show up as plain numbers, comma-decimal numbers,
// running totals ("120+23+1=144.50") or prose with currency words.
//
// Policy, in priority order:
//  1. an "=" is present: the number trailing the last "=" wins
//  2. a "+" is present: the "+"-separated terms are summed
//  3. otherwise the last number found anywhere in the text is taken, since
//     trailing numbers are more often the price than leading reference codes
//  4. nothing recoverable: "" (callers fall back to the catalog price)
func ParsePrice(s string) string {
	if s == "" {
		return ""
	}

	if idx := strings.LastIndex(s, "="); idx != -1 {
		if value, ok := lastNumber(s[idx+1:]); ok {
			return formatPrice(value)
		}
	}

	if strings.Contains(s, "+") {
		if sum, ok := sumTerms(s); ok {
			return formatPrice(sum)
		}
	}

	if value, ok := lastNumber(s); ok {
		return formatPrice(value)
	}

	return ""
}

// lastNumber returns the last number-like substring of s as a float.
func lastNumber(s string) (float64, bool) {
	matches := numberPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(matches[len(matches)-1], ",", "."), 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

// sumTerms cleans s down to digits, separators and "+" and sums the terms.
func sumTerms(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", ".")

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '+' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if !strings.Contains(cleaned, "+") {
		return 0, false
	}

	var sum float64
	parsed := false
	for _, term := range strings.Split(cleaned, "+") {
		if term == "" {
			continue
		}
		value, err := strconv.ParseFloat(term, 64)
		if err != nil {
			continue
		}
		sum += value
		parsed = true
	}

	return sum, parsed
}

func formatPrice(value float64) string {
	return fmt.Sprintf("%.2f", value)
}
