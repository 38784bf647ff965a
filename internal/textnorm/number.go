// Package textnorm holds the locale-aware number parsing and text normalization helpers
// shared by every import path (RFQ quotes, packing lists, product catalogs).
package textnorm

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseLocalizedNumber parses a free-text number that may use either ',' or '.' as the
// decimal separator, with or without thousands separators.
//
// Rules:
//   - both separators present: the rightmost one is the decimal separator, the other is dropped
//   - only ',' present: it is the decimal separator; repeated commas keep only the last one
//   - only '.' present more than once: all but the last are dropped
//
// The boolean is false when the cleaned input is empty or not a number. Callers decide what
// an absent value means; it is never silently turned into zero here.
func ParseLocalizedNumber(raw string) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, raw)
	if s == "" {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndexByte(s, ',')
	lastDot := strings.LastIndexByte(s, '.')

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = keepLastSeparator(s, ',')
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
			s = keepLastSeparator(s, '.')
		}
	case lastComma >= 0:
		s = keepLastSeparator(s, ',')
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		s = keepLastSeparator(s, '.')
	}

	if !isPlainNumber(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseLocalizedNumberNull wraps ParseLocalizedNumber into a decimal.NullDecimal.
func ParseLocalizedNumberNull(raw string) decimal.NullDecimal {
	d, ok := ParseLocalizedNumber(raw)
	return decimal.NullDecimal{Decimal: d, Valid: ok}
}

// keepLastSeparator removes every occurrence of sep except the last one.
func keepLastSeparator(s string, sep byte) string {
	last := strings.LastIndexByte(s, sep)
	if last < 0 {
		return s
	}
	head := strings.ReplaceAll(s[:last], string(sep), "")
	return head + s[last:]
}

// isPlainNumber accepts an optional sign, digits and at most one '.' with at least one digit.
func isPlainNumber(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	digits := 0
	dots := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}
