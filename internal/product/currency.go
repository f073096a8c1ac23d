package product

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	brlSymbol = "R$"
	nbsp      = "\u00a0"

	// maxValueLen is the width of the value column, in characters.
	maxValueLen = 15
)

// ErrInvalidValue is returned by FormatBRL for input that is not a monetary amount
// or that does not fit the value column once formatted.
var ErrInvalidValue = errors.New("invalid monetary value")

// FormatBRL renders raw as Brazilian reais, e.g. "1234.5" becomes "R$ 1.234,50"
// with a non-breaking space after the symbol. raw may be a plain decimal number
// or a string FormatBRL already produced, so formatting is stable under re-application.
// Amounts are rounded half away from zero to two places.
func FormatBRL(raw string) (string, error) {
	d, err := parseAmount(raw)
	if err != nil {
		return "", err
	}

	fixed := d.Round(2).StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(brlSymbol)
	b.WriteString(nbsp)
	b.WriteString(groupThousands(intPart))
	b.WriteByte(',')
	b.WriteString(frac)

	out := b.String()
	if utf8.RuneCountInString(out) > maxValueLen {
		return "", ErrInvalidValue
	}
	return out, nil
}

// parseAmount accepts "30", "30.5", "-12" and BRL-formatted input such as
// "R$ 1.234,56" (any mix of regular and non-breaking spaces).
func parseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, nbsp, " "))
	if s == "" {
		return decimal.Decimal{}, ErrInvalidValue
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}

	brl := false
	if rest, ok := strings.CutPrefix(s, brlSymbol); ok {
		brl = true
		s = strings.TrimSpace(rest)
	}
	if strings.Contains(s, ",") {
		brl = true
	}
	if brl {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}

	if s == "" || strings.ContainsAny(s, " eE+-,") {
		return decimal.Decimal{}, ErrInvalidValue
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidValue
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// groupThousands inserts "." every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
