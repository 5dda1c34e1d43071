package rendering

import (
	"math"
	"strconv"
	"strings"
)

// Placeholder is displayed for missing optional values.
const Placeholder = "-"

// FormatCurrency formats v with two decimals and comma thousands separators,
// e.g. 1234.5 -> "1,234.50".
func FormatCurrency(v float64) string {
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	neg := v < 0 && s != "0.00"

	intPart, frac, _ := strings.Cut(s, ".")
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(d)
	}
	sb.WriteByte('.')
	sb.WriteString(frac)
	return sb.String()
}

// CompensationText renders an optional amount with its currency code. Absent or
// non-finite amounts render as the placeholder; zero renders as "0.00".
func CompensationText(amount *float64, currency string) string {
	if amount == nil || math.IsNaN(*amount) || math.IsInf(*amount, 0) {
		return Placeholder
	}
	formatted := FormatCurrency(*amount)
	if currency = strings.TrimSpace(currency); currency != "" {
		return currency + " " + formatted
	}
	return formatted
}
