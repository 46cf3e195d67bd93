// Package utils provides number formatting shared by the UI and the CLI.
package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// printer renders numbers with en-US grouping.
var printer = message.NewPrinter(language.AmericanEnglish)

// FormatLocale formats n with en-US thousands grouping and at most three
// fraction digits, trailing zeros dropped: 200000 → "200,000",
// 1234.5678 → "1,234.568".
func FormatLocale(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "∞"
	case math.IsInf(n, -1):
		return "-∞"
	}
	// Round half away from zero first; the printer alone rounds half to even.
	n = decimal.NewFromFloat(n).Round(3).InexactFloat64()
	s := printer.Sprint(number.Decimal(n, number.MaxFractionDigits(3)))
	if s == "-0" {
		return "0"
	}
	return s
}

// FormatINR formats an amount of rupees for list display, e.g. "₹8,300,000".
func FormatINR(amount float64) string {
	if amount < 0 {
		return "-₹" + FormatLocale(-amount)
	}
	return "₹" + FormatLocale(amount)
}

// FormatChange formats a 24h change with two decimals, e.g. "2.50%".
func FormatChange(pct float64) string {
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatCompact formats large values with K/M/B/T suffixes for narrow
// terminal columns, e.g. 1.6e12 → "1.6T".
func FormatCompact(n float64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	switch {
	case n >= 1e12:
		return sign + trimDecimals(n/1e12) + "T"
	case n >= 1e9:
		return sign + trimDecimals(n/1e9) + "B"
	case n >= 1e6:
		return sign + trimDecimals(n/1e6) + "M"
	case n >= 1e3:
		return sign + trimDecimals(n/1e3) + "K"
	default:
		return sign + trimDecimals(n)
	}
}

// trimDecimals formats a number with up to 2 decimal places,
// removing trailing zeros.
func trimDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
