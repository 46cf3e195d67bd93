package models

import "strings"

// FiatCodes lists the supported conversion targets in display order.
var FiatCodes = []string{"inr", "usd", "eur", "gbp", "aed", "aud"}

var fiatLabels = map[string]string{
	"usd": "USD",
	"inr": "INR",
	"eur": "EUR",
	"gbp": "GBP",
	"aed": "AED",
	"aud": "AUD",
}

var fiatFlags = map[string]string{
	"inr": "🇮🇳",
	"usd": "🇺🇸",
	"eur": "🇪🇺",
	"gbp": "🇬🇧",
	"aed": "🇦🇪",
	"aud": "🇦🇺",
}

// FiatLabel returns the display label for a fiat code, e.g. "usd" -> "USD".
// Unknown codes are upper-cased.
func FiatLabel(code string) string {
	code = strings.ToLower(code)
	if l, ok := fiatLabels[code]; ok {
		return l
	}
	return strings.ToUpper(code)
}

// FiatFlag returns the flag emoji for a fiat code, or "".
func FiatFlag(code string) string {
	return fiatFlags[strings.ToLower(code)]
}

// IsFiat reports whether code is one of FiatCodes.
func IsFiat(code string) bool {
	_, ok := fiatLabels[strings.ToLower(code)]
	return ok
}
