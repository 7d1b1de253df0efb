package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyPattern = regexp.MustCompile(`(?i)\b(?:pkrs?|rs\.?)\b`)
	amountPattern   = regexp.MustCompile(`(?i)(\d[\d,.]*)\s*(crore|lakh|million|thousand|k\b|m\b|b\b)?`)
	digitRunPattern = regexp.MustCompile(`\d[\d,]*`)
)

// magnitudes maps the suffix words Zameen uses onto multipliers. Crore and
// lakh are the South-Asian forms; the rest show up in agent-entered text.
var magnitudes = map[string]float64{
	"crore":    1e7,
	"lakh":     1e5,
	"million":  1e6,
	"thousand": 1e3,
	"k":        1e3,
	"m":        1e6,
	"b":        1e9,
}

// NormalizePrice turns a displayed price like "PKR 4.8 Crore" into a plain
// number and a currency code. ok is false when no usable number was found;
// the currency may still be set in that case. Non-positive amounts count as
// absent.
func NormalizePrice(text string) (value float64, currency string, ok bool) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
	if text == "" {
		return 0, "", false
	}

	if currencyPattern.MatchString(text) {
		currency = "PKR"
	}

	var raw, suffix string
	if m := amountPattern.FindStringSubmatch(text); m != nil {
		raw, suffix = m[1], strings.ToLower(m[2])
	} else if r := digitRunPattern.FindString(text); r != "" {
		raw = r
	} else {
		return 0, currency, false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, currency, false
	}
	if mult, found := magnitudes[suffix]; found {
		value *= mult
	}
	if value <= 0 {
		return 0, currency, false
	}
	return value, currency, true
}
