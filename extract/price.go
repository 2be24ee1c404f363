package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// currencySymbols maps the symbols and codes seen in price markup to ISO
// currency codes.
var currencySymbols = []struct {
	marker string
	code   string
}{
	{"£", "GBP"},
	{"€", "EUR"},
	{"$", "USD"},
	{"zł", "PLN"},
	{"kr", "SEK"},
	{"GBP", "GBP"},
	{"EUR", "EUR"},
	{"USD", "USD"},
}

// ParsePrice normalizes locale-specific price text ("£12.99", "1.299,00 €",
// "1,299.00") into a numeric value and an ISO currency code. The code is ""
// when the text carries no recognizable symbol.
func ParsePrice(text string) (float64, string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, "", fmt.Errorf("empty price text")
	}

	currency := ""
	for _, sym := range currencySymbols {
		if strings.Contains(text, sym.marker) {
			currency = sym.code
			break
		}
	}

	value, err := parseLocaleNumber(text)
	if err != nil {
		return 0, "", err
	}
	if value < 0 {
		return 0, "", fmt.Errorf("negative price %v", value)
	}
	return value, currency, nil
}

var numberRe = regexp.MustCompile(`[0-9][0-9.,]*`)

// parseLocaleNumber handles both decimal-comma and decimal-dot formats.
// When both separators appear, the later one is the decimal separator.
// A lone comma or dot followed by exactly three digits is read as a
// thousands separator when other groups precede it.
func parseLocaleNumber(text string) (float64, error) {
	raw := numberRe.FindString(text)
	if raw == "" {
		return 0, fmt.Errorf("no digits in price %q", text)
	}
	raw = strings.Trim(raw, ".,")

	lastComma := strings.LastIndex(raw, ",")
	lastDot := strings.LastIndex(raw, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.299,00 -> dot groups, comma decimal
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			// 1,299.00 -> comma groups, dot decimal
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case lastComma >= 0:
		if sepIsGrouping(raw, ",") {
			raw = strings.ReplaceAll(raw, ",", "")
		} else {
			raw = strings.Replace(raw, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(raw, ".") > 1 || sepIsGrouping(raw, ".") {
			raw = strings.ReplaceAll(raw, ".", "")
		}
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", text, err)
	}
	return value, nil
}

// sepIsGrouping reports whether every occurrence of sep in raw is followed by
// exactly three digits, the signature of a thousands separator.
func sepIsGrouping(raw, sep string) bool {
	parts := strings.Split(raw, sep)
	if len(parts) < 2 {
		return false
	}
	for _, group := range parts[1:] {
		if len(group) != 3 {
			return false
		}
	}
	return true
}
