package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var ratingRe = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)

// parseRating pulls the first numeric value out of rating text such as
// "4.5", "4,5 von 5", or "Rated 4 out of 5 stars".
func parseRating(text string) (float64, bool) {
	raw := ratingRe.FindString(text)
	if raw == "" {
		return 0, false
	}
	raw = strings.Replace(raw, ",", ".", 1)
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
