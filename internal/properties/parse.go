// Package properties maps commercial property listings between Notion pages and
// cre_properties database rows.
package properties

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rateNumberRe = regexp.MustCompile(`\d+\.?\d*`)
	sqftStripper = strings.NewReplacer(",", "", " ", "", "\t", "", "\n", "")
	rateStripper = strings.NewReplacer("$", "", ",", "")
)

// isBlank reports whether a free-text value carries no information.
func isBlank(text string) bool {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "", "N/A", "TBD":
		return true
	}
	return false
}

// ParseSquareFootage parses "1,000-45,000" into a min/max pair. A single
// value yields min == max. Unparseable or blank text yields nil, nil.
func ParseSquareFootage(text string) (lo, hi *int) {
	if isBlank(text) {
		return nil, nil
	}

	cleaned := sqftStripper.Replace(text)

	if strings.Contains(cleaned, "-") {
		parts := strings.Split(cleaned, "-")
		if len(parts) != 2 {
			return nil, nil
		}
		minVal, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, nil
		}
		maxVal, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, nil
		}
		return &minVal, &maxVal
	}

	v, err := strconv.Atoi(cleaned)
	if err != nil {
		return nil, nil
	}
	return &v, &v
}

// ParseRate extracts the first number from a rate such as "$24.50/SF/YR".
func ParseRate(text string) *float64 {
	if isBlank(text) {
		return nil
	}

	match := rateNumberRe.FindString(rateStripper.Replace(text))
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}
