// Package lead turns extracted records into deduplicated leads.
package lead

import (
	"regexp"
	"strings"
)

var (
	stateRe = regexp.MustCompile(`\b[A-Z]{2}\b`)
	digitRe = regexp.MustCompile(`[0-9]+`)
)

// ParseCityState pulls the city and two-letter state out of a comma-separated
// street address. The state is the first two-letter uppercase token of the
// last segment and the city is the segment before it, with digits removed.
// Addresses with fewer than two segments yield empty strings.
func ParseCityState(address string) (city, state string) {
	var segments []string
	for _, part := range strings.Split(address, ",") {
		if p := strings.TrimSpace(part); p != "" {
			segments = append(segments, p)
		}
	}
	if len(segments) < 2 {
		return "", ""
	}

	state = stateRe.FindString(segments[len(segments)-1])
	city = strings.Join(strings.Fields(digitRe.ReplaceAllString(segments[len(segments)-2], "")), " ")
	return city, state
}

// InRegion reports whether a parsed address belongs to region. The city must
// be known and the state must equal region exactly.
func InRegion(city, state, region string) bool {
	return city != "" && state != "" && state == region
}
