// Package leads resolves raw candidate items into canonical startup records
// with attached evidence.
package leads

import (
	"regexp"
	"strings"
)

// legalSuffixes are stripped from the end of proposed company names.
var legalSuffixes = []string{
	"inc.", "inc", "llc", "ltd.", "ltd", "corp.", "corp",
	"co.", "gmbh", "s.a.", "plc", "limited", "incorporated",
}

// nameStoplist holds generic words that are never company names on their own.
var nameStoplist = map[string]struct{}{
	"the": {}, "app": {}, "api": {}, "sdk": {}, "tool": {}, "library": {},
	"framework": {}, "platform": {}, "service": {}, "product": {},
	"startup": {}, "company": {}, "team": {}, "project": {}, "website": {},
	"new": {}, "best": {}, "top": {}, "free": {}, "open": {}, "beta": {},
}

// personalAccountPatterns reject handles that look like individual accounts
// rather than companies.
var personalAccountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\w+\d+$`),
	regexp.MustCompile(`(?i)^(mr|ms|dr)[-_]?\w+$`),
	regexp.MustCompile(`^[a-z]+[-_.][a-z]+$`),
}

var whitespacePattern = regexp.MustCompile(`\s+`)

// NormalizeName trims a proposed name, strips trailing legal suffixes and
// returns the display form plus the case-folded lookup key.
func NormalizeName(name string) (display, key string) {
	display = whitespacePattern.ReplaceAllString(strings.TrimSpace(name), " ")
	display = strings.Trim(display, `"'`)

	lower := strings.ToLower(display)
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(lower, " "+suffix) {
			display = strings.TrimSpace(display[:len(display)-len(suffix)-1])
			display = strings.TrimRight(display, ",")
			lower = strings.ToLower(display)
			break
		}
	}

	return display, strings.ToLower(display)
}

// ValidName reports whether a normalized display name is usable as a lead.
func ValidName(display string) bool {
	if len(display) < 2 || len(display) > 100 {
		return false
	}
	lower := strings.ToLower(display)
	if _, stopped := nameStoplist[lower]; stopped {
		return false
	}
	for _, pattern := range personalAccountPatterns {
		if pattern.MatchString(display) {
			return false
		}
	}
	return true
}
