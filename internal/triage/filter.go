package triage

import "regexp"

// blockedPatterns reject obvious spam before any model call: pharma/casino
// spam words and URLs.
var blockedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(spam|viagra|cialis|casino|lottery|winner)\b`),
	regexp.MustCompile(`(?i)\b(http|https|www\.)`),
}

// maxRepeatedRun is the longest run of one repeated character allowed in a
// message before it is treated as keyboard mashing.
const maxRepeatedRun = 10

// ContainsBlockedContent reports whether a message trips the spam filter.
func ContainsBlockedContent(message string) bool {
	for _, pattern := range blockedPatterns {
		if pattern.MatchString(message) {
			return true
		}
	}
	return hasRepeatedRun(message, maxRepeatedRun+1)
}

func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}
