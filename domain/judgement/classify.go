package judgement

import "strings"

// Markers that identify automated moderation comments.
var automatedMarkers = []string{"I am a bot", "AUTOMOD"}

// IsAutomated reports whether body was written by a bot or the moderation tooling.
func IsAutomated(body string) bool {
	for _, marker := range automatedMarkers {
		if strings.Contains(body, marker) {
			return true
		}
	}
	return false
}

// Classify returns the single judgement expressed in body.
//
// Codes are matched as case-sensitive substrings with no word boundary, so
// "NTAs" counts as NTA. A body mentioning zero or several distinct codes, or
// one flagged by IsAutomated, yields ok == false.
func Classify(body string) (j Judgement, ok bool) {
	if IsAutomated(body) {
		return 0, false
	}

	found := 0
	for _, candidate := range all {
		if strings.Contains(body, codes[candidate]) {
			j = candidate
			found++
		}
	}
	if found != 1 {
		return 0, false
	}
	return j, true
}
