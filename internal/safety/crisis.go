// Package safety screens user messages for crisis-risk language before any
// text generation happens.
package safety

import (
	"regexp"
	"unicode/utf8"
)

// Response is the fixed reply sent instead of a generated one when Detect
// matches. It is never produced by the model.
const Response = `I'm really glad you're talking to me, and I want to make sure you're safe. What you're describing sounds serious.

I'm not able to provide the support you need right now, but there are people who can. If you're in crisis:
- **UK**: Samaritans at 116 123 (free, 24/7)
- **US**: 988 Suicide & Crisis Lifeline
- **Singapore**: Samaritans of Singapore at 1-767
- **International**: findahelpline.com

You don't have to go through this alone. Would it be okay to reach out to one of these resources, or is there someone in your life you could call?`

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)hurt\s+(myself|me)`),
	regexp.MustCompile(`(?i)kill\s+(myself|me)`),
	regexp.MustCompile(`(?i)suicide`),
	regexp.MustCompile(`(?i)end\s+(it|my\s+life)`),
	regexp.MustCompile(`(?i)don'?t\s+want\s+to\s+(be\s+here|live|exist)`),
	regexp.MustCompile(`(?i)no\s+point\s+(in|to)\s+(living|life)`),
	regexp.MustCompile(`(?i)want\s+to\s+die`),
	regexp.MustCompile(`(?i)better\s+off\s+(dead|without\s+me)`),
	regexp.MustCompile(`(?i)can'?t\s+go\s+on`),
	regexp.MustCompile(`(?i)self[- ]?harm`),
}

// Detect reports whether text contains any crisis indicator.
func Detect(text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// Preview trims text to at most n runes for safety logging so full message
// bodies never reach the logs.
func Preview(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return string(r[:n]) + "..."
}
