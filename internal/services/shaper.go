// Package services – response shaping
//
// Raw model output is not allowed into the channel as-is: replies are clipped
// to a couple of sentences and a word budget so the bot reads like a casual
// participant, and responses where the model broke character are rejected
// outright.
package services

import "strings"

// selfDisclosurePhrases are case-insensitive substrings that indicate the
// model dropped its persona. Matching replies are never surfaced.
var selfDisclosurePhrases = []string{
	"i am an ai",
	"i'm an ai",
	"as an ai",
	"language model",
	"i cannot",
	"i can't help",
	"i don't know",
	"sorry, i can't",
}

// LimitResponse bounds text to maxSentences sentences (split on '.') and
// maxWords words, and guarantees a terminal '.', '!' or '?' on any non-empty
// result. Empty input yields empty output; callers must treat that as "no
// usable reply" and suppress sending.
func LimitResponse(text string, maxSentences, maxWords int) string {
	sentences := strings.Split(text, ".")
	kept := make([]string, 0, maxSentences)
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		kept = append(kept, s)
		if len(kept) == maxSentences {
			break
		}
	}
	// Rejoin with ". " so surviving sentence boundaries are preserved; the
	// final terminator is reattached below.
	limited := strings.Join(kept, ". ")

	words := strings.Fields(limited)
	if len(words) > maxWords {
		limited = strings.Join(words[:maxWords], " ")
	}

	limited = strings.TrimSpace(limited)
	if limited != "" && !strings.ContainsRune(".!?", rune(limited[len(limited)-1])) {
		limited += "."
	}
	return limited
}

// IsGoodResponse reports whether a shaped reply is fit to send: at least 3
// characters and free of self-disclosure phrases.
func IsGoodResponse(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 3 {
		return false
	}
	low := strings.ToLower(trimmed)
	for _, phrase := range selfDisclosurePhrases {
		if strings.Contains(low, phrase) {
			return false
		}
	}
	return true
}
