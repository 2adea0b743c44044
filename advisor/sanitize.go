package advisor

import (
	"regexp"
	"strings"
	"unicode"
)

var fencedJSONPattern = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// sanitizeJSONPayload extracts the JSON object from a model reply that may
// be wrapped in a markdown fence or surrounded by prose.
func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ""
	}

	if m := fencedJSONPattern.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}

	first := strings.IndexByte(trimmed, '{')
	last := strings.LastIndexByte(trimmed, '}')
	if first >= 0 && last > first {
		return strings.TrimSpace(trimmed[first : last+1])
	}
	return trimmed
}

// normalizeAdviceNote drops notes the model produced only in Latin script;
// the bot speaks Russian and a stray English sentence reads like a glitch.
func normalizeAdviceNote(note string) string {
	note = strings.TrimSpace(note)
	if note == "" {
		return ""
	}
	hasLatin, hasCyrillic := false, false
	for _, r := range note {
		switch {
		case r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z':
			hasLatin = true
		case unicode.Is(unicode.Cyrillic, r):
			hasCyrillic = true
		}
	}
	if hasLatin && !hasCyrillic {
		return ""
	}
	return note
}

// preview flattens a model reply to one log-friendly line.
func preview(value string) string {
	oneLine := strings.ReplaceAll(strings.ReplaceAll(value, "\n", "\\n"), "\r", "")
	if len(oneLine) <= 220 {
		return oneLine
	}
	return oneLine[:220] + "..."
}
