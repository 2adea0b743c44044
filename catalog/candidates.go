package catalog

import (
	"net/url"
	"strings"
	"unicode"
)

var translitTable = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sch", 'ъ': "", 'ь': "", 'ы': "y",
	'э': "e", 'ю': "yu", 'я': "ya",
}

// normalizeQuery lowercases, trims, and folds ё into е so cache keys and
// dictionary lookups are spelling-stable.
func normalizeQuery(value string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "ё", "е")
}

func containsCyrillic(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

func transliterateRuToEn(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		if replacement, ok := translitTable[r]; ok {
			sb.WriteString(replacement)
		} else {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// candidateSet accumulates provider query spellings in insertion order,
// dropping duplicates and garbage left over from URL encoding.
type candidateSet struct {
	seen   map[string]struct{}
	values []string
}

func newCandidateSet() *candidateSet {
	return &candidateSet{seen: make(map[string]struct{})}
}

func (c *candidateSet) add(raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}
	value := normalizeQuery(strings.ReplaceAll(raw, "+", " "))
	if strings.Contains(value, "%") {
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = normalizeQuery(decoded)
		}
	}
	if value == "" {
		return
	}
	// Leftover percent-encoded Cyrillic means the decode failed; such a
	// candidate can never match a provider.
	if strings.Contains(value, "%d0") || strings.Contains(value, "%d1") {
		return
	}
	if _, ok := c.seen[value]; ok {
		return
	}
	c.seen[value] = struct{}{}
	c.values = append(c.values, value)
}
