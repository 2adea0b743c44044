package weather

import (
	"strings"
	"unicode"
)

// cityAliases maps frequent Russian city spellings straight to the English
// names OpenWeather resolves most reliably.
var cityAliases = map[string]string{
	"санкт-петербург": "Saint Petersburg",
	"санкт петербург": "Saint Petersburg",
	"питер":           "Saint Petersburg",
	"москва":          "Moscow",
	"екатеринбург":    "Yekaterinburg",
	"нижний новгород": "Nizhny Novgorod",
}

var translitTable = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d",
	'е': "e", 'ё': "e", 'ж': "zh", 'з': "z", 'и': "i",
	'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n",
	'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t",
	'у': "u", 'ф': "f", 'х': "h", 'ц': "ts", 'ч': "ch",
	'ш': "sh", 'щ': "sch", 'ъ': "", 'ь': "", 'ы': "y",
	'э': "e", 'ю': "yu", 'я': "ya",
}

// cityCandidates expands a raw city query into the ordered, de-duplicated
// list of spellings to try against OpenWeather: the original, a known
// alias, and a transliteration, each with and without an ",RU" hint.
func cityCandidates(city string) []string {
	original := strings.TrimSpace(city)
	normalized := normalizeCity(original)

	var values []string
	seen := make(map[string]struct{})
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}

	add(original)
	add(original + ",RU")

	if alias, ok := cityAliases[normalized]; ok {
		add(alias)
		add(alias + ",RU")
	}

	if translit := transliterateRuToEn(normalized); strings.TrimSpace(translit) != "" {
		add(capitalizeWords(translit))
		add(capitalizeWords(translit) + ",RU")
	}

	return values
}

func normalizeCity(city string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(city)), "ё", "е")
}

func transliterateRuToEn(text string) string {
	var sb strings.Builder
	for _, r := range text {
		if replacement, ok := translitTable[r]; ok {
			sb.WriteString(replacement)
		} else {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(strings.ReplaceAll(sb.String(), "-", " "))
}

func capitalizeWords(text string) string {
	parts := strings.Fields(text)
	for i, part := range parts {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
