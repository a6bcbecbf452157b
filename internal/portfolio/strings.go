package portfolio

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// removeDiacritics folds accented letters to their base form ("Jiří" -> "Jiri").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SanitizeFilename keeps letters, digits, dots, underscores and hyphens.
// Accents are folded first, anything else becomes "_".
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(removeDiacritics(name), "_")
}

// Truncate shortens text to at most length runes, ending with "..." when cut.
func Truncate(text string, length int) string {
	if text == "" {
		return ""
	}
	if utf8.RuneCountInString(text) <= length {
		return text
	}
	r := []rune(text)
	return string(r[:max(length-3, 0)]) + "..."
}

// Capitalize upper-cases the first letter.
func Capitalize(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + text[size:]
}

// SplitTags parses a comma separated tag field.
func SplitTags(value string) []string {
	if strings.TrimSpace(value) == "" {
		return []string{}
	}
	return NormalizeTags(strings.Split(value, ","))
}

// NormalizeTags trims tags and drops empty ones. It never returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// VisibleTags returns the first limit normalized tags.
func VisibleTags(tags []string, limit int) []string {
	normalized := NormalizeTags(tags)
	if limit < 0 {
		limit = 0
	}
	if len(normalized) > limit {
		normalized = normalized[:limit]
	}
	return normalized
}

// PrimaryTag returns the first non-empty tag, or "".
func PrimaryTag(tags []string) string {
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			return tag
		}
	}
	return ""
}

// FormatTagLabel renders a tag for display.
func FormatTagLabel(tag string) string {
	return Capitalize(tag)
}
