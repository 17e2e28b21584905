package textutil

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultPlaceholder is the group token used when sanitizing leaves nothing.
const DefaultPlaceholder = "ungrouped"

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	underscoreRun = regexp.MustCompile(`_{2,}`)
)

// fileNameStripper removes characters that are illegal in file names on common
// filesystems.
var fileNameStripper = strings.NewReplacer(
	"/", "",
	"\\", "",
	":", "",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeGroupToken converts a group key into a filesystem-safe base token.
// Whitespace runs become a single underscore, illegal characters are removed,
// repeated underscores collapse, and leading/trailing underscores are trimmed.
// An empty result yields placeholder (DefaultPlaceholder when blank).
func SanitizeGroupToken(group, placeholder string) string {
	value := strings.TrimSpace(group)
	value = whitespaceRun.ReplaceAllString(value, "_")
	value = fileNameStripper.Replace(value)
	value = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, value)
	value = underscoreRun.ReplaceAllString(value, "_")
	value = strings.Trim(value, "_")
	value = strings.TrimRight(value, ". ")
	if value == "" {
		placeholder = strings.TrimSpace(placeholder)
		if placeholder == "" {
			return DefaultPlaceholder
		}
		return placeholder
	}
	return value
}

// FileExtension returns the lowercase extension of origin including the dot,
// or an empty string when origin has none.
func FileExtension(origin string) string {
	ext := filepath.Ext(strings.TrimSpace(origin))
	if ext == "." {
		return ""
	}
	return strings.ToLower(ext)
}

// TitleCase renders s for display, e.g. "pending_match" becomes "Pending Match".
func TitleCase(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", " ")
	return cases.Title(language.English).String(s)
}
