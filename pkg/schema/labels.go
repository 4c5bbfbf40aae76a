package schema

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Humanize turns an identifier into display text: "move_date" → "Move Date".
func Humanize(id string) string {
	words := strings.FieldsFunc(id, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})
	if len(words) == 0 {
		return ""
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
