package generator

import (
	"strings"
	"unicode"
)

// ToIdentifier turns free text into a PascalCase identifier: every run of
// letters and digits becomes a word with its first letter upper-cased.
// A leading digit gets an underscore prefix.
func ToIdentifier(s string) string {
	var b strings.Builder
	for _, word := range words(s) {
		r := []rune(word)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	id := b.String()
	if id != "" && unicode.IsDigit([]rune(id)[0]) {
		id = "_" + id
	}
	return id
}

// ToCamelCase is ToIdentifier with the first letter lower-cased.
func ToCamelCase(s string) string {
	id := ToIdentifier(s)
	if id == "" || id[0] == '_' {
		return id
	}
	r := []rune(id)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
