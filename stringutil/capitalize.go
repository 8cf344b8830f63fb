// Package stringutil holds small text helpers: word capitalization and URL
// slugs.
package stringutil

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// wordStart matches a word character that begins a word. Word characters are
// ASCII letters, digits and '_'.
var wordStart = regexp.MustCompile(`\b\w`)

// Capitalize upper-cases the first character of every word and leaves the
// rest of the text alone. Any non-word character starts a new word, so
// "mary-jane" becomes "Mary-Jane" and "it's" becomes "It'S".
func Capitalize(text string) string {
	return wordStart.ReplaceAllStringFunc(text, strings.ToUpper)
}

// CapitalizeFirst upper-cases the first character of text and lower-cases
// everything after it: "hELLO wORLD" becomes "Hello world".
func CapitalizeFirst(text string) string {
	return CapitalizeFirstIn(language.Und, text)
}

// CapitalizeFirstIn is CapitalizeFirst using the casing rules of a specific
// language, e.g. language.Turkish maps "i" to "İ".
func CapitalizeFirstIn(tag language.Tag, text string) string {
	if text == "" {
		return text
	}

	_, size := utf8.DecodeRuneInString(text)

	return cases.Upper(tag).String(text[:size]) + cases.Lower(tag).String(text[size:])
}
