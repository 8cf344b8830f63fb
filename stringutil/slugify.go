package stringutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// RE2's \s is ASCII only; separators also include vertical tab, the Unicode
// space, line and paragraph separators, and the byte order mark.
var (
	nonSlugChars  = regexp.MustCompile(`[^\w\s\v\p{Z}\x{FEFF}-]`)
	separatorRuns = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}_-]+`)
)

// foldReplacements spells out characters that lose meaning when their marks
// are stripped.
var foldReplacements = map[rune]string{ //nolint:gochecknoglobals
	'ä': "ae", 'Ä': "Ae", 'ö': "oe", 'Ö': "Oe",
	'ü': "ue", 'Ü': "Ue", 'ß': "ss", 'æ': "ae",
	'Æ': "Ae", 'ø': "o", 'Ø': "O", 'ł': "l", 'Ł': "L",
	'&': " and ", '@': " at ",
}

// Slugify turns text into a URL-friendly slug: lower case words joined by
// single hyphens. Characters other than ASCII letters, digits, whitespace,
// '_' and '-' are dropped, so "café" becomes "caf". Use SlugifyFolded to keep
// accented letters as their base letter.
//
// Example:
//
//	stringutil.Slugify("The Quick Brown Fox!") // "the-quick-brown-fox"
func Slugify(text string) string {
	slug := strings.TrimSpace(cases.Lower(language.Und).String(text))
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = separatorRuns.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}

// SlugifyFolded is Slugify after folding text to ASCII: accents are removed
// ("café" becomes "cafe"), a few letters are spelled out ("ß" becomes "ss")
// and '&' and '@' become words.
func SlugifyFolded(text string) string {
	return Slugify(Fold(text))
}

// Fold removes combining marks from text after canonical decomposition and
// applies the spelled-out replacements used by SlugifyFolded. Characters
// without an ASCII form are kept.
func Fold(text string) string {
	var sb strings.Builder

	for _, r := range text {
		if repl, ok := foldReplacements[r]; ok {
			sb.WriteString(repl)
		} else {
			sb.WriteRune(r)
		}
	}

	decomposed := norm.NFD.String(sb.String())
	sb.Reset()

	for _, r := range decomposed {
		if unicode.IsMark(r) {
			continue
		}

		sb.WriteRune(r)
	}

	return norm.NFC.String(sb.String())
}
