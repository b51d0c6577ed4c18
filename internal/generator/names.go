package generator

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Names holds the spellings of one identifier used by the templates.
type Names struct {
	Raw          string
	Snake        string // book_author
	Pascal       string // BookAuthor
	Camel        string // bookAuthor
	Kebab        string // book-author
	Upper        string // BOOK_AUTHOR
	Plural       string // book_authors
	PluralPascal string // BookAuthors
	PluralCamel  string // bookAuthors
}

// NameVariants computes every spelling of name.
func NameVariants(name string) Names {
	words := splitWords(name)
	plural := pluralWords(words)
	return Names{
		Raw:          name,
		Snake:        strings.Join(words, "_"),
		Pascal:       pascalWords(words),
		Camel:        camelWords(words),
		Kebab:        strings.Join(words, "-"),
		Upper:        strings.ToUpper(strings.Join(words, "_")),
		Plural:       strings.Join(plural, "_"),
		PluralPascal: pascalWords(plural),
		PluralCamel:  camelWords(plural),
	}
}

// Snake returns the snake_case spelling of name.
func Snake(name string) string {
	return strings.Join(splitWords(name), "_")
}

// Pascal returns the PascalCase spelling of name.
func Pascal(name string) string {
	return pascalWords(splitWords(name))
}

// Camel returns the camelCase spelling of name.
func Camel(name string) string {
	return camelWords(splitWords(name))
}

// Plural returns the snake_case plural of name.
func Plural(name string) string {
	return strings.Join(pluralWords(splitWords(name)), "_")
}

// splitWords breaks an identifier on separators and case changes and
// lowercases every word. "HTTPServer_config" gives [http server config].
func splitWords(name string) []string {
	runes := []rune(norm.NFC.String(strings.TrimSpace(name)))
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func pluralWords(words []string) []string {
	if len(words) == 0 {
		return nil
	}
	out := make([]string, len(words))
	copy(out, words)
	out[len(out)-1] = inflection.Plural(out[len(out)-1])
	return out
}

func pascalWords(words []string) string {
	// A Caser keeps state; one per call.
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(caser.String(w))
	}
	return b.String()
}

func camelWords(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[0] + pascalWords(words[1:])
}
