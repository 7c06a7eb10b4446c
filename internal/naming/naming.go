// Package naming turns arbitrary user labels into identifiers that are legal
// in every generated target.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Casing selects the output style of ToIdentifier
type Casing int

const (
	// Snake produces lower_snake_case (tables, columns, constraints)
	Snake Casing = iota
	// Pascal produces PascalCase (models, classes)
	Pascal
	// Camel produces camelCase (properties, relation fields)
	Camel
	// Key keeps the source casing and only replaces illegal characters (document keys)
	Key
)

// digit prefixes keep identifiers from starting with a number
var digitPrefix = map[Casing]string{
	Snake:  "n_",
	Pascal: "N",
	Camel:  "n",
	Key:    "_",
}

var lastResort = map[Casing]string{
	Snake:  "field",
	Pascal: "Model",
	Camel:  "field",
	Key:    "field",
}

// ToIdentifier normalizes raw into an identifier of the given casing. When
// nothing usable is left fallback is normalized instead. The result is never
// empty and never starts with a digit.
func ToIdentifier(raw, fallback string, c Casing) string {
	w := words(raw, c)
	if len(w) == 0 {
		w = words(fallback, c)
	}
	if len(w) == 0 {
		w = []string{lastResort[c]}
	}

	var out string
	switch c {
	case Snake:
		out = strings.ToLower(strings.Join(w, "_"))
	case Pascal:
		out = joinTitled(w)
	case Camel:
		out = joinTitled(w)
		if startsWithDigit(out) {
			out = digitPrefix[Pascal] + out
		}
		return lowerFirst(out)
	case Key:
		out = strings.Join(w, "_")
	}

	if startsWithDigit(out) {
		out = digitPrefix[c] + out
	}
	return out
}

// words splits s into identifier words after stripping diacritics
func words(s string, c Casing) []string {
	s = fold(s)
	if s == "" {
		return nil
	}

	var (
		out  []string
		cur  strings.Builder
		prev rune
	)
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if !legal(r, c) {
			flush()
			prev = 0
			continue
		}
		if c != Key && isUpper(r) && (isLower(prev) || isDigit(prev)) {
			flush()
		}
		cur.WriteRune(r)
		prev = r
	}
	flush()
	return out
}

// fold decomposes s and drops combining marks, so "Café" becomes "Cafe"
func fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func legal(r rune, c Casing) bool {
	if isLower(r) || isUpper(r) || isDigit(r) {
		return true
	}
	return c == Key && (r == '_' || r == '$')
}

func joinTitled(w []string) string {
	var b strings.Builder
	for _, word := range w {
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(word[1:])
	}
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func startsWithDigit(s string) bool { return s != "" && isDigit(rune(s[0])) }

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
