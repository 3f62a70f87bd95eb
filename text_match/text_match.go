// Package text_match holds the normalisation and containment tests shared by
// the text pipeline and the keyword spotter.
//
// Go's regexp \b only knows ASCII word characters, so every boundary test here
// works on runes instead.
package text_match

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(norm.NFC, cases.Lower(language.Russian))
	},
}

// Normalize composes, lower-cases and collapses whitespace
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = strings.ToLower(s)
	}

	return strings.Join(strings.Fields(ns), " ")
}

// IsWord reports whether r belongs to a word
func IsWord(r rune) bool {
	if r == utf8.RuneError || r == 0 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r)
}

// Token is a word and its byte span [Start,End) in the text it came from
type Token struct {
	Text  string
	Start int
	End   int
}

// Tokens splits s into runs of word runes
func Tokens(s string) []Token {
	var (
		out   []Token
		start = -1
	)
	for i, r := range s {
		if IsWord(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, Token{Text: s[start:i], Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, Token{Text: s[start:], Start: start, End: len(s)})
	}
	return out
}

// Words returns only the token texts of s
func Words(s string) []string {
	ts := Tokens(s)
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Text
	}
	return out
}

func boundaryBefore(s string, i int) bool {
	if i <= 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !IsWord(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !IsWord(r)
}

// ContainsWordStart reports whether needle occurs in s starting at a word boundary.
// It is still substring containment on the right, "кухн" matches "кухне".
func ContainsWordStart(s, needle string) bool {
	return indexWith(s, needle, false) >= 0
}

// ContainsWord reports whether needle occurs in s as whole words
func ContainsWord(s, needle string) bool {
	return indexWith(s, needle, true) >= 0
}

func indexWith(s, needle string, whole bool) int {
	if needle == "" {
		return -1
	}
	for off := 0; off <= len(s)-len(needle); {
		i := strings.Index(s[off:], needle)
		if i < 0 {
			return -1
		}
		i += off
		end := i + len(needle)
		if boundaryBefore(s, i) && (!whole || boundaryAfter(s, end)) {
			return i
		}
		_, sz := utf8.DecodeRuneInString(s[i:])
		off = i + sz
	}
	return -1
}

// HasSuffixWord reports whether s ends with needle and needle starts at a word boundary
func HasSuffixWord(s, needle string) bool {
	if needle == "" || !strings.HasSuffix(s, needle) {
		return false
	}
	return boundaryBefore(s, len(s)-len(needle))
}

// TrimPunct trims whitespace and punctuation from both ends
func TrimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
}
