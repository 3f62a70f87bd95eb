// Package slots fills the action, object and value of one command segment
package slots

import (
	"regexp"
	"strconv"
	"strings"

	"home-voice-control/intent"
	"home-voice-control/lexicon"
	"home-voice-control/numerals"
	"home-voice-control/text_match"
)

const (
	degreeSuffix  = " градусов"
	percentSuffix = "%"
	// longest numeral phrase looked at, "сто двадцать пять"
	maxNumeralWords = 3
)

var digitsRegexp = regexp.MustCompile(`[0-9]+`)

// Extractor reads slots out of segment text
type Extractor struct {
	lex     *lexicon.Lexicon
	numbers *numerals.Parser
}

// New returns an extractor, lex falls back to the default lexicon when nil
func New(lex *lexicon.Lexicon) *Extractor {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Extractor{lex: lex, numbers: numerals.New(lex)}
}

// Extract never fails, slots it can't fill stay nil
func (e *Extractor) Extract(segment string) intent.TaskIntent {
	text := text_match.Normalize(segment)
	return intent.TaskIntent{
		Action:     firstEntry(e.lex.Actions(), text),
		Object:     firstEntry(e.lex.Objects(), text),
		Value:      e.value(text),
		SourceText: segment,
	}
}

func firstEntry(es []lexicon.Entry, text string) *string {
	for _, en := range es {
		for _, s := range en.Synonyms {
			if text_match.ContainsWordStart(text, s) {
				return intent.Str(en.Key)
			}
		}
	}
	return nil
}

func (e *Extractor) value(text string) *string {
	vc := e.lex.ValueContext()
	degree := containsAny(text, vc.Degree)
	percent := containsAny(text, vc.Percent)

	if d := digitsRegexp.FindString(text); d != "" {
		switch {
		case degree:
			return intent.Str(d + degreeSuffix)
		case percent:
			return intent.Str(d + percentSuffix)
		default:
			return intent.Str(d)
		}
	}

	words := text_match.Words(text)

	if percent {
		if n, ok := e.beforeAnchor(words, vc.PercentAnchors); ok {
			return intent.Str(strconv.Itoa(n) + percentSuffix)
		}
	}
	if n, ok := e.beforeAnchor(words, vc.DegreeAnchors); ok {
		return intent.Str(strconv.Itoa(n) + degreeSuffix)
	}

	if n, ok := e.anyNumeral(words); ok {
		return intent.Str(strconv.Itoa(n))
	}

	for _, q := range e.lex.Qualitative() {
		for _, s := range q.Synonyms {
			if text_match.ContainsWord(text, s) {
				return intent.Str(q.Key)
			}
		}
	}
	return nil
}

// beforeAnchor parses the few words in front of every word starting with one
// of anchors, first hit wins
func (e *Extractor) beforeAnchor(words, anchors []string) (int, bool) {
	for i, w := range words {
		if i == 0 || !hasAnyPrefix(w, anchors) {
			continue
		}
		from := i - maxNumeralWords
		if from < 0 {
			from = 0
		}
		if n, ok := e.numbers.ParseNumber(strings.Join(words[from:i], " ")); ok {
			return n, true
		}
	}
	return 0, false
}

// anyNumeral takes the longest run of numeral words from the first position
// that parses. The run is greedy, "двадцать два" is 22 and not 20.
func (e *Extractor) anyNumeral(words []string) (int, bool) {
	for i := range words {
		j := i
		for j < len(words) && j-i < maxNumeralWords && e.numbers.IsNumeral(words[j]) {
			j++
		}
		if j == i {
			continue
		}
		if n, ok := e.numbers.ParseNumber(strings.Join(words[i:j], " ")); ok {
			return n, true
		}
	}
	return 0, false
}

func containsAny(text string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(w string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(w, p) {
			return true
		}
	}
	return false
}
