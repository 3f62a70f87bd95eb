// Package numerals turns spoken number words into integers
package numerals

import (
	"strconv"

	"home-voice-control/lexicon"
	"home-voice-control/text_match"
)

// Parser converts runs of number words using one lexicon
type Parser struct {
	lex *lexicon.Lexicon
}

// New returns a parser, lex falls back to the default lexicon when nil
func New(lex *lexicon.Lexicon) *Parser {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Parser{lex: lex}
}

// ParseNumber looks the whole phrase up first, then sums every word it knows.
//
// The sum is additive only: "двадцать два" gives 22 but "сто сто" gives 200.
// A zero sum reports false, so "ноль" is not a number here.
func (p *Parser) ParseNumber(phrase string) (int, bool) {
	phrase = text_match.Normalize(phrase)
	if phrase == "" {
		return 0, false
	}

	if v, ok := p.value(phrase); ok && v > 0 {
		return v, true
	}

	total := 0
	for _, w := range text_match.Words(phrase) {
		if v, ok := p.value(w); ok {
			total += v
		}
	}
	if total > 0 {
		return total, true
	}
	return 0, false
}

// IsNumeral reports whether a single word is a number word or a digit run
func (p *Parser) IsNumeral(word string) bool {
	_, ok := p.value(word)
	return ok
}

func (p *Parser) value(word string) (int, bool) {
	if v, ok := p.lex.Number(word); ok {
		return v, true
	}
	if isDigits(word) {
		v, err := strconv.Atoi(word)
		if err == nil {
			return v, true
		}
	}
	return 0, false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
