package wake_word

import (
	"home-voice-control/lexicon"
	"home-voice-control/text_match"
)

type Match int

const (
	MatchNone Match = iota
	MatchWake
	MatchStop
)

func (m Match) String() string {
	switch m {
	case MatchWake:
		return "wake"
	case MatchStop:
		return "stop"
	default:
		return "none"
	}
}

// Spotter finds wake and stop words in transcribed text
type Spotter struct {
	wake []string
	stop []string
}

func NewSpotter(lex *lexicon.Lexicon) *Spotter {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Spotter{wake: lex.WakeWords(), stop: lex.StopWords()}
}

// Classify matches whole words only, a stop word beats a wake word
func (s *Spotter) Classify(text string) Match {
	text = text_match.Normalize(text)
	if text == "" {
		return MatchNone
	}
	if containsAny(text, s.stop) {
		return MatchStop
	}
	if containsAny(text, s.wake) {
		return MatchWake
	}
	return MatchNone
}

// Stop reports whether text holds a stop word
func (s *Spotter) Stop(text string) bool {
	return containsAny(text_match.Normalize(text), s.stop)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if text_match.ContainsWord(text, w) {
			return true
		}
	}
	return false
}
