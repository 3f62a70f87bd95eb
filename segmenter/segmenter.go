// Package segmenter cuts one utterance into independent commands
package segmenter

import (
	"home-voice-control/intent"
	"home-voice-control/lexicon"
	"home-voice-control/text_match"
)

// Segmenter splits on the lexicon's segment verbs
type Segmenter struct {
	lex         *lexicon.Lexicon
	connectives [][]string
}

// New returns a segmenter, lex falls back to the default lexicon when nil
func New(lex *lexicon.Lexicon) *Segmenter {
	if lex == nil {
		lex = lexicon.Default()
	}
	s := &Segmenter{lex: lex}
	for _, c := range lex.Connectives() {
		if ws := text_match.Words(c); len(ws) > 0 {
			s.connectives = append(s.connectives, ws)
		}
	}
	return s
}

// Segment splits text before every segment verb.
//
// Text in front of the first verb belongs to the first segment, trailing
// connectives and punctuation are trimmed off every segment and empty
// segments are dropped. Segments keep the casing of the input.
func (s *Segmenter) Segment(text string) []intent.CommandSegment {
	tokens := text_match.Tokens(text)

	var (
		cuts  []int
		verbs int
	)
	for _, t := range tokens {
		if !s.lex.IsSegmentVerb(text_match.Normalize(t.Text)) {
			continue
		}
		verbs++
		if t.Start > 0 {
			cuts = append(cuts, t.Start)
		}
	}

	if verbs == 0 {
		if t := text_match.TrimPunct(text); t != "" {
			return []intent.CommandSegment{{Text: t}}
		}
		return nil
	}

	var pieces []string
	start := 0
	for _, c := range cuts {
		pieces = append(pieces, text[start:c])
		start = c
	}
	pieces = append(pieces, text[start:])

	// Only a verb opens a segment, so a verbless head rides with the first one
	if len(pieces) > 1 && !s.startsWithVerb(pieces[0]) {
		pieces[1] = pieces[0] + pieces[1]
		pieces = pieces[1:]
	}

	out := make([]intent.CommandSegment, 0, len(pieces))
	for _, p := range pieces {
		p = s.trimConnectives(p)
		if p == "" {
			continue
		}
		out = append(out, intent.CommandSegment{Text: p, Order: len(out)})
	}
	return out
}

func (s *Segmenter) startsWithVerb(p string) bool {
	ts := text_match.Tokens(p)
	return len(ts) > 0 && s.lex.IsSegmentVerb(text_match.Normalize(ts[0].Text))
}

func (s *Segmenter) trimConnectives(p string) string {
	p = text_match.TrimPunct(p)
	for {
		ts := text_match.Tokens(p)
		cut := -1
		for _, c := range s.connectives {
			if len(c) >= len(ts) {
				continue
			}
			tail := ts[len(ts)-len(c):]
			match := true
			for i, w := range c {
				if text_match.Normalize(tail[i].Text) != w {
					match = false
					break
				}
			}
			if match {
				cut = tail[0].Start
				break
			}
		}
		if cut < 0 {
			return p
		}
		p = text_match.TrimPunct(p[:cut])
	}
}
