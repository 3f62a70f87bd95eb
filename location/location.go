// Package location binds command segments to rooms, following pronouns and
// ellipsis from one segment to the next.
package location

import (
	"home-voice-control/intent"
	"home-voice-control/lexicon"
	"home-voice-control/text_match"
)

// Resolver walks segments left to right carrying the last named room
type Resolver struct {
	lex *lexicon.Lexicon
}

// New returns a resolver, lex falls back to the default lexicon when nil
func New(lex *lexicon.Lexicon) *Resolver {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Resolver{lex: lex}
}

// Resolve returns one command per segment, in the same order.
//
// A named room always wins. Otherwise a pronoun, a back-reference closing the
// previous segment or plain ellipsis after the first segment reuse the last
// named room. Room stays nil when nothing was named yet.
func (r *Resolver) Resolve(segments []intent.CommandSegment) []intent.ResolvedCommand {
	var (
		out         = make([]intent.ResolvedCommand, 0, len(segments))
		lastRoom    *string
		inheritNext bool
	)

	for i, s := range segments {
		text := text_match.Normalize(s.Text)
		room := r.Room(text)
		endsWithRef := r.endsWithReference(text)

		var bound *string
		switch {
		case room != nil:
			lastRoom = room
			inheritNext = endsWithRef
			bound = room
		case lastRoom != nil && r.hasPronoun(text):
			inheritNext = endsWithRef
			bound = lastRoom
		case lastRoom != nil && (inheritNext || i > 0):
			inheritNext = false
			bound = lastRoom
		default:
			inheritNext = false
		}

		out = append(out, intent.ResolvedCommand{Segment: s, Room: bound})
	}
	return out
}

// Room returns the room named in normalised text, nominative names first,
// then inflected forms
func (r *Resolver) Room(text string) *string {
	rooms := r.lex.Rooms()
	for _, room := range rooms {
		if text_match.ContainsWordStart(text, room.Name) {
			return intent.Str(room.Name)
		}
	}
	for _, room := range rooms {
		for _, f := range room.Forms {
			if text_match.ContainsWordStart(text, f) {
				return intent.Str(room.Name)
			}
		}
	}
	return nil
}

func (r *Resolver) hasPronoun(text string) bool {
	for _, p := range r.lex.Pronouns() {
		if text_match.ContainsWord(text, p) {
			return true
		}
	}
	return false
}

func (r *Resolver) endsWithReference(text string) bool {
	text = text_match.TrimPunct(text)
	for _, p := range r.lex.BackReferences() {
		if text_match.HasSuffixWord(text, p) {
			return true
		}
	}
	return false
}
