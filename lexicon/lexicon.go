// Package lexicon loads the word tables driving segmentation, room resolution,
// slot extraction and keyword spotting.
//
// A Lexicon is built once and never mutated afterwards, so it is shared
// between goroutines without locking. Every list keeps the order it had in the
// YAML document because that order is the match priority.
package lexicon

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"home-voice-control/text_match"
)

//go:embed default.yaml
var embedded []byte

// Entry groups the surface synonyms of one canonical key
type Entry struct {
	Key      string   `yaml:"key"`
	Synonyms []string `yaml:"synonyms"`
}

// Room is a room name and its inflected forms
type Room struct {
	Name  string   `yaml:"name"`
	Forms []string `yaml:"forms"`
}

// ValueContext lists the keywords that give a number its unit
type ValueContext struct {
	Degree         []string `yaml:"degree"`
	DegreeAnchors  []string `yaml:"degree_anchors"`
	Percent        []string `yaml:"percent"`
	PercentAnchors []string `yaml:"percent_anchors"`
}

type document struct {
	Actions        []Entry        `yaml:"actions"`
	Objects        []Entry        `yaml:"objects"`
	Rooms          []Room         `yaml:"rooms"`
	Numbers        map[string]int `yaml:"numbers"`
	WakeWords      []string       `yaml:"wake_words"`
	StopWords      []string       `yaml:"stop_words"`
	SegmentVerbs   []string       `yaml:"segment_verbs"`
	Connectives    []string       `yaml:"connectives"`
	Pronouns       []string       `yaml:"pronouns"`
	BackReferences []string       `yaml:"back_references"`
	ValueContext   ValueContext   `yaml:"value_context"`
	Qualitative    []Entry        `yaml:"qualitative"`
}

type overrideDocument struct {
	document `yaml:",inline"`
	Extend   document `yaml:"extend"`
}

// Lexicon is the read-only set of tables
type Lexicon struct {
	d document
}

// Options tweak what Load reads on top of the embedded defaults
type Options struct {
	// Fs is where Path is read from, the OS filesystem when nil
	Fs afero.Fs
	// Path of an optional override document
	Path string
	// WakeWords and StopWords replace their tables when not empty
	WakeWords []string
	StopWords []string
}

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
)

// Default returns the lexicon built from the embedded document
func Default() *Lexicon {
	defaultOnce.Do(func() {
		l, err := Load(Options{})
		if err != nil {
			panic(errors.Wrap(err, "lexicon: embedded document is invalid"))
		}
		defaultLex = l
	})
	return defaultLex
}

// Load builds a lexicon from the embedded defaults and the given overrides
func Load(o Options) (l *Lexicon, err error) {
	var d document
	if err = yaml.Unmarshal(embedded, &d); err != nil {
		err = errors.Wrap(err, "lexicon: unmarshaling embedded document failed")
		return
	}

	if o.Path != "" {
		fs := o.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}

		var b []byte
		if b, err = afero.ReadFile(fs, filepath.Clean(o.Path)); err != nil {
			err = errors.Wrapf(err, "lexicon: reading %s failed", o.Path)
			return
		}

		var od overrideDocument
		if err = yaml.Unmarshal(b, &od); err != nil {
			err = errors.Wrapf(err, "lexicon: unmarshaling %s failed", o.Path)
			return
		}
		d = merge(d, od)
	}

	if len(o.WakeWords) > 0 {
		d.WakeWords = o.WakeWords
	}
	if len(o.StopWords) > 0 {
		d.StopWords = o.StopWords
	}

	d = lower(d)
	if err = validate(d); err != nil {
		return
	}
	l = &Lexicon{d: d}
	return
}

func merge(d document, o overrideDocument) document {
	r := o.document
	if len(r.Actions) > 0 {
		d.Actions = r.Actions
	}
	if len(r.Objects) > 0 {
		d.Objects = r.Objects
	}
	if len(r.Rooms) > 0 {
		d.Rooms = r.Rooms
	}
	if len(r.Numbers) > 0 {
		d.Numbers = r.Numbers
	}
	replaceList(&d.WakeWords, r.WakeWords)
	replaceList(&d.StopWords, r.StopWords)
	replaceList(&d.SegmentVerbs, r.SegmentVerbs)
	replaceList(&d.Connectives, r.Connectives)
	replaceList(&d.Pronouns, r.Pronouns)
	replaceList(&d.BackReferences, r.BackReferences)
	replaceList(&d.ValueContext.Degree, r.ValueContext.Degree)
	replaceList(&d.ValueContext.DegreeAnchors, r.ValueContext.DegreeAnchors)
	replaceList(&d.ValueContext.Percent, r.ValueContext.Percent)
	replaceList(&d.ValueContext.PercentAnchors, r.ValueContext.PercentAnchors)
	if len(r.Qualitative) > 0 {
		d.Qualitative = r.Qualitative
	}

	// Extensions go after the defaults, so they never outrank them
	e := o.Extend
	d.Actions = extendEntries(d.Actions, e.Actions)
	d.Objects = extendEntries(d.Objects, e.Objects)
	d.Qualitative = extendEntries(d.Qualitative, e.Qualitative)
	d.Rooms = extendRooms(d.Rooms, e.Rooms)
	if len(e.Numbers) > 0 {
		n := make(map[string]int, len(d.Numbers)+len(e.Numbers))
		for k, v := range d.Numbers {
			n[k] = v
		}
		for k, v := range e.Numbers {
			n[k] = v
		}
		d.Numbers = n
	}
	d.WakeWords = append(d.WakeWords, e.WakeWords...)
	d.StopWords = append(d.StopWords, e.StopWords...)
	d.SegmentVerbs = append(d.SegmentVerbs, e.SegmentVerbs...)
	d.Connectives = append(d.Connectives, e.Connectives...)
	d.Pronouns = append(d.Pronouns, e.Pronouns...)
	d.BackReferences = append(d.BackReferences, e.BackReferences...)
	return d
}

func replaceList(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}

// extendEntries appends synonyms to existing keys and new keys at the end
func extendEntries(base, ext []Entry) []Entry {
	out := append([]Entry(nil), base...)
	for _, e := range ext {
		found := false
		for i := range out {
			if out[i].Key == e.Key {
				out[i].Synonyms = append(append([]string(nil), out[i].Synonyms...), e.Synonyms...)
				found = true
				break
			}
		}
		if !found {
			out = append(out, e)
		}
	}
	return out
}

func extendRooms(base, ext []Room) []Room {
	out := append([]Room(nil), base...)
	for _, r := range ext {
		found := false
		for i := range out {
			if out[i].Name == r.Name {
				out[i].Forms = append(append([]string(nil), out[i].Forms...), r.Forms...)
				found = true
				break
			}
		}
		if !found {
			out = append(out, r)
		}
	}
	return out
}

// lower normalises every surface form the same way utterances are normalised
func lower(d document) document {
	ls := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			if s = text_match.Normalize(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	le := func(in []Entry) []Entry {
		out := make([]Entry, len(in))
		for i, e := range in {
			out[i] = Entry{Key: text_match.Normalize(e.Key), Synonyms: ls(e.Synonyms)}
		}
		return out
	}

	d.Actions = le(d.Actions)
	d.Objects = le(d.Objects)
	d.Qualitative = le(d.Qualitative)

	rooms := make([]Room, len(d.Rooms))
	for i, r := range d.Rooms {
		rooms[i] = Room{Name: text_match.Normalize(r.Name), Forms: ls(r.Forms)}
	}
	d.Rooms = rooms

	numbers := make(map[string]int, len(d.Numbers))
	for k, v := range d.Numbers {
		numbers[text_match.Normalize(k)] = v
	}
	d.Numbers = numbers

	d.WakeWords = ls(d.WakeWords)
	d.StopWords = ls(d.StopWords)
	d.SegmentVerbs = ls(d.SegmentVerbs)
	d.Connectives = ls(d.Connectives)
	d.Pronouns = ls(d.Pronouns)
	d.BackReferences = ls(d.BackReferences)
	d.ValueContext = ValueContext{
		Degree:         ls(d.ValueContext.Degree),
		DegreeAnchors:  ls(d.ValueContext.DegreeAnchors),
		Percent:        ls(d.ValueContext.Percent),
		PercentAnchors: ls(d.ValueContext.PercentAnchors),
	}
	return d
}

func validate(d document) error {
	for name, es := range map[string][]Entry{"actions": d.Actions, "objects": d.Objects, "qualitative": d.Qualitative} {
		for _, e := range es {
			if e.Key == "" {
				return errors.Errorf("lexicon: %s entry without key", name)
			}
			if len(e.Synonyms) == 0 {
				return errors.Errorf("lexicon: %s entry %q has no synonyms", name, e.Key)
			}
		}
	}
	for _, r := range d.Rooms {
		if r.Name == "" {
			return errors.New("lexicon: room without name")
		}
		if len(r.Forms) == 0 {
			return errors.Errorf("lexicon: room %q has no forms", r.Name)
		}
	}
	switch {
	case len(d.Numbers) == 0:
		return errors.New("lexicon: number words are empty")
	case len(d.WakeWords) == 0:
		return errors.New("lexicon: wake words are empty")
	case len(d.StopWords) == 0:
		return errors.New("lexicon: stop words are empty")
	case len(d.SegmentVerbs) == 0:
		return errors.New("lexicon: segment verbs are empty")
	}
	return nil
}

// Actions returns canonical actions in priority order
func (l *Lexicon) Actions() []Entry { return l.d.Actions }

// Objects returns canonical objects in priority order
func (l *Lexicon) Objects() []Entry { return l.d.Objects }

// Rooms returns rooms in priority order
func (l *Lexicon) Rooms() []Room { return l.d.Rooms }

// Qualitative returns the qualitative value words in priority order
func (l *Lexicon) Qualitative() []Entry { return l.d.Qualitative }

// Number looks up a single number word
func (l *Lexicon) Number(word string) (int, bool) {
	v, ok := l.d.Numbers[word]
	return v, ok
}

// WakeWords returns the wake word surface forms
func (l *Lexicon) WakeWords() []string { return l.d.WakeWords }

func (l *Lexicon) StopWords() []string { return l.d.StopWords }
func (l *Lexicon) SegmentVerbs() []string { return l.d.SegmentVerbs }
func (l *Lexicon) Connectives() []string { return l.d.Connectives }
func (l *Lexicon) Pronouns() []string { return l.d.Pronouns }
func (l *Lexicon) BackReferences() []string { return l.d.BackReferences }
func (l *Lexicon) ValueContext() ValueContext { return l.d.ValueContext }

// IsSegmentVerb reports whether word (already normalised) opens a command
func (l *Lexicon) IsSegmentVerb(word string) bool {
	for _, v := range l.d.SegmentVerbs {
		if v == word {
			return true
		}
	}
	return false
}

// String is handy in logs
func (l *Lexicon) String() string {
	return fmt.Sprintf("lexicon{actions=%d objects=%d rooms=%d numbers=%d wake=%s}",
		len(l.d.Actions), len(l.d.Objects), len(l.d.Rooms), len(l.d.Numbers), strings.Join(l.d.WakeWords, "|"))
}
