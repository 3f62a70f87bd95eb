// Package intent holds the values flowing through the text pipeline
package intent

import (
	"time"

	"github.com/google/uuid"
)

// Utterance is one transcription of one recording
type Utterance struct {
	ID         string
	Text       string
	CapturedAt time.Time
}

// NewUtterance stamps text with a fresh id and capture time
func NewUtterance(text string, capturedAt time.Time) Utterance {
	return Utterance{
		ID:         uuid.NewString(),
		Text:       text,
		CapturedAt: capturedAt,
	}
}

// CommandSegment is one imperative command cut out of an utterance.
// Order is the position in the utterance, later segments may inherit from earlier ones.
type CommandSegment struct {
	Text  string
	Order int
}

// ResolvedCommand binds a segment to a room, Room is nil when none could be determined
type ResolvedCommand struct {
	Segment CommandSegment
	Room    *string
}

// TaskIntent is the action/object/value triple of one segment, each slot may be nil
type TaskIntent struct {
	Action     *string `json:"action"`
	Object     *string `json:"object"`
	Value      *string `json:"value"`
	SourceText string  `json:"source_text"`
}

// Command is what the dispatcher receives for one segment
type Command struct {
	Order  int        `json:"order"`
	Room   *string    `json:"room"`
	Intent TaskIntent `json:"intent"`
}

// Str returns a pointer to s, or nil for the empty string
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
