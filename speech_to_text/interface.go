// Package speech_to_text defines the transcription backend. The Vosk client
// lives here, whisper.cpp sits in whisper_cpp to keep cgo out of consumers.
package speech_to_text

import (
	"context"
	"strings"
	"time"

	"github.com/go-audio/audio"
)

// Interface transcribes in-memory audio. Implementations must be safe for
// sequential use from different goroutines.
type Interface interface {
	Transcribe(ctx context.Context, buf audio.Buffer) (Result, error)
}

type Segment struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// Result is the text of one transcription
type Result struct {
	Text     string
	Segments []Segment
}

// NewResult joins segment texts with single spaces
func NewResult(segments []Segment) Result {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return Result{
		Text:     strings.Join(texts, " "),
		Segments: segments,
	}
}
