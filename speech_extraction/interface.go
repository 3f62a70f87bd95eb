package speech_extraction

import (
	"context"

	"github.com/go-audio/audio"

	"home-voice-control/audio_capture"
)

type Interface interface {
	// Record returns the command spoken after the wake word, from the first
	// sound until a pause
	Record(ctx context.Context, frames <-chan audio_capture.Frame) (audio.Buffer, error)
}
