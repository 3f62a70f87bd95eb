package wake_word

import (
	"context"

	"home-voice-control/audio_capture"
)

type Outcome int

const (
	OutcomeCancelled Outcome = iota
	OutcomeWakeFound
	OutcomeStopFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWakeFound:
		return "wake_found"
	case OutcomeStopFound:
		return "stop_found"
	default:
		return "cancelled"
	}
}

type Interface interface {
	// Detect consumes frames until a wake or stop word is heard or ctx is done
	Detect(ctx context.Context, frames <-chan audio_capture.Frame, onWake func()) (Outcome, error)
	// ShouldStop stays true after a stop word until ResetStop
	ShouldStop() bool
	ResetStop()
}
