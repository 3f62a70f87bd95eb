package voice_activity_detection

import "time"

const (
	// flux has to jump by this factor to count as speech, and fall by it to count as quiet
	DefaultRatio = 1.75
)

type Event int

const (
	EventNone Event = iota
	EventSpeechStart
	EventSpeechEnd
)

func (e Event) String() string {
	switch e {
	case EventSpeechStart:
		return "speech_start"
	case EventSpeechEnd:
		return "speech_end"
	default:
		return "none"
	}
}

// Gate follows one utterance: it opens on a flux jump and closes after
// QuietTime of falling flux. Time is counted in audio, not wall clock.
type Gate struct {
	QuietTime time.Duration
	Ratio     float64

	vad            *Detector
	heardSomething bool
	quiet          bool
	quietFor       time.Duration
	lastFlux       float64
}

func NewGate(frameSize int, quietTime time.Duration) *Gate {
	return &Gate{
		QuietTime: quietTime,
		Ratio:     DefaultRatio,
		vad:       New(frameSize),
	}
}

// HeardSomething reports whether the gate has opened
func (g *Gate) HeardSomething() bool { return g.heardSomething }

// Push feeds one frame lasting frameDuration
func (g *Gate) Push(frame []int16, frameDuration time.Duration) Event {
	flux := g.vad.Flux(frame)

	if g.lastFlux == 0 {
		g.lastFlux = flux
		return EventNone
	}

	if g.heardSomething {
		if flux*g.Ratio <= g.lastFlux {
			if g.quiet {
				g.quietFor += frameDuration
				if g.quietFor > g.QuietTime {
					return EventSpeechEnd
				}
			} else {
				g.quietFor = 0
			}
			g.quiet = true
		} else {
			g.quiet = false
			g.lastFlux = flux
		}
		return EventNone
	}

	start := flux >= g.lastFlux*g.Ratio
	g.lastFlux = flux
	if start {
		g.heardSomething = true
		return EventSpeechStart
	}
	return EventNone
}

func (g *Gate) Reset() {
	g.vad.Reset()
	g.heardSomething = false
	g.quiet = false
	g.quietFor = 0
	g.lastFlux = 0
}
