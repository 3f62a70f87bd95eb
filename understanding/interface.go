package understanding

import "home-voice-control/intent"

// Interface turns one utterance into ordered commands
type Interface interface {
	Understand(u intent.Utterance) []intent.Command
}
