package controller

import (
	"context"

	"home-voice-control/intent"
)

// Dispatcher hands the commands of one utterance to whatever executes them
type Dispatcher interface {
	Dispatch(ctx context.Context, u intent.Utterance, commands []intent.Command) error
}
