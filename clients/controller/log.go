package controller

import (
	"context"

	"home-voice-control/intent"
	"home-voice-control/logger"
)

type logImpl struct {
	log *logger.Logger
}

// NewLog returns a dispatcher that only logs, for running without a controller
func NewLog() Dispatcher {
	return &logImpl{log: logger.Named("controller")}
}

func (l *logImpl) Dispatch(_ context.Context, u intent.Utterance, commands []intent.Command) error {
	for _, c := range commands {
		l.log.Info().
			Str("utterance", u.ID).
			Int("order", c.Order).
			Str("room", intent.Deref(c.Room)).
			Str("action", intent.Deref(c.Intent.Action)).
			Str("object", intent.Deref(c.Intent.Object)).
			Str("value", intent.Deref(c.Intent.Value)).
			Str("text", c.Intent.SourceText).
			Msg("command")
	}
	return nil
}
