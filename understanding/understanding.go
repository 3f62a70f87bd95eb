// Package understanding chains segmentation, room resolution and slot
// extraction over one utterance.
package understanding

import (
	"github.com/pkg/errors"

	"home-voice-control/intent"
	"home-voice-control/lexicon"
	"home-voice-control/location"
	"home-voice-control/logger"
	"home-voice-control/segmenter"
	"home-voice-control/slots"
)

type pipelineImpl struct {
	segmenter *segmenter.Segmenter
	resolver  *location.Resolver
	extractor *slots.Extractor
	log       *logger.Logger
}

type Config struct {
	Lexicon *lexicon.Lexicon
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, errors.New("understanding: config is nil")
	}

	if cfg.Lexicon == nil {
		return nil, errors.New("understanding: lexicon is nil")
	}

	return &pipelineImpl{
		segmenter: segmenter.New(cfg.Lexicon),
		resolver:  location.New(cfg.Lexicon),
		extractor: slots.New(cfg.Lexicon),
		log:       logger.Named("understanding"),
	}, nil
}

func (p *pipelineImpl) Understand(u intent.Utterance) []intent.Command {
	resolved := p.resolver.Resolve(p.segmenter.Segment(u.Text))

	commands := make([]intent.Command, 0, len(resolved))
	for _, r := range resolved {
		c := intent.Command{
			Order:  r.Segment.Order,
			Room:   r.Room,
			Intent: p.extractor.Extract(r.Segment.Text),
		}
		p.log.Debug().
			Str("utterance", u.ID).
			Int("order", c.Order).
			Str("room", intent.Deref(c.Room)).
			Str("action", intent.Deref(c.Intent.Action)).
			Str("object", intent.Deref(c.Intent.Object)).
			Str("value", intent.Deref(c.Intent.Value)).
			Msg("command")
		commands = append(commands, c)
	}
	return commands
}
