// Package wake_word listens to a live stream for the wake and stop words
package wake_word

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"home-voice-control/audio_capture"
	"home-voice-control/lexicon"
	"home-voice-control/logger"
	"home-voice-control/ring_buffer"
	"home-voice-control/speech_to_text"
)

var ErrStreamClosed = audio_capture.ErrStreamClosed

type detectorImpl struct {
	stt     speech_to_text.Interface
	spotter *Spotter

	sampleRate    int
	bufferSamples int
	checkSamples  int
	shortSamples  int

	// one session at a time owns the buffer
	mu   sync.Mutex
	buf  *ring_buffer.RingBuffer
	stop atomic.Bool
	log  *logger.Logger
}

type Config struct {
	STTEngine speech_to_text.Interface
	Lexicon   *lexicon.Lexicon

	SampleRate int
	// BufferDuration bounds the rolling buffer, 4s by default
	BufferDuration time.Duration
	// CheckInterval of audio between checks, 0.8s by default
	CheckInterval time.Duration
	// ShortWindow is the trailing audio of the cheap check, 2.4s by default
	ShortWindow time.Duration
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, errors.New("wake_word: config is nil")
	}

	if cfg.STTEngine == nil {
		return nil, errors.New("wake_word: sttEngine is nil")
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 16000
	}
	bufferDuration := orDefault(cfg.BufferDuration, 4*time.Second)
	checkInterval := orDefault(cfg.CheckInterval, 800*time.Millisecond)
	shortWindow := orDefault(cfg.ShortWindow, 2400*time.Millisecond)
	if shortWindow > bufferDuration {
		return nil, errors.Errorf("wake_word: short window %s is longer than the buffer %s", shortWindow, bufferDuration)
	}

	d := &detectorImpl{
		stt:           cfg.STTEngine,
		spotter:       NewSpotter(cfg.Lexicon),
		sampleRate:    rate,
		bufferSamples: samples(bufferDuration, rate),
		checkSamples:  samples(checkInterval, rate),
		shortSamples:  samples(shortWindow, rate),
		log:           logger.Named("wake_word"),
	}
	d.buf = ring_buffer.New(d.bufferSamples)
	return d, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func samples(d time.Duration, rate int) int {
	return int(int64(d) * int64(rate) / int64(time.Second))
}

func (d *detectorImpl) ShouldStop() bool { return d.stop.Load() }
func (d *detectorImpl) ResetStop() { d.stop.Store(false) }

func (d *detectorImpl) Detect(ctx context.Context, frames <-chan audio_capture.Frame, onWake func()) (Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.buf.Clear()
	defer d.buf.Clear()

	d.log.Debug().Msg("waiting for wake word")

	var (
		pending int
		checks  int
	)
	for {
		select {
		case <-ctx.Done():
			return OutcomeCancelled, nil
		case f, ok := <-frames:
			if !ok {
				return OutcomeCancelled, ErrStreamClosed
			}

			d.buf.Add(f)
			pending += len(f)
			if pending < d.checkSamples {
				continue
			}
			pending = 0
			checks++

			m := d.checkWindow(ctx, d.shortSamples)
			if m == MatchNone && checks%2 == 0 && d.buf.Len() > d.shortSamples {
				m = d.checkWindow(ctx, d.buf.Len())
			}

			if ctx.Err() != nil {
				return OutcomeCancelled, nil
			}

			switch m {
			case MatchStop:
				d.log.Info().Msg("stop word detected")
				d.stop.Store(true)
				return OutcomeStopFound, nil
			case MatchWake:
				d.log.Info().Msg("wake word detected")
				if onWake != nil {
					onWake()
				}
				return OutcomeWakeFound, nil
			}
		}
	}
}

// checkWindow transcribes the newest n samples, any failure counts as no match
func (d *detectorImpl) checkWindow(ctx context.Context, n int) Match {
	res, err := d.stt.Transcribe(ctx, speech_to_text.NewBuffer(d.buf.Tail(n), d.sampleRate))
	if err != nil {
		d.log.Warn().Err(err).Int("samples", n).Msg("transcription failed")
		return MatchNone
	}

	// late results of a cancelled session are dropped
	if ctx.Err() != nil {
		return MatchNone
	}

	m := d.spotter.Classify(res.Text)
	d.log.Debug().Int("samples", n).Str("text", res.Text).Stringer("match", m).Msg("checked window")
	return m
}
