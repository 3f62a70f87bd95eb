// Package listener drives the assistant: wake word, command recording,
// transcription, understanding and dispatch, one session after another.
package listener

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"home-voice-control/audio_capture"
	"home-voice-control/clients/controller"
	"home-voice-control/intent"
	"home-voice-control/logger"
	"home-voice-control/speech_extraction"
	"home-voice-control/speech_to_text"
	"home-voice-control/understanding"
	"home-voice-control/wake_word"
)

type ListenAction string

const (
	ListenActionWait    ListenAction = "wait"
	ListenActionWake    ListenAction = "wake"
	ListenActionCommand ListenAction = "command"
)

const defaultDeviceRetry = 2 * time.Second

type voiceImpl struct {
	source     audio_capture.Interface
	detector   wake_word.Interface
	recorder   speech_extraction.Interface
	sttEngine  speech_to_text.Interface
	pipeline   understanding.Interface
	dispatcher controller.Dispatcher
	onWake     func()
	retry      time.Duration
	log        *logger.Logger

	mu              sync.Mutex
	triggeredAction ListenAction
	cancelSession   context.CancelFunc
	changed         chan struct{}
}

type Config struct {
	Source     audio_capture.Interface
	Detector   wake_word.Interface
	Recorder   speech_extraction.Interface
	STTEngine  speech_to_text.Interface
	Pipeline   understanding.Interface
	Dispatcher controller.Dispatcher
	// OnWake runs when the wake word is heard, e.g. to play a chime
	OnWake func()
	// DeviceRetry is the pause after a session failed to open the device
	DeviceRetry time.Duration
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, errors.New("listener: config is nil")
	}

	switch {
	case cfg.Source == nil:
		return nil, errors.New("listener: source is nil")
	case cfg.Detector == nil:
		return nil, errors.New("listener: detector is nil")
	case cfg.Recorder == nil:
		return nil, errors.New("listener: recorder is nil")
	case cfg.STTEngine == nil:
		return nil, errors.New("listener: sttEngine is nil")
	case cfg.Pipeline == nil:
		return nil, errors.New("listener: pipeline is nil")
	case cfg.Dispatcher == nil:
		return nil, errors.New("listener: dispatcher is nil")
	}

	retry := cfg.DeviceRetry
	if retry <= 0 {
		retry = defaultDeviceRetry
	}

	return &voiceImpl{
		source:          cfg.Source,
		detector:        cfg.Detector,
		recorder:        cfg.Recorder,
		sttEngine:       cfg.STTEngine,
		pipeline:        cfg.Pipeline,
		dispatcher:      cfg.Dispatcher,
		onWake:          cfg.OnWake,
		retry:           retry,
		log:             logger.Named("listener"),
		triggeredAction: ListenActionWake,
		changed:         make(chan struct{}, 1),
	}, nil
}

func (v *voiceImpl) ListenLoop(ctx context.Context) error {
	v.log.Info().Msg("starting to listen")

	// a stop word from an earlier run must not end this one
	v.detector.ResetStop()

	for {
		if ctx.Err() != nil {
			v.log.Info().Msg("exiting gracefully")
			return nil
		}

		action, sessionCtx, done := v.beginSession(ctx)

		var err error
		switch action {
		case ListenActionWait:
			select {
			case <-sessionCtx.Done():
			case <-v.changed:
			}
		default:
			err = v.session(sessionCtx, action)
		}
		done()

		if v.detector.ShouldStop() {
			v.log.Info().Msg("stop word heard, shutting down")
			return nil
		}

		if err != nil {
			v.log.Error().Err(err).Msg("session failed")
			select {
			case <-ctx.Done():
			case <-v.changed:
			case <-time.After(v.retry):
			}
		}
	}
}

// beginSession snapshots the action and installs a cancel func the controls can reach
func (v *voiceImpl) beginSession(ctx context.Context) (ListenAction, context.Context, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	sessionCtx, cancel := context.WithCancel(ctx)
	v.cancelSession = cancel

	// drain a stale notification, the snapshot below already reflects it
	select {
	case <-v.changed:
	default:
	}

	return v.triggeredAction, sessionCtx, func() {
		v.mu.Lock()
		v.cancelSession = nil
		v.mu.Unlock()
		cancel()
	}
}

// session opens the device and runs wake and/or command on one stream
func (v *voiceImpl) session(ctx context.Context, action ListenAction) error {
	frames, err := v.source.Frames(ctx)
	if err != nil {
		return errors.Wrap(err, "listener: opening audio failed")
	}

	if action == ListenActionWake {
		outcome, err := v.detector.Detect(ctx, frames, v.woken)
		switch {
		case err != nil && ctx.Err() == nil:
			return err
		case outcome != wake_word.OutcomeWakeFound:
			return nil
		}
	}

	return v.command(ctx, frames)
}

func (v *voiceImpl) woken() {
	v.mu.Lock()
	if v.triggeredAction == ListenActionWake {
		v.triggeredAction = ListenActionCommand
	}
	v.mu.Unlock()

	if v.onWake != nil {
		v.onWake()
	}
}

func (v *voiceImpl) command(ctx context.Context, frames <-chan audio_capture.Frame) error {
	defer v.finishCommand()

	capturedAt := time.Now()
	buf, err := v.recorder.Record(ctx, frames)
	switch {
	case ctx.Err() != nil:
		return nil
	case errors.Is(err, speech_extraction.ErrRecordingCancelled), errors.Is(err, speech_extraction.ErrNothingHeard):
		v.log.Info().Err(err).Msg("no command")
		return nil
	case err != nil:
		return err
	}

	res, err := v.sttEngine.Transcribe(ctx, buf)
	if err != nil {
		v.log.Warn().Err(err).Msg("transcribing command failed")
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}

	text := strings.TrimSpace(res.Text)
	if text == "" {
		v.log.Info().Msg("empty command")
		return nil
	}

	u := intent.NewUtterance(text, capturedAt)
	commands := v.pipeline.Understand(u)
	v.log.Info().Str("utterance", u.ID).Str("text", text).Int("commands", len(commands)).Msg("command heard")

	if err = v.dispatcher.Dispatch(ctx, u, commands); err != nil {
		v.log.Error().Err(err).Str("utterance", u.ID).Msg("dispatching commands failed")
	}
	return nil
}

// finishCommand goes back to the wake word unless a control changed the plan meanwhile
func (v *voiceImpl) finishCommand() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.triggeredAction == ListenActionCommand {
		v.triggeredAction = ListenActionWake
	}
}

func (v *voiceImpl) set(action ListenAction) {
	v.mu.Lock()
	v.triggeredAction = action
	if v.cancelSession != nil {
		v.cancelSession()
	}
	v.mu.Unlock()

	select {
	case v.changed <- struct{}{}:
	default:
	}
}

func (v *voiceImpl) HaltListening() {
	v.set(ListenActionWait)

	v.log.Info().Msg("waiting due to interrupt")
}

func (v *voiceImpl) ListenForWake() {
	v.set(ListenActionWake)

	v.log.Info().Msg("resetting to waiting for wake")
}

func (v *voiceImpl) ListenForCommand() {
	v.set(ListenActionCommand)

	v.log.Info().Msg("resetting to expecting a command")
}

func (v *voiceImpl) Action() ListenAction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.triggeredAction
}
