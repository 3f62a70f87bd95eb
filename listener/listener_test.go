package listener

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-voice-control/audio_capture"
	"home-voice-control/intent"
	"home-voice-control/lexicon"
	"home-voice-control/speech_extraction"
	"home-voice-control/speech_to_text"
	"home-voice-control/understanding"
	"home-voice-control/wake_word"
)

type fakeSource struct {
	mu    sync.Mutex
	opens int
	fail  int
}

func (f *fakeSource) Frames(ctx context.Context) (<-chan audio_capture.Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.opens <= f.fail {
		return nil, errors.New("no such device")
	}
	c := make(chan audio_capture.Frame)
	go func() {
		<-ctx.Done()
		close(c)
	}()
	return c, nil
}

// fakeDetector plays back outcomes, blocking on ctx once they run out
type fakeDetector struct {
	mu       sync.Mutex
	outcomes []wake_word.Outcome
	stop     bool
}

func (f *fakeDetector) Detect(ctx context.Context, _ <-chan audio_capture.Frame, onWake func()) (wake_word.Outcome, error) {
	f.mu.Lock()
	if len(f.outcomes) == 0 {
		f.mu.Unlock()
		<-ctx.Done()
		return wake_word.OutcomeCancelled, nil
	}
	o := f.outcomes[0]
	f.outcomes = f.outcomes[1:]
	f.mu.Unlock()

	switch o {
	case wake_word.OutcomeWakeFound:
		onWake()
	case wake_word.OutcomeStopFound:
		f.stop = true
	}
	return o, nil
}

func (f *fakeDetector) ShouldStop() bool { return f.stop }
func (f *fakeDetector) ResetStop() { f.stop = false }

type fakeRecorder struct {
	errs []error
}

func (f *fakeRecorder) Record(context.Context, <-chan audio_capture.Frame) (audio.Buffer, error) {
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return speech_to_text.NewBuffer(make([]int16, 160), 16000), nil
}

type fakeSTT struct{ text string }

func (f *fakeSTT) Transcribe(context.Context, audio.Buffer) (speech_to_text.Result, error) {
	return speech_to_text.Result{Text: f.text}, nil
}

type fakeDispatcher struct {
	mu    sync.Mutex
	texts []string
	cmds  [][]intent.Command
}

func (f *fakeDispatcher) Dispatch(_ context.Context, u intent.Utterance, commands []intent.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, u.Text)
	f.cmds = append(f.cmds, commands)
	return nil
}

type fixture struct {
	source     *fakeSource
	detector   *fakeDetector
	recorder   *fakeRecorder
	dispatcher *fakeDispatcher
	woken      int
	listener   Interface
}

func newFixture(t *testing.T, outcomes ...wake_word.Outcome) *fixture {
	pipeline, err := understanding.New(&understanding.Config{Lexicon: lexicon.Default()})
	require.NoError(t, err)

	f := &fixture{
		source:     &fakeSource{},
		detector:   &fakeDetector{outcomes: outcomes},
		recorder:   &fakeRecorder{},
		dispatcher: &fakeDispatcher{},
	}
	f.listener, err = New(&Config{
		Source:      f.source,
		Detector:    f.detector,
		Recorder:    f.recorder,
		STTEngine:   &fakeSTT{text: "включи свет в кухне и выключи телевизор"},
		Pipeline:    pipeline,
		Dispatcher:  f.dispatcher,
		OnWake:      func() { f.woken++ },
		DeviceRetry: time.Millisecond,
	})
	require.NoError(t, err)
	return f
}

func run(t *testing.T, l Interface) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.ListenLoop(ctx))
	require.NoError(t, ctx.Err(), "loop should end on the stop word")
}

func TestListenLoop_WakeCommandStop(t *testing.T) {
	f := newFixture(t, wake_word.OutcomeWakeFound, wake_word.OutcomeStopFound)
	run(t, f.listener)

	assert.Equal(t, 1, f.woken)
	require.Len(t, f.dispatcher.cmds, 1)
	cmds := f.dispatcher.cmds[0]
	require.Len(t, cmds, 2)
	assert.Equal(t, "кухня", intent.Deref(cmds[1].Room))
	assert.Equal(t, "телевизор", intent.Deref(cmds[1].Intent.Object))
	assert.Equal(t, ListenActionWake, f.listener.Action())
}

func TestListenLoop_RecordingCancelled(t *testing.T) {
	f := newFixture(t, wake_word.OutcomeWakeFound, wake_word.OutcomeWakeFound, wake_word.OutcomeStopFound)
	f.recorder.errs = []error{speech_extraction.ErrRecordingCancelled, nil}
	run(t, f.listener)

	assert.Equal(t, 2, f.woken)
	assert.Len(t, f.dispatcher.cmds, 1, "the cancelled command is not dispatched")
}

func TestListenLoop_ClearsStopFromEarlierRun(t *testing.T) {
	f := newFixture(t, wake_word.OutcomeWakeFound, wake_word.OutcomeWakeFound, wake_word.OutcomeStopFound)
	f.detector.stop = true
	run(t, f.listener)

	assert.Equal(t, 2, f.woken)
	assert.Len(t, f.dispatcher.cmds, 2)
	assert.True(t, f.detector.ShouldStop())
}

func TestListenLoop_DeviceFailureIsRetried(t *testing.T) {
	f := newFixture(t, wake_word.OutcomeStopFound)
	f.source.fail = 2
	run(t, f.listener)

	assert.Equal(t, 3, f.source.opens)
}

func TestListenLoop_Controls(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.listener.ListenLoop(ctx) }()

	f.listener.HaltListening()
	assert.Equal(t, ListenActionWait, f.listener.Action())

	// the command session runs on its own, without a wake word
	f.listener.ListenForCommand()

	assert.Eventually(t, func() bool {
		f.dispatcher.mu.Lock()
		defer f.dispatcher.mu.Unlock()
		return len(f.dispatcher.texts) > 0
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return f.listener.Action() == ListenActionWake
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after cancel")
	}
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{Source: &fakeSource{}})
	assert.Error(t, err)
}
