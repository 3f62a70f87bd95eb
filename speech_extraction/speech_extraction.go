// Package speech_extraction records one spoken command after the wake word
package speech_extraction

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/go-audio/audio"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/zenwerk/go-wave"

	"home-voice-control/audio_capture"
	"home-voice-control/lexicon"
	"home-voice-control/logger"
	"home-voice-control/ring_buffer"
	"home-voice-control/speech_to_text"
	"home-voice-control/voice_activity_detection"
	"home-voice-control/wake_word"
)

var (
	// ErrRecordingCancelled means a stop word was said during the command
	ErrRecordingCancelled = errors.New("speech_extraction: recording cancelled by stop word")
	// ErrNothingHeard means no speech started before MaxDuration ran out
	ErrNothingHeard = errors.New("speech_extraction: nothing heard")
)

const (
	defaultMaxDuration    = 10 * time.Second
	defaultPauseThreshold = time.Second
	defaultPreRoll        = 500 * time.Millisecond
	defaultStopCheck      = 1600 * time.Millisecond
)

type recorderImpl struct {
	sttEngine  speech_to_text.Interface
	spotter    *wake_word.Spotter
	fileSys    afero.Fs
	captureDir string

	sampleRate     int
	maxDuration    time.Duration
	pauseThreshold time.Duration
	preRoll        time.Duration
	stopCheck      time.Duration
	log            *logger.Logger
}

type Config struct {
	// STTEngine listens for stop words while recording, nil turns that off
	STTEngine speech_to_text.Interface
	Lexicon   *lexicon.Lexicon

	// FileSys and CaptureDir keep a wav copy of every command when both are set
	FileSys    afero.Fs
	CaptureDir string

	SampleRate     int
	MaxDuration    time.Duration
	PauseThreshold time.Duration
	PreRoll        time.Duration
	// StopCheckInterval of recorded audio between stop word checks
	StopCheckInterval time.Duration
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, errors.New("speech_extraction: config is nil")
	}

	if cfg.SampleRate <= 0 {
		return nil, errors.Errorf("speech_extraction: invalid sample rate %d", cfg.SampleRate)
	}

	if cfg.CaptureDir != "" && cfg.FileSys == nil {
		return nil, errors.New("speech_extraction: fileSys is nil")
	}

	return &recorderImpl{
		sttEngine:      cfg.STTEngine,
		spotter:        wake_word.NewSpotter(cfg.Lexicon),
		fileSys:        cfg.FileSys,
		captureDir:     cfg.CaptureDir,
		sampleRate:     cfg.SampleRate,
		maxDuration:    orDefault(cfg.MaxDuration, defaultMaxDuration),
		pauseThreshold: orDefault(cfg.PauseThreshold, defaultPauseThreshold),
		preRoll:        orDefault(cfg.PreRoll, defaultPreRoll),
		stopCheck:      orDefault(cfg.StopCheckInterval, defaultStopCheck),
		log:            logger.Named("speech_extraction"),
	}, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (r *recorderImpl) samples(d time.Duration) int {
	return int(int64(d) * int64(r.sampleRate) / int64(time.Second))
}

func (r *recorderImpl) duration(samples int) time.Duration {
	return time.Duration(int64(samples) * int64(time.Second) / int64(r.sampleRate))
}

func (r *recorderImpl) Record(ctx context.Context, frames <-chan audio_capture.Frame) (audio.Buffer, error) {
	var (
		gate       *voice_activity_detection.Gate
		preRoll    = ring_buffer.New(r.samples(r.preRoll))
		recorded   []int16
		waited     time.Duration
		sinceCheck time.Duration
	)

	r.log.Debug().Msg("expecting a command")

loop:
	for {
		var f audio_capture.Frame
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil, audio_capture.ErrStreamClosed
			}
			f = frame
		}

		if gate == nil {
			gate = voice_activity_detection.NewGate(len(f), r.pauseThreshold)
		}
		frameDuration := r.duration(len(f))

		// keep a buffer of the first bit of audio before detection
		if !gate.HeardSomething() {
			preRoll.Add(f)
			if gate.Push(f, frameDuration) == voice_activity_detection.EventSpeechStart {
				recorded = append(recorded, preRoll.Read()...)
				continue
			}

			waited += frameDuration
			if waited >= r.maxDuration {
				return nil, ErrNothingHeard
			}
			continue
		}

		recorded = append(recorded, f...)
		ev := gate.Push(f, frameDuration)
		if ev == voice_activity_detection.EventSpeechEnd || r.duration(len(recorded)) >= r.maxDuration {
			break loop
		}

		sinceCheck += frameDuration
		if sinceCheck >= r.stopCheck {
			sinceCheck = 0
			if r.stopWordSaid(ctx, recorded) {
				return nil, ErrRecordingCancelled
			}
		}
	}

	r.log.Debug().Dur("length", r.duration(len(recorded))).Msg("command recorded")

	buf := speech_to_text.NewBuffer(recorded, r.sampleRate)
	if err := r.capture(recorded); err != nil {
		r.log.Warn().Err(err).Msg("capturing command failed")
	}
	return buf, nil
}

// stopWordSaid transcribes the last stop check window, failures count as no
func (r *recorderImpl) stopWordSaid(ctx context.Context, recorded []int16) bool {
	if r.sttEngine == nil {
		return false
	}

	tail := recorded
	if n := r.samples(r.stopCheck); len(tail) > n {
		tail = tail[len(tail)-n:]
	}

	res, err := r.sttEngine.Transcribe(ctx, speech_to_text.NewBuffer(tail, r.sampleRate))
	if err != nil {
		r.log.Warn().Err(err).Msg("stop word check failed")
		return false
	}
	if r.spotter.Stop(res.Text) {
		r.log.Info().Str("text", res.Text).Msg("stop word while recording")
		return true
	}
	return false
}

func (r *recorderImpl) capture(recorded []int16) error {
	if r.fileSys == nil || r.captureDir == "" {
		return nil
	}

	if err := r.fileSys.MkdirAll(r.captureDir, 0o755); err != nil {
		return errors.Wrapf(err, "speech_extraction: creating %s failed", r.captureDir)
	}

	name := path.Join(r.captureDir, fmt.Sprintf("command-%d.wav", time.Now().UnixNano()))
	waveFile, err := r.fileSys.Create(name)
	if err != nil {
		return errors.Wrapf(err, "speech_extraction: creating %s failed", name)
	}

	param := wave.WriterParam{
		Out:           waveFile,
		Channel:       1,
		SampleRate:    r.sampleRate,
		BitsPerSample: 16,
	}

	waveWriter, err := wave.NewWriter(param)
	if err != nil {
		waveFile.Close()
		return errors.Wrap(err, "speech_extraction: creating wave writer failed")
	}

	if _, err = waveWriter.WriteSample16(recorded); err != nil {
		waveWriter.Close()
		return errors.Wrapf(err, "speech_extraction: writing %s failed", name)
	}

	if err = waveWriter.Close(); err != nil {
		return errors.Wrapf(err, "speech_extraction: closing %s failed", name)
	}

	r.log.Debug().Str("file", name).Msg("command captured")
	return nil
}
