// Package config loads runtime settings from the environment and an optional .env file
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const envPrefix = "VOICE_"

// Config holds every runtime setting of the assistant
type Config struct {
	Audio      Audio
	Detector   Detector
	Recorder   Recorder
	Backend    Backend
	Dispatcher Dispatcher
	API        API
	Lexicon    Lexicon
}

type Audio struct {
	DeviceID    int
	SampleRate  int
	FrameSize   int
	QueueFrames int
}

type Detector struct {
	BufferDuration time.Duration
	CheckInterval  time.Duration
	ShortWindow    time.Duration
}

type Recorder struct {
	MaxDuration    time.Duration
	PauseThreshold time.Duration
	PreRoll        time.Duration
	CaptureDir     string
}

type Backend struct {
	Name         string
	WhisperModel string
	WhisperLang  string
	VoskURL      string
}

type Dispatcher struct {
	ControllerHost string
	Timeout        time.Duration
}

type API struct {
	Addr string
}

type Lexicon struct {
	Path      string
	WakeWords []string
	StopWords []string
}

// Default returns the settings used when nothing is configured
func Default() Config {
	return Config{
		Audio: Audio{
			DeviceID:    -1,
			SampleRate:  16000,
			FrameSize:   1600,
			QueueFrames: 64,
		},
		Detector: Detector{
			BufferDuration: 4 * time.Second,
			CheckInterval:  800 * time.Millisecond,
			ShortWindow:    2400 * time.Millisecond,
		},
		Recorder: Recorder{
			MaxDuration:    10 * time.Second,
			PauseThreshold: time.Second,
			PreRoll:        500 * time.Millisecond,
		},
		Backend: Backend{
			Name:        "whisper",
			WhisperLang: "ru",
			VoskURL:     "ws://localhost:2700",
		},
		Dispatcher: Dispatcher{
			Timeout: 5 * time.Second,
		},
	}
}

// Load reads envFile when it exists and overlays VOICE_* variables on top of the defaults.
// Variables already set in the process environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(errors.Cause(err)) {
			return Config{}, errors.Wrapf(err, "config: loading %s failed", envFile)
		}
	}
	return FromEnv(NewConf().Prefix(envPrefix)), nil
}

// FromEnv overlays the variables visible through c on top of Default
func FromEnv(c Conf) Config {
	d := Default()

	a := c.Prefix("AUDIO_")
	d.Audio.DeviceID = a.MayInt("DEVICE", d.Audio.DeviceID)
	d.Audio.SampleRate = a.MayInt("SAMPLE_RATE", d.Audio.SampleRate)
	d.Audio.FrameSize = a.MayInt("FRAME_SIZE", d.Audio.FrameSize)
	d.Audio.QueueFrames = a.MayInt("QUEUE_FRAMES", d.Audio.QueueFrames)

	w := c.Prefix("WAKE_")
	d.Detector.BufferDuration = w.MayDuration("BUFFER", d.Detector.BufferDuration)
	d.Detector.CheckInterval = w.MayDuration("CHECK_INTERVAL", d.Detector.CheckInterval)
	d.Detector.ShortWindow = w.MayDuration("SHORT_WINDOW", d.Detector.ShortWindow)

	r := c.Prefix("RECORD_")
	d.Recorder.MaxDuration = r.MayDuration("MAX_DURATION", d.Recorder.MaxDuration)
	d.Recorder.PauseThreshold = r.MayDuration("PAUSE", d.Recorder.PauseThreshold)
	d.Recorder.PreRoll = r.MayDuration("PRE_ROLL", d.Recorder.PreRoll)
	d.Recorder.CaptureDir = r.MayString("CAPTURE_DIR", d.Recorder.CaptureDir)

	b := c.Prefix("STT_")
	d.Backend.Name = b.MayString("BACKEND", d.Backend.Name)
	d.Backend.WhisperModel = b.MayString("WHISPER_MODEL", d.Backend.WhisperModel)
	d.Backend.WhisperLang = b.MayString("WHISPER_LANG", d.Backend.WhisperLang)
	d.Backend.VoskURL = b.MayString("VOSK_URL", d.Backend.VoskURL)

	ds := c.Prefix("CONTROLLER_")
	d.Dispatcher.ControllerHost = ds.MayString("HOST", d.Dispatcher.ControllerHost)
	d.Dispatcher.Timeout = ds.MayDuration("TIMEOUT", d.Dispatcher.Timeout)

	d.API.Addr = c.Prefix("API_").MayString("ADDR", d.API.Addr)

	l := c.Prefix("LEXICON_")
	d.Lexicon.Path = l.MayString("PATH", d.Lexicon.Path)
	d.Lexicon.WakeWords = c.MayList("WAKE_WORDS", nil)
	d.Lexicon.StopWords = c.MayList("STOP_WORDS", nil)
	return d
}

// Validate rejects settings the audio path can't work with
func (c Config) Validate() error {
	switch {
	case c.Audio.SampleRate <= 0:
		return errors.New("config: sample rate must be positive")
	case c.Audio.FrameSize <= 0:
		return errors.New("config: frame size must be positive")
	case c.Audio.QueueFrames <= 0:
		return errors.New("config: queue frames must be positive")
	case c.Detector.CheckInterval <= 0:
		return errors.New("config: check interval must be positive")
	case c.Detector.ShortWindow > c.Detector.BufferDuration:
		return errors.Errorf("config: short window %s exceeds buffer %s", c.Detector.ShortWindow, c.Detector.BufferDuration)
	case c.Backend.Name != "whisper" && c.Backend.Name != "vosk":
		return errors.Errorf("config: unknown stt backend %q", c.Backend.Name)
	}
	return nil
}
