package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"home-voice-control/audio_capture/microphone"
	"home-voice-control/clients/controller"
	"home-voice-control/config"
	"home-voice-control/intent"
	"home-voice-control/lexicon"
	"home-voice-control/listener"
	"home-voice-control/logger"
	"home-voice-control/server"
	"home-voice-control/speech_extraction"
	"home-voice-control/speech_to_text"
	"home-voice-control/speech_to_text/whisper_cpp"
	"home-voice-control/understanding"
	"home-voice-control/wake_word"
)

func main() {
	envFlag := flag.String("env", ".env", "optional env file with VOICE_* settings")
	modelFlag := flag.String("m", "", "model file for whisper")
	backendFlag := flag.String("backend", "", "speech to text backend: whisper or vosk")
	voskFlag := flag.String("vosk", "", "vosk server websocket url")
	lexiconFlag := flag.String("lexicon", "", "lexicon override yaml")
	wavFlag := flag.String("wav", "", "transcribe and run one wav file, then exit")
	textFlag := flag.String("text", "", "run one text command, then exit")
	serveFlag := flag.Bool("serve", false, "serve the HTTP API")
	listenFlag := flag.Bool("listen", true, "listen to the microphone")

	flag.Parse()

	// the env file goes first so LOG_* set there reach the logger
	cfg, err := config.Load(*envFlag)

	logger.Init(logger.FromEnv())
	log := logger.Named("main")

	if err != nil {
		log.Fatal().Err(err).Msg("error loading config")
	}

	if *modelFlag != "" {
		cfg.Backend.WhisperModel = *modelFlag
	}
	if *backendFlag != "" {
		cfg.Backend.Name = *backendFlag
	}
	if *voskFlag != "" {
		cfg.Backend.VoskURL = *voskFlag
	}
	if *lexiconFlag != "" {
		cfg.Lexicon.Path = *lexiconFlag
	}

	if err = cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	lex, err := lexicon.Load(lexicon.Options{
		Fs:        afero.NewOsFs(),
		Path:      cfg.Lexicon.Path,
		WakeWords: cfg.Lexicon.WakeWords,
		StopWords: cfg.Lexicon.StopWords,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("error loading lexicon")
	}
	log.Info().Stringer("lexicon", lex).Msg("lexicon loaded")

	pipeline, err := understanding.New(&understanding.Config{Lexicon: lex})
	if err != nil {
		log.Fatal().Err(err).Msg("error with understanding.New")
	}

	dispatcher, err := newDispatcher(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating dispatcher")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *textFlag != "" {
		if err = runOnce(ctx, pipeline, dispatcher, *textFlag); err != nil {
			log.Fatal().Err(err).Msg("error running text command")
		}
		return
	}

	needSTT := *wavFlag != "" || *listenFlag
	var sttEngine speech_to_text.Interface
	if needSTT {
		var closeSTT func()
		sttEngine, closeSTT, err = newSTT(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("error creating speech to text backend")
		}
		defer closeSTT()
	}

	if *wavFlag != "" {
		buf, err := speech_to_text.LoadWav(*wavFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("error loading wav")
		}
		res, err := sttEngine.Transcribe(ctx, buf)
		if err != nil {
			log.Fatal().Err(err).Msg("error transcribing wav")
		}
		if err = runOnce(ctx, pipeline, dispatcher, res.Text); err != nil {
			log.Fatal().Err(err).Msg("error running wav command")
		}
		return
	}

	var (
		control listener.Interface
		wg      sync.WaitGroup
	)

	if *listenFlag {
		control, err = newListener(cfg, lex, sttEngine, pipeline, dispatcher)
		if err != nil {
			log.Fatal().Err(err).Msg("error creating listener")
		}
	}

	if *serveFlag {
		srvCfg := &server.Config{Addr: cfg.API.Addr, Pipeline: pipeline, Dispatcher: dispatcher}
		if control != nil {
			srvCfg.Control = control
		}
		srv, err := server.New(srvCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("error with server.New")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				log.Error().Err(err).Msg("http server failed")
				stop()
			}
		}()
	}

	if control != nil {
		if err = control.ListenLoop(ctx); err != nil {
			log.Error().Err(err).Msg("listen loop failed")
		}
		// a stop word ends the process, the server goes with it
		stop()
	}

	wg.Wait()
}

func newDispatcher(cfg config.Config) (controller.Dispatcher, error) {
	if cfg.Dispatcher.ControllerHost == "" {
		return controller.NewLog(), nil
	}
	return controller.NewClient(&controller.Config{
		ApiHost: cfg.Dispatcher.ControllerHost,
		Timeout: cfg.Dispatcher.Timeout,
	})
}

func newSTT(cfg config.Config) (speech_to_text.Interface, func(), error) {
	if cfg.Backend.Name == "vosk" {
		stt, err := speech_to_text.NewVosk(&speech_to_text.VoskConfig{URL: cfg.Backend.VoskURL})
		return stt, func() {}, err
	}

	if cfg.Backend.WhisperModel == "" {
		return nil, nil, errors.New("model file not specified")
	}

	// Load model
	model, err := whisper.New(cfg.Backend.WhisperModel)
	if err != nil {
		return nil, nil, errors.Wrap(err, "loading model failed")
	}

	stt, err := whisper_cpp.New(&whisper_cpp.Config{
		Model:    model,
		Language: cfg.Backend.WhisperLang,
	})
	if err != nil {
		model.Close()
		return nil, nil, err
	}
	return stt, func() { model.Close() }, nil
}

func newListener(
	cfg config.Config,
	lex *lexicon.Lexicon,
	sttEngine speech_to_text.Interface,
	pipeline understanding.Interface,
	dispatcher controller.Dispatcher,
) (listener.Interface, error) {
	source, err := microphone.New(&microphone.Config{
		DeviceID:    cfg.Audio.DeviceID,
		SampleRate:  cfg.Audio.SampleRate,
		FrameSize:   cfg.Audio.FrameSize,
		QueueFrames: cfg.Audio.QueueFrames,
	})
	if err != nil {
		return nil, err
	}

	detector, err := wake_word.New(&wake_word.Config{
		STTEngine:      sttEngine,
		Lexicon:        lex,
		SampleRate:     cfg.Audio.SampleRate,
		BufferDuration: cfg.Detector.BufferDuration,
		CheckInterval:  cfg.Detector.CheckInterval,
		ShortWindow:    cfg.Detector.ShortWindow,
	})
	if err != nil {
		return nil, err
	}

	recorder, err := speech_extraction.New(&speech_extraction.Config{
		STTEngine:      sttEngine,
		Lexicon:        lex,
		FileSys:        afero.NewOsFs(),
		CaptureDir:     cfg.Recorder.CaptureDir,
		SampleRate:     cfg.Audio.SampleRate,
		MaxDuration:    cfg.Recorder.MaxDuration,
		PauseThreshold: cfg.Recorder.PauseThreshold,
		PreRoll:        cfg.Recorder.PreRoll,
	})
	if err != nil {
		return nil, err
	}

	return listener.New(&listener.Config{
		Source:     source,
		Detector:   detector,
		Recorder:   recorder,
		STTEngine:  sttEngine,
		Pipeline:   pipeline,
		Dispatcher: dispatcher,
	})
}

// runOnce prints the commands of one utterance as JSON and dispatches them
func runOnce(ctx context.Context, pipeline understanding.Interface, dispatcher controller.Dispatcher, text string) error {
	u := intent.NewUtterance(text, time.Now())
	commands := pipeline.Understand(u)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(controller.NewPayload(u, commands)); err != nil {
		return errors.Wrap(err, "writing commands failed")
	}

	return dispatcher.Dispatch(ctx, u, commands)
}
