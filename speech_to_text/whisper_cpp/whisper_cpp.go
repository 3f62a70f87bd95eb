// Package whisper_cpp transcribes with a local whisper.cpp model
package whisper_cpp

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/go-audio/audio"
	"github.com/pkg/errors"

	"home-voice-control/speech_to_text"
)

type sttImpl struct {
	model    whisper.Model
	language string
	// contexts of one model share its state
	mu sync.Mutex
}

type Config struct {
	Model whisper.Model
	// Language is set on every context when the model is multilingual, "ru" by default
	Language string
}

func New(cfg *Config) (speech_to_text.Interface, error) {
	if cfg == nil {
		return nil, errors.New("whisper_cpp: config is nil")
	}

	if cfg.Model == nil {
		return nil, errors.New("whisper_cpp: model is nil")
	}

	lang := cfg.Language
	if lang == "" {
		lang = "ru"
	}

	return &sttImpl{
		model:    cfg.Model,
		language: lang,
	}, nil
}

func (stt *sttImpl) Transcribe(ctx context.Context, buf audio.Buffer) (speech_to_text.Result, error) {
	if err := ctx.Err(); err != nil {
		return speech_to_text.Result{}, err
	}
	if buf == nil || buf.NumFrames() == 0 {
		return speech_to_text.Result{}, nil
	}

	stt.mu.Lock()
	defer stt.mu.Unlock()

	wctx, err := stt.model.NewContext()
	if err != nil {
		return speech_to_text.Result{}, errors.Wrap(err, "whisper_cpp: creating context failed")
	}

	if stt.model.IsMultilingual() {
		if err = wctx.SetLanguage(stt.language); err != nil {
			return speech_to_text.Result{}, errors.Wrapf(err, "whisper_cpp: setting language %s failed", stt.language)
		}
	}

	if err = wctx.Process(buf.AsFloat32Buffer().Data, nil); err != nil {
		return speech_to_text.Result{}, errors.Wrap(err, "whisper_cpp: processing failed")
	}

	segments, err := outputSegments(wctx)
	if err != nil {
		return speech_to_text.Result{}, err
	}

	return speech_to_text.NewResult(segments), ctx.Err()
}

// outputSegments drops non-speech markers like "[музыка]" and repeated text
func outputSegments(wctx whisper.Context) ([]speech_to_text.Segment, error) {
	seenText := make(map[string]bool)

	segments := make([]speech_to_text.Segment, 0)

	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			return segments, nil
		} else if err != nil {
			return nil, errors.Wrap(err, "whisper_cpp: reading segment failed")
		}

		text := strings.TrimSpace(segment.Text)
		if isNonSpeech(text) {
			continue
		}

		if seenText[text] {
			continue
		}
		seenText[text] = true

		segments = append(segments, speech_to_text.Segment{Start: segment.Start, End: segment.End, Text: text})
	}
}

func isNonSpeech(text string) bool {
	if text == "" {
		return true
	}
	return text[0] == '(' || text[0] == '[' ||
		text[len(text)-1] == ')' || text[len(text)-1] == ']'
}
