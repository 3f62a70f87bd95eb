// Package microphone is the portaudio frame source, the only cgo part of capture
package microphone

import (
	"context"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	"home-voice-control/audio_capture"
	"home-voice-control/logger"
)

type portaudioImpl struct {
	deviceID    int
	sampleRate  int
	frameSize   int
	queueFrames int
	log         *logger.Logger
}

type Config struct {
	// DeviceID indexes portaudio.Devices(), negative means the default input
	DeviceID    int
	SampleRate  int
	FrameSize   int
	QueueFrames int
}

func New(cfg *Config) (audio_capture.Interface, error) {
	if cfg == nil {
		return nil, errors.New("microphone: config is nil")
	}

	if cfg.SampleRate <= 0 || cfg.FrameSize <= 0 || cfg.QueueFrames <= 0 {
		return nil, errors.Errorf("microphone: invalid format rate=%d frame=%d queue=%d",
			cfg.SampleRate, cfg.FrameSize, cfg.QueueFrames)
	}

	return &portaudioImpl{
		deviceID:    cfg.DeviceID,
		sampleRate:  cfg.SampleRate,
		frameSize:   cfg.FrameSize,
		queueFrames: cfg.QueueFrames,
		log:         logger.Named("microphone"),
	}, nil
}

func (p *portaudioImpl) Frames(ctx context.Context) (<-chan audio_capture.Frame, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "microphone: initializing portaudio failed")
	}

	in := make([]int16, p.frameSize)
	stream, err := p.open(in)
	if err != nil {
		p.terminate()
		return nil, err
	}

	if err = stream.Start(); err != nil {
		stream.Close()
		p.terminate()
		return nil, errors.Wrap(err, "microphone: starting stream failed")
	}

	q := audio_capture.NewFrameQueue(p.queueFrames)

	go func() {
		defer q.Close()
		defer p.terminate()
		defer stream.Close()
		defer stream.Stop()

		for ctx.Err() == nil {
			if err := stream.Read(); err != nil {
				// overflow only means we lost samples, the stream is still alive
				if errors.Is(err, portaudio.InputOverflowed) {
					p.log.Debug().Msg("input overflowed")
					continue
				}
				p.log.Error().Err(err).Msg("reading stream failed")
				return
			}

			f := make(audio_capture.Frame, len(in))
			copy(f, in)
			q.Push(f)
		}

		if n := q.Dropped(); n > 0 {
			p.log.Debug().Int64("dropped", n).Msg("frames dropped during session")
		}
	}()

	return q.C(), nil
}

func (p *portaudioImpl) open(in []int16) (*portaudio.Stream, error) {
	if p.deviceID < 0 {
		stream, err := portaudio.OpenDefaultStream(1, 0, float64(p.sampleRate), len(in), in)
		if err != nil {
			return nil, errors.Wrap(err, "microphone: opening default stream failed")
		}
		return stream, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "microphone: listing devices failed")
	}
	if p.deviceID >= len(devices) {
		return nil, errors.Errorf("microphone: device %d not found, %d available", p.deviceID, len(devices))
	}

	dev := devices[p.deviceID]
	p.log.Info().Int("device", p.deviceID).Str("name", dev.Name).Msg("opening input device")

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	params.SampleRate = float64(p.sampleRate)
	params.FramesPerBuffer = len(in)

	stream, err := portaudio.OpenStream(params, in)
	if err != nil {
		return nil, errors.Wrapf(err, "microphone: opening device %d failed", p.deviceID)
	}
	return stream, nil
}

func (p *portaudioImpl) terminate() {
	if err := portaudio.Terminate(); err != nil {
		p.log.Warn().Err(err).Msg("terminating portaudio failed")
	}
}
