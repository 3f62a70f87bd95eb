// Package audio_capture holds the frame stream shared by the microphone, the
// wake word detector and the recorder. It stays free of cgo.
package audio_capture

import (
	"context"

	"github.com/pkg/errors"
)

// Frame is a fixed number of mono 16-bit samples
type Frame []int16

// Interface opens the capture device for one session. The channel is closed
// when ctx is done or the device fails.
type Interface interface {
	Frames(ctx context.Context) (<-chan Frame, error)
}

// ErrStreamClosed is returned by consumers when the frame channel closes under them
var ErrStreamClosed = errors.New("audio_capture: audio stream closed")
