// Package voice_activity_detection tells speech from background noise with
// the spectral flux of consecutive frames.
package voice_activity_detection

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Detector computes the spectral flux between consecutive frames
type Detector struct {
	frameSize int
	prev      []float64
}

func New(frameSize int) *Detector {
	return &Detector{frameSize: frameSize}
}

// Flux returns how much the magnitude spectrum rose since the previous
// frame. The first frame after New or Reset reports 0.
func (d *Detector) Flux(samples []int16) float64 {
	in := make([]float64, d.frameSize)
	for i := 0; i < len(samples) && i < d.frameSize; i++ {
		in[i] = float64(samples[i]) / math.MaxInt16
	}
	window.Apply(in, window.Hann)

	spectrum := fft.FFTReal(in)
	mag := make([]float64, len(spectrum)/2+1)
	for i := range mag {
		mag[i] = cmplx.Abs(spectrum[i])
	}

	var flux float64
	if d.prev != nil {
		for i, m := range mag {
			if diff := m - d.prev[i]; diff > 0 {
				flux += diff
			}
		}
	}
	d.prev = mag

	return flux
}

func (d *Detector) Reset() {
	d.prev = nil
}
