package speech_to_text

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
)

// NewBuffer wraps mono 16-bit samples
func NewBuffer(samples []int16, sampleRate int) *audio.IntBuffer {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
}

// LoadWav decodes a whole wav file
func LoadWav(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "speech_to_text: opening %s failed", path)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.Errorf("speech_to_text: %s is not a valid wav file", path)
	}
	if dec.NumChans != 1 || dec.BitDepth != 16 {
		return nil, errors.Errorf("speech_to_text: %s must be mono 16-bit, got %d channels %d-bit",
			path, dec.NumChans, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrapf(err, "speech_to_text: decoding %s failed", path)
	}
	return buf, nil
}
