package microphone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{SampleRate: 16000, FrameSize: 0, QueueFrames: 64})
	assert.Error(t, err)

	src, err := New(&Config{DeviceID: -1, SampleRate: 16000, FrameSize: 1600, QueueFrames: 64})
	require.NoError(t, err)
	assert.NotNil(t, src)
}
