package audio_capture

import (
	"go/build"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// the detector and recorder build against this package, so it must link without libportaudio
func TestPackageIsCgoFree(t *testing.T) {
	pkg, err := build.ImportDir(".", 0)
	require.NoError(t, err)

	assert.Empty(t, pkg.CgoFiles)
	assert.NotContains(t, pkg.Imports, "C")
	assert.NotContains(t, pkg.Imports, "github.com/gordonklaus/portaudio")
}
