package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, parseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("whatever"))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("LOG_CALLER", "true")

	o := FromEnv()
	assert.Equal(t, "debug", o.Level)
	assert.Equal(t, "json", o.Format)
	assert.True(t, o.WithCaller)
	assert.Equal(t, "home-voice-control", o.Service)
}

func TestNamed(t *testing.T) {
	assert.NotNil(t, Named(""))
	assert.NotNil(t, Named("listener"))
}
