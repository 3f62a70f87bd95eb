package lexicon

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	l := Default()
	require.NotNil(t, l)

	// Table order is priority, it must survive loading
	assert.Equal(t, "включи", l.Actions()[0].Key)
	assert.Equal(t, "выключи", l.Actions()[1].Key)
	assert.Equal(t, "свет", l.Objects()[0].Key)
	assert.Equal(t, "гостиная", l.Rooms()[0].Name)

	v, ok := l.Number("двадцать")
	assert.True(t, ok)
	assert.Equal(t, 20, v)
	_, ok = l.Number("abc")
	assert.False(t, ok)

	assert.Contains(t, l.WakeWords(), "карма")
	assert.Contains(t, l.StopWords(), "стоп")
	assert.True(t, l.IsSegmentVerb("выключи"))
	assert.False(t, l.IsSegmentVerb("свет"))
	v, ok = l.Number("ноль")
	assert.True(t, ok)
	assert.Equal(t, 0, v)
	assert.Same(t, l, Default())
}

func TestLoad_Override(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/voice/lexicon.yaml", []byte(`
wake_words: [Джарвис, джарвиса]
extend:
  objects:
    - key: свет
      synonyms: [люстру]
    - key: пылесос
      synonyms: [пылесос, пылесоса]
  rooms:
    - name: мастерская
      forms: [мастерской, мастерскую]
  numbers:
    полтора: 1
`), 0644))

	l, err := Load(Options{Fs: fs, Path: "/etc/voice/lexicon.yaml"})
	require.NoError(t, err)

	assert.Equal(t, []string{"джарвис", "джарвиса"}, l.WakeWords())
	assert.Contains(t, l.Objects()[0].Synonyms, "люстру")
	last := l.Objects()[len(l.Objects())-1]
	assert.Equal(t, "пылесос", last.Key)
	assert.Equal(t, "мастерская", l.Rooms()[len(l.Rooms())-1].Name)
	_, ok := l.Number("полтора")
	assert.True(t, ok)
	_, ok = l.Number("сто")
	assert.True(t, ok)

	// the shared default is untouched
	assert.NotContains(t, Default().Objects()[0].Synonyms, "люстру")
}

func TestLoad_OptionWords(t *testing.T) {
	l, err := Load(Options{StopWords: []string{"Хватит"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"хватит"}, l.StopWords())
	assert.Equal(t, Default().WakeWords(), l.WakeWords())
}

func TestLoad_Invalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte(`
actions:
  - key: включи
    synonyms: []
`), 0644))
	_, err := Load(Options{Fs: fs, Path: "bad.yaml"})
	assert.Error(t, err)

	_, err = Load(Options{Fs: fs, Path: "missing.yaml"})
	assert.Error(t, err)
}
