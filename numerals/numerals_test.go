package numerals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParser_ParseNumber(t *testing.T) {
	p := New(nil)

	for _, c := range []struct {
		phrase string
		want   int
		ok     bool
	}{
		{"двадцать два", 22, true},
		{"сто", 100, true},
		{"abc", 0, false},
		{"", 0, false},
		{"Тридцать Пять", 35, true},
		{"поставь двадцать градусов", 20, true},
		{"42", 42, true},
		{"двадцать 2", 22, true},
		// additive only, nonsense combinations still sum
		{"сто сто", 200, true},
		{"два сто", 102, true},
		// zero can't be told apart from "no numeral"
		{"ноль", 0, false},
		{"ноль ноль", 0, false},
	} {
		t.Run(c.phrase, func(t *testing.T) {
			got, ok := p.ParseNumber(c.phrase)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParser_IsNumeral(t *testing.T) {
	p := New(nil)
	assert.True(t, p.IsNumeral("пять"))
	assert.True(t, p.IsNumeral("ноль"))
	assert.True(t, p.IsNumeral("15"))
	assert.False(t, p.IsNumeral("свет"))
}
