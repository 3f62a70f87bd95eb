package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"home-voice-control/intent"
)

func segs(ts ...string) []intent.CommandSegment {
	out := make([]intent.CommandSegment, len(ts))
	for i, t := range ts {
		out[i] = intent.CommandSegment{Text: t, Order: i}
	}
	return out
}

func rooms(rs []intent.ResolvedCommand) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = intent.Deref(r.Room)
	}
	return out
}

func TestResolver_Resolve(t *testing.T) {
	r := New(nil)

	for _, c := range []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "back reference",
			in:   []string{"включи свет в кухне", "и там же выключи телевизор"},
			want: []string{"кухня", "кухня"},
		},
		{
			name: "ellipsis",
			in:   []string{"включи свет в спальне", "закрой шторы", "выключи радио"},
			want: []string{"спальня", "спальня", "спальня"},
		},
		{
			name: "explicit mention wins",
			in:   []string{"включи свет в спальне", "выключи свет в гостиной", "открой окно"},
			want: []string{"спальня", "гостиная", "гостиная"},
		},
		{
			name: "nothing named",
			in:   []string{"включи свет", "там выключи радио"},
			want: []string{"", ""},
		},
		{
			name: "room named later",
			in:   []string{"включи свет", "открой окно на балконе"},
			want: []string{"", "балкон"},
		},
		{
			name: "inherit next",
			in:   []string{"включи свет на кухне и там же", "выключи телевизор"},
			want: []string{"кухня", "кухня"},
		},
		{
			name: "no substring inside other words",
			in:   []string{"сказала включи свет"},
			want: []string{""},
		},
	} {
		t.Run(c.name, func(t *testing.T) {
			got := r.Resolve(segs(c.in...))
			require.Len(t, got, len(c.in))
			assert.Equal(t, c.want, rooms(got))
			for i, g := range got {
				assert.Equal(t, i, g.Segment.Order)
			}
		})
	}
}

func TestResolver_Room(t *testing.T) {
	r := New(nil)
	assert.Equal(t, "кухня", intent.Deref(r.Room("свет на кухне")))
	assert.Equal(t, "ванная", intent.Deref(r.Room("в ванной")))
	assert.Nil(t, r.Room("свет"))
}

func TestResolver_Empty(t *testing.T) {
	assert.Empty(t, New(nil).Resolve(nil))
}
