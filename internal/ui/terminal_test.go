package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/affectmark/internal/annotation"
	"github.com/ivlev/affectmark/internal/app"
	"github.com/ivlev/affectmark/internal/geometry"
	"github.com/ivlev/affectmark/internal/player/playertest"
	"github.com/ivlev/affectmark/internal/timesync"
	"github.com/ivlev/affectmark/internal/transport"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want app.Event
	}{
		{"", nil},
		{"   ", nil},
		{"o", app.Open{}},
		{"o /videos/my clip.mp4", app.Open{Path: "/videos/my clip.mp4"}},
		{"p", app.Shortcut{Key: transport.ShortcutPlayPause}},
		{"m", app.Shortcut{Key: transport.ShortcutMute}},
		{"s", app.Stop{}},
		{"q", app.Close{}},
		{"vol 55", app.Volume{Level: 55}},
		{"v 5", app.Rate{Channel: annotation.Valence, Value: 5}},
		{"a -2.5", app.Rate{Channel: annotation.Arousal, Value: -2.5}},
		{"v 14", app.Rate{Channel: annotation.Valence, Value: 10}},
		{"a -30", app.Rate{Channel: annotation.Arousal, Value: -10}},
		{"t 10", app.Seek{Seconds: 10}},
		{"t 1e300", app.Seek{Seconds: 1e300}},
		{"g 1280x720+10+20", app.Configure{Geometry: "1280x720+10+20"}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{
		"x", "vol", "vol loud", "v", "a 1 2", "t -1", "t soon", "g", "g 12x",
		"v NaN", "a nan", "v Inf", "a -Inf", "t NaN", "t +Inf", "t 1e400",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line)
			assert.Error(t, err)
		})
	}

	_, err := Parse("g 12x")
	assert.ErrorIs(t, err, geometry.ErrGeometryParse)
	_, err = Parse("zap")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

type collector struct {
	events []app.Event
}

func (c *collector) post(ev app.Event) bool {
	c.events = append(c.events, ev)
	return true
}

func TestReadCommands(t *testing.T) {
	in := strings.NewReader("o clip.mp4\nv 3\nbogus\nt 12.5\n")
	var out, errOut bytes.Buffer
	term := NewTerminal(in, &out, &errOut, nil)

	var c collector
	require.NoError(t, term.ReadCommands(context.Background(), c.post))

	assert.Equal(t, []app.Event{
		app.Open{Path: "clip.mp4"},
		app.Rate{Channel: annotation.Valence, Value: 3},
		app.Seek{Seconds: 12.5},
		app.Close{},
	}, c.events)
	assert.Contains(t, errOut.String(), "unknown command")
	assert.Contains(t, term.Status(), "valence +3")
}

func TestAskPathTakesNextLine(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out, &out, nil)

	assert.Equal(t, "", term.AskPath())
	assert.Contains(t, out.String(), "Video path")

	var c collector
	term.handleLine("/data/q.mp4", c.post)
	term.handleLine("q", c.post)
	assert.Equal(t, []app.Event{app.Open{Path: "/data/q.mp4"}, app.Close{}}, c.events)

	// an empty answer cancels
	c.events = nil
	term.AskPath()
	term.handleLine("", c.post)
	assert.Empty(t, c.events)

	// q still quits while the prompt is open
	term.AskPath()
	term.handleLine(" q ", c.post)
	assert.Equal(t, []app.Event{app.Close{}}, c.events)
}

func TestRendering(t *testing.T) {
	var out, errOut bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out, &errOut, nil)

	term.RenderAction(transport.ToggleAction{Label: "Pause", Shortcut: "p"})
	term.RenderAction(transport.ToggleAction{Label: "Pause", Shortcut: "p"})
	term.RenderVolume("Volume 80 (Muted)")
	term.RenderSeek(timesync.SeekControl{Value: 75, Max: 120})
	term.ShowError("Volume", errors.New("mixer busy"))

	assert.Equal(t, 1, strings.Count(out.String(), "[p] Pause"))
	assert.Contains(t, out.String(), "Volume 80 (Muted)")
	assert.Contains(t, out.String(), "Length 02:00")
	assert.Equal(t, "[!] Volume: mixer busy\n", errOut.String())
	assert.Contains(t, term.Status(), "01:15 / 02:00")
}

func TestSetGeometryForwardsToEngine(t *testing.T) {
	svc := playertest.New()
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out, &out, svc)

	assert.Equal(t, DefaultGeometry, term.Geometry())
	term.SetGeometry("1920x720+0+0")

	assert.Equal(t, "1920x720+0+0", term.Geometry())
	assert.Equal(t, []string{"1920x720+0+0"}, svc.Geometries)
}

func TestResetRatings(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out, &out, nil)

	var c collector
	term.handleLine("a 7", c.post)
	term.ResetRatings()
	assert.Contains(t, term.Status(), "arousal +0")
}
