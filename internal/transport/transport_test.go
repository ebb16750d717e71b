package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/affectmark/internal/player"
	"github.com/ivlev/affectmark/internal/player/playertest"
)

type fakeSurface struct {
	labels map[string]string
	volume string
	errors []error
	answer string
	asked  int
}

func newSurface() *fakeSurface {
	return &fakeSurface{labels: map[string]string{}}
}

func (s *fakeSurface) RenderAction(a ToggleAction) { s.labels[a.Shortcut] = a.Label }
func (s *fakeSurface) RenderVolume(label string) { s.volume = label }

func (s *fakeSurface) ShowError(_ string, err error) {
	s.errors = append(s.errors, err)
}

func (s *fakeSurface) AskPath() string {
	s.asked++
	return s.answer
}

func newMachine(t *testing.T) (*Machine, *playertest.Fake, *fakeSurface) {
	t.Helper()
	svc := playertest.New()
	surface := newSurface()
	m := NewMachine(svc, surface, "")
	m.Render()
	return m, svc, surface
}

func TestOpenAutoPlays(t *testing.T) {
	m, svc, surface := newMachine(t)
	var loaded string
	m.OnLoad = func(path string) { loaded = path }

	require.NoError(t, m.Open("clip.mp4"))

	assert.Equal(t, Playing, m.State())
	assert.Equal(t, "clip.mp4", m.Video())
	assert.Equal(t, "clip.mp4", loaded)
	assert.True(t, svc.Playing)
	assert.Equal(t, "Pause", surface.labels[ShortcutPlayPause])
}

func TestOpenFailureKeepsIdle(t *testing.T) {
	m, svc, surface := newMachine(t)
	svc.LoadErr = errors.New("no such file")

	err := m.Open("missing.mp4")
	require.ErrorIs(t, err, player.ErrMediaLoad)
	assert.Equal(t, Idle, m.State())
	assert.Len(t, surface.errors, 1)
	assert.Equal(t, "Play", surface.labels[ShortcutPlayPause])
}

func TestOpenFailureAfterPlaybackStops(t *testing.T) {
	m, svc, _ := newMachine(t)
	require.NoError(t, m.Open("a.mp4"))

	svc.LoadErr = errors.New("unsupported")
	require.ErrorIs(t, m.Open("b.mp4"), player.ErrMediaLoad)
	assert.Equal(t, Stopped, m.State())
	assert.Equal(t, "a.mp4", m.Video())
}

func TestToggleFollowsEngine(t *testing.T) {
	m, svc, surface := newMachine(t)
	require.NoError(t, m.Open("clip.mp4"))

	require.NoError(t, m.Toggle())
	assert.Equal(t, Paused, m.State())
	assert.Equal(t, "Play", surface.labels[ShortcutPlayPause])

	require.NoError(t, m.Toggle())
	assert.Equal(t, Playing, m.State())

	// playback ended on its own; the engine is the source of truth
	svc.Playing = false
	require.NoError(t, m.Toggle())
	assert.Equal(t, Playing, m.State())
	assert.True(t, svc.Playing)
}

func TestToggleFromIdle(t *testing.T) {
	t.Run("configured video", func(t *testing.T) {
		svc := playertest.New()
		surface := newSurface()
		m := NewMachine(svc, surface, "first.mp4")

		require.NoError(t, m.Toggle())
		assert.Equal(t, Playing, m.State())
		assert.Equal(t, "first.mp4", svc.Media)
		assert.Zero(t, surface.asked)
	})

	t.Run("asks for a path", func(t *testing.T) {
		m, svc, surface := newMachine(t)
		surface.answer = "picked.mp4"

		require.NoError(t, m.Toggle())
		assert.Equal(t, 1, surface.asked)
		assert.Equal(t, "picked.mp4", svc.Media)
	})

	t.Run("cancelled", func(t *testing.T) {
		m, _, surface := newMachine(t)

		require.NoError(t, m.Toggle())
		assert.Equal(t, 1, surface.asked)
		assert.Equal(t, Idle, m.State())
	})
}

func TestStopFromAnyState(t *testing.T) {
	setups := map[string]func(m *Machine){
		"idle":    func(m *Machine) {},
		"playing": func(m *Machine) { m.Open("clip.mp4") },
		"paused": func(m *Machine) {
			m.Open("clip.mp4")
			m.Toggle()
		},
		"stopped": func(m *Machine) {
			m.Open("clip.mp4")
			m.Stop()
		},
	}

	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			m, svc, surface := newMachine(t)
			setup(m)

			stops := 0
			m.OnStop = func() { stops++ }
			m.Stop()

			assert.Equal(t, Stopped, m.State())
			assert.Equal(t, 1, stops)
			assert.False(t, svc.Playing)
			assert.Equal(t, "Play", surface.labels[ShortcutPlayPause])
		})
	}
}

func TestPlayFailureForcesStopped(t *testing.T) {
	m, svc, surface := newMachine(t)
	svc.PlayErr = errors.New("decoder crashed")

	err := m.Open("clip.mp4")
	require.ErrorIs(t, err, player.ErrPlayback)
	assert.Equal(t, Stopped, m.State())
	require.Len(t, surface.errors, 1)
	assert.ErrorIs(t, surface.errors[0], player.ErrPlayback)
}

func TestPlayWithoutMediaIsNotAFailure(t *testing.T) {
	m, _, surface := newMachine(t)

	err := m.Play()
	require.ErrorIs(t, err, player.ErrNoMedia)
	assert.Equal(t, Idle, m.State())
	assert.Empty(t, surface.errors)
}

func TestPlayResyncsVolume(t *testing.T) {
	m, svc, surface := newMachine(t)
	require.NoError(t, m.SetVolume(80))
	assert.Equal(t, "Volume 80", surface.volume)

	// the engine clamps on its side
	svc.Vol = 65
	require.NoError(t, m.Open("clip.mp4"))
	assert.Equal(t, "Volume 65", surface.volume)
}

func TestVolume(t *testing.T) {
	m, svc, surface := newMachine(t)

	require.NoError(t, m.SetVolume(150))
	assert.Equal(t, "Volume 100", surface.volume)
	assert.Empty(t, svc.Calls, "volume is not sent while idle")

	require.NoError(t, m.Open("clip.mp4"))
	require.NoError(t, m.SetVolume(-3))
	assert.Equal(t, 0, svc.Vol)
	assert.Equal(t, "Volume 0", surface.volume)

	svc.VolumeErr = errors.New("mixer busy")
	err := m.SetVolume(40)
	require.ErrorIs(t, err, player.ErrVolumeSet)
	assert.Equal(t, Playing, m.State(), "volume failure must not stop playback")
	assert.Len(t, surface.errors, 1)
}

func TestMuteAction(t *testing.T) {
	m, svc, surface := newMachine(t)
	require.NoError(t, m.SetVolume(70))

	a, ok := m.Action(ShortcutMute)
	require.True(t, ok)
	require.NoError(t, a.Handler())

	assert.True(t, svc.Muted)
	assert.Equal(t, "Unmute", surface.labels[ShortcutMute])
	assert.Equal(t, "Volume 70 (Muted)", surface.volume)

	a, _ = m.Action(ShortcutMute)
	require.NoError(t, a.Handler())
	assert.False(t, svc.Muted)
	assert.Equal(t, "Mute", surface.labels[ShortcutMute])
	assert.Equal(t, "Volume 70", surface.volume)
}

func TestActionsShareHandlers(t *testing.T) {
	m, svc, _ := newMachine(t)
	require.NoError(t, m.Open("clip.mp4"))

	a, ok := m.Action(ShortcutPlayPause)
	require.True(t, ok)
	assert.Equal(t, "Pause", a.Label)

	require.NoError(t, a.Handler())
	assert.False(t, svc.Playing)

	_, ok = m.Action("x")
	assert.False(t, ok)
}
