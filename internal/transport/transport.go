// Package transport owns play, pause and stop for the loaded video and keeps
// the visible transport affordances in step with the engine.
package transport

import (
	"errors"
	"fmt"
	"log"

	"github.com/ivlev/affectmark/internal/player"
)

type State int

const (
	Idle State = iota
	Loaded
	Playing
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loaded:
		return "loaded"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const (
	ShortcutPlayPause = "p"
	ShortcutMute      = "m"
)

// ToggleAction is one logical action shown at once as a menu entry, a button
// and a keyboard shortcut. Surfaces re-render all three from this value.
type ToggleAction struct {
	Label    string
	Shortcut string
	Handler  func() error
}

// Surface renders transport affordances and talks to the rater.
type Surface interface {
	RenderAction(a ToggleAction)
	RenderVolume(label string)
	ShowError(title string, err error)
	// AskPath asks for a video to open. An empty result means the rater
	// cancelled or will answer later with an explicit open.
	AskPath() string
}

type Machine struct {
	svc     player.Service
	surface Surface

	state   State
	video   string
	pending string
	volume  int
	muted   bool

	playPause ToggleAction
	mute      ToggleAction

	// OnLoad runs after a video was loaded, before auto-play.
	OnLoad func(path string)
	// OnStop runs whenever the machine enters Stopped.
	OnStop func()
}

// NewMachine creates a machine in Idle. initialVideo, when set, is opened by
// the first Toggle instead of asking for a path.
func NewMachine(svc player.Service, surface Surface, initialVideo string) *Machine {
	m := &Machine{
		svc:     svc,
		surface: surface,
		state:   Idle,
		pending: initialVideo,
		volume:  svc.Volume(),
	}
	m.playPause = ToggleAction{Label: "Play", Shortcut: ShortcutPlayPause, Handler: m.Toggle}
	m.mute = ToggleAction{Label: "Mute", Shortcut: ShortcutMute, Handler: m.ToggleMute}
	return m
}

// Render draws every affordance in its current form.
func (m *Machine) Render() {
	m.surface.RenderAction(m.playPause)
	m.surface.RenderAction(m.mute)
	m.surface.RenderVolume(m.VolumeLabel())
}

func (m *Machine) State() State { return m.state }

// Video is the path of the loaded video, "" before the first load.
func (m *Machine) Video() string { return m.video }

func (m *Machine) Muted() bool { return m.muted }

func (m *Machine) Actions() []ToggleAction {
	return []ToggleAction{m.playPause, m.mute}
}

// Action looks up an action by its shortcut.
func (m *Machine) Action(shortcut string) (ToggleAction, bool) {
	for _, a := range m.Actions() {
		if a.Shortcut == shortcut {
			return a, true
		}
	}
	return ToggleAction{}, false
}

func (m *Machine) VolumeLabel() string {
	if m.muted {
		return fmt.Sprintf("Volume %d (Muted)", m.volume)
	}
	return fmt.Sprintf("Volume %d", m.volume)
}

// Open stops whatever plays, loads path and starts playing it. An empty
// path asks the surface for one. On a load failure the machine stays Idle
// if nothing was ever loaded, otherwise it ends Stopped.
func (m *Machine) Open(path string) error {
	if path == "" {
		path = m.surface.AskPath()
		if path == "" {
			return nil
		}
	}

	if m.state != Idle {
		m.Stop()
	}

	if err := m.svc.Load(path); err != nil {
		m.surface.ShowError("Cannot open video", err)
		m.render()
		return err
	}

	m.video = path
	m.pending = ""
	m.state = Loaded
	m.render()
	log.Printf("[*] Loaded %s", path)
	if m.OnLoad != nil {
		m.OnLoad(path)
	}
	return m.Play()
}

// Play starts playback. An engine failure other than "nothing loaded" is
// shown and forces Stopped.
func (m *Machine) Play() error {
	if err := m.svc.Play(); err != nil {
		if errors.Is(err, player.ErrNoMedia) {
			m.render()
			return err
		}
		m.surface.ShowError("Playback failed", err)
		m.Stop()
		return err
	}

	m.state = Playing
	m.render()
	if v := m.svc.Volume(); v > 0 {
		m.volume = v
		m.surface.RenderVolume(m.VolumeLabel())
	}
	return nil
}

// Toggle pauses when the engine reports it is playing and plays otherwise.
// With nothing loaded it opens the configured video or asks for one.
func (m *Machine) Toggle() error {
	if m.svc.IsPlaying() {
		if err := m.svc.Pause(); err != nil {
			m.surface.ShowError("Playback failed", err)
			m.Stop()
			return err
		}
		m.state = Paused
		m.render()
		return nil
	}

	if !m.svc.HasMedia() {
		return m.Open(m.pending)
	}
	return m.Play()
}

// Stop always ends in Stopped, even when the engine has nothing loaded.
func (m *Machine) Stop() {
	if m.svc.HasMedia() {
		if err := m.svc.Stop(); err != nil {
			log.Printf("[!] Stop: %v", err)
		}
	}
	m.state = Stopped
	m.render()
	if m.OnStop != nil {
		m.OnStop()
	}
}

func (m *Machine) ToggleMute() error {
	muted := !m.muted
	if err := m.svc.SetMute(muted); err != nil {
		m.surface.ShowError("Mute failed", err)
		return err
	}
	m.muted = muted
	if muted {
		m.mute.Label = "Unmute"
	} else {
		m.mute.Label = "Mute"
	}
	m.surface.RenderAction(m.mute)
	m.surface.RenderVolume(m.VolumeLabel())
	return nil
}

// SetVolume updates the volume label and, unless playback is stopped, the
// engine. A rejected volume is shown but playback carries on.
func (m *Machine) SetVolume(vol int) error {
	m.volume = min(max(vol, 0), 100)
	m.surface.RenderVolume(m.VolumeLabel())

	if m.state == Idle || m.state == Stopped {
		return nil
	}
	if err := m.svc.SetVolume(m.volume); err != nil {
		m.surface.ShowError("Volume", err)
		return err
	}
	return nil
}

func (m *Machine) render() {
	if m.state == Playing {
		m.playPause.Label = "Pause"
	} else {
		m.playPause.Label = "Play"
	}
	m.surface.RenderAction(m.playPause)
}
