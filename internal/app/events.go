package app

import "github.com/ivlev/affectmark/internal/annotation"

// Event is an input for the session loop. Front ends post events; the loop
// handles them one at a time.
type Event interface {
	event()
}

// Open loads a video. An empty Path asks the front end for one.
type Open struct{ Path string }

// Toggle switches between play and pause.
type Toggle struct{}

type Stop struct{}

type Mute struct{}

// Shortcut triggers the action bound to Key.
type Shortcut struct{ Key string }

type Volume struct{ Level int }

// Rate is a movement of one rating slider.
type Rate struct {
	Channel annotation.Channel
	Value   float64
}

// Seek is an edit of the seek control, in seconds.
type Seek struct{ Seconds float64 }

// Configure reports that the window geometry changed. A non-empty Geometry
// is applied to the window first, as a user resize would.
type Configure struct{ Geometry string }

type Close struct{}

func (Open) event() {}
func (Toggle) event() {}
func (Stop) event() {}
func (Mute) event() {}
func (Shortcut) event() {}
func (Volume) event() {}
func (Rate) event() {}
func (Seek) event() {}
func (Configure) event() {}
func (Close) event() {}
