// Package playertest provides an in-memory player.Service for tests.
package playertest

import (
	"fmt"

	"github.com/ivlev/affectmark/internal/player"
)

// Fake is a scriptable player.Service. Set the *Err fields to make the
// matching command fail; the error is wrapped in the package sentinel the
// real engine would use. Fake is not safe for concurrent use.
type Fake struct {
	Media    string
	Playing  bool
	Position int // ms
	Length   int
	Vol      int
	Muted    bool

	Width, Height             int
	ScreenWidth, ScreenHeight int

	LoadErr   error
	PlayErr   error
	VolumeErr error
	SeekErr   error

	Seeks      []int
	Geometries []string
	Calls      []string
	Closed     bool
}

var (
	_ player.Service        = (*Fake)(nil)
	_ player.GeometrySetter = (*Fake)(nil)
)

func New() *Fake {
	return &Fake{Vol: 100}
}

func (f *Fake) Load(path string) error {
	f.Calls = append(f.Calls, "load")
	if f.LoadErr != nil {
		return fmt.Errorf("%w: %s: %v", player.ErrMediaLoad, path, f.LoadErr)
	}
	f.Media = path
	f.Playing = false
	f.Position = 0
	return nil
}

func (f *Fake) Play() error {
	f.Calls = append(f.Calls, "play")
	if f.Media == "" {
		return player.ErrNoMedia
	}
	if f.PlayErr != nil {
		return fmt.Errorf("%w: %v", player.ErrPlayback, f.PlayErr)
	}
	f.Playing = true
	return nil
}

func (f *Fake) Pause() error {
	f.Calls = append(f.Calls, "pause")
	f.Playing = false
	return nil
}

func (f *Fake) Stop() error {
	f.Calls = append(f.Calls, "stop")
	f.Playing = false
	f.Position = 0
	return nil
}

func (f *Fake) HasMedia() bool { return f.Media != "" }
func (f *Fake) IsPlaying() bool { return f.Playing }
func (f *Fake) TimeMs() int { return f.Position }
func (f *Fake) LengthMs() int { return f.Length }
func (f *Fake) Volume() int { return f.Vol }

func (f *Fake) SetTimeMs(ms int) error {
	if f.SeekErr != nil {
		return fmt.Errorf("%w: seek to %dms: %v", player.ErrPlayback, ms, f.SeekErr)
	}
	f.Seeks = append(f.Seeks, ms)
	f.Position = ms
	return nil
}

func (f *Fake) SetVolume(vol int) error {
	if f.VolumeErr != nil {
		return fmt.Errorf("%w: %d: %v", player.ErrVolumeSet, vol, f.VolumeErr)
	}
	f.Vol = vol
	return nil
}

func (f *Fake) SetMute(muted bool) error {
	f.Muted = muted
	return nil
}

func (f *Fake) VideoSize() (int, int) { return f.Width, f.Height }
func (f *Fake) ScreenSize() (int, int) { return f.ScreenWidth, f.ScreenHeight }

func (f *Fake) SetGeometry(geometry string) error {
	f.Geometries = append(f.Geometries, geometry)
	return nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
