package geometry

import (
	"fmt"
	"math"
)

// Window is the primary video surface as the host sees it.
type Window interface {
	Geometry() string
	SetGeometry(geometry string)
}

// VideoSource reports frame and display sizes; both may be (0, 0) for a
// while after a load.
type VideoSource interface {
	VideoSize() (width, height int)
	ScreenSize() (width, height int)
}

type Policy string

const (
	// PolicyScreen sizes the window to a fraction of the screen, ignoring
	// the video's aspect ratio.
	PolicyScreen Policy = "screen"
	// PolicyAspect keeps the current width (landscape) or height (portrait)
	// and fits the other side to the video's aspect ratio.
	PolicyAspect Policy = "aspect"
)

type Config struct {
	Policy         Policy
	WidthFraction  float64
	HeightFraction float64
	// Screen size used when the engine cannot report one.
	ScreenWidth  int
	ScreenHeight int
}

func DefaultConfig() Config {
	return Config{
		Policy:         PolicyScreen,
		WidthFraction:  1.0,
		HeightFraction: 2.0 / 3.0,
		ScreenWidth:    1920,
		ScreenHeight:   1080,
	}
}

type resize struct {
	from, to string
}

// Adjuster resizes the window once per load, as soon as the engine knows
// the video size. It remembers the geometry it produced and what it has
// already applied, so configure events caused by its own resize cannot
// start a resize loop.
type Adjuster struct {
	cfg    Config
	window Window
	video  VideoSource

	lastSet  string
	adjusted bool
	applied  map[resize]bool
}

func NewAdjuster(cfg Config, window Window, video VideoSource) *Adjuster {
	if cfg.Policy == "" {
		cfg.Policy = PolicyScreen
	}
	return &Adjuster{
		cfg:     cfg,
		window:  window,
		video:   video,
		applied: make(map[resize]bool),
	}
}

// Pending reports whether the adjuster still wants to resize for the
// current load.
func (a *Adjuster) Pending() bool {
	return !a.adjusted
}

// Reset re-arms the adjuster for a newly loaded video.
func (a *Adjuster) Reset() {
	a.adjusted = false
	a.lastSet = ""
	a.applied = make(map[resize]bool)
}

// Evaluate runs one adjustment attempt. It reports whether the window was
// resized. A malformed geometry string from the host is returned wrapped in
// ErrGeometryParse; the caller just tries again on the next tick.
func (a *Adjuster) Evaluate() (bool, error) {
	if a.adjusted {
		return false, nil
	}

	// an unmapped window reports "" which also matches a fresh lastSet
	current := a.window.Geometry()
	if current == a.lastSet {
		return false, nil
	}

	vw, vh := a.video.VideoSize()
	if vw <= 0 || vh <= 0 {
		return false, nil
	}

	g, err := Parse(current)
	if err != nil {
		return false, err
	}

	target := a.Target(g, vw, vh).String()
	step := resize{from: current, to: target}
	if a.applied[step] || target == current {
		a.lastSet = current
		a.adjusted = true
		return false, nil
	}

	a.window.SetGeometry(target)
	a.applied[step] = true
	a.lastSet = a.window.Geometry()
	a.adjusted = true
	return true, nil
}

// Target computes the geometry the window should get, keeping its position.
func (a *Adjuster) Target(current Geometry, videoW, videoH int) Geometry {
	out := current

	switch a.cfg.Policy {
	case PolicyAspect:
		if videoW > videoH {
			out.Height = int(math.Round(float64(current.Width) * float64(videoH) / float64(videoW)))
		} else {
			out.Width = int(math.Round(float64(current.Height) * float64(videoW) / float64(videoH)))
		}
	default:
		sw, sh := a.video.ScreenSize()
		if sw <= 0 || sh <= 0 {
			sw, sh = a.cfg.ScreenWidth, a.cfg.ScreenHeight
		}
		out.Width = int(math.Round(float64(sw) * a.cfg.WidthFraction))
		out.Height = int(math.Round(float64(sh) * a.cfg.HeightFraction))
	}
	return out
}

func (p Policy) Validate() error {
	switch p {
	case PolicyScreen, PolicyAspect:
		return nil
	default:
		return fmt.Errorf("unknown geometry policy: %q", string(p))
	}
}
