// Package timesync keeps the seek control in step with the playback clock
// without fighting a rater who is dragging it.
package timesync

import (
	"math"
	"time"
)

// DefaultQuiescence is how long user input keeps authority over the seek
// control after an edit.
const DefaultQuiescence = 2 * time.Second

// Engine is the part of the playback service the controller needs.
type Engine interface {
	TimeMs() int
	LengthMs() int
	SetTimeMs(ms int) error
}

// SeekControl is what the front end draws.
type SeekControl struct {
	Value float64 // seconds
	Max   float64 // seconds, 0 while the length is unknown
}

type Controller struct {
	engine     Engine
	quiescence time.Duration
	now        func() time.Time

	displayed float64
	committed int
	max       float64
	lastEdit  time.Time
}

func NewController(engine Engine, quiescence time.Duration) *Controller {
	if quiescence <= 0 {
		quiescence = DefaultQuiescence
	}
	return &Controller{
		engine:     engine,
		quiescence: quiescence,
		now:        time.Now,
	}
}

// Pull refreshes the control from the engine. It runs once per tick and
// never seeks.
func (c *Controller) Pull() SeekControl {
	length := c.engine.LengthMs()
	if length > 0 {
		c.max = float64(length) / 1000

		pos := float64(c.engine.TimeMs()) / 1000
		if pos > 0 && c.now().Sub(c.lastEdit) >= c.quiescence {
			c.displayed = pos
			c.committed = int(pos)
		}
	}
	return c.Control()
}

// Push handles an edit of the control. The engine is only told to seek when
// the whole-second value moved away from the last committed one, so range
// and label refreshes that echo back through the control are ignored.
// Values are clamped to [0, Max] once the length is known; non-finite
// values are dropped.
func (c *Controller) Push(value float64) (bool, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return false, nil
	}
	value = max(value, 0)
	if c.max > 0 {
		value = min(value, c.max)
	}
	c.displayed = value
	if int(value) == c.committed {
		return false, nil
	}
	c.committed = int(value)
	c.lastEdit = c.now()
	if err := c.engine.SetTimeMs(int(value * 1000)); err != nil {
		return true, err
	}
	return true, nil
}

// Reset puts the control back at zero, as after a stop.
func (c *Controller) Reset() SeekControl {
	c.displayed = 0
	c.committed = 0
	return c.Control()
}

func (c *Controller) Control() SeekControl {
	return SeekControl{Value: c.displayed, Max: c.max}
}

// Quiet reports whether the quiescence window since the last edit is over.
func (c *Controller) Quiet() bool {
	return c.now().Sub(c.lastEdit) >= c.quiescence
}
