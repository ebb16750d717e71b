// Package scheduler provides the periodic tick that drives playback sync.
package scheduler

import "time"

const DefaultPeriod = time.Second

// Scheduler is a self re-arming one-shot timer. The next tick is armed only
// after the previous tick's body has returned, so ticks never overlap and
// a slow body stretches the cadence instead of queueing ticks.
//
// A Scheduler belongs to the goroutine that selects on C.
type Scheduler struct {
	period  time.Duration
	timer   *time.Timer
	stopped bool
	ticks   int
}

// New arms the first tick one period from now.
func New(period time.Duration) *Scheduler {
	if period <= 0 {
		period = DefaultPeriod
	}
	return &Scheduler{
		period: period,
		timer:  time.NewTimer(period),
	}
}

// C delivers a value when a tick is due.
func (s *Scheduler) C() <-chan time.Time {
	return s.timer.C
}

// Run executes body for a delivered tick and re-arms the timer afterwards.
func (s *Scheduler) Run(body func()) {
	s.ticks++
	body()
	if !s.stopped {
		s.timer.Reset(s.period)
	}
}

// Stop cancels the pending tick. A body running at the time does not
// re-arm the timer.
func (s *Scheduler) Stop() {
	s.stopped = true
	s.timer.Stop()
}

func (s *Scheduler) Period() time.Duration { return s.period }

// Ticks is the number of tick bodies run so far.
func (s *Scheduler) Ticks() int { return s.ticks }
