package scheduler

import (
	"testing"
	"time"
)

func TestTicksDoNotOverlap(t *testing.T) {
	const period = 5 * time.Millisecond
	s := New(period)
	defer s.Stop()

	var (
		running  bool
		overlaps int
		starts   []time.Time
	)
	body := func() {
		if running {
			overlaps++
		}
		running = true
		starts = append(starts, time.Now())
		time.Sleep(3 * period)
		running = false
	}

	for i := 0; i < 4; i++ {
		<-s.C()
		s.Run(body)
	}

	if overlaps != 0 {
		t.Fatalf("%d overlapping ticks", overlaps)
	}
	for i := 1; i < len(starts); i++ {
		// body duration plus one full period between starts
		if gap := starts[i].Sub(starts[i-1]); gap < 4*period {
			t.Errorf("tick %d started %v after the previous one, want >= %v", i, gap, 4*period)
		}
	}
	if s.Ticks() != 4 {
		t.Errorf("Ticks() = %d, want 4", s.Ticks())
	}
}

func TestStopCancelsPendingTick(t *testing.T) {
	s := New(5 * time.Millisecond)
	s.Stop()

	select {
	case <-s.C():
		t.Fatal("tick delivered after Stop")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestStopInsideBodyPreventsRearm(t *testing.T) {
	s := New(2 * time.Millisecond)
	<-s.C()
	s.Run(s.Stop)

	select {
	case <-s.C():
		t.Fatal("timer re-armed after Stop")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestDefaultPeriod(t *testing.T) {
	s := New(0)
	defer s.Stop()
	if s.Period() != DefaultPeriod {
		t.Errorf("Period() = %v, want %v", s.Period(), DefaultPeriod)
	}
}
