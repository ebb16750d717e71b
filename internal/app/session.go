// Package app runs a rating session: one goroutine owns the transport, the
// seek sync, the window adjuster and the recorder, and handles front end
// events and scheduler ticks strictly one after the other.
package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/affectmark/internal/annotation"
	"github.com/ivlev/affectmark/internal/config"
	"github.com/ivlev/affectmark/internal/geometry"
	"github.com/ivlev/affectmark/internal/player"
	"github.com/ivlev/affectmark/internal/scheduler"
	"github.com/ivlev/affectmark/internal/stats"
	"github.com/ivlev/affectmark/internal/timesync"
	"github.com/ivlev/affectmark/internal/transport"
)

// Frontend is everything the session draws on or asks of the rater.
type Frontend interface {
	transport.Surface
	geometry.Window
	RenderSeek(c timesync.SeekControl)
	// ResetRatings puts both rating sliders back to 0 without recording.
	ResetRatings()
}

// Task runs beside the session loop. Its context is cancelled when the
// loop ends.
type Task func(ctx context.Context) error

type Session struct {
	ID string

	cfg *config.Config
	svc player.Service
	ui  Frontend

	transport *transport.Machine
	sync      *timesync.Controller
	adjuster  *geometry.Adjuster
	recorder  *annotation.Recorder
	sched     *scheduler.Scheduler

	events  chan Event
	done    chan struct{}
	started time.Time
	closed  bool
}

func NewSession(cfg *config.Config, svc player.Service, ui Frontend) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		cfg:       cfg,
		svc:       svc,
		ui:        ui,
		sync:      timesync.NewController(svc, cfg.Quiescence),
		adjuster:  geometry.NewAdjuster(cfg.GeometryConfig(), ui, svc),
		recorder:  annotation.NewRecorder(svc, cfg.RaterID, cfg.OutputDir),
		transport: transport.NewMachine(svc, ui, cfg.Video),
		sched:     scheduler.New(cfg.TickPeriod),
		events:    make(chan Event, 16),
		done:      make(chan struct{}),
		started:   time.Now(),
	}
	s.transport.OnLoad = s.loaded
	s.transport.OnStop = s.stopped
	return s
}

func (s *Session) Transport() *transport.Machine { return s.transport }

func (s *Session) Recorder() *annotation.Recorder { return s.recorder }

func (s *Session) SeekControl() timesync.SeekControl { return s.sync.Control() }

// Post queues ev for the loop. It reports false once the loop has ended.
// Post is safe to call from any goroutine.
func (s *Session) Post(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Run drives s until a Close event, ctx cancellation or the failure of one
// of tasks.
func Run(ctx context.Context, s *Session, tasks ...Task) error {
	g, ctx := errgroup.WithContext(ctx)
	taskCtx, cancel := context.WithCancel(ctx)

	g.Go(func() error {
		defer cancel()
		return s.Loop(ctx)
	})
	for _, task := range tasks {
		g.Go(func() error {
			return task(taskCtx)
		})
	}
	return g.Wait()
}

// Loop handles events and ticks until Close or ctx is done, then closes the
// session.
func (s *Session) Loop(ctx context.Context) error {
	defer close(s.done)

	log.Printf("[*] Session %s | rater %s", s.ID, s.cfg.RaterID)
	s.transport.Render()
	s.ui.RenderSeek(s.sync.Control())

	for {
		select {
		case <-ctx.Done():
			return s.Close()
		case ev := <-s.events:
			if s.Handle(ev) {
				return s.Close()
			}
		case <-s.sched.C():
			s.sched.Run(s.Tick)
		}
	}
}

// Handle runs the handler for ev to completion. It reports true for Close.
func (s *Session) Handle(ev Event) bool {
	var err error
	switch e := ev.(type) {
	case Open:
		err = s.transport.Open(e.Path)
	case Toggle:
		err = s.transport.Toggle()
	case Stop:
		s.transport.Stop()
	case Mute:
		err = s.transport.ToggleMute()
	case Shortcut:
		a, ok := s.transport.Action(e.Key)
		if !ok {
			log.Printf("[!] No action bound to %q", e.Key)
			return false
		}
		err = a.Handler()
	case Volume:
		err = s.transport.SetVolume(e.Level)
	case Rate:
		s.rate(e.Channel, e.Value)
	case Seek:
		s.seek(e.Seconds)
	case Configure:
		if e.Geometry != "" {
			s.ui.SetGeometry(e.Geometry)
		}
		s.adjust()
	case Close:
		return true
	default:
		log.Printf("[!] Unknown event %T", ev)
	}

	if err != nil && !errors.Is(err, player.ErrNoMedia) {
		log.Printf("[!] %v", err)
	}
	return false
}

// Tick is the scheduler body: refresh the seek control, then size the
// window if that has not happened for the current video yet.
func (s *Session) Tick() {
	s.ui.RenderSeek(s.sync.Pull())
	s.adjust()
}

func (s *Session) adjust() {
	if !s.adjuster.Pending() {
		return
	}
	resized, err := s.adjuster.Evaluate()
	if err != nil {
		// retried on the next tick
		return
	}
	if resized {
		log.Printf("[*] Window set to %s", s.ui.Geometry())
	}
}

func (s *Session) rate(ch annotation.Channel, value float64) {
	sample, err := s.recorder.Record(ch, value)
	switch {
	case errors.Is(err, annotation.ErrNoVideo), errors.Is(err, annotation.ErrValue):
		log.Printf("[!] %s rating ignored: %v", ch, err)
	case err != nil:
		log.Printf("[!] %v (kept in memory, %d samples pending)", err, len(s.recorder.Samples(ch)))
	default:
		log.Printf("[>] %s %+.1f at %.3fs -> %s", ch, sample.Value, sample.Time, s.recorder.Path(ch))
	}
}

func (s *Session) seek(seconds float64) {
	seeked, err := s.sync.Push(seconds)
	switch {
	case errors.Is(err, player.ErrNoMedia):
	case err != nil:
		s.ui.ShowError("Seek failed", err)
		s.transport.Stop()
		return
	case seeked:
		log.Printf("[*] Seek to %.0fs", seconds)
	}
	s.ui.RenderSeek(s.sync.Control())
}

func (s *Session) loaded(path string) {
	s.recorder.SetVideo(path)
	s.adjuster.Reset()
	s.ui.ResetRatings()
	s.ui.RenderSeek(s.sync.Reset())
}

func (s *Session) stopped() {
	s.ui.RenderSeek(s.sync.Reset())
}

// Close cancels the pending tick, stops playback, releases the engine and
// writes the session report when enabled. Only the first call does work.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.sched.Stop()
	s.transport.Stop()
	err := s.svc.Close()
	if err != nil {
		log.Printf("[!] Closing engine: %v", err)
	}

	if s.cfg.ShowStats {
		if rerr := stats.Append(s.cfg.ReportPath, s.Report()); rerr != nil {
			log.Printf("[!] Writing session report: %v", rerr)
		} else {
			log.Printf("[*] Session report appended to %s", s.cfg.ReportPath)
		}
	}
	return err
}

func (s *Session) Report() *stats.Report {
	ended := time.Now()
	r := &stats.Report{
		SessionID:   s.ID,
		Rater:       s.cfg.RaterID,
		Started:     s.started,
		Ended:       ended,
		Duration:    ended.Sub(s.started).Round(time.Millisecond).String(),
		Ticks:       s.sched.Ticks(),
		Videos:      s.recorder.Summary(),
		WriteErrors: s.recorder.WriteErrors(),
	}
	p, err := stats.Sample()
	if err != nil {
		log.Printf("[!] Process stats: %v", err)
	} else {
		r.Process = p
	}
	return r
}
