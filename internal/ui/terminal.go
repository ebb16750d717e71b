// Package ui is a line-oriented terminal front end for a rating session.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/ivlev/affectmark/internal/annotation"
	"github.com/ivlev/affectmark/internal/app"
	"github.com/ivlev/affectmark/internal/geometry"
	"github.com/ivlev/affectmark/internal/player"
	"github.com/ivlev/affectmark/internal/timesync"
	"github.com/ivlev/affectmark/internal/transport"
)

// Rating slider range.
const (
	RatingMin = -10.0
	RatingMax = 10.0
)

// DefaultGeometry is the virtual window before anything resized it.
const DefaultGeometry = "960x540+0+0"

const help = `commands:
  o [PATH]     open a video (asks for a path when omitted)
  p            play / pause
  s            stop
  m            mute / unmute
  vol N        volume 0..100
  v N          valence rating -10..10
  a N          arousal rating -10..10
  t SECONDS    seek
  g WxH+X+Y    resize the window
  i            status
  q            quit`

// Terminal renders the session on a terminal and turns typed lines into
// session events. Render methods run on the session goroutine, the reader
// on its own; mu guards what both touch.
type Terminal struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	engine player.GeometrySetter

	mu           sync.Mutex
	labels       map[string]string
	volume       string
	seek         timesync.SeekControl
	ratings      [2]float64
	geometry     string
	awaitingPath bool
}

var _ app.Frontend = (*Terminal)(nil)

// NewTerminal creates a front end. engine may be nil when the media engine
// cannot be told to move its window.
func NewTerminal(in io.Reader, out, errOut io.Writer, engine player.GeometrySetter) *Terminal {
	return &Terminal{
		in:       in,
		out:      out,
		errOut:   errOut,
		engine:   engine,
		labels:   make(map[string]string),
		geometry: DefaultGeometry,
	}
}

func (t *Terminal) RenderAction(a transport.ToggleAction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.labels[a.Shortcut] == a.Label {
		return
	}
	t.labels[a.Shortcut] = a.Label
	fmt.Fprintf(t.out, "[*] [%s] %s\n", a.Shortcut, a.Label)
}

func (t *Terminal) RenderVolume(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.volume == label {
		return
	}
	t.volume = label
	fmt.Fprintf(t.out, "[*] %s\n", label)
}

// RenderSeek keeps the latest control state for the status line. Only a
// change of the known length is printed.
func (t *Terminal) RenderSeek(c timesync.SeekControl) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c.Max != t.seek.Max && c.Max > 0 {
		fmt.Fprintf(t.out, "[*] Length %s\n", clock(c.Max))
	}
	t.seek = c
}

func (t *Terminal) ResetRatings() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ratings = [2]float64{}
}

func (t *Terminal) ShowError(title string, err error) {
	fmt.Fprintf(t.errOut, "[!] %s: %v\n", title, err)
}

// AskPath prompts for a path and returns at once. The answer arrives as
// the next typed line, which the reader turns into an Open event.
func (t *Terminal) AskPath() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.awaitingPath = true
	fmt.Fprint(t.out, "[?] Video path (empty line cancels, q quits): ")
	return ""
}

func (t *Terminal) Geometry() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.geometry
}

func (t *Terminal) SetGeometry(g string) {
	t.mu.Lock()
	t.geometry = g
	t.mu.Unlock()

	if t.engine != nil {
		if err := t.engine.SetGeometry(g); err != nil {
			log.Printf("[!] Engine geometry %s: %v", g, err)
		}
	}
}

// Status is the one-line summary printed by the i command.
func (t *Terminal) Status() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("%s | %s / %s | %s | valence %+.0f arousal %+.0f | window %s",
		t.labels[transport.ShortcutPlayPause],
		clock(t.seek.Value), clock(t.seek.Max),
		t.volume,
		t.ratings[annotation.Valence], t.ratings[annotation.Arousal],
		t.geometry)
}

// ReadCommands reads lines until EOF or ctx is done and posts the events
// they describe. EOF posts Close.
func (t *Terminal) ReadCommands(ctx context.Context, post func(app.Event) bool) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(t.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	fmt.Fprintln(t.out, "[*] Type h for help")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			post(app.Close{})
			if err != nil {
				return fmt.Errorf("read commands: %w", err)
			}
			return nil
		case line := <-lines:
			if !t.handleLine(line, post) {
				return nil
			}
		}
	}
}

func (t *Terminal) handleLine(line string, post func(app.Event) bool) bool {
	t.mu.Lock()
	awaiting := t.awaitingPath
	t.awaitingPath = false
	t.mu.Unlock()

	if awaiting {
		switch path := strings.TrimSpace(line); path {
		case "":
			return true
		case "q":
			return post(app.Close{})
		default:
			return post(app.Open{Path: path})
		}
	}

	switch strings.TrimSpace(line) {
	case "h", "help":
		fmt.Fprintln(t.out, help)
		return true
	case "i":
		fmt.Fprintf(t.out, "[*] %s\n", t.Status())
		return true
	}

	ev, err := Parse(line)
	if err != nil {
		fmt.Fprintf(t.errOut, "[!] %v\n", err)
		return true
	}
	if ev == nil {
		return true
	}
	if r, ok := ev.(app.Rate); ok {
		t.mu.Lock()
		t.ratings[r.Channel] = r.Value
		t.mu.Unlock()
	}
	return post(ev)
}

var ErrUnknownCommand = errors.New("unknown command")

// Parse turns one command line into an event. Blank lines give (nil, nil).
func Parse(line string) (app.Event, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "o":
		return app.Open{Path: strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "o"))}, nil
	case "p":
		return app.Shortcut{Key: transport.ShortcutPlayPause}, nil
	case "m":
		return app.Shortcut{Key: transport.ShortcutMute}, nil
	case "s":
		return app.Stop{}, nil
	case "q":
		return app.Close{}, nil
	case "vol":
		n, err := intArg(cmd, args)
		if err != nil {
			return nil, err
		}
		return app.Volume{Level: n}, nil
	case "v", "a":
		ch, err := annotation.ParseChannel(cmd)
		if err != nil {
			return nil, err
		}
		x, err := floatArg(cmd, args)
		if err != nil {
			return nil, err
		}
		return app.Rate{Channel: ch, Value: min(max(x, RatingMin), RatingMax)}, nil
	case "t":
		x, err := floatArg(cmd, args)
		if err != nil {
			return nil, err
		}
		if x < 0 {
			return nil, fmt.Errorf("t: negative position %g", x)
		}
		return app.Seek{Seconds: x}, nil
	case "g":
		if len(args) != 1 {
			return nil, fmt.Errorf("g: want WxH+X+Y")
		}
		g, err := geometry.Parse(args[0])
		if err != nil {
			return nil, err
		}
		return app.Configure{Geometry: g.String()}, nil
	default:
		return nil, fmt.Errorf("%w: %q (h for help)", ErrUnknownCommand, cmd)
	}
}

func intArg(cmd string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s: want one number", cmd)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cmd, err)
	}
	return n, nil
}

func floatArg(cmd string, args []string) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s: want one number", cmd)
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cmd, err)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("%s: %s is not a finite number", cmd, args[0])
	}
	return x, nil
}

func clock(seconds float64) string {
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
