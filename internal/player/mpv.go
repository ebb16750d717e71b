package player

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

type MPVOptions struct {
	Binary       string
	Socket       string
	Target       RenderTarget
	StartTimeout time.Duration
	CallTimeout  time.Duration
}

// DefaultLoadTimeout bounds how long Load waits for mpv to open a file.
const DefaultLoadTimeout = 5 * time.Second

// MPV drives an mpv process over its JSON IPC socket.
type MPV struct {
	cmd         *exec.Cmd
	ipc         *ipcClient
	media       string
	loadTimeout time.Duration
}

var _ Service = (*MPV)(nil)
var _ GeometrySetter = (*MPV)(nil)

// StartMPV launches mpv idle and paused, then connects to its IPC socket.
func StartMPV(ctx context.Context, opts MPVOptions) (*MPV, error) {
	binary := opts.Binary
	if binary == "" {
		binary = "mpv"
	}
	socket := opts.Socket
	if socket == "" {
		socket = filepath.Join(os.TempDir(), fmt.Sprintf("affectmark-%d.sock", os.Getpid()))
	}
	os.Remove(socket)

	target := opts.Target
	if target == nil {
		target = OwnWindow{}
	}

	args := []string{
		"--idle=yes",
		"--pause",
		"--keep-open=yes",
		"--no-terminal",
		"--input-ipc-server=" + socket,
	}
	args = append(args, target.BindArgs()...)

	cmd := exec.CommandContext(ctx, binary, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	timeout := opts.StartTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	conn, err := dialSocket(ctx, socket, timeout)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return nil, err
	}

	m := NewMPV(conn, opts.CallTimeout)
	m.cmd = cmd
	m.loadTimeout = timeout
	return m, nil
}

// NewMPV wraps an already connected IPC socket.
func NewMPV(conn net.Conn, callTimeout time.Duration) *MPV {
	if callTimeout <= 0 {
		callTimeout = 2 * time.Second
	}
	return &MPV{
		ipc:         newIPCClient(conn, callTimeout),
		loadTimeout: DefaultLoadTimeout,
	}
}

func dialSocket(ctx context.Context, socket string, timeout time.Duration) (net.Conn, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(timeout)

	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline:
			return nil, fmt.Errorf("mpv ipc socket %s not ready after %v: %w", socket, timeout, err)
		case <-ticker.C:
		}
	}
}

// Watch blocks until the mpv process exits. Once ctx is done the process
// gets killGrace to quit on its own before it is killed.
func (m *MPV) Watch(ctx context.Context, killGrace time.Duration) error {
	if m.cmd == nil {
		return nil
	}
	exited := make(chan error, 1)
	go func() { exited <- m.cmd.Wait() }()

	select {
	case err := <-exited:
		return err
	case <-ctx.Done():
	}

	select {
	case err := <-exited:
		return err
	case <-time.After(killGrace):
		m.cmd.Process.Kill()
		<-exited
		return fmt.Errorf("mpv did not quit within %v, killed", killGrace)
	}
}

// Load opens path and waits until mpv has either loaded it or given up on
// it. loadfile itself is acknowledged before the file is even probed, so
// only the file-loaded and end-file events tell the two apart.
func (m *MPV) Load(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %v", ErrMediaLoad, err)
	}
	m.ipc.discard("file-loaded", "end-file")
	if _, err := m.ipc.call("loadfile", path, "replace"); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMediaLoad, path, err)
	}

	// replacing a file ends the old one with reason "stop", which is not ours
	ev, err := m.ipc.await(m.loadTimeout, func(ev ipcResponse) bool {
		return ev.Event == "file-loaded" || (ev.Event == "end-file" && ev.Reason == "error")
	})
	if err != nil {
		m.media = ""
		return fmt.Errorf("%w: %s: %v", ErrMediaLoad, path, err)
	}
	if ev.Event == "end-file" {
		m.media = ""
		reason := ev.FileError
		if reason == "" {
			reason = "rejected by mpv"
		}
		return fmt.Errorf("%w: %s: %s", ErrMediaLoad, path, reason)
	}
	m.media = path
	return nil
}

func (m *MPV) Play() error {
	if m.media == "" {
		return ErrNoMedia
	}
	if err := m.ipc.set("pause", false); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	return nil
}

func (m *MPV) Pause() error {
	if m.media == "" {
		return nil
	}
	if err := m.ipc.set("pause", true); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	return nil
}

// Stop pauses and rewinds. The media stays loaded so a later Play starts
// over from the beginning.
func (m *MPV) Stop() error {
	if m.media == "" {
		return nil
	}
	if err := m.ipc.set("pause", true); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	if _, err := m.ipc.call("seek", 0, "absolute"); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}
	return nil
}

func (m *MPV) HasMedia() bool {
	return m.media != ""
}

func (m *MPV) IsPlaying() bool {
	if m.media == "" {
		return false
	}
	paused, err := m.ipc.getBool("pause")
	if err != nil || paused {
		return false
	}
	if eof, err := m.ipc.getBool("eof-reached"); err == nil && eof {
		return false
	}
	return true
}

func (m *MPV) TimeMs() int {
	pos, err := m.ipc.getFloat("time-pos")
	if err != nil {
		return 0
	}
	return int(math.Round(pos * 1000))
}

func (m *MPV) SetTimeMs(ms int) error {
	if m.media == "" {
		return ErrNoMedia
	}
	if _, err := m.ipc.call("seek", float64(ms)/1000, "absolute"); err != nil {
		return fmt.Errorf("%w: seek to %dms: %v", ErrPlayback, ms, err)
	}
	return nil
}

func (m *MPV) LengthMs() int {
	d, err := m.ipc.getFloat("duration")
	if err != nil {
		return 0
	}
	return int(math.Round(d * 1000))
}

func (m *MPV) Volume() int {
	v, err := m.ipc.getFloat("volume")
	if err != nil {
		return 0
	}
	return clampVolume(int(math.Round(v)))
}

func (m *MPV) SetVolume(vol int) error {
	if err := m.ipc.set("volume", clampVolume(vol)); err != nil {
		return fmt.Errorf("%w: %d: %v", ErrVolumeSet, vol, err)
	}
	return nil
}

func (m *MPV) SetMute(muted bool) error {
	return m.ipc.set("mute", muted)
}

func (m *MPV) VideoSize() (int, int) {
	return m.intPair("dwidth", "dheight")
}

func (m *MPV) ScreenSize() (int, int) {
	return m.intPair("display-width", "display-height")
}

func (m *MPV) intPair(a, b string) (int, int) {
	x, err := m.ipc.getFloat(a)
	if err != nil {
		return 0, 0
	}
	y, err := m.ipc.getFloat(b)
	if err != nil {
		return 0, 0
	}
	return int(x), int(y)
}

func (m *MPV) SetGeometry(geometry string) error {
	return m.ipc.set("geometry", geometry)
}

// Close asks mpv to quit and drops the connection.
func (m *MPV) Close() error {
	_, quitErr := m.ipc.call("quit")
	closeErr := m.ipc.close()
	var ipcErr *ipcError
	if quitErr != nil && !errors.As(quitErr, &ipcErr) {
		// mpv often closes the socket before replying to quit
		quitErr = nil
	}
	return errors.Join(quitErr, closeErr)
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
