package player

import (
	"fmt"
	"runtime"
)

// RenderTarget binds the engine's video output to a surface. It is resolved
// once at startup; nothing else looks at the host OS.
type RenderTarget interface {
	BindArgs() []string
	String() string
}

// EmbeddedSurface renders into a foreign window identified by a native
// handle (X11 window id, HWND).
type EmbeddedSurface struct {
	Handle uint64
}

func (s EmbeddedSurface) BindArgs() []string {
	return []string{fmt.Sprintf("--wid=%d", s.Handle)}
}

func (s EmbeddedSurface) String() string {
	return fmt.Sprintf("embedded window 0x%x", s.Handle)
}

// OwnWindow lets the engine open and manage its own window.
type OwnWindow struct{}

func (OwnWindow) BindArgs() []string {
	return []string{"--force-window=yes"}
}

func (OwnWindow) String() string {
	return "engine window"
}

// ResolveRenderTarget picks the surface strategy for the running host.
func ResolveRenderTarget(handle uint64) RenderTarget {
	return resolveRenderTarget(runtime.GOOS, handle)
}

func resolveRenderTarget(goos string, handle uint64) RenderTarget {
	if handle == 0 {
		return OwnWindow{}
	}
	switch goos {
	case "darwin":
		// mpv's Cocoa backend ignores --wid and only plays audio
		return OwnWindow{}
	default:
		return EmbeddedSurface{Handle: handle}
	}
}
