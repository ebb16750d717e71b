// Package player is the boundary to the media engine. The rest of the
// program only sees Service; the engine keeps its own clock and threads and
// is queried fresh every time a value is needed.
package player

import "errors"

var (
	ErrMediaLoad = errors.New("media load failed")
	ErrPlayback  = errors.New("playback failed")
	ErrVolumeSet = errors.New("volume set failed")
	ErrNoMedia   = errors.New("no media loaded")
)

// Service is the transport and clock surface of a media engine.
//
// Queries never fail: an engine that cannot answer yet (nothing decoded,
// property unavailable) reports zero values. Commands return an error
// wrapping one of the package sentinels.
type Service interface {
	Load(path string) error
	Play() error
	Pause() error
	Stop() error

	HasMedia() bool
	IsPlaying() bool

	TimeMs() int
	SetTimeMs(ms int) error
	LengthMs() int

	Volume() int
	SetVolume(vol int) error
	SetMute(muted bool) error

	// VideoSize is (0, 0) until decoding has warmed up.
	VideoSize() (width, height int)
	// ScreenSize is the size of the display the video is shown on, (0, 0)
	// when unknown.
	ScreenSize() (width, height int)

	Close() error
}

// GeometrySetter is implemented by engines that own their window and can be
// told to move or resize it.
type GeometrySetter interface {
	SetGeometry(geometry string) error
}
