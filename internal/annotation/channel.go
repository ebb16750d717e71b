package annotation

import (
	"fmt"
	"strings"
)

// Channel is one affect dimension rated over time.
type Channel int

const (
	Valence Channel = iota
	Arousal
)

var Channels = []Channel{Valence, Arousal}

func (c Channel) String() string {
	switch c {
	case Valence:
		return "valence"
	case Arousal:
		return "arousal"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Label is the capitalised name used in output file names.
func (c Channel) Label() string {
	switch c {
	case Valence:
		return "Valence"
	case Arousal:
		return "Arousal"
	default:
		return c.String()
	}
}

func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "v", "valence":
		return Valence, nil
	case "a", "arousal":
		return Arousal, nil
	default:
		return 0, fmt.Errorf("unknown channel: %q", s)
	}
}

// Sample is one rating, stamped with the playback position it was given at.
type Sample struct {
	Time  float64 // seconds
	Value float64
}
